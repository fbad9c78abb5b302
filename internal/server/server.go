// FilePath: server/monitor/internal/server/server.go
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/itsatony/curecraft/server/monitor/api"
	"github.com/itsatony/curecraft/server/monitor/internal/config"
	"github.com/itsatony/curecraft/server/monitor/internal/database"
	"github.com/itsatony/curecraft/server/monitor/internal/hub"
	"github.com/itsatony/curecraft/server/monitor/internal/hubservice"
	"github.com/itsatony/curecraft/server/monitor/internal/monitoring"
	"github.com/itsatony/curecraft/server/monitor/internal/repository/rediskv"
	"github.com/prometheus/client_golang/prometheus"
	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/sync/errgroup"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	mon := monitoring.NewService(monitoring.Config{
		LogLevel:    cfg.Monitoring.LogLevel,
		MetricsPath: cfg.Monitoring.MetricsPath,
	}, prometheus.DefaultRegisterer)
	return NewWithService(cfg, initializeHubService(cfg, mon), mon)
}

// NewWithService builds a server around an existing hub service.
func NewWithService(cfg *config.Config, svc *hubservice.HubService, mon *monitoring.Service) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(svc, cfg.Server.WebRoot),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return &Server{
		config:     cfg,
		srv:        srv,
		hubservice: svc,
		monitoring: mon,
	}
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves HTTP, rescans the hub and applies telemetry until ctx ends,
// then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.hubservice.Start(ctx); err != nil {
		return err
	}
	s.setupCleanupHandlers()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		nuts.L.Infof("[Server] Starting server on %s (mock=%v, rate=%dHz)",
			s.srv.Addr, s.hubservice.Sensors.Mock(), s.config.Stream.RateHz)
		if err := s.srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return s.hubservice.RunScanLoop(gctx) })
	g.Go(func() error { return s.hubservice.Sockets.Run(gctx) })
	g.Go(func() error { return s.hubservice.RunTelemetry(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

// shutdown ends open streams first so the HTTP server can drain.
func (s *Server) shutdown() error {
	nuts.L.Infof("[Server] Shutting down server...")
	s.hubservice.Stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down server: %w", err))
	}
	if err := s.hubservice.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		nuts.L.Infof("[Server] Server shut down successfully")
	}
	return stderrors.Join(errs...)
}

func (s *Server) setupCleanupHandlers() {
	for _, name := range []string{"transport", "telemetry", "patient_repository", "stream"} {
		s.hubservice.Cleanup.OnCleanup(name+".closed", func(name string) {
			s.monitoring.RecordEvent("component_closed", map[string]string{
				"component": name,
			})
		})
	}
}

// initializeHubService creates and configures the hub service
func initializeHubService(cfg *config.Config, mon *monitoring.Service) *hubservice.HubService {
	var opts []hubservice.Option
	if cfg.Redis.Enabled {
		db, err := database.NewRedisDB(cfg.Redis)
		if err != nil {
			nuts.L.Warnf("[Server] Patient data will not be mirrored: %v", err)
		} else {
			opts = append(opts, hubservice.WithPatientRepository(rediskv.NewPatientRepository(db, cfg.Redis.Key)))
		}
	}
	return hubservice.New(cfg, initTransport(cfg.Hub), mon, opts...)
}

func initTransport(cfg config.HubConfig) hub.Transport {
	if cfg.Mock {
		nuts.L.Infof("[Server] Using mock sensor hub")
		return hub.NewMockTransport()
	}
	bus, err := hub.NewPeriphBus(cfg.Bus)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize I2C host: %v", err)
	}
	return hub.NewBusTransport(bus, hub.TransportConfig{
		Address:         cfg.Address,
		ResponseTimeout: cfg.ResponseTimeout,
	})
}
