package hubservice

import (
	"context"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/cleanup"
	"github.com/itsatony/curecraft/server/monitor/internal/config"
	"github.com/itsatony/curecraft/server/monitor/internal/errors"
	"github.com/itsatony/curecraft/server/monitor/internal/hub"
	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/itsatony/curecraft/server/monitor/internal/monitoring"
	"github.com/itsatony/curecraft/server/monitor/internal/repository"
	"github.com/itsatony/curecraft/server/monitor/internal/sensors"
	"github.com/itsatony/curecraft/server/monitor/internal/stream"
	"github.com/itsatony/curecraft/server/monitor/internal/telemetry"
	"github.com/itsatony/curecraft/server/monitor/internal/vitals"
	"github.com/itsatony/curecraft/server/monitor/internal/waveform"
	nuts "github.com/vaudience/go-nuts"
)

// HubService wires the monitor's parts together and owns their lifecycle.
type HubService struct {
	Store      *vitals.Store
	Generator  *waveform.Generator
	Sensors    *sensors.Registry
	Telemetry  *telemetry.Listener // nil when telemetry is disabled
	Stream     *stream.Broadcaster
	Sockets    *stream.SocketHub
	Monitoring *monitoring.Service
	Cleanup    *cleanup.CleanupService

	auth         config.AuthConfig
	scanInterval time.Duration
}

// Option customises New.
type Option func(*options)

type options struct {
	patients repository.PatientRepository
}

// WithPatientRepository mirrors telemetry into repo.
func WithPatientRepository(repo repository.PatientRepository) Option {
	return func(o *options) { o.patients = repo }
}

// New creates a new HubService instance around an already constructed
// transport. Nothing touches the hardware until Start.
func New(cfg *config.Config, transport hub.Transport, mon *monitoring.Service, opts ...Option) *HubService {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	transport = hub.Instrument(transport, func(cmd hub.Command, err error) {
		mon.ObserveCommand(cmd.String(), err)
	})

	store := vitals.NewStore()
	gen := waveform.New(store)
	registry := sensors.New(transport, sensors.Config{
		MaxRetries: cfg.Hub.MaxRetries,
		RetryDelay: cfg.Hub.RetryDelay,
	})
	broadcaster := stream.NewBroadcaster(gen, registry, stream.Config{
		RateHz:    cfg.Stream.RateHz,
		MaxRateHz: cfg.Stream.MaxRateHz,
	}, mon)

	svc := &HubService{
		Store:        store,
		Generator:    gen,
		Sensors:      registry,
		Stream:       broadcaster,
		Sockets:      stream.NewSocketHub(broadcaster),
		Monitoring:   mon,
		Cleanup:      cleanup.New(),
		auth:         cfg.Auth,
		scanInterval: cfg.Hub.ScanInterval,
	}

	if cfg.Telemetry.Enabled {
		lopts := []telemetry.Option{telemetry.WithMetrics(mon)}
		if o.patients != nil {
			lopts = append(lopts, telemetry.WithRepository(o.patients))
		}
		svc.Telemetry = telemetry.NewListener(telemetry.Config{
			URL:           cfg.Telemetry.URL,
			ClientName:    cfg.Telemetry.ClientName,
			Buffer:        cfg.Telemetry.Buffer,
			ReconnectWait: cfg.Telemetry.ReconnectWait,
		}, store, lopts...)
	}

	// Released newest first: streams, then telemetry and its mirror, then the bus.
	svc.Cleanup.Register("transport", registry.Close)
	if o.patients != nil {
		svc.Cleanup.Register("patient_repository", o.patients.Close)
	}
	if svc.Telemetry != nil {
		svc.Cleanup.Register("telemetry", svc.Telemetry.Close)
	}
	svc.Cleanup.Register("stream", func() error {
		broadcaster.Close()
		return nil
	})

	registry.OnChange(func(kind models.SensorKind, attached bool) {
		event := "sensor_detached"
		if attached {
			event = "sensor_attached"
		}
		mon.RecordEvent(event, map[string]string{"sensor": kind.String()})
	})
	return svc
}

// Validate checks if all required parts are initialized
func (s *HubService) Validate() error {
	if s.Store == nil {
		return ErrMissingComponent("store")
	}
	if s.Generator == nil {
		return ErrMissingComponent("generator")
	}
	if s.Sensors == nil {
		return ErrMissingComponent("sensors")
	}
	if s.Stream == nil || s.Sockets == nil {
		return ErrMissingComponent("stream")
	}
	if s.Monitoring == nil {
		return ErrMissingComponent("monitoring")
	}
	if s.Cleanup == nil {
		return ErrMissingComponent("cleanup")
	}
	return nil
}

// Start brings up the hardware and the broker connection. Neither failing
// stops the monitor: it keeps streaming synthetic data.
func (s *HubService) Start(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := s.Sensors.Initialize(ctx); err != nil {
		return err
	}
	s.Monitoring.SetAttached(s.Sensors.AttachedCount())

	if s.Telemetry != nil {
		if n, err := s.Telemetry.Restore(ctx); err != nil {
			nuts.L.Warnf("[HubService] Restoring patient data failed: %v", err)
		} else if n > 0 {
			nuts.L.Infof("[HubService] Restored %d patient readings", n)
		}
		if err := s.Telemetry.Connect(); err != nil {
			nuts.L.Warnf("[HubService] Telemetry unavailable: %v", err)
		}
	}
	return nil
}

// RunTelemetry applies broker messages until ctx ends.
func (s *HubService) RunTelemetry(ctx context.Context) error {
	if s.Telemetry == nil {
		<-ctx.Done()
		return nil
	}
	return s.Telemetry.Run(ctx)
}

// Shutdown releases every resource once.
func (s *HubService) Shutdown() error {
	return s.Cleanup.Shutdown()
}

func ErrMissingComponent(name string) error {
	return errors.NewInternalError("missing component: "+name, nil)
}
