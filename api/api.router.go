package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/curecraft/server/monitor/api/middleware"
	"github.com/itsatony/curecraft/server/monitor/api/resources"
	"github.com/itsatony/curecraft/server/monitor/internal/hubservice"
	nuts "github.com/vaudience/go-nuts"
)

type Router struct {
	router      *mux.Router
	handler     http.Handler
	resources   *resources.Resources
	metricsPath string
	webRoot     string
}

func NewRouter(svc *hubservice.HubService, webRoot string) *Router {
	r := &Router{
		router:      mux.NewRouter(),
		resources:   resources.NewResources(svc),
		metricsPath: svc.Monitoring.MetricsPath(),
		webRoot:     webRoot,
	}
	r.resources.SetHealthCheck(handleHealth)

	r.setupRoutes()
	r.handler = middleware.Wrap(r.router)
	return r
}

func (r *Router) setupRoutes() {
	// Streams
	r.router.HandleFunc("/ws", r.resources.Stream.Events).Methods(http.MethodGet)
	r.router.HandleFunc("/ws/socket", r.resources.Stream.Socket).Methods(http.MethodGet)

	api := r.router.PathPrefix("/api").Subrouter()

	// Sensors
	api.HandleFunc("/sensors", r.resources.Sensors.ListSensors).Methods(http.MethodGet)
	api.HandleFunc("/sensors/scan", r.resources.Sensors.Rescan).Methods(http.MethodPost)
	api.HandleFunc("/sensors/{kind}", r.resources.Sensors.GetSensor).Methods(http.MethodGet)
	api.HandleFunc("/sensors/{kind}/value", r.resources.Sensors.ReadSensor).Methods(http.MethodGet)
	api.HandleFunc("/hub/status", r.resources.Sensors.HubStatus).Methods(http.MethodGet)

	// Monitor
	api.HandleFunc("/status", r.resources.Monitor.Status).Methods(http.MethodGet)
	api.HandleFunc("/vitals", r.resources.Monitor.Vitals).Methods(http.MethodGet)
	api.HandleFunc("/patient", r.resources.Monitor.Patient).Methods(http.MethodGet)
	api.HandleFunc("/signal/reset", r.resources.Monitor.ResetSignal).Methods(http.MethodPost)
	api.HandleFunc("/login", r.resources.Monitor.Login).Methods(http.MethodPost)
	api.HandleFunc("/logout", r.resources.Monitor.Logout).Methods(http.MethodPost)

	// Public routes
	v1 := r.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	r.router.Handle(r.metricsPath, r.resources.Metrics).Methods(http.MethodGet)

	if r.webRoot != "" {
		r.router.PathPrefix("/").Handler(http.FileServer(http.Dir(r.webRoot)))
	}
}

// handleHealth returns a simple health check handler
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
