// FilePath: server/monitor/api/resources/resources.go
package resources

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/itsatony/curecraft/server/monitor/internal/errors"
	"github.com/itsatony/curecraft/server/monitor/internal/hubservice"
	nuts "github.com/vaudience/go-nuts"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// Resources holds all HTTP resource handlers
type Resources struct {
	Sensors     *SensorHandlers
	Monitor     *MonitorHandlers
	Stream      *StreamHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     http.Handler
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService) *Resources {
	return &Resources{
		Sensors: &SensorHandlers{service: svc},
		Monitor: &MonitorHandlers{service: svc},
		Stream:  &StreamHandlers{sse: svc.Stream, socket: svc.Sockets},
		Metrics: svc.Monitoring.Handler(),
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// toAPIError keeps service errors as they are and wraps anything else as internal.
func toAPIError(err error, msg string) *errors.APIError {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return errors.NewInternalError(msg, err)
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", err.Error())
	} else {
		nuts.L.Debugf("[API] %s", err.Error())
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
