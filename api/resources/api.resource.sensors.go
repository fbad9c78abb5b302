package resources

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/curecraft/server/monitor/internal/hubservice"
	nuts "github.com/vaudience/go-nuts"
)

// SensorHandlers encapsulates the sensor-related HTTP handlers
type SensorHandlers struct {
	service hubservice.SensorService
}

// @Summary List sensor attachment
// @Description Attachment state of every sensor, as last scanned
// @Tags sensors
// @Produce json
// @Success 200 {object} models.SensorStatus
// @Router /api/sensors [get]
func (h *SensorHandlers) ListSensors(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.SensorStatus())
}

// @Summary Get sensor
// @Tags sensors
// @Produce json
// @Param kind path string true "Sensor key (ecg, spo2, temp_core, temp_skin, nibp, resp)"
// @Success 200 {object} models.SensorRecord
// @Failure 404 {object} errors.APIError
// @Router /api/sensors/{kind} [get]
func (h *SensorHandlers) GetSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	record, err := h.service.SensorRecord(mux.Vars(r)["kind"])
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to get sensor").WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}

// @Summary Read sensor
// @Description Reads one value from the hub
// @Tags sensors
// @Produce json
// @Param kind path string true "Sensor key"
// @Success 200 {object} models.SensorRecord
// @Failure 404 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Failure 503 {object} errors.APIError
// @Router /api/sensors/{kind}/value [get]
func (h *SensorHandlers) ReadSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	record, err := h.service.ReadSensor(r.Context(), mux.Vars(r)["kind"])
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to read sensor").WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}

// @Summary Rescan sensors
// @Tags sensors
// @Produce json
// @Success 200 {object} models.ScanResult
// @Failure 503 {object} errors.APIError
// @Router /api/sensors/scan [post]
func (h *SensorHandlers) Rescan(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	result, err := h.service.Rescan(r.Context())
	if err != nil {
		respondWithError(w, toAPIError(err, "scan failed").WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Hub status
// @Description Raw GET_STATUS answer of the sensor hub
// @Tags sensors
// @Produce json
// @Success 200 {object} models.HubStatus
// @Failure 503 {object} errors.APIError
// @Router /api/hub/status [get]
func (h *SensorHandlers) HubStatus(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	status, err := h.service.HubStatus(r.Context())
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to get hub status").WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}
