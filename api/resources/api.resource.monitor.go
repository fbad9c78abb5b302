package resources

import (
	"encoding/json"
	"net/http"

	"github.com/itsatony/curecraft/server/monitor/internal/errors"
	"github.com/itsatony/curecraft/server/monitor/internal/hubservice"
	"github.com/itsatony/curecraft/server/monitor/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// MonitorHandlers serves monitor-wide state.
type MonitorHandlers struct {
	service hubservice.MonitorService
}

// @Summary Monitor status
// @Tags monitor
// @Produce json
// @Success 200 {object} models.MonitorStatus
// @Router /api/status [get]
func (h *MonitorHandlers) Status(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Status())
}

// @Summary Current vitals
// @Description One fused frame, the same a stream client receives
// @Tags monitor
// @Produce json
// @Success 200 {object} models.Frame
// @Router /api/vitals [get]
func (h *MonitorHandlers) Vitals(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Vitals())
}

// @Summary Patient data
// @Description Latest telemetry readings grouped by heart, lung and conditions
// @Tags monitor
// @Produce json
// @Success 200 {object} models.PatientData
// @Failure 503 {object} errors.APIError
// @Router /api/patient [get]
func (h *MonitorHandlers) Patient(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	data, err := h.service.Patient()
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to get patient data").WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, data)
}

// @Summary Reset signal
// @Tags monitor
// @Success 204
// @Router /api/signal/reset [post]
func (h *MonitorHandlers) ResetSignal(w http.ResponseWriter, r *http.Request) {
	h.service.ResetSignal()
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Operator credentials"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /api/login [post]
func (h *MonitorHandlers) Login(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if err := h.service.Login(req); err != nil {
		respondWithError(w, toAPIError(err, "login failed").WithRequestID(requestID))
		return
	}
	nuts.L.Infof("[API] %s logged in", req.Username)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "user": req.Username})
}

// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/logout [post]
func (h *MonitorHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
