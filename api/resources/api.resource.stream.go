package resources

import (
	"net/http"

	"github.com/itsatony/curecraft/server/monitor/internal/errors"
	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/itsatony/curecraft/server/monitor/internal/stream"
	nuts "github.com/vaudience/go-nuts"
)

// StreamHandlers serve live vitals frames.
type StreamHandlers struct {
	sse    *stream.Broadcaster
	socket http.Handler
}

// @Summary Vitals event stream
// @Description Server-sent events, one fused frame per interval
// @Tags stream
// @Produce text/event-stream
// @Param rate query int false "Frames per second"
// @Success 200
// @Failure 400 {object} errors.APIError
// @Router /ws [get]
func (h *StreamHandlers) Events(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var params models.StreamParams
	if err := queryDecoder.Decode(&params, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	if err := h.sse.ServeSSE(w, r, params.Rate); err != nil {
		respondWithError(w, errors.NewInternalError("streaming failed", err).WithRequestID(requestID))
	}
}

// @Summary Vitals websocket
// @Description Same frames as /ws, as websocket text messages at the default rate
// @Tags stream
// @Router /ws/socket [get]
func (h *StreamHandlers) Socket(w http.ResponseWriter, r *http.Request) {
	h.socket.ServeHTTP(w, r)
}
