// FilePath: server/monitor/internal/stream/stream.sse.go
package stream

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// ErrStreamingUnsupported is returned when the response cannot be flushed.
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// ServeSSE pushes one "data: <json>" event per interval until the client
// goes away or the broadcaster closes. rate is in frames per second and is
// clamped by Rate.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, rate int) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id := b.register(TransportSSE)
	defer b.unregister(id)

	ticker := time.NewTicker(time.Second / time.Duration(b.Rate(rate)))
	defer ticker.Stop()

	for {
		if err := b.writeEvent(w); err != nil {
			nuts.L.Debugf("[Stream] sse client %s write failed: %v", id, err)
			return nil
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return nil
		case <-b.done:
			return nil
		case <-ticker.C:
		}
	}
}

func (b *Broadcaster) writeEvent(w http.ResponseWriter) error {
	payload, err := Encode(b.Frame())
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	b.metrics.FrameSent(TransportSSE)
	return nil
}
