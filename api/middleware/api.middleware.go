package middleware

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
)

// Wrap applies CORS, panic recovery and access logging to h. The wrapped
// writer keeps http.Flusher and http.Hijacker, so streams pass through.
func Wrap(h http.Handler) http.Handler {
	h = handlers.CustomLoggingHandler(io.Discard, h, logRequest)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(h)
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(h)
}

func logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	nuts.L.Debugf("[API] %s %s %d %dB %s",
		p.Request.Method, p.URL.RequestURI(), p.StatusCode, p.Size, time.Since(p.TimeStamp).Round(time.Millisecond))
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	nuts.L.Errorf("[API] Recovered from panic: %s", fmt.Sprint(v...))
}
