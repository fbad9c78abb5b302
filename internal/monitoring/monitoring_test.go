package monitoring

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewService(Config{}, reg), reg
}

func TestService_RecordEvent(t *testing.T) {
	s, _ := newTestService(t)
	s.RecordEvent("sensor_attached", map[string]string{"sensor": "ecg"})
	s.RecordEvent("sensor_attached", nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(s.events.WithLabelValues("sensor_attached")))
}

func TestService_ObserveCommand(t *testing.T) {
	s, _ := newTestService(t)
	s.ObserveCommand("scan_sensors", nil)
	s.ObserveCommand("scan_sensors", errors.New("nack"))
	s.ObserveCommand("scan_sensors", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.hubCommands.WithLabelValues("scan_sensors", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.hubCommands.WithLabelValues("scan_sensors", "error")))
}

func TestService_StreamClients(t *testing.T) {
	s, _ := newTestService(t)
	s.ClientConnected("sse")
	s.ClientConnected("sse")
	s.ClientDisconnected("sse")
	s.FrameSent("websocket")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.streamClients.WithLabelValues("sse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.streamFrames.WithLabelValues("websocket")))
}

func TestService_TelemetryGroups(t *testing.T) {
	s, _ := newTestService(t)
	s.TelemetryMessage("lung/oxygenSaturation", nil)
	s.TelemetryMessage("conditions/septic", errors.New("bad payload"))
	s.TelemetryMessage("", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.telemetryMessages.WithLabelValues("lung", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.telemetryMessages.WithLabelValues("conditions", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.telemetryMessages.WithLabelValues("unknown", "ok")))
}

func TestService_Handler(t *testing.T) {
	s, _ := newTestService(t)
	s.SetAttached(4)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "curecraft_hub_attached_sensors 4")
	assert.Equal(t, "/metrics", s.MetricsPath())
}
