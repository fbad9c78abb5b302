package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/config"
	"github.com/itsatony/curecraft/server/monitor/internal/errors"
	"github.com/itsatony/curecraft/server/monitor/internal/hub"
	"github.com/itsatony/curecraft/server/monitor/internal/hubservice"
	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/itsatony/curecraft/server/monitor/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, webRoot string) (*httptest.Server, *hubservice.HubService) {
	t.Helper()
	cfg := &config.Config{
		Stream: config.StreamConfig{RateHz: 20, MaxRateHz: 50},
		Hub: config.HubConfig{
			Mock:         true,
			ScanInterval: time.Second,
			MaxRetries:   1,
			RetryDelay:   time.Millisecond,
		},
		Monitoring: config.MonitoringConfig{MetricsPath: "/metrics"},
		Auth:       config.AuthConfig{Username: "prog6", Password: "secret"},
	}
	svc := hubservice.New(cfg, hub.NewMockTransport(), monitoring.NewService(monitoring.Config{MetricsPath: "/metrics"}, nil))
	require.NoError(t, svc.Start(context.Background()))

	srv := httptest.NewServer(NewRouter(svc, webRoot))
	t.Cleanup(func() {
		svc.Stream.Close()
		srv.Close()
		_ = svc.Shutdown()
	})
	return srv, svc
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "")

	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSensorsRoutes(t *testing.T) {
	srv, _ := newTestServer(t, "")

	var status models.SensorStatus
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/sensors", &status))
	assert.True(t, status.ECG)
	assert.True(t, status.NIBP)

	var rec models.SensorRecord
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/sensors/temp_skin", &rec))
	assert.Equal(t, "temp_skin", rec.Key)
	assert.True(t, rec.Attached)

	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/sensors/nibp/value", &rec))
	assert.Equal(t, float32(120), rec.LastValue)

	var apiErr errors.APIError
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/sensors/eeg", &apiErr))
	assert.NotEmpty(t, apiErr.RequestID)

	var hubStatus models.HubStatus
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/hub/status", &hubStatus))
	assert.Len(t, hubStatus.Bytes, hub.StatusLength)
}

func TestRescan(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Post(srv.URL+"/api/sensors/scan", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result models.ScanResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, result.Attached)
}

func TestStatusAndVitals(t *testing.T) {
	srv, _ := newTestServer(t, "")

	var status models.MonitorStatus
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/status", &status))
	assert.True(t, status.Running)
	assert.True(t, status.MockMode)
	assert.Equal(t, 20, status.UpdateRate)

	var frame map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/vitals", &frame))
	for _, key := range []string{"ecg", "spo2", "resp", "pleth", "bp_systolic", "bp_diastolic", "temp_cavity", "temp_skin", "timestamp", "sensors"} {
		assert.Contains(t, frame, key)
	}

	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/api/patient", nil))
}

func TestResetSignal(t *testing.T) {
	srv, svc := newTestServer(t, "")
	time.Sleep(30 * time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/signal/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Less(t, svc.Generator.Time(), 0.025)
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t, "")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"username":"prog6","password":"secret"}`, http.StatusOK},
		{"wrong password", `{"username":"prog6","password":"x"}`, http.StatusUnauthorized},
		{"missing password", `{"username":"prog6"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/login", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	resp, err := http.Post(srv.URL+"/api/logout", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventStream(t *testing.T) {
	srv, _ := newTestServer(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/ws?rate=500", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var frame models.Frame
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &frame))
	assert.True(t, frame.Sensors.Resp)
}

func TestEventStream_BadRate(t *testing.T) {
	srv, _ := newTestServer(t, "")
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/ws?rate=fast", nil))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>monitor</h1>"), 0o644))
	srv, _ := newTestServer(t, dir)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
