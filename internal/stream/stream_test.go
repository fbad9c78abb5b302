package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedVitals struct{ v models.Vitals }

func (f fixedVitals) Generate() models.Vitals { return f.v }

type fixedStatus struct{ s models.SensorStatus }

func (f fixedStatus) Status() models.SensorStatus { return f.s }

type recordingMetrics struct {
	mu      sync.Mutex
	clients map[string]int
	frames  map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{clients: map[string]int{}, frames: map[string]int{}}
}

func (m *recordingMetrics) ClientConnected(t string) {
	m.mu.Lock()
	m.clients[t]++
	m.mu.Unlock()
}

func (m *recordingMetrics) ClientDisconnected(t string) {
	m.mu.Lock()
	m.clients[t]--
	m.mu.Unlock()
}

func (m *recordingMetrics) FrameSent(t string) {
	m.mu.Lock()
	m.frames[t]++
	m.mu.Unlock()
}

func (m *recordingMetrics) framesFor(t string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames[t]
}

func testBroadcaster(metrics Metrics) *Broadcaster {
	v := models.Vitals{
		ECG: 0.512345, SpO2: 98.2, Resp: -0.33333, Pleth: 0.75,
		BPSystolic: 121.26, BPDiastolic: 80.64, TempCavity: 37.2049, TempSkin: 36.8151,
		Timestamp: 12.345678,
	}
	s := models.SensorStatus{ECG: true, Resp: true}
	return NewBroadcaster(fixedVitals{v}, fixedStatus{s}, Config{RateHz: 50, MaxRateHz: 120}, metrics)
}

func TestEncode_PrecisionAndKeys(t *testing.T) {
	b := testBroadcaster(nil)
	raw, err := Encode(b.Frame())
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	for _, f := range models.AllVitalFields() {
		assert.Contains(t, got, f.String())
	}
	assert.Equal(t, 0.5123, got["ecg"])
	assert.Equal(t, 98.2, got["spo2"])
	assert.Equal(t, -0.3333, got["resp"])
	assert.Equal(t, 121.3, got["bp_systolic"])
	assert.Equal(t, 80.6, got["bp_diastolic"])
	assert.Equal(t, 37.2, got["temp_cavity"])
	assert.Equal(t, 36.82, got["temp_skin"])
	assert.Equal(t, 12.3457, got["timestamp"])

	sensors, ok := got["sensors"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, sensors["ecg"])
	assert.Equal(t, false, sensors["spo2"])
	assert.Equal(t, true, sensors["resp"])
}

func TestBroadcaster_Rate(t *testing.T) {
	b := testBroadcaster(nil)
	assert.Equal(t, 50, b.Rate(0))
	assert.Equal(t, 50, b.Rate(-4))
	assert.Equal(t, 10, b.Rate(10))
	assert.Equal(t, 120, b.Rate(1000))

	d := NewBroadcaster(fixedVitals{}, fixedStatus{}, Config{}, nil)
	assert.Equal(t, 20, d.DefaultRate())
	assert.Equal(t, 120, d.Rate(121))
}

func TestServeSSE_StreamsFrames(t *testing.T) {
	metrics := newRecordingMetrics()
	b := testBroadcaster(metrics)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = b.ServeSSE(w, r, 100)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	reader := bufio.NewReader(resp.Body)
	events := 0
	for events < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &frame))
		assert.Equal(t, 98.2, frame["spo2"])
		events++
	}
	assert.Equal(t, 1, b.Clients())

	cancel()
	assert.Eventually(t, func() bool { return b.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, metrics.framesFor(TransportSSE), 3)
}

func TestServeSSE_EndsOnClose(t *testing.T) {
	b := testBroadcaster(nil)
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = b.ServeSSE(w, r, 1)
		close(done)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Eventually(t, func() bool { return b.Clients() == 1 }, time.Second, 5*time.Millisecond)
	b.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after Close")
	}
	assert.Equal(t, 0, b.Clients())
}

type noFlush struct {
	http.ResponseWriter
}

func TestServeSSE_RequiresFlusher(t *testing.T) {
	b := testBroadcaster(nil)
	rec := httptest.NewRecorder()
	err := b.ServeSSE(noFlush{rec}, httptest.NewRequest(http.MethodGet, "/ws", nil), 20)
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}

func TestSocketHub_Broadcasts(t *testing.T) {
	metrics := newRecordingMetrics()
	b := testBroadcaster(metrics)
	hub := NewSocketHub(b)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- hub.Run(ctx) }()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, 98.2, frame["spo2"])
	assert.Equal(t, 1, hub.Len())
	assert.Equal(t, 1, b.Clients())

	cancel()
	require.NoError(t, <-runDone)
	assert.Eventually(t, func() bool { return b.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, metrics.framesFor(TransportWebSocket), 1)
}
