// FilePath: server/monitor/internal/stream/stream.frame.go
package stream

import (
	"encoding/json"
	"math"
	"sync"

	"github.com/itsatony/curecraft/server/monitor/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Transport labels used for client accounting.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// VitalsSource produces the fused sample for the current instant.
type VitalsSource interface {
	Generate() models.Vitals
}

// StatusSource reports sensor attachment without touching the bus.
type StatusSource interface {
	Status() models.SensorStatus
}

// Metrics is the subset of monitoring the stream reports to.
type Metrics interface {
	ClientConnected(transport string)
	ClientDisconnected(transport string)
	FrameSent(transport string)
}

type noMetrics struct{}

func (noMetrics) ClientConnected(string)    {}
func (noMetrics) ClientDisconnected(string) {}
func (noMetrics) FrameSent(string)          {}

// Config sets the stream rates in frames per second.
type Config struct {
	RateHz    int
	MaxRateHz int
}

// Broadcaster builds frames and keeps track of connected clients.
type Broadcaster struct {
	vitals  VitalsSource
	sensors StatusSource
	metrics Metrics
	cfg     Config

	mu      sync.Mutex
	clients map[string]string // id -> transport

	done     chan struct{}
	doneOnce sync.Once
}

func NewBroadcaster(vitals VitalsSource, sensors StatusSource, cfg Config, metrics Metrics) *Broadcaster {
	if cfg.MaxRateHz <= 0 {
		cfg.MaxRateHz = 120
	}
	if cfg.RateHz <= 0 || cfg.RateHz > cfg.MaxRateHz {
		cfg.RateHz = 20
	}
	if metrics == nil {
		metrics = noMetrics{}
	}
	return &Broadcaster{
		vitals:  vitals,
		sensors: sensors,
		metrics: metrics,
		cfg:     cfg,
		clients: make(map[string]string),
		done:    make(chan struct{}),
	}
}

// Frame assembles one payload from the generator and the attachment table.
func (b *Broadcaster) Frame() models.Frame {
	return models.Frame{
		Vitals:  b.vitals.Generate(),
		Sensors: b.sensors.Status(),
	}
}

// Rate clamps a requested rate into 1..MaxRateHz; zero or negative means default.
func (b *Broadcaster) Rate(requested int) int {
	switch {
	case requested <= 0:
		return b.cfg.RateHz
	case requested > b.cfg.MaxRateHz:
		return b.cfg.MaxRateHz
	}
	return requested
}

func (b *Broadcaster) DefaultRate() int {
	return b.cfg.RateHz
}

// Clients counts connected stream clients of every transport.
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) register(transport string) string {
	id := nuts.NID("cl", 10)
	b.mu.Lock()
	b.clients[id] = transport
	n := len(b.clients)
	b.mu.Unlock()
	b.metrics.ClientConnected(transport)
	nuts.L.Infof("[Stream] %s client %s connected (%d total)", transport, id, n)
	return id
}

func (b *Broadcaster) unregister(id string) {
	b.mu.Lock()
	transport, ok := b.clients[id]
	delete(b.clients, id)
	n := len(b.clients)
	b.mu.Unlock()
	if !ok {
		return
	}
	b.metrics.ClientDisconnected(transport)
	nuts.L.Infof("[Stream] %s client %s disconnected (%d total)", transport, id, n)
}

// Close ends every stream loop within one frame interval.
func (b *Broadcaster) Close() {
	b.doneOnce.Do(func() { close(b.done) })
}

// Done is closed once the broadcaster shuts down.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}

// Encode renders a frame with display precision: pressures to one decimal,
// temperatures to two, everything else to four.
func Encode(f models.Frame) ([]byte, error) {
	f.ECG = round(f.ECG, 4)
	f.SpO2 = round(f.SpO2, 4)
	f.Resp = round(f.Resp, 4)
	f.Pleth = round(f.Pleth, 4)
	f.BPSystolic = round(f.BPSystolic, 1)
	f.BPDiastolic = round(f.BPDiastolic, 1)
	f.TempCavity = round(f.TempCavity, 2)
	f.TempSkin = round(f.TempSkin, 2)
	f.Timestamp = round(f.Timestamp, 4)
	return json.Marshal(f)
}

func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
