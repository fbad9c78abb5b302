// FilePath: server/monitor/internal/hub/hub.mock.go
package hub

import (
	"fmt"
	"math"
	"sync"

	"github.com/itsatony/curecraft/server/monitor/internal/waveform"
	nuts "github.com/vaudience/go-nuts"
)

// MockClockStep is how far the mock's clock moves per sensor read, in seconds.
const MockClockStep = 0.05

// MockTransport answers every command immediately with plausible data.
// Its clock belongs to the instance and only moves on ReadSensor, so a
// sequence of reads is reproducible.
type MockTransport struct {
	mu    sync.Mutex
	open  bool
	clock float64
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) Mock() bool { return true }

func (m *MockTransport) Open() error {
	m.mu.Lock()
	m.open = true
	m.mu.Unlock()
	nuts.L.Infof("[HubTransport] Mock mode enabled, no hardware access")
	return nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
	return nil
}

func (m *MockTransport) isOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Probe succeeds: only the hub lives on the simulated bus.
func (m *MockTransport) Probe() error {
	if !m.isOpen() {
		return ErrClosed
	}
	return nil
}

func (m *MockTransport) Ping() error {
	if !m.isOpen() {
		return ErrClosed
	}
	return nil
}

func (m *MockTransport) ReadSensor(id SensorID) (float32, error) {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return 0, ErrClosed
	}
	m.clock += MockClockStep
	t := m.clock
	m.mu.Unlock()

	switch id {
	case SensorIDECG:
		return float32(waveform.ProbeECG(t)), nil
	case SensorIDSpO2:
		return float32(waveform.SpO2(t)), nil
	case SensorIDTempCore:
		return float32(37.2 + 0.05*math.Sin(2*math.Pi*0.01*t)), nil
	case SensorIDTempSkin:
		return float32(36.5 + 0.1*math.Sin(2*math.Pi*0.01*t)), nil
	case SensorIDNIBP:
		return 120, nil
	case SensorIDRespiratory:
		return float32(waveform.BreathCycle(t)), nil
	}
	return 0, fmt.Errorf("%w: unknown sensor id %d", ErrProtocol, id)
}

// ScanSensors reports every defined sensor as attached.
func (m *MockTransport) ScanSensors() (byte, error) {
	if !m.isOpen() {
		return ErrorResponse, ErrClosed
	}
	return AllSensorBits, nil
}

func (m *MockTransport) GetStatus() ([StatusLength]byte, error) {
	if !m.isOpen() {
		return [StatusLength]byte{}, ErrClosed
	}
	return [StatusLength]byte{1, 1, 1, 1, 1}, nil
}

// Clock returns the current simulated time in seconds.
func (m *MockTransport) Clock() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

// SetClock moves the simulated time, for tests.
func (m *MockTransport) SetClock(t float64) {
	m.mu.Lock()
	m.clock = t
	m.mu.Unlock()
}
