// FilePath: server/monitor/internal/hub/hub.transport.go
package hub

import (
	"fmt"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Transport speaks the hub command protocol. Real and mock implementations
// share this contract. Implementations do not retry; callers decide.
type Transport interface {
	Open() error
	Close() error
	// Probe checks that a device answers at the hub address.
	Probe() error
	// Ping is a health check; it fails unless the hub answers PingResponse.
	Ping() error
	ReadSensor(id SensorID) (float32, error)
	// ScanSensors returns the hub's cached attachment byte. On failure the
	// byte is ErrorResponse.
	ScanSensors() (byte, error)
	GetStatus() ([StatusLength]byte, error)
	Mock() bool
}

// TransportConfig tunes a BusTransport.
type TransportConfig struct {
	Address         uint16
	ResponseTimeout time.Duration
}

// BusTransport runs the hub protocol over a Bus. Every command is a
// select, write, settle, read sequence executed while holding the bus.
type BusTransport struct {
	bus     Bus
	addr    uint16
	timeout time.Duration
	sleep   func(time.Duration)
	now     func() time.Time

	mu   sync.Mutex
	open bool
}

func NewBusTransport(bus Bus, cfg TransportConfig) *BusTransport {
	if cfg.Address == 0 {
		cfg.Address = HubAddress
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = ResponseTimeout
	}
	return &BusTransport{
		bus:     bus,
		addr:    cfg.Address,
		timeout: cfg.ResponseTimeout,
		sleep:   time.Sleep,
		now:     time.Now,
	}
}

func (t *BusTransport) Mock() bool { return false }

func (t *BusTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		return nil
	}
	if err := t.bus.Open(); err != nil {
		return err
	}
	t.open = true
	return nil
}

func (t *BusTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return nil
	}
	t.open = false
	return t.bus.Close()
}

func (t *BusTransport) Probe() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return ErrClosed
	}
	var b [1]byte
	if err := t.readLocked(b[:]); err != nil {
		return fmt.Errorf("probing 0x%02x: %w", t.addr, err)
	}
	nuts.L.Debugf("[HubTransport] Device 0x%02x detected", t.addr)
	return nil
}

func (t *BusTransport) Ping() error {
	var resp [1]byte
	if err := t.exchange(CmdPing, []byte{byte(CmdPing)}, PingSettle, resp[:]); err != nil {
		return err
	}
	if resp[0] != PingResponse {
		return fmt.Errorf("%w: ping answered 0x%02x", ErrProtocol, resp[0])
	}
	return nil
}

func (t *BusTransport) ReadSensor(id SensorID) (float32, error) {
	var resp [FloatLength]byte
	if err := t.exchange(CmdReadSensor, []byte{byte(CmdReadSensor), byte(id)}, ReadSettle, resp[:]); err != nil {
		return 0, err
	}
	return DecodeFloat(resp[:])
}

func (t *BusTransport) ScanSensors() (byte, error) {
	var resp [1]byte
	if err := t.exchange(CmdScanSensors, []byte{byte(CmdScanSensors)}, ScanSettle, resp[:]); err != nil {
		return ErrorResponse, err
	}
	if resp[0] == ErrorResponse {
		return ErrorResponse, fmt.Errorf("%w: scan answered error sentinel", ErrProtocol)
	}
	return resp[0], nil
}

func (t *BusTransport) GetStatus() ([StatusLength]byte, error) {
	var resp [StatusLength]byte
	err := t.exchange(CmdGetStatus, []byte{byte(CmdGetStatus)}, StatusSettle, resp[:])
	return resp, err
}

func (t *BusTransport) exchange(cmd Command, req []byte, settle time.Duration, resp []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return ErrClosed
	}

	if err := t.bus.Select(t.addr); err != nil {
		return fmt.Errorf("%s: select: %w", cmd, wrapBus(err))
	}
	t.sleep(BusReady)
	if err := t.bus.Write(req); err != nil {
		return fmt.Errorf("%s: write: %w", cmd, wrapBus(err))
	}
	sent := t.now()
	t.sleep(settle)
	if err := t.readLocked(resp); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	if elapsed := t.now().Sub(sent); elapsed > t.timeout {
		return fmt.Errorf("%s: %w after %v", cmd, ErrTimeout, elapsed)
	}
	nuts.L.Debugf("[HubTransport] %s -> % x", cmd, resp)
	return nil
}

func (t *BusTransport) readLocked(p []byte) error {
	if err := t.bus.Select(t.addr); err != nil {
		return fmt.Errorf("select: %w", wrapBus(err))
	}
	t.sleep(BusReady)
	if err := t.bus.Read(p); err != nil {
		return fmt.Errorf("read: %w", wrapBus(err))
	}
	return nil
}

// wrapBus makes sure every low level failure matches ErrBus.
func wrapBus(err error) error {
	if isAny(err, ErrBus, ErrClosed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrBus, err)
}
