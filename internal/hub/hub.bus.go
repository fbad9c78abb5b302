// FilePath: server/monitor/internal/hub/hub.bus.go
package hub

import (
	"fmt"
	"sync"

	nuts "github.com/vaudience/go-nuts"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Bus is the raw two-wire bus the hub hangs off.
type Bus interface {
	Open() error
	// Select addresses subsequent reads and writes to the device at addr.
	Select(addr uint16) error
	Write(p []byte) error
	// Read fills p completely or fails.
	Read(p []byte) error
	Close() error
}

// PeriphBus drives a Linux I2C adapter through periph.io.
type PeriphBus struct {
	name string

	mu  sync.Mutex
	bus i2c.BusCloser
	dev *i2c.Dev
}

// NewPeriphBus initialises the host drivers. It does not open the adapter,
// so a missing device node only surfaces on Open.
func NewPeriphBus(name string) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing host drivers: %w", err)
	}
	return &PeriphBus{name: name}, nil
}

func (b *PeriphBus) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus != nil {
		return nil
	}
	bus, err := i2creg.Open(b.name)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrBus, b.name, err)
	}
	b.bus = bus
	nuts.L.Infof("[HubTransport] Opened I2C bus %s", b.name)
	return nil
}

func (b *PeriphBus) Select(addr uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus == nil {
		return ErrClosed
	}
	if b.dev == nil || b.dev.Addr != addr {
		b.dev = &i2c.Dev{Addr: addr, Bus: b.bus}
	}
	return nil
}

func (b *PeriphBus) Write(p []byte) error {
	return b.tx(p, nil)
}

func (b *PeriphBus) Read(p []byte) error {
	return b.tx(nil, p)
}

func (b *PeriphBus) tx(w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dev == nil {
		return ErrClosed
	}
	if err := b.dev.Tx(w, r); err != nil {
		return fmt.Errorf("%w: 0x%02x: %v", ErrBus, b.dev.Addr, err)
	}
	return nil
}

// Close releases the adapter. Calling it more than once is harmless.
func (b *PeriphBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	b.dev = nil
	return err
}
