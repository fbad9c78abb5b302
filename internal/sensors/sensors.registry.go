// FilePath: server/monitor/internal/sensors/sensors.registry.go
package sensors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/hub"
	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/itsatony/curecraft/server/monitor/internal/retry"
	nuts "github.com/vaudience/go-nuts"
)

var (
	ErrUnknownSensor = errors.New("unknown sensor kind")
	ErrNotAttached   = errors.New("sensor not attached")
	ErrScanFailed    = errors.New("sensor scan failed")
)

// Attachment change events.
const (
	EventAttached = "sensor.attached"
	EventDetached = "sensor.detached"
)

// Config bounds the registry's retries against the hub.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
}

// Registry tracks which sensors are plugged into the hub.
//
// The attachment table and the bus have separate locks: readers of the
// table (the streaming path) never wait for bus I/O.
type Registry struct {
	transport hub.Transport
	retry     retry.Config
	events    *nuts.EventEmitter

	busMu  sync.Mutex
	closed bool

	mu          sync.RWMutex
	records     map[models.SensorKind]*models.SensorRecord
	hubDetected bool
	lastScan    time.Time
}

func New(transport hub.Transport, cfg Config) *Registry {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = hub.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = hub.RetryDelay
	}
	r := &Registry{
		transport: transport,
		retry:     retry.Config{MaxAttempts: cfg.MaxRetries, Delay: cfg.RetryDelay},
		events:    nuts.NewEventEmitter(),
		records:   make(map[models.SensorKind]*models.SensorRecord),
	}
	for _, kind := range models.AllSensorKinds() {
		id, _ := hub.SensorIDFor(kind)
		r.records[kind] = &models.SensorRecord{
			Kind:        kind,
			Key:         kind.String(),
			DisplayName: kind.DisplayName(),
			HubID:       uint8(id),
			Attached:    kind.IsVirtual(),
		}
	}
	return r
}

// Initialize opens the transport, looks for the hub and runs a first scan.
// Hardware trouble is logged and leaves the registry degraded, with every
// physical sensor detached; it is never returned as an error.
func (r *Registry) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.transport.Open(); err != nil {
		nuts.L.Warnf("[SensorRegistry] Transport unavailable, running without hub: %v", err)
		r.detachAll()
		return nil
	}
	if err := r.transport.Probe(); err != nil {
		nuts.L.Warnf("[SensorRegistry] Hub not found at 0x%02x: %v", hub.HubAddress, err)
		r.detachAll()
		return nil
	}
	r.setHubDetected(true)

	if err := r.transport.Ping(); err != nil {
		nuts.L.Warnf("[SensorRegistry] Hub health check failed: %v", err)
	} else {
		nuts.L.Infof("[SensorRegistry] Hub found at 0x%02x (mock=%v)", hub.HubAddress, r.transport.Mock())
	}

	n, err := r.Scan(ctx)
	if err != nil {
		nuts.L.Warnf("[SensorRegistry] Initial scan failed: %v", err)
		return nil
	}
	nuts.L.Infof("[SensorRegistry] %d sensors attached", n)
	return nil
}

// ScanSensors refreshes the attachment table and returns how many physical
// sensors are attached. After exhausting its retries it marks every physical
// sensor detached and returns 0.
func (r *Registry) ScanSensors(ctx context.Context) int {
	n, err := r.Scan(ctx)
	if err != nil {
		nuts.L.Warnf("[SensorRegistry] %v", err)
	}
	return n
}

// Scan is ScanSensors with the failure reported.
func (r *Registry) Scan(ctx context.Context) (int, error) {
	var status byte
	err := r.withBus(ctx, func(attempt int) error {
		s, err := r.transport.ScanSensors()
		if err != nil {
			nuts.L.Debugf("[SensorRegistry] Scan attempt %d failed: %v", attempt, err)
			return err
		}
		if s == hub.ErrorResponse {
			return fmt.Errorf("%w: error sentinel", hub.ErrProtocol)
		}
		status = s
		return nil
	})
	if err != nil {
		r.detachAll()
		return 0, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}
	return r.applyStatus(status), nil
}

// ReadSensor asks the hub for the current value of an attached sensor.
func (r *Registry) ReadSensor(ctx context.Context, kind models.SensorKind) (float32, error) {
	id, ok := hub.SensorIDFor(kind)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSensor, int(kind))
	}
	if !r.IsSensorAttached(kind) {
		return 0, fmt.Errorf("%w: %s", ErrNotAttached, kind)
	}

	var value float32
	err := r.withBus(ctx, func(int) error {
		v, err := r.transport.ReadSensor(id)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", kind, err)
	}

	r.mu.Lock()
	rec := r.records[kind]
	rec.LastValue = value
	rec.LastRead = time.Now()
	r.mu.Unlock()
	return value, nil
}

// HubStatus returns the hub's raw GET_STATUS bytes.
func (r *Registry) HubStatus(ctx context.Context) ([hub.StatusLength]byte, error) {
	var status [hub.StatusLength]byte
	err := r.withBus(ctx, func(int) error {
		s, err := r.transport.GetStatus()
		if err != nil {
			return err
		}
		status = s
		return nil
	})
	return status, err
}

// withBus runs fn under the bus lock with the configured retries. A closed
// transport is not worth retrying.
func (r *Registry) withBus(ctx context.Context, fn func(attempt int) error) error {
	r.busMu.Lock()
	defer r.busMu.Unlock()
	if r.closed {
		return hub.ErrClosed
	}
	return retry.Do(ctx, r.retry, func(attempt int) error {
		err := fn(attempt)
		if errors.Is(err, hub.ErrClosed) {
			return retry.Permanent(err)
		}
		return err
	})
}

func (r *Registry) applyStatus(status byte) int {
	bits := hub.DecodeStatus(status)
	changes := make(map[models.SensorKind]bool)
	count := 0

	r.mu.Lock()
	for _, kind := range models.PhysicalSensorKinds() {
		rec := r.records[kind]
		attached := bits[kind]
		if rec.Attached != attached {
			changes[kind] = attached
		}
		rec.Attached = attached
		if attached {
			count++
		}
	}
	r.hubDetected = true
	r.lastScan = time.Now()
	r.mu.Unlock()

	r.emitChanges(changes)
	return count
}

func (r *Registry) detachAll() {
	changes := make(map[models.SensorKind]bool)
	r.mu.Lock()
	for _, kind := range models.PhysicalSensorKinds() {
		rec := r.records[kind]
		if rec.Attached {
			changes[kind] = false
		}
		rec.Attached = false
	}
	r.mu.Unlock()
	r.emitChanges(changes)
}

func (r *Registry) emitChanges(changes map[models.SensorKind]bool) {
	for kind, attached := range changes {
		event := EventDetached
		if attached {
			event = EventAttached
		}
		nuts.L.Infof("[SensorRegistry] %s %s", kind.DisplayName(), event)
		if err := r.events.Emit(event, kind, attached); err != nil {
			nuts.L.Warnf("[SensorRegistry] Emitting %s failed: %v", event, err)
		}
	}
}

// OnChange registers fn for attach and detach transitions.
func (r *Registry) OnChange(fn func(kind models.SensorKind, attached bool)) {
	// The emitter matches handler parameters against the emitted values, so
	// the handler takes exactly (kind, attached).
	handler := func(kind models.SensorKind, attached bool) {
		fn(kind, attached)
	}
	id := nuts.NID("sh", 10)
	r.events.On(EventAttached, id, handler)
	r.events.On(EventDetached, id, handler)
}

func (r *Registry) setHubDetected(v bool) {
	r.mu.Lock()
	r.hubDetected = v
	r.mu.Unlock()
}

// HubDetected reports whether the hub has answered since start-up.
func (r *Registry) HubDetected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hubDetected
}

// LastScan is the time of the last successful scan.
func (r *Registry) LastScan() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastScan
}

func (r *Registry) Mock() bool {
	return r.transport.Mock()
}

func (r *Registry) IsSensorAttached(kind models.SensorKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[kind]
	return ok && rec.Attached
}

// SensorInfo returns a copy of the record for kind, or the zero record for
// unknown kinds.
func (r *Registry) SensorInfo(kind models.SensorKind) models.SensorRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[kind]
	if !ok {
		return models.SensorRecord{}
	}
	return *rec
}

// Records lists every sensor in canonical order.
func (r *Registry) Records() []models.SensorRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.SensorRecord, 0, len(r.records))
	for _, kind := range models.AllSensorKinds() {
		out = append(out, *r.records[kind])
	}
	return out
}

// AttachedCount counts attached physical sensors.
func (r *Registry) AttachedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, kind := range models.PhysicalSensorKinds() {
		if r.records[kind].Attached {
			n++
		}
	}
	return n
}

func (r *Registry) Status() models.SensorStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s models.SensorStatus
	for kind, rec := range r.records {
		s.Set(kind, rec.Attached)
	}
	return s
}

// StatusJSON renders the attachment table, e.g. {"ecg":true,...}.
func (r *Registry) StatusJSON() ([]byte, error) {
	return json.Marshal(r.Status())
}

// Close releases the transport. Later bus operations fail with hub.ErrClosed.
func (r *Registry) Close() error {
	r.busMu.Lock()
	defer r.busMu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.transport.Close()
}
