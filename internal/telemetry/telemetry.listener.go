// FilePath: server/monitor/internal/telemetry/telemetry.listener.go
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/itsatony/curecraft/server/monitor/internal/repository"
	"github.com/itsatony/curecraft/server/monitor/internal/vitals"
	"github.com/nats-io/nats.go"
	nuts "github.com/vaudience/go-nuts"
)

// EventUpdate is emitted after every applied message with (topic, value).
const EventUpdate = "telemetry.update"

const mirrorTimeout = 500 * time.Millisecond

// Config configures the broker connection.
type Config struct {
	URL           string
	ClientName    string
	Buffer        int
	ReconnectWait time.Duration
}

// Metrics is the subset of monitoring the listener reports to.
type Metrics interface {
	TelemetryMessage(topic string, err error)
}

// Option configures a Listener.
type Option func(*Listener)

// WithRepository mirrors every applied reading to repo.
func WithRepository(repo repository.PatientRepository) Option {
	return func(l *Listener) { l.repo = repo }
}

func WithMetrics(m Metrics) Option {
	return func(l *Listener) { l.metrics = m }
}

// Listener receives patient telemetry and feeds it into the vitals store.
// Broker callbacks only enqueue messages; Run applies them on its own
// goroutine.
type Listener struct {
	cfg     Config
	store   *vitals.Store
	repo    repository.PatientRepository
	metrics Metrics
	events  *nuts.EventEmitter

	mu      sync.RWMutex
	patient models.PatientData

	connMu sync.Mutex
	conn   *nats.Conn
	subs   []*nats.Subscription
	msgs   chan *nats.Msg
	closed bool
}

func NewListener(cfg Config, store *vitals.Store, opts ...Option) *Listener {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "curecraft-monitor"
	}
	l := &Listener{
		cfg:     cfg,
		store:   store,
		events:  nuts.NewEventEmitter(),
		patient: models.NewPatientData(),
		msgs:    make(chan *nats.Msg, cfg.Buffer),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Connect dials the broker and subscribes to every topic group. The client
// keeps reconnecting in the background if the broker is down.
func (l *Listener) Connect() error {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	if l.closed {
		return fmt.Errorf("telemetry listener closed")
	}
	if l.conn != nil {
		return nil
	}

	nc, err := nats.Connect(l.cfg.URL,
		nats.Name(l.cfg.ClientName),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(l.cfg.ReconnectWait),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				nuts.L.Warnf("[Telemetry] Disconnected from broker: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			nuts.L.Infof("[Telemetry] Reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", l.cfg.URL, err)
	}

	for _, subject := range Subjects {
		sub, err := nc.ChanSubscribe(subject, l.msgs)
		if err != nil {
			nc.Close()
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		l.subs = append(l.subs, sub)
	}
	l.conn = nc
	nuts.L.Infof("[Telemetry] Listening on %s for %v", l.cfg.URL, Subjects)
	return nil
}

// Connected reports whether the broker connection is currently up.
func (l *Listener) Connected() bool {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	return l.conn != nil && l.conn.IsConnected()
}

// Run applies queued messages until ctx ends.
func (l *Listener) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-l.msgs:
			topic := SubjectToTopic(msg.Subject)
			if err := l.Apply(ctx, topic, string(msg.Data)); err != nil {
				nuts.L.Debugf("[Telemetry] Dropped %s: %v", topic, err)
			}
		}
	}
}

// Apply parses one message and updates the store, the patient snapshot and
// the mirror.
func (l *Listener) Apply(ctx context.Context, topic, payload string) (err error) {
	defer func() {
		if l.metrics != nil {
			l.metrics.TelemetryMessage(topic, err)
		}
	}()

	if !IsKnownTopic(topic) {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	value, err := Parse(topic, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", topic, err)
	}

	if field, ok := StoreField(topic); ok && l.store != nil {
		l.store.Set(field, value)
	}

	now := time.Now()
	l.mu.Lock()
	l.patient.Set(topic, value, now)
	l.mu.Unlock()

	if l.repo != nil {
		mctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
		if err := l.repo.SaveReading(mctx, topic, value, now); err != nil {
			nuts.L.Warnf("[Telemetry] Mirroring %s failed: %v", topic, err)
		}
		cancel()
	}

	if err := l.events.Emit(EventUpdate, topic, value); err != nil {
		nuts.L.Warnf("[Telemetry] Emitting update for %s failed: %v", topic, err)
	}
	return nil
}

// Restore seeds the patient snapshot from the mirror.
func (l *Listener) Restore(ctx context.Context) (int, error) {
	if l.repo == nil {
		return 0, nil
	}
	readings, err := l.repo.Load(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	l.mu.Lock()
	for topic, r := range readings {
		if IsKnownTopic(topic) && l.patient.Set(topic, r.Value, r.UpdatedAt) {
			n++
		}
	}
	l.mu.Unlock()
	return n, nil
}

// Patient returns a copy of the extended patient data.
func (l *Listener) Patient() models.PatientData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.patient.Clone()
}

// OnUpdate registers fn for every applied message.
func (l *Listener) OnUpdate(fn func(topic string, value float64)) {
	l.events.On(EventUpdate, nuts.NID("tu", 10), func(topic string, value float64) {
		fn(topic, value)
	})
}

// Close unsubscribes and drains the connection. Safe to call repeatedly.
func (l *Listener) Close() error {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.conn == nil {
		return nil
	}
	for _, sub := range l.subs {
		_ = sub.Unsubscribe()
	}
	l.subs = nil
	err := l.conn.Drain()
	l.conn = nil
	return err
}
