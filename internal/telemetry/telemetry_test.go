package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/itsatony/curecraft/server/monitor/internal/vitals"
	"github.com/itsatony/curecraft/server/monitor/internal/waveform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	saved   map[string]models.Reading
	saveErr error
}

func (m *memoryRepo) SaveReading(_ context.Context, topic string, value float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = map[string]models.Reading{}
	}
	m.saved[topic] = models.Reading{Value: value, UpdatedAt: at}
	return nil
}

func (m *memoryRepo) Load(context.Context) (map[string]models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]models.Reading{}
	for k, v := range m.saved {
		out[k] = v
	}
	return out, nil
}

func (m *memoryRepo) Close() error { return nil }

type countingMetrics struct {
	mu     sync.Mutex
	ok     int
	failed int
}

func (c *countingMetrics) TelemetryMessage(_ string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failed++
	} else {
		c.ok++
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("  98.2 \n")
	require.NoError(t, err)
	assert.Equal(t, 98.2, v)

	v, err = ParseValue("-3e2")
	require.NoError(t, err)
	assert.Equal(t, -300.0, v)

	for _, bad := range []string{"", "   ", "98.2%", "abc", "1.2.3", "NaN", "inf"} {
		_, err := ParseValue(bad)
		assert.ErrorIs(t, err, ErrUnparsable, bad)
	}
}

func TestParseBoolish(t *testing.T) {
	truthy := []string{"true", "TRUE", " on", "Yes ", "1", "2.5", "-1"}
	falsy := []string{"false", "Off", "no", "0", "0.0"}
	for _, s := range truthy {
		v, err := ParseBoolish(s)
		require.NoError(t, err, s)
		assert.Equal(t, 1.0, v, s)
	}
	for _, s := range falsy {
		v, err := ParseBoolish(s)
		require.NoError(t, err, s)
		assert.Equal(t, 0.0, v, s)
	}
	_, err := ParseBoolish("maybe")
	assert.ErrorIs(t, err, ErrUnparsable)
}

func TestSubjectMapping(t *testing.T) {
	for _, topic := range Topics {
		assert.Equal(t, topic, SubjectToTopic(TopicToSubject(topic)))
	}
	assert.Equal(t, "heart.rhytm", TopicToSubject(TopicRhythm))
	assert.Len(t, Topics, 17)
}

func TestApply_SpO2ReachesGenerator(t *testing.T) {
	store := vitals.NewStore()
	l := NewListener(Config{}, store)
	gen := waveform.New(store)

	require.NoError(t, l.Apply(context.Background(), TopicOxygen, "98.2"))
	assert.Equal(t, 98.2, gen.Generate().SpO2)

	r, ok := l.Patient().Get(TopicOxygen)
	require.True(t, ok)
	assert.Equal(t, 98.2, r.Value)
}

func TestApply_StoreRouting(t *testing.T) {
	store := vitals.NewStore()
	l := NewListener(Config{}, store)
	ctx := context.Background()

	require.NoError(t, l.Apply(ctx, TopicRespiratoryRate, "16"))
	require.NoError(t, l.Apply(ctx, TopicSystolicBP, "132"))
	require.NoError(t, l.Apply(ctx, TopicDiastolicBP, "84"))
	require.NoError(t, l.Apply(ctx, TopicHeartRate, "71"))

	v, ok := store.Get(models.FieldResp)
	require.True(t, ok)
	assert.Equal(t, 16.0, v)
	v, _ = store.Get(models.FieldBPSystolic)
	assert.Equal(t, 132.0, v)
	v, _ = store.Get(models.FieldBPDiastolic)
	assert.Equal(t, 84.0, v)

	// Heart rate is extended data only.
	assert.Equal(t, []models.VitalField{models.FieldResp, models.FieldBPSystolic, models.FieldBPDiastolic},
		store.Snapshot().Present())
	_, ok = l.Patient().Get(TopicHeartRate)
	assert.True(t, ok)
}

func TestApply_Conditions(t *testing.T) {
	l := NewListener(Config{}, vitals.NewStore())
	ctx := context.Background()

	require.NoError(t, l.Apply(ctx, TopicSeptic, "on"))
	require.NoError(t, l.Apply(ctx, TopicCardiacArrest, "0"))
	require.NoError(t, l.Apply(ctx, TopicDiabetesKeto, "3"))

	p := l.Patient()
	assert.Equal(t, 1.0, p.Conditions["septic"].Value)
	assert.Equal(t, 0.0, p.Conditions["cardiacArrest"].Value)
	assert.Equal(t, 1.0, p.Conditions["diabetsKeto"].Value)
}

func TestApply_RejectsWithoutSideEffects(t *testing.T) {
	store := vitals.NewStore()
	metrics := &countingMetrics{}
	l := NewListener(Config{}, store, WithMetrics(metrics))
	ctx := context.Background()

	assert.ErrorIs(t, l.Apply(ctx, TopicOxygen, "ninety"), ErrUnparsable)
	assert.ErrorIs(t, l.Apply(ctx, "heart/unknown", "1"), ErrUnknownTopic)
	assert.ErrorIs(t, l.Apply(ctx, "misc", "1"), ErrUnknownTopic)

	assert.False(t, store.Has(models.FieldSpO2))
	assert.Equal(t, 0, l.Patient().Len())
	assert.Equal(t, 3, metrics.failed)
	assert.Equal(t, 0, metrics.ok)
}

func TestApply_MirrorsAndRestores(t *testing.T) {
	repo := &memoryRepo{}
	l := NewListener(Config{}, vitals.NewStore(), WithRepository(repo))
	ctx := context.Background()

	require.NoError(t, l.Apply(ctx, TopicCardiacOutput, "5.1"))
	require.NoError(t, l.Apply(ctx, TopicAirway, "0.25"))

	restored := NewListener(Config{}, vitals.NewStore(), WithRepository(repo))
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	r, ok := restored.Patient().Get(TopicCardiacOutput)
	require.True(t, ok)
	assert.Equal(t, 5.1, r.Value)
}

func TestApply_MirrorFailureIsNotFatal(t *testing.T) {
	repo := &memoryRepo{saveErr: errors.New("redis down")}
	store := vitals.NewStore()
	l := NewListener(Config{}, store, WithRepository(repo))

	require.NoError(t, l.Apply(context.Background(), TopicOxygen, "95"))
	assert.True(t, store.Has(models.FieldSpO2))
}

func TestOnUpdate(t *testing.T) {
	l := NewListener(Config{}, vitals.NewStore())

	var mu sync.Mutex
	got := map[string]float64{}
	l.OnUpdate(func(topic string, value float64) {
		mu.Lock()
		got[topic] = value
		mu.Unlock()
	})
	require.NoError(t, l.Apply(context.Background(), TopicMAP, "93"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got[TopicMAP] == 93
	}, time.Second, 5*time.Millisecond)
}

func TestRun_StopsOnCancel(t *testing.T) {
	l := NewListener(Config{}, vitals.NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, l.Connected())
	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}
