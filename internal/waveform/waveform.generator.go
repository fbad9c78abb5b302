// FilePath: server/monitor/internal/waveform/waveform.generator.go
package waveform

import (
	"sync"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/itsatony/curecraft/server/monitor/internal/vitals"
)

// Source supplies externally measured values that replace synthetic ones.
// *vitals.Store satisfies it.
type Source interface {
	Snapshot() vitals.Snapshot
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// Generator produces fused vital-sign samples on demand. Time is taken from
// the wall clock relative to an epoch, so every caller sees the same
// waveform regardless of how often it samples.
type Generator struct {
	source Source
	now    func() time.Time

	mu    sync.RWMutex
	epoch time.Time
}

// New creates a Generator. source may be nil, in which case every sample is
// purely synthetic.
func New(source Source, opts ...Option) *Generator {
	g := &Generator{
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.epoch = g.now()
	return g
}

// Time returns seconds elapsed since the epoch.
func (g *Generator) Time() float64 {
	g.mu.RLock()
	epoch := g.epoch
	g.mu.RUnlock()
	return g.now().Sub(epoch).Seconds()
}

// Reset moves the epoch to now.
func (g *Generator) Reset() {
	now := g.now()
	g.mu.Lock()
	g.epoch = now
	g.mu.Unlock()
}

// Generate returns the sample for the current instant, with stored values
// taking precedence over synthetic ones.
func (g *Generator) Generate() models.Vitals {
	v := At(g.Time())
	if g.source == nil {
		return v
	}
	return Fuse(v, g.source.Snapshot())
}

// At returns the purely synthetic sample at t seconds.
func At(t float64) models.Vitals {
	sys, dia := BloodPressure(t)
	core, skin := Temperatures(t)
	return models.Vitals{
		ECG:         ECG(t),
		SpO2:        SpO2(t),
		Resp:        Respiration(t),
		Pleth:       Pleth(t),
		BPSystolic:  sys,
		BPDiastolic: dia,
		TempCavity:  core,
		TempSkin:    skin,
		Timestamp:   t,
	}
}

// Fuse overlays every present stored value onto a synthetic sample. The
// timestamp always stays synthetic. Blood pressure is fused as a pair: if the
// result would not keep systolic above diastolic, both stored values are
// ignored for this sample.
func Fuse(synthetic models.Vitals, snap vitals.Snapshot) models.Vitals {
	out := synthetic
	for _, f := range models.AllVitalFields() {
		switch f {
		case models.FieldTimestamp, models.FieldBPSystolic, models.FieldBPDiastolic:
			continue
		}
		if v, ok := snap.Get(f); ok {
			out.Set(f, v)
		}
	}

	sys, dia := synthetic.BPSystolic, synthetic.BPDiastolic
	if v, ok := snap.Get(models.FieldBPSystolic); ok {
		sys = v
	}
	if v, ok := snap.Get(models.FieldBPDiastolic); ok {
		dia = v
	}
	if sys > dia {
		out.BPSystolic, out.BPDiastolic = sys, dia
	}
	return out
}
