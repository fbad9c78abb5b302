// FilePath: server/monitor/internal/vitals/vitals.store.go
package vitals

import (
	"sync"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/models"
)

type slot struct {
	value     float64
	present   bool
	updatedAt time.Time
}

// Store holds the latest externally supplied value for every vital field.
// A field is absent until its first Set and is never removed afterwards.
// All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	slots [models.VitalFieldCount]slot
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Set records v for field and stamps it with the current time.
// Unknown fields are ignored.
func (s *Store) Set(field models.VitalField, v float64) {
	if !field.Valid() {
		return
	}
	now := s.now()
	s.mu.Lock()
	s.slots[field] = slot{value: v, present: true, updatedAt: now}
	s.mu.Unlock()
}

// SetMany writes several fields under one lock. Fields not in values keep
// their previous state.
func (s *Store) SetMany(values map[models.VitalField]float64) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for field, v := range values {
		if !field.Valid() {
			continue
		}
		s.slots[field] = slot{value: v, present: true, updatedAt: now}
	}
}

// Get returns the stored value and whether the field has ever been set.
func (s *Store) Get(field models.VitalField) (float64, bool) {
	if !field.Valid() {
		return 0, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl := s.slots[field]
	return sl.value, sl.present
}

func (s *Store) Has(field models.VitalField) bool {
	_, ok := s.Get(field)
	return ok
}

// LastUpdate returns when field was last written.
func (s *Store) LastUpdate(field models.VitalField) (time.Time, bool) {
	if !field.Valid() {
		return time.Time{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl := s.slots[field]
	return sl.updatedAt, sl.present
}

// Snapshot copies the whole bank under a single read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{slots: s.slots}
}

// Snapshot is an immutable copy of the store.
type Snapshot struct {
	slots [models.VitalFieldCount]slot
}

func (sn Snapshot) Get(field models.VitalField) (float64, bool) {
	if !field.Valid() {
		return 0, false
	}
	sl := sn.slots[field]
	return sl.value, sl.present
}

func (sn Snapshot) LastUpdate(field models.VitalField) (time.Time, bool) {
	if !field.Valid() {
		return time.Time{}, false
	}
	sl := sn.slots[field]
	return sl.updatedAt, sl.present
}

// Age reports how long ago field was written, relative to now.
func (sn Snapshot) Age(field models.VitalField, now time.Time) (time.Duration, bool) {
	at, ok := sn.LastUpdate(field)
	if !ok {
		return 0, false
	}
	return now.Sub(at), true
}

// Present lists the fields that have been set.
func (sn Snapshot) Present() []models.VitalField {
	var out []models.VitalField
	for _, f := range models.AllVitalFields() {
		if sn.slots[f].present {
			out = append(out, f)
		}
	}
	return out
}
