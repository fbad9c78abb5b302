// FilePath: server/monitor/internal/models/models.patient.go
package models

import (
	"strings"
	"time"
)

// Topic groups published by the patient simulation.
const (
	GroupHeart      = "heart"
	GroupLung       = "lung"
	GroupConditions = "conditions"
)

// Reading is the latest value received on one telemetry topic.
type Reading struct {
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PatientData is the extended patient state assembled from telemetry.
// Only topics that have been received are present.
type PatientData struct {
	Heart      map[string]Reading `json:"heart"`
	Lung       map[string]Reading `json:"lung"`
	Conditions map[string]Reading `json:"conditions"`
}

func NewPatientData() PatientData {
	return PatientData{
		Heart:      map[string]Reading{},
		Lung:       map[string]Reading{},
		Conditions: map[string]Reading{},
	}
}

func (p *PatientData) group(name string) map[string]Reading {
	switch name {
	case GroupHeart:
		return p.Heart
	case GroupLung:
		return p.Lung
	case GroupConditions:
		return p.Conditions
	}
	return nil
}

// Set stores a reading under a "group/name" topic. Topics outside the
// known groups are dropped and reported as false.
func (p *PatientData) Set(topic string, value float64, at time.Time) bool {
	group, name, ok := strings.Cut(topic, "/")
	if !ok || name == "" {
		return false
	}
	m := p.group(group)
	if m == nil {
		return false
	}
	m[name] = Reading{Value: value, UpdatedAt: at}
	return true
}

// Get returns the reading for a "group/name" topic.
func (p PatientData) Get(topic string) (Reading, bool) {
	group, name, ok := strings.Cut(topic, "/")
	if !ok {
		return Reading{}, false
	}
	m := p.group(group)
	if m == nil {
		return Reading{}, false
	}
	r, ok := m[name]
	return r, ok
}

// Len counts the topics received so far.
func (p PatientData) Len() int {
	return len(p.Heart) + len(p.Lung) + len(p.Conditions)
}

// Clone returns a deep copy safe to hand to other goroutines.
func (p PatientData) Clone() PatientData {
	out := NewPatientData()
	for k, v := range p.Heart {
		out.Heart[k] = v
	}
	for k, v := range p.Lung {
		out.Lung[k] = v
	}
	for k, v := range p.Conditions {
		out.Conditions[k] = v
	}
	return out
}
