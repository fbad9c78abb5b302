// FilePath: server/monitor/internal/models/models.sensor.go
package models

import (
	"fmt"
	"time"
)

// SensorKind identifies a logical sensor on the patient hub.
type SensorKind int

const (
	SensorECG SensorKind = iota
	SensorSpO2
	SensorTempCore
	SensorTempSkin
	SensorNIBP
	// SensorRespiratory is virtual: the hub derives it, nothing is plugged in.
	SensorRespiratory

	sensorKindCount
)

type sensorKindInfo struct {
	key     string
	display string
}

var sensorKinds = [sensorKindCount]sensorKindInfo{
	SensorECG:         {key: "ecg", display: "ECG"},
	SensorSpO2:        {key: "spo2", display: "SpO2"},
	SensorTempCore:    {key: "temp_core", display: "Core Temp"},
	SensorTempSkin:    {key: "temp_skin", display: "Skin Temp"},
	SensorNIBP:        {key: "nibp", display: "NIBP"},
	SensorRespiratory: {key: "resp", display: "Respiratory"},
}

// String returns the JSON key of the kind.
func (k SensorKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("SensorKind(%d)", int(k))
	}
	return sensorKinds[k].key
}

// DisplayName is the human readable label shown on the monitor.
func (k SensorKind) DisplayName() string {
	if !k.Valid() {
		return ""
	}
	return sensorKinds[k].display
}

func (k SensorKind) Valid() bool {
	return k >= 0 && k < sensorKindCount
}

// IsVirtual reports whether the kind has no physical probe.
func (k SensorKind) IsVirtual() bool {
	return k == SensorRespiratory
}

// ParseSensorKind accepts the JSON key of a kind.
func ParseSensorKind(key string) (SensorKind, error) {
	for i, info := range sensorKinds {
		if info.key == key {
			return SensorKind(i), nil
		}
	}
	return -1, fmt.Errorf("unknown sensor kind %q", key)
}

// AllSensorKinds lists every kind, physical and virtual.
func AllSensorKinds() []SensorKind {
	kinds := make([]SensorKind, 0, sensorKindCount)
	for k := SensorKind(0); k < sensorKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// PhysicalSensorKinds lists the kinds that can be plugged into the hub.
func PhysicalSensorKinds() []SensorKind {
	kinds := make([]SensorKind, 0, sensorKindCount-1)
	for _, k := range AllSensorKinds() {
		if !k.IsVirtual() {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// SensorRecord is the registry's view of one sensor.
type SensorRecord struct {
	Kind        SensorKind `json:"-"`
	Key         string     `json:"kind"`
	DisplayName string     `json:"display_name"`
	HubID       uint8      `json:"hub_id"`
	Attached    bool       `json:"attached"`
	LastValue   float32    `json:"last_value"`
	LastRead    time.Time  `json:"last_read,omitempty"`
}

// SensorStatus is the attachment table rendered for clients.
type SensorStatus struct {
	ECG      bool `json:"ecg"`
	SpO2     bool `json:"spo2"`
	TempCore bool `json:"temp_core"`
	TempSkin bool `json:"temp_skin"`
	NIBP     bool `json:"nibp"`
	Resp     bool `json:"resp"`
}

func (s *SensorStatus) ref(k SensorKind) *bool {
	switch k {
	case SensorECG:
		return &s.ECG
	case SensorSpO2:
		return &s.SpO2
	case SensorTempCore:
		return &s.TempCore
	case SensorTempSkin:
		return &s.TempSkin
	case SensorNIBP:
		return &s.NIBP
	case SensorRespiratory:
		return &s.Resp
	}
	return nil
}

// Get reports the attachment state of k; unknown kinds read as detached.
func (s SensorStatus) Get(k SensorKind) bool {
	if p := s.ref(k); p != nil {
		return *p
	}
	return false
}

func (s *SensorStatus) Set(k SensorKind, attached bool) {
	if p := s.ref(k); p != nil {
		*p = attached
	}
}
