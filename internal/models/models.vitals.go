// FilePath: server/monitor/internal/models/models.vitals.go
package models

import "fmt"

// VitalField names one channel of the fused vital-signs sample.
type VitalField int

const (
	FieldECG VitalField = iota
	FieldSpO2
	FieldResp
	FieldPleth
	FieldBPSystolic
	FieldBPDiastolic
	FieldTempCavity
	FieldTempSkin
	FieldTimestamp

	vitalFieldCount
)

var vitalFieldNames = [vitalFieldCount]string{
	FieldECG:         "ecg",
	FieldSpO2:        "spo2",
	FieldResp:        "resp",
	FieldPleth:       "pleth",
	FieldBPSystolic:  "bp_systolic",
	FieldBPDiastolic: "bp_diastolic",
	FieldTempCavity:  "temp_cavity",
	FieldTempSkin:    "temp_skin",
	FieldTimestamp:   "timestamp",
}

// VitalFieldCount is the number of defined vital fields.
const VitalFieldCount = int(vitalFieldCount)

func (f VitalField) String() string {
	if !f.Valid() {
		return fmt.Sprintf("VitalField(%d)", int(f))
	}
	return vitalFieldNames[f]
}

// Valid reports whether f is one of the defined fields.
func (f VitalField) Valid() bool {
	return f >= 0 && f < vitalFieldCount
}

// ParseVitalField resolves a field from its wire name.
func ParseVitalField(name string) (VitalField, error) {
	for i, n := range vitalFieldNames {
		if n == name {
			return VitalField(i), nil
		}
	}
	return 0, fmt.Errorf("unknown vital field %q", name)
}

// AllVitalFields lists every field in canonical order.
func AllVitalFields() []VitalField {
	fields := make([]VitalField, 0, vitalFieldCount)
	for f := VitalField(0); f < vitalFieldCount; f++ {
		fields = append(fields, f)
	}
	return fields
}

// Vitals is one fused sample as delivered to streaming clients.
type Vitals struct {
	ECG         float64 `json:"ecg"`
	SpO2        float64 `json:"spo2"`
	Resp        float64 `json:"resp"`
	Pleth       float64 `json:"pleth"`
	BPSystolic  float64 `json:"bp_systolic"`
	BPDiastolic float64 `json:"bp_diastolic"`
	TempCavity  float64 `json:"temp_cavity"`
	TempSkin    float64 `json:"temp_skin"`
	Timestamp   float64 `json:"timestamp"`
}

func (v *Vitals) ref(f VitalField) *float64 {
	switch f {
	case FieldECG:
		return &v.ECG
	case FieldSpO2:
		return &v.SpO2
	case FieldResp:
		return &v.Resp
	case FieldPleth:
		return &v.Pleth
	case FieldBPSystolic:
		return &v.BPSystolic
	case FieldBPDiastolic:
		return &v.BPDiastolic
	case FieldTempCavity:
		return &v.TempCavity
	case FieldTempSkin:
		return &v.TempSkin
	case FieldTimestamp:
		return &v.Timestamp
	}
	return nil
}

// Get returns the value of field f, zero for unknown fields.
func (v Vitals) Get(f VitalField) float64 {
	if p := v.ref(f); p != nil {
		return *p
	}
	return 0
}

// Set assigns field f. Unknown fields are ignored.
func (v *Vitals) Set(f VitalField, value float64) {
	if p := v.ref(f); p != nil {
		*p = value
	}
}
