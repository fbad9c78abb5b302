// FilePath: server/monitor/internal/models/models.composite.go
package models

// Frame is one streaming payload: the fused vitals plus the attachment table.
type Frame struct {
	Vitals
	Sensors SensorStatus `json:"sensors"`
}

// MonitorStatus backs /api/status.
type MonitorStatus struct {
	Running            bool    `json:"running"`
	Clients            int     `json:"clients"`
	UpdateRate         int     `json:"updateRate"`
	Time               float64 `json:"time"`
	MockMode           bool    `json:"mockMode"`
	HubDetected        bool    `json:"hubDetected"`
	AttachedSensors    int     `json:"attachedSensors"`
	TelemetryConnected bool    `json:"telemetryConnected"`
	Version            string  `json:"version"`
}

// HubStatus is the raw GET_STATUS answer of the hub.
type HubStatus struct {
	Bytes []int `json:"bytes"`
	Ready bool  `json:"ready"`
}
