package hubservice

import (
	"crypto/subtle"

	"github.com/itsatony/curecraft/server/monitor/internal/errors"
	"github.com/itsatony/curecraft/server/monitor/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// MonitorService covers the monitor-wide endpoints.
type MonitorService interface {
	Status() models.MonitorStatus
	Vitals() models.Frame
	Patient() (models.PatientData, error)
	ResetSignal()
	Login(req models.LoginRequest) error
}

var _ MonitorService = (*HubService)(nil)

func (s *HubService) Status() models.MonitorStatus {
	return models.MonitorStatus{
		Running:            true,
		Clients:            s.Stream.Clients(),
		UpdateRate:         s.Stream.DefaultRate(),
		Time:               s.Generator.Time(),
		MockMode:           s.Sensors.Mock(),
		HubDetected:        s.Sensors.HubDetected(),
		AttachedSensors:    s.Sensors.AttachedCount(),
		TelemetryConnected: s.Telemetry != nil && s.Telemetry.Connected(),
		Version:            nuts.GetVersion(),
	}
}

// Vitals returns the frame a stream client would receive right now.
func (s *HubService) Vitals() models.Frame {
	return s.Stream.Frame()
}

func (s *HubService) Patient() (models.PatientData, error) {
	if s.Telemetry == nil {
		return models.PatientData{}, errors.NewUnavailableError("telemetry disabled", nil)
	}
	return s.Telemetry.Patient(), nil
}

// ResetSignal restarts the synthetic waveforms at t=0.
func (s *HubService) ResetSignal() {
	s.Generator.Reset()
	s.Monitoring.RecordEvent("signal_reset", nil)
}

// Login checks the operator credentials. There are no sessions.
func (s *HubService) Login(req models.LoginRequest) error {
	if req.Username == "" || req.Password == "" {
		return errors.NewValidationError("username and password are required", nil)
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.auth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.auth.Password)) == 1
	if !userOK || !passOK {
		return errors.NewAuthError("invalid credentials", nil)
	}
	return nil
}
