package hubservice

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/errors"
	"github.com/itsatony/curecraft/server/monitor/internal/hub"
	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/itsatony/curecraft/server/monitor/internal/sensors"
	nuts "github.com/vaudience/go-nuts"
)

// SensorService is what the API needs from the hub side.
type SensorService interface {
	SensorStatus() models.SensorStatus
	SensorRecord(key string) (models.SensorRecord, error)
	ReadSensor(ctx context.Context, key string) (models.SensorRecord, error)
	Rescan(ctx context.Context) (models.ScanResult, error)
	HubStatus(ctx context.Context) (models.HubStatus, error)
}

var _ SensorService = (*HubService)(nil)

// RunScanLoop rescans the hub every scan interval until ctx ends.
func (s *HubService) RunScanLoop(ctx context.Context) error {
	interval := s.scanInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n := s.Sensors.ScanSensors(ctx)
			s.Monitoring.SetAttached(n)
		}
	}
}

func (s *HubService) SensorStatus() models.SensorStatus {
	return s.Sensors.Status()
}

func (s *HubService) SensorRecord(key string) (models.SensorRecord, error) {
	kind, err := models.ParseSensorKind(key)
	if err != nil {
		return models.SensorRecord{}, errors.NewNotFoundError("unknown sensor", err)
	}
	return s.Sensors.SensorInfo(kind), nil
}

// ReadSensor reads one value from the hub and returns the updated record.
func (s *HubService) ReadSensor(ctx context.Context, key string) (models.SensorRecord, error) {
	kind, err := models.ParseSensorKind(key)
	if err != nil {
		return models.SensorRecord{}, errors.NewNotFoundError("unknown sensor", err)
	}
	if _, err := s.Sensors.ReadSensor(ctx, kind); err != nil {
		switch {
		case stderrors.Is(err, sensors.ErrNotAttached):
			return models.SensorRecord{}, errors.NewConflictError("sensor not attached", err)
		case stderrors.Is(err, sensors.ErrUnknownSensor):
			return models.SensorRecord{}, errors.NewNotFoundError("unknown sensor", err)
		}
		return models.SensorRecord{}, errors.NewUnavailableError("hub did not answer", err)
	}
	return s.Sensors.SensorInfo(kind), nil
}

// Rescan triggers an immediate scan.
func (s *HubService) Rescan(ctx context.Context) (models.ScanResult, error) {
	n, err := s.Sensors.Scan(ctx)
	s.Monitoring.SetAttached(n)
	result := models.ScanResult{Attached: n, Sensors: s.Sensors.Status()}
	if err != nil {
		nuts.L.Warnf("[HubService] Manual scan failed: %v", err)
		return result, errors.NewUnavailableError("scan failed", err).WithDetails(result)
	}
	return result, nil
}

func (s *HubService) HubStatus(ctx context.Context) (models.HubStatus, error) {
	raw, err := s.Sensors.HubStatus(ctx)
	if err != nil {
		return models.HubStatus{}, errors.NewUnavailableError("hub status unavailable", err)
	}
	status := models.HubStatus{Bytes: make([]int, 0, hub.StatusLength)}
	for _, b := range raw {
		status.Bytes = append(status.Bytes, int(b))
		status.Ready = status.Ready || b != 0
	}
	return status, nil
}
