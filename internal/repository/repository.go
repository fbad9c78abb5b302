// FilePath: server/monitor/internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/models"
)

var (
	// ErrUnavailable indicates the backing store cannot be reached
	ErrUnavailable = errors.New("repository unavailable")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// PatientRepository mirrors the latest telemetry reading per topic.
// It keeps no history.
type PatientRepository interface {
	SaveReading(ctx context.Context, topic string, value float64, at time.Time) error
	Load(ctx context.Context) (map[string]models.Reading, error)
	Close() error
}
