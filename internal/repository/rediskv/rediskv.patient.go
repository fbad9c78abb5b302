// FilePath: server/monitor/internal/repository/rediskv/rediskv.patient.go
package rediskv

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/database"
	"github.com/itsatony/curecraft/server/monitor/internal/errors"
	"github.com/itsatony/curecraft/server/monitor/internal/models"
	"github.com/itsatony/curecraft/server/monitor/internal/repository"
)

const tsSuffix = ":ts"

// PatientRepository keeps the latest telemetry reading per topic in one
// Redis hash: field <topic> holds the value, <topic>:ts the unix millis.
type PatientRepository struct {
	db  database.DB
	key string
}

var _ repository.PatientRepository = (*PatientRepository)(nil)

func NewPatientRepository(db database.DB, key string) *PatientRepository {
	if key == "" {
		key = "curecraft:patient"
	}
	return &PatientRepository{db: db, key: key}
}

func (r *PatientRepository) SaveReading(ctx context.Context, topic string, value float64, at time.Time) error {
	if topic == "" || strings.HasSuffix(topic, tsSuffix) {
		return errors.NewValidationError("invalid topic", repository.ErrInvalidInput)
	}
	err := r.db.GetClient().HSet(ctx, r.key, encodeReading(topic, value, at)).Err()
	if err != nil {
		return errors.NewUnavailableError("failed to save reading", fmt.Errorf("%w: %v", repository.ErrUnavailable, err))
	}
	return nil
}

func (r *PatientRepository) Load(ctx context.Context) (map[string]models.Reading, error) {
	fields, err := r.db.GetClient().HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, errors.NewUnavailableError("failed to load readings", fmt.Errorf("%w: %v", repository.ErrUnavailable, err))
	}
	return decodeReadings(fields), nil
}

func (r *PatientRepository) Close() error {
	return r.db.Close()
}

func encodeReading(topic string, value float64, at time.Time) map[string]interface{} {
	return map[string]interface{}{
		topic:            strconv.FormatFloat(value, 'g', -1, 64),
		topic + tsSuffix: strconv.FormatInt(at.UnixMilli(), 10),
	}
}

// decodeReadings rebuilds readings from a hash, skipping malformed entries.
func decodeReadings(fields map[string]string) map[string]models.Reading {
	out := make(map[string]models.Reading)
	for field, raw := range fields {
		if strings.HasSuffix(field, tsSuffix) {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		reading := models.Reading{Value: v}
		if ts, ok := fields[field+tsSuffix]; ok {
			if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
				reading.UpdatedAt = time.UnixMilli(ms)
			}
		}
		out[field] = reading
	}
	return out
}
