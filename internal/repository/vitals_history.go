package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skanray-monitor/internal/models"
)

// VitalsHistoryRepository persists one row per captured reading to the
// vitals table, mirroring the per-vital columns of the reference
// schema.
type VitalsHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVitalsHistoryRepository creates the repository.
func NewVitalsHistoryRepository(db *sql.DB, logger *zap.Logger) *VitalsHistoryRepository {
	return &VitalsHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// InsertReading appends one captured reading for a bed.
func (r *VitalsHistoryRepository) InsertReading(ctx context.Context, bedID int, reading *models.Reading) (string, error) {
	readingID := uuid.NewString()

	query := `
		INSERT INTO vitals (
			reading_id,
			bed_id,
			heart_rate,
			blood_pressure,
			spo2,
			respiration_rate,
			temperature,
			captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		readingID,
		bedID,
		reading.Values[models.HeartRate],
		reading.Values[models.BloodPressure],
		reading.Values[models.SpO2],
		reading.Values[models.RespirationRate],
		reading.Values[models.Temperature],
		reading.CapturedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert reading: %w", err)
	}

	r.logger.Debug("Inserted vitals history row",
		zap.String("reading_id", readingID),
		zap.Int("bed_id", bedID),
	)

	return readingID, nil
}
