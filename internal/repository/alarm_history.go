package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skanray-monitor/internal/models"
)

// AlarmHistoryRepository persists every alarm emission to the alarms
// table. A still-breached vital re-raises on every tick, so rows are
// append-only emissions, not latched incidents.
type AlarmHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlarmHistoryRepository creates the repository.
func NewAlarmHistoryRepository(db *sql.DB, logger *zap.Logger) *AlarmHistoryRepository {
	return &AlarmHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// InsertAlarm appends one alarm emission.
func (r *AlarmHistoryRepository) InsertAlarm(ctx context.Context, alarm models.Alarm) (string, error) {
	alarmID := uuid.NewString()

	query := `
		INSERT INTO alarms (
			alarm_id,
			bed_id,
			vital_type,
			value,
			severity,
			triggered_at,
			acknowledged
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		alarmID,
		alarm.BedID,
		alarm.VitalName,
		alarm.Value,
		string(alarm.Severity),
		alarm.TriggeredAt,
		alarm.Acknowledged,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert alarm: %w", err)
	}

	r.logger.Debug("Inserted alarm history row",
		zap.String("alarm_id", alarmID),
		zap.Int("bed_id", alarm.BedID),
		zap.String("vital", alarm.VitalName),
		zap.String("severity", string(alarm.Severity)),
	)

	return alarmID, nil
}

// ListRecentAlarms returns the most recent alarm emissions for a bed,
// newest first.
func (r *AlarmHistoryRepository) ListRecentAlarms(ctx context.Context, bedID, limit int) ([]models.Alarm, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT bed_id, vital_type, value, severity, triggered_at, acknowledged
		FROM alarms
		WHERE bed_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, bedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer rows.Close()

	var alarms []models.Alarm
	for rows.Next() {
		var a models.Alarm
		var severity string
		var triggeredAt time.Time
		if err := rows.Scan(&a.BedID, &a.VitalName, &a.Value, &severity, &triggeredAt, &a.Acknowledged); err != nil {
			return nil, fmt.Errorf("failed to scan alarm row: %w", err)
		}
		a.Severity = models.Severity(severity)
		a.TriggeredAt = triggeredAt
		if v, ok := models.ParseVitalSign(a.VitalName); ok {
			a.Vital = v
		}
		alarms = append(alarms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alarm rows: %w", err)
	}

	return alarms, nil
}
