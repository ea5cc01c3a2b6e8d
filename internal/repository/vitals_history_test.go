package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skanray-monitor/internal/models"
)

func setupMockVitalsHistoryDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *VitalsHistoryRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewVitalsHistoryRepository(db, zap.NewNop())
	return db, mock, repo
}

func TestInsertReading_Success(t *testing.T) {
	db, mock, repo := setupMockVitalsHistoryDB(t)
	defer db.Close()

	capturedAt := time.Now()
	reading := &models.Reading{
		Values: map[models.VitalSign]float64{
			models.HeartRate:       72.0,
			models.BloodPressure:   118.5,
			models.SpO2:            98.0,
			models.RespirationRate: 16.0,
			models.Temperature:     36.8,
		},
		CapturedAt: capturedAt,
	}

	mock.ExpectExec("INSERT INTO vitals").
		WithArgs(sqlmock.AnyArg(), 4, 72.0, 118.5, 98.0, 16.0, 36.8, capturedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	readingID, err := repo.InsertReading(context.Background(), 4, reading)

	require.NoError(t, err)
	assert.NotEmpty(t, readingID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReading_DBError(t *testing.T) {
	db, mock, repo := setupMockVitalsHistoryDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO vitals").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.InsertReading(context.Background(), 1, &models.Reading{
		Values:     map[models.VitalSign]float64{},
		CapturedAt: time.Now(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert reading")
}
