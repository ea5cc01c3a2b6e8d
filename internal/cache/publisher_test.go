package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skanray-monitor/internal/config"
	"skanray-monitor/internal/models"
	"skanray-monitor/internal/monitor"
)

func setupTestPublisher(t *testing.T) (*miniredis.Miniredis, *Publisher) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Cache.BedKeyPrefix = "bedside:bed:"
	cfg.Cache.TTL = 30

	return mr, NewPublisher(cfg, redisClient, zap.NewNop())
}

func testSnapshot(bedID int) monitor.Snapshot {
	return monitor.Snapshot{
		BedID: bedID,
		Identity: models.PatientIdentity{
			PatientID: "P1",
			Name:      "Patient_P1",
			DOB:       "19700101",
			Gender:    "M",
		},
		LatestReading: &models.Reading{
			Values: map[models.VitalSign]float64{
				models.HeartRate: 72.0,
				models.SpO2:      98.5,
			},
			CapturedAt: time.Now(),
		},
		Online: true,
	}
}

func TestPublishSnapshot_RoundTrip(t *testing.T) {
	_, p := setupTestPublisher(t)
	ctx := context.Background()

	err := p.PublishSnapshot(ctx, testSnapshot(1))
	require.NoError(t, err)

	snap, err := p.GetSnapshot(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, 1, snap.BedID)
	assert.Equal(t, "P1", snap.Identity.PatientID)
	require.NotNil(t, snap.LatestReading)
	assert.Equal(t, 72.0, snap.LatestReading.Values[models.HeartRate])
	assert.True(t, snap.Online)
}

func TestPublishSnapshot_SetsTTL(t *testing.T) {
	mr, p := setupTestPublisher(t)
	ctx := context.Background()

	err := p.PublishSnapshot(ctx, testSnapshot(2))
	require.NoError(t, err)

	ttl := mr.TTL("bedside:bed:2:realtime")
	assert.Equal(t, 30*time.Second, ttl)
}

func TestGetSnapshot_NotFound(t *testing.T) {
	_, p := setupTestPublisher(t)

	_, err := p.GetSnapshot(context.Background(), 9)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestPublishAlarms_WritesAlarmKey(t *testing.T) {
	mr, p := setupTestPublisher(t)
	ctx := context.Background()

	alarms := []models.Alarm{
		{
			BedID:     1,
			Vital:     models.HeartRate,
			VitalName: "HeartRate",
			Value:     115.3,
			Severity:  models.SeverityCritical,
		},
	}

	err := p.PublishAlarms(ctx, 1, alarms)
	require.NoError(t, err)

	val, err := mr.Get("bedside:bed:1:alarms")
	require.NoError(t, err)

	var cached []models.Alarm
	require.NoError(t, json.Unmarshal([]byte(val), &cached))
	require.Len(t, cached, 1)
	assert.Equal(t, "HeartRate", cached[0].VitalName)
	assert.Equal(t, models.SeverityCritical, cached[0].Severity)
}

func TestPublishAlarms_EmptyListOverwrites(t *testing.T) {
	mr, p := setupTestPublisher(t)
	ctx := context.Background()

	require.NoError(t, p.PublishAlarms(ctx, 1, []models.Alarm{{BedID: 1, VitalName: "SpO2"}}))
	require.NoError(t, p.PublishAlarms(ctx, 1, []models.Alarm{}))

	val, err := mr.Get("bedside:bed:1:alarms")
	require.NoError(t, err)
	assert.Equal(t, "[]", val)
}
