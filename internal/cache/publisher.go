package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"skanray-monitor/internal/config"
	"skanray-monitor/internal/models"
	"skanray-monitor/internal/monitor"
)

// ErrMiss is returned when a bed has no cached snapshot, either because
// it was never published or because the TTL expired.
var ErrMiss = errors.New("snapshot not found")

// Publisher pushes per-bed realtime snapshots and alarm lists into
// Redis so dashboard instances can read them without touching the
// registry. Keys expire after the configured TTL; a stale bed simply
// disappears from the cache.
type Publisher struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewPublisher creates the cache publisher.
func NewPublisher(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (p *Publisher) realtimeKey(bedID int) string {
	return fmt.Sprintf("%s%d%s", p.config.Cache.BedKeyPrefix, bedID, p.config.Cache.RealtimeSuffix)
}

func (p *Publisher) alarmKey(bedID int) string {
	return fmt.Sprintf("%s%d%s", p.config.Cache.BedKeyPrefix, bedID, p.config.Cache.AlarmSuffix)
}

// PublishSnapshot writes the bed snapshot under its realtime key.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap monitor.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal bed snapshot: %w", err)
	}

	ttl := time.Duration(p.config.Cache.TTL) * time.Second
	if err := p.redisClient.Set(ctx, p.realtimeKey(snap.BedID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set realtime cache: %w", err)
	}

	p.logger.Debug("Published bed snapshot",
		zap.Int("bed_id", snap.BedID),
	)

	return nil
}

// PublishAlarms writes the bed's current alarm list under its alarm key.
// An empty list still overwrites, so cleared alarms clear the cache too.
func (p *Publisher) PublishAlarms(ctx context.Context, bedID int, alarms []models.Alarm) error {
	data, err := json.Marshal(alarms)
	if err != nil {
		return fmt.Errorf("failed to marshal alarms: %w", err)
	}

	ttl := time.Duration(p.config.Cache.TTL) * time.Second
	if err := p.redisClient.Set(ctx, p.alarmKey(bedID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set alarm cache: %w", err)
	}

	return nil
}

// GetSnapshot reads a bed snapshot back from the cache.
func (p *Publisher) GetSnapshot(ctx context.Context, bedID int) (*monitor.Snapshot, error) {
	val, err := p.redisClient.Get(ctx, p.realtimeKey(bedID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w for bed: %d", ErrMiss, bedID)
		}
		return nil, fmt.Errorf("failed to get realtime cache: %w", err)
	}

	var snap monitor.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bed snapshot: %w", err)
	}

	return &snap, nil
}
