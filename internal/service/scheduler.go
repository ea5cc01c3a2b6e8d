package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"skanray-monitor/internal/cache"
	"skanray-monitor/internal/config"
	"skanray-monitor/internal/forward"
	"skanray-monitor/internal/hl7"
	"skanray-monitor/internal/monitor"
	"skanray-monitor/internal/repository"
)

// Scheduler owns the generation cadence: every poll interval it ticks
// each bed monitor, then fans the result out to the optional sinks
// (Redis snapshot cache, Postgres history, CNS forwarder). Sink errors
// are logged and never interrupt the pass. Ticks for a bed never
// overlap: the loop is the single tick driver and runs beds
// sequentially.
type Scheduler struct {
	config   *config.Config
	registry *monitor.Registry
	codec    *hl7.Codec
	logger   *zap.Logger

	// optional sinks, nil when disabled
	publisher     *cache.Publisher
	alarmHistory  *repository.AlarmHistoryRepository
	vitalsHistory *repository.VitalsHistoryRepository
	forwarder     *forward.CNSForwarder
}

// NewScheduler creates the scheduler. Any sink may be nil.
func NewScheduler(
	cfg *config.Config,
	registry *monitor.Registry,
	codec *hl7.Codec,
	publisher *cache.Publisher,
	alarmHistory *repository.AlarmHistoryRepository,
	vitalsHistory *repository.VitalsHistoryRepository,
	forwarder *forward.CNSForwarder,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		config:        cfg,
		registry:      registry,
		codec:         codec,
		publisher:     publisher,
		alarmHistory:  alarmHistory,
		vitalsHistory: vitalsHistory,
		forwarder:     forwarder,
		logger:        logger,
	}
}

// Start runs the poll loop until the context is cancelled. The first
// pass runs immediately so the dashboard has data at startup.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Scheduler started",
		zap.Int("bed_count", s.registry.BedCount()),
		zap.Int("poll_interval", s.config.Monitor.PollInterval),
	)

	ticker := time.NewTicker(time.Duration(s.config.Monitor.PollInterval) * time.Second)
	defer ticker.Stop()

	s.tickAllBeds(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.tickAllBeds(ctx)
		}
	}
}

// tickAllBeds runs one generation/classification pass over every bed.
func (s *Scheduler) tickAllBeds(ctx context.Context) {
	now := time.Now()

	for _, m := range s.registry.All() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		reading, alarms := m.Tick(now)

		if len(alarms) > 0 {
			s.logger.Info("Alarms raised",
				zap.Int("bed_id", m.BedID()),
				zap.Int("alarm_count", len(alarms)),
			)
		}

		if s.publisher != nil {
			if err := s.publisher.PublishSnapshot(ctx, m.Snapshot()); err != nil {
				s.logger.Error("Failed to publish bed snapshot",
					zap.Int("bed_id", m.BedID()),
					zap.Error(err),
				)
			}
			if err := s.publisher.PublishAlarms(ctx, m.BedID(), alarms); err != nil {
				s.logger.Error("Failed to publish alarms",
					zap.Int("bed_id", m.BedID()),
					zap.Error(err),
				)
			}
		}

		if s.vitalsHistory != nil {
			if _, err := s.vitalsHistory.InsertReading(ctx, m.BedID(), reading); err != nil {
				s.logger.Error("Failed to persist reading",
					zap.Int("bed_id", m.BedID()),
					zap.Error(err),
				)
			}
		}

		if s.alarmHistory != nil {
			for _, alarm := range alarms {
				if _, err := s.alarmHistory.InsertAlarm(ctx, alarm); err != nil {
					s.logger.Error("Failed to persist alarm",
						zap.Int("bed_id", m.BedID()),
						zap.String("vital", alarm.VitalName),
						zap.Error(err),
					)
				}
			}
		}

		// Offline beds keep ticking but delivery is suppressed.
		if s.forwarder != nil && m.Online() {
			msg := s.codec.Encode(m.BedID(), m.Identity(), reading, now)
			if err := s.forwarder.Forward(msg); err != nil {
				s.logger.Error("Failed to forward message to CNS",
					zap.Int("bed_id", m.BedID()),
					zap.Error(err),
				)
			}
		}
	}
}
