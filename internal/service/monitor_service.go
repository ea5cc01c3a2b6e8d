package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"skanray-monitor/internal/alarm"
	"skanray-monitor/internal/cache"
	"skanray-monitor/internal/config"
	"skanray-monitor/internal/exchange"
	"skanray-monitor/internal/export"
	"skanray-monitor/internal/forward"
	"skanray-monitor/internal/hl7"
	"skanray-monitor/internal/httpapi"
	"skanray-monitor/internal/ingest"
	"skanray-monitor/internal/monitor"
	"skanray-monitor/internal/repository"
	"skanray-monitor/internal/vitals"
)

// MonitorService composes the monitoring core with its optional sinks
// and the HTTP surface.
type MonitorService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client

	registry  *monitor.Registry
	codec     *hl7.Codec
	queue     *exchange.MessageQueue
	scheduler *Scheduler
	server    *httpapi.Server
	listener  *ingest.MQTTListener
}

// NewMonitorService wires every component from configuration. Optional
// integrations (Redis, Postgres, MQTT, CNS forwarding) are connected
// only when enabled; a failed connection to an enabled integration is
// fatal.
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. Threshold table; a missing vital range refuses startup.
	thresholds, err := vitals.NewThresholdTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build threshold table: %w", err)
	}

	// 2. Core components.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := vitals.NewGenerator(thresholds, rng)
	classifier := alarm.NewClassifier(thresholds)
	registry := monitor.NewRegistry(cfg.Monitor.BedCount, cfg.Monitor.TrendCapacity, generator, classifier, logger)
	codec := hl7.NewCodec(thresholds)
	queue := exchange.NewMessageQueue(codec, logger)

	s := &MonitorService{
		config:   cfg,
		logger:   logger,
		registry: registry,
		codec:    codec,
		queue:    queue,
	}

	// 3. Optional Postgres history sink.
	var alarmHistory *repository.AlarmHistoryRepository
	var vitalsHistory *repository.VitalsHistoryRepository
	if cfg.DBEnabled {
		db, err := sql.Open("postgres", cfg.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		s.db = db
		alarmHistory = repository.NewAlarmHistoryRepository(db, logger)
		vitalsHistory = repository.NewVitalsHistoryRepository(db, logger)
	}

	// 4. Optional Redis snapshot cache.
	var publisher *cache.Publisher
	if cfg.RedisEnabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		s.redisClient = redisClient
		publisher = cache.NewPublisher(cfg, redisClient, logger)
	}

	// 5. Optional CNS forwarder.
	var forwarder *forward.CNSForwarder
	if cfg.Forward.Enabled {
		forwarder = forward.NewCNSForwarder(
			cfg.Forward.Endpoint,
			time.Duration(cfg.Forward.Timeout)*time.Second,
			logger,
		)
	}

	// 6. Optional MQTT inbound listener.
	if cfg.MQTT.Enabled {
		listener, err := ingest.NewMQTTListener(cfg, queue, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create MQTT listener: %w", err)
		}
		s.listener = listener
	}

	// 7. Scheduler and HTTP surface.
	s.scheduler = NewScheduler(cfg, registry, codec, publisher, alarmHistory, vitalsHistory, forwarder, logger)

	reportWriter := export.NewTrendReportWriter(logger)
	router := httpapi.NewRouter(logger)
	router.RegisterBedRoutes(httpapi.NewBedHandler(registry, codec, reportWriter, alarmHistory, logger))
	router.RegisterExchangeRoutes(httpapi.NewExchangeHandler(queue, logger))
	s.server = httpapi.NewServer(cfg.HTTP.Addr, router, logger)

	return s, nil
}

// Registry exposes the monitor registry (used by tests and embedding
// applications).
func (s *MonitorService) Registry() *monitor.Registry {
	return s.registry
}

// Queue exposes the message queue.
func (s *MonitorService) Queue() *exchange.MessageQueue {
	return s.queue
}

// Start runs the scheduler and the HTTP server until the context is
// cancelled or the server fails.
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting monitor service",
		zap.Int("bed_count", s.config.Monitor.BedCount),
		zap.String("http_addr", s.config.HTTP.Addr),
	)

	if s.listener != nil {
		if err := s.listener.Start(); err != nil {
			return fmt.Errorf("failed to start MQTT listener: %w", err)
		}
	}

	schedulerErr := make(chan error, 1)
	go func() {
		schedulerErr <- s.scheduler.Start(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.server.Start()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-schedulerErr:
		return err
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

// Stop releases external connections and shuts the HTTP server down.
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping monitor service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Stop(shutdownCtx); err != nil {
		s.logger.Error("Failed to stop HTTP server",
			zap.Error(err),
		)
	}

	if s.listener != nil {
		s.listener.Stop()
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database",
				zap.Error(err),
			)
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis",
				zap.Error(err),
			)
		}
	}

	return nil
}
