package config

import (
	"fmt"
	"os"
	"strconv"
)

// VitalRange is the configured clinical reference range for one vital sign.
type VitalRange struct {
	Min  float64
	Max  float64
	Unit string
}

// Config skanray-monitor service configuration.
type Config struct {
	HTTP struct {
		Addr string
	}

	Monitor struct {
		BedCount      int // fixed bed count, bed ids are 1..BedCount
		PollInterval  int // scheduler tick interval (seconds)
		TrendCapacity int // bounded trend buffer size per bed
	}

	// Thresholds keyed by VitalSign.String(). Every monitored vital must
	// have an entry; the threshold table treats absence as fatal.
	Thresholds map[string]VitalRange

	RedisEnabled bool
	Redis        struct {
		Addr     string
		Password string
		DB       int
	}
	Cache struct {
		BedKeyPrefix   string // realtime snapshot key prefix, e.g. "bedside:bed:"
		RealtimeSuffix string // ":realtime"
		AlarmSuffix    string // ":alarms"
		TTL            int    // snapshot TTL (seconds)
	}

	DBEnabled bool
	Database  struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// MQTT inbound message listener (optional): raw clinical messages
	// arriving on the topic are enqueued for later processing.
	MQTT struct {
		Enabled  bool
		Broker   string
		ClientID string
		Username string
		Password string
		Topic    string
		QoS      byte
	}

	// Forward pushes encoded messages for online beds to the central
	// nursing system after each scheduler pass (optional).
	Forward struct {
		Enabled  bool
		Endpoint string
		Timeout  int // seconds
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load builds the configuration from environment variables with
// defaults matching the reference deployment (4 beds, 5s cadence).
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Monitor.BedCount = parseInt(getEnv("BED_COUNT", "4"), 4)
	cfg.Monitor.PollInterval = parseInt(getEnv("POLL_INTERVAL", "5"), 5)
	cfg.Monitor.TrendCapacity = parseInt(getEnv("TREND_CAPACITY", "60"), 60)

	cfg.Thresholds = map[string]VitalRange{
		"HeartRate":       {Min: envFloat("VITAL_HEART_RATE_MIN", 60), Max: envFloat("VITAL_HEART_RATE_MAX", 100), Unit: "bpm"},
		"BloodPressure":   {Min: envFloat("VITAL_BLOOD_PRESSURE_MIN", 90), Max: envFloat("VITAL_BLOOD_PRESSURE_MAX", 140), Unit: "mmHg"},
		"SpO2":            {Min: envFloat("VITAL_SPO2_MIN", 95), Max: envFloat("VITAL_SPO2_MAX", 100), Unit: "%"},
		"RespirationRate": {Min: envFloat("VITAL_RESPIRATION_RATE_MIN", 12), Max: envFloat("VITAL_RESPIRATION_RATE_MAX", 20), Unit: "/min"},
		"Temperature":     {Min: envFloat("VITAL_TEMPERATURE_MIN", 36.5), Max: envFloat("VITAL_TEMPERATURE_MAX", 37.5), Unit: "°C"},
	}

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Cache.BedKeyPrefix = getEnv("CACHE_BED_PREFIX", "bedside:bed:")
	cfg.Cache.RealtimeSuffix = ":realtime"
	cfg.Cache.AlarmSuffix = ":alarms"
	cfg.Cache.TTL = parseInt(getEnv("CACHE_TTL", "30"), 30)

	cfg.DBEnabled = getEnv("DB_ENABLED", "false") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "skanray")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "skanray-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "skanray/hl7/inbound")
	cfg.MQTT.QoS = 1

	cfg.Forward.Enabled = getEnv("FORWARD_ENABLED", "false") == "true"
	cfg.Forward.Endpoint = getEnv("FORWARD_ENDPOINT", "")
	cfg.Forward.Timeout = parseInt(getEnv("FORWARD_TIMEOUT", "10"), 10)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Monitor.BedCount <= 0 {
		return nil, fmt.Errorf("invalid bed count: %d", cfg.Monitor.BedCount)
	}
	if cfg.Forward.Enabled && cfg.Forward.Endpoint == "" {
		return nil, fmt.Errorf("FORWARD_ENDPOINT is required when forwarding is enabled")
	}

	return cfg, nil
}

// GetDSN builds the Postgres connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
