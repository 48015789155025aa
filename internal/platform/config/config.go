package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean. Values come
// from the environment; defaults suit local development only.
type Config struct {
	Addr        string
	CatalogPath string

	JWTSigningKey string
	// ServiceKeyHash is the bcrypt hash of the API key that internal
	// endpoints (manual sweep trigger, completion callbacks) accept.
	ServiceKeyHash string

	PostgresURL string

	// DirectoryURL is the base URL of the business entity directory service.
	DirectoryURL string

	Redis RedisConfig

	// SweepSchedule is a cron expression for the background sweep loop.
	SweepSchedule string

	KafkaBrokers   []string
	ReminderTopic  string
	SweepBatchSize int
	SweepWorkers   int
}

// RedisConfig holds connection settings for the dashboard cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DashboardCacheTTL bounds how stale dashboard rollups may be served.
var DashboardCacheTTL = 30 * time.Second

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("COMPLY_ADDR", ":8080"),
		CatalogPath:    envOr("COMPLY_CATALOG_PATH", "config/requirements.yaml"),
		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ServiceKeyHash: os.Getenv("COMPLY_SERVICE_KEY_HASH"),
		PostgresURL:    os.Getenv("COMPLY_POSTGRES_URL"),
		DirectoryURL:   envOr("COMPLY_DIRECTORY_URL", "http://localhost:9090"),
		SweepSchedule:  envOr("COMPLY_SWEEP_SCHEDULE", "@hourly"),
		ReminderTopic:  envOr("COMPLY_REMINDER_TOPIC", "compliance.reminders"),
		SweepBatchSize: envIntOr("COMPLY_SWEEP_BATCH_SIZE", 200),
		SweepWorkers:   envIntOr("COMPLY_SWEEP_WORKERS", 4),
		Redis: RedisConfig{
			URL:          os.Getenv("COMPLY_REDIS_URL"),
			PoolSize:     envIntOr("COMPLY_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("COMPLY_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
	if brokers := os.Getenv("COMPLY_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
