package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// External analyzer
	AnalyzerBaseURL   string
	AnalyzerAPIKey    string
	AnalyzerModel     string
	AnalyzerTimeout   time.Duration
	AnalyzerMaxTokens int
	AnalyzerTemp      float64

	// Batch runner
	RunnerConcurrency int
	RunnerMaxBatch    int
	RunLockTTL        time.Duration

	// Audit pool
	AuditQueueSize     int
	AuditBatchSize     int
	AuditFlushInterval time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		AnalyzerBaseURL:   getEnv("ANALYZER_BASE_URL", "https://generativelanguage.googleapis.com"),
		AnalyzerModel:     getEnv("ANALYZER_MODEL", "gemini-2.0-flash"),
		AnalyzerTimeout:   getEnvDuration("ANALYZER_TIMEOUT", 90*time.Second),
		AnalyzerMaxTokens: getEnvInt("ANALYZER_MAX_OUTPUT_TOKENS", 2048),
		AnalyzerTemp:      getEnvFloat("ANALYZER_TEMPERATURE", 0.2),

		RunnerConcurrency: getEnvInt("RUNNER_CONCURRENCY", 3),
		RunnerMaxBatch:    getEnvInt("RUNNER_MAX_BATCH", 200),
		RunLockTTL:        getEnvDuration("RUN_LOCK_TTL", 30*time.Minute),

		AuditQueueSize:     getEnvInt("AUDIT_QUEUE_SIZE", 10000),
		AuditBatchSize:     getEnvInt("AUDIT_BATCH_SIZE", 500),
		AuditFlushInterval: getEnvDuration("AUDIT_FLUSH_INTERVAL", 1*time.Second),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}
	if cfg.AnalyzerAPIKey, err = getEnvRequired("ANALYZER_API_KEY"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
