/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string

	DBBackend DatabaseBackend
	DBDSN     string

	// SchedulePath is the YAML schedule source consumed by the materializer.
	SchedulePath string
	// MediaRoot anchors relative playlist paths.
	MediaRoot string
	// PollInterval is the config change watcher's hash poll cadence.
	PollInterval time.Duration
	// Lookahead bounds how far ahead the orchestrator arms timers.
	Lookahead time.Duration

	GStreamerBin string
	EspeakBin    string
	FFProbeBin   string

	// NATSURL enables the outbound event forwarder when non-empty.
	NATSURL string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("SEDA_ENV", "development"),
		HTTPBind:    getEnv("SEDA_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("SEDA_HTTP_PORT", 8080),
		MetricsBind: getEnv("SEDA_METRICS_BIND", "127.0.0.1:9000"),

		DBBackend: DatabaseBackend(getEnv("SEDA_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:     getEnv("SEDA_DB_DSN", "./seda.db"),

		SchedulePath: getEnv("SEDA_SCHEDULE_PATH", "./schedule.yaml"),
		MediaRoot:    getEnv("SEDA_MEDIA_ROOT", "./media"),
		PollInterval: time.Duration(getEnvInt("SEDA_POLL_INTERVAL_SECONDS", 60)) * time.Second,
		Lookahead:    time.Duration(getEnvInt("SEDA_LOOKAHEAD_HOURS", 24)) * time.Hour,

		GStreamerBin: getEnv("SEDA_GSTREAMER_BIN", "gst-launch-1.0"),
		EspeakBin:    getEnv("SEDA_ESPEAK_BIN", "espeak"),
		FFProbeBin:   getEnv("SEDA_FFPROBE_BIN", "ffprobe"),

		NATSURL: getEnv("SEDA_NATS_URL", ""),

		TracingEnabled:    getEnvBool("SEDA_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("SEDA_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("SEDA_TRACING_SAMPLE_RATE", 1.0),
	}

	switch cfg.DBBackend {
	case DatabasePostgres, DatabaseMySQL, DatabaseSQLite:
	default:
		return nil, fmt.Errorf("unknown database backend: %s", cfg.DBBackend)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if cfg.Lookahead <= 0 {
		return nil, fmt.Errorf("lookahead must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
