// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig; loader failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"time"
)

// Supported store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver is either "postgres" or "sqlite".
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the driver specific connection string.
	DBDSN string `koanf:"db_dsn"`

	// Connection pool settings.
	DBMaxOpenConns       int `koanf:"db_max_open_conns"`
	DBMaxIdleConns       int `koanf:"db_max_idle_conns"`
	DBConnMaxLifetimeSec int `koanf:"db_conn_max_lifetime_sec"`

	// DBAutoMigrate applies schema migrations on startup.
	DBAutoMigrate bool `koanf:"db_auto_migrate"`

	// QueryTimeoutMS bounds every ranking computation.
	QueryTimeoutMS int `koanf:"query_timeout_ms"`

	// ConsistencyRetries is how many times a ranking is recomputed when its
	// concurrent reads disagree.
	ConsistencyRetries int `koanf:"consistency_retries"`

	// IdempotencyCacheSize bounds the Idempotency-Key cache of the recorder.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`

	// MetricsEnabled turns metric recording on. /metrics is always served.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshSec is the sampling interval of the system and pool gauges.
	MetricsRefreshSec int `koanf:"metrics_refresh_sec"`

	// Metric naming: imobrank_ranking_<prefix>_events_recorded_total.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	MetricsPrefix    string `koanf:"metrics_prefix"`

	// MetricsLatencyBuckets overrides the latency histogram buckets, in
	// seconds. Empty keeps the Prometheus defaults.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DBDriver:             DriverSQLite,
		DBDSN:                "file:imobrank.db?_pragma=foreign_keys(1)",
		DBMaxOpenConns:       10,
		DBMaxIdleConns:       5,
		DBConnMaxLifetimeSec: 300,
		DBAutoMigrate:        true,
		QueryTimeoutMS:       5000,
		ConsistencyRetries:   2,
		IdempotencyCacheSize: 10_000,
		MetricsEnabled:       true,
		MetricsRefreshSec:    10,
		MetricsNamespace:     "imobrank",
		MetricsSubsystem:     "ranking",
	}
}

// MetricsRefresh returns MetricsRefreshSec as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshSec) * time.Second
}

// QueryTimeout returns QueryTimeoutMS as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMS) * time.Millisecond
}

// ConnMaxLifetime returns DBConnMaxLifetimeSec as a duration.
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeSec) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBDSN == "":
		return fmt.Errorf("%w: db_dsn must not be empty", ErrInvalidConfig)
	case c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite:
		return fmt.Errorf("%w: unsupported db_driver %q", ErrInvalidConfig, c.DBDriver)
	case c.QueryTimeoutMS <= 0:
		return fmt.Errorf("%w: query_timeout_ms must be positive", ErrInvalidConfig)
	case c.ConsistencyRetries < 0:
		return fmt.Errorf("%w: consistency_retries must not be negative", ErrInvalidConfig)
	case c.IdempotencyCacheSize < 0:
		return fmt.Errorf("%w: idempotency_cache_size must not be negative", ErrInvalidConfig)
	}
	for _, b := range c.MetricsLatencyBuckets {
		if b <= 0 {
			return fmt.Errorf("%w: metrics_latency_buckets must be positive, got %v", ErrInvalidConfig, b)
		}
	}
	return nil
}
