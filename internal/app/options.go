package service

import (
	"time"

	"github.com/okian/imobrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDatabase selects the driver and data source.
func WithDatabase(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.driver = driver
		}
		if dsn != "" {
			s.dsn = dsn
		}
	}
}

// WithPool sets connection pool limits.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) Option {
	return func(s *Service) {
		if maxOpen > 0 {
			s.maxOpenConns = maxOpen
		}
		if maxIdle >= 0 {
			s.maxIdleConns = maxIdle
		}
		if lifetime > 0 {
			s.connMaxLifetime = lifetime
		}
	}
}

// WithAutoMigrate toggles schema migration on Start.
func WithAutoMigrate(enabled bool) Option {
	return func(s *Service) {
		s.autoMigrate = enabled
	}
}

// WithQueryTimeout bounds each ranking computation.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithConsistencyRetries sets how often a ranking is recomputed when its
// reads disagree.
func WithConsistencyRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.consistencyRetries = n
		}
	}
}

// WithIdempotencyCacheSize bounds the remembered Idempotency-Key values.
func WithIdempotencyCacheSize(n int) Option {
	return func(s *Service) {
		s.idempotencySize = n
	}
}
