// Package service wires the store, the ranking engine, the catalog and the
// event recorder into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/imobrank/internal/adapters/http/api"
	"github.com/okian/imobrank/internal/adapters/repository"
	"github.com/okian/imobrank/internal/domain/actionlog"
	"github.com/okian/imobrank/internal/domain/catalog"
	"github.com/okian/imobrank/internal/domain/idempotency"
	"github.com/okian/imobrank/internal/domain/ranking"
	"github.com/okian/imobrank/pkg/logger"
)

// ErrNotStarted is returned by accessors used before Start.
var ErrNotStarted = errors.New("service not started")

// Service owns the application components.
type Service struct {
	mu sync.RWMutex

	store    *repository.Store
	engine   *ranking.Engine
	catalog  *catalog.Service
	recorder *actionlog.Recorder
	keys     *idempotency.Cache

	// Configuration
	driver             string
	dsn                string
	maxOpenConns       int
	maxIdleConns       int
	connMaxLifetime    time.Duration
	autoMigrate        bool
	queryTimeout       time.Duration
	consistencyRetries int
	idempotencySize    int

	started   bool
	startedAt time.Time
	logger    logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		driver:             repository.DriverSQLite,
		dsn:                "file:imobrank.db",
		maxOpenConns:       10,
		maxIdleConns:       5,
		connMaxLifetime:    5 * time.Minute,
		autoMigrate:        true,
		queryTimeout:       5 * time.Second,
		consistencyRetries: 2,
		idempotencySize:    10000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, applies migrations and builds the domain services.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ranking service", logger.String("driver", s.driver))

	store, err := repository.Open(ctx, s.driver, s.dsn,
		repository.WithMaxOpenConns(s.maxOpenConns),
		repository.WithMaxIdleConns(s.maxIdleConns),
		repository.WithConnMaxLifetime(s.connMaxLifetime),
		repository.WithLogger(s.logger.Named("repository")),
	)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if s.autoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return fmt.Errorf("migrate store: %w", err)
		}
	}

	s.store = store
	s.engine = ranking.NewEngine(store, store,
		ranking.WithLogger(s.logger.Named("ranking")),
		ranking.WithQueryTimeout(s.queryTimeout),
		ranking.WithConsistencyRetries(s.consistencyRetries),
	)
	s.catalog = catalog.New(store, catalog.WithLogger(s.logger.Named("catalog")))
	s.keys = idempotency.New(idempotency.WithMaxSize(s.idempotencySize))
	s.recorder = actionlog.NewRecorder(s.catalog, store,
		actionlog.WithLogger(s.logger.Named("actionlog")),
		actionlog.WithIdempotencyCache(s.keys),
		actionlog.WithTimeout(s.queryTimeout),
	)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "ranking service started",
		logger.Duration("query_timeout", s.queryTimeout),
		logger.Int("consistency_retries", s.consistencyRetries),
		logger.Int("idempotency_cache_size", s.idempotencySize),
	)
	return nil
}

// Stop closes the store. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "closing store failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// Dependencies returns the handler dependencies, or ErrNotStarted.
func (s *Service) Dependencies() (api.Dependencies, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return api.Dependencies{}, ErrNotStarted
	}
	return api.Dependencies{
		Rankings: s.engine,
		Catalog:  s.catalog,
		Recorder: s.recorder,
		Store:    s.store,
		Stats:    s,
	}, nil
}

// Store returns the underlying store; nil before Start.
func (s *Service) Store() *repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// GetStats returns row counts and pool figures for monitoring.
func (s *Service) GetStats(ctx context.Context) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started": s.started,
		"driver":  s.driver,
	}
	if !s.started {
		return stats, nil
	}

	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	pool := s.store.Stats()

	stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
	stats["rows"] = counts
	stats["db_open_connections"] = pool.OpenConnections
	stats["db_in_use"] = pool.InUse
	stats["idempotency_keys"] = s.keys.Len()
	return stats, nil
}
