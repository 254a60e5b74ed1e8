// Package repository is the SQL store behind the ranking engine, the action
// catalog and the action log. It speaks postgres (pgx) and sqlite (modernc).
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/okian/imobrank/pkg/logger"
	"github.com/okian/imobrank/pkg/metrics"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store wraps a database handle.
type Store struct {
	db     *sqlx.DB
	driver string
	dsn    string
	log    logger.Logger

	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	metricsInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	var sqlDriver string
	switch driver {
	case DriverPostgres:
		sqlDriver = "pgx"
	case DriverSQLite:
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	raw, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := sqlx.NewDb(raw, sqlDriver)

	s := &Store{
		db:              db,
		driver:          driver,
		dsn:             dsn,
		log:             logger.Nop(),
		maxOpenConns:    10,
		maxIdleConns:    5,
		connMaxLifetime: 5 * time.Minute,
		metricsInterval: 5 * time.Second,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if driver == DriverSQLite {
		// Pragmas and in-memory databases are per connection.
		s.maxOpenConns = 1
		s.maxIdleConns = 1
		s.connMaxLifetime = 0
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	s.startMetricsUpdater()
	s.log.Info(ctx, "store opened", logger.String("driver", driver), logger.Int("max_open_conns", s.maxOpenConns))
	return s, nil
}

// Driver returns the configured driver name.
func (s *Store) Driver() string { return s.driver }

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.db.PingContext(ctx)
	metrics.RecordStoreQuery("ping", time.Since(start), err)
	if err != nil {
		return classify("ping", err)
	}
	return nil
}

// Stats returns connection pool statistics.
func (s *Store) Stats() sql.DBStats { return s.db.Stats() }

// Close stops background work and closes the database.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

// startMetricsUpdater publishes pool gauges until Close.
func (s *Store) startMetricsUpdater() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				st := s.db.Stats()
				metrics.UpdateDBConnections(st.OpenConnections, st.InUse)
			}
		}
	}()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver == DriverPostgres {
		return sqlx.Rebind(sqlx.DOLLAR, query)
	}
	return query
}

// statements returns a query builder using the driver's placeholders.
func (s *Store) statements() sq.StatementBuilderType {
	if s.driver == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func (s *Store) observe(op string, start time.Time, err error) {
	metrics.RecordStoreQuery(op, time.Since(start), err)
}
