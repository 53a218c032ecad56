package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// Store owns the connection handles opened at process start.
type Store struct {
	DB      *sql.DB
	pool    *pgxpool.Pool
	Dialect Dialect
}

// Open connects to the configured store. Postgres connections go through a
// pgx pool bridged to database/sql; sqlite uses the pure Go modernc driver.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case DialectPostgres:
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Store{DB: stdlib.OpenDBFromPool(pool), pool: pool, Dialect: dialect}, nil
	default:
		sqlDB, err := sql.Open("sqlite", cfg.URL)
		if err != nil {
			return nil, errors.Join(ErrFailedToOpenDBConnection, err)
		}
		// A single writer avoids SQLITE_BUSY and keeps :memory: databases shared.
		sqlDB.SetMaxOpenConns(1)
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, errors.Join(ErrFailedToOpenDBConnection, err)
		}
		return &Store{DB: sqlDB, Dialect: dialect}, nil
	}
}

// Close releases the database handle and, for postgres, the underlying pool.
func (s *Store) Close() error {
	err := s.DB.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// connectPostgres opens a pgx pool with retry logic for reliable startup.
// Attempt n waits n times RetryInterval before the next try.
func connectPostgres(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	connConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	if cfg.MaxOpenConns > 0 {
		connConfig.MaxConns = cfg.MaxOpenConns
	}
	connConfig.MinConns = cfg.MinConns
	if cfg.HealthCheckPeriod > 0 {
		connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.MaxConnIdleTime > 0 {
		connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		connConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToOpenDBConnection
}

// Shutdown returns a shutdown hook that closes the store.
//
// Example:
//
//	app.Run(addr, candlewax.ShutdownHook(db.Shutdown(store)))
func Shutdown(s *Store) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return s.Close()
	}
}

// Healthcheck returns a readiness check that pings the store.
func Healthcheck(s *Store) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if s == nil || s.DB == nil {
			return ErrHealthcheckFailed
		}
		if err := s.DB.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
