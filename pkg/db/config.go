package db

import "time"

// Config holds store connection parameters.
// Field tags map onto the keys loaded by the command line configuration.
type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"database_driver"`

	// URL is a postgres connection URL or a sqlite file DSN.
	URL string `mapstructure:"database_url"`

	// MigrationsTable names the goose version table.
	MigrationsTable string `mapstructure:"database_migrations_table"`

	// QueryTimeout bounds every statement issued by the engine. Zero disables it.
	QueryTimeout time.Duration `mapstructure:"database_query_timeout"`

	// Pool health check frequency to detect connection issues early.
	HealthCheckPeriod time.Duration `mapstructure:"database_healthcheck_period"`

	// Force connection refresh to prevent stale connections behind poolers.
	MaxConnIdleTime time.Duration `mapstructure:"database_max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"database_max_conn_lifetime"`

	// Startup retries for transient network issues.
	RetryAttempts int           `mapstructure:"database_retry_attempts"`
	RetryInterval time.Duration `mapstructure:"database_retry_interval"`

	MaxOpenConns int32 `mapstructure:"database_max_open_conns"`
	MinConns     int32 `mapstructure:"database_min_conns"`
}

// DefaultConfig returns the defaults used when a key is not configured.
func DefaultConfig() Config {
	return Config{
		Driver:            string(DialectSQLite),
		URL:               "file:candlewax.db?_pragma=foreign_keys(1)",
		MigrationsTable:   "schema_migrations",
		QueryTimeout:      5 * time.Second,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		MaxConnLifetime:   30 * time.Minute,
		RetryAttempts:     3,
		RetryInterval:     5 * time.Second,
		MaxOpenConns:      10,
		MinConns:          2,
	}
}
