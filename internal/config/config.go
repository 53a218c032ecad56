// Package config loads process settings from defaults, an optional .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/logger"
	"github.com/candlewaxgames/candlewax/pkg/mailer"
	"github.com/candlewaxgames/candlewax/pkg/mailer/resend"
	"github.com/candlewaxgames/candlewax/pkg/redis"
	"github.com/candlewaxgames/candlewax/pkg/storage"
	"github.com/candlewaxgames/candlewax/site"
)

// DefaultFile is read when Load is given an empty path.
const DefaultFile = ".env"

// ErrInvalid is returned when a loaded setting cannot be used.
var ErrInvalid = errors.New("config: invalid setting")

// Config is the full set of process settings. Every key maps to an
// upper-cased environment variable of the same name.
type Config struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	LogLevel        string        `mapstructure:"log_level"`
	UploadsDir      string        `mapstructure:"uploads_dir"`
	UploadsURL      string        `mapstructure:"uploads_url"`
	SessionPrefix   string        `mapstructure:"session_prefix"`
	SessionMaxAge   int           `mapstructure:"session_max_age"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	Development     bool          `mapstructure:"development_environment"`

	DB     db.Config           `mapstructure:",squash"`
	Redis  redis.Config        `mapstructure:",squash"`
	Sentry logger.SentryConfig `mapstructure:",squash"`
	Resend resend.Config       `mapstructure:",squash"`
	Mailer mailer.Config       `mapstructure:",squash"`
	S3     storage.S3Config    `mapstructure:",squash"`
	Site   site.Config         `mapstructure:",squash"`
}

// Level returns the configured log level. Development defaults to debug.
func (c *Config) Level() slog.Level {
	if c.LogLevel == "" && c.Development {
		return slog.LevelDebug
	}
	return logger.ParseLevel(c.LogLevel)
}

// UseS3 reports whether uploads go to a bucket instead of UploadsDir.
func (c *Config) UseS3() bool { return c.S3.Bucket != "" }

// UseRedis reports whether sessions are kept in redis.
func (c *Config) UseRedis() bool { return c.Redis.URL != "" }

// UseResend reports whether mail is delivered through Resend.
func (c *Config) UseResend() bool { return c.Resend.APIKey != "" }

func defaults() map[string]any {
	dbc := db.DefaultConfig()
	return map[string]any{
		"http_addr":               ":8080",
		"log_level":               "",
		"uploads_dir":             "uploads",
		"uploads_url":             "/uploads",
		"session_prefix":          "sess:",
		"session_max_age":         86400 * 30,
		"shutdown_timeout":        30 * time.Second,
		"request_timeout":         30 * time.Second,
		"development_environment": false,

		"database_driver":             dbc.Driver,
		"database_url":                dbc.URL,
		"database_migrations_table":   dbc.MigrationsTable,
		"database_query_timeout":      dbc.QueryTimeout,
		"database_healthcheck_period": dbc.HealthCheckPeriod,
		"database_max_conn_idle_time": dbc.MaxConnIdleTime,
		"database_max_conn_lifetime":  dbc.MaxConnLifetime,
		"database_retry_attempts":     dbc.RetryAttempts,
		"database_retry_interval":     dbc.RetryInterval,
		"database_max_open_conns":     dbc.MaxOpenConns,
		"database_min_conns":          dbc.MinConns,

		"redis_url":            "",
		"redis_pool_size":      10,
		"redis_min_idle_conns": 2,
		"redis_retry_attempts": 3,
		"redis_retry_interval": 5 * time.Second,
		"redis_dial_timeout":   5 * time.Second,
		"redis_read_timeout":   3 * time.Second,
		"redis_write_timeout":  3 * time.Second,

		"sentry_dsn":         "",
		"sentry_environment": "",
		"sentry_release":     "",

		"resend_api_key":    "",
		"resend_from_email": "noreply@candlewax.games",
		"resend_from_name":  "Candlewax Games",

		"mailer_fallback_subject": "Candlewax Games",
		"mailer_layout":           "base.html",

		"s3_bucket":     "",
		"s3_access_key": "",
		"s3_secret_key": "",
		"s3_endpoint":   "",
		"s3_region":     "",
		"s3_public_url": "",
		"s3_path_style": false,

		"site_url":       "http://localhost:8080",
		"default_module": "index",
		"blog_author_id": 1,
		"bcrypt_cost":    0,
	}
}

// Load reads path (DefaultFile when empty) if it exists, then overlays the
// environment. QUERY_TIMEOUT is accepted as an alias of
// DATABASE_QUERY_TIMEOUT.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults() {
		v.SetDefault(key, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_query_timeout", "DATABASE_QUERY_TIMEOUT", "QUERY_TIMEOUT"); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || explicit {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := db.ParseDialect(c.DB.Driver); err != nil {
		return fmt.Errorf("%w: database_driver: %w", ErrInvalid, err)
	}
	if c.DB.URL == "" {
		return fmt.Errorf("%w: database_url is empty", ErrInvalid)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: http_addr is empty", ErrInvalid)
	}
	if !c.UseS3() && c.UploadsDir == "" {
		return fmt.Errorf("%w: uploads_dir is empty and no s3_bucket is set", ErrInvalid)
	}
	c.Sentry.MinLevel = c.Level()
	if c.Sentry.Environment == "" && c.Development {
		c.Sentry.Environment = "development"
	}
	return nil
}
