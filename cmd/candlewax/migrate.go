package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/candlewaxgames/candlewax/internal/config"
	"github.com/candlewaxgames/candlewax/middlewares"
	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/logger"
	"github.com/candlewaxgames/candlewax/site/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		defer func() { _ = logger.FlushSentry()(context.Background()) }()

		store, err := openStore(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		log.Info("migrations applied", slog.String("driver", string(store.Dialect)))
		return nil
	},
}

// openStore connects to the configured database and brings its schema up
// to date.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*db.Store, error) {
	store, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	fsys, err := migrations.FS(store.Dialect)
	if err == nil {
		err = db.Migrate(ctx, store, fsys, cfg.DB.MigrationsTable, log)
	}
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate %s: %w", store.Dialect, err)
	}
	return store, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := logger.Options{Level: cfg.Level()}
	if cfg.Development {
		opts.Format = logger.FormatText
	}
	return logger.NewWithSentry(cfg.Sentry, opts, middlewares.RequestIDExtractor())
}
