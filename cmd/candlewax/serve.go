package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/internal/config"
	"github.com/candlewaxgames/candlewax/middlewares"
	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/logger"
	"github.com/candlewaxgames/candlewax/pkg/mailer"
	"github.com/candlewaxgames/candlewax/pkg/mailer/resend"
	"github.com/candlewaxgames/candlewax/pkg/redis"
	"github.com/candlewaxgames/candlewax/pkg/session"
	"github.com/candlewaxgames/candlewax/pkg/storage"
	"github.com/candlewaxgames/candlewax/site"
	"github.com/candlewaxgames/candlewax/site/mail"
	"github.com/candlewaxgames/candlewax/site/static"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and serve the site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := newLogger(cfg)

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	engine := db.NewEngine(
		db.WithDialect(store.Dialect),
		db.WithQueryTimeout(cfg.DB.QueryTimeout),
		db.WithLogger(log),
	)
	if err := engine.Connect(store.DB); err != nil {
		_ = store.Close()
		return err
	}

	appOpts := []candlewax.Option{
		candlewax.WithLogger(log),
		candlewax.WithErrorHandler(site.ErrorHandler()),
		candlewax.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.Timeout(cfg.RequestTimeout),
		),
		candlewax.WithStaticFiles("/static/", static.FS, "."),
	}
	runOpts := []candlewax.RunOption{
		candlewax.Address(cfg.HTTPAddr),
		candlewax.Logger(log),
		candlewax.ShutdownTimeout(cfg.ShutdownTimeout),
		candlewax.ShutdownHook(func(context.Context) error {
			engine.Disconnect()
			return nil
		}),
		candlewax.ShutdownHook(db.Shutdown(store)),
	}
	checks := []candlewax.HealthOption{
		candlewax.WithReadinessCheck("db", db.Healthcheck(store)),
	}

	var sessions session.Store = session.NewMemoryStore()
	if cfg.UseRedis() {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			_ = store.Close()
			return err
		}
		sessions = session.NewRedisStore(client, cfg.SessionPrefix)
		checks = append(checks, candlewax.WithReadinessCheck("redis", redis.Healthcheck(client)))
		runOpts = append(runOpts, candlewax.ShutdownHook(redis.Shutdown(client)))
	} else {
		log.Warn("REDIS_URL not set, sessions are kept in memory")
	}
	appOpts = append(appOpts, candlewax.WithSession(sessions,
		candlewax.WithSessionMaxAge(cfg.SessionMaxAge),
		candlewax.WithSessionSecure(!cfg.Development),
	))

	images, err := imageStorage(cfg)
	if err != nil {
		_ = store.Close()
		return err
	}
	if local, ok := images.(*storage.LocalStorage); ok {
		appOpts = append(appOpts, candlewax.WithStaticFiles(strings.TrimSuffix(cfg.UploadsURL, "/")+"/", os.DirFS(local.Root()), "."))
	}

	router := site.New(site.Deps{
		Engine:  engine,
		Mailer:  newMailer(cfg, log),
		Storage: images,
		Logger:  log,
	}, cfg.Site)

	appOpts = append(appOpts,
		candlewax.WithHealthChecks(checks...),
		candlewax.WithDispatcher(router),
	)
	runOpts = append(runOpts,
		candlewax.ShutdownHook(logger.FlushSentry()),
		candlewax.WithContext(ctx),
	)

	log.Info("starting", slog.String("version", version), slog.String("driver", string(store.Dialect)))
	return candlewax.New(appOpts...).Run(runOpts...)
}

// imageStorage uploads to S3 when a bucket is configured and to UploadsDir
// otherwise.
func imageStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.UseS3() {
		return storage.NewS3(cfg.S3)
	}
	return storage.NewLocal(cfg.UploadsDir, cfg.UploadsURL)
}

func newMailer(cfg *config.Config, log *slog.Logger) *mailer.Mailer {
	var sender mailer.Sender = mailer.LogSender{Logger: log}
	if cfg.UseResend() {
		sender = resend.New(cfg.Resend)
	} else {
		log.Warn("RESEND_API_KEY not set, emails are logged instead of sent")
	}
	return mailer.New(sender, mailer.NewRenderer(mail.FS), cfg.Mailer)
}
