package internal

// Run serves the application until the run context is cancelled or the
// process receives SIGINT or SIGTERM. Startup hooks run before the listener
// opens and a failing one aborts Run. Shutdown hooks run after the server
// has drained, in registration order.
//
// Example:
//
//	err := app.Run(
//	    internal.Address(":8080"),
//	    internal.ShutdownHook(db.Shutdown(store)),
//	)
func (a *App) Run(opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}
	return newServer(a.router, cfg).run(cfg.ctx)
}
