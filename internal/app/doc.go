// Package app wires the pricing server together.
//
// NewApplication resolves paths, loads the product catalog, sets up
// telemetry and storage, then builds the websocket hub, the run pipeline
// and the chi router on top:
//
//	cfg, err := config.Load("")
//	logger, err := infrastructure.InitializeLogger(cfg.Logging)
//	application, err := app.NewApplication(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run serves until SIGINT or SIGTERM and then shuts down gracefully.
package app
