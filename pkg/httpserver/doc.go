// Package httpserver runs the HTTP API with graceful shutdown and provides
// liveness and readiness handlers.
//
//	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Run returns nil after a clean shutdown, ErrStart when the listener fails and
// ErrShutdown when in-flight requests outlive the shutdown timeout.
package httpserver
