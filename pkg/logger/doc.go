// Package logger builds slog loggers that enrich every record with
// request-scoped values and optionally forward warnings and errors to Sentry.
//
//	log := logger.New(logger.Config{Level: "info"},
//	    middlewares.RequestIDExtractor(),
//	    identity.UserIDExtractor(),
//	)
//	log.InfoContext(ctx, "checkout session created")
//	// {"level":"INFO","msg":"checkout session created","request_id":"...","user_id":"..."}
//
// When Config.SentryDSN is empty the logger writes to stdout only.
package logger
