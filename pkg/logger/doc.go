// Package logger builds log/slog loggers for the billing service.
//
// New returns a *slog.Logger configured by Option values: output format,
// level, static attributes and ContextExtractor callbacks that copy
// request-scoped values (request id, environment) from the context into every
// record logged with a *Context method.
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Production, "billing"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "subscription updated", logger.UserID(id))
//
// Attribute helpers in attr.go keep key names consistent across packages.
package logger
