// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware reuses a client-supplied X-Request-ID header when it is at most
// 128 characters of [a-zA-Z0-9_-], otherwise it generates a UUID. The id is
// stored in the request context, echoed in the response header and, through
// LoggerExtractor, added to structured log records.
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
