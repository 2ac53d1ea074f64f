// Package environment carries the deployment stage (development, staging,
// production) through context.Context, HTTP requests and structured logs.
//
//	env := environment.Parse(os.Getenv("APP_ENV"))
//	r.Use(environment.Middleware(env))
//
//	if environment.IsProduction(r.Context()) {
//		// hide internal error details
//	}
package environment
