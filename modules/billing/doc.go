// Package billing exposes the subscription service over HTTP.
//
//	r.Mount("/api/subscriptions", billing.Router(billing.RouterOptions{
//		Service:      svc,
//		Authenticate: jwt.Middleware(jwt.MiddlewareConfig{Service: tokens}),
//		UserID:       jwt.UserIDFromContext,
//		Logger:       log,
//	}))
//
// Every route except POST /webhook requires authentication. The webhook reads
// the raw body and the Stripe-Signature header and answers {"received":true}
// once the event is applied or deliberately ignored. A 500 asks the gateway to
// redeliver.
package billing
