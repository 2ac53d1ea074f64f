// Package jwt verifies the HS256 access tokens issued by the account service
// and exposes the caller's user id to HTTP handlers.
//
// Two claim shapes are accepted: {"user":{"id":"..."}} and a registered
// "sub" claim. Claims.UserID prefers the former.
//
//	svc, err := jwt.New(cfg.JWTSecret)
//	if err != nil {
//		return err
//	}
//
//	r.With(jwt.Middleware(jwt.MiddlewareConfig{Service: svc})).
//		Get("/current", func(w http.ResponseWriter, r *http.Request) {
//			userID := jwt.UserIDFromContext(r.Context())
//			...
//		})
//
// The token is read from the x-auth-token header, falling back to
// "Authorization: Bearer".
package jwt
