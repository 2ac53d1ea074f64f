// Package handler turns typed request handlers into http.HandlerFunc values.
//
// A handler receives a Context and a request value already filled in by the
// configured binders, and returns a Response:
//
//	type checkoutRequest struct {
//		Plan    string `json:"plan"`
//		PriceID string `json:"priceId"`
//	}
//
//	r.Post("/checkout", handler.Wrap(
//		func(ctx handler.Context, req checkoutRequest) handler.Response {
//			session, err := svc.Checkout(ctx, userID, ...)
//			if err != nil {
//				return handler.JSONError(err)
//			}
//			return handler.JSON(session)
//		},
//		handler.WithBinders(binder.JSON()),
//	))
//
// Errors render as {"error":{"code":"...","message":"..."}}. Only *HTTPError
// values reach the client verbatim; everything else becomes a generic 500.
package handler
