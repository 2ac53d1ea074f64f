package billing

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/legacyvault/billing/binder"
	"github.com/legacyvault/billing/handler"
	"github.com/legacyvault/billing/pkg/logger"
	"github.com/legacyvault/billing/pkg/subscription"
)

// Service is the subscription behaviour the HTTP layer depends on.
type Service interface {
	Checkout(ctx context.Context, userID string, params subscription.CheckoutParams) (*subscription.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Cancel(ctx context.Context, userID string) (*subscription.Record, error)
	Current(ctx context.Context, userID string) (*subscription.Entitlement, error)
	Subscription(ctx context.Context, userID string) (*subscription.Record, error)
	PaymentHistory(ctx context.Context, userID string) ([]subscription.Payment, error)
}

// RouterOptions configures Router.
type RouterOptions struct {
	Service Service
	// Authenticate guards every route except the webhook. It must store the
	// caller's identity so that UserID can read it.
	Authenticate func(http.Handler) http.Handler
	// UserID extracts the authenticated user id from the request context.
	UserID func(ctx context.Context) string
	Logger *slog.Logger
}

// Router builds the subscription API, meant to be mounted at /api/subscriptions.
func Router(opts RouterOptions) chi.Router {
	if opts.Service == nil || opts.Authenticate == nil || opts.UserID == nil {
		panic("billing: router requires a service, an authenticator and a user id extractor")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	h := &handlers{svc: opts.Service, userID: opts.UserID, logger: log.With(logger.Component("billing"))}
	wrap := handler.WithErrorHandler(h.renderError)

	r := chi.NewRouter()

	r.Post("/webhook", h.webhook)

	r.Group(func(r chi.Router) {
		r.Use(opts.Authenticate)

		checkout := handler.Wrap(h.checkout, handler.WithBinders(binder.JSON()), wrap)
		r.Post("/checkout", checkout)
		r.Post("/create-checkout-session", checkout)

		r.Get("/current", handler.Wrap(h.current, wrap))
		r.Get("/", handler.Wrap(h.subscription, wrap))
		r.Post("/cancel", handler.Wrap(h.cancel, wrap))
		r.Get("/payment-history", handler.Wrap(h.paymentHistory, wrap))
	})

	return r
}
