package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/legacyvault/billing/pkg/logger"
)

// StripeConfig holds configuration for the Stripe gateway.
type StripeConfig struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET,required"`
	BasicPriceID   string `env:"STRIPE_BASIC_PRICE_ID"`
	PremiumPriceID string `env:"STRIPE_PREMIUM_PRICE_ID"`
	FamilyPriceID  string `env:"STRIPE_FAMILY_PRICE_ID"`

	Timeout         time.Duration `env:"STRIPE_TIMEOUT" envDefault:"10s"`
	BreakerFailures uint32        `env:"STRIPE_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"STRIPE_BREAKER_TIMEOUT" envDefault:"30s"`
}

// Prices returns the configured plan to price mapping.
func (c StripeConfig) Prices() map[Plan]string {
	return map[Plan]string{
		PlanBasic:   c.BasicPriceID,
		PlanPremium: c.PremiumPriceID,
		PlanFamily:  c.FamilyPriceID,
	}
}

// StripeGateway implements Gateway for Stripe.
// All API calls share one circuit breaker and run under the configured timeout.
type StripeGateway struct {
	api           *client.API
	breaker       *gobreaker.CircuitBreaker[any]
	webhookSecret string
	timeout       time.Duration
	logger        *slog.Logger
	backends      *stripe.Backends
}

// StripeOption configures a StripeGateway.
type StripeOption func(*StripeGateway)

// WithStripeBackends points the client at custom API backends.
func WithStripeBackends(backends *stripe.Backends) StripeOption {
	return func(g *StripeGateway) {
		g.backends = backends
	}
}

// WithStripeLogger sets the logger used for breaker state changes.
func WithStripeLogger(l *slog.Logger) StripeOption {
	return func(g *StripeGateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewStripeGateway creates a new Stripe gateway.
func NewStripeGateway(cfg StripeConfig, opts ...StripeOption) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	g := &StripeGateway{
		webhookSecret: cfg.WebhookSecret,
		timeout:       cfg.Timeout,
		logger:        logger.Discard(),
	}
	if g.timeout <= 0 {
		g.timeout = 10 * time.Second
	}

	for _, opt := range opts {
		opt(g)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	g.api = client.New(cfg.SecretKey, g.backends)
	g.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("circuit breaker state changed",
				logger.Component(name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: isBreakerSuccess,
	})

	return g, nil
}

// CreateCustomer creates a Stripe customer tagged with the user ID.
func (g *StripeGateway) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	return execute(ctx, g, "create customer", func(ctx context.Context) (string, error) {
		params := &stripe.CustomerParams{
			Name:  stripe.String(req.Name),
			Email: stripe.String(req.Email),
		}
		params.Context = ctx
		params.AddMetadata("userId", req.UserID)

		c, err := g.api.Customers.New(params)
		if err != nil {
			return "", err
		}
		return c.ID, nil
	})
}

// CreateCheckoutSession creates a subscription-mode Checkout Session.
// The user ID and plan travel as metadata and come back in the completion event.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	return execute(ctx, g, "create checkout session", func(ctx context.Context) (*CheckoutSession, error) {
		params := &stripe.CheckoutSessionParams{
			Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
			Customer:   stripe.String(req.CustomerRef),
			SuccessURL: stripe.String(req.SuccessURL),
			CancelURL:  stripe.String(req.CancelURL),
			LineItems: []*stripe.CheckoutSessionLineItemParams{
				{
					Price:    stripe.String(req.PriceID),
					Quantity: stripe.Int64(1),
				},
			},
			SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
				Metadata: map[string]string{
					"userId": req.UserID,
					"plan":   string(req.Plan),
				},
			},
		}
		params.Context = ctx
		params.AddMetadata("userId", req.UserID)
		params.AddMetadata("plan", string(req.Plan))

		s, err := g.api.CheckoutSessions.New(params)
		if err != nil {
			return nil, err
		}
		return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
	})
}

// GetSubscription retrieves a subscription with its current billing period.
func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionRef string) (*GatewaySubscription, error) {
	return execute(ctx, g, "get subscription", func(ctx context.Context) (*GatewaySubscription, error) {
		params := &stripe.SubscriptionParams{}
		params.Context = ctx

		sub, err := g.api.Subscriptions.Get(subscriptionRef, params)
		if err != nil {
			return nil, err
		}
		return fromStripeSubscription(sub), nil
	})
}

// CancelAtPeriodEnd turns off renewal for the subscription.
func (g *StripeGateway) CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error {
	_, err := execute(ctx, g, "cancel subscription", func(ctx context.Context) (struct{}, error) {
		params := &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		}
		params.Context = ctx

		_, err := g.api.Subscriptions.Update(subscriptionRef, params)
		return struct{}{}, err
	})
	return err
}

// ListPayments returns the customer's charges as listed by Stripe, newest first.
func (g *StripeGateway) ListPayments(ctx context.Context, customerRef string) ([]Payment, error) {
	return execute(ctx, g, "list charges", func(ctx context.Context) ([]Payment, error) {
		params := &stripe.ChargeListParams{
			Customer: stripe.String(customerRef),
		}
		params.Context = ctx

		payments := []Payment{}
		iter := g.api.Charges.List(params)
		for iter.Next() {
			c := iter.Charge()
			payments = append(payments, Payment{
				ID:       c.ID,
				Amount:   MajorUnits(c.Amount),
				Currency: string(c.Currency),
				Status:   string(c.Status),
				Date:     time.Unix(c.Created, 0).UTC(),
			})
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return payments, nil
	})
}

// ParseEvent verifies the Stripe-Signature header and normalizes the event.
// Event kinds the service does not act on are returned as EventIgnored.
func (g *StripeGateway) ParseEvent(_ context.Context, payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	event := &Event{
		ID:            ev.ID,
		Type:          EventIgnored,
		ProviderEvent: string(ev.Type),
	}
	if ev.Data == nil {
		return event, nil
	}

	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, errors.Join(ErrInvalidEvent, fmt.Errorf("decode checkout session: %w", err))
		}
		if cs.Mode != stripe.CheckoutSessionModeSubscription {
			return event, nil
		}
		event.Type = EventCheckoutCompleted
		event.UserID = cs.Metadata["userId"]
		event.Plan = cs.Metadata["plan"]
		if cs.Customer != nil {
			event.CustomerRef = cs.Customer.ID
		}
		if cs.Subscription != nil {
			event.SubscriptionRef = cs.Subscription.ID
		}

	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrInvalidEvent, fmt.Errorf("decode subscription: %w", err))
		}
		event.Type = EventSubscriptionUpdated
		if ev.Type == stripe.EventTypeCustomerSubscriptionDeleted {
			event.Type = EventSubscriptionDeleted
		}
		event.Subscription = fromStripeSubscription(&sub)
		event.SubscriptionRef = sub.ID
		event.CustomerRef = event.Subscription.CustomerRef
	}

	return event, nil
}

// execute runs fn under the gateway timeout and circuit breaker.
func execute[T any](ctx context.Context, g *StripeGateway, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return zero, errors.Join(ErrGatewayUnavailable, err)
		case errors.Is(err, context.DeadlineExceeded):
			return zero, errors.Join(ErrGatewayUnavailable, fmt.Errorf("stripe %s: %w", op, err))
		}
		return zero, errors.Join(ErrGatewayFailed, fmt.Errorf("stripe %s: %w", op, err))
	}

	return res.(T), nil
}

// isBreakerSuccess keeps request errors caused by the caller from tripping the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode >= 400 &&
			se.HTTPStatusCode < 500 &&
			se.HTTPStatusCode != http.StatusTooManyRequests
	}
	return false
}

func fromStripeSubscription(sub *stripe.Subscription) *GatewaySubscription {
	gs := &GatewaySubscription{
		Ref:               sub.ID,
		Status:            statusFromStripe(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		gs.CustomerRef = sub.Customer.ID
	}
	// Billing periods are reported per item; a subscription here has a single price.
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0] != nil {
		item := sub.Items.Data[0]
		gs.CurrentPeriodStart = fromEpoch(item.CurrentPeriodStart)
		gs.CurrentPeriodEnd = fromEpoch(item.CurrentPeriodEnd)
	}
	return gs
}

func fromEpoch(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func statusFromStripe(s stripe.SubscriptionStatus) Status {
	switch s {
	case stripe.SubscriptionStatusActive:
		return StatusActive
	case stripe.SubscriptionStatusTrialing:
		return StatusTrial
	case stripe.SubscriptionStatusPastDue:
		return StatusPastDue
	case stripe.SubscriptionStatusUnpaid:
		return StatusUnpaid
	case stripe.SubscriptionStatusCanceled:
		return StatusCanceled
	default:
		return StatusInactive
	}
}
