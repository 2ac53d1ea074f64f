package subscription

import (
	"context"
	"time"
)

// Gateway is the payment provider capability the service depends on.
// Implementations verify webhook signatures themselves and report failures
// wrapped in ErrGatewayFailed or ErrGatewayUnavailable.
type Gateway interface {
	// CreateCustomer registers a billing profile and returns its reference.
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)

	// CreateCheckoutSession starts a hosted subscription checkout.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// GetSubscription fetches the authoritative state of a subscription.
	GetSubscription(ctx context.Context, subscriptionRef string) (*GatewaySubscription, error)

	// CancelAtPeriodEnd stops auto-renewal without revoking access.
	CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error

	// ListPayments returns the charges made by a billing profile, newest first.
	ListPayments(ctx context.Context, customerRef string) ([]Payment, error)

	// ParseEvent verifies and normalizes a webhook payload.
	// Returns ErrInvalidSignature when the payload cannot be trusted.
	ParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// CustomerRequest holds the profile data sent when creating a billing profile.
type CustomerRequest struct {
	UserID string
	Name   string
	Email  string
}

// CheckoutRequest contains everything needed to open a checkout session.
type CheckoutRequest struct {
	UserID      string
	Plan        Plan
	CustomerRef string
	PriceID     string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the redirect handle for a hosted checkout.
type CheckoutSession struct {
	ID  string
	URL string
}

// GatewaySubscription is the gateway-reported state of one subscription.
type GatewaySubscription struct {
	Ref                string
	CustomerRef        string
	Status             Status
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

// Event is a verified, normalized webhook notification.
type Event struct {
	ID            string
	Type          EventType
	ProviderEvent string // original gateway event name

	// Checkout metadata, set for EventCheckoutCompleted.
	UserID string
	Plan   string

	CustomerRef     string
	SubscriptionRef string

	// Subscription carries the state embedded in subscription events.
	Subscription *GatewaySubscription
}
