package subscription

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Status is the local mirror of the gateway's subscription state.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusPastDue  Status = "past_due"
	StatusUnpaid   Status = "unpaid"
	StatusTrial    Status = "trial"
	StatusInactive Status = "inactive" // default for records without a confirmed gateway state
)

// EntitledStatuses are the states in which a user keeps access to paid features.
var EntitledStatuses = []Status{StatusActive, StatusTrial, StatusPastDue}

// Entitled reports whether the status grants access.
func (s Status) Entitled() bool {
	return slices.Contains(EntitledStatuses, s)
}

// Plan is one of the purchasable subscription tiers.
type Plan string

const (
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
	PlanFamily  Plan = "family"
)

// Plans lists every supported plan in display order.
var Plans = []Plan{PlanBasic, PlanPremium, PlanFamily}

// Valid reports whether p is a supported plan.
func (p Plan) Valid() bool {
	return slices.Contains(Plans, p)
}

// ParsePlan validates a plan name received from a client or from event metadata.
func ParsePlan(s string) (Plan, error) {
	if s == "" {
		return "", errors.Join(ErrInvalidPlan, errors.New("plan is required"))
	}
	p := Plan(s)
	if !p.Valid() {
		return "", errors.Join(ErrInvalidPlan, fmt.Errorf("unsupported plan %q", s))
	}
	return p, nil
}

// EventType is the normalized kind of a gateway notification.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout_session_completed"
	EventSubscriptionUpdated EventType = "subscription_updated"
	EventSubscriptionDeleted EventType = "subscription_deleted"
	EventIgnored             EventType = "ignored"
)

// CheckoutParams is the client input for starting a checkout.
type CheckoutParams struct {
	Plan    string
	PriceID string // optional when a price is configured for the plan
}

// Entitlement is the read-only view of a user's current access.
type Entitlement struct {
	Active            bool
	Plan              Plan
	Status            Status
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
}

// Payment is a single charge made by the user's billing profile.
type Payment struct {
	ID       string
	Amount   float64 // major currency units
	Currency string
	Status   string
	Date     time.Time
}

// MajorUnits converts an amount in minor currency units (cents) to major units.
func MajorUnits(minor int64) float64 {
	return float64(minor) / 100
}
