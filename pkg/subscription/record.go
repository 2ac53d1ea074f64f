package subscription

import "time"

// Record is the application's copy of a user's gateway subscription.
// Status, period bounds and the cancel flag are only ever copied from the gateway.
type Record struct {
	ID                 string
	UserID             string
	CustomerRef        string // gateway customer, stable per user
	SubscriptionRef    string // gateway subscription, changes on re-subscription
	Status             Status
	Plan               Plan
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Entitlement projects the record for the entitlement query.
func (r *Record) Entitlement() *Entitlement {
	if r == nil || !r.Status.Entitled() {
		return &Entitlement{Active: false}
	}
	return &Entitlement{
		Active:            true,
		Plan:              r.Plan,
		Status:            r.Status,
		CurrentPeriodEnd:  r.CurrentPeriodEnd,
		CancelAtPeriodEnd: r.CancelAtPeriodEnd,
	}
}

// mirror overwrites the gateway-owned fields with the reported state.
func (r *Record) mirror(gs *GatewaySubscription) {
	r.Status = gs.Status
	r.CurrentPeriodStart = gs.CurrentPeriodStart
	r.CurrentPeriodEnd = gs.CurrentPeriodEnd
	r.CancelAtPeriodEnd = gs.CancelAtPeriodEnd
}
