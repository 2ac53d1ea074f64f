package billing

import (
	"time"

	"github.com/legacyvault/billing/pkg/subscription"
)

type checkoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type entitlementResponse struct {
	Active            bool       `json:"active"`
	Plan              string     `json:"plan,omitempty"`
	Status            string     `json:"status,omitempty"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd *bool      `json:"cancelAtPeriodEnd,omitempty"`
}

func newEntitlementResponse(e *subscription.Entitlement) entitlementResponse {
	if e == nil || !e.Active {
		return entitlementResponse{Active: false}
	}
	resp := entitlementResponse{
		Active:            true,
		Plan:              string(e.Plan),
		Status:            string(e.Status),
		CancelAtPeriodEnd: &e.CancelAtPeriodEnd,
	}
	if !e.CurrentPeriodEnd.IsZero() {
		end := e.CurrentPeriodEnd
		resp.CurrentPeriodEnd = &end
	}
	return resp
}

type recordResponse struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user"`
	CustomerRef        string     `json:"stripeCustomerId,omitempty"`
	SubscriptionRef    string     `json:"stripeSubscriptionId,omitempty"`
	Status             string     `json:"status"`
	Plan               string     `json:"plan"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancelAtPeriodEnd"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func newRecordResponse(r *subscription.Record) recordResponse {
	return recordResponse{
		ID:                 r.ID,
		UserID:             r.UserID,
		CustomerRef:        r.CustomerRef,
		SubscriptionRef:    r.SubscriptionRef,
		Status:             string(r.Status),
		Plan:               string(r.Plan),
		CurrentPeriodStart: optionalTime(r.CurrentPeriodStart),
		CurrentPeriodEnd:   optionalTime(r.CurrentPeriodEnd),
		CancelAtPeriodEnd:  r.CancelAtPeriodEnd,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type paymentResponse struct {
	ID       string    `json:"id"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
	Status   string    `json:"status"`
	Date     time.Time `json:"date"`
}

func newPaymentResponse(p subscription.Payment) paymentResponse {
	return paymentResponse{ID: p.ID, Amount: p.Amount, Currency: p.Currency, Status: p.Status, Date: p.Date}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
