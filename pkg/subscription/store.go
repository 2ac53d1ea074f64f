package subscription

import (
	"context"
	"strings"
)

// Store persists subscription records.
// Every write is a whole-record overwrite, so replaying an update is harmless.
type Store interface {
	// FindLatestByUser returns the most recently created record of the user,
	// optionally limited to the given statuses.
	// Returns ErrRecordNotFound if nothing matches.
	FindLatestByUser(ctx context.Context, userID string, statuses ...Status) (*Record, error)

	// FindBySubscriptionRef returns the record mirroring a gateway subscription.
	// Returns ErrRecordNotFound if nothing matches.
	FindBySubscriptionRef(ctx context.Context, subscriptionRef string) (*Record, error)

	// Save creates or replaces the record. A record without ID gets one assigned.
	Save(ctx context.Context, record *Record) error
}

// Profile is the subset of the user account the billing flow reads.
type Profile struct {
	UserID      string
	FirstName   string
	LastName    string
	Email       string
	CustomerRef string
}

// FullName joins first and last name the way the billing profile displays it.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// UserDirectory gives read access to user accounts plus the one field billing owns.
type UserDirectory interface {
	// GetProfile returns ErrUserNotFound for unknown users.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// SetCustomerRef stores ref only if the user has no customer reference yet
	// and returns the reference that is stored after the call.
	SetCustomerRef(ctx context.Context, userID, ref string) (string, error)
}

// EventLog remembers webhook events that were applied successfully.
type EventLog interface {
	Processed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// DeliveryTrigger is notified when a subscription has ended for good.
type DeliveryTrigger interface {
	SubscriptionEnded(ctx context.Context, record *Record) error
}
