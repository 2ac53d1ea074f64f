package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legacyvault/billing/pkg/subscription"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("assigns ID and default status", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		r := &subscription.Record{UserID: "u1"}
		require.NoError(t, store.Save(ctx, r))
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, subscription.StatusInactive, r.Status)
	})

	t.Run("latest by creation time", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		now := time.Now()
		require.NoError(t, store.Save(ctx, &subscription.Record{UserID: "u1", SubscriptionRef: "a", Status: subscription.StatusActive, CreatedAt: now.Add(-time.Hour)}))
		require.NoError(t, store.Save(ctx, &subscription.Record{UserID: "u1", SubscriptionRef: "b", Status: subscription.StatusCanceled, CreatedAt: now}))
		require.NoError(t, store.Save(ctx, &subscription.Record{UserID: "u2", SubscriptionRef: "c", Status: subscription.StatusActive, CreatedAt: now.Add(time.Hour)}))

		r, err := store.FindLatestByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "b", r.SubscriptionRef)

		r, err = store.FindLatestByUser(ctx, "u1", subscription.EntitledStatuses...)
		require.NoError(t, err)
		assert.Equal(t, "a", r.SubscriptionRef)

		_, err = store.FindLatestByUser(ctx, "u3")
		assert.ErrorIs(t, err, subscription.ErrRecordNotFound)
	})

	t.Run("ties go to the later insert", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		now := time.Now()
		require.NoError(t, store.Save(ctx, &subscription.Record{UserID: "u1", SubscriptionRef: "first", CreatedAt: now}))
		require.NoError(t, store.Save(ctx, &subscription.Record{UserID: "u1", SubscriptionRef: "second", CreatedAt: now}))

		r, err := store.FindLatestByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "second", r.SubscriptionRef)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		require.NoError(t, store.Save(ctx, &subscription.Record{UserID: "u1", SubscriptionRef: "sub_1", Status: subscription.StatusActive}))

		r, err := store.FindBySubscriptionRef(ctx, "sub_1")
		require.NoError(t, err)
		r.Status = subscription.StatusCanceled

		again, err := store.FindBySubscriptionRef(ctx, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, again.Status)

		_, err = store.FindBySubscriptionRef(ctx, "")
		assert.ErrorIs(t, err, subscription.ErrRecordNotFound)
	})
}

func TestMemoryUserDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := subscription.NewMemoryUserDirectory(subscription.Profile{UserID: "u1", FirstName: "Ada", LastName: "Lovelace"})

	p, err := users.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.FullName())

	ref, err := users.SetCustomerRef(ctx, "u1", "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", ref)

	ref, err = users.SetCustomerRef(ctx, "u1", "cus_2")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", ref, "first reference wins")

	_, err = users.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, subscription.ErrUserNotFound)
}

func TestRecord_Entitlement(t *testing.T) {
	t.Parallel()

	var nilRecord *subscription.Record
	assert.Equal(t, &subscription.Entitlement{Active: false}, nilRecord.Entitlement())

	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for _, status := range []subscription.Status{subscription.StatusActive, subscription.StatusTrial, subscription.StatusPastDue} {
		r := &subscription.Record{Status: status, Plan: subscription.PlanFamily, CurrentPeriodEnd: end, CancelAtPeriodEnd: true}
		ent := r.Entitlement()
		assert.True(t, ent.Active, status)
		assert.Equal(t, subscription.PlanFamily, ent.Plan)
		assert.Equal(t, end, ent.CurrentPeriodEnd)
		assert.True(t, ent.CancelAtPeriodEnd)
	}

	for _, status := range []subscription.Status{subscription.StatusCanceled, subscription.StatusUnpaid, subscription.StatusInactive} {
		r := &subscription.Record{Status: status, Plan: subscription.PlanBasic}
		assert.Equal(t, &subscription.Entitlement{Active: false}, r.Entitlement(), status)
	}
}

func TestParsePlan(t *testing.T) {
	t.Parallel()

	for _, p := range subscription.Plans {
		got, err := subscription.ParsePlan(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	for _, s := range []string{"", "gold", "Basic"} {
		_, err := subscription.ParsePlan(s)
		assert.ErrorIs(t, err, subscription.ErrInvalidPlan, s)
	}

	assert.Equal(t, 19.99, subscription.MajorUnits(1999))
}
