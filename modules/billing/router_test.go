package billing_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/legacyvault/billing/modules/billing"
	"github.com/legacyvault/billing/pkg/jwt"
	"github.com/legacyvault/billing/pkg/subscription"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Checkout(ctx context.Context, userID string, params subscription.CheckoutParams) (*subscription.CheckoutSession, error) {
	args := m.Called(ctx, userID, params)
	session, _ := args.Get(0).(*subscription.CheckoutSession)
	return session, args.Error(1)
}

func (m *mockService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *mockService) Cancel(ctx context.Context, userID string) (*subscription.Record, error) {
	args := m.Called(ctx, userID)
	record, _ := args.Get(0).(*subscription.Record)
	return record, args.Error(1)
}

func (m *mockService) Current(ctx context.Context, userID string) (*subscription.Entitlement, error) {
	args := m.Called(ctx, userID)
	ent, _ := args.Get(0).(*subscription.Entitlement)
	return ent, args.Error(1)
}

func (m *mockService) Subscription(ctx context.Context, userID string) (*subscription.Record, error) {
	args := m.Called(ctx, userID)
	record, _ := args.Get(0).(*subscription.Record)
	return record, args.Error(1)
}

func (m *mockService) PaymentHistory(ctx context.Context, userID string) ([]subscription.Payment, error) {
	args := m.Called(ctx, userID)
	payments, _ := args.Get(0).([]subscription.Payment)
	return payments, args.Error(1)
}

const userID = "64b7f0c2a1b2c3d4e5f60718"

type fixture struct {
	svc    *mockService
	router http.Handler
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := jwt.New("router-test-secret")
	require.NoError(t, err)
	token, err := tokens.Generate(&jwt.Claims{User: &jwt.User{ID: userID}})
	require.NoError(t, err)

	svc := &mockService{}
	t.Cleanup(func() { svc.AssertExpectations(t) })

	return &fixture{
		svc: svc,
		router: billing.Router(billing.RouterOptions{
			Service:      svc,
			Authenticate: jwt.Middleware(jwt.MiddlewareConfig{Service: tokens}),
			UserID:       jwt.UserIDFromContext,
		}),
		token: token,
	}
}

func (f *fixture) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set(jwt.AuthTokenHeader, f.token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RequiresAuth(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/checkout"},
		{http.MethodPost, "/create-checkout-session"},
		{http.MethodGet, "/current"},
		{http.MethodGet, "/"},
		{http.MethodPost, "/cancel"},
		{http.MethodGet, "/payment-history"},
	} {
		rec := f.do(route.method, route.path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestRouter_Checkout(t *testing.T) {
	t.Parallel()

	t.Run("creates session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.svc.On("Checkout", mock.Anything, userID, subscription.CheckoutParams{Plan: "premium", PriceID: "price_p"}).
			Return(&subscription.CheckoutSession{ID: "cs_1", URL: "https://checkout.example/cs_1"}, nil).Twice()

		for _, path := range []string{"/checkout", "/create-checkout-session"} {
			rec := f.do(http.MethodPost, path, `{"plan":"premium","priceId":"price_p"}`, true)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"sessionId":"cs_1","url":"https://checkout.example/cs_1"}`, rec.Body.String())
		}
	})

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "invalid plan", err: subscription.ErrInvalidPlan, wantCode: http.StatusBadRequest, wantErr: "invalid_plan"},
		{name: "missing price", err: subscription.ErrMissingPriceID, wantCode: http.StatusBadRequest, wantErr: "missing_price_id"},
		{name: "price mismatch", err: subscription.ErrPriceMismatch, wantCode: http.StatusBadRequest, wantErr: "price_mismatch"},
		{name: "upstream", err: errors.Join(subscription.ErrGatewayFailed, errors.New("card_declined secret detail")),
			wantCode: http.StatusInternalServerError, wantErr: "payment_provider_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.svc.On("Checkout", mock.Anything, userID, mock.Anything).Return(nil, tt.err).Once()

			rec := f.do(http.MethodPost, "/checkout", `{"plan":"gold"}`, true)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.wantErr+`"`)
			assert.NotContains(t, rec.Body.String(), "secret detail")
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rec := f.do(http.MethodPost, "/checkout", `{"plan":`, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRouter_Current(t *testing.T) {
	t.Parallel()

	t.Run("inactive", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.svc.On("Current", mock.Anything, userID).Return(&subscription.Entitlement{Active: false}, nil).Once()

		rec := f.do(http.MethodGet, "/current", "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"active":false}`, rec.Body.String())
	})

	t.Run("active", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		end := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
		f.svc.On("Current", mock.Anything, userID).Return(&subscription.Entitlement{
			Active:           true,
			Plan:             subscription.PlanFamily,
			Status:           subscription.StatusActive,
			CurrentPeriodEnd: end,
		}, nil).Once()

		rec := f.do(http.MethodGet, "/current", "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"active":true,"plan":"family","status":"active",
			"currentPeriodEnd":"2026-11-01T00:00:00Z","cancelAtPeriodEnd":false}`, rec.Body.String())
	})
}

func TestRouter_Subscription(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		created := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		f.svc.On("Subscription", mock.Anything, userID).Return(&subscription.Record{
			ID:              "rec_1",
			UserID:          userID,
			CustomerRef:     "cus_1",
			SubscriptionRef: "sub_1",
			Status:          subscription.StatusCanceled,
			Plan:            subscription.PlanBasic,
			CreatedAt:       created,
			UpdatedAt:       created,
		}, nil).Once()

		rec := f.do(http.MethodGet, "/", "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":"rec_1","user":"`+userID+`","stripeCustomerId":"cus_1",
			"stripeSubscriptionId":"sub_1","status":"canceled","plan":"basic","cancelAtPeriodEnd":false,
			"createdAt":"2026-10-01T00:00:00Z","updatedAt":"2026-10-01T00:00:00Z"}`, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.svc.On("Subscription", mock.Anything, userID).Return(nil, subscription.ErrRecordNotFound).Once()

		rec := f.do(http.MethodGet, "/", "", true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":{"code":"not_found","message":"Subscription not found"}}`, rec.Body.String())
	})
}

func TestRouter_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("scheduled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.svc.On("Cancel", mock.Anything, userID).Return(&subscription.Record{CancelAtPeriodEnd: true}, nil).Once()

		rec := f.do(http.MethodPost, "/cancel", "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Subscription will be canceled at the end of the billing period"}`, rec.Body.String())
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.svc.On("Cancel", mock.Anything, userID).Return(nil, subscription.ErrRecordNotFound).Once()

		rec := f.do(http.MethodPost, "/cancel", "", true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "No active subscription found")
	})
}

func TestRouter_PaymentHistory(t *testing.T) {
	t.Parallel()

	t.Run("lists payments", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.svc.On("PaymentHistory", mock.Anything, userID).Return([]subscription.Payment{{
			ID: "ch_1", Amount: 9.99, Currency: "usd", Status: "succeeded",
			Date: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		}}, nil).Once()

		rec := f.do(http.MethodGet, "/payment-history", "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"id":"ch_1","amount":9.99,"currency":"usd","status":"succeeded",
			"date":"2026-09-01T12:00:00Z"}]`, rec.Body.String())
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.svc.On("PaymentHistory", mock.Anything, userID).Return([]subscription.Payment{}, nil).Once()

		rec := f.do(http.MethodGet, "/payment-history", "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestRouter_Webhook(t *testing.T) {
	t.Parallel()

	post := func(f *fixture) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"id":"evt_1"}`))
		req.Header.Set(billing.SignatureHeader, "t=1,v1=abc")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "accepted", wantCode: http.StatusOK, wantBody: `{"received":true}`},
		{name: "bad signature", err: subscription.ErrInvalidSignature, wantCode: http.StatusBadRequest,
			wantBody: `{"error":{"code":"invalid_signature","message":"Webhook signature verification failed"}}`},
		{name: "transient failure", err: errors.Join(subscription.ErrProcessingFailed, errors.New("mongo down")),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":{"code":"processing_failed","message":"Server error"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.svc.On("HandleWebhook", mock.Anything, []byte(`{"id":"evt_1"}`), "t=1,v1=abc").Return(tt.err).Once()

			rec := post(f)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
