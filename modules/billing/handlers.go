package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/legacyvault/billing/binder"
	"github.com/legacyvault/billing/handler"
	"github.com/legacyvault/billing/pkg/logger"
	"github.com/legacyvault/billing/pkg/subscription"
)

// SignatureHeader carries the gateway's webhook signature.
const SignatureHeader = "Stripe-Signature"

const maxWebhookBody = 64 << 10

type handlers struct {
	svc    Service
	userID func(ctx context.Context) string
	logger *slog.Logger
}

type checkoutRequest struct {
	Plan    string `json:"plan"`
	PriceID string `json:"priceId"`
}

func (h *handlers) checkout(ctx handler.Context, req checkoutRequest) handler.Response {
	session, err := h.svc.Checkout(ctx, h.userID(ctx), subscription.CheckoutParams{
		Plan:    req.Plan,
		PriceID: req.PriceID,
	})
	if err != nil {
		return h.fail(ctx, err)
	}
	return handler.JSON(checkoutResponse{SessionID: session.ID, URL: session.URL})
}

func (h *handlers) current(ctx handler.Context, _ struct{}) handler.Response {
	ent, err := h.svc.Current(ctx, h.userID(ctx))
	if err != nil {
		return h.fail(ctx, err)
	}
	return handler.JSON(newEntitlementResponse(ent))
}

func (h *handlers) subscription(ctx handler.Context, _ struct{}) handler.Response {
	record, err := h.svc.Subscription(ctx, h.userID(ctx))
	if err != nil {
		return h.fail(ctx, err)
	}
	return handler.JSON(newRecordResponse(record))
}

func (h *handlers) cancel(ctx handler.Context, _ struct{}) handler.Response {
	if _, err := h.svc.Cancel(ctx, h.userID(ctx)); err != nil {
		if errors.Is(err, subscription.ErrRecordNotFound) {
			return handler.JSONError(handler.NewHTTPError(http.StatusNotFound, "not_found", "No active subscription found", err))
		}
		return h.fail(ctx, err)
	}
	return handler.JSON(messageResponse{Message: "Subscription will be canceled at the end of the billing period"})
}

func (h *handlers) paymentHistory(ctx handler.Context, _ struct{}) handler.Response {
	payments, err := h.svc.PaymentHistory(ctx, h.userID(ctx))
	if err != nil {
		return h.fail(ctx, err)
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, newPaymentResponse(p))
	}
	return handler.JSON(out)
}

// webhook needs the raw body for signature verification, so it bypasses the binders.
func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	ctx := handler.NewContext(w, r)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.renderError(ctx, handler.NewHTTPError(http.StatusBadRequest, "invalid_payload", "Unreadable webhook payload", err))
		return
	}

	if err := h.svc.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		h.renderError(ctx, err)
		return
	}
	_ = handler.JSON(map[string]bool{"received": true}).Render(w, r)
}

func (h *handlers) fail(ctx context.Context, err error) handler.Response {
	return handler.JSONError(h.classify(ctx, err))
}

func (h *handlers) renderError(ctx handler.Context, err error) {
	_ = handler.JSONError(h.classify(ctx, err)).Render(ctx.ResponseWriter(), ctx.Request())
}

// classify maps service errors to client-facing HTTP errors. Server-side
// failures are logged here and reach the client only as a generic message.
func (h *handlers) classify(ctx context.Context, err error) error {
	var httpErr *handler.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "request failed", logger.Error(err))
		}
		return httpErr
	}

	status, code, message := http.StatusInternalServerError, "internal_error", "Server error"
	switch {
	case errors.Is(err, binder.ErrInvalidJSON), errors.Is(err, binder.ErrUnsupportedMediaType):
		status, code, message = http.StatusBadRequest, "invalid_request", "Request body must be valid JSON"
	case errors.Is(err, subscription.ErrMissingUserID):
		status, code, message = http.StatusUnauthorized, "unauthorized", "Authentication required"
	case errors.Is(err, subscription.ErrInvalidPlan):
		status, code, message = http.StatusBadRequest, "invalid_plan", "Invalid plan selected"
	case errors.Is(err, subscription.ErrMissingPriceID):
		status, code, message = http.StatusBadRequest, "missing_price_id", "Plan and price ID are required"
	case errors.Is(err, subscription.ErrPriceMismatch):
		status, code, message = http.StatusBadRequest, "price_mismatch", "Price ID does not match the selected plan"
	case errors.Is(err, subscription.ErrInvalidSignature):
		status, code, message = http.StatusBadRequest, "invalid_signature", "Webhook signature verification failed"
	case errors.Is(err, subscription.ErrRecordNotFound):
		status, code, message = http.StatusNotFound, "not_found", "Subscription not found"
	case errors.Is(err, subscription.ErrUserNotFound):
		status, code, message = http.StatusNotFound, "user_not_found", "User not found"
	case errors.Is(err, subscription.ErrProcessingFailed):
		code = "processing_failed"
	case subscription.IsUpstream(err):
		code = "payment_provider_error"
	}

	switch {
	case status >= http.StatusInternalServerError:
		h.logger.ErrorContext(ctx, "request failed", logger.Error(err))
	case errors.Is(err, subscription.ErrInvalidSignature):
		h.logger.WarnContext(ctx, "webhook rejected", logger.Error(err))
	}

	return handler.NewHTTPError(status, code, message, err)
}
