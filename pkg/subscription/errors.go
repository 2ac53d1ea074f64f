package subscription

import "errors"

var (
	// Validation
	ErrInvalidPlan    = errors.New("invalid subscription plan")
	ErrMissingPriceID = errors.New("price ID is required")
	ErrPriceMismatch  = errors.New("price ID does not match the selected plan")
	ErrMissingUserID  = errors.New("user ID is required")

	ErrRecordNotFound = errors.New("subscription not found")
	ErrUserNotFound   = errors.New("user not found")

	ErrInvalidSignature = errors.New("webhook signature verification failed")
	// ErrInvalidEvent marks a verified event that can never be applied.
	// Such events are acknowledged so the gateway stops redelivering them.
	ErrInvalidEvent     = errors.New("invalid webhook event")
	ErrMissingMetadata  = errors.New("webhook event is missing checkout metadata")
	ErrProcessingFailed = errors.New("failed to process webhook event")

	ErrGatewayFailed      = errors.New("payment gateway request failed")
	ErrGatewayUnavailable = errors.New("payment gateway is temporarily unavailable")

	ErrMissingAPIKey        = errors.New("payment gateway secret key is required")
	ErrMissingWebhookSecret = errors.New("payment gateway webhook secret is required")
)

// IsUpstream reports whether err came from a failed gateway call.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrGatewayFailed) || errors.Is(err, ErrGatewayUnavailable)
}

// upstream tags gateway errors that were not already classified by the Gateway implementation.
func upstream(err error) error {
	if err == nil || IsUpstream(err) {
		return err
	}
	return errors.Join(ErrGatewayFailed, err)
}
