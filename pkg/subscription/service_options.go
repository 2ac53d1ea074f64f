package subscription

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithPrices maps plans to gateway price references.
// Plans without a configured price accept the price supplied at checkout.
func WithPrices(prices map[Plan]string) ServiceOption {
	return func(s *Service) {
		for plan, price := range prices {
			if price != "" {
				s.prices[plan] = price
			}
		}
	}
}

// WithBaseURL sets the client application URL used for checkout redirects.
func WithBaseURL(url string) ServiceOption {
	return func(s *Service) {
		s.baseURL = url
	}
}

// WithEventLog enables skipping of webhook events that were already applied.
func WithEventLog(log EventLog) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.events = log
		}
	}
}

// WithDeliveryTrigger sets the collaborator notified when a subscription ends.
// Default: LogDeliveryTrigger.
func WithDeliveryTrigger(trigger DeliveryTrigger) ServiceOption {
	return func(s *Service) {
		if trigger != nil {
			s.delivery = trigger
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for record bookkeeping.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
