package subscription

import (
	"context"
	"log/slog"

	"github.com/legacyvault/billing/pkg/logger"
)

// LogDeliveryTrigger records ended subscriptions without delivering anything.
// Media delivery lives in a separate collaborator.
type LogDeliveryTrigger struct {
	logger *slog.Logger
}

// NewLogDeliveryTrigger creates a trigger that writes to l.
func NewLogDeliveryTrigger(l *slog.Logger) *LogDeliveryTrigger {
	if l == nil {
		l = logger.Discard()
	}
	return &LogDeliveryTrigger{logger: l}
}

// SubscriptionEnded implements DeliveryTrigger.
func (t *LogDeliveryTrigger) SubscriptionEnded(ctx context.Context, record *Record) error {
	t.logger.InfoContext(ctx, "subscription ended, delivery pending",
		logger.UserID(record.UserID),
		logger.SubscriptionRef(record.SubscriptionRef),
	)
	return nil
}
