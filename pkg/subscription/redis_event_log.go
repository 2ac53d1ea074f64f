package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultEventTTL       = 72 * time.Hour
	defaultEventKeyPrefix = "billing:webhook:event:"
)

// RedisEventLog implements EventLog with expiring Redis keys.
type RedisEventLog struct {
	db     redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisEventLog creates an event log whose entries expire after ttl.
// Zero ttl uses DefaultEventTTL.
func NewRedisEventLog(client redis.UniversalClient, ttl time.Duration) *RedisEventLog {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &RedisEventLog{
		db:     client,
		ttl:    ttl,
		prefix: defaultEventKeyPrefix,
	}
}

// Processed implements EventLog.
func (l *RedisEventLog) Processed(ctx context.Context, eventID string) (bool, error) {
	n, err := l.db.Exists(ctx, l.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up webhook event: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed implements EventLog.
func (l *RedisEventLog) MarkProcessed(ctx context.Context, eventID string) error {
	if err := l.db.Set(ctx, l.prefix+eventID, time.Now().UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}
