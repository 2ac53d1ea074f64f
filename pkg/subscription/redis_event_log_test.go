package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legacyvault/billing/pkg/subscription"
)

func TestRedisEventLog(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := subscription.NewRedisEventLog(client, time.Hour)
	ctx := context.Background()

	done, err := log.Processed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, log.MarkProcessed(ctx, "evt_1"))

	done, err = log.Processed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = log.Processed(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, done)

	mr.FastForward(2 * time.Hour)

	done, err = log.Processed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, done, "entry expires after the ttl")
}

func TestRedisEventLog_Unavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	log := subscription.NewRedisEventLog(client, 0)

	_, err := log.Processed(context.Background(), "evt_1")
	assert.Error(t, err)
	assert.Error(t, log.MarkProcessed(context.Background(), "evt_1"))
}
