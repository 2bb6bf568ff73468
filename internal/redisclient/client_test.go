package redisclient

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	c, err := NewClient(addr, "", 15)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestIdempotencyKeyLifecycle(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	key := uuid.NewString()

	claimed, _, err := c.ClaimIdempotencyKey(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, saleID, err := c.ClaimIdempotencyKey(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Empty(t, saleID)

	require.NoError(t, c.CompleteIdempotencyKey(ctx, key, "sale-1", time.Minute))
	_, saleID, err = c.ClaimIdempotencyKey(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "sale-1", saleID)

	require.NoError(t, c.ReleaseIdempotencyKey(ctx, key))
	claimed, _, err = c.ClaimIdempotencyKey(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestAlertCooldown(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	id := uuid.NewString()

	ok, err := c.AcquireAlertCooldown(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireAlertCooldown(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseAlertCooldown(ctx, id))
	ok, err = c.AcquireAlertCooldown(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJSONCacheAndPrefixInvalidation(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	prefix := "analytics-test-" + uuid.NewString() + ":"

	type summary struct {
		Total int `json:"total"`
	}
	require.NoError(t, c.SetJSON(ctx, prefix+"a", summary{Total: 3}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, prefix+"b", summary{Total: 4}, time.Minute))

	var got summary
	found, err := c.GetJSON(ctx, prefix+"a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got.Total)

	require.NoError(t, c.DeleteByPrefix(ctx, prefix))
	found, err = c.GetJSON(ctx, prefix+"b", &got)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = c.GetClient().Get(ctx, prefix+"a").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestDeleteByPrefixSpansScanBatches(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	prefix := "analytics-test-" + uuid.NewString() + ":"
	other := "keep-" + uuid.NewString()

	for i := 0; i < 3*scanBatch+7; i++ {
		require.NoError(t, c.SetJSON(ctx, fmt.Sprintf("%s%d", prefix, i), i, time.Minute))
	}
	require.NoError(t, c.SetJSON(ctx, other, 1, time.Minute))
	t.Cleanup(func() { c.GetClient().Del(context.Background(), other) })

	require.NoError(t, c.DeleteByPrefix(ctx, prefix))

	left, err := c.GetClient().Keys(ctx, prefix+"*").Result()
	require.NoError(t, err)
	assert.Empty(t, left)

	var kept int
	found, err := c.GetJSON(ctx, other, &kept)
	require.NoError(t, err)
	assert.True(t, found)
}
