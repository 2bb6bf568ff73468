package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// pendingMarker holds an idempotency key while its sale is being created.
const pendingMarker = "pending"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks connectivity
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromClient wraps an existing connection
func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping is used by the readiness probe
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:sale:%s", key)
}

// ClaimIdempotencyKey reserves key for a new sale. When the key is already
// taken it returns the stored sale id, or "" while the first request is still
// in flight.
func (c *Client) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (claimed bool, saleID string, err error) {
	ok, err := c.rdb.SetNX(ctx, idempotencyKey(key), pendingMarker, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}

	val, err := c.rdb.Get(ctx, idempotencyKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; treat as still in flight
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("read idempotency key: %w", err)
	}
	if val == pendingMarker {
		return false, "", nil
	}
	return false, val, nil
}

// CompleteIdempotencyKey binds a claimed key to the sale it produced
func (c *Client) CompleteIdempotencyKey(ctx context.Context, key, saleID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, idempotencyKey(key), saleID, ttl).Err()
}

// ReleaseIdempotencyKey frees a claimed key after a failed sale so the client can retry
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, idempotencyKey(key)).Err()
}

func cooldownKey(productID string) string {
	return fmt.Sprintf("cooldown:low-stock:%s", productID)
}

// AcquireAlertCooldown returns true when no low-stock alert was sent for the
// product within ttl, and starts a new window.
func (c *Client) AcquireAlertCooldown(ctx context.Context, productID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, cooldownKey(productID), "1", ttl).Result()
}

// ReleaseAlertCooldown ends the window early, once the product has been restocked
func (c *Client) ReleaseAlertCooldown(ctx context.Context, productID string) error {
	return c.rdb.Del(ctx, cooldownKey(productID)).Err()
}

// GetJSON loads a cached value into dest. found is false on a miss.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// scanBatch is the SCAN COUNT hint and the size of each UNLINK.
const scanBatch = 100

// DeleteByPrefix drops every key starting with prefix. It walks the keyspace
// with SCAN and unlinks in batches, so Redis is never blocked on one call.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) error {
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.rdb.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	iter := c.rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return fmt.Errorf("unlink %s*: %w", prefix, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s*: %w", prefix, err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("unlink %s*: %w", prefix, err)
	}
	return nil
}
