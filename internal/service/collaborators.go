package service

import (
	"context"
	"time"

	"inventory-service/internal/models"

	"go.uber.org/zap"
)

// EventPublisher is satisfied by broker.EventPublisher.
type EventPublisher interface {
	PublishSaleCreated(ctx context.Context, event *models.SaleCreatedEvent) error
	PublishSaleDeleted(ctx context.Context, event *models.SaleDeletedEvent) error
	PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error
}

// IdempotencyStore is satisfied by redisclient.Client.
type IdempotencyStore interface {
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (claimed bool, saleID string, err error)
	CompleteIdempotencyKey(ctx context.Context, key, saleID string, ttl time.Duration) error
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// Cache is satisfied by redisclient.Client.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

const analyticsCachePrefix = "analytics:"

// invalidateAnalytics drops cached summaries after a committed stock or sale change.
func invalidateAnalytics(ctx context.Context, cache Cache, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.DeleteByPrefix(ctx, analyticsCachePrefix); err != nil {
		logger.Warn("Failed to invalidate analytics cache", zap.Error(err))
	}
}
