package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing inventory events. Every event is keyed by
// product so one product's history stays ordered.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func productKey(productID string) string {
	return fmt.Sprintf("product-%s", productID)
}

func (ep *EventPublisher) PublishSaleCreated(ctx context.Context, event *models.SaleCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, productKey(event.ProductID), event)
}

// PublishSaleDeleted keys by sale when the product is gone
func (ep *EventPublisher) PublishSaleDeleted(ctx context.Context, event *models.SaleDeletedEvent) error {
	key := productKey(event.ProductID)
	if event.ProductID == "" {
		key = fmt.Sprintf("sale-%s", event.SaleID)
	}
	return ep.producer.PublishEvent(ctx, key, event)
}

func (ep *EventPublisher) PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error {
	return ep.producer.PublishEvent(ctx, productKey(event.ProductID), event)
}

func (ep *EventPublisher) PublishLowStockDetected(ctx context.Context, event *models.LowStockDetectedEvent) error {
	return ep.producer.PublishEvent(ctx, productKey(event.Alert.ProductID), event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onLowStockDetected func(context.Context, *models.LowStockDetectedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnLowStockDetected registers a handler for LowStockDetected events
func (eh *EventHandler) OnLowStockDetected(handler func(context.Context, *models.LowStockDetectedEvent) error) {
	eh.onLowStockDetected = handler
}

// HandleMessage routes messages to appropriate handlers; other event types
// on the topic are ignored.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeLowStockDetected:
		if eh.onLowStockDetected != nil {
			var event models.LowStockDetectedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal LowStockDetected event: %w", err)
			}
			return eh.onLowStockDetected(ctx, &event)
		}
	}

	return nil
}
