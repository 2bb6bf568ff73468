package broker

import (
	"context"
	"encoding/json"
	"testing"

	"inventory-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageRoutesLowStock(t *testing.T) {
	event := models.LowStockDetectedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeLowStockDetected),
		Alert:     models.LowStockAlert{ProductID: "p-1", ProductName: "Salt", Quantity: 2},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var got *models.LowStockDetectedEvent
	h := NewEventHandler()
	h.OnLowStockDetected(func(_ context.Context, e *models.LowStockDetectedEvent) error {
		got = e
		return nil
	})

	require.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: payload}))
	require.NotNil(t, got)
	assert.Equal(t, "Salt", got.Alert.ProductName)
	assert.Equal(t, event.EventID, got.EventID)
}

func TestHandleMessageIgnoresOtherEvents(t *testing.T) {
	payload, err := json.Marshal(models.SaleCreatedEvent{BaseEvent: models.NewBaseEvent(models.EventTypeSaleCreated)})
	require.NoError(t, err)

	called := false
	h := NewEventHandler()
	h.OnLowStockDetected(func(context.Context, *models.LowStockDetectedEvent) error {
		called = true
		return nil
	})

	assert.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: payload}))
	assert.False(t, called)
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	err := NewEventHandler().HandleMessage(context.Background(), kafka.Message{Value: []byte("{")})
	assert.Error(t, err)
}
