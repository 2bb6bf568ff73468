package notify

import (
	"context"
	"errors"
	"testing"

	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingSink struct{ name string }

func (f failingSink) Name() string { return f.name }
func (f failingSink) Notify(context.Context, models.LowStockAlert) error {
	return errors.New("down")
}

type recordingPublisher struct {
	events []*models.LowStockDetectedEvent
}

func (r *recordingPublisher) PublishLowStockDetected(_ context.Context, e *models.LowStockDetectedEvent) error {
	r.events = append(r.events, e)
	return nil
}

func alert() models.LowStockAlert {
	return models.LowStockAlert{
		ProductID:     "p-1",
		ProductName:   "Salt",
		Quantity:      2,
		ReorderLevel:  10,
		Reasons:       []string{"quantity 2 is at or below reorder level 10"},
		SupplierName:  "Acme",
		SupplierEmail: "orders@acme.test",
	}
}

func TestEmailSinkAddressesSupplierAndAdmin(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewEmailSink(zap.New(core), "admin@shop.test")

	require.NoError(t, sink.Notify(context.Background(), alert()))

	entries := logs.FilterMessage("Email notification should be sent").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "orders@acme.test", entries[0].ContextMap()["to"])
	assert.Equal(t, "admin@shop.test", entries[1].ContextMap()["to"])
}

func TestSMSSinkSkipsMissingNumbers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewSMSSink(zap.New(core), "")

	require.NoError(t, sink.Notify(context.Background(), alert()))
	assert.Zero(t, logs.Len())
}

func TestMultiContinuesPastFailures(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewMulti(failingSink{"email"}, NewBrokerSink(pub), failingSink{"sms"})

	err := m.Notify(context.Background(), alert())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventTypeLowStockDetected, pub.events[0].EventType)
	assert.Equal(t, "Salt", pub.events[0].Alert.ProductName)
}

func TestBody(t *testing.T) {
	body := Body(alert())
	assert.Contains(t, body, "Salt is running low.")
	assert.Contains(t, body, "Current quantity: 2")
}
