package worker

import (
	"context"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/notify"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// MessageSource is satisfied by broker.Consumer.
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// AlertWorker consumes LowStockDetected events and delivers them to the
// outbound channels (email, SMS).
type AlertWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	sink         notify.Sink
	logger       *zap.Logger
}

// NewAlertWorker creates a new alert worker
func NewAlertWorker(consumer MessageSource, sink notify.Sink) *AlertWorker {
	w := &AlertWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		sink:         sink,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnLowStockDetected(w.HandleLowStock)
	return w
}

// HandleLowStock delivers one alert. Delivery failures are logged, not
// returned, so the message is not retried against channels that already sent.
func (w *AlertWorker) HandleLowStock(ctx context.Context, event *models.LowStockDetectedEvent) error {
	w.logger.Info("Dispatching low stock alert",
		zap.String("event_id", event.EventID),
		zap.String("product_id", event.Alert.ProductID))

	if err := w.sink.Notify(ctx, event.Alert); err != nil {
		w.logger.Warn("Low stock alert delivery failed",
			zap.String("product_id", event.Alert.ProductID),
			zap.Error(err))
	}
	return nil
}

// Start blocks until ctx is cancelled
func (w *AlertWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting alert worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AlertWorker) Stop() error {
	w.logger.Info("Stopping alert worker")
	return w.consumer.Close()
}
