// Package notify delivers low-stock alerts. The email and SMS channels only
// log what they would send; no transport is wired yet.
package notify

import (
	"context"
	"fmt"
	"strings"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Sink is one delivery channel for low-stock alerts.
type Sink interface {
	Name() string
	Notify(ctx context.Context, alert models.LowStockAlert) error
}

// Subject is the headline shared by every channel.
func Subject(alert models.LowStockAlert) string {
	return fmt.Sprintf("Low stock alert: %s", alert.ProductName)
}

// Body renders the alert as plain text.
func Body(alert models.LowStockAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is running low.\n", alert.ProductName)
	fmt.Fprintf(&b, "Current quantity: %d\n", alert.Quantity)
	fmt.Fprintf(&b, "Reorder level: %d\n", alert.ReorderLevel)
	if len(alert.Reasons) > 0 {
		fmt.Fprintf(&b, "Reason: %s\n", strings.Join(alert.Reasons, "; "))
	}
	return b.String()
}

// LogSink writes the alert to the service log.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Notify(_ context.Context, alert models.LowStockAlert) error {
	s.logger.Warn("Low stock alert",
		zap.String("product_id", alert.ProductID),
		zap.String("product", alert.ProductName),
		zap.Int("quantity", alert.Quantity),
		zap.Int("reorder_level", alert.ReorderLevel),
		zap.Strings("reasons", alert.Reasons),
		zap.String("supplier", alert.SupplierName))
	return nil
}

// EmailSink addresses the linked supplier and the admin mailbox.
type EmailSink struct {
	logger     *zap.Logger
	adminEmail string
}

func NewEmailSink(logger *zap.Logger, adminEmail string) *EmailSink {
	return &EmailSink{logger: logger, adminEmail: adminEmail}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Notify(_ context.Context, alert models.LowStockAlert) error {
	for _, to := range recipients(alert.SupplierEmail, s.adminEmail) {
		// TODO: hand off to an SMTP relay once one is provisioned
		s.logger.Info("Email notification should be sent",
			zap.String("to", to),
			zap.String("subject", Subject(alert)),
			zap.String("body", Body(alert)))
	}
	return nil
}

// SMSSink addresses the supplier phone and the admin phone.
type SMSSink struct {
	logger     *zap.Logger
	adminPhone string
}

func NewSMSSink(logger *zap.Logger, adminPhone string) *SMSSink {
	return &SMSSink{logger: logger, adminPhone: adminPhone}
}

func (s *SMSSink) Name() string { return "sms" }

func (s *SMSSink) Notify(_ context.Context, alert models.LowStockAlert) error {
	for _, to := range recipients(alert.SupplierPhone, s.adminPhone) {
		s.logger.Info("SMS notification should be sent",
			zap.String("to", to),
			zap.String("message", Subject(alert)))
	}
	return nil
}

func recipients(addrs ...string) []string {
	var out []string
	for _, a := range addrs {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// LowStockPublisher is satisfied by broker.EventPublisher.
type LowStockPublisher interface {
	PublishLowStockDetected(ctx context.Context, event *models.LowStockDetectedEvent) error
}

// BrokerSink hands the alert to the alert worker through Kafka.
type BrokerSink struct {
	publisher LowStockPublisher
}

func NewBrokerSink(publisher LowStockPublisher) *BrokerSink {
	return &BrokerSink{publisher: publisher}
}

func (s *BrokerSink) Name() string { return "broker" }

func (s *BrokerSink) Notify(ctx context.Context, alert models.LowStockAlert) error {
	return s.publisher.PublishLowStockDetected(ctx, &models.LowStockDetectedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeLowStockDetected),
		Alert:     alert,
	})
}

// Multi fans an alert out to every sink. A failing sink does not stop the
// others; the failures come back combined.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Notify(ctx context.Context, alert models.LowStockAlert) error {
	var errs error
	for _, s := range m.sinks {
		if err := s.Notify(ctx, alert); err != nil {
			util.NotificationFailuresTotal.WithLabelValues(s.Name()).Inc()
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errs
}
