package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"
	"inventory-service/internal/notify"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// Evaluation is the low-stock decision for one product snapshot.
type Evaluation struct {
	IsLow   bool     `json:"isLow"`
	Reasons []string `json:"reasons,omitempty"`
}

// Evaluate flags a product whose quantity is at or below its reorder level
// or the global threshold.
func Evaluate(p *models.Product, threshold int) Evaluation {
	var reasons []string
	if p.Quantity <= p.ReorderLevel {
		reasons = append(reasons, fmt.Sprintf("quantity %d is at or below reorder level %d", p.Quantity, p.ReorderLevel))
	}
	if p.Quantity <= threshold {
		reasons = append(reasons, fmt.Sprintf("quantity %d is at or below threshold %d", p.Quantity, threshold))
	}
	return Evaluation{IsLow: len(reasons) > 0, Reasons: reasons}
}

// AlertThrottle suppresses repeat alerts for a product within a window.
type AlertThrottle interface {
	AcquireAlertCooldown(ctx context.Context, productID string, ttl time.Duration) (bool, error)
	ReleaseAlertCooldown(ctx context.Context, productID string) error
}

// StockObserver receives every product snapshot produced by a stock change.
type StockObserver interface {
	Observe(p models.Product)
}

// LowStockMonitor evaluates snapshots after stock changes and dispatches
// alerts. Dispatch runs in the background and never reports failure to the
// caller that changed the stock.
type LowStockMonitor struct {
	products  ProductRepository
	suppliers SupplierRepository
	sink      notify.Sink
	throttle  AlertThrottle
	threshold int
	cooldown  time.Duration
	timeout   time.Duration
	logger    *zap.Logger

	wg sync.WaitGroup
}

// NewLowStockMonitor creates a monitor without alert throttling
func NewLowStockMonitor(products ProductRepository, suppliers SupplierRepository, sink notify.Sink, threshold int) *LowStockMonitor {
	return &LowStockMonitor{
		products:  products,
		suppliers: suppliers,
		sink:      sink,
		threshold: threshold,
		timeout:   10 * time.Second,
		logger:    util.GetLogger(),
	}
}

// WithThrottle enables the per-product cooldown
func (m *LowStockMonitor) WithThrottle(throttle AlertThrottle, cooldown time.Duration) *LowStockMonitor {
	m.throttle = throttle
	m.cooldown = cooldown
	return m
}

func (m *LowStockMonitor) Threshold() int {
	return m.threshold
}

// Observe checks p in the background
func (m *LowStockMonitor) Observe(p models.Product) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		m.Check(ctx, &p)
	}()
}

// Wait blocks until every background check has finished
func (m *LowStockMonitor) Wait() {
	m.wg.Wait()
}

// Check evaluates p and notifies when it is low. Every failure past the
// evaluation is logged and swallowed.
func (m *LowStockMonitor) Check(ctx context.Context, p *models.Product) Evaluation {
	eval := Evaluate(p, m.threshold)
	if !eval.IsLow {
		m.resetCooldown(ctx, p.ID)
		return eval
	}

	m.logger.Warn("Low stock detected",
		zap.String("product_id", p.ID),
		zap.String("product", p.Name),
		zap.Int("quantity", p.Quantity),
		zap.Int("reorder_level", p.ReorderLevel))

	if !m.acquireCooldown(ctx, p.ID) {
		util.LowStockAlertsSuppressedTotal.Inc()
		return eval
	}

	alert := models.LowStockAlert{
		ProductID:    p.ID,
		ProductName:  p.Name,
		Quantity:     p.Quantity,
		ReorderLevel: p.ReorderLevel,
		Threshold:    m.threshold,
		Reasons:      eval.Reasons,
		DetectedAt:   time.Now().UTC(),
	}
	m.attachSupplier(ctx, p, &alert)

	util.LowStockAlertsTotal.Inc()
	if err := m.sink.Notify(ctx, alert); err != nil {
		m.logger.Warn("Low stock notification failed",
			zap.String("product_id", p.ID),
			zap.Error(err))
	}
	return eval
}

// attachSupplier adds contact details of the linked supplier when it is active
func (m *LowStockMonitor) attachSupplier(ctx context.Context, p *models.Product, alert *models.LowStockAlert) {
	if p.SupplierID == nil {
		return
	}
	supplier, err := m.suppliers.GetSupplier(ctx, *p.SupplierID)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			m.logger.Warn("Supplier lookup failed", zap.String("supplier_id", *p.SupplierID), zap.Error(err))
		}
		return
	}
	if supplier.Status != models.SupplierStatusActive {
		return
	}
	alert.SupplierName = supplier.Name
	alert.SupplierEmail = supplier.Email
	alert.SupplierPhone = supplier.Phone
}

// acquireCooldown allows the alert when throttling is off or Redis is unreachable
func (m *LowStockMonitor) acquireCooldown(ctx context.Context, productID string) bool {
	if m.throttle == nil {
		return true
	}
	ok, err := m.throttle.AcquireAlertCooldown(ctx, productID, m.cooldown)
	if err != nil {
		m.logger.Warn("Alert cooldown unavailable", zap.String("product_id", productID), zap.Error(err))
		return true
	}
	return ok
}

func (m *LowStockMonitor) resetCooldown(ctx context.Context, productID string) {
	if m.throttle == nil {
		return
	}
	if err := m.throttle.ReleaseAlertCooldown(ctx, productID); err != nil {
		m.logger.Debug("Alert cooldown reset failed", zap.String("product_id", productID), zap.Error(err))
	}
}

// ScanAll returns every active product that is low on stock
func (m *LowStockMonitor) ScanAll(ctx context.Context) (products []models.Product, err error) {
	ctx, span := util.StartSpan(ctx, "LowStockMonitor.ScanAll")
	defer func() { util.EndSpan(span, err) }()

	products, err = m.products.ListLowStockProducts(ctx, m.threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to scan low stock: %w", err)
	}
	m.logger.Info("Low stock scan finished", zap.Int("count", len(products)))
	return products, nil
}
