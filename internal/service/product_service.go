package service

import (
	"context"
	"time"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// ProductLedger owns product records and is the only path that changes a
// product's quantity.
type ProductLedger struct {
	tx           Transactor
	products     ProductRepository
	observer     StockObserver
	events       EventPublisher
	cache        Cache
	threshold    int
	defaultLimit int
	logger       *zap.Logger
}

// NewProductLedger creates a new product ledger. events and cache may be nil.
func NewProductLedger(
	tx Transactor,
	products ProductRepository,
	observer StockObserver,
	events EventPublisher,
	cache Cache,
	threshold int,
	defaultLimit int,
) *ProductLedger {
	return &ProductLedger{
		tx:           tx,
		products:     products,
		observer:     observer,
		events:       events,
		cache:        cache,
		threshold:    threshold,
		defaultLimit: defaultLimit,
		logger:       util.GetLogger(),
	}
}

// FindByIDOrName resolves by id when one is given, otherwise by exact name.
func (l *ProductLedger) FindByIDOrName(ctx context.Context, id, name string) (*models.Product, error) {
	if id != "" {
		return l.products.GetProduct(ctx, id)
	}
	if name != "" {
		return l.products.GetProductByName(ctx, name)
	}
	return nil, apperr.Validation("productName or productId is required")
}

// HasSufficientStock is true only for an active product holding at least qty units.
func (l *ProductLedger) HasSufficientStock(p *models.Product, qty int) bool {
	return p.HasSufficientStock(qty)
}

// ApplyStockDelta is the single stock-mutation primitive. The guard is
// enforced by the repository in the same atomic write, so callers never
// read-check-write. Restorations pass GuardNone and are clamped at zero.
func (l *ProductLedger) ApplyStockDelta(ctx context.Context, id string, delta int, guard models.StockGuard) (p *models.Product, err error) {
	ctx, span := util.StartSpan(ctx, "ProductLedger.ApplyStockDelta")
	defer func() { util.EndSpan(span, err) }()

	start := time.Now()
	defer func() {
		util.StockMutationLatency.WithLabelValues(guard.String()).Observe(time.Since(start).Seconds())
	}()

	return l.products.ApplyStockDelta(ctx, id, delta, guard)
}

func (l *ProductLedger) Get(ctx context.Context, id string) (*models.Product, error) {
	return l.products.GetProduct(ctx, id)
}

// List fills in paging defaults and the low-stock threshold.
func (l *ProductLedger) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, models.Pagination, error) {
	var err error
	filter.Page, filter.Limit, err = models.Paging(filter.Page, filter.Limit, l.defaultLimit)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	filter.Threshold = l.threshold

	products, total, err := l.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return products, models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Create validates and stores a new product, then checks it for low stock.
func (l *ProductLedger) Create(ctx context.Context, in *models.CreateProductInput) (p *models.Product, err error) {
	ctx, span := util.StartSpan(ctx, "ProductLedger.Create")
	defer func() { util.EndSpan(span, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	p = in.ToProduct()
	if err := l.products.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	l.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	l.afterChange(ctx, p)
	return p, nil
}

// Update applies a partial edit under a row lock. An explicit quantity edit
// becomes a stock delta against the locked quantity, so a sale committed
// concurrently is never written over.
func (l *ProductLedger) Update(ctx context.Context, id string, in *models.UpdateProductInput) (p *models.Product, err error) {
	ctx, span := util.StartSpan(ctx, "ProductLedger.Update")
	defer func() { util.EndSpan(span, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	err = l.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := l.products.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.Quantity != nil && *in.Quantity != current.Quantity {
			current, err = l.ApplyStockDelta(ctx, id, *in.Quantity-current.Quantity, models.GuardNone)
			if err != nil {
				return err
			}
		}
		in.Apply(current)
		if err := l.products.UpdateProduct(ctx, current); err != nil {
			return err
		}
		p = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Product updated", zap.String("product_id", p.ID), zap.Int("quantity", p.Quantity))
	l.afterChange(ctx, p)
	return p, nil
}

// Delete removes the product; sales keep their copied name, category and price.
func (l *ProductLedger) Delete(ctx context.Context, id string) (err error) {
	ctx, span := util.StartSpan(ctx, "ProductLedger.Delete")
	defer func() { util.EndSpan(span, err) }()

	if err := l.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	l.logger.Info("Product deleted", zap.String("product_id", id))
	invalidateAnalytics(ctx, l.cache, l.logger)
	return nil
}

// AdjustStock applies a restock or correction. A deduction larger than the
// current quantity is rejected with InsufficientStock instead of clamping.
func (l *ProductLedger) AdjustStock(ctx context.Context, id string, in *models.StockAdjustmentInput) (p *models.Product, err error) {
	ctx, span := util.StartSpan(ctx, "ProductLedger.AdjustStock")
	defer func() { util.EndSpan(span, err) }()

	if in.QuantityChange == nil {
		return nil, apperr.Validation("quantityChange must be a number",
			apperr.FieldError{Field: "quantityChange", Message: "is required"})
	}
	delta := *in.QuantityChange

	p, err = l.ApplyStockDelta(ctx, id, delta, models.GuardAvailable)
	if err != nil {
		if apperr.Is(err, apperr.KindInsufficientStock) {
			util.InsufficientStockTotal.WithLabelValues("adjustment").Inc()
		}
		return nil, err
	}

	direction := "increase"
	if delta < 0 {
		direction = "decrease"
	}
	util.StockAdjustmentsTotal.WithLabelValues(direction).Inc()

	l.logger.Info("Stock adjusted",
		zap.String("product_id", p.ID),
		zap.Int("change", delta),
		zap.Int("quantity", p.Quantity),
		zap.String("status", string(p.Status)),
		zap.String("reason", in.Reason))

	if l.events != nil {
		event := &models.StockAdjustedEvent{
			BaseEvent:      models.NewBaseEvent(models.EventTypeStockAdjusted),
			ProductID:      p.ID,
			QuantityChange: delta,
			NewQuantity:    p.Quantity,
			Status:         p.Status,
			Reason:         in.Reason,
		}
		if err := l.events.PublishStockAdjusted(ctx, event); err != nil {
			l.logger.Error("Failed to publish StockAdjusted event", zap.Error(err))
		}
	}

	l.afterChange(ctx, p)
	return p, nil
}

// afterChange runs the side effects shared by every committed product write.
func (l *ProductLedger) afterChange(ctx context.Context, p *models.Product) {
	invalidateAnalytics(ctx, l.cache, l.logger)
	if l.observer != nil {
		l.observer.Observe(*p)
	}
}
