package service

import (
	"context"
	"fmt"
	"time"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleService couples sale records to stock deductions and reverses the
// coupling on deletion. Both directions commit in one transaction.
type SaleService struct {
	tx           Transactor
	sales        SaleRepository
	ledger       *ProductLedger
	observer     StockObserver
	events       EventPublisher
	idempotency  IdempotencyStore
	cache        Cache
	idemTTL      time.Duration
	defaultLimit int
	logger       *zap.Logger
}

// NewSaleService creates a new sale service. events, idempotency and cache may be nil.
func NewSaleService(
	tx Transactor,
	sales SaleRepository,
	ledger *ProductLedger,
	observer StockObserver,
	events EventPublisher,
	idempotency IdempotencyStore,
	cache Cache,
	idemTTL time.Duration,
	defaultLimit int,
) *SaleService {
	return &SaleService{
		tx:           tx,
		sales:        sales,
		ledger:       ledger,
		observer:     observer,
		events:       events,
		idempotency:  idempotency,
		cache:        cache,
		idemTTL:      idemTTL,
		defaultLimit: defaultLimit,
		logger:       util.GetLogger(),
	}
}

// CreateSale resolves the product, deducts stock and records the sale. The
// request price is authoritative for totalAmount. A repeated idempotency key
// returns the sale recorded the first time.
func (s *SaleService) CreateSale(ctx context.Context, in *models.CreateSaleInput, idempotencyKey string) (sale *models.Sale, err error) {
	ctx, span := util.StartSpan(ctx, "SaleService.CreateSale")
	defer func() { util.EndSpan(span, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	if idempotencyKey != "" && s.idempotency != nil {
		existing, claimed, err := s.claim(ctx, idempotencyKey)
		if err != nil || existing != nil {
			return existing, err
		}
		if claimed {
			defer func() {
				s.settleClaim(ctx, idempotencyKey, sale, err)
			}()
		}
	}

	var product *models.Product
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		resolved, err := s.ledger.FindByIDOrName(ctx, in.ProductID, in.ProductName)
		if err != nil {
			return err
		}
		if !s.ledger.HasSufficientStock(resolved, in.Quantity) {
			return apperr.InsufficientStock(resolved.Quantity)
		}

		product, err = s.ledger.ApplyStockDelta(ctx, resolved.ID, -in.Quantity, models.GuardSellable)
		if err != nil {
			return err
		}

		sale = newSale(in, product)
		if err := s.sales.CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("failed to record sale: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindInsufficientStock) {
			util.InsufficientStockTotal.WithLabelValues("sale").Inc()
		}
		return nil, err
	}

	util.SalesCreatedTotal.Inc()
	revenue, _ := sale.TotalAmount.Float64()
	util.SaleRevenueTotal.Add(revenue)

	s.logger.Info("Sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", sale.Quantity),
		zap.String("total", sale.TotalAmount.String()),
		zap.Int("remaining", product.Quantity))

	if s.events != nil {
		event := &models.SaleCreatedEvent{
			BaseEvent:     models.NewBaseEvent(models.EventTypeSaleCreated),
			SaleID:        sale.ID,
			ProductID:     product.ID,
			Quantity:      sale.Quantity,
			TotalAmount:   sale.TotalAmount,
			RemainingQty:  product.Quantity,
			ProductStatus: product.Status,
		}
		if err := s.events.PublishSaleCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish SaleCreated event", zap.Error(err))
		}
	}

	invalidateAnalytics(ctx, s.cache, s.logger)
	if s.observer != nil {
		s.observer.Observe(*product)
	}
	return sale, nil
}

func newSale(in *models.CreateSaleInput, product *models.Product) *models.Sale {
	category := in.Category
	if category == "" {
		category = product.Category
	}
	customer := in.CustomerName
	if customer == "" {
		customer = models.WalkInCustomer
	}
	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCash
	}
	var phone *string
	if in.CustomerPhone != "" {
		phone = &in.CustomerPhone
	}
	productID := product.ID

	return &models.Sale{
		ProductName:   product.Name,
		ProductID:     &productID,
		Category:      category,
		Quantity:      in.Quantity,
		Price:         *in.Price,
		TotalAmount:   in.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		CustomerName:  customer,
		CustomerPhone: phone,
		PaymentMethod: method,
		OrderStatus:   models.SaleStatusCompleted,
		Date:          time.Now().UTC(),
	}
}

// claim reserves the key. It returns the earlier sale on a replay, and
// claimed=false without error when Redis is unavailable.
func (s *SaleService) claim(ctx context.Context, key string) (existing *models.Sale, claimed bool, err error) {
	claimed, saleID, err := s.idempotency.ClaimIdempotencyKey(ctx, key, s.idemTTL)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if claimed {
		return nil, true, nil
	}
	if saleID == "" {
		return nil, false, apperr.Conflict("A sale with this Idempotency-Key is still being processed")
	}

	existing, err = s.sales.GetSale(ctx, saleID)
	if err != nil {
		return nil, false, err
	}
	util.SaleIdempotentReplaysTotal.Inc()
	s.logger.Info("Duplicate sale request detected",
		zap.String("idempotency_key", key),
		zap.String("sale_id", saleID))
	return existing, false, nil
}

// settleClaim binds the key to the new sale, or frees it so the client can retry.
func (s *SaleService) settleClaim(ctx context.Context, key string, sale *models.Sale, err error) {
	if err != nil || sale == nil {
		if relErr := s.idempotency.ReleaseIdempotencyKey(ctx, key); relErr != nil {
			s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
		return
	}
	if setErr := s.idempotency.CompleteIdempotencyKey(ctx, key, sale.ID, s.idemTTL); setErr != nil {
		s.logger.Warn("Failed to store idempotency key", zap.String("key", key), zap.Error(setErr))
	}
}

// DeleteSale removes the sale and restores its quantity to the product when
// the product still exists. A second delete of the same sale fails with
// NotFound and restores nothing.
func (s *SaleService) DeleteSale(ctx context.Context, id string) (err error) {
	ctx, span := util.StartSpan(ctx, "SaleService.DeleteSale")
	defer func() { util.EndSpan(span, err) }()

	var (
		sale     *models.Sale
		restored *models.Product
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.sales.GetSale(ctx, id)
		if err != nil {
			return err
		}

		if sale.ProductID != nil {
			restored, err = s.ledger.ApplyStockDelta(ctx, *sale.ProductID, sale.Quantity, models.GuardNone)
			if err != nil && !apperr.Is(err, apperr.KindNotFound) {
				return err
			}
		}

		return s.sales.DeleteSale(ctx, id)
	})
	if err != nil {
		return err
	}

	util.SalesDeletedTotal.WithLabelValues(fmt.Sprint(restored != nil)).Inc()
	s.logger.Info("Sale deleted",
		zap.String("sale_id", id),
		zap.Bool("stock_restored", restored != nil))

	if s.events != nil {
		event := &models.SaleDeletedEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypeSaleDeleted),
			SaleID:    sale.ID,
			Quantity:  sale.Quantity,
			Restored:  restored != nil,
		}
		if sale.ProductID != nil {
			event.ProductID = *sale.ProductID
		}
		if err := s.events.PublishSaleDeleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish SaleDeleted event", zap.Error(err))
		}
	}

	invalidateAnalytics(ctx, s.cache, s.logger)
	if restored != nil && s.observer != nil {
		s.observer.Observe(*restored)
	}
	return nil
}

func (s *SaleService) GetSale(ctx context.Context, id string) (*models.Sale, error) {
	return s.sales.GetSale(ctx, id)
}

// ListSales fills in paging defaults; results are most recent first.
func (s *SaleService) ListSales(ctx context.Context, filter models.SaleFilter) ([]models.Sale, models.Pagination, error) {
	var err error
	filter.Page, filter.Limit, err = models.Paging(filter.Page, filter.Limit, s.defaultLimit)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	sales, total, err := s.sales.ListSales(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return sales, models.NewPagination(total, filter.Page, filter.Limit), nil
}
