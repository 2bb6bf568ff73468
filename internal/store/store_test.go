package store

import (
	"context"
	"os"
	"sync"
	"testing"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"
	"inventory-service/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service.Repository = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL")
	}

	s, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	_, err = s.db.ExecContext(ctx, "TRUNCATE sales, products, suppliers, users")
	require.NoError(t, err)
	return s
}

func seedProduct(t *testing.T, s *Store, qty int, status models.ProductStatus) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:         "Basmati Rice",
		Category:     "Grocery",
		Quantity:     qty,
		Price:        decimal.NewFromInt(100),
		ReorderLevel: 10,
		Unit:         "kg",
		Status:       status,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func TestApplyStockDeltaGuards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, 1, models.ProductStatusActive)

	updated, err := s.ApplyStockDelta(ctx, p.ID, -1, models.GuardSellable)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)
	assert.Equal(t, models.ProductStatusOutOfStock, updated.Status)

	_, err = s.ApplyStockDelta(ctx, p.ID, -1, models.GuardSellable)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInsufficientStock, e.Kind)
	assert.Equal(t, 0, *e.Available)

	updated, err = s.ApplyStockDelta(ctx, p.ID, 1, models.GuardNone)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)
	assert.Equal(t, models.ProductStatusActive, updated.Status)

	_, err = s.ApplyStockDelta(ctx, "00000000-0000-0000-0000-000000000000", 1, models.GuardNone)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestApplyStockDeltaConcurrentLastUnit(t *testing.T) {
	s := openTestStore(t)
	p := seedProduct(t, s, 1, models.ProductStatusActive)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.ApplyStockDelta(context.Background(), p.ID, -1, models.GuardSellable)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
		}
	}
	assert.Equal(t, 1, succeeded)

	final, err := s.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.Quantity)
}

func TestWithinTxRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, 5, models.ProductStatusActive)

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.ApplyStockDelta(ctx, p.ID, -3, models.GuardSellable); err != nil {
			return err
		}
		return apperr.Validation("abort")
	})
	require.Error(t, err)

	after, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Quantity)
}

func TestDuplicateBarcode(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	barcode := "8901234567890"

	first := seedProduct(t, s, 1, models.ProductStatusActive)
	first.Barcode = &barcode
	require.NoError(t, s.UpdateProduct(ctx, first))

	second := &models.Product{Name: "Other", Category: "Grocery", Price: decimal.Zero, Unit: "piece",
		Status: models.ProductStatusOutOfStock, Barcode: &barcode}
	err := s.CreateProduct(ctx, second)
	assert.True(t, apperr.Is(err, apperr.KindDuplicateBarcode))
}

func TestSaleFiltersAndDeleteTwice(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sale := &models.Sale{
		ProductName:   "Basmati Rice",
		Category:      "Grocery",
		Quantity:      2,
		Price:         decimal.NewFromInt(50),
		TotalAmount:   decimal.NewFromInt(100),
		CustomerName:  models.WalkInCustomer,
		PaymentMethod: models.PaymentMethodCash,
		OrderStatus:   models.SaleStatusCompleted,
	}
	require.NoError(t, s.CreateSale(ctx, sale))

	sales, total, err := s.ListSales(ctx, models.SaleFilter{Category: "Grocery", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.True(t, sales[0].TotalAmount.Equal(decimal.NewFromInt(100)))

	require.NoError(t, s.DeleteSale(ctx, sale.ID))
	assert.True(t, apperr.Is(s.DeleteSale(ctx, sale.ID), apperr.KindNotFound))
}

func TestLookupMalformedID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetProduct(context.Background(), "not-a-uuid")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateProductKeepsStoredQuantity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	stale := seedProduct(t, s, 5, models.ProductStatusActive)

	_, err := s.ApplyStockDelta(ctx, stale.ID, -5, models.GuardSellable)
	require.NoError(t, err)

	stale.Name = "Sona Masoori"
	require.NoError(t, s.UpdateProduct(ctx, stale))
	assert.Equal(t, 0, stale.Quantity)
	assert.Equal(t, models.ProductStatusOutOfStock, stale.Status)

	stored, err := s.GetProduct(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sona Masoori", stored.Name)
	assert.Equal(t, 0, stored.Quantity)
	assert.Equal(t, models.ProductStatusOutOfStock, stored.Status)
}

func TestGetProductForUpdateInsideTx(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, 5, models.ProductStatusActive)

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.GetProductForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		_, err = s.ApplyStockDelta(ctx, locked.ID, 2, models.GuardNone)
		return err
	})
	require.NoError(t, err)

	stored, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Quantity)
}
