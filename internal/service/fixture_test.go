package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/store/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testThreshold = 3

// recordingSink captures alerts and can be told to fail.
type recordingSink struct {
	mu     sync.Mutex
	alerts []models.LowStockAlert
	fail   bool
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Notify(_ context.Context, alert models.LowStockAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	if s.fail {
		return errors.New("smtp unreachable")
	}
	return nil
}

func (s *recordingSink) received() []models.LowStockAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LowStockAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// memIdempotency mimics the Redis claim protocol.
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: map[string]string{}}
}

func (m *memIdempotency) ClaimIdempotencyKey(_ context.Context, key string, _ time.Duration) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.keys[key]; ok {
		return false, v, nil
	}
	m.keys[key] = ""
	return true, "", nil
}

func (m *memIdempotency) CompleteIdempotencyKey(_ context.Context, key, saleID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = saleID
	return nil
}

func (m *memIdempotency) ReleaseIdempotencyKey(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type harness struct {
	store   *memstore.Store
	sink    *recordingSink
	monitor *LowStockMonitor
	ledger  *ProductLedger
	sales   *SaleService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := memstore.New()
	sink := &recordingSink{}
	monitor := NewLowStockMonitor(st, st, sink, testThreshold)
	ledger := NewProductLedger(st, st, monitor, nil, nil, testThreshold, 1000)
	sales := NewSaleService(st, st, ledger, monitor, nil, newMemIdempotency(), nil, time.Hour, 100)
	return &harness{store: st, sink: sink, monitor: monitor, ledger: ledger, sales: sales}
}

func (h *harness) product(t *testing.T, name string, qty, reorder int, status models.ProductStatus) *models.Product {
	t.Helper()
	price := decimal.NewFromInt(100)
	in := &models.CreateProductInput{
		Name:         name,
		Category:     "Grocery",
		Quantity:     &qty,
		Price:        &price,
		ReorderLevel: &reorder,
		Status:       status,
	}
	p, err := h.ledger.Create(context.Background(), in)
	require.NoError(t, err)
	h.monitor.Wait()
	return p
}

func (h *harness) reload(t *testing.T, id string) *models.Product {
	t.Helper()
	p, err := h.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p
}

func saleInput(name string, qty int, price int64) *models.CreateSaleInput {
	p := decimal.NewFromInt(price)
	return &models.CreateSaleInput{ProductName: name, Quantity: qty, Price: &p}
}
