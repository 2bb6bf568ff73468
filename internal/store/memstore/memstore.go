// Package memstore keeps every repository in process memory. It backs
// STORAGE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"

	"github.com/google/uuid"
)

type Store struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	products  map[string]*models.Product
	sales     map[string]*models.Sale
	suppliers map[string]*models.Supplier
	users     map[string]*models.User

	// seq orders records by insertion; timestamps can collide.
	seq   int64
	order map[string]int64
}

func New() *Store {
	return &Store{
		products:  make(map[string]*models.Product),
		sales:     make(map[string]*models.Sale),
		suppliers: make(map[string]*models.Supplier),
		users:     make(map[string]*models.User),
		order:     make(map[string]int64),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

type txKey struct{}

// journal holds the undo steps of one transaction, replayed newest first on failure.
type journal struct {
	undo []func()
}

// WithinTx serializes transactions and rolls back their writes when fn fails.
// Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*journal); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// write locks the maps for a mutation. Outside a transaction it also waits
// for any open transaction, so a rollback never overwrites a later write.
func (s *Store) write(ctx context.Context) func() {
	if _, ok := ctx.Value(txKey{}).(*journal); ok {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// record registers an undo step when ctx carries a transaction. Callers hold s.mu.
func record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(txKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

func (s *Store) next(id string) {
	s.seq++
	s.order[id] = s.seq
}

func newID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

// restore puts back a copy taken before a write, or removes the key when there was none.
func restore[T any](m map[string]*T, id string, prev *T) func() {
	return func() {
		if prev == nil {
			delete(m, id)
			return
		}
		m[id] = prev
	}
}

func copyOf[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	defer s.write(ctx)()

	if err := s.checkBarcode(p); err != nil {
		return err
	}
	if err := s.checkSupplierRef(p.SupplierID); err != nil {
		return err
	}

	p.ID = newID(p.ID)
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	s.products[p.ID] = copyOf(p)
	s.next(p.ID)
	record(ctx, restore(s.products, p.ID, nil))
	return nil
}

func (s *Store) checkBarcode(p *models.Product) error {
	if p.Barcode == nil {
		return nil
	}
	for id, other := range s.products {
		if id != p.ID && other.Barcode != nil && *other.Barcode == *p.Barcode {
			return apperr.DuplicateBarcode(*p.Barcode)
		}
	}
	return nil
}

func (s *Store) checkSupplierRef(id *string) error {
	if id == nil {
		return nil
	}
	if _, ok := s.suppliers[*id]; !ok {
		return apperr.Validation("Invalid reference", apperr.FieldError{Field: "supplierId", Message: "supplier does not exist"})
	}
	return nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("Product")
	}
	return copyOf(p), nil
}

func (s *Store) GetProductByName(_ context.Context, name string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.sortedProducts(false) {
		if p.Name == name {
			return copyOf(p), nil
		}
	}
	return nil, apperr.NotFound("Product")
}

// GetProductForUpdate needs no row lock: writers outside the transaction
// already wait on txMu.
func (s *Store) GetProductForUpdate(ctx context.Context, id string) (*models.Product, error) {
	return s.GetProduct(ctx, id)
}

// UpdateProduct keeps the stored quantity and derives the status from it.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	defer s.write(ctx)()

	prev, ok := s.products[p.ID]
	if !ok {
		return apperr.NotFound("Product")
	}
	if err := s.checkBarcode(p); err != nil {
		return err
	}
	if err := s.checkSupplierRef(p.SupplierID); err != nil {
		return err
	}

	p.Quantity = prev.Quantity
	p.Status = models.DeriveStatus(prev.Quantity, p.Status)
	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = copyOf(p)
	record(ctx, restore(s.products, p.ID, prev))
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	defer s.write(ctx)()

	prev, ok := s.products[id]
	if !ok {
		return apperr.NotFound("Product")
	}
	delete(s.products, id)
	record(ctx, restore(s.products, id, prev))
	return nil
}

// sortedProducts returns live pointers ordered by insertion; newest first when desc.
func (s *Store) sortedProducts(desc bool) []*models.Product {
	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return s.order[out[i].ID] > s.order[out[j].ID]
		}
		return s.order[out[i].ID] < s.order[out[j].ID]
	})
	return out
}

func (s *Store) ListProducts(_ context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(f.Search)
	var matched []models.Product
	for _, p := range s.sortedProducts(true) {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if search != "" && !productContains(p, search) {
			continue
		}
		if f.LowStock && !p.IsLowStock(f.Threshold) {
			continue
		}
		matched = append(matched, *p)
	}
	return page(matched, f.Page, f.Limit), len(matched), nil
}

func productContains(p *models.Product, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Category), needle) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), needle)
}

func page[T any](items []T, pageNum, limit int) []T {
	out := []T{}
	if limit <= 0 {
		return out
	}
	start := models.Offset(pageNum, limit)
	if start < 0 || start >= len(items) {
		return out
	}
	end := start + limit
	if end < start || end > len(items) {
		end = len(items)
	}
	return append(out, items[start:end]...)
}

func (s *Store) ListAllProducts(context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Product{}
	for _, p := range s.sortedProducts(false) {
		out = append(out, *p)
	}
	return out, nil
}

func (s *Store) ListLowStockProducts(_ context.Context, threshold int) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Product{}
	for _, p := range s.sortedProducts(false) {
		if p.Status == models.ProductStatusActive && p.IsLowStock(threshold) {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) ListProductsBySupplier(_ context.Context, supplierID string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Product{}
	for _, p := range s.sortedProducts(false) {
		if p.SupplierID != nil && *p.SupplierID == supplierID {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ApplyStockDelta checks the guard and writes under one lock, matching the
// conditional update of the Postgres store.
func (s *Store) ApplyStockDelta(ctx context.Context, id string, delta int, guard models.StockGuard) (*models.Product, error) {
	defer s.write(ctx)()

	prev, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("Product")
	}
	if !guard.Permits(prev, delta) {
		return nil, apperr.InsufficientStock(prev.Quantity)
	}

	next := copyOf(prev)
	next.ApplyStockDelta(delta)
	next.UpdatedAt = time.Now().UTC()
	s.products[id] = next
	record(ctx, restore(s.products, id, prev))
	return copyOf(next), nil
}
