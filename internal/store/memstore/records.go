package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"
)

func (s *Store) CreateSale(ctx context.Context, sale *models.Sale) error {
	defer s.write(ctx)()

	sale.ID = newID(sale.ID)
	now := time.Now().UTC()
	sale.CreatedAt, sale.UpdatedAt = now, now
	if sale.Date.IsZero() {
		sale.Date = now
	}

	s.sales[sale.ID] = copyOf(sale)
	s.next(sale.ID)
	record(ctx, restore(s.sales, sale.ID, nil))
	return nil
}

func (s *Store) GetSale(_ context.Context, id string) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, apperr.NotFound("Sale")
	}
	return copyOf(sale), nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	defer s.write(ctx)()

	prev, ok := s.sales[id]
	if !ok {
		return apperr.NotFound("Sale")
	}
	delete(s.sales, id)
	record(ctx, restore(s.sales, id, prev))
	return nil
}

func saleMatches(sale *models.Sale, f models.SaleFilter) bool {
	if !(models.DateRange{Start: f.StartDate, End: f.EndDate}).Contains(sale.Date) {
		return false
	}
	if f.Category != "" && sale.Category != f.Category {
		return false
	}
	return f.Status == "" || sale.OrderStatus == f.Status
}

// sortedSales orders by insertion
func (s *Store) sortedSales() []*models.Sale {
	out := make([]*models.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] < s.order[out[j].ID] })
	return out
}

func (s *Store) ListSales(_ context.Context, f models.SaleFilter) ([]models.Sale, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Sale
	for _, sale := range s.sortedSales() {
		if saleMatches(sale, f) {
			matched = append(matched, *sale)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date.After(matched[j].Date) })
	return page(matched, f.Page, f.Limit), len(matched), nil
}

func (s *Store) ListSalesInRange(_ context.Context, r models.DateRange) ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Sale{}
	for _, sale := range s.sortedSales() {
		if r.Contains(sale.Date) {
			out = append(out, *sale)
		}
	}
	return out, nil
}

func (s *Store) checkSupplierName(sup *models.Supplier) error {
	for id, other := range s.suppliers {
		if id != sup.ID && strings.EqualFold(other.Name, sup.Name) {
			return apperr.Conflict("Supplier with this name already exists")
		}
	}
	return nil
}

func (s *Store) CreateSupplier(ctx context.Context, sup *models.Supplier) error {
	defer s.write(ctx)()

	if err := s.checkSupplierName(sup); err != nil {
		return err
	}
	sup.ID = newID(sup.ID)
	now := time.Now().UTC()
	sup.CreatedAt, sup.UpdatedAt = now, now

	stored := copyOf(sup)
	stored.Products = nil
	s.suppliers[sup.ID] = stored
	s.next(sup.ID)
	record(ctx, restore(s.suppliers, sup.ID, nil))
	return nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sup, ok := s.suppliers[id]
	if !ok {
		return nil, apperr.NotFound("Supplier")
	}
	return copyOf(sup), nil
}

func (s *Store) UpdateSupplier(ctx context.Context, sup *models.Supplier) error {
	defer s.write(ctx)()

	prev, ok := s.suppliers[sup.ID]
	if !ok {
		return apperr.NotFound("Supplier")
	}
	if err := s.checkSupplierName(sup); err != nil {
		return err
	}
	sup.CreatedAt = prev.CreatedAt
	sup.UpdatedAt = time.Now().UTC()

	stored := copyOf(sup)
	stored.Products = nil
	s.suppliers[sup.ID] = stored
	record(ctx, restore(s.suppliers, sup.ID, prev))
	return nil
}

// DeleteSupplier unlinks the supplier from its products, as ON DELETE SET NULL does.
func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	defer s.write(ctx)()

	prev, ok := s.suppliers[id]
	if !ok {
		return apperr.NotFound("Supplier")
	}
	delete(s.suppliers, id)
	record(ctx, restore(s.suppliers, id, prev))

	for pid, p := range s.products {
		if p.SupplierID != nil && *p.SupplierID == id {
			next := copyOf(p)
			next.SupplierID = nil
			s.products[pid] = next
			record(ctx, restore(s.products, pid, p))
		}
	}
	return nil
}

func (s *Store) ListSuppliers(_ context.Context, status models.SupplierStatus) ([]models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Supplier{}
	for _, sup := range s.suppliers {
		if status == "" || sup.Status == status {
			out = append(out, *sup)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	defer s.write(ctx)()

	for _, other := range s.users {
		if other.Email == u.Email {
			return apperr.Conflict("User already exists with this email")
		}
	}
	u.ID = newID(u.ID)
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	s.users[u.ID] = copyOf(u)
	s.next(u.ID)
	record(ctx, restore(s.users, u.ID, nil))
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return copyOf(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyOf(u), nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (s *Store) TouchLastLogin(ctx context.Context, id string) error {
	defer s.write(ctx)()

	prev, ok := s.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	next := copyOf(prev)
	now := time.Now().UTC()
	next.LastLogin = &now
	next.UpdatedAt = now
	s.users[id] = next
	record(ctx, restore(s.users, id, prev))
	return nil
}

func (s *Store) ListUsers(context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] > s.order[out[j].ID] })
	return out, nil
}
