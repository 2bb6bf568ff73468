package store

import (
	"context"
	"fmt"
	"time"

	"inventory-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const saleColumns = `id, product_name, product_id, category, quantity, price, total_amount,
	customer_name, customer_phone, payment_method, order_status, date, created_at, updated_at`

// CreateSale inserts a sale record
func (s *Store) CreateSale(ctx context.Context, sale *models.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sale.CreatedAt, sale.UpdatedAt = now, now
	if sale.Date.IsZero() {
		sale.Date = now
	}

	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES (:id, :product_name, :product_id, :category, :quantity, :price, :total_amount,
			:customer_name, :customer_phone, :payment_method, :order_status, :date, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, s.ext(ctx), query, sale); err != nil {
		return writeErr(err, "create sale")
	}
	return nil
}

// GetSale retrieves a sale by ID
func (s *Store) GetSale(ctx context.Context, id string) (*models.Sale, error) {
	var sale models.Sale
	err := sqlx.GetContext(ctx, s.ext(ctx), &sale, "SELECT "+saleColumns+" FROM sales WHERE id = $1", id)
	if err != nil {
		return nil, lookupErr(err, "Sale")
	}
	return &sale, nil
}

// DeleteSale removes a sale; a second delete of the same id reports NotFound
func (s *Store) DeleteSale(ctx context.Context, id string) error {
	res, err := s.ext(ctx).ExecContext(ctx, "DELETE FROM sales WHERE id = $1", id)
	if err != nil {
		return lookupErr(err, "Sale")
	}
	return affectedOrNotFound(res, "Sale")
}

func saleQuery(f models.SaleFilter) query {
	var q query
	if f.StartDate != nil {
		q.where("date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q.where("date <= ?", *f.EndDate)
	}
	if f.Category != "" {
		q.where("category = ?", f.Category)
	}
	if f.Status != "" {
		q.where("order_status = ?", f.Status)
	}
	return q
}

// ListSales returns one page of sales, most recent first, plus the total match count
func (s *Store) ListSales(ctx context.Context, f models.SaleFilter) ([]models.Sale, int, error) {
	q := saleQuery(f)

	var total int
	countQuery := s.db.Rebind("SELECT COUNT(*) FROM sales" + q.clause())
	if err := sqlx.GetContext(ctx, s.ext(ctx), &total, countQuery, q.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	listQuery := s.db.Rebind("SELECT " + saleColumns + " FROM sales" + q.clause() +
		" ORDER BY date DESC LIMIT ? OFFSET ?")
	args := append(q.args, f.Limit, models.Offset(f.Page, f.Limit))

	sales := []models.Sale{}
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &sales, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, total, nil
}

// ListSalesInRange returns every sale dated within r, in insertion order
func (s *Store) ListSalesInRange(ctx context.Context, r models.DateRange) ([]models.Sale, error) {
	q := saleQuery(models.SaleFilter{StartDate: r.Start, EndDate: r.End})

	sales := []models.Sale{}
	err := sqlx.SelectContext(ctx, s.ext(ctx), &sales,
		s.db.Rebind("SELECT "+saleColumns+" FROM sales"+q.clause()+" ORDER BY created_at"), q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	return sales, nil
}
