package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, category, quantity, price, reorder_level, unit, status,
	supplier_id, barcode, description, created_at, updated_at`

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (:id, :name, :category, :quantity, :price, :reorder_level, :unit, :status,
			:supplier_id, :barcode, :description, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, s.ext(ctx), query, p); err != nil {
		return productWriteErr(err, p, "create product")
	}
	return nil
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := sqlx.GetContext(ctx, s.ext(ctx), &p, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		return nil, lookupErr(err, "Product")
	}
	return &p, nil
}

// GetProductByName matches the name exactly. The oldest product wins when
// names collide.
func (s *Store) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	var p models.Product
	err := sqlx.GetContext(ctx, s.ext(ctx), &p,
		"SELECT "+productColumns+" FROM products WHERE name = $1 ORDER BY created_at LIMIT 1", name)
	if err != nil {
		return nil, lookupErr(err, "Product")
	}
	return &p, nil
}

// GetProductForUpdate locks the row until the transaction in ctx ends.
// Outside a transaction the lock is released immediately.
func (s *Store) GetProductForUpdate(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := sqlx.GetContext(ctx, s.ext(ctx), &p, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, lookupErr(err, "Product")
	}
	return &p, nil
}

// UpdateProduct writes the descriptive columns of p. Quantity belongs to
// ApplyStockDelta, so the status is derived from the quantity already in the
// row rather than the one p was read with.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	named := `
		UPDATE products SET
			name = :name, category = :category, price = :price,
			reorder_level = :reorder_level, unit = :unit,
			status = CASE
				WHEN CAST(:status AS TEXT) = 'discontinued' THEN 'discontinued'
				WHEN quantity = 0 THEN 'out_of_stock'
				ELSE 'active'
			END,
			supplier_id = :supplier_id, barcode = :barcode, description = :description,
			updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + productColumns

	query, args, err := sqlx.Named(named, p)
	if err != nil {
		return fmt.Errorf("failed to bind product update: %w", err)
	}
	err = sqlx.GetContext(ctx, s.ext(ctx), p, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("Product")
	}
	if err != nil {
		return productWriteErr(err, p, "update product")
	}
	return nil
}

// DeleteProduct removes a product. Sales referencing it are left untouched.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.ext(ctx).ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return lookupErr(err, "Product")
	}
	return affectedOrNotFound(res, "Product")
}

// ListProducts returns one page of products, newest first, plus the total match count
func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	var q query
	if f.Category != "" {
		q.where("category = ?", f.Category)
	}
	if f.Status != "" {
		q.where("status = ?", f.Status)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		q.where("(name ILIKE ? OR category ILIKE ? OR COALESCE(description, '') ILIKE ?)", pattern, pattern, pattern)
	}
	if f.LowStock {
		q.where("(quantity <= reorder_level OR quantity <= ?)", f.Threshold)
	}

	var total int
	countQuery := s.db.Rebind("SELECT COUNT(*) FROM products" + q.clause())
	if err := sqlx.GetContext(ctx, s.ext(ctx), &total, countQuery, q.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	listQuery := s.db.Rebind("SELECT " + productColumns + " FROM products" + q.clause() +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args := append(q.args, f.Limit, models.Offset(f.Page, f.Limit))

	products := []models.Product{}
	if err := sqlx.SelectContext(ctx, s.ext(ctx), &products, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// ListAllProducts returns the whole catalog in insertion order
func (s *Store) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := sqlx.SelectContext(ctx, s.ext(ctx), &products, "SELECT "+productColumns+" FROM products ORDER BY created_at")
	return products, err
}

// ListLowStockProducts returns active products at or below their reorder level or the threshold
func (s *Store) ListLowStockProducts(ctx context.Context, threshold int) ([]models.Product, error) {
	products := []models.Product{}
	err := sqlx.SelectContext(ctx, s.ext(ctx), &products,
		"SELECT "+productColumns+` FROM products
		WHERE status = $1 AND (quantity <= reorder_level OR quantity <= $2)
		ORDER BY quantity, name`,
		models.ProductStatusActive, threshold)
	return products, err
}

func (s *Store) ListProductsBySupplier(ctx context.Context, supplierID string) ([]models.Product, error) {
	products := []models.Product{}
	err := sqlx.SelectContext(ctx, s.ext(ctx), &products,
		"SELECT "+productColumns+" FROM products WHERE supplier_id = $1 ORDER BY name", supplierID)
	if code, _ := pqCode(err); code == codeInvalidText {
		return []models.Product{}, nil
	}
	return products, err
}

var guardClauses = map[models.StockGuard]string{
	models.GuardNone:      "TRUE",
	models.GuardAvailable: "quantity + $2 >= 0",
	models.GuardSellable:  "($2 >= 0 OR (status = 'active' AND quantity + $2 >= 0))",
}

// ApplyStockDelta is a single conditional UPDATE; the guard and the status
// derivation are evaluated against the row as Postgres locks it, so two
// concurrent deductions of the last unit cannot both succeed.
func (s *Store) ApplyStockDelta(ctx context.Context, id string, delta int, guard models.StockGuard) (*models.Product, error) {
	query := `
		UPDATE products SET
			quantity = GREATEST(quantity + $2, 0),
			status = CASE
				WHEN GREATEST(quantity + $2, 0) = 0 AND status <> 'discontinued' THEN 'out_of_stock'
				WHEN GREATEST(quantity + $2, 0) > 0 AND status = 'out_of_stock' THEN 'active'
				ELSE status
			END,
			updated_at = NOW()
		WHERE id = $1 AND ` + guardClauses[guard] + `
		RETURNING ` + productColumns

	var p models.Product
	err := sqlx.GetContext(ctx, s.ext(ctx), &p, query, id, delta)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, lookupErr(err, "Product")
	}

	// No row matched: either the product is gone or the guard refused.
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, apperr.InsufficientStock(current.Quantity)
}

func productWriteErr(err error, p *models.Product, action string) error {
	if code, pqErr := pqCode(err); code == codeUniqueViolation && pqErr.Constraint == "products_barcode_key" && p.Barcode != nil {
		return apperr.DuplicateBarcode(*p.Barcode)
	}
	return writeErr(err, action)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
