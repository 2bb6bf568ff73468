package store

import (
	"context"
	"time"

	"inventory-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const supplierColumns = `id, name, contact_person, email, phone, street, city, state, zip_code,
	country, payment_terms, status, notes, created_at, updated_at`

func (s *Store) CreateSupplier(ctx context.Context, sup *models.Supplier) error {
	if sup.ID == "" {
		sup.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sup.CreatedAt, sup.UpdatedAt = now, now

	query := `
		INSERT INTO suppliers (` + supplierColumns + `)
		VALUES (:id, :name, :contact_person, :email, :phone, :street, :city, :state, :zip_code,
			:country, :payment_terms, :status, :notes, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, s.ext(ctx), query, sup); err != nil {
		return writeErr(err, "create supplier")
	}
	return nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	var sup models.Supplier
	err := sqlx.GetContext(ctx, s.ext(ctx), &sup, "SELECT "+supplierColumns+" FROM suppliers WHERE id = $1", id)
	if err != nil {
		return nil, lookupErr(err, "Supplier")
	}
	return &sup, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, sup *models.Supplier) error {
	sup.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE suppliers SET
			name = :name, contact_person = :contact_person, email = :email, phone = :phone,
			street = :street, city = :city, state = :state, zip_code = :zip_code, country = :country,
			payment_terms = :payment_terms, status = :status, notes = :notes, updated_at = :updated_at
		WHERE id = :id`

	res, err := sqlx.NamedExecContext(ctx, s.ext(ctx), query, sup)
	if err != nil {
		return writeErr(err, "update supplier")
	}
	return affectedOrNotFound(res, "Supplier")
}

// DeleteSupplier removes a supplier; products referencing it lose the link
func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	res, err := s.ext(ctx).ExecContext(ctx, "DELETE FROM suppliers WHERE id = $1", id)
	if err != nil {
		return lookupErr(err, "Supplier")
	}
	return affectedOrNotFound(res, "Supplier")
}

// ListSuppliers returns suppliers by name, optionally filtered by status
func (s *Store) ListSuppliers(ctx context.Context, status models.SupplierStatus) ([]models.Supplier, error) {
	var q query
	if status != "" {
		q.where("status = ?", status)
	}
	suppliers := []models.Supplier{}
	err := sqlx.SelectContext(ctx, s.ext(ctx), &suppliers,
		s.db.Rebind("SELECT "+supplierColumns+" FROM suppliers"+q.clause()+" ORDER BY name"), q.args...)
	return suppliers, err
}
