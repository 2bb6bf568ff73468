package service

import (
	"context"

	"inventory-service/internal/models"
)

// ProductRepository persists catalog entries. Lookups return apperr NotFound
// when nothing matches.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
	// GetProductForUpdate reads the product and holds its row until the
	// transaction in ctx ends.
	GetProductForUpdate(ctx context.Context, id string) (*models.Product, error)
	// UpdateProduct writes the descriptive fields of p. Quantity is never
	// written here and status is re-derived from the stored quantity; p is
	// refreshed with the row as written.
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
	ListAllProducts(ctx context.Context) ([]models.Product, error)
	ListLowStockProducts(ctx context.Context, threshold int) ([]models.Product, error)
	ListProductsBySupplier(ctx context.Context, supplierID string) ([]models.Product, error)

	// ApplyStockDelta atomically adds delta to the quantity when guard permits
	// it, clamping at zero and re-deriving the status. A rejected guard
	// returns apperr InsufficientStock carrying the current quantity.
	ApplyStockDelta(ctx context.Context, id string, delta int, guard models.StockGuard) (*models.Product, error)
}

type SaleRepository interface {
	CreateSale(ctx context.Context, s *models.Sale) error
	GetSale(ctx context.Context, id string) (*models.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	ListSales(ctx context.Context, filter models.SaleFilter) ([]models.Sale, int, error)
	ListSalesInRange(ctx context.Context, r models.DateRange) ([]models.Sale, error)
}

type SupplierRepository interface {
	CreateSupplier(ctx context.Context, s *models.Supplier) error
	GetSupplier(ctx context.Context, id string) (*models.Supplier, error)
	UpdateSupplier(ctx context.Context, s *models.Supplier) error
	DeleteSupplier(ctx context.Context, id string) error
	ListSuppliers(ctx context.Context, status models.SupplierStatus) ([]models.Supplier, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Transactor runs fn so that every repository call made with the ctx it
// receives commits or rolls back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repository bundles every contract one backing store satisfies.
type Repository interface {
	ProductRepository
	SaleRepository
	SupplierRepository
	UserRepository
	Transactor
}
