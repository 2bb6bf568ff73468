package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"inventory-service/internal/apperr"

	"github.com/shopspring/decimal"
)

func init() {
	// prices and totals are JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductStatus is the lifecycle state of a catalog entry.
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusDiscontinued ProductStatus = "discontinued"
	ProductStatusOutOfStock   ProductStatus = "out_of_stock"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusDiscontinued, ProductStatusOutOfStock:
		return true
	}
	return false
}

// Product represents a catalog item and its stock level
type Product struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Category     string          `db:"category" json:"category"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Price        decimal.Decimal `db:"price" json:"price"`
	ReorderLevel int             `db:"reorder_level" json:"reorderLevel"`
	Unit         string          `db:"unit" json:"unit"`
	Status       ProductStatus   `db:"status" json:"status"`
	SupplierID   *string         `db:"supplier_id" json:"supplierId,omitempty"`
	Barcode      *string         `db:"barcode" json:"barcode,omitempty"`
	Description  *string         `db:"description" json:"description,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// Sale statuses
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// Payment methods
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodOnline PaymentMethod = "online"
)

const WalkInCustomer = "Walk-in Customer"

// Sale represents a point-of-sale transaction. ProductName, Category and Price
// are copies taken at creation time and survive product deletion.
type Sale struct {
	ID            string          `db:"id" json:"id"`
	ProductName   string          `db:"product_name" json:"productName"`
	ProductID     *string         `db:"product_id" json:"productId,omitempty"`
	Category      string          `db:"category" json:"category"`
	Quantity      int             `db:"quantity" json:"quantity"`
	Price         decimal.Decimal `db:"price" json:"price"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	CustomerName  string          `db:"customer_name" json:"customerName"`
	CustomerPhone *string         `db:"customer_phone" json:"customerPhone,omitempty"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"paymentMethod"`
	OrderStatus   SaleStatus      `db:"order_status" json:"orderStatus"`
	Date          time.Time       `db:"date" json:"date"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// SaleNumber is the short display reference shown on receipts.
func (s *Sale) SaleNumber() string {
	id := strings.ReplaceAll(s.ID, "-", "")
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "SALE-" + strings.ToUpper(id)
}

// Supplier statuses
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "active"
	SupplierStatusInactive SupplierStatus = "inactive"
)

type Address struct {
	Street  string `db:"street" json:"street,omitempty"`
	City    string `db:"city" json:"city,omitempty"`
	State   string `db:"state" json:"state,omitempty"`
	ZipCode string `db:"zip_code" json:"zipCode,omitempty"`
	Country string `db:"country" json:"country,omitempty"`
}

// Supplier is reference data linked from products
type Supplier struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	ContactPerson string         `db:"contact_person" json:"contactPerson,omitempty"`
	Email         string         `db:"email" json:"email,omitempty"`
	Phone         string         `db:"phone" json:"phone"`
	Address       `json:"address"`
	PaymentTerms  string         `db:"payment_terms" json:"paymentTerms"`
	Status        SupplierStatus `db:"status" json:"status"`
	Notes         string         `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`

	Products []Product `db:"-" json:"products,omitempty"`
}

// User roles
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// User is an operator of the dashboard
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit"`
}

func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Pages: pages, Limit: limit}
}

// MaxPageLimit caps the page size of every listing.
const MaxPageLimit = 1000

// maxOffset is the furthest a listing may skip.
const maxOffset = math.MaxInt32

// Paging resolves the page and limit of a listing request. Page defaults to
// 1, limit to def, and limits above MaxPageLimit are capped. A page whose
// offset would pass maxOffset is a validation error.
func Paging(page, limit, def int) (int, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit < 1 || limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page-1 > maxOffset/limit {
		return 0, 0, apperr.Validation("Invalid pagination",
			apperr.FieldError{Field: "page", Message: fmt.Sprintf("must be at most %d", maxOffset/limit+1)})
	}
	return page, limit, nil
}

// Offset returns the number of rows to skip for a 1-based page, saturating
// at maxOffset.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > maxOffset/limit {
		return maxOffset
	}
	return (page - 1) * limit
}
