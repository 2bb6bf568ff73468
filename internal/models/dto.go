package models

import (
	"strings"
	"time"

	"inventory-service/internal/apperr"

	"github.com/shopspring/decimal"
)

const (
	DefaultReorderLevel = 10
	DefaultUnit         = "piece"
	DefaultPaymentTerms = "Net 30"
	DefaultCountry      = "India"
)

// CreateProductInput is the body of POST /products
type CreateProductInput struct {
	Name         string           `json:"name" binding:"required,max=200"`
	Category     string           `json:"category" binding:"required,max=100"`
	Quantity     *int             `json:"quantity" binding:"required,min=0"`
	Price        *decimal.Decimal `json:"price" binding:"required"`
	ReorderLevel *int             `json:"reorderLevel" binding:"omitempty,min=0"`
	Unit         string           `json:"unit" binding:"max=50"`
	Status       ProductStatus    `json:"status" binding:"omitempty,oneof=active discontinued out_of_stock"`
	SupplierID   string           `json:"supplierId"`
	Barcode      string           `json:"barcode"`
	Description  string           `json:"description" binding:"max=1000"`
}

// Validate checks the rules binding tags cannot express.
func (in *CreateProductInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Barcode = strings.TrimSpace(in.Barcode)

	var fields []apperr.FieldError
	if in.Name == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "is required"})
	}
	if in.Category == "" {
		fields = append(fields, apperr.FieldError{Field: "category", Message: "is required"})
	}
	if in.Quantity == nil || *in.Quantity < 0 {
		fields = append(fields, apperr.FieldError{Field: "quantity", Message: "cannot be negative"})
	}
	if f, ok := priceError(in.Price, true); !ok {
		fields = append(fields, f)
	}
	if in.ReorderLevel != nil && *in.ReorderLevel < 0 {
		fields = append(fields, apperr.FieldError{Field: "reorderLevel", Message: "cannot be negative"})
	}
	if in.Status != "" && !in.Status.Valid() {
		fields = append(fields, apperr.FieldError{Field: "status", Message: "must be one of active, discontinued, out_of_stock"})
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid product", fields...)
	}
	return nil
}

// ToProduct applies defaults and derives the initial status from the quantity.
func (in *CreateProductInput) ToProduct() *Product {
	p := &Product{
		Name:         in.Name,
		Category:     in.Category,
		Quantity:     *in.Quantity,
		Price:        *in.Price,
		ReorderLevel: DefaultReorderLevel,
		Unit:         DefaultUnit,
		Status:       ProductStatusActive,
		SupplierID:   optional(in.SupplierID),
		Barcode:      optional(in.Barcode),
		Description:  optional(strings.TrimSpace(in.Description)),
	}
	if in.ReorderLevel != nil {
		p.ReorderLevel = *in.ReorderLevel
	}
	if in.Unit != "" {
		p.Unit = in.Unit
	}
	if in.Status != "" {
		p.Status = in.Status
	}
	p.Status = DeriveStatus(p.Quantity, p.Status)
	return p
}

// priceScale is the number of decimal places money columns store.
const priceScale = 2

// priceError checks a money amount: present when required, not negative and
// with no more than priceScale decimal places.
func priceError(price *decimal.Decimal, required bool) (apperr.FieldError, bool) {
	switch {
	case price == nil && !required:
		return apperr.FieldError{}, true
	case price == nil || price.IsNegative():
		return apperr.FieldError{Field: "price", Message: "cannot be negative"}, false
	case !price.Round(priceScale).Equal(*price):
		return apperr.FieldError{Field: "price", Message: "must have at most 2 decimal places"}, false
	}
	return apperr.FieldError{}, true
}

// UpdateProductInput is a partial update; nil fields are left untouched.
type UpdateProductInput struct {
	Name         *string          `json:"name" binding:"omitempty,max=200"`
	Category     *string          `json:"category" binding:"omitempty,max=100"`
	Quantity     *int             `json:"quantity" binding:"omitempty,min=0"`
	Price        *decimal.Decimal `json:"price"`
	ReorderLevel *int             `json:"reorderLevel" binding:"omitempty,min=0"`
	Unit         *string          `json:"unit" binding:"omitempty,max=50"`
	Status       *ProductStatus   `json:"status" binding:"omitempty,oneof=active discontinued out_of_stock"`
	SupplierID   *string          `json:"supplierId"`
	Barcode      *string          `json:"barcode"`
	Description  *string          `json:"description" binding:"omitempty,max=1000"`
}

func (in *UpdateProductInput) Validate() error {
	var fields []apperr.FieldError
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "cannot be empty"})
	}
	if in.Category != nil && strings.TrimSpace(*in.Category) == "" {
		fields = append(fields, apperr.FieldError{Field: "category", Message: "cannot be empty"})
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		fields = append(fields, apperr.FieldError{Field: "quantity", Message: "cannot be negative"})
	}
	if f, ok := priceError(in.Price, false); !ok {
		fields = append(fields, f)
	}
	if in.ReorderLevel != nil && *in.ReorderLevel < 0 {
		fields = append(fields, apperr.FieldError{Field: "reorderLevel", Message: "cannot be negative"})
	}
	if in.Status != nil && !in.Status.Valid() {
		fields = append(fields, apperr.FieldError{Field: "status", Message: "must be one of active, discontinued, out_of_stock"})
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid product update", fields...)
	}
	return nil
}

// Apply patches the descriptive fields and status of p in place. Quantity is
// not touched here; the ledger turns a quantity edit into a stock delta.
func (in *UpdateProductInput) Apply(p *Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.ReorderLevel != nil {
		p.ReorderLevel = *in.ReorderLevel
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.SupplierID != nil {
		p.SupplierID = optional(*in.SupplierID)
	}
	if in.Barcode != nil {
		p.Barcode = optional(strings.TrimSpace(*in.Barcode))
	}
	if in.Description != nil {
		p.Description = optional(strings.TrimSpace(*in.Description))
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	p.Status = DeriveStatus(p.Quantity, p.Status)
}

// StockAdjustmentInput is the body of PUT /products/:id/stock
type StockAdjustmentInput struct {
	QuantityChange *int   `json:"quantityChange" binding:"required"`
	Reason         string `json:"reason" binding:"max=500"`
}

// ProductFilter narrows GET /products
type ProductFilter struct {
	Category string        `form:"category"`
	Status   ProductStatus `form:"status"`
	Search   string        `form:"search"`
	LowStock bool          `form:"lowStock"`
	Page     int           `form:"page"`
	Limit    int           `form:"limit"`

	// Threshold is filled in by the ledger, never by the client.
	Threshold int `form:"-"`
}

// CreateSaleInput is the body of POST /sales. Either ProductID or ProductName
// must identify the catalog entry.
type CreateSaleInput struct {
	ProductName   string           `json:"productName" binding:"required_without=ProductID"`
	ProductID     string           `json:"productId" binding:"required_without=ProductName"`
	Category      string           `json:"category" binding:"max=100"`
	Quantity      int              `json:"quantity" binding:"required,min=1"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	CustomerName  string           `json:"customerName" binding:"max=200"`
	CustomerPhone string           `json:"customerPhone" binding:"max=20"`
	PaymentMethod PaymentMethod    `json:"paymentMethod" binding:"omitempty,oneof=cash card online"`
}

func (in *CreateSaleInput) Validate() error {
	in.ProductName = strings.TrimSpace(in.ProductName)
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Category = strings.TrimSpace(in.Category)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)

	var fields []apperr.FieldError
	if in.ProductID == "" && in.ProductName == "" {
		fields = append(fields, apperr.FieldError{Field: "productName", Message: "productName or productId is required"})
	}
	if in.Quantity < 1 {
		fields = append(fields, apperr.FieldError{Field: "quantity", Message: "must be at least 1"})
	}
	if f, ok := priceError(in.Price, true); !ok {
		fields = append(fields, f)
	}
	switch in.PaymentMethod {
	case "", PaymentMethodCash, PaymentMethodCard, PaymentMethodOnline:
	default:
		fields = append(fields, apperr.FieldError{Field: "paymentMethod", Message: "must be one of cash, card, online"})
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid sale", fields...)
	}
	return nil
}

// SaleFilter narrows GET /sales; both date bounds are inclusive.
type SaleFilter struct {
	StartDate *time.Time `form:"-"`
	EndDate   *time.Time `form:"-"`
	Category  string     `form:"category"`
	Status    SaleStatus `form:"status"`
	Page      int        `form:"page"`
	Limit     int        `form:"limit"`
}

// DateRange bounds analytics queries; nil ends are open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// SupplierInput is shared by create and update; Validate enforces create rules.
type SupplierInput struct {
	Name          *string         `json:"name" binding:"omitempty,max=200"`
	ContactPerson *string         `json:"contactPerson" binding:"omitempty,max=100"`
	Email         *string         `json:"email" binding:"omitempty,email,max=200"`
	Phone         *string         `json:"phone" binding:"omitempty,max=20"`
	Address       *Address        `json:"address"`
	PaymentTerms  *string         `json:"paymentTerms" binding:"omitempty,max=100"`
	Status        *SupplierStatus `json:"status" binding:"omitempty,oneof=active inactive"`
	Notes         *string         `json:"notes" binding:"omitempty,max=1000"`
}

func (in *SupplierInput) ValidateCreate() error {
	var fields []apperr.FieldError
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "is required"})
	}
	if in.Phone == nil || strings.TrimSpace(*in.Phone) == "" {
		fields = append(fields, apperr.FieldError{Field: "phone", Message: "is required"})
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid supplier", fields...)
	}
	return nil
}

// Apply copies the set fields onto s.
func (in *SupplierInput) Apply(s *Supplier) {
	if in.Name != nil {
		s.Name = strings.TrimSpace(*in.Name)
	}
	if in.ContactPerson != nil {
		s.ContactPerson = strings.TrimSpace(*in.ContactPerson)
	}
	if in.Email != nil {
		s.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		s.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		s.Address = *in.Address
	}
	if in.PaymentTerms != nil {
		s.PaymentTerms = *in.PaymentTerms
	}
	if in.Status != nil {
		s.Status = *in.Status
	}
	if in.Notes != nil {
		s.Notes = strings.TrimSpace(*in.Notes)
	}
	if s.PaymentTerms == "" {
		s.PaymentTerms = DefaultPaymentTerms
	}
	if s.Status == "" {
		s.Status = SupplierStatusActive
	}
	if s.Country == "" {
		s.Country = DefaultCountry
	}
}

// RegisterInput is the body of POST /auth/register
type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"omitempty,oneof=admin staff"`
}

// LoginInput is the body of POST /auth/login
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
