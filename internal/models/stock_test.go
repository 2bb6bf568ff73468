package models

import (
	"math"
	"testing"
	"time"

	"inventory-service/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStockDelta(t *testing.T) {
	tests := []struct {
		name        string
		quantity    int
		status      ProductStatus
		delta       int
		wantQty     int
		wantStatus  ProductStatus
		wantClamped bool
	}{
		{"deduct to zero flips out of stock", 1, ProductStatusActive, -1, 0, ProductStatusOutOfStock, false},
		{"restock reactivates", 0, ProductStatusOutOfStock, 5, 5, ProductStatusActive, false},
		{"over-deduct clamps", 3, ProductStatusActive, -10, 0, ProductStatusOutOfStock, true},
		{"discontinued stays at zero", 1, ProductStatusDiscontinued, -1, 0, ProductStatusDiscontinued, false},
		{"discontinued stays on restock", 0, ProductStatusDiscontinued, 4, 4, ProductStatusDiscontinued, false},
		{"active stays active", 10, ProductStatusActive, -3, 7, ProductStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{Quantity: tt.quantity, Status: tt.status}
			clamped := p.ApplyStockDelta(tt.delta)

			assert.Equal(t, tt.wantQty, p.Quantity)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantClamped, clamped)
			assert.GreaterOrEqual(t, p.Quantity, 0)
		})
	}
}

func TestHasSufficientStock(t *testing.T) {
	active := &Product{Quantity: 5, Status: ProductStatusActive}
	assert.True(t, active.HasSufficientStock(5))
	assert.False(t, active.HasSufficientStock(6))

	discontinued := &Product{Quantity: 5, Status: ProductStatusDiscontinued}
	assert.False(t, discontinued.HasSufficientStock(1))
}

func TestStockGuardPermits(t *testing.T) {
	p := &Product{Quantity: 2, Status: ProductStatusDiscontinued}

	assert.True(t, GuardNone.Permits(p, -5))
	assert.True(t, GuardAvailable.Permits(p, -2))
	assert.False(t, GuardAvailable.Permits(p, -3))
	assert.False(t, GuardSellable.Permits(p, -1))
	assert.True(t, GuardSellable.Permits(p, 1))
}

func TestIsLowStock(t *testing.T) {
	p := &Product{Quantity: 12, ReorderLevel: 15}
	assert.True(t, p.IsLowStock(10))

	p = &Product{Quantity: 8, ReorderLevel: 0}
	assert.True(t, p.IsLowStock(10))

	p = &Product{Quantity: 50, ReorderLevel: 10}
	assert.False(t, p.IsLowStock(10))
}

func TestCreateProductInputDefaults(t *testing.T) {
	qty := 0
	price := decimal.NewFromInt(25)
	in := &CreateProductInput{Name: "  Rice ", Category: "Grocery", Quantity: &qty, Price: &price}

	require.NoError(t, in.Validate())
	p := in.ToProduct()

	assert.Equal(t, "Rice", p.Name)
	assert.Equal(t, DefaultReorderLevel, p.ReorderLevel)
	assert.Equal(t, DefaultUnit, p.Unit)
	assert.Equal(t, ProductStatusOutOfStock, p.Status)
	assert.Nil(t, p.Barcode)
}

func TestCreateProductInputRejectsNegativePrice(t *testing.T) {
	qty := 1
	price := decimal.NewFromInt(-1)
	in := &CreateProductInput{Name: "Rice", Category: "Grocery", Quantity: &qty, Price: &price}

	err := in.Validate()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Equal(t, "price", e.Fields[0].Field)
}

func TestUpdateProductInputLeavesQuantityAlone(t *testing.T) {
	p := &Product{Quantity: 0, Status: ProductStatusOutOfStock}
	qty := 3
	active := ProductStatusActive
	(&UpdateProductInput{Quantity: &qty, Status: &active}).Apply(p)
	assert.Equal(t, 0, p.Quantity)
	assert.Equal(t, ProductStatusOutOfStock, p.Status)

	discontinued := ProductStatusDiscontinued
	(&UpdateProductInput{Status: &discontinued}).Apply(p)
	assert.Equal(t, ProductStatusDiscontinued, p.Status)
}

func TestCreateSaleInputValidate(t *testing.T) {
	price := decimal.NewFromInt(10)
	in := &CreateSaleInput{Quantity: 0, Price: &price, PaymentMethod: "cheque"}

	e, ok := apperr.As(in.Validate())
	require.True(t, ok)
	assert.Len(t, e.Fields, 3)
}

func TestSaleNumber(t *testing.T) {
	s := &Sale{ID: "3f2b8a4e-1c2d-4e5f-8a9b-0c1d2eabc123"}
	assert.Equal(t, "SALE-ABC123", s.SaleNumber())
}

func TestDateRangeContainsInclusive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	r := DateRange{Start: &start, End: &end}

	assert.True(t, r.Contains(start))
	assert.True(t, r.Contains(end))
	assert.False(t, r.Contains(end.Add(time.Second)))
	assert.True(t, DateRange{}.Contains(time.Now()))
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Total: 21, Page: 2, Pages: 3, Limit: 10}, NewPagination(21, 2, 10))
	assert.Equal(t, 10, Offset(2, 10))
	assert.Equal(t, 0, Offset(0, 10))
	assert.Equal(t, math.MaxInt32, Offset(1<<62, 4))
}

func TestPaging(t *testing.T) {
	tests := []struct {
		name                string
		page, limit, def    int
		wantPage, wantLimit int
		wantErr             bool
	}{
		{name: "defaults", page: 0, limit: 0, def: 100, wantPage: 1, wantLimit: 100},
		{name: "negative page", page: -3, limit: 20, def: 100, wantPage: 1, wantLimit: 20},
		{name: "limit capped", page: 2, limit: 50000, def: 100, wantPage: 2, wantLimit: MaxPageLimit},
		{name: "last reachable page", page: math.MaxInt32/4 + 1, limit: 4, def: 100, wantPage: math.MaxInt32/4 + 1, wantLimit: 4},
		{name: "overflowing page", page: 1 << 62, limit: 4, def: 100, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, err := Paging(tt.page, tt.limit, tt.def)
			if tt.wantErr {
				assert.True(t, apperr.Is(err, apperr.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestPricesLimitedToTwoDecimals(t *testing.T) {
	fine := decimal.RequireFromString("10.500")
	tooPrecise := decimal.RequireFromString("0.005")
	qty := 3

	tests := []struct {
		name    string
		input   interface{ Validate() error }
		wantErr bool
	}{
		{name: "sale trailing zeros", input: &CreateSaleInput{ProductName: "Rice", Quantity: qty, Price: &fine}},
		{name: "sale sub-cent", input: &CreateSaleInput{ProductName: "Rice", Quantity: qty, Price: &tooPrecise}, wantErr: true},
		{name: "create sub-cent", input: &CreateProductInput{Name: "Rice", Category: "Grocery", Quantity: &qty, Price: &tooPrecise}, wantErr: true},
		{name: "update sub-cent", input: &UpdateProductInput{Price: &tooPrecise}, wantErr: true},
		{name: "update without price", input: &UpdateProductInput{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, []apperr.FieldError{{Field: "price", Message: "must have at most 2 decimal places"}}, e.Fields)
		})
	}
}
