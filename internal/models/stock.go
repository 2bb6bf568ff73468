package models

// StockGuard is the precondition a stock delta must satisfy to be applied.
type StockGuard int

const (
	// GuardNone applies the delta unconditionally, clamping at zero.
	GuardNone StockGuard = iota
	// GuardAvailable rejects a deduction larger than the current quantity.
	GuardAvailable
	// GuardSellable additionally requires the product to be active.
	GuardSellable
)

func (g StockGuard) String() string {
	switch g {
	case GuardAvailable:
		return "available"
	case GuardSellable:
		return "sellable"
	default:
		return "none"
	}
}

// Permits reports whether delta may be applied to p under the guard.
// Increases always pass.
func (g StockGuard) Permits(p *Product, delta int) bool {
	if delta >= 0 || g == GuardNone {
		return true
	}
	if g == GuardSellable {
		return p.HasSufficientStock(-delta)
	}
	return p.Quantity >= -delta
}

// HasSufficientStock is true only for active products holding at least required units.
func (p *Product) HasSufficientStock(required int) bool {
	return p.Quantity >= required && p.Status == ProductStatusActive
}

// ApplyStockDelta adjusts the quantity, clamping at zero, and re-derives the status.
// It reports whether the clamp was hit.
func (p *Product) ApplyStockDelta(delta int) bool {
	next := p.Quantity + delta
	clamped := next < 0
	if clamped {
		next = 0
	}
	p.Quantity = next
	p.Status = DeriveStatus(next, p.Status)
	return clamped
}

// DeriveStatus moves between active and out_of_stock as quantity crosses zero.
// Discontinued is sticky.
func DeriveStatus(quantity int, current ProductStatus) ProductStatus {
	switch {
	case quantity == 0 && current != ProductStatusDiscontinued:
		return ProductStatusOutOfStock
	case quantity > 0 && current == ProductStatusOutOfStock:
		return ProductStatusActive
	default:
		return current
	}
}

// IsLowStock applies both the per-product reorder level and the global threshold.
func (p *Product) IsLowStock(threshold int) bool {
	return p.Quantity <= p.ReorderLevel || p.Quantity <= threshold
}
