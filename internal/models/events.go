package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSaleCreated      = "SALE_CREATED"
	EventTypeSaleDeleted      = "SALE_DELETED"
	EventTypeStockAdjusted    = "STOCK_ADJUSTED"
	EventTypeLowStockDetected = "LOW_STOCK_DETECTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// SaleCreatedEvent published after a sale and its stock deduction commit
type SaleCreatedEvent struct {
	BaseEvent
	SaleID        string          `json:"sale_id"`
	ProductID     string          `json:"product_id"`
	Quantity      int             `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	RemainingQty  int             `json:"remaining_quantity"`
	ProductStatus ProductStatus   `json:"product_status"`
}

// SaleDeletedEvent published after a sale is removed; Restored is false when
// the product no longer existed.
type SaleDeletedEvent struct {
	BaseEvent
	SaleID    string `json:"sale_id"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity"`
	Restored  bool   `json:"restored"`
}

// StockAdjustedEvent published for direct restock/correction calls
type StockAdjustedEvent struct {
	BaseEvent
	ProductID      string        `json:"product_id"`
	QuantityChange int           `json:"quantity_change"`
	NewQuantity    int           `json:"new_quantity"`
	Status         ProductStatus `json:"status"`
	Reason         string        `json:"reason,omitempty"`
}

// LowStockDetectedEvent carries everything the alert worker needs to notify
// without reading the database again.
type LowStockDetectedEvent struct {
	BaseEvent
	Alert LowStockAlert `json:"alert"`
}

// LowStockAlert is the payload handed to notification sinks
type LowStockAlert struct {
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Quantity      int       `json:"quantity"`
	ReorderLevel  int       `json:"reorder_level"`
	Threshold     int       `json:"threshold"`
	Reasons       []string  `json:"reasons"`
	SupplierName  string    `json:"supplier_name,omitempty"`
	SupplierEmail string    `json:"supplier_email,omitempty"`
	SupplierPhone string    `json:"supplier_phone,omitempty"`
	DetectedAt    time.Time `json:"detected_at"`
}
