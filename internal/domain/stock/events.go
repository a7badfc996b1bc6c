package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/shared"
)

// Event types for the stock ledger aggregate
const (
	EventStockDecremented   = "stock.decremented"
	EventStockRestored      = "stock.restored"
	EventLowStockRaised     = "stock.low_stock_raised"
	EventSystemEntryCreated = "stock.system_entry_created"
)

const aggregateType = "StockLedger"

// StockDecrementedEvent is emitted when order certification deducts stock
type StockDecrementedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Remaining decimal.Decimal `json:"remaining"`
}

// NewStockDecrementedEvent creates a StockDecrementedEvent
func NewStockDecrementedEvent(l *Ledger, orderID uuid.UUID, quantity decimal.Decimal) *StockDecrementedEvent {
	return &StockDecrementedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventStockDecremented, aggregateType, l.ID),
		OrderID:         orderID,
		ProductID:       l.ProductID,
		Quantity:        quantity,
		Remaining:       l.Quantity,
	}
}

// StockRestoredEvent is emitted when an accepted return adds stock back
type StockRestoredEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Remaining decimal.Decimal `json:"remaining"`
}

// NewStockRestoredEvent creates a StockRestoredEvent
func NewStockRestoredEvent(l *Ledger, orderID uuid.UUID, quantity decimal.Decimal) *StockRestoredEvent {
	return &StockRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventStockRestored, aggregateType, l.ID),
		OrderID:         orderID,
		ProductID:       l.ProductID,
		Quantity:        quantity,
		Remaining:       l.Quantity,
	}
}

// LowStockRaisedEvent is emitted when a mutation drops a ledger to or below
// its alert threshold
type LowStockRaisedEvent struct {
	shared.BaseDomainEvent
	Kind      LedgerKind      `json:"kind"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// NewLowStockRaisedEvent creates a LowStockRaisedEvent
func NewLowStockRaisedEvent(l *Ledger) *LowStockRaisedEvent {
	return &LowStockRaisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventLowStockRaised, aggregateType, l.ID),
		Kind:            l.Kind,
		OwnerID:         l.OwnerID,
		ProductID:       l.ProductID,
		Quantity:        l.Quantity,
	}
}

// SystemEntryCreatedEvent is emitted when a certified order is mirrored into
// the system-tracked ledger
type SystemEntryCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID       `json:"order_id"`
	RetailerID uuid.UUID       `json:"retailer_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// NewSystemEntryCreatedEvent creates a SystemEntryCreatedEvent
func NewSystemEntryCreatedEvent(l *Ledger, orderID uuid.UUID) *SystemEntryCreatedEvent {
	return &SystemEntryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventSystemEntryCreated, aggregateType, l.ID),
		OrderID:         orderID,
		RetailerID:      l.OwnerID,
		ProductID:       l.ProductID,
		Quantity:        l.Quantity,
	}
}
