package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/shared"
)

// LedgerKind identifies which of the three stock ledgers an entry belongs to
type LedgerKind string

const (
	// KindWholesaler is the wholesaler's sellable product stock, decremented
	// by order certification and restored by accepted returns.
	KindWholesaler LedgerKind = "wholesaler"
	// KindRetailer is stock the retailer entered manually.
	KindRetailer LedgerKind = "retailer"
	// KindSystem mirrors a certified order on the retailer side; one entry
	// per order, created idempotently.
	KindSystem LedgerKind = "system"
)

// IsValid checks if the kind is a known LedgerKind
func (k LedgerKind) IsValid() bool {
	switch k {
	case KindWholesaler, KindRetailer, KindSystem:
		return true
	}
	return false
}

// Ledger is a per-owner inventory record. All three kinds share the same
// quantity/threshold/low-stock contract.
type Ledger struct {
	shared.BaseAggregateRoot
	Kind      LedgerKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_stock_ledger_owner_product,priority:1"`
	OwnerID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stock_ledger_owner_product,priority:2"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stock_ledger_owner_product,priority:3"`
	// SourceOrderID ties a system-kind entry 1:1 to the certified order that
	// created it.
	SourceOrderID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`

	Quantity         decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	OriginalQuantity *decimal.Decimal `gorm:"type:decimal(18,4)"`
	MinStockLevel    decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	LowStockAlert    bool             `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Ledger) TableName() string {
	return "stock_ledgers"
}

// NewLedger creates a ledger entry with an initial quantity. The initial
// quantity doubles as the original-quantity baseline.
func NewLedger(kind LedgerKind, ownerID, productID uuid.UUID, quantity, minStockLevel decimal.Decimal) (*Ledger, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_LEDGER_KIND", "Unknown stock ledger kind")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Ledger owner ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Ledger product ID cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Ledger quantity cannot be negative")
	}
	if minStockLevel.IsNegative() {
		return nil, shared.NewDomainError("INVALID_THRESHOLD", "Minimum stock level cannot be negative")
	}

	original := quantity
	ledger := &Ledger{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		OwnerID:           ownerID,
		ProductID:         productID,
		Quantity:          quantity,
		OriginalQuantity:  &original,
		MinStockLevel:     minStockLevel,
	}
	ledger.recomputeAlert()
	return ledger, nil
}

// alertThreshold returns max(minStockLevel, 0.5 * originalQuantity)
func (l *Ledger) alertThreshold() decimal.Decimal {
	threshold := l.MinStockLevel
	if l.OriginalQuantity != nil {
		half := l.OriginalQuantity.Div(decimal.NewFromInt(2))
		if half.GreaterThan(threshold) {
			threshold = half
		}
	}
	return threshold
}

// recomputeAlert re-derives LowStockAlert from the current quantity.
// Invariant: lowStockAlert is true iff
// quantity <= max(minStockLevel, 0.5 * originalQuantity).
func (l *Ledger) recomputeAlert() {
	l.LowStockAlert = l.Quantity.LessThanOrEqual(l.alertThreshold())
}

// CanFulfill reports whether the ledger holds at least the requested
// quantity
func (l *Ledger) CanFulfill(quantity decimal.Decimal) bool {
	return l.Quantity.GreaterThanOrEqual(quantity)
}

// Decrement subtracts quantity from the ledger. The first decrement
// snapshots the pre-decrement quantity as the original-quantity baseline.
// Quantity never goes negative: a shortfall fails without mutating.
func (l *Ledger) Decrement(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Decrement quantity must be positive")
	}
	if l.Quantity.LessThan(quantity) {
		return shared.ErrInsufficientStock
	}

	if l.OriginalQuantity == nil {
		snapshot := l.Quantity
		l.OriginalQuantity = &snapshot
	}

	l.Quantity = l.Quantity.Sub(quantity)
	l.recomputeAlert()
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// Restore adds quantity back to the ledger and recomputes the alert against
// the stored original quantity
func (l *Ledger) Restore(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Restore quantity must be positive")
	}

	l.Quantity = l.Quantity.Add(quantity)
	l.recomputeAlert()
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// SetMinStockLevel updates the reorder threshold and re-derives the alert
func (l *Ledger) SetMinStockLevel(level decimal.Decimal) error {
	if level.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Minimum stock level cannot be negative")
	}
	l.MinStockLevel = level
	l.recomputeAlert()
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}
