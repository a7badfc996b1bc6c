package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/order"
	"github.com/tradelink/backend/internal/domain/shared"
)

// Synchronizer keeps the stock ledgers consistent with order lifecycle
// transitions. Callers run it inside the same transaction that persists the
// order; the per-order markers make every operation idempotent so a retried
// transition never deducts or restores twice.
type Synchronizer struct{}

// NewSynchronizer creates a stock synchronizer
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// Decrement deducts the order quantity from the wholesaler's product ledger
// when the order is certified. A shortfall or missing ledger is fatal and the
// ledger is left untouched. Already-deducted orders are a no-op.
func (s *Synchronizer) Decrement(ctx context.Context, repo Repository, o *order.Order) error {
	if o == nil {
		return shared.NewDomainError("INVALID_ORDER", "Order cannot be nil")
	}
	if o.StockDeductedAt != nil {
		return nil
	}

	ledger, err := repo.FindForProduct(ctx, KindWholesaler, o.WholesalerID, o.ProductID)
	if err != nil {
		return err
	}
	if ledger == nil {
		return shared.NewDomainError("STOCK_NOT_FOUND", "No stock ledger entry for the ordered product")
	}

	if err := ledger.Decrement(o.Quantity); err != nil {
		return err
	}
	ledger.AddDomainEvent(NewStockDecrementedEvent(ledger, o.ID, o.Quantity))
	if ledger.LowStockAlert {
		ledger.AddDomainEvent(NewLowStockRaisedEvent(ledger))
	}

	if err := repo.SaveWithLock(ctx, ledger); err != nil {
		return err
	}

	now := time.Now()
	o.StockDeductedAt = &now
	return nil
}

// Restore adds the order quantity back to the wholesaler's product ledger
// after an accepted return. Already-restored orders and orders that never had
// stock deducted are no-ops.
func (s *Synchronizer) Restore(ctx context.Context, repo Repository, o *order.Order) error {
	if o == nil {
		return shared.NewDomainError("INVALID_ORDER", "Order cannot be nil")
	}
	if o.StockRestoredAt != nil || o.StockDeductedAt == nil {
		return nil
	}

	ledger, err := repo.FindForProduct(ctx, KindWholesaler, o.WholesalerID, o.ProductID)
	if err != nil {
		return err
	}
	if ledger == nil {
		return shared.NewDomainError("STOCK_NOT_FOUND", "No stock ledger entry for the ordered product")
	}

	if err := ledger.Restore(o.Quantity); err != nil {
		return err
	}
	ledger.AddDomainEvent(NewStockRestoredEvent(ledger, o.ID, o.Quantity))
	if ledger.LowStockAlert {
		ledger.AddDomainEvent(NewLowStockRaisedEvent(ledger))
	}

	if err := repo.SaveWithLock(ctx, ledger); err != nil {
		return err
	}

	now := time.Now()
	o.StockRestoredAt = &now
	return nil
}

// MirrorCertifiedOrder creates the retailer-side system ledger entry for a
// certified order. The entry is tied 1:1 to the order, so a second call for
// the same order is a no-op.
func (s *Synchronizer) MirrorCertifiedOrder(ctx context.Context, repo Repository, o *order.Order) error {
	if o == nil {
		return shared.NewDomainError("INVALID_ORDER", "Order cannot be nil")
	}

	exists, err := repo.ExistsForSourceOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	entry, err := NewLedger(KindSystem, o.RetailerID, o.ProductID, o.Quantity, decimal.Zero)
	if err != nil {
		return err
	}
	orderID := o.ID
	entry.SourceOrderID = &orderID
	entry.AddDomainEvent(NewSystemEntryCreatedEvent(entry, o.ID))

	return repo.Save(ctx, entry)
}
