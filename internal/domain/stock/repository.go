package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradelink/backend/internal/domain/shared"
)

// Repository defines the interface for stock ledger persistence
type Repository interface {
	// FindByID finds a ledger entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Ledger, error)

	// FindForProduct finds the ledger entry of kind/owner/product.
	// A missing entry is (nil, nil), not an error.
	FindForProduct(ctx context.Context, kind LedgerKind, ownerID, productID uuid.UUID) (*Ledger, error)

	// FindBySourceOrder finds the system-kind entry created for an order.
	// A missing entry is (nil, nil), not an error.
	FindBySourceOrder(ctx context.Context, orderID uuid.UUID) (*Ledger, error)

	// ExistsForSourceOrder checks whether an order already has a system entry
	ExistsForSourceOrder(ctx context.Context, orderID uuid.UUID) (bool, error)

	// FindByOwner finds all ledger entries of a kind for an owner
	FindByOwner(ctx context.Context, kind LedgerKind, ownerID uuid.UUID, filter shared.Filter) ([]Ledger, error)

	// CountByOwner counts ledger entries of a kind for an owner
	CountByOwner(ctx context.Context, kind LedgerKind, ownerID uuid.UUID, filter shared.Filter) (int64, error)

	// FindLowStockByOwner finds entries with the low-stock alert raised
	FindLowStockByOwner(ctx context.Context, kind LedgerKind, ownerID uuid.UUID) ([]Ledger, error)

	// Save creates or updates a ledger entry
	Save(ctx context.Context, l *Ledger) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, l *Ledger) error
}
