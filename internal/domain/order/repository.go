package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order by ID, with its assignment history loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindAll finds orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindForActor finds orders visible to the given actor: the actor's own
	// party column for retailer/wholesaler/transporter, everything for admin
	FindForActor(ctx context.Context, actor Actor, filter shared.Filter) ([]Order, error)

	// CountForActor counts orders visible to the given actor
	CountForActor(ctx context.Context, actor Actor, filter shared.Filter) (int64, error)

	// Save creates or updates an order together with its assignment history
	Save(ctx context.Context, o *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, o *Order) error

	// Delete hard-deletes an order and its assignment history
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStatusForActor counts orders per status visible to the actor
	CountByStatusForActor(ctx context.Context, actor Actor) (map[OrderStatus]int64, error)

	// SumRevenueForActor sums total price of certified, non-refunded orders
	// visible to the actor
	SumRevenueForActor(ctx context.Context, actor Actor) (decimal.Decimal, error)

	// GenerateOrderNumber generates a unique order number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
