package order

import (
	"context"

	"github.com/tradelink/backend/internal/domain/order"
	"github.com/tradelink/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the order and stock
// repositories. A status transition and its stock side effects are executed
// inside one scope so they commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories participating
// in an order transition, all scoped to the same database transaction.
type TransactionalRepositories interface {
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() order.Repository
	// StockRepo returns the stock ledger repository scoped to the current transaction
	StockRepo() stock.Repository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is not
// required.
type NoOpTransactionScope struct {
	orderRepo order.Repository
	stockRepo stock.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(orderRepo order.Repository, stockRepo stock.Repository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo: orderRepo,
		stockRepo: stockRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() order.Repository {
	return s.orderRepo
}

// StockRepo returns the stock ledger repository.
func (s *NoOpTransactionScope) StockRepo() stock.Repository {
	return s.stockRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
