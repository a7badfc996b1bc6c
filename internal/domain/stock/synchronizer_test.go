package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradelink/backend/internal/domain/order"
	"github.com/tradelink/backend/internal/domain/shared"
)

// fakeStockRepo keeps ledger entries in memory, keyed the way the real
// repository queries them.
type fakeStockRepo struct {
	ledgers     map[uuid.UUID]*Ledger
	saveErr     error
	saveLockErr error
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{ledgers: make(map[uuid.UUID]*Ledger)}
}

func (r *fakeStockRepo) add(l *Ledger) {
	r.ledgers[l.ID] = l
}

func (r *fakeStockRepo) FindByID(_ context.Context, id uuid.UUID) (*Ledger, error) {
	if l, ok := r.ledgers[id]; ok {
		return l, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStockRepo) FindForProduct(_ context.Context, kind LedgerKind, ownerID, productID uuid.UUID) (*Ledger, error) {
	for _, l := range r.ledgers {
		if l.Kind == kind && l.OwnerID == ownerID && l.ProductID == productID {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeStockRepo) FindBySourceOrder(_ context.Context, orderID uuid.UUID) (*Ledger, error) {
	for _, l := range r.ledgers {
		if l.SourceOrderID != nil && *l.SourceOrderID == orderID {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeStockRepo) ExistsForSourceOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	l, err := r.FindBySourceOrder(ctx, orderID)
	return l != nil, err
}

func (r *fakeStockRepo) FindByOwner(_ context.Context, kind LedgerKind, ownerID uuid.UUID, _ shared.Filter) ([]Ledger, error) {
	var out []Ledger
	for _, l := range r.ledgers {
		if l.Kind == kind && l.OwnerID == ownerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) CountByOwner(ctx context.Context, kind LedgerKind, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	ledgers, err := r.FindByOwner(ctx, kind, ownerID, filter)
	return int64(len(ledgers)), err
}

func (r *fakeStockRepo) FindLowStockByOwner(_ context.Context, kind LedgerKind, ownerID uuid.UUID) ([]Ledger, error) {
	var out []Ledger
	for _, l := range r.ledgers {
		if l.Kind == kind && l.OwnerID == ownerID && l.LowStockAlert {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) Save(_ context.Context, l *Ledger) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.ledgers[l.ID] = l
	return nil
}

func (r *fakeStockRepo) SaveWithLock(ctx context.Context, l *Ledger) error {
	if r.saveLockErr != nil {
		return r.saveLockErr
	}
	return r.Save(ctx, l)
}

var _ Repository = (*fakeStockRepo)(nil)

func certifiableOrder(t *testing.T, quantity int64) *order.Order {
	t.Helper()
	o, err := order.NewOrder(order.NewOrderParams{
		OrderNumber:  "ORD-2026-00007",
		RetailerID:   uuid.New(),
		WholesalerID: uuid.New(),
		ProductID:    uuid.New(),
		ProductName:  "Green Tea",
		Quantity:     decimal.NewFromInt(quantity),
		UnitPrice:    decimal.NewFromInt(8),
	})
	require.NoError(t, err)
	return o
}

func wholesalerLedgerFor(t *testing.T, o *order.Order, quantity int64) *Ledger {
	t.Helper()
	l, err := NewLedger(KindWholesaler, o.WholesalerID, o.ProductID,
		decimal.NewFromInt(quantity), decimal.Zero)
	require.NoError(t, err)
	return l
}

func TestSynchronizerDecrement(t *testing.T) {
	ctx := context.Background()
	sync := NewSynchronizer()

	t.Run("deducts once and stamps the marker", func(t *testing.T) {
		repo := newFakeStockRepo()
		o := certifiableOrder(t, 10)
		ledger := wholesalerLedgerFor(t, o, 100)
		repo.add(ledger)

		require.NoError(t, sync.Decrement(ctx, repo, o))
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(90)))
		require.NotNil(t, o.StockDeductedAt)

		// Retried transition: marker makes the second call a no-op.
		require.NoError(t, sync.Decrement(ctx, repo, o))
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(90)))
	})

	t.Run("missing ledger is fatal", func(t *testing.T) {
		repo := newFakeStockRepo()
		o := certifiableOrder(t, 10)

		err := sync.Decrement(ctx, repo, o)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "STOCK_NOT_FOUND", derr.Code)
		assert.Nil(t, o.StockDeductedAt)
	})

	t.Run("shortfall leaves ledger and marker untouched", func(t *testing.T) {
		repo := newFakeStockRepo()
		o := certifiableOrder(t, 10)
		ledger := wholesalerLedgerFor(t, o, 5)
		repo.add(ledger)

		err := sync.Decrement(ctx, repo, o)
		require.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(5)))
		assert.Nil(t, o.StockDeductedAt)
	})

	t.Run("failed save leaves no marker", func(t *testing.T) {
		repo := newFakeStockRepo()
		o := certifiableOrder(t, 10)
		repo.add(wholesalerLedgerFor(t, o, 100))
		repo.saveLockErr = shared.ErrConcurrencyConflict

		require.Error(t, sync.Decrement(ctx, repo, o))
		assert.Nil(t, o.StockDeductedAt)
	})

	t.Run("nil order is rejected", func(t *testing.T) {
		require.Error(t, sync.Decrement(ctx, newFakeStockRepo(), nil))
	})
}

func TestSynchronizerRestore(t *testing.T) {
	ctx := context.Background()
	sync := NewSynchronizer()

	t.Run("restores deducted quantity once", func(t *testing.T) {
		repo := newFakeStockRepo()
		o := certifiableOrder(t, 10)
		ledger := wholesalerLedgerFor(t, o, 100)
		repo.add(ledger)

		require.NoError(t, sync.Decrement(ctx, repo, o))
		require.NoError(t, sync.Restore(ctx, repo, o))
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(100)))
		require.NotNil(t, o.StockRestoredAt)

		require.NoError(t, sync.Restore(ctx, repo, o))
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(100)), "second restore is a no-op")
	})

	t.Run("never-deducted order is a no-op", func(t *testing.T) {
		repo := newFakeStockRepo()
		o := certifiableOrder(t, 10)
		ledger := wholesalerLedgerFor(t, o, 100)
		repo.add(ledger)

		require.NoError(t, sync.Restore(ctx, repo, o))
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(100)))
		assert.Nil(t, o.StockRestoredAt)
	})

	t.Run("missing ledger is an error", func(t *testing.T) {
		repo := newFakeStockRepo()
		o := certifiableOrder(t, 10)
		deducted := o.CreatedAt
		o.StockDeductedAt = &deducted

		err := sync.Restore(ctx, repo, o)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "STOCK_NOT_FOUND", derr.Code)
	})
}

func TestSynchronizerMirrorCertifiedOrder(t *testing.T) {
	ctx := context.Background()
	sync := NewSynchronizer()

	t.Run("creates one system entry per order", func(t *testing.T) {
		repo := newFakeStockRepo()
		o := certifiableOrder(t, 10)

		require.NoError(t, sync.MirrorCertifiedOrder(ctx, repo, o))

		entry, err := repo.FindBySourceOrder(ctx, o.ID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, KindSystem, entry.Kind)
		assert.Equal(t, o.RetailerID, entry.OwnerID)
		assert.Equal(t, o.ProductID, entry.ProductID)
		assert.True(t, entry.Quantity.Equal(o.Quantity))

		// A second certification attempt must not create a duplicate.
		require.NoError(t, sync.MirrorCertifiedOrder(ctx, repo, o))
		count := 0
		for _, l := range repo.ledgers {
			if l.SourceOrderID != nil && *l.SourceOrderID == o.ID {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("save failure surfaces", func(t *testing.T) {
		repo := newFakeStockRepo()
		repo.saveErr = shared.NewDomainError("DB_DOWN", "boom")
		o := certifiableOrder(t, 10)
		require.Error(t, sync.MirrorCertifiedOrder(ctx, repo, o))
	})
}
