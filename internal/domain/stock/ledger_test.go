package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradelink/backend/internal/domain/shared"
)

func newTestLedger(t *testing.T, quantity, minLevel int64) *Ledger {
	t.Helper()
	l, err := NewLedger(KindWholesaler, uuid.New(), uuid.New(),
		decimal.NewFromInt(quantity), decimal.NewFromInt(minLevel))
	require.NoError(t, err)
	return l
}

func TestLedgerKindIsValid(t *testing.T) {
	assert.True(t, KindWholesaler.IsValid())
	assert.True(t, KindRetailer.IsValid())
	assert.True(t, KindSystem.IsValid())
	assert.False(t, LedgerKind("warehouse").IsValid())
}

func TestNewLedger(t *testing.T) {
	t.Run("snapshots the original quantity", func(t *testing.T) {
		l := newTestLedger(t, 100, 10)
		require.NotNil(t, l.OriginalQuantity)
		assert.True(t, l.OriginalQuantity.Equal(decimal.NewFromInt(100)))
		assert.False(t, l.LowStockAlert)
		assert.Equal(t, 1, l.Version)
	})

	t.Run("fails on unknown kind", func(t *testing.T) {
		_, err := NewLedger(LedgerKind("warehouse"), uuid.New(), uuid.New(), decimal.NewFromInt(1), decimal.Zero)
		require.Error(t, err)
	})

	t.Run("fails on nil owner or product", func(t *testing.T) {
		_, err := NewLedger(KindRetailer, uuid.Nil, uuid.New(), decimal.NewFromInt(1), decimal.Zero)
		require.Error(t, err)
		_, err = NewLedger(KindRetailer, uuid.New(), uuid.Nil, decimal.NewFromInt(1), decimal.Zero)
		require.Error(t, err)
	})

	t.Run("fails on negative quantity or threshold", func(t *testing.T) {
		_, err := NewLedger(KindRetailer, uuid.New(), uuid.New(), decimal.NewFromInt(-1), decimal.Zero)
		require.Error(t, err)
		_, err = NewLedger(KindRetailer, uuid.New(), uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(-1))
		require.Error(t, err)
	})

	t.Run("zero quantity starts with alert raised", func(t *testing.T) {
		l, err := NewLedger(KindRetailer, uuid.New(), uuid.New(), decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, l.LowStockAlert)
	})
}

func TestLedgerDecrement(t *testing.T) {
	t.Run("subtracts and bumps version", func(t *testing.T) {
		l := newTestLedger(t, 100, 0)
		require.NoError(t, l.Decrement(decimal.NewFromInt(30)))
		assert.True(t, l.Quantity.Equal(decimal.NewFromInt(70)))
		assert.Equal(t, 2, l.Version)
	})

	t.Run("shortfall fails without mutating", func(t *testing.T) {
		l := newTestLedger(t, 10, 0)
		err := l.Decrement(decimal.NewFromInt(11))
		require.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.True(t, l.Quantity.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, 1, l.Version)
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		l := newTestLedger(t, 10, 0)
		require.Error(t, l.Decrement(decimal.Zero))
		require.Error(t, l.Decrement(decimal.NewFromInt(-5)))
	})

	t.Run("alert threshold is max of min level and half original", func(t *testing.T) {
		// original=100, minLevel=10: threshold is 50.
		l := newTestLedger(t, 100, 10)

		require.NoError(t, l.Decrement(decimal.NewFromInt(49)))
		assert.False(t, l.LowStockAlert, "51 > 50")

		require.NoError(t, l.Decrement(decimal.NewFromInt(1)))
		assert.True(t, l.LowStockAlert, "50 <= 50")
	})

	t.Run("min level dominates when above half original", func(t *testing.T) {
		// original=100, minLevel=80: threshold is 80.
		l := newTestLedger(t, 100, 80)
		require.NoError(t, l.Decrement(decimal.NewFromInt(20)))
		assert.True(t, l.LowStockAlert)
	})

	t.Run("first decrement snapshots baseline when missing", func(t *testing.T) {
		l := newTestLedger(t, 100, 0)
		l.OriginalQuantity = nil

		require.NoError(t, l.Decrement(decimal.NewFromInt(10)))
		require.NotNil(t, l.OriginalQuantity)
		assert.True(t, l.OriginalQuantity.Equal(decimal.NewFromInt(100)))
	})
}

func TestLedgerRestore(t *testing.T) {
	t.Run("adds quantity and clears the alert", func(t *testing.T) {
		l := newTestLedger(t, 100, 0)
		require.NoError(t, l.Decrement(decimal.NewFromInt(60)))
		require.True(t, l.LowStockAlert)

		require.NoError(t, l.Restore(decimal.NewFromInt(60)))
		assert.True(t, l.Quantity.Equal(decimal.NewFromInt(100)))
		assert.False(t, l.LowStockAlert)
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		l := newTestLedger(t, 10, 0)
		require.Error(t, l.Restore(decimal.Zero))
	})
}

func TestLedgerSetMinStockLevel(t *testing.T) {
	l := newTestLedger(t, 100, 0)
	require.NoError(t, l.Decrement(decimal.NewFromInt(30)))
	require.False(t, l.LowStockAlert)

	require.NoError(t, l.SetMinStockLevel(decimal.NewFromInt(90)))
	assert.True(t, l.LowStockAlert, "70 <= 90")

	require.Error(t, l.SetMinStockLevel(decimal.NewFromInt(-1)))
}

func TestLedgerCanFulfill(t *testing.T) {
	l := newTestLedger(t, 10, 0)
	assert.True(t, l.CanFulfill(decimal.NewFromInt(10)))
	assert.False(t, l.CanFulfill(decimal.NewFromInt(11)))
}
