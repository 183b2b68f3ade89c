package matching

import (
	"testing"
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/virtualop"
	"github.com/r3e-network/ledgerchain/internal/ledger"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBook(t *testing.T) (*store.UndoStack, *ledger.Ledger, *OrderBook) {
	t.Helper()
	stack := &store.UndoStack{}
	l := ledger.New(stack)
	return stack, l, New(stack, l)
}

func TestPlaceLimitOrderRestsWithNoOpposingSide(t *testing.T) {
	_, l, book := newBook(t)
	require.NoError(t, l.AdjustLiquid("seed", "alice", "COIN", 100))

	now := time.Unix(1000, 0)
	res, err := book.PlaceLimitOrder("market.limit_order_create", "alice", 1,
		asset.Price{Base: 100, BaseSym: "COIN", Quote: 200, QuoteSym: "USD"}, 100, now, now.Add(time.Hour), false, nil)
	require.NoError(t, err)
	assert.True(t, res.Resting)
	assert.EqualValues(t, 0, res.Filled)
	assert.EqualValues(t, 0, l.GetBalance("alice", "COIN", asset.PoolLiquid))
}

func TestPlaceLimitOrderMatchesOpposingOrderAtMakerPrice(t *testing.T) {
	_, l, book := newBook(t)
	require.NoError(t, l.AdjustLiquid("seed", "alice", "USD", 200))
	require.NoError(t, l.AdjustLiquid("seed", "bob", "COIN", 100))

	now := time.Unix(1000, 0)
	_, err := book.PlaceLimitOrder("market.limit_order_create", "alice", 1,
		asset.Price{Base: 200, BaseSym: "USD", Quote: 100, QuoteSym: "COIN"}, 200, now, now.Add(time.Hour), false, nil)
	require.NoError(t, err)

	sink := &virtualop.SliceSink{}
	res, err := book.PlaceLimitOrder("market.limit_order_create", "bob", 1,
		asset.Price{Base: 100, BaseSym: "COIN", Quote: 200, QuoteSym: "USD"}, 100, now, now.Add(time.Hour), false, sink)
	require.NoError(t, err)

	assert.False(t, res.Resting)
	assert.EqualValues(t, 100, res.Filled)
	assert.EqualValues(t, 200, l.GetBalance("bob", "USD", asset.PoolLiquid))
	assert.EqualValues(t, 100, l.GetBalance("alice", "COIN", asset.PoolLiquid))
	assert.Len(t, sink.Ops, 2)
}

func TestCancelLimitOrderRefundsRemainder(t *testing.T) {
	_, l, book := newBook(t)
	require.NoError(t, l.AdjustLiquid("seed", "alice", "COIN", 100))

	now := time.Unix(1000, 0)
	_, err := book.PlaceLimitOrder("market.limit_order_create", "alice", 7,
		asset.Price{Base: 100, BaseSym: "COIN", Quote: 200, QuoteSym: "USD"}, 100, now, now.Add(time.Hour), false, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, l.GetBalance("alice", "COIN", asset.PoolLiquid))

	require.NoError(t, book.CancelLimitOrder("market.limit_order_cancel", "alice", 7))
	assert.EqualValues(t, 100, l.GetBalance("alice", "COIN", asset.PoolLiquid))
}

func TestFillOrKillRefundsWhenNotFullyFilled(t *testing.T) {
	_, l, book := newBook(t)
	require.NoError(t, l.AdjustLiquid("seed", "alice", "COIN", 100))

	now := time.Unix(1000, 0)
	res, err := book.PlaceLimitOrder("market.limit_order_create", "alice", 1,
		asset.Price{Base: 100, BaseSym: "COIN", Quote: 200, QuoteSym: "USD"}, 100, now, now.Add(time.Hour), true, nil)
	require.NoError(t, err)
	assert.False(t, res.Resting)
	assert.EqualValues(t, 100, l.GetBalance("alice", "COIN", asset.PoolLiquid))
}

func TestExpireOrdersRefundsPastExpiration(t *testing.T) {
	_, l, book := newBook(t)
	require.NoError(t, l.AdjustLiquid("seed", "alice", "COIN", 100))

	now := time.Unix(1000, 0)
	_, err := book.PlaceLimitOrder("market.limit_order_create", "alice", 1,
		asset.Price{Base: 100, BaseSym: "COIN", Quote: 200, QuoteSym: "USD"}, 100, now, now.Add(time.Minute), false, nil)
	require.NoError(t, err)

	book.ExpireOrders("scheduler.expire_orders", now.Add(2*time.Minute), nil)
	assert.EqualValues(t, 100, l.GetBalance("alice", "COIN", asset.PoolLiquid))
}
