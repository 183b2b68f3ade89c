package marketeng

import (
	"testing"
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/virtualop"
	"github.com/r3e-network/ledgerchain/internal/ledger"
	"github.com/r3e-network/ledgerchain/internal/matching"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckBlackSwanCrossesThresholdAsFeedMoves exercises CheckBlackSwan's
// least-collateralized-call-vs-squeeze-price comparison across two feed
// quotes for the same call order, holding everything else fixed, per
// spec.md §4.4 ("swan iff inverse(least_call.collateralization) >= highest").
// FeedPrice is quoted base=debt units, quote=collateral units (the same
// convention CurrentMaintenanceCollateralization and MaxShortSqueezePrice
// assume when they leave Base/BaseSym untouched and scale only Quote).
func TestCheckBlackSwanCrossesThresholdAsFeedMoves(t *testing.T) {
	stack := &store.UndoStack{}
	calls := matching.NewCallOrderBook(stack)
	l := ledger.New(stack)
	book := matching.New(stack, l)

	// alice: 100 USD debt against 105 COIN collateral -> collateralization
	// (collateral per debt) of 1.05.
	calls.Upsert("alice", 100, "USD", 105, "COIN", 1.4)

	bitasset := &asset.BitassetData{
		Symbol:               "USD",
		BackingAsset:         "COIN",
		MaxShortSqueezeRatio: 1.10,
		// abundant collateral per debt in the feed (10 COIN per 1 USD):
		// the squeeze price (11 COIN/USD) comfortably exceeds alice's 1.05,
		// so no swan.
		FeedPrice: asset.Price{Base: 1, BaseSym: "USD", Quote: 10, QuoteSym: "COIN"},
	}
	swan, _, hasCall := CheckBlackSwan(bitasset, calls, book, "USD", "COIN")
	require.True(t, hasCall)
	assert.False(t, swan)

	// The feed moves to scarce collateral per debt (0.55 COIN per USD): the
	// squeeze price falls under alice's 1.05 collateralization, tripping
	// the swan.
	bitasset.FeedPrice = asset.Price{Base: 20, BaseSym: "USD", Quote: 10, QuoteSym: "COIN"}
	swan, least, hasCall := CheckBlackSwan(bitasset, calls, book, "USD", "COIN")
	require.True(t, hasCall)
	assert.True(t, swan)
	assert.Equal(t, "alice", least.Borrower)
}

func TestCheckBlackSwanNoCallsOrNoFeed(t *testing.T) {
	stack := &store.UndoStack{}
	calls := matching.NewCallOrderBook(stack)
	l := ledger.New(stack)
	book := matching.New(stack, l)

	bitasset := &asset.BitassetData{Symbol: "USD", BackingAsset: "COIN"}
	_, _, hasCall := CheckBlackSwan(bitasset, calls, book, "USD", "COIN")
	assert.False(t, hasCall)

	bitasset.FeedPrice = asset.Price{Base: 1, BaseSym: "USD", Quote: 1, QuoteSym: "COIN"}
	calls.Upsert("alice", 100, "USD", 105, "COIN", 1.4)
	bitasset.IsGloballySettled = true
	swan, _, hasCall := CheckBlackSwan(bitasset, calls, book, "USD", "COIN")
	assert.False(t, hasCall)
	assert.False(t, swan)
}

// TestGlobalSettleSweepsCollateralAndPreservesSupply covers the rest of
// scenario 3: global settlement closes every call order at the settlement
// price, sweeps consumed collateral into the settlement fund, refunds any
// excess, and never touches the debt asset's total supply (it converts
// individually-collateralized debt into fund-backed debt; it does not burn
// it).
func TestGlobalSettleSweepsCollateralAndPreservesSupply(t *testing.T) {
	stack := &store.UndoStack{}
	calls := matching.NewCallOrderBook(stack)
	l := ledger.New(stack)

	require.NoError(t, l.Adjust("seed", "issuer", "USD", asset.PoolLiquid, 200))
	preSupply := l.Supply("USD").Liquid

	calls.Upsert("alice", 100, "USD", 105, "COIN", 1.4)
	calls.Upsert("bob", 50, "USD", 80, "COIN", 1.6)

	bitasset := &asset.BitassetData{Symbol: "USD", BackingAsset: "COIN"}
	settlementPrice := asset.Price{Base: 1, BaseSym: "USD", Quote: 1, QuoteSym: "COIN"}
	sink := &virtualop.SliceSink{}

	require.NoError(t, GlobalSettle("market.asset_global_settle", l, calls, bitasset, "USD", "COIN", settlementPrice, 0, sink))

	assert.True(t, bitasset.IsGloballySettled)
	assert.Equal(t, settlementPrice, bitasset.SettlementPrice)
	// alice's 100 USD of debt consumes 100 COIN of her 105 COIN collateral,
	// refunding 5; bob's 50 USD consumes 50 of his 80, refunding 30.
	assert.EqualValues(t, 150, bitasset.SettlementFund)
	assert.EqualValues(t, 5, l.GetBalance("alice", "COIN", asset.PoolLiquid))
	assert.EqualValues(t, 30, l.GetBalance("bob", "COIN", asset.PoolLiquid))

	_, ok := calls.Get("alice", "USD")
	assert.False(t, ok)

	emptyBook := matching.New(stack, l)
	_, _, hasCall := CheckBlackSwan(bitasset, calls, emptyBook, "USD", "COIN")
	assert.False(t, hasCall)

	assert.Equal(t, preSupply, l.Supply("USD").Liquid)
	assert.Len(t, sink.Ops, 2)
}

// TestMarginCallMatchingLoopCrossesAgainstRestingOrder covers spec.md §4.4's
// "match against the best limit ... fill whichever is smaller": alice's call
// order is below maintenance collateralization, and the loop must actually
// cross it against bob's resting limit order (reducing it, crediting bob,
// and shrinking alice's debt and collateral) rather than merely reading the
// order's price and freeing collateral uncapped.
func TestMarginCallMatchingLoopCrossesAgainstRestingOrder(t *testing.T) {
	stack := &store.UndoStack{}
	calls := matching.NewCallOrderBook(stack)
	l := ledger.New(stack)
	book := matching.New(stack, l)

	// alice: 100 USD debt against 120 COIN collateral -> 1.2 COIN/USD,
	// below the 1.75 maintenance ratio the feed implies.
	calls.Upsert("alice", 100, "USD", 120, "COIN", 0)

	bitasset := &asset.BitassetData{
		Symbol:                 "USD",
		BackingAsset:           "COIN",
		MaintenanceCollatRatio: 1.75,
		MaxShortSqueezeRatio:   1.1,
		FeedPrice:              asset.Price{Base: 1, BaseSym: "USD", Quote: 1, QuoteSym: "COIN"},
	}

	// bob rests an order selling 50 USD for 60 COIN (1.2 COIN/USD), the
	// opposing side of the book a margin call buys debt back from.
	require.NoError(t, l.AdjustLiquid("seed", "bob", "USD", 50))
	now := time.Unix(1_700_000_000, 0)
	_, err := book.PlaceLimitOrder("seed", "bob", 1, asset.Price{Base: 50, BaseSym: "USD", Quote: 60, QuoteSym: "COIN"}, 50, now, now.Add(time.Hour), false, nil)
	require.NoError(t, err)

	sink := &virtualop.SliceSink{}
	require.NoError(t, MarginCallMatchingLoop("maintenance", l, calls, book, bitasset, "USD", "COIN", now, sink))

	// bob's 50 USD fully covers 50 of alice's 100 USD debt at 1.2 COIN/USD,
	// paying 60 COIN; his order is fully consumed and removed.
	assert.EqualValues(t, 60, l.GetBalance("bob", "COIN", asset.PoolLiquid))
	_, _, resting := book.BestOpposingOrder("USD", "COIN")
	assert.False(t, resting, "bob's order is fully consumed")

	alice, ok := calls.Get("alice", "USD")
	require.True(t, ok, "alice's call order survives a partial cover")
	assert.EqualValues(t, 50, alice.Debt)
	assert.EqualValues(t, 60, alice.Collateral)

	// No one is ever credited with the USD alice's call retired: it left
	// circulation when bob's order was originally placed.
	assert.EqualValues(t, 0, l.GetBalance("alice", "USD", asset.PoolLiquid))
	assert.Len(t, sink.Ops, 1)
}

// TestMarginCallMatchingLoopNoOpposingOrderLeavesCallUntouched covers the
// case where a call order is below maintenance but the book has nothing
// resting on the other side: the loop must not free any collateral.
func TestMarginCallMatchingLoopNoOpposingOrderLeavesCallUntouched(t *testing.T) {
	stack := &store.UndoStack{}
	calls := matching.NewCallOrderBook(stack)
	l := ledger.New(stack)
	book := matching.New(stack, l)

	calls.Upsert("alice", 100, "USD", 120, "COIN", 0)
	bitasset := &asset.BitassetData{
		Symbol:                 "USD",
		BackingAsset:           "COIN",
		MaintenanceCollatRatio: 1.75,
		MaxShortSqueezeRatio:   1.1,
		FeedPrice:              asset.Price{Base: 1, BaseSym: "USD", Quote: 1, QuoteSym: "COIN"},
	}

	require.NoError(t, MarginCallMatchingLoop("maintenance", l, calls, book, bitasset, "USD", "COIN", time.Unix(1_700_000_000, 0), nil))

	alice, ok := calls.Get("alice", "USD")
	require.True(t, ok)
	assert.EqualValues(t, 100, alice.Debt)
	assert.EqualValues(t, 120, alice.Collateral)
}
