package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/market"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/domain/virtualop"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/marketeng"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

// evalLimitOrderCreate places a new resting limit order against the central
// order book (spec.md §4.3).
func evalLimitOrderCreate(s *chainstate.State, op operation.MarketLimitOrderCreate, now time.Time) error {
	const name = "market.limit_order_create"

	if !op.SellPrice.Valid() {
		return errors.InvalidArgument(name, "sell_price", "sell price must have positive, distinct-symbol legs")
	}
	if op.ForSale <= 0 {
		return errors.InvalidArgument(name, "for_sale", "amount for sale must be positive")
	}
	if !op.Expiration.After(now) {
		return errors.InvalidArgument(name, "expiration", "expiration must be in the future")
	}
	if _, ok := s.Account(op.Owner); !ok {
		return errors.UnknownEntity(name, "account", op.Owner)
	}

	sink := s.Sink
	if isEquityCoinPair(op.SellPrice.BaseSym, op.SellPrice.QuoteSym) {
		sink = &equityFeedSink{state: s, now: now, inner: s.Sink}
	}

	result, err := s.Book.PlaceLimitOrder(name, op.Owner, op.OwnerOrderID, op.SellPrice, op.ForSale, now, op.Expiration, op.FillOrKill, sink)
	if err != nil {
		return err
	}
	if op.FillOrKill && result.Filled < op.ForSale {
		return errors.PreconditionViolated(name, "fill-or-kill order could not be fully filled")
	}
	return nil
}

func isEquityCoinPair(a, b asset.Symbol) bool {
	return (a == chainstate.EquitySymbol && b == chainstate.NativeSymbol) || (a == chainstate.NativeSymbol && b == chainstate.EquitySymbol)
}

// equityFeedSink wraps the block's virtual-op sink to also record every
// coin/equity fill into the voting-power median feed (spec.md §4.2), without
// disturbing any other emitted op.
type equityFeedSink struct {
	state *chainstate.State
	now   time.Time
	inner virtualop.Sink
}

func (s *equityFeedSink) Emit(op virtualop.VirtualOp) {
	if s.inner != nil {
		s.inner.Emit(op)
	}
	fill, ok := op.(virtualop.FillOrder)
	if !ok || fill.IsMaker {
		return
	}
	price := fill.Price
	switch {
	case price.BaseSym == chainstate.EquitySymbol && price.QuoteSym == chainstate.NativeSymbol:
	case price.BaseSym == chainstate.NativeSymbol && price.QuoteSym == chainstate.EquitySymbol:
		price = price.Inverse()
	default:
		return
	}
	s.state.RecordEquityTrade(s.now, price)
}

// evalLimitOrderCancel cancels a resting limit order and refunds its
// remaining sell amount (spec.md §4.3).
func evalLimitOrderCancel(s *chainstate.State, op operation.MarketLimitOrderCancel, now time.Time) error {
	const name = "market.limit_order_cancel"
	return s.Book.CancelLimitOrder(name, op.Owner, op.OwnerOrderID)
}

// evalCallOrderUpdate opens, adjusts, or closes a collateralized debt
// position by delta, settling the borrower's liquid balances for the
// collateral/debt deltas, then re-runs the margin-call matching loop and
// black-swan check against the position's bitasset (spec.md §4.3, §4.4).
func evalCallOrderUpdate(s *chainstate.State, op operation.MarketCallOrderUpdate, now time.Time) error {
	const name = "market.call_order_update"

	bitasset, ok := s.Bitassets[op.DebtSym]
	if !ok {
		return errors.UnknownEntity(name, "bitasset", string(op.DebtSym))
	}
	if bitasset.IsGloballySettled {
		return errors.BlackSwanAttempted(name, string(op.DebtSym))
	}
	if _, ok := s.Account(op.Borrower); !ok {
		return errors.UnknownEntity(name, "account", op.Borrower)
	}

	existing, _ := s.Calls.Get(op.Borrower, op.DebtSym)
	newDebt := existing.Debt + op.DeltaDebt
	newCollateral := existing.Collateral + op.DeltaCollateral
	if newDebt < 0 || newCollateral < 0 {
		return errors.InvalidArgument(name, "delta", "call order debt and collateral cannot go negative")
	}

	if op.DeltaDebt != 0 {
		if err := s.Ledger.AdjustLiquid(name, op.Borrower, op.DebtSym, op.DeltaDebt); err != nil {
			return err
		}
	}
	if op.DeltaCollateral != 0 {
		if err := s.Ledger.AdjustLiquid(name, op.Borrower, op.CollateralSym, -op.DeltaCollateral); err != nil {
			return err
		}
	}

	if newDebt == 0 {
		s.Ledger.AdjustLiquid(name, op.Borrower, op.CollateralSym, newCollateral)
		s.Calls.Remove(op.Borrower, op.DebtSym)
		return nil
	}

	order := market.CallOrder{Borrower: op.Borrower, Debt: newDebt, DebtSym: op.DebtSym, Collateral: newCollateral, CollateralSym: op.CollateralSym, TargetCollateralRatio: op.TargetCollateralRatio}
	if !order.Valid() {
		return errors.InvalidArgument(name, "call_order", "resulting call order fails validation")
	}
	if bitasset.HasValidFeed() {
		maintenance := bitasset.CurrentMaintenanceCollateralization()
		if maintenance.Valid() && !order.Collateralization().GreaterThan(maintenance) && !order.Collateralization().Equal(maintenance) {
			return errors.PreconditionViolated(name, "call order would be immediately subject to margin call below maintenance ratio")
		}
	}

	s.Calls.Upsert(op.Borrower, newDebt, op.DebtSym, newCollateral, op.CollateralSym, op.TargetCollateralRatio)

	if err := marketeng.MarginCallMatchingLoop(name, s.Ledger, s.Calls, s.Book, bitasset, op.DebtSym, op.CollateralSym, now, s.Sink); err != nil {
		return err
	}
	runBlackSwanCheck(s, name, bitasset, op.DebtSym, op.CollateralSym, now)
	return nil
}

// runBlackSwanCheck detects and, if triggered, immediately applies global
// settlement at the triggering call order's own collateralization (spec.md
// §4.4).
func runBlackSwanCheck(s *chainstate.State, op string, bitasset *asset.BitassetData, debtSym, backingSym asset.Symbol, now time.Time) {
	swan, least, ok := marketeng.CheckBlackSwan(bitasset, s.Calls, s.Book, debtSym, backingSym)
	if !ok || !swan {
		return
	}
	settlementPrice := least.Collateralization().Inverse()
	marketeng.GlobalSettle(op, s.Ledger, s.Calls, bitasset, debtSym, backingSym, settlementPrice, now.Unix(), s.Sink)
}

// evalBidCollateral bids fresh collateral toward reviving a
// globally-settled asset (spec.md §4.4).
func evalBidCollateral(s *chainstate.State, op operation.MarketBidCollateral, now time.Time) error {
	const name = "market.bid_collateral"

	bitasset, ok := s.Bitassets[op.Symbol]
	if !ok {
		return errors.UnknownEntity(name, "bitasset", string(op.Symbol))
	}
	if !bitasset.IsGloballySettled {
		return errors.PreconditionViolated(name, "asset is not globally settled, no revival in progress")
	}
	if op.DebtCovered <= 0 {
		return errors.InvalidArgument(name, "debt_covered", "debt covered must be positive")
	}
	collateralOffered := op.InvSwanPrice.Quote * op.DebtCovered
	if op.InvSwanPrice.Base != 0 {
		collateralOffered = (op.InvSwanPrice.Quote * op.DebtCovered) / op.InvSwanPrice.Base
	}
	if err := s.Ledger.AdjustLiquid(name, op.Bidder, bitasset.BackingAsset, -collateralOffered); err != nil {
		return err
	}

	if id, existing, ok := s.CollateralBidAt(op.Symbol, invRate(op.InvSwanPrice)); ok {
		s.Ledger.AdjustLiquid(name, existing.Bidder, bitasset.BackingAsset, collateralOfferedFor(existing))
		s.CollateralBids.Remove(id)
	}
	s.CollateralBids.Create(func(id store.ID) market.CollateralBid {
		return market.CollateralBid{Bidder: op.Bidder, InvSwanPrice: op.InvSwanPrice, DebtCovered: op.DebtCovered, Symbol: op.Symbol}
	})
	return nil
}

func invRate(p asset.Price) float64 {
	if p.Base == 0 {
		return 0
	}
	return float64(p.Quote) / float64(p.Base)
}

func collateralOfferedFor(b market.CollateralBid) asset.Amount {
	if b.InvSwanPrice.Base == 0 {
		return 0
	}
	return (b.InvSwanPrice.Quote * b.DebtCovered) / b.InvSwanPrice.Base
}

// evalAssetSettle queues a force-settlement of a market-issued balance,
// maturing after the bitasset's settlement delay (spec.md §4.4).
func evalAssetSettle(s *chainstate.State, op operation.MarketAssetSettle, now time.Time) error {
	const name = "market.asset_settle"

	bitasset, ok := s.Bitassets[op.Symbol]
	if !ok {
		return errors.UnknownEntity(name, "bitasset", string(op.Symbol))
	}
	if bitasset.IsGloballySettled {
		return errors.BlackSwanAttempted(name, string(op.Symbol))
	}
	if op.Amount <= 0 {
		return errors.InvalidArgument(name, "amount", "settlement amount must be positive")
	}
	if err := s.Ledger.AdjustLiquid(name, op.Owner, op.Symbol, -op.Amount); err != nil {
		return err
	}

	settlementDate := now.Add(time.Duration(s.Config.MaxTimeUntilExpirationSeconds) * time.Second)
	s.Settlements.Create(func(id store.ID) market.ForceSettlementOrder {
		return market.ForceSettlementOrder{Owner: op.Owner, Balance: op.Amount, Symbol: op.Symbol, SettlementDate: settlementDate}
	})
	return nil
}

// evalAssetGlobalSettle forces immediate global settlement by the asset's
// issuer, bypassing black-swan auto-detection (spec.md §4.4).
func evalAssetGlobalSettle(s *chainstate.State, op operation.MarketAssetGlobalSettle, now time.Time) error {
	const name = "market.asset_global_settle"

	bitasset, ok := s.Bitassets[op.Symbol]
	if !ok {
		return errors.UnknownEntity(name, "bitasset", string(op.Symbol))
	}
	if bitasset.Issuer != op.Issuer {
		return errors.PreconditionViolated(name, "signatory is not this asset's issuer")
	}
	if bitasset.IsGloballySettled {
		return errors.PreconditionViolated(name, "asset is already globally settled")
	}
	if !op.SettlementPrice.Valid() {
		return errors.InvalidArgument(name, "settlement_price", "settlement price must have positive, distinct-symbol legs")
	}

	return marketeng.GlobalSettle(name, s.Ledger, s.Calls, bitasset, op.Symbol, bitasset.BackingAsset, op.SettlementPrice, now.Unix(), s.Sink)
}

// evalAssetPublishFeed records one producer's price feed submission and
// recomputes the bitasset's median feed (spec.md §4.4).
func evalAssetPublishFeed(s *chainstate.State, op operation.MarketAssetPublishFeed, now time.Time) error {
	const name = "market.asset_publish_feed"

	bitasset, ok := s.Bitassets[op.Symbol]
	if !ok {
		return errors.UnknownEntity(name, "bitasset", string(op.Symbol))
	}
	if _, allowed := bitasset.Producers[op.Producer]; !allowed {
		return errors.PreconditionViolated(name, "signatory is not an authorized feed producer for this asset")
	}
	if !op.SettlementPrice.Valid() {
		return errors.InvalidArgument(name, "settlement_price", "feed price must have positive, distinct-symbol legs")
	}

	if bitasset.Feeds == nil {
		bitasset.Feeds = make(map[string]asset.Price)
	}
	bitasset.Feeds[op.Producer] = op.SettlementPrice

	feeds := make([]asset.Price, 0, len(bitasset.Feeds))
	for _, p := range bitasset.Feeds {
		feeds = append(feeds, p)
	}
	median, ok := marketeng.MedianFeed(feeds)
	if !ok {
		return nil
	}
	bitasset.FeedPrice = median
	bitasset.MaintenanceCollatRatio = op.MaintenanceCollatRatio
	bitasset.MaxShortSqueezeRatio = op.MaxShortSqueezeRatio
	bitasset.FeedUpdatedAtBlock++

	if err := marketeng.MarginCallMatchingLoop(name, s.Ledger, s.Calls, s.Book, bitasset, op.Symbol, bitasset.BackingAsset, now, s.Sink); err != nil {
		return err
	}
	runBlackSwanCheck(s, name, bitasset, op.Symbol, bitasset.BackingAsset, now)
	return nil
}

// evalUpdateFeedProducers sets the list of accounts allowed to publish
// feeds for a bitasset; only the issuer may do this (spec.md §4.4).
func evalUpdateFeedProducers(s *chainstate.State, op operation.MarketUpdateFeedProducers, now time.Time) error {
	const name = "market.asset_update_feed_producers"

	bitasset, ok := s.Bitassets[op.Symbol]
	if !ok {
		return errors.UnknownEntity(name, "bitasset", string(op.Symbol))
	}
	if bitasset.Issuer != op.Issuer {
		return errors.PreconditionViolated(name, "signatory is not this asset's issuer")
	}

	producers := make(map[string]struct{}, len(op.Producers))
	for _, p := range op.Producers {
		if _, ok := s.Account(p); !ok {
			return errors.UnknownEntity(name, "account", p)
		}
		producers[p] = struct{}{}
	}
	bitasset.Producers = producers
	if bitasset.Feeds != nil {
		for producer := range bitasset.Feeds {
			if _, ok := producers[producer]; !ok {
				delete(bitasset.Feeds, producer)
			}
		}
	}
	return nil
}
