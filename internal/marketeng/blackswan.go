package marketeng

import (
	"sort"
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/market"
	"github.com/r3e-network/ledgerchain/domain/virtualop"
	"github.com/r3e-network/ledgerchain/internal/ledger"
	"github.com/r3e-network/ledgerchain/internal/matching"
	"github.com/r3e-network/ledgerchain/internal/store"
)

// MaxShortSqueezePrice returns the collateral-per-debt price past which a
// short position is squeezed: the feed price scaled up by the bitasset's
// configured squeeze ratio.
func MaxShortSqueezePrice(b *asset.BitassetData) asset.Price {
	fp := b.FeedPrice
	return asset.Price{Base: fp.Base, BaseSym: fp.BaseSym, Quote: int64(float64(fp.Quote) * b.MaxShortSqueezeRatio), QuoteSym: fp.QuoteSym}
}

// CheckBlackSwan reports whether M's least-collateralized call order is so
// undercollateralized that even the best available market price cannot
// cover its debt, per spec.md §4.4.
func CheckBlackSwan(bitasset *asset.BitassetData, calls *matching.CallOrderBook, book *matching.OrderBook, debtSym, backingSym asset.Symbol) (bool, market.CallOrder, bool) {
	if !bitasset.HasValidFeed() {
		return false, market.CallOrder{}, false
	}
	_, least, ok := calls.LeastCollateralized(debtSym)
	if !ok {
		return false, market.CallOrder{}, false
	}

	highest := MaxShortSqueezePrice(bitasset)
	if bid, ok := book.BestPrice(backingSym, debtSym); ok && bid.GreaterThan(highest) {
		highest = bid
	}

	inverseCollat := least.Collateralization().Inverse()
	swan := inverseCollat.GreaterThan(highest) || inverseCollat.Equal(highest)
	return swan, least, true
}

// GlobalSettle closes every outstanding call order for debtSym at
// settlementPrice (collateral per unit debt), sweeping consumed collateral
// into the asset's settlement fund and refunding any excess to the
// borrower. total_supply of the debt asset is unaffected: positions convert
// from individually-collateralized to fund-backed, they are not burned.
func GlobalSettle(op string, l *ledger.Ledger, calls *matching.CallOrderBook, bitasset *asset.BitassetData, debtSym, backingSym asset.Symbol, settlementPrice asset.Price, nowUnix int64, sink virtualop.Sink) error {
	var owed asset.Amount
	calls.AscendingByCollateralization(debtSym, func(id store.ID, c market.CallOrder) bool {
		required := settlementPrice.Quote * c.Debt
		if settlementPrice.Base != 0 {
			required = (settlementPrice.Quote * c.Debt) / settlementPrice.Base
		}
		consumed := required
		if consumed > c.Collateral {
			consumed = c.Collateral
		}
		refund := c.Collateral - consumed
		if refund > 0 {
			l.AdjustLiquid(op, c.Borrower, backingSym, refund)
		}
		owed += consumed
		calls.RemoveByID(id)
		if sink != nil {
			sink.Emit(virtualop.ExecuteBid{Bidder: c.Borrower, DebtCovered: c.Debt, Collateral: consumed, Symbol: debtSym})
		}
		return true
	})

	bitasset.IsGloballySettled = true
	bitasset.SettlementPrice = settlementPrice
	bitasset.SettlementFund += owed
	return nil
}

// MarginCallMatchingLoop repeatedly matches the least-collateralized call
// order for debtSym against the best resting limit order selling debtSym for
// backingSym, at whichever is less favorable to the call of the feed's
// max-short-squeeze price or the resting order's own price, until no
// remaining call order is below the current maintenance collateralization or
// no opposing limit exists (spec.md §4.4). Each match fills the call against
// the resting order itself — reducing or removing it and crediting its
// owner the collateral leg — rather than merely reading its price; the fill
// never exceeds the smaller of the debt the call still needs covered and the
// resting order's remaining ForSale, and the collateral the call has left to
// pay with. Any ledger failure (routing a fee on the maker's credit, or
// refunding the borrower's leftover collateral once a call closes) aborts
// the loop instead of silently leaving collateral freed with no debt
// reduction to match.
func MarginCallMatchingLoop(op string, l *ledger.Ledger, calls *matching.CallOrderBook, book *matching.OrderBook, bitasset *asset.BitassetData, debtSym, backingSym asset.Symbol, now time.Time, sink virtualop.Sink) error {
	maintenance := bitasset.CurrentMaintenanceCollateralization()
	squeeze := MaxShortSqueezePrice(bitasset)

	for {
		id, call, ok := calls.LeastCollateralized(debtSym)
		if !ok {
			return nil
		}
		if call.Collateralization().GreaterThan(maintenance) {
			return nil
		}
		makerID, maker, ok := book.BestOpposingOrder(debtSym, backingSym)
		if !ok {
			return nil
		}

		matchPrice := squeeze
		if maker.SellPrice.GreaterThan(squeeze) {
			matchPrice = maker.SellPrice
		}
		if matchPrice.Base <= 0 || matchPrice.Quote <= 0 {
			return nil
		}

		debtWanted := call.Debt
		maxAffordable := (call.Collateral * matchPrice.Base) / matchPrice.Quote
		if maxAffordable < debtWanted {
			debtWanted = maxAffordable
		}
		if debtWanted <= 0 {
			return nil
		}

		debtCovered, collateralPaid, err := book.ConsumeRestingOrder(op, makerID, maker, debtWanted, matchPrice, now, sink)
		if err != nil {
			return err
		}
		if debtCovered <= 0 {
			return nil
		}

		newDebt := call.Debt - debtCovered
		newCollateral := call.Collateral - collateralPaid
		if newCollateral < 0 {
			newCollateral = 0
		}

		if newDebt <= 0 {
			if newCollateral > 0 {
				if err := l.AdjustLiquid(op, call.Borrower, backingSym, newCollateral); err != nil {
					return err
				}
			}
			calls.RemoveByID(id)
			continue
		}
		calls.Modify(id, func(c *market.CallOrder) {
			c.Debt, c.Collateral = newDebt, newCollateral
		})
	}
}

// MedianFeed computes the median of a bitasset's currently published
// producer feeds, breaking an even-count tie by averaging the two middle
// rates (deterministic: feeds are sorted by rate, not by producer name, so
// producer ordering never affects the result).
func MedianFeed(feeds []asset.Price) (asset.Price, bool) {
	if len(feeds) == 0 {
		return asset.Price{}, false
	}
	sorted := append([]asset.Price(nil), feeds...)
	sort.Slice(sorted, func(i, j int) bool { return !sorted[i].GreaterThan(sorted[j]) && !sorted[i].Equal(sorted[j]) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	a, b := sorted[mid-1], sorted[mid]
	return asset.Price{Base: a.Base + b.Base, BaseSym: a.BaseSym, Quote: a.Quote + b.Quote, QuoteSym: a.QuoteSym}, true
}
