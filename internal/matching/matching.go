// Package matching implements the central limit order book: placing,
// matching, and cancelling limit orders in price-time priority (spec.md
// §4.3).
package matching

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/market"
	"github.com/r3e-network/ledgerchain/domain/virtualop"
	"github.com/r3e-network/ledgerchain/internal/ledger"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

const (
	bookIndex      = "book"
	ownerOrderIndex = "owner_order"
)

// FeeRouter credits receiver's liquid symbol balance with gross, minus
// whatever trading/issuer fees the chain charges on a market fill (spec.md
// §4.4). A nil FeeRouter leaves fills fee-free.
type FeeRouter func(op, receiver string, symbol asset.Symbol, gross asset.Amount) error

// OrderBook holds every resting limit order, indexed for price-time-priority
// matching and for owner-scoped cancellation.
type OrderBook struct {
	orders *store.Table[market.LimitOrder]
	ledger *ledger.Ledger
	fees   FeeRouter
}

// New constructs an empty OrderBook over stack, settling fills through l.
func New(stack *store.UndoStack, l *ledger.Ledger) *OrderBook {
	b := &OrderBook{
		orders: store.NewTable[market.LimitOrder](stack),
		ledger: l,
	}
	// Orders book by the asset pair they offer (sell side first) and a
	// float rate approximation for fast range scans; exact crossing is
	// always re-checked by cross-multiplication before a fill is applied,
	// so the approximation only affects scan order, never correctness.
	b.orders.AddIndex(bookIndex, func(o market.LimitOrder) store.Key {
		return store.Key{string(o.SellPrice.BaseSym), string(o.SellPrice.QuoteSym), rate(o.SellPrice)}
	})
	b.orders.AddIndex(ownerOrderIndex, func(o market.LimitOrder) store.Key {
		return store.Key{o.Owner, o.OwnerOrderID}
	})
	return b
}

// SetFeeRouter installs r as the fee-collection hook every fill routes its
// receive credits through. Must be called before any order is placed or
// matched; it is not safe to swap concurrently with matching.
func (b *OrderBook) SetFeeRouter(r FeeRouter) {
	b.fees = r
}

// credit pays receiver gross of symbol, through the fee router if one is
// installed, or as a plain liquid credit otherwise.
func (b *OrderBook) credit(op, receiver string, symbol asset.Symbol, gross asset.Amount) error {
	if b.fees != nil {
		return b.fees(op, receiver, symbol, gross)
	}
	return b.ledger.AdjustLiquid(op, receiver, symbol, gross)
}

func rate(p asset.Price) float64 {
	if p.Base == 0 {
		return 0
	}
	return float64(p.Quote) / float64(p.Base)
}

// PlaceResult reports what happened to a newly submitted limit order.
type PlaceResult struct {
	ID       market.OrderID
	Filled   asset.Amount // amount of the sell asset matched immediately
	Resting  bool         // whether a remainder now rests in the book
}

// PlaceLimitOrder debits forSale from owner's liquid balance, matches it
// against the opposing side of the book at maker's price, and rests any
// unmatched remainder (unless fillOrKill, in which case the remainder is
// refunded and no resting order is created).
func (b *OrderBook) PlaceLimitOrder(op, owner string, ownerOrderID uint64, sellPrice asset.Price, forSale asset.Amount, now, expiration time.Time, fillOrKill bool, sink virtualop.Sink) (PlaceResult, error) {
	order := market.LimitOrder{Owner: owner, OwnerOrderID: ownerOrderID, SellPrice: sellPrice, ForSale: forSale, Created: now, Expiration: expiration}
	if !order.Valid() {
		return PlaceResult{}, errors.InvalidArgument(op, "sell_price", "limit order fields fail validation")
	}
	if err := b.ledger.AdjustLiquid(op, owner, order.SellAsset(), -forSale); err != nil {
		return PlaceResult{}, err
	}

	remaining := forSale
	var filled asset.Amount
	for remaining > 0 {
		makerID, maker, ok := b.bestOpposing(order.ReceiveAsset(), order.SellAsset())
		if !ok || !crosses(order.SellPrice, maker.SellPrice) {
			break
		}
		fillAmt, err := b.fillAgainst(op, owner, remaining, order.SellPrice, makerID, maker, now, sink)
		if err != nil {
			return PlaceResult{Filled: filled}, err
		}
		if fillAmt == 0 {
			break
		}
		filled += fillAmt
		remaining -= fillAmt
	}

	result := PlaceResult{Filled: filled}
	if remaining == 0 {
		return result, nil
	}
	if fillOrKill {
		if err := b.ledger.AdjustLiquid(op, owner, order.SellAsset(), remaining); err != nil {
			return result, err
		}
		return result, nil
	}

	order.ForSale = remaining
	id := b.orders.Create(func(tid store.ID) market.LimitOrder {
		order.ID = market.OrderID(tid)
		return order
	})
	result.ID = market.OrderID(id)
	result.Resting = true
	return result, nil
}

// BestPrice returns the resting price a taker offering receiveSym for
// sellSym would get matched at, i.e. the best (lowest-rate) order currently
// selling sellSym for receiveSym.
func (b *OrderBook) BestPrice(sellSym, receiveSym asset.Symbol) (asset.Price, bool) {
	_, o, ok := b.bestOpposing(sellSym, receiveSym)
	if !ok {
		return asset.Price{}, false
	}
	return o.SellPrice, true
}

// BestOpposingOrder exports bestOpposing for callers outside the package
// (the margin-call matching loop) that need the resting order itself, not
// just its price.
func (b *OrderBook) BestOpposingOrder(sellSym, receiveSym asset.Symbol) (store.ID, market.LimitOrder, bool) {
	return b.bestOpposing(sellSym, receiveSym)
}

// bestOpposing returns the resting order offering sellSym for receiveSym
// (i.e. the other side of the book for a taker offering receiveSym for
// sellSym) with the lowest rate, which is the most favorable to the taker.
func (b *OrderBook) bestOpposing(sellSym, receiveSym asset.Symbol) (store.ID, market.LimitOrder, bool) {
	var bestID store.ID
	var best market.LimitOrder
	found := false
	b.orders.Range(bookIndex, store.Key{string(sellSym), string(receiveSym), float64(0)}, store.Key{string(sellSym), string(receiveSym), float64(1e18)}, func(id store.ID, o market.LimitOrder) bool {
		bestID, best, found = id, o, true
		return false // ascending rate order: first hit is best
	})
	return bestID, best, found
}

// crosses reports whether a taker offering at takerPrice would accept
// makerPrice: the taker's rate must be at least as generous as the maker's
// resting price, compared by cross-multiplication (no floating point).
func crosses(takerPrice, makerPrice asset.Price) bool {
	inv := makerPrice.Inverse() // maker's price from the taker's frame
	return takerPrice.GreaterThan(inv) || takerPrice.Equal(inv)
}

// fillAgainst executes one match between the incoming order (taker, selling
// takerSellPrice.BaseSym, with takerRemaining left to sell) and the resting
// maker order, at the maker's price (price-time priority rewards the
// resting order). Returns the amount of the taker's sell asset consumed.
func (b *OrderBook) fillAgainst(op, takerOwner string, takerRemaining asset.Amount, takerSellPrice asset.Price, makerID store.ID, maker market.LimitOrder, now time.Time, sink virtualop.Sink) (asset.Amount, error) {
	// The taker's remaining amount is denominated in its own sell asset,
	// which is exactly what the maker's resting order wants to receive.
	makerCanSell := maker.ForSale
	if maker.SellPrice.Quote == 0 || maker.SellPrice.Base == 0 {
		return 0, nil
	}

	takerSell := takerRemaining
	makerReceiveForFullMaker := maker.SellPrice.Quote * (makerCanSell / maker.SellPrice.Base)
	if maker.SellPrice.Base != 0 && makerCanSell%maker.SellPrice.Base != 0 {
		makerReceiveForFullMaker += (maker.SellPrice.Quote * (makerCanSell % maker.SellPrice.Base)) / maker.SellPrice.Base
	}

	var takerPays, makerPays asset.Amount
	if takerSell >= makerReceiveForFullMaker && makerReceiveForFullMaker > 0 {
		// Maker order fully consumed.
		takerPays = makerReceiveForFullMaker
		makerPays = makerCanSell
		b.orders.Remove(makerID)
	} else {
		// Maker order partially consumed; taker's remaining is exhausted.
		takerPays = takerSell
		makerPays = (takerSell * maker.SellPrice.Base) / maker.SellPrice.Quote
		if makerPays > makerCanSell {
			makerPays = makerCanSell
		}
		b.orders.Modify(makerID, func(o *market.LimitOrder) { o.ForSale -= makerPays })
	}
	if takerPays <= 0 || makerPays <= 0 {
		return 0, nil
	}

	makerSellSym := maker.SellAsset()
	takerSellSym := maker.ReceiveAsset()

	if err := b.credit(op, takerOwner, makerSellSym, makerPays); err != nil {
		return 0, err
	}
	if err := b.credit(op, maker.Owner, takerSellSym, takerPays); err != nil {
		return 0, err
	}

	if sink != nil {
		sink.Emit(virtualop.FillOrder{Owner: takerOwner, Pays: takerPays, PaysSymbol: takerSellSym, Receives: makerPays, ReceivesSymbol: makerSellSym, Price: maker.SellPrice, IsMaker: false, Timestamp: now})
		sink.Emit(virtualop.FillOrder{Owner: maker.Owner, OrderID: uint64(maker.ID), Pays: makerPays, PaysSymbol: makerSellSym, Receives: takerPays, ReceivesSymbol: takerSellSym, Price: maker.SellPrice, IsMaker: true, Timestamp: now})
	}
	return takerPays, nil
}

// ConsumeRestingOrder fills a resting order from outside the normal taker
// path: the margin-call matching loop (spec.md §4.4) crosses a under-collateralized
// call order against the best limit order selling the call's debt asset for
// its backing asset, rather than against a fresh incoming order. debtWanted
// is the most debt the caller still needs covered; matchPrice is the
// execution price (collateral per unit debt) the caller has already decided
// on. It caps the fill at the smaller of debtWanted and the maker's
// remaining ForSale, reduces or removes the maker's order, and credits the
// maker the matching collateral. It returns the amount of debt actually
// consumed and the collateral paid for it; it never credits anyone with the
// debt asset itself, since that amount left circulation when the maker's
// order was originally placed (its ForSale was debited from the maker's
// liquid balance then, so leaving it uncredited here simply retires it).
func (b *OrderBook) ConsumeRestingOrder(op string, makerID store.ID, maker market.LimitOrder, debtWanted asset.Amount, matchPrice asset.Price, now time.Time, sink virtualop.Sink) (debtCovered, collateralPaid asset.Amount, err error) {
	if matchPrice.Base <= 0 || matchPrice.Quote <= 0 || debtWanted <= 0 {
		return 0, 0, nil
	}

	debtCovered = debtWanted
	if maker.ForSale < debtCovered {
		debtCovered = maker.ForSale
	}
	if debtCovered <= 0 {
		return 0, 0, nil
	}

	collateralPaid = (matchPrice.Quote * debtCovered) / matchPrice.Base
	if collateralPaid <= 0 {
		return 0, 0, nil
	}

	if debtCovered >= maker.ForSale {
		b.orders.Remove(makerID)
	} else {
		b.orders.Modify(makerID, func(o *market.LimitOrder) { o.ForSale -= debtCovered })
	}

	if err := b.credit(op, maker.Owner, maker.ReceiveAsset(), collateralPaid); err != nil {
		return 0, 0, err
	}

	if sink != nil {
		sink.Emit(virtualop.FillOrder{Owner: maker.Owner, OrderID: uint64(maker.ID), Pays: debtCovered, PaysSymbol: maker.SellAsset(), Receives: collateralPaid, ReceivesSymbol: maker.ReceiveAsset(), Price: matchPrice, IsMaker: true, Timestamp: now})
	}
	return debtCovered, collateralPaid, nil
}

// CancelLimitOrder refunds the remaining ForSale of owner's ownerOrderID and
// removes it from the book.
func (b *OrderBook) CancelLimitOrder(op, owner string, ownerOrderID uint64) error {
	id, o, ok := b.orders.Find(ownerOrderIndex, store.Key{owner, ownerOrderID})
	if !ok {
		return errors.UnknownEntity(op, "limit_order", owner)
	}
	if err := b.ledger.AdjustLiquid(op, owner, o.SellAsset(), o.ForSale); err != nil {
		return err
	}
	b.orders.Remove(id)
	return nil
}

// ExpireOrders cancels (refunding) every resting order whose Expiration has
// passed as of now, called by the Maintenance Scheduler.
func (b *OrderBook) ExpireOrders(op string, now time.Time, sink virtualop.Sink) {
	var expired []store.ID
	b.orders.All(func(id store.ID, o market.LimitOrder) bool {
		if !now.Before(o.Expiration) {
			expired = append(expired, id)
		}
		return true
	})
	for _, id := range expired {
		o, ok := b.orders.Get(id)
		if !ok {
			continue
		}
		b.ledger.AdjustLiquid(op, o.Owner, o.SellAsset(), o.ForSale)
		b.orders.Remove(id)
		if sink != nil {
			sink.Emit(virtualop.AssetSettleCancel{Owner: o.Owner, Amount: o.ForSale, Symbol: o.SellAsset(), Timestamp: now})
		}
	}
}
