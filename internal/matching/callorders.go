package matching

import (
	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/market"
	"github.com/r3e-network/ledgerchain/internal/store"
)

const (
	callByCollatIndex = "call_collat"
	callByBorrowerIndex = "call_borrower"
)

// CallOrderBook indexes every collateralized debt position by its debt
// asset and by ascending collateralization, so the margin-call matching loop
// and black-swan check can find the riskiest position first (spec.md §4.3,
// §4.4).
type CallOrderBook struct {
	orders *store.Table[market.CallOrder]
}

// NewCallOrderBook constructs an empty CallOrderBook over stack.
func NewCallOrderBook(stack *store.UndoStack) *CallOrderBook {
	b := &CallOrderBook{orders: store.NewTable[market.CallOrder](stack)}
	b.orders.AddIndex(callByCollatIndex, func(c market.CallOrder) store.Key {
		return store.Key{string(c.DebtSym), collatRate(c)}
	})
	b.orders.AddIndex(callByBorrowerIndex, func(c market.CallOrder) store.Key {
		return store.Key{c.Borrower, string(c.DebtSym)}
	})
	return b
}

func collatRate(c market.CallOrder) float64 {
	if c.Debt == 0 {
		return 0
	}
	return float64(c.Collateral) / float64(c.Debt)
}

// Upsert creates or replaces the borrower's call order for debtSym.
func (b *CallOrderBook) Upsert(borrower string, debt asset.Amount, debtSym asset.Symbol, collateral asset.Amount, collateralSym asset.Symbol, targetRatio float64) market.OrderID {
	if id, _, ok := b.orders.Find(callByBorrowerIndex, store.Key{borrower, string(debtSym)}); ok {
		b.orders.Modify(id, func(c *market.CallOrder) {
			c.Debt, c.Collateral, c.CollateralSym, c.TargetCollateralRatio = debt, collateral, collateralSym, targetRatio
		})
		return market.OrderID(id)
	}
	id := b.orders.Create(func(tid store.ID) market.CallOrder {
		return market.CallOrder{ID: market.OrderID(tid), Borrower: borrower, Debt: debt, DebtSym: debtSym, Collateral: collateral, CollateralSym: collateralSym, TargetCollateralRatio: targetRatio}
	})
	return market.OrderID(id)
}

// Get returns borrower's call order for debtSym.
func (b *CallOrderBook) Get(borrower string, debtSym asset.Symbol) (market.CallOrder, bool) {
	_, c, ok := b.orders.Find(callByBorrowerIndex, store.Key{borrower, string(debtSym)})
	return c, ok
}

// Remove deletes borrower's call order for debtSym.
func (b *CallOrderBook) Remove(borrower string, debtSym asset.Symbol) bool {
	id, _, ok := b.orders.Find(callByBorrowerIndex, store.Key{borrower, string(debtSym)})
	if !ok {
		return false
	}
	return b.orders.Remove(id)
}

// Modify applies mutator to the call order with id.
func (b *CallOrderBook) Modify(id store.ID, mutator func(*market.CallOrder)) bool {
	return b.orders.Modify(id, mutator)
}

// RemoveByID deletes the call order with id.
func (b *CallOrderBook) RemoveByID(id store.ID) bool {
	return b.orders.Remove(id)
}

// LeastCollateralized returns the call order with the lowest
// collateral/debt ratio for debtSym, the first the black-swan check and the
// margin-call loop must examine.
func (b *CallOrderBook) LeastCollateralized(debtSym asset.Symbol) (store.ID, market.CallOrder, bool) {
	var id store.ID
	var c market.CallOrder
	found := false
	b.orders.Range(callByCollatIndex, store.Key{string(debtSym), float64(0)}, store.Key{string(debtSym), float64(1e18)}, func(oid store.ID, o market.CallOrder) bool {
		id, c, found = oid, o, true
		return false
	})
	return id, c, found
}

// AscendingByCollateralization iterates every call order for debtSym from
// lowest to highest collateralization, stopping when fn returns false.
func (b *CallOrderBook) AscendingByCollateralization(debtSym asset.Symbol, fn func(store.ID, market.CallOrder) bool) {
	b.orders.Range(callByCollatIndex, store.Key{string(debtSym), float64(0)}, store.Key{string(debtSym), float64(1e18)}, fn)
}
