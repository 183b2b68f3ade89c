// Package market holds the limit order, call order, force-settlement order,
// and collateral bid types described in spec.md §3 and §4.3.
package market

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
)

// OrderID is the Object Store primary identity for any order type, plus the
// owner-scoped sequence number the owner sees ("order id within owner").
type OrderID uint64

// LimitOrder is a resting offer to sell ForSale units of SellPrice.BaseSym
// for SellPrice.QuoteSym at no worse than SellPrice.
type LimitOrder struct {
	ID         OrderID
	Owner      string
	OwnerOrderID uint64
	SellPrice  asset.Price // base = sell asset, quote = receive asset
	ForSale    asset.Amount
	Created    time.Time
	Expiration time.Time
}

// Valid enforces the limit-order invariants from spec.md §3.
func (o *LimitOrder) Valid() bool {
	return o.ForSale > 0 &&
		o.SellPrice.BaseSym != o.SellPrice.QuoteSym &&
		o.Expiration.After(o.Created)
}

// ReceiveAsset returns the asset symbol the order's owner will receive.
func (o *LimitOrder) ReceiveAsset() asset.Symbol { return o.SellPrice.QuoteSym }

// SellAsset returns the asset symbol the order is selling.
func (o *LimitOrder) SellAsset() asset.Symbol { return o.SellPrice.BaseSym }

// AmountToReceive returns how much of the receive asset o would get for
// selling `forSale` units at the order's own price, rounded down.
func (o *LimitOrder) AmountToReceive(forSale asset.Amount) asset.Amount {
	if o.SellPrice.Base == 0 {
		return 0
	}
	return (forSale * o.SellPrice.Quote) / o.SellPrice.Base
}

// CallOrder is a collateralized debt position in a market-issued asset.
type CallOrder struct {
	ID                    OrderID
	Borrower              string
	Debt                  asset.Amount // market-issued asset
	DebtSym               asset.Symbol
	Collateral            asset.Amount // backing asset
	CollateralSym         asset.Symbol
	TargetCollateralRatio float64
}

// Valid enforces the call-order invariants from spec.md §3.
func (c *CallOrder) Valid() bool {
	return c.Debt > 0 && c.Collateral > 0
}

// Collateralization returns collateral/debt as a Price ratio (collateral
// base, debt quote) so it composes with matching-engine comparisons.
func (c *CallOrder) Collateralization() asset.Price {
	return asset.Price{Base: c.Collateral, BaseSym: c.CollateralSym, Quote: c.Debt, QuoteSym: c.DebtSym}
}

// ForceSettlementOrder requests the chain settle a market-issued balance at
// the current feed price once SettlementDate arrives.
type ForceSettlementOrder struct {
	ID            OrderID
	Owner         string
	Balance       asset.Amount
	Symbol        asset.Symbol
	SettlementDate time.Time
}

// Valid enforces the force-settlement invariant from spec.md §3.
func (f *ForceSettlementOrder) Valid() bool { return f.Balance > 0 }

// CollateralBid is an offer to revive a globally-settled asset by supplying
// fresh collateral at InvSwanPrice (collateral per unit debt).
type CollateralBid struct {
	ID            OrderID
	Bidder        string
	InvSwanPrice  asset.Price
	DebtCovered   asset.Amount
	Symbol        asset.Symbol
}
