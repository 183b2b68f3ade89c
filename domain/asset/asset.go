// Package asset holds the per-symbol supply and price types shared by the
// ledger and the matching engine.
package asset

import (
	"fmt"
	"time"
)

// Symbol is an asset's ticker, e.g. "COIN", "USD", "EQUITY".
type Symbol string

// Amount is a signed quantity of an asset in its smallest unit. All balance
// and supply arithmetic is integer; §5 requires overflow-checked 64-bit
// accounting with a 128-bit intermediate, which the ledger enforces in
// internal/ledger.
type Amount = int64

// Price is a ratio of a base amount to a quote amount, matching spec.md's
// "sell_price (ratio of base asset to quote asset)". Base and Quote must
// carry distinct symbols for any order; the zero Price is never valid on its
// own (callers must carry the corresponding symbols separately for ratios
// used purely as conversion rates).
type Price struct {
	Base      Amount
	BaseSym   Symbol
	Quote     Amount
	QuoteSym  Symbol
}

// Inverse returns the reciprocal price (quote/base swapped), used when
// converting a sell order's price into the buyer's frame of reference.
func (p Price) Inverse() Price {
	return Price{Base: p.Quote, BaseSym: p.QuoteSym, Quote: p.Base, QuoteSym: p.BaseSym}
}

// Valid reports whether the price is well-formed: both legs positive and the
// two symbols distinct.
func (p Price) Valid() bool {
	return p.Base > 0 && p.Quote > 0 && p.BaseSym != p.QuoteSym
}

// String renders a price as "base BASE / quote QUOTE" for logging.
func (p Price) String() string {
	return fmt.Sprintf("%d %s / %d %s", p.Base, p.BaseSym, p.Quote, p.QuoteSym)
}

// GreaterThan reports whether p represents a better (higher) exchange rate
// of quote-per-base than other. Comparison is done by cross-multiplication
// to avoid floating point.
func (p Price) GreaterThan(other Price) bool {
	// p.quote/p.base > other.quote/other.base  <=>  p.quote*other.base > other.quote*p.base
	return p.Quote*other.Base > other.Quote*p.Base
}

// Equal reports whether two prices represent the same exchange rate.
func (p Price) Equal(other Price) bool {
	return p.Quote*other.Base == other.Quote*p.Base
}

// PriceSample is one observed trade price at a point in time, the unit a
// trailing hour-median feed (e.g. the coin/equity voting-power price) is
// built from.
type PriceSample struct {
	Price     Price
	Timestamp time.Time
}

// Pool identifies one of the six balance sub-pools tracked per (owner,
// asset) and, in aggregate, per asset as dynamic supply.
type Pool int

const (
	PoolLiquid Pool = iota
	PoolStaked
	PoolSavings
	PoolReward
	PoolDelegated
	PoolReceiving
)

func (p Pool) String() string {
	switch p {
	case PoolLiquid:
		return "liquid"
	case PoolStaked:
		return "staked"
	case PoolSavings:
		return "savings"
	case PoolReward:
		return "reward"
	case PoolDelegated:
		return "delegated"
	case PoolReceiving:
		return "receiving"
	default:
		return "unknown"
	}
}

// DynamicData tracks a single asset's aggregate supply across every pool
// plus a pending (in-flight, not yet settled) bucket and accumulated trading
// fees. Invariant: for every pool P, Sum(AccountBalance[*].P) == DynamicData.P.
type DynamicData struct {
	Symbol          Symbol
	Liquid          Amount
	Staked          Amount
	Savings         Amount
	Reward          Amount
	Delegated       Amount
	Receiving       Amount
	Pending         Amount
	AccumulatedFees Amount
	NetworkRevenue  Amount // supplemented: null-sink accumulation for the native coin (SPEC_FULL §4)
}

func (d *DynamicData) pool(p Pool) *Amount {
	switch p {
	case PoolLiquid:
		return &d.Liquid
	case PoolStaked:
		return &d.Staked
	case PoolSavings:
		return &d.Savings
	case PoolReward:
		return &d.Reward
	case PoolDelegated:
		return &d.Delegated
	case PoolReceiving:
		return &d.Receiving
	default:
		return nil
	}
}

// Add adjusts the aggregate supply of pool p by delta. Returns false if p is
// not a recognized pool.
func (d *DynamicData) Add(p Pool, delta Amount) bool {
	ptr := d.pool(p)
	if ptr == nil {
		return false
	}
	*ptr += delta
	return true
}

// BitassetData describes a market-issued asset's collateral feed state.
type BitassetData struct {
	Symbol                 Symbol
	BackingAsset           Symbol
	FeedPrice              Price // settlement_price component of the feed
	MaintenanceCollatRatio float64
	MaxShortSqueezeRatio   float64
	SettlementPrice        Price // set only once globally settled
	SettlementFund         Amount
	ForceSettledVolume     Amount
	IsPredictionMarket     bool
	IsGloballySettled      bool
	FeedUpdatedAtBlock     int64

	Issuer    string
	Producers map[string]struct{}
	Feeds     map[string]Price // producer -> last published feed
}

// HasValidFeed reports whether the asset currently has a usable price feed.
func (b *BitassetData) HasValidFeed() bool {
	return b.FeedPrice.Valid() && !b.IsGloballySettled
}

// CurrentMaintenanceCollateralization returns the minimum collateral/debt
// ratio required to avoid a margin call under the current feed, expressed as
// a Price (collateral per unit debt) so it composes with order prices.
func (b *BitassetData) CurrentMaintenanceCollateralization() Price {
	fp := b.FeedPrice
	return Price{
		Base:     fp.Base,
		BaseSym:  fp.BaseSym,
		Quote:    int64(float64(fp.Quote) * b.MaintenanceCollatRatio),
		QuoteSym: fp.QuoteSym,
	}
}
