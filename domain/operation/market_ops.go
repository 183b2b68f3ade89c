package operation

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
)

// MarketLimitOrderCreate places a new limit order.
type MarketLimitOrderCreate struct {
	Owner        string
	OwnerOrderID uint64
	SellPrice    asset.Price
	ForSale      asset.Amount
	Expiration   time.Time
	FillOrKill   bool
}

func (o MarketLimitOrderCreate) Discriminator() string      { return "market.limit_order_create" }
func (o MarketLimitOrderCreate) Signatory() string          { return o.Owner }
func (o MarketLimitOrderCreate) SignedFor() string          { return o.Owner }
func (o MarketLimitOrderCreate) RequiredClass() AuthorityClass { return ClassActive }

// MarketLimitOrderCancel cancels a resting limit order, refunding the
// remaining sell amount.
type MarketLimitOrderCancel struct {
	Owner        string
	OwnerOrderID uint64
}

func (o MarketLimitOrderCancel) Discriminator() string      { return "market.limit_order_cancel" }
func (o MarketLimitOrderCancel) Signatory() string          { return o.Owner }
func (o MarketLimitOrderCancel) SignedFor() string          { return o.Owner }
func (o MarketLimitOrderCancel) RequiredClass() AuthorityClass { return ClassActive }

// MarketCallOrderUpdate opens, adjusts, or closes a call order by delta.
type MarketCallOrderUpdate struct {
	Borrower         string
	DeltaDebt        asset.Amount
	DebtSym          asset.Symbol
	DeltaCollateral  asset.Amount
	CollateralSym    asset.Symbol
	TargetCollateralRatio float64
}

func (o MarketCallOrderUpdate) Discriminator() string      { return "market.call_order_update" }
func (o MarketCallOrderUpdate) Signatory() string          { return o.Borrower }
func (o MarketCallOrderUpdate) SignedFor() string          { return o.Borrower }
func (o MarketCallOrderUpdate) RequiredClass() AuthorityClass { return ClassActive }

// MarketBidCollateral bids fresh collateral to help revive a
// globally-settled asset.
type MarketBidCollateral struct {
	Bidder       string
	InvSwanPrice asset.Price
	DebtCovered  asset.Amount
	Symbol       asset.Symbol
}

func (o MarketBidCollateral) Discriminator() string      { return "market.bid_collateral" }
func (o MarketBidCollateral) Signatory() string          { return o.Bidder }
func (o MarketBidCollateral) SignedFor() string          { return o.Bidder }
func (o MarketBidCollateral) RequiredClass() AuthorityClass { return ClassActive }

// MarketAssetSettle queues a force-settlement of a market-issued balance.
type MarketAssetSettle struct {
	Owner   string
	Symbol  asset.Symbol
	Amount  asset.Amount
}

func (o MarketAssetSettle) Discriminator() string      { return "market.asset_settle" }
func (o MarketAssetSettle) Signatory() string          { return o.Owner }
func (o MarketAssetSettle) SignedFor() string          { return o.Owner }
func (o MarketAssetSettle) RequiredClass() AuthorityClass { return ClassActive }

// MarketAssetGlobalSettle forces an immediate global settlement, e.g. by the
// asset's issuer, bypassing the black-swan auto-detection path.
type MarketAssetGlobalSettle struct {
	Issuer          string
	Symbol          asset.Symbol
	SettlementPrice asset.Price
}

func (o MarketAssetGlobalSettle) Discriminator() string      { return "market.asset_global_settle" }
func (o MarketAssetGlobalSettle) Signatory() string          { return o.Issuer }
func (o MarketAssetGlobalSettle) SignedFor() string          { return o.Issuer }
func (o MarketAssetGlobalSettle) RequiredClass() AuthorityClass { return ClassOwner }

// MarketAssetPublishFeed publishes one producer's price feed for a bitasset.
type MarketAssetPublishFeed struct {
	Producer               string
	Symbol                 asset.Symbol
	SettlementPrice        asset.Price
	MaintenanceCollatRatio float64
	MaxShortSqueezeRatio   float64
}

func (o MarketAssetPublishFeed) Discriminator() string      { return "market.asset_publish_feed" }
func (o MarketAssetPublishFeed) Signatory() string          { return o.Producer }
func (o MarketAssetPublishFeed) SignedFor() string          { return o.Producer }
func (o MarketAssetPublishFeed) RequiredClass() AuthorityClass { return ClassActive }

// MarketUpdateFeedProducers sets the list of accounts allowed to publish
// feeds for a bitasset.
type MarketUpdateFeedProducers struct {
	Issuer    string
	Symbol    asset.Symbol
	Producers []string
}

func (o MarketUpdateFeedProducers) Discriminator() string      { return "market.asset_update_feed_producers" }
func (o MarketUpdateFeedProducers) Signatory() string          { return o.Issuer }
func (o MarketUpdateFeedProducers) SignedFor() string          { return o.Issuer }
func (o MarketUpdateFeedProducers) RequiredClass() AuthorityClass { return ClassOwner }
