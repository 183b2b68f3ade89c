// Package virtualop defines the non-user-originated audit events the core
// emits for downstream consumers (spec.md §6).
package virtualop

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
)

// VirtualOp is the closed sum type for every audit event the core emits.
// Consumers reconstruct an audit trail from these without re-executing
// blocks.
type VirtualOp interface {
	Kind() string
}

// FillOrder records one side (or both sides) of a matched trade.
type FillOrder struct {
	Owner         string
	OrderID       uint64
	Pays          asset.Amount
	PaysSymbol    asset.Symbol
	Receives      asset.Amount
	ReceivesSymbol asset.Symbol
	Price         asset.Price
	IsMaker       bool
	Timestamp     time.Time
}

func (FillOrder) Kind() string { return "fill_order" }

// ExecuteBid records a collateral bid being executed during a settled-asset
// revival.
type ExecuteBid struct {
	Bidder      string
	DebtCovered asset.Amount
	Collateral  asset.Amount
	Symbol      asset.Symbol
	Timestamp   time.Time
}

func (ExecuteBid) Kind() string { return "execute_bid" }

// ReturnDelegation records staked balance returning to a delegator once a
// delegation expires.
type ReturnDelegation struct {
	Delegator string
	Delegatee string
	Amount    asset.Amount
	Symbol    asset.Symbol
	Timestamp time.Time
}

func (ReturnDelegation) Kind() string { return "return_delegation" }

// FillTransferFromSavings records a completed savings withdrawal.
type FillTransferFromSavings struct {
	Owner     string
	Amount    asset.Amount
	Symbol    asset.Symbol
	Timestamp time.Time
}

func (FillTransferFromSavings) Kind() string { return "fill_transfer_from_savings" }

// AssetSettleCancel records a force-settlement order cancelled and refunded
// (e.g. on expiration without fill).
type AssetSettleCancel struct {
	Owner     string
	Amount    asset.Amount
	Symbol    asset.Symbol
	Timestamp time.Time
}

func (AssetSettleCancel) Kind() string { return "asset_settle_cancel" }

// FillForceSettlement records a force-settlement order maturing and paying
// out at the feed's settlement price (supplemented: spec.md §4.4's
// force-settlement maturation path, distinct from the cancel-and-refund
// case AssetSettleCancel covers).
type FillForceSettlement struct {
	Owner         string
	Balance       asset.Amount
	Symbol        asset.Symbol
	Received      asset.Amount
	ReceivedSymbol asset.Symbol
	Timestamp     time.Time
}

func (FillForceSettlement) Kind() string { return "fill_force_settlement" }

// BidCollateral records a new or updated collateral bid being placed.
type BidCollateral struct {
	Bidder      string
	DebtCovered asset.Amount
	Collateral  asset.Amount
	Symbol      asset.Symbol
	Timestamp   time.Time
}

func (BidCollateral) Kind() string { return "bid_collateral" }

// Sink receives every virtual operation the core emits during block
// application, matching spec.md §6's "virtual operation sink" collaborator.
type Sink interface {
	Emit(op VirtualOp)
}

// SliceSink is an in-memory Sink useful for tests and for audiences that
// just want the ordered list after a block applies.
type SliceSink struct {
	Ops []VirtualOp
}

func (s *SliceSink) Emit(op VirtualOp) { s.Ops = append(s.Ops, op) }

// NopSink discards every virtual operation.
type NopSink struct{}

func (NopSink) Emit(VirtualOp) {}
