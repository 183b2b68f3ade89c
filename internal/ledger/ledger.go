// Package ledger implements the Asset Ledger: per-owner, per-asset balances
// split across six pools, aggregate per-asset supply bookkeeping, and the
// null-sink account that permanently retires value (spec.md §4.2).
package ledger

import (
	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/pkg/errors"
	"github.com/r3e-network/ledgerchain/internal/store"
)

// NullSink is the sentinel owner name representing permanent retirement of
// value (transaction fees, burned stake). Only positive adjustments to the
// null sink are allowed; it never holds a balance, it only accumulates into
// the asset's NetworkRevenue counter.
const NullSink = "null-sink"

const balancesByOwnerSymbol = "owner_symbol"

// Ledger owns every account balance and asset supply record. All mutation
// flows through a store.UndoStack so a failed transaction unwinds cleanly.
type Ledger struct {
	balances *store.Table[account.Balance]
	supply   map[asset.Symbol]*asset.DynamicData
	stack    *store.UndoStack
}

// New constructs an empty Ledger backed by stack.
func New(stack *store.UndoStack) *Ledger {
	l := &Ledger{
		balances: store.NewTable[account.Balance](stack),
		supply:   make(map[asset.Symbol]*asset.DynamicData),
		stack:    stack,
	}
	l.balances.AddIndex(balancesByOwnerSymbol, func(b account.Balance) store.Key {
		return store.Key{b.Owner, string(b.Symbol)}
	})
	return l
}

// Supply returns the aggregate per-pool supply for symbol, creating a zeroed
// record on first reference.
func (l *Ledger) Supply(symbol asset.Symbol) *asset.DynamicData {
	d, ok := l.supply[symbol]
	if !ok {
		d = &asset.DynamicData{Symbol: symbol}
		l.supply[symbol] = d
	}
	return d
}

func (l *Ledger) balanceID(owner string, symbol asset.Symbol) (store.ID, *account.Balance) {
	if id, b, ok := l.balances.Find(balancesByOwnerSymbol, store.Key{owner, string(symbol)}); ok {
		bb := b
		return id, &bb
	}
	var created store.ID
	l.balances.Create(func(id store.ID) account.Balance {
		created = id
		return account.Balance{Owner: owner, Symbol: symbol}
	})
	b, _ := l.balances.Get(created)
	return created, &b
}

// GetBalance returns the amount owner holds in pool p of symbol.
func (l *Ledger) GetBalance(owner string, symbol asset.Symbol, p asset.Pool) asset.Amount {
	if _, b, ok := l.balances.Find(balancesByOwnerSymbol, store.Key{owner, string(symbol)}); ok {
		return b.Get(p)
	}
	return 0
}

// GetBalanceRecord returns the full balance row for owner/symbol, or the
// zero value if none exists yet.
func (l *Ledger) GetBalanceRecord(owner string, symbol asset.Symbol) account.Balance {
	if _, b, ok := l.balances.Find(balancesByOwnerSymbol, store.Key{owner, string(symbol)}); ok {
		return b
	}
	return account.Balance{Owner: owner, Symbol: symbol}
}

// GetVotingPower returns the amount of native-coin-equivalent voting power
// an account commands for producer/governance voting purposes: its native
// liquid and staked holdings (minus whatever it has delegated away, plus
// whatever it has received by delegation from others, spec.md glossary
// "Delegation": "temporary transfer of staked voting power"), plus its
// staked equity balance priced at equityPrice (Base=equitySymbol units,
// Quote=nativeSymbol units — coin per equity), per spec.md §4.2: "staked
// coin balance plus staked equity balance priced at the most recent
// hour-median coin/equity pair." An invalid/zero equityPrice (no equity
// trade in the last hour) values the equity leg at zero rather than
// guessing a rate.
func (l *Ledger) GetVotingPower(owner string, nativeSymbol, equitySymbol asset.Symbol, equityPrice asset.Price) asset.Amount {
	rec := l.GetBalanceRecord(owner, nativeSymbol)
	power := rec.Liquid + rec.Staked - rec.Delegated + rec.Receiving

	if !equityPrice.Valid() {
		return power
	}
	stakedEquity := l.GetBalance(owner, equitySymbol, asset.PoolStaked)
	if stakedEquity <= 0 {
		return power
	}
	return power + asset.Amount(float64(stakedEquity)*float64(equityPrice.Quote)/float64(equityPrice.Base))
}

// Adjust applies delta to owner's pool p of symbol, recording an inverse
// mutation. A negative delta that would drive the pool below zero is
// rejected with KindInsufficientBalance and the ledger is left unchanged. An
// adjustment addressed to NullSink must carry a positive delta; it never
// touches a balance row, it only accumulates into the asset's network
// revenue counter and its matching supply pool.
func (l *Ledger) Adjust(op, owner string, symbol asset.Symbol, p asset.Pool, delta asset.Amount) error {
	if owner == NullSink {
		if delta <= 0 {
			return errors.InvalidSink(op)
		}
		d := l.Supply(symbol)
		d.NetworkRevenue += delta
		d.Add(p, delta)
		return nil
	}

	id, cur := l.balanceID(owner, symbol)
	have := cur.Get(p)
	if delta < 0 && have+delta < 0 {
		return errors.InsufficientBalance(op, owner, string(symbol), have, -delta)
	}
	l.balances.Modify(id, func(b *account.Balance) { b.Add(p, delta) })
	l.Supply(symbol).Add(p, delta)
	return nil
}

// AdjustLiquid is sugar for Adjust(..., asset.PoolLiquid, delta).
func (l *Ledger) AdjustLiquid(op, owner string, symbol asset.Symbol, delta asset.Amount) error {
	return l.Adjust(op, owner, symbol, asset.PoolLiquid, delta)
}

// AdjustStaked is sugar for Adjust(..., asset.PoolStaked, delta).
func (l *Ledger) AdjustStaked(op, owner string, symbol asset.Symbol, delta asset.Amount) error {
	return l.Adjust(op, owner, symbol, asset.PoolStaked, delta)
}

// AdjustSavings is sugar for Adjust(..., asset.PoolSavings, delta).
func (l *Ledger) AdjustSavings(op, owner string, symbol asset.Symbol, delta asset.Amount) error {
	return l.Adjust(op, owner, symbol, asset.PoolSavings, delta)
}

// AdjustReward is sugar for Adjust(..., asset.PoolReward, delta).
func (l *Ledger) AdjustReward(op, owner string, symbol asset.Symbol, delta asset.Amount) error {
	return l.Adjust(op, owner, symbol, asset.PoolReward, delta)
}

// AdjustDelegated is sugar for Adjust(..., asset.PoolDelegated, delta).
func (l *Ledger) AdjustDelegated(op, owner string, symbol asset.Symbol, delta asset.Amount) error {
	return l.Adjust(op, owner, symbol, asset.PoolDelegated, delta)
}

// AdjustReceiving is sugar for Adjust(..., asset.PoolReceiving, delta).
func (l *Ledger) AdjustReceiving(op, owner string, symbol asset.Symbol, delta asset.Amount) error {
	return l.Adjust(op, owner, symbol, asset.PoolReceiving, delta)
}

// Transfer moves amount from one owner's pool to another owner's pool of the
// same symbol atomically: the debit's failure prevents the credit.
func (l *Ledger) Transfer(op, from string, fromPool asset.Pool, to string, toPool asset.Pool, symbol asset.Symbol, amount asset.Amount) error {
	if amount <= 0 {
		return errors.InvalidArgument(op, "amount", "transfer amount must be positive")
	}
	if err := l.Adjust(op, from, symbol, fromPool, -amount); err != nil {
		return err
	}
	return l.Adjust(op, to, symbol, toPool, amount)
}

// SetUnstakeSchedule replaces owner's unstake schedule for symbol.
func (l *Ledger) SetUnstakeSchedule(owner string, symbol asset.Symbol, sched account.UnstakeSchedule) {
	id, _ := l.balanceID(owner, symbol)
	l.balances.Modify(id, func(b *account.Balance) { b.Unstake = sched })
}

// EachBalance iterates every balance row for symbol in primary-identity
// order.
func (l *Ledger) EachBalance(symbol asset.Symbol, fn func(account.Balance) bool) {
	l.balances.All(func(_ store.ID, b account.Balance) bool {
		if b.Symbol != symbol {
			return true
		}
		return fn(b)
	})
}
