package chainstate

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

// Dispatch evaluates a single operation against state, given the set of key
// fingerprints that signed the enclosing transaction. Supplied by the
// internal/evaluator package at wiring time (chainstate never imports
// evaluator directly, avoiding an import cycle between the two).
type Dispatch func(state *State, op operation.Operation, keys map[string]struct{}, now time.Time) error

// MaintenancePass runs one scheduler step against state at block time now.
// Supplied by internal/scheduler at wiring time, for the same reason.
type MaintenancePass func(state *State, now time.Time)

// ApplyBlock applies every transaction in block atomically under one outer
// undo session, then runs every maintenance pass. A transaction failure
// aborts only that transaction (spec.md §7). Maintenance passes return no
// error, so nothing a pass does aborts the block: the outer session is
// always committed and ApplyBlock returns nil.
func ApplyBlock(state *State, block *operation.Block, dispatch Dispatch, passes []MaintenancePass) error {
	outer := state.Stack.Begin()
	state.Now = block.Timestamp
	state.Height = block.Number

	for _, tx := range block.Txs {
		if err := ApplyTransaction(state, tx, dispatch); err != nil {
			// Per-transaction failures do not abort the block; the
			// transaction's own inner session already unwound its
			// mutations. Block producers are expected to have already
			// screened transactions before inclusion; a failure here
			// simply means this tx contributes nothing.
			continue
		}
	}

	for _, pass := range passes {
		pass(state, block.Timestamp)
	}

	outer.Commit()
	return nil
}

// ApplyTransaction validates tx's envelope (expiration, duplicate id) and
// applies each of its operations under one inner undo session. Any
// operation failure aborts the whole transaction.
func ApplyTransaction(state *State, tx *operation.Transaction, dispatch Dispatch) error {
	if !tx.Expiration.After(state.Now) {
		return errors.InvalidArgument("transaction", "expiration", "transaction has expired")
	}
	if tx.Expiration.Sub(state.Now) > time.Duration(state.Config.MaxTimeUntilExpirationSeconds)*time.Second {
		return errors.InvalidArgument("transaction", "expiration", "expiration too far in the future")
	}
	if expiry, seen := state.UsedTxIDs[tx.ID]; seen && expiry.After(state.Now) {
		return errors.PreconditionViolated("transaction", "duplicate transaction id")
	}

	sess := state.Stack.Begin()
	keys := tx.SignatoryKeySet()
	for _, op := range tx.Operations {
		if err := dispatch(state, op, keys, state.Now); err != nil {
			sess.Undo()
			return err
		}
	}
	sess.Commit()
	state.UsedTxIDs[tx.ID] = tx.Expiration
	return nil
}
