package ledger

import (
	"testing"

	"github.com/r3e-network/ledgerchain/domain/asset"
	chainerrors "github.com/r3e-network/ledgerchain/pkg/errors"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustLiquidCreditAndDebit(t *testing.T) {
	stack := &store.UndoStack{}
	l := New(stack)

	require.NoError(t, l.AdjustLiquid("test.credit", "alice", "COIN", 100))
	assert.EqualValues(t, 100, l.GetBalance("alice", "COIN", asset.PoolLiquid))
	assert.EqualValues(t, 100, l.Supply("COIN").Liquid)

	require.NoError(t, l.AdjustLiquid("test.debit", "alice", "COIN", -40))
	assert.EqualValues(t, 60, l.GetBalance("alice", "COIN", asset.PoolLiquid))
	assert.EqualValues(t, 60, l.Supply("COIN").Liquid)
}

func TestAdjustRejectsOverdraft(t *testing.T) {
	stack := &store.UndoStack{}
	l := New(stack)
	require.NoError(t, l.AdjustLiquid("test.seed", "alice", "COIN", 10))

	err := l.AdjustLiquid("test.overdraft", "alice", "COIN", -11)
	require.Error(t, err)
	assert.True(t, chainerrors.Is(err, chainerrors.KindInsufficientBalance))
	assert.EqualValues(t, 10, l.GetBalance("alice", "COIN", asset.PoolLiquid))
}

func TestTransferMovesBetweenOwners(t *testing.T) {
	stack := &store.UndoStack{}
	l := New(stack)
	require.NoError(t, l.AdjustLiquid("test.seed", "alice", "COIN", 100))

	require.NoError(t, l.Transfer("test.transfer", "alice", asset.PoolLiquid, "bob", asset.PoolLiquid, "COIN", 30))
	assert.EqualValues(t, 70, l.GetBalance("alice", "COIN", asset.PoolLiquid))
	assert.EqualValues(t, 30, l.GetBalance("bob", "COIN", asset.PoolLiquid))
}

func TestTransferFailureLeavesSenderUntouched(t *testing.T) {
	stack := &store.UndoStack{}
	l := New(stack)
	require.NoError(t, l.AdjustLiquid("test.seed", "alice", "COIN", 5))

	err := l.Transfer("test.transfer", "alice", asset.PoolLiquid, "bob", asset.PoolLiquid, "COIN", 30)
	require.Error(t, err)
	assert.EqualValues(t, 5, l.GetBalance("alice", "COIN", asset.PoolLiquid))
	assert.EqualValues(t, 0, l.GetBalance("bob", "COIN", asset.PoolLiquid))
}

func TestNullSinkRejectsNonPositiveAndNeverHoldsBalance(t *testing.T) {
	stack := &store.UndoStack{}
	l := New(stack)

	require.NoError(t, l.AdjustLiquid("test.fee", NullSink, "COIN", 5))
	assert.EqualValues(t, 0, l.GetBalance(NullSink, "COIN", asset.PoolLiquid))
	assert.EqualValues(t, 5, l.Supply("COIN").NetworkRevenue)

	err := l.AdjustLiquid("test.fee", NullSink, "COIN", -1)
	require.Error(t, err)

	err = l.AdjustLiquid("test.fee", NullSink, "COIN", 0)
	require.Error(t, err)
}

func TestUndoSessionRollsBackLedgerMutations(t *testing.T) {
	stack := &store.UndoStack{}
	l := New(stack)

	sess := stack.Begin()
	require.NoError(t, l.AdjustLiquid("test.credit", "alice", "COIN", 100))
	sess.Commit()

	sess2 := stack.Begin()
	require.NoError(t, l.AdjustLiquid("test.credit", "alice", "COIN", 50))
	sess2.Undo()

	assert.EqualValues(t, 100, l.GetBalance("alice", "COIN", asset.PoolLiquid))
	assert.EqualValues(t, 100, l.Supply("COIN").Liquid)
}
