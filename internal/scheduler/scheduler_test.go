package scheduler

import (
	"testing"
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProcessUnstakingWithRoutes covers spec.md §8's boundary scenario 4:
// 100 staked COIN unstaking at 10/interval, split 50% to bob's staked
// balance and 50% to carol's liquid balance. After ten intervals the
// origin's stake is fully drained and each route received its full share.
func TestProcessUnstakingWithRoutes(t *testing.T) {
	cfg := config.New()
	s := chainstate.New(&cfg.Chain, nil)

	require.NoError(t, s.Ledger.AdjustStaked("seed", "alice", chainstate.NativeSymbol, 100))

	start := time.Unix(1_700_000_000, 0)
	s.Ledger.SetUnstakeSchedule("alice", chainstate.NativeSymbol, account.UnstakeSchedule{
		ToUnstake:       100,
		UnstakeRate:     10,
		NextUnstakeTime: start,
		Routes: []account.WithdrawRoute{
			{ToAccount: "bob", Percent: 0.5, AutoStake: true},
			{ToAccount: "carol", Percent: 0.5, AutoStake: false},
		},
	})

	now := start
	for i := 0; i < 10; i++ {
		ProcessUnstaking(s, now)
		now = now.Add(time.Duration(cfg.Chain.StakeWithdrawIntervalSeconds) * time.Second)
	}

	assert.EqualValues(t, 0, s.Ledger.GetBalance("alice", chainstate.NativeSymbol, asset.PoolStaked))
	assert.EqualValues(t, 50, s.Ledger.GetBalance("bob", chainstate.NativeSymbol, asset.PoolStaked))
	assert.EqualValues(t, 50, s.Ledger.GetBalance("carol", chainstate.NativeSymbol, asset.PoolLiquid))

	rec := s.Ledger.GetBalanceRecord("alice", chainstate.NativeSymbol)
	assert.True(t, rec.Unstake.Done())
}

// TestProcessUnstakingStopsAtSchedule verifies a tick never fires before its
// NextUnstakeTime arrives.
func TestProcessUnstakingStopsAtSchedule(t *testing.T) {
	cfg := config.New()
	s := chainstate.New(&cfg.Chain, nil)
	require.NoError(t, s.Ledger.AdjustStaked("seed", "alice", chainstate.NativeSymbol, 100))

	start := time.Unix(1_700_000_000, 0)
	s.Ledger.SetUnstakeSchedule("alice", chainstate.NativeSymbol, account.UnstakeSchedule{
		ToUnstake:       100,
		UnstakeRate:     10,
		NextUnstakeTime: start.Add(time.Hour),
	})

	ProcessUnstaking(s, start)
	assert.EqualValues(t, 100, s.Ledger.GetBalance("alice", chainstate.NativeSymbol, asset.PoolStaked))
}
