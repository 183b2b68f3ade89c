// Package scheduler implements the Maintenance Scheduler's periodic passes
// (spec.md §4.9), each a chainstate.MaintenancePass wired into ApplyBlock
// alongside the evaluator dispatch.
package scheduler

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/community"
	"github.com/r3e-network/ledgerchain/domain/governance"
	"github.com/r3e-network/ledgerchain/domain/market"
	"github.com/r3e-network/ledgerchain/domain/virtualop"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/marketeng"
	"github.com/r3e-network/ledgerchain/internal/reward"
	"github.com/r3e-network/ledgerchain/internal/store"
)

const maintOp = "maintenance"

// All returns the full ordered set of maintenance passes, in the order
// spec.md §4.9 lists them, followed by the supplemented passes SPEC_FULL.md
// adds.
func All() []chainstate.MaintenancePass {
	return []chainstate.MaintenancePass{
		ProcessUnstaking,
		ExpireOrdersAndRequests,
		RecalculateFeeds,
		DistributeEquityReward,
		RecomputeRoleApprovals,
		PayEnterpriseBudgets,
		ExpireReferrerRewards,
		DecayModeratorWeights,
		DecayVotingPower,
	}
}

// ProcessUnstaking advances every in-progress unstake schedule one tick at a
// time once NextUnstakeTime has arrived, crediting the liquid pool (after
// withdraw routes divert their share) and clearing the schedule once
// complete (spec.md §4.9 step 1).
func ProcessUnstaking(s *chainstate.State, now time.Time) {
	type due struct {
		owner string
		bal   account.Balance
	}
	var ticks []due
	s.Ledger.EachBalance(chainstate.NativeSymbol, func(b account.Balance) bool {
		u := b.Unstake
		if !u.Done() && !u.NextUnstakeTime.IsZero() && !now.Before(u.NextUnstakeTime) {
			ticks = append(ticks, due{b.Owner, b})
		}
		return true
	})

	for _, t := range ticks {
		u := t.bal.Unstake
		tick := u.UnstakeRate
		remaining := u.ToUnstake - u.TotalUnstaked
		if tick > remaining {
			tick = remaining
		}
		if tick <= 0 {
			continue
		}
		if err := s.Ledger.AdjustStaked(maintOp, t.owner, chainstate.NativeSymbol, -tick); err != nil {
			continue
		}

		remainingTick := tick
		for _, r := range u.Routes {
			share := asset.Amount(float64(tick) * r.Percent)
			if share <= 0 {
				continue
			}
			if r.AutoStake {
				_ = s.Ledger.AdjustStaked(maintOp, r.ToAccount, chainstate.NativeSymbol, share)
			} else {
				_ = s.Ledger.AdjustLiquid(maintOp, r.ToAccount, chainstate.NativeSymbol, share)
			}
			remainingTick -= share
		}
		if remainingTick > 0 {
			_ = s.Ledger.AdjustLiquid(maintOp, t.owner, chainstate.NativeSymbol, remainingTick)
		}

		u.TotalUnstaked += tick
		if !u.Done() {
			u.NextUnstakeTime = u.NextUnstakeTime.Add(time.Duration(s.Config.StakeWithdrawIntervalSeconds) * time.Second)
		} else {
			u = account.UnstakeSchedule{}
		}
		s.Ledger.SetUnstakeSchedule(t.owner, chainstate.NativeSymbol, u)
	}

	// Savings withdrawals (spec.md §4.9 step 2) have no backing schedule
	// object in this model — `transfer_to_savings` settles its
	// configured delay inline rather than through a resumable queue, so
	// there is nothing for this pass to advance. See DESIGN.md.
}

// ExpireOrdersAndRequests cancels/matures every time-bounded resting object:
// limit orders, force-settlement orders, pending connection requests, join
// requests, invites, and delegations (spec.md §4.9 step 3).
func ExpireOrdersAndRequests(s *chainstate.State, now time.Time) {
	s.Book.ExpireOrders(maintOp, now, s.Sink)
	expireForceSettlements(s, now)
	expireConnectionRequests(s, now)
	expireJoinRequests(s, now)
	expireInvites(s, now)
	expireDelegations(s, now)

	// Escrow expiration (spec.md §4.9 step 4) has no backing domain type
	// in this model — no escrow operation or object exists anywhere in
	// the implemented surface. See DESIGN.md.
}

func expireForceSettlements(s *chainstate.State, now time.Time) {
	var ids []store.ID
	s.Settlements.All(func(id store.ID, f market.ForceSettlementOrder) bool {
		if !f.SettlementDate.After(now) {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		f, ok := s.Settlements.Get(id)
		if !ok {
			continue
		}
		bitasset, ok := s.Bitassets[f.Symbol]
		if !ok || !bitasset.HasValidFeed() {
			continue
		}
		received := asset.Amount(float64(f.Balance) * float64(bitasset.FeedPrice.Quote) / float64(bitasset.FeedPrice.Base))
		if err := s.RouteFee(maintOp, f.Owner, bitasset.BackingAsset, received); err != nil {
			continue
		}
		s.Settlements.Remove(id)
		s.Sink.Emit(virtualop.FillForceSettlement{
			Owner:          f.Owner,
			Balance:        f.Balance,
			Symbol:         f.Symbol,
			Received:       received,
			ReceivedSymbol: bitasset.BackingAsset,
			Timestamp:      now,
		})
	}
}

func expireConnectionRequests(s *chainstate.State, now time.Time) {
	var ids []store.ID
	s.ConnectionRequests.All(func(id store.ID, r account.ConnectionRequest) bool {
		if !r.Expiration.After(now) {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		s.ConnectionRequests.Remove(id)
	}
}

func expireJoinRequests(s *chainstate.State, now time.Time) {
	var ids []store.ID
	s.JoinRequests.All(func(id store.ID, r community.JoinRequest) bool {
		if !r.Expiration.After(now) {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		s.JoinRequests.Remove(id)
	}
}

func expireInvites(s *chainstate.State, now time.Time) {
	var ids []store.ID
	s.Invites.All(func(id store.ID, i community.Invite) bool {
		if !i.Expiration.After(now) {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		s.Invites.Remove(id)
	}
}

func expireDelegations(s *chainstate.State, now time.Time) {
	var ids []store.ID
	s.Delegations.All(func(id store.ID, d account.Delegation) bool {
		if !d.Expiration.After(now) {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		d, ok := s.Delegations.Get(id)
		if !ok {
			continue
		}
		if err := s.Ledger.AdjustDelegated(maintOp, d.Delegator, d.Symbol, -d.Amount); err != nil {
			continue
		}
		if err := s.Ledger.AdjustStaked(maintOp, d.Delegator, d.Symbol, d.Amount); err != nil {
			continue
		}
		s.Delegations.Remove(id)
		s.Sink.Emit(virtualop.ReturnDelegation{
			Delegator: d.Delegator,
			Delegatee: d.Delegatee,
			Amount:    d.Amount,
			Symbol:    d.Symbol,
			Timestamp: now,
		})
	}
}

// RecalculateFeeds recomputes each bitasset's margin-call loop at the
// configured block interval, covering feeds that have gone stale without a
// new publish (spec.md §4.9 step 5).
func RecalculateFeeds(s *chainstate.State, now time.Time) {
	if s.Config.FeedIntervalBlocks <= 0 || int64(s.Height)%s.Config.FeedIntervalBlocks != 0 {
		return
	}
	for sym, bitasset := range s.Bitassets {
		if !bitasset.HasValidFeed() {
			continue
		}
		_ = marketeng.MarginCallMatchingLoop(maintOp, s.Ledger, s.Calls, s.Book, bitasset, sym, bitasset.BackingAsset, now, s.Sink)
		if triggered, least, ok := marketeng.CheckBlackSwan(bitasset, s.Calls, s.Book, sym, bitasset.BackingAsset); triggered && ok {
			settlementPrice := least.Collateralization().Inverse()
			_ = marketeng.GlobalSettle(maintOp, s.Ledger, s.Calls, bitasset, sym, bitasset.BackingAsset, settlementPrice, now.Unix(), s.Sink)
		}
	}
}

// DistributeEquityReward pays out the equity reward pool at the configured
// block interval (spec.md §4.9 step 6, §4.10).
func DistributeEquityReward(s *chainstate.State, now time.Time) {
	if s.Config.EquityIntervalBlocks <= 0 || int64(s.Height)%s.Config.EquityIntervalBlocks != 0 {
		return
	}
	_ = reward.DistributeEquity(maintOp, s.Ledger, s.Accounts, chainstate.EquitySymbol, chainstate.NativeSymbol, asset.Amount(s.Config.EquityRewardPerInterval), now, s.Config)
}

// RecomputeRoleApprovals recomputes ApprovedFlag for every network-officer,
// executive-board, and governance-account candidate against the configured
// voting-power threshold (spec.md §4.9 step 7).
func RecomputeRoleApprovals(s *chainstate.State, now time.Time) {
	var ids []store.ID
	s.Roles.All(func(id store.ID, r governance.Role) bool {
		ids = append(ids, id)
		return true
	})

	var totalPower float64
	s.Accounts.All(func(_ store.ID, a account.Account) bool {
		totalPower += s.VotingPower(a.Name)
		return true
	})

	for _, id := range ids {
		s.Roles.Modify(id, func(r *governance.Role) {
			weight := r.ApprovalWeight(s.VotingPower)
			r.ApprovedFlag = totalPower > 0 && weight/totalPower >= s.Config.GovernanceApprovalThresholdPct && len(r.Approvers) >= s.Config.GovernanceApprovalMinVoters
			r.LastRecomputed = now
		})
	}
}

// PayEnterpriseBudgets pays every eligible community enterprise's daily
// budget (spec.md §4.9 step 8, §4.10).
func PayEnterpriseBudgets(s *chainstate.State, now time.Time) {
	_ = reward.PayEnterpriseDailyBudgets(maintOp, s.Ledger, s.Enterprises, now)
}

// ExpireReferrerRewards clears an account's referrer reward share once its
// window has elapsed since the account was created (supplemented:
// SPEC_FULL.md §4, "referrer reward window expiration").
func ExpireReferrerRewards(s *chainstate.State, now time.Time) {
	window := time.Duration(s.Config.ReferrerRewardWindowSeconds) * time.Second
	var ids []store.ID
	s.Accounts.All(func(id store.ID, a account.Account) bool {
		if a.ReferrerRewardsPct > 0 && now.Sub(a.CreatedAt) > window {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		s.Accounts.Modify(id, func(a *account.Account) { a.ReferrerRewardsPct = 0 })
	}
}

// DecayModeratorWeights applies the configured decay factor to every
// community's moderator tag weights once per maintenance run (supplemented:
// SPEC_FULL.md §4, "moderator weight decay"). The community Member record
// has no per-moderator last-activity timestamp, so this runs as a flat
// per-pass decay rather than an inactivity-gated one; see DESIGN.md.
func DecayModeratorWeights(s *chainstate.State, now time.Time) {
	decay := s.Config.ModeratorWeightDecayPerInterval
	if decay <= 0 || decay >= 1 {
		return
	}
	var ids []store.ID
	s.CommunityMembers.All(func(id store.ID, m community.Member) bool {
		if len(m.Moderators) > 0 {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		s.CommunityMembers.Modify(id, func(m *community.Member) {
			for mod, w := range m.Moderators {
				m.Moderators[mod] = w * decay
			}
		})
	}
}

// DecayVotingPower applies the configured decay factor to every account's
// producer-vote influence (SPEC_FULL §4).
func DecayVotingPower(s *chainstate.State, now time.Time) {
	reward.DecayVotingPower(s.Accounts, s.Config.VotingPowerDecayPerInterval)
}
