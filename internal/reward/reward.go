// Package reward implements the equity reward distribution and
// community-enterprise payout passes the Maintenance Scheduler runs
// (spec.md §4.9 steps 6 and 8, §4.10).
package reward

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/governance"
	"github.com/r3e-network/ledgerchain/internal/ledger"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/config"
)

// Shares computes an account's equity-reward share count: staked equity
// balance times a bonus multiplier built from its activity and membership
// tier, zeroed entirely once the account has been inactive past the
// configured cutoff (spec.md §4.9 step 6, §4.2's "staked equity balance").
func Shares(a account.Account, stakedEquity asset.Amount, now time.Time, cfg *config.ChainConfig) float64 {
	if a.InactiveSince(now.AddDate(0, 0, -cfg.EquityInactivityDays)) {
		return 0
	}
	if stakedEquity <= 0 {
		return 0
	}
	bonus := 1.0
	if a.CumulativeVoteCount >= cfg.MinProducerVotesForActivity {
		bonus += cfg.EquityActivityBonus
	}
	if a.MembershipTier != "" {
		bonus += cfg.EquityMembershipTierBonus
	}
	return float64(stakedEquity) * bonus
}

// DistributeEquity pays the configured equity reward pool, denominated in
// payoutSymbol, out pro-rata by Shares across every account holding a staked
// equitySymbol balance. Payouts round down; the undistributed remainder
// from rounding stays unminted rather than drifting the pool (spec.md §4.2
// conservation).
func DistributeEquity(op string, l *ledger.Ledger, accounts *store.Table[account.Account], equitySymbol, payoutSymbol asset.Symbol, pool asset.Amount, now time.Time, cfg *config.ChainConfig) error {
	if pool <= 0 {
		return nil
	}

	type holder struct {
		name   string
		shares float64
	}
	var holders []holder
	var total float64

	accounts.All(func(_ store.ID, a account.Account) bool {
		stakedEquity := l.GetBalance(a.Name, equitySymbol, asset.PoolStaked)
		shares := Shares(a, stakedEquity, now, cfg)
		if shares > 0 {
			holders = append(holders, holder{a.Name, shares})
			total += shares
		}
		return true
	})
	if total <= 0 {
		return nil
	}

	for _, h := range holders {
		amount := asset.Amount(float64(pool) * (h.shares / total))
		if amount <= 0 {
			continue
		}
		if err := l.AdjustReward(op, h.name, payoutSymbol, amount); err != nil {
			return err
		}
	}
	return nil
}

// DecayVotingPower applies the Maintenance Scheduler's slow decay to every
// account's producer-vote influence, so influence fades when an account
// stops voting instead of persisting indefinitely (SPEC_FULL §4,
// "witness/producer vote weight decay").
func DecayVotingPower(accounts *store.Table[account.Account], decayFactor float64) {
	var ids []store.ID
	accounts.All(func(id store.ID, a account.Account) bool {
		if a.VotingPower != 0 {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		accounts.Modify(id, func(a *account.Account) { a.VotingPower *= decayFactor })
	}
}

// PayEnterpriseDailyBudgets credits every eligible enterprise's daily budget
// to its creator once per elapsed day within its window (spec.md §4.8's
// payment gate, §4.9 step 8, §4.10).
func PayEnterpriseDailyBudgets(op string, l *ledger.Ledger, enterprises *store.Table[governance.Enterprise], now time.Time) error {
	var ids []store.ID
	enterprises.All(func(id store.ID, e governance.Enterprise) bool {
		ids = append(ids, id)
		return true
	})

	for _, id := range ids {
		e, ok := enterprises.Get(id)
		if !ok {
			continue
		}
		if now.Before(e.Begin) {
			continue
		}
		elapsedDays := int(now.Sub(e.Begin).Hours() / 24)
		if elapsedDays <= e.DaysPaid {
			continue
		}
		if !e.EligibleForDailyPayment() {
			continue
		}
		if err := l.AdjustReward(op, e.Creator, e.BudgetSymbol, e.DailyBudget); err != nil {
			return err
		}
		enterprises.Modify(id, func(ent *governance.Enterprise) { ent.DaysPaid++ })
	}
	return nil
}
