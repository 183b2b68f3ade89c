// Package account holds the account, authority, and balance types described
// in spec.md §3.
package account

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
)

// ID is the Object Store primary identity for an account.
type ID uint64

// Account is a registered chain identity: unique name, active flag, keys are
// carried in the associated Authority record, plus activity timestamps and
// power meters the reward and rate-limit logic consult.
type Account struct {
	ID                  ID
	Name                string
	Active              bool
	Registrar           string
	Referrer            string
	ReferrerRewardsPct  float64 // cleared by the Maintenance Scheduler after its window elapses (SPEC_FULL §4)
	Proxy               string
	RecoveryAccount     string
	ResetAccount        string
	ResetDelayDays       int
	MembershipTier      string
	MembershipExpires   time.Time
	VotingPower         float64 // decaying influence on producer votes (SPEC_FULL §4)
	CumulativeVoteCount uint64

	// Messaging public keys (spec.md §3), stored as the fingerprint of the
	// raw key (see Fingerprint). Secure is the account's primary messaging
	// key, set at account.create time; the other three are set when a
	// connection is accepted at their respective tiers.
	SecureKey     string
	ConnectionKey string
	FriendKey     string
	CompanionKey  string

	CreatedAt             time.Time
	LastUpdated           time.Time
	LastVote              time.Time
	LastView              time.Time
	LastShare             time.Time
	LastPost              time.Time
	LastRootPost          time.Time
	LastTransfer          time.Time
	LastActivityReward    time.Time
	LastAccountRecovery   time.Time

	VotingMeter    float64 // power meters in [0, 100]
	ViewingMeter   float64
	SharingMeter   float64
	CommentingMeter float64
}

// InactiveSince reports whether the account has had no votes, views, shares,
// posts, or transfers since t (used by reset and equity-reward eligibility).
func (a *Account) InactiveSince(t time.Time) bool {
	latest := a.LastVote
	for _, ts := range []time.Time{a.LastView, a.LastShare, a.LastPost, a.LastTransfer, a.LastActivityReward} {
		if ts.After(latest) {
			latest = ts
		}
	}
	return latest.Before(t)
}

// WeightedKey is one (key fingerprint, weight) entry in a threshold
// authority.
type WeightedKey struct {
	KeyFingerprint string
	Weight         uint32
}

// WeightedAccount references another account by name with a vote weight.
type WeightedAccount struct {
	Name   string
	Weight uint32
}

// Authority is a weight-threshold set of keys and/or accounts.
type Authority struct {
	Threshold uint32
	Keys      []WeightedKey
	Accounts  []WeightedAccount
}

// MaxPossibleWeight sums every entry's weight, used to detect an
// "impossible" authority whose threshold can never be reached.
func (a Authority) MaxPossibleWeight() uint32 {
	var total uint32
	for _, k := range a.Keys {
		total += k.Weight
	}
	for _, acc := range a.Accounts {
		total += acc.Weight
	}
	return total
}

// Possible reports whether the authority's threshold is reachable at all.
func (a Authority) Possible() bool {
	return a.Threshold > 0 && a.MaxPossibleWeight() >= a.Threshold
}

// AccountAuthority bundles the three role-scoped authorities for an account
// plus the owner-update rate limit timestamp.
type AccountAuthority struct {
	AccountName      string
	Owner            Authority
	Active           Authority
	Posting          Authority
	LastOwnerUpdate  time.Time
	// OwnerHistory retains prior owner authorities for 30 days so `recover`
	// can cite a recently rotated-away key (spec.md §4.7, boundary 5).
	OwnerHistory []OwnerHistoryEntry
}

// OwnerHistoryEntry records a previous owner authority and when it stopped
// being current.
type OwnerHistoryEntry struct {
	Authority  Authority
	ReplacedAt time.Time
}

// PruneHistory drops owner-history entries older than retention.
func (a *AccountAuthority) PruneHistory(now time.Time, retention time.Duration) {
	kept := a.OwnerHistory[:0]
	for _, e := range a.OwnerHistory {
		if now.Sub(e.ReplacedAt) <= retention {
			kept = append(kept, e)
		}
	}
	a.OwnerHistory = kept
}

// UnstakeSchedule tracks a single (owner, asset) unstaking-in-progress
// record, including optional withdraw routes.
type UnstakeSchedule struct {
	ToUnstake       asset.Amount
	TotalUnstaked   asset.Amount
	UnstakeRate     asset.Amount
	NextUnstakeTime time.Time
	Routes          []WithdrawRoute
}

// WithdrawRoute diverts a percentage of each unstake tick to another
// account, either into that account's staked balance (AutoStake) or liquid
// balance.
type WithdrawRoute struct {
	ToAccount string
	Percent   float64 // fraction in [0, 1]
	AutoStake bool
}

// Done reports whether the unstake schedule has completed.
func (u UnstakeSchedule) Done() bool {
	return u.ToUnstake <= 0 || u.TotalUnstaked >= u.ToUnstake
}

// Balance is the six-pool balance record for one (owner, asset) pair.
type Balance struct {
	Owner     string
	Symbol    asset.Symbol
	Liquid    asset.Amount
	Staked    asset.Amount
	Savings   asset.Amount
	Reward    asset.Amount
	Delegated asset.Amount
	Receiving asset.Amount
	Unstake   UnstakeSchedule
}

func (b *Balance) pool(p asset.Pool) *asset.Amount {
	switch p {
	case asset.PoolLiquid:
		return &b.Liquid
	case asset.PoolStaked:
		return &b.Staked
	case asset.PoolSavings:
		return &b.Savings
	case asset.PoolReward:
		return &b.Reward
	case asset.PoolDelegated:
		return &b.Delegated
	case asset.PoolReceiving:
		return &b.Receiving
	default:
		return nil
	}
}

// Get returns the current amount held in pool p.
func (b *Balance) Get(p asset.Pool) asset.Amount {
	if ptr := b.pool(p); ptr != nil {
		return *ptr
	}
	return 0
}

// Add adjusts pool p by delta; returns false for an unrecognized pool.
func (b *Balance) Add(p asset.Pool, delta asset.Amount) bool {
	ptr := b.pool(p)
	if ptr == nil {
		return false
	}
	*ptr += delta
	return true
}
