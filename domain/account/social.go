package account

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
)

// ConnectionTier ranks the three connection tiers from spec.md §4.7; each
// tier requires the prior tier plus a one-week cooldown to upgrade into.
type ConnectionTier string

const (
	TierConnection ConnectionTier = "connection"
	TierFriend     ConnectionTier = "friend"
	TierCompanion  ConnectionTier = "companion"
)

// Rank orders tiers for upgrade comparisons; higher is closer.
func (t ConnectionTier) Rank() int {
	switch t {
	case TierConnection:
		return 1
	case TierFriend:
		return 2
	case TierCompanion:
		return 3
	default:
		return 0
	}
}

// ConnectionRequest is a pending two-party handshake at a tier (spec.md
// §4.7). Stored once per (requester, target) pair; accepting it creates two
// symmetric Connection rows.
type ConnectionRequest struct {
	Requester  string
	Target     string
	Tier       ConnectionTier
	Created    time.Time
	Expiration time.Time
}

// Connection is one directed half of a bidirectional connection: accepting
// a request at a tier writes both (Owner, Peer) and (Peer, Owner) rows so
// each side's connection list is a plain indexed lookup (spec.md §9's "two
// independent entities keyed by (owner, target) plus (target, owner)").
type Connection struct {
	Owner        string
	Peer         string
	Tier         ConnectionTier
	Created      time.Time
	LastUpgraded time.Time
}

// EligibleForUpgrade reports whether this connection has held its current
// tier for at least cooldown, a precondition for requesting the next tier
// up (spec.md §4.7: "higher tiers require the prior tier plus a one-week
// cooldown").
func (c *Connection) EligibleForUpgrade(now time.Time, cooldown time.Duration) bool {
	return !now.Before(c.LastUpgraded.Add(cooldown))
}

// FollowEdge is a directed following relationship: Follower follows
// Following. Indexed both by (follower, following) for membership checks
// and by (following, follower) for followers listings, keeping the
// relationship symmetric to maintain without a second object type.
type FollowEdge struct {
	Follower  string
	Following string
	Created   time.Time
}

// Delegation is a temporary transfer of staked voting power from Delegator
// to Delegatee, returning to the delegator at Expiration (spec.md's
// glossary entry for "Delegation"; created at account-creation time per
// §4.7 for the registrar's stake delegation to a new account).
type Delegation struct {
	Delegator  string
	Delegatee  string
	Amount     asset.Amount
	Symbol     asset.Symbol
	Created    time.Time
	Expiration time.Time
}

// RecoveryRequest is a pending account-recovery filing naming the owner
// authority to install once `recover` cites a recent owner authority as
// proof of continuity (spec.md §4.7 boundary scenario 5).
type RecoveryRequest struct {
	AccountToRecover  string
	RecoveryAccount   string
	NewOwnerAuthority Authority
	Created           time.Time
}
