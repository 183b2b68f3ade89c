package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

func validTier(t string) bool {
	switch account.ConnectionTier(t) {
	case account.TierConnection, account.TierFriend, account.TierCompanion:
		return true
	default:
		return false
	}
}

func priorTier(t account.ConnectionTier) (account.ConnectionTier, bool) {
	switch t {
	case account.TierFriend:
		return account.TierConnection, true
	case account.TierCompanion:
		return account.TierFriend, true
	default:
		return "", false
	}
}

// evalConnectionRequest files a two-party connection handshake request at a
// tier, requiring the prior tier (plus its cooldown) already be established
// when requesting an upgrade (spec.md §4.7).
func evalConnectionRequest(s *chainstate.State, op operation.ConnectionRequest, now time.Time) error {
	const name = "account.connection_request"

	if op.Requester == op.Target {
		return errors.PreconditionViolated(name, "an account cannot connect to itself")
	}
	if !validTier(op.Tier) {
		return errors.InvalidArgument(name, "tier", "unrecognized connection tier")
	}
	if _, ok := s.Account(op.Target); !ok {
		return errors.UnknownEntity(name, "account", op.Target)
	}
	tier := account.ConnectionTier(op.Tier)

	if prior, needsPrior := priorTier(tier); needsPrior {
		_, conn, ok := s.Connection(op.Requester, op.Target)
		if !ok || conn.Tier != prior {
			return errors.PreconditionViolated(name, "upgrading a connection requires holding the prior tier first")
		}
		cooldown := time.Duration(s.Config.ConnectionUpgradeCooldownSeconds) * time.Second
		if !conn.EligibleForUpgrade(now, cooldown) {
			return errors.RateLimited(name, int64(conn.LastUpgraded.Add(cooldown).Sub(now).Seconds()))
		}
	}

	expiration := now.Add(time.Duration(s.Config.ConnectionRequestDurationSeconds) * time.Second)
	if id, _, ok := s.ConnectionRequest(op.Requester, op.Target); ok {
		s.ConnectionRequests.Modify(id, func(r *account.ConnectionRequest) {
			r.Tier = tier
			r.Created = now
			r.Expiration = expiration
		})
		return nil
	}
	s.ConnectionRequests.Create(func(id store.ID) account.ConnectionRequest {
		return account.ConnectionRequest{Requester: op.Requester, Target: op.Target, Tier: tier, Created: now, Expiration: expiration}
	})
	return nil
}

// evalConnectionAccept completes a pending connection request, writing the
// symmetric pair of Connection rows (spec.md §4.7, §9).
func evalConnectionAccept(s *chainstate.State, op operation.ConnectionAccept, now time.Time) error {
	const name = "account.connection_accept"

	reqID, req, ok := s.ConnectionRequest(op.Requester, op.Acceptor)
	if !ok {
		return errors.UnknownEntity(name, "connection_request", op.Requester)
	}
	if string(req.Tier) != op.Tier {
		return errors.PreconditionViolated(name, "accepted tier does not match the pending request")
	}
	if now.After(req.Expiration) {
		return errors.UnknownEntity(name, "connection_request", op.Requester)
	}

	upsertConnection(s, op.Acceptor, op.Requester, req.Tier, now)
	upsertConnection(s, op.Requester, op.Acceptor, req.Tier, now)
	s.ConnectionRequests.Remove(reqID)

	if len(op.Key) > 0 {
		if id, _, ok := s.AccountWithID(op.Acceptor); ok {
			fp := account.Fingerprint(op.Key)
			s.Accounts.Modify(id, func(a *account.Account) { setTierKey(a, req.Tier, fp) })
		}
	}
	return nil
}

// setTierKey stores fp as the account's messaging key fingerprint for tier
// (spec.md §3's secure/connection/friend/companion keys).
func setTierKey(a *account.Account, tier account.ConnectionTier, fp string) {
	switch tier {
	case account.TierConnection:
		a.ConnectionKey = fp
	case account.TierFriend:
		a.FriendKey = fp
	case account.TierCompanion:
		a.CompanionKey = fp
	}
}

func upsertConnection(s *chainstate.State, owner, peer string, tier account.ConnectionTier, now time.Time) {
	if id, _, ok := s.Connection(owner, peer); ok {
		s.Connections.Modify(id, func(c *account.Connection) {
			c.Tier = tier
			c.LastUpgraded = now
		})
		return
	}
	s.Connections.Create(func(id store.ID) account.Connection {
		return account.Connection{Owner: owner, Peer: peer, Tier: tier, Created: now, LastUpgraded: now}
	})
}

// evalFollow adds or removes a following relationship, symmetric on the
// followers side by virtue of FollowEdge's dual index (spec.md §4.7).
func evalFollow(s *chainstate.State, op operation.Follow, now time.Time) error {
	const name = "account.follow"

	if op.Follower == op.Following {
		return errors.PreconditionViolated(name, "an account cannot follow itself")
	}
	if _, ok := s.Account(op.Following); !ok {
		return errors.UnknownEntity(name, "account", op.Following)
	}

	id, exists := s.Follows(op.Follower, op.Following)
	if op.Unfollow {
		if exists {
			s.FollowEdges.Remove(id)
		}
		return nil
	}
	if exists {
		return nil
	}
	s.FollowEdges.Create(func(id store.ID) account.FollowEdge {
		return account.FollowEdge{Follower: op.Follower, Following: op.Following, Created: now}
	})
	return nil
}

// evalActivity claims the daily activity reward: at most once per 24h, and
// only when the account has posted, voted, and viewed within the last 24h
// and holds the minimum producer-vote count (spec.md §4.7).
func evalActivity(s *chainstate.State, op operation.Activity, now time.Time) error {
	const name = "account.activity"

	id, acc, ok := s.AccountWithID(op.Account)
	if !ok {
		return errors.UnknownEntity(name, "account", op.Account)
	}
	interval := time.Duration(s.Config.ActivityClaimIntervalSeconds) * time.Second
	if err := checkInterval(name, acc.LastActivityReward, interval, now); err != nil {
		return err
	}
	if acc.CumulativeVoteCount < s.Config.MinProducerVotesForActivity {
		return errors.PreconditionViolated(name, "insufficient producer vote count for activity reward")
	}
	window := now.Add(-24 * time.Hour)
	if acc.LastPost.Before(window) || acc.LastVote.Before(window) || acc.LastView.Before(window) {
		return errors.PreconditionViolated(name, "missing a qualifying post, vote, or view in the last 24h")
	}

	if err := s.Ledger.AdjustReward(name, op.Account, chainstate.NativeSymbol, s.Config.ActivityRewardAmount); err != nil {
		return err
	}
	s.Accounts.Modify(id, func(a *account.Account) { a.LastActivityReward = now })
	return nil
}
