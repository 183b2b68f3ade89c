// Package chainstate owns the top-level State handle that aggregates the
// Object Store, Asset Ledger, Order Book, and Authority Resolver, and
// implements block/transaction application over an undo session (spec.md
// §2, §5).
package chainstate

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/community"
	"github.com/r3e-network/ledgerchain/domain/governance"
	"github.com/r3e-network/ledgerchain/domain/market"
	"github.com/r3e-network/ledgerchain/domain/virtualop"
	"github.com/r3e-network/ledgerchain/internal/authority"
	"github.com/r3e-network/ledgerchain/internal/ledger"
	"github.com/r3e-network/ledgerchain/internal/marketeng"
	"github.com/r3e-network/ledgerchain/internal/matching"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/config"
)

const (
	accountsByName    = "name"
	authoritiesByName = "account"
	communitiesByName = "name"
	membersByCommunity = "community"
	rolesByKindAccount = "kind_account"
	enterprisesByID    = "id"
	settlementsByOwner = "owner"
	settlementsByDate  = "date"
	bidsBySymbolPrice  = "symbol_price"

	connectionRequestsByPair = "requester_target"
	connectionRequestsByExp  = "expiration"
	connectionsByOwnerPeer   = "owner_peer"
	followByFollowerFollowing = "follower_following"
	followByFollowingFollower = "following_follower"
	delegationsByDelegatee   = "delegatee"
	delegationsByExpiration  = "expiration"
	recoveryRequestsByAccount = "account"
	joinRequestsByCommunityAccount = "community_account"
	joinRequestsByExpiration       = "expiration"
	invitesByCommunityInvitee      = "community_invitee"
	invitesByExpiration            = "expiration"
)

// NativeSymbol is the chain's own staking/voting asset.
const NativeSymbol asset.Symbol = "COIN"

// EquitySymbol is the chain's equity asset: staking it contributes to
// voting power (priced against the native coin via EquityMedianPrice) and
// to the equity reward pool's share computation (spec.md §4.2, §4.9 step
// 6).
const EquitySymbol asset.Symbol = "EQUITY"

// equityFeedWindow bounds how far back a coin/equity trade still counts
// toward the voting-power median price.
const equityFeedWindow = time.Hour

// State is the single mutable handle every evaluator and scheduler pass
// operates through. There is exactly one per running node.
type State struct {
	Stack   *store.UndoStack
	Ledger  *ledger.Ledger
	Book    *matching.OrderBook
	Calls   *matching.CallOrderBook

	Accounts           *store.Table[account.Account]
	AccountAuthorities *store.Table[account.AccountAuthority]
	Communities        *store.Table[community.Community]
	CommunityMembers   *store.Table[community.Member]
	Roles              *store.Table[governance.Role]
	Enterprises        *store.Table[governance.Enterprise]
	Settlements        *store.Table[market.ForceSettlementOrder]
	CollateralBids     *store.Table[market.CollateralBid]
	Bitassets          map[asset.Symbol]*asset.BitassetData
	EquityFeed         []asset.PriceSample

	ConnectionRequests *store.Table[account.ConnectionRequest]
	Connections        *store.Table[account.Connection]
	FollowEdges        *store.Table[account.FollowEdge]
	Delegations        *store.Table[account.Delegation]
	RecoveryRequests   *store.Table[account.RecoveryRequest]
	JoinRequests       *store.Table[community.JoinRequest]
	Invites            *store.Table[community.Invite]

	Resolver *authority.Resolver
	Config   *config.ChainConfig
	FeeCfg   marketeng.FeeConfig
	Sink     virtualop.Sink

	UsedTxIDs map[string]time.Time
	Now       time.Time
	Height    uint64

	NextEnterpriseID uint64
}

// New constructs an empty State wired from cfg.
func New(cfg *config.ChainConfig, sink virtualop.Sink) *State {
	stack := &store.UndoStack{}
	s := &State{
		Stack:     stack,
		Ledger:    ledger.New(stack),
		Bitassets: make(map[asset.Symbol]*asset.BitassetData),
		Config:    cfg,
		Sink:      sink,
		UsedTxIDs: make(map[string]time.Time),
	}
	s.Book = matching.New(stack, s.Ledger)
	s.Calls = matching.NewCallOrderBook(stack)

	s.Accounts = store.NewTable[account.Account](stack)
	s.Accounts.AddIndex(accountsByName, func(a account.Account) store.Key { return store.Key{a.Name} })

	s.AccountAuthorities = store.NewTable[account.AccountAuthority](stack)
	s.AccountAuthorities.AddIndex(authoritiesByName, func(a account.AccountAuthority) store.Key { return store.Key{a.AccountName} })

	s.Communities = store.NewTable[community.Community](stack)
	s.Communities.AddIndex(communitiesByName, func(c community.Community) store.Key { return store.Key{c.Name} })

	s.CommunityMembers = store.NewTable[community.Member](stack)
	s.CommunityMembers.AddIndex(membersByCommunity, func(m community.Member) store.Key { return store.Key{m.CommunityName} })

	s.Roles = store.NewTable[governance.Role](stack)
	s.Roles.AddIndex(rolesByKindAccount, func(r governance.Role) store.Key { return store.Key{string(r.Kind), r.Account} })

	s.Enterprises = store.NewTable[governance.Enterprise](stack)
	s.Enterprises.AddIndex(enterprisesByID, func(e governance.Enterprise) store.Key { return store.Key{e.ID} })

	s.Settlements = store.NewTable[market.ForceSettlementOrder](stack)
	s.Settlements.AddIndex(settlementsByOwner, func(f market.ForceSettlementOrder) store.Key { return store.Key{f.Owner, string(f.Symbol)} })
	s.Settlements.AddIndex(settlementsByDate, func(f market.ForceSettlementOrder) store.Key {
		return store.Key{string(f.Symbol), f.SettlementDate.Unix()}
	})

	s.CollateralBids = store.NewTable[market.CollateralBid](stack)
	s.CollateralBids.AddIndex(bidsBySymbolPrice, func(b market.CollateralBid) store.Key {
		rate := float64(0)
		if b.InvSwanPrice.Base != 0 {
			rate = float64(b.InvSwanPrice.Quote) / float64(b.InvSwanPrice.Base)
		}
		return store.Key{string(b.Symbol), rate}
	})

	s.ConnectionRequests = store.NewTable[account.ConnectionRequest](stack)
	s.ConnectionRequests.AddIndex(connectionRequestsByPair, func(r account.ConnectionRequest) store.Key {
		return store.Key{r.Requester, r.Target}
	})
	s.ConnectionRequests.AddIndex(connectionRequestsByExp, func(r account.ConnectionRequest) store.Key {
		return store.Key{r.Expiration.Unix()}
	})

	s.Connections = store.NewTable[account.Connection](stack)
	s.Connections.AddIndex(connectionsByOwnerPeer, func(c account.Connection) store.Key {
		return store.Key{c.Owner, c.Peer}
	})

	s.FollowEdges = store.NewTable[account.FollowEdge](stack)
	s.FollowEdges.AddIndex(followByFollowerFollowing, func(f account.FollowEdge) store.Key {
		return store.Key{f.Follower, f.Following}
	})
	s.FollowEdges.AddIndex(followByFollowingFollower, func(f account.FollowEdge) store.Key {
		return store.Key{f.Following, f.Follower}
	})

	s.Delegations = store.NewTable[account.Delegation](stack)
	s.Delegations.AddIndex(delegationsByDelegatee, func(d account.Delegation) store.Key {
		return store.Key{d.Delegatee, d.Delegator, string(d.Symbol)}
	})
	s.Delegations.AddIndex(delegationsByExpiration, func(d account.Delegation) store.Key {
		return store.Key{d.Expiration.Unix()}
	})

	s.RecoveryRequests = store.NewTable[account.RecoveryRequest](stack)
	s.RecoveryRequests.AddIndex(recoveryRequestsByAccount, func(r account.RecoveryRequest) store.Key {
		return store.Key{r.AccountToRecover}
	})

	s.JoinRequests = store.NewTable[community.JoinRequest](stack)
	s.JoinRequests.AddIndex(joinRequestsByCommunityAccount, func(r community.JoinRequest) store.Key {
		return store.Key{r.CommunityName, r.Account}
	})
	s.JoinRequests.AddIndex(joinRequestsByExpiration, func(r community.JoinRequest) store.Key {
		return store.Key{r.Expiration.Unix()}
	})

	s.Invites = store.NewTable[community.Invite](stack)
	s.Invites.AddIndex(invitesByCommunityInvitee, func(i community.Invite) store.Key {
		return store.Key{i.CommunityName, i.Invitee}
	})
	s.Invites.AddIndex(invitesByExpiration, func(i community.Invite) store.Key {
		return store.Key{i.Expiration.Unix()}
	})

	s.Resolver = authority.New(s.lookupAuthority, cfg.MaxProxyRecursionDepth, cfg.MaxSigCheckDepth)
	s.FeeCfg = marketeng.FeeConfig{
		MarketFeePct:              0.01,
		MaxMarketFee:              1_000_000,
		RegistrarReferrerSharePct: 0.5,
		NetworkFeePct:             cfg.NetworkFeePercent,
		GovernanceSharePct:        cfg.GovernanceFeeShare,
		ReferralSharePct:          cfg.ReferralFeeShare,
	}
	s.Book.SetFeeRouter(s.RouteFee)
	return s
}

func (s *State) lookupAuthority(name string) (account.AccountAuthority, bool) {
	_, aa, ok := s.AccountAuthorities.Find(authoritiesByName, store.Key{name})
	return aa, ok
}

// Account returns the account record by name.
func (s *State) Account(name string) (account.Account, bool) {
	_, a, ok := s.Accounts.Find(accountsByName, store.Key{name})
	return a, ok
}

// AccountWithID returns the account record and its Object Store id by name.
func (s *State) AccountWithID(name string) (store.ID, account.Account, bool) {
	return s.Accounts.Find(accountsByName, store.Key{name})
}

// AccountAuthority returns the authority record by account name.
func (s *State) AccountAuthority(name string) (account.AccountAuthority, bool) {
	return s.lookupAuthority(name)
}

// AccountAuthorityWithID returns the authority record and its Object Store
// id by account name.
func (s *State) AccountAuthorityWithID(name string) (store.ID, account.AccountAuthority, bool) {
	return s.AccountAuthorities.Find(authoritiesByName, store.Key{name})
}

// Community returns the community record by name.
func (s *State) Community(name string) (community.Community, bool) {
	_, c, ok := s.Communities.Find(communitiesByName, store.Key{name})
	return c, ok
}

// CommunityWithID returns the community record and its Object Store id by
// name.
func (s *State) CommunityWithID(name string) (store.ID, community.Community, bool) {
	return s.Communities.Find(communitiesByName, store.Key{name})
}

// Member returns the membership record for a community.
func (s *State) Member(communityName string) (store.ID, community.Member, bool) {
	return s.CommunityMembers.Find(membersByCommunity, store.Key{communityName})
}

// Role returns the approval-gated role record.
func (s *State) Role(kind governance.RoleKind, account string) (store.ID, governance.Role, bool) {
	return s.Roles.Find(rolesByKindAccount, store.Key{string(kind), account})
}

// VotingPower returns an account's voting power — native coin plus staked
// equity priced at the trailing hour-median coin/equity rate — used by
// governance role approval (spec.md §4.2).
func (s *State) VotingPower(owner string) float64 {
	price, _ := s.EquityMedianPrice(s.Now)
	return float64(s.Ledger.GetVotingPower(owner, NativeSymbol, EquitySymbol, price))
}

// RecordEquityTrade appends a coin/equity fill price observed at now to the
// voting-power feed and prunes samples older than equityFeedWindow. p must
// already be oriented Base=EquitySymbol, Quote=NativeSymbol (coin per
// equity, matching Ledger.GetVotingPower); callers crossing the book in the
// other direction invert first.
func (s *State) RecordEquityTrade(now time.Time, p asset.Price) {
	cutoff := now.Add(-equityFeedWindow)
	kept := s.EquityFeed[:0]
	for _, sample := range s.EquityFeed {
		if sample.Timestamp.After(cutoff) {
			kept = append(kept, sample)
		}
	}
	s.EquityFeed = append(kept, asset.PriceSample{Price: p, Timestamp: now})
}

// EquityMedianPrice returns the median coin/equity trade price over the
// trailing equityFeedWindow, or false if no trade was recorded in it.
func (s *State) EquityMedianPrice(now time.Time) (asset.Price, bool) {
	cutoff := now.Add(-equityFeedWindow)
	prices := make([]asset.Price, 0, len(s.EquityFeed))
	for _, sample := range s.EquityFeed {
		if sample.Timestamp.After(cutoff) {
			prices = append(prices, sample.Price)
		}
	}
	return marketeng.MedianFeed(prices)
}

// RouteFee credits receiver with gross units of symbol net of the market's
// issuer and network trading fees (spec.md §4.4), installed as the order
// book's FeeRouter so every market fill — a normal taker/maker match, a
// margin-call cross, or a matured force-settlement — is fee-routed the same
// way.
func (s *State) RouteFee(op, receiver string, symbol asset.Symbol, gross asset.Amount) error {
	a, _ := s.Account(receiver)
	_, err := marketeng.DistributeReceiveFee(s.Ledger, op, receiver, a.Registrar, a.Referrer, a.ReferrerRewardsPct, symbol, gross, s.FeeCfg)
	return err
}

// Connection returns the directed connection row from owner to peer, if any.
func (s *State) Connection(owner, peer string) (store.ID, account.Connection, bool) {
	return s.Connections.Find(connectionsByOwnerPeer, store.Key{owner, peer})
}

// ConnectionRequest returns the pending request from requester to target.
func (s *State) ConnectionRequest(requester, target string) (store.ID, account.ConnectionRequest, bool) {
	return s.ConnectionRequests.Find(connectionRequestsByPair, store.Key{requester, target})
}

// Follows reports whether follower already follows following.
func (s *State) Follows(follower, following string) (store.ID, bool) {
	id, _, ok := s.FollowEdges.Find(followByFollowerFollowing, store.Key{follower, following})
	return id, ok
}

// RecoveryRequest returns the pending recovery filing for accountToRecover.
func (s *State) RecoveryRequest(accountToRecover string) (store.ID, account.RecoveryRequest, bool) {
	return s.RecoveryRequests.Find(recoveryRequestsByAccount, store.Key{accountToRecover})
}

// JoinRequest returns the pending join request for (community, account).
func (s *State) JoinRequest(communityName, accountName string) (store.ID, community.JoinRequest, bool) {
	return s.JoinRequests.Find(joinRequestsByCommunityAccount, store.Key{communityName, accountName})
}

// Invite returns the pending invite for (community, invitee).
func (s *State) Invite(communityName, invitee string) (store.ID, community.Invite, bool) {
	return s.Invites.Find(invitesByCommunityInvitee, store.Key{communityName, invitee})
}

// CollateralBidAt returns the collateral bid resting at exactly invRate for
// symbol, if any.
func (s *State) CollateralBidAt(symbol asset.Symbol, invRate float64) (store.ID, market.CollateralBid, bool) {
	return s.CollateralBids.Find(bidsBySymbolPrice, store.Key{string(symbol), invRate})
}

// Enterprise returns the community enterprise record by its domain id.
func (s *State) Enterprise(id uint64) (store.ID, governance.Enterprise, bool) {
	return s.Enterprises.Find(enterprisesByID, store.Key{id})
}

// AllocateEnterpriseID returns the next unused community enterprise id.
func (s *State) AllocateEnterpriseID() uint64 {
	s.NextEnterpriseID++
	return s.NextEnterpriseID
}
