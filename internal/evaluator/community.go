package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/community"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

const joinRequestDuration = 7 * 24 * time.Hour
const inviteDuration = 30 * 24 * time.Hour

// evalCommunityCreate registers a new community with its founder as the
// sole member (spec.md §4.8).
func evalCommunityCreate(s *chainstate.State, op operation.CommunityCreate, now time.Time) error {
	const name = "community.create"

	if _, ok := s.Community(op.Name); ok {
		return errors.PreconditionViolated(name, "community name already registered")
	}
	if _, ok := s.Account(op.Founder); !ok {
		return errors.UnknownEntity(name, "account", op.Founder)
	}

	s.Communities.Create(func(id store.ID) community.Community {
		return community.Community{
			Name:      op.Name,
			Founder:   op.Founder,
			Privacy:   op.Privacy,
			PublicKey: op.PublicKey,
			CreatedAt: now,
		}
	})
	s.CommunityMembers.Create(func(id store.ID) community.Member {
		m := community.NewMember(op.Name)
		m.Members[op.Founder] = struct{}{}
		m.Administrators[op.Founder] = struct{}{}
		return *m
	})
	return nil
}

// evalCommunityJoinRequest files a pending join request against a public
// community (spec.md §4.8).
func evalCommunityJoinRequest(s *chainstate.State, op operation.CommunityJoinRequest, now time.Time) error {
	const name = "community.join_request"

	c, ok := s.Community(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community", op.Community)
	}
	if !c.Privacy.CanView() {
		return errors.PreconditionViolated(name, "community is not open to join requests")
	}
	_, mem, ok := s.Member(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community_member", op.Community)
	}
	if mem.IsBlacklisted(op.Account) {
		return errors.PreconditionViolated(name, "account is blacklisted from this community")
	}
	if mem.IsMember(op.Account) {
		return errors.PreconditionViolated(name, "account is already a member")
	}

	expiration := now.Add(joinRequestDuration)
	if id, _, ok := s.JoinRequest(op.Community, op.Account); ok {
		s.JoinRequests.Modify(id, func(r *community.JoinRequest) { r.Created = now; r.Expiration = expiration })
		return nil
	}
	s.JoinRequests.Create(func(id store.ID) community.JoinRequest {
		return community.JoinRequest{CommunityName: op.Community, Account: op.Account, Created: now, Expiration: expiration}
	})
	return nil
}

// evalCommunityJoinInvite issues a pending invite to any account, from any
// existing member (spec.md §4.8).
func evalCommunityJoinInvite(s *chainstate.State, op operation.CommunityJoinInvite, now time.Time) error {
	const name = "community.join_invite"

	if _, ok := s.Community(op.Community); !ok {
		return errors.UnknownEntity(name, "community", op.Community)
	}
	_, mem, ok := s.Member(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community_member", op.Community)
	}
	if !mem.IsMember(op.Inviter) {
		return errors.PreconditionViolated(name, "inviter is not a member of this community")
	}
	if mem.IsBlacklisted(op.Invitee) {
		return errors.PreconditionViolated(name, "invitee is blacklisted from this community")
	}
	if mem.IsMember(op.Invitee) {
		return errors.PreconditionViolated(name, "invitee is already a member")
	}

	expiration := now.Add(inviteDuration)
	if id, _, ok := s.Invite(op.Community, op.Invitee); ok {
		s.Invites.Modify(id, func(i *community.Invite) { i.Inviter = op.Inviter; i.Created = now; i.Expiration = expiration })
		return nil
	}
	s.Invites.Create(func(id store.ID) community.Invite {
		return community.Invite{CommunityName: op.Community, Inviter: op.Inviter, Invitee: op.Invitee, Created: now, Expiration: expiration}
	})
	return nil
}

// evalCommunityJoinAccept converts a pending join request or invite into
// membership (spec.md §4.8).
func evalCommunityJoinAccept(s *chainstate.State, op operation.CommunityJoinAccept, now time.Time) error {
	const name = "community.join_accept"

	memID, mem, ok := s.Member(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community_member", op.Community)
	}

	if op.FromInvite {
		id, inv, ok := s.Invite(op.Community, op.Account)
		if !ok {
			return errors.UnknownEntity(name, "invite", op.Account)
		}
		if now.After(inv.Expiration) {
			return errors.UnknownEntity(name, "invite", op.Account)
		}
		s.Invites.Remove(id)
	} else {
		id, req, ok := s.JoinRequest(op.Community, op.Account)
		if !ok {
			return errors.UnknownEntity(name, "join_request", op.Account)
		}
		if now.After(req.Expiration) {
			return errors.UnknownEntity(name, "join_request", op.Account)
		}
		s.JoinRequests.Remove(id)
	}

	if mem.IsBlacklisted(op.Account) {
		return errors.PreconditionViolated(name, "account is blacklisted from this community")
	}
	s.CommunityMembers.Modify(memID, func(m *community.Member) { m.Members[op.Account] = struct{}{} })
	return nil
}

// evalCommunityAddMod adds or removes a moderator; requires administrator
// authority over the community (spec.md §4.8).
func evalCommunityAddMod(s *chainstate.State, op operation.CommunityAddMod, now time.Time) error {
	const name = "community.add_mod"

	memID, mem, ok := s.Member(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community_member", op.Community)
	}
	if !mem.IsAdministrator(op.Admin) {
		return errors.PreconditionViolated(name, "signatory is not an administrator of this community")
	}
	if !mem.IsMember(op.Moderator) {
		return errors.PreconditionViolated(name, "target is not a member of this community")
	}

	s.CommunityMembers.Modify(memID, func(m *community.Member) {
		if op.Remove {
			delete(m.Moderators, op.Moderator)
		} else {
			m.Moderators[op.Moderator] = 1.0
		}
	})
	return nil
}

// evalCommunityAddAdmin adds or removes an administrator; requires founder
// authority (spec.md §4.8).
func evalCommunityAddAdmin(s *chainstate.State, op operation.CommunityAddAdmin, now time.Time) error {
	const name = "community.add_admin"

	c, ok := s.Community(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community", op.Community)
	}
	if c.Founder != op.Founder {
		return errors.PreconditionViolated(name, "signatory is not this community's founder")
	}
	memID, mem, ok := s.Member(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community_member", op.Community)
	}
	if !mem.IsMember(op.Admin) {
		return errors.PreconditionViolated(name, "target is not a member of this community")
	}

	s.CommunityMembers.Modify(memID, func(m *community.Member) {
		if op.Remove {
			delete(m.Administrators, op.Admin)
		} else {
			m.Administrators[op.Admin] = struct{}{}
		}
	})
	return nil
}

// evalCommunityVoteMod tags a post with a moderator's weighted
// classification (spec.md §4.8).
func evalCommunityVoteMod(s *chainstate.State, op operation.CommunityVoteMod, now time.Time) error {
	const name = "community.vote_mod"

	_, mem, ok := s.Member(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community_member", op.Community)
	}
	if !mem.IsModerator(op.Moderator) {
		return errors.PreconditionViolated(name, "signatory is not a moderator of this community")
	}
	if op.Tag == "" {
		return errors.InvalidArgument(name, "tag", "tag must not be empty")
	}
	return nil
}

// evalCommunityBlacklist adds or removes an account from a community's
// blacklist; requires moderator or administrator role (spec.md §4.8).
func evalCommunityBlacklist(s *chainstate.State, op operation.CommunityBlacklist, now time.Time) error {
	const name = "community.blacklist"

	memID, mem, ok := s.Member(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community_member", op.Community)
	}
	if !mem.IsModerator(op.Moderator) && !mem.IsAdministrator(op.Moderator) {
		return errors.PreconditionViolated(name, "signatory is neither a moderator nor an administrator of this community")
	}

	s.CommunityMembers.Modify(memID, func(m *community.Member) {
		if op.Remove {
			delete(m.Blacklisted, op.Target)
		} else {
			m.Blacklisted[op.Target] = struct{}{}
			delete(m.Members, op.Target)
			delete(m.Moderators, op.Target)
			delete(m.Administrators, op.Target)
		}
	})
	return nil
}

// evalCommunityTransferOwnership re-assigns a community's founder
// (spec.md §4.8).
func evalCommunityTransferOwnership(s *chainstate.State, op operation.CommunityTransferOwnership, now time.Time) error {
	const name = "community.transfer_ownership"

	id, c, ok := s.CommunityWithID(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community", op.Community)
	}
	if c.Founder != op.Founder {
		return errors.PreconditionViolated(name, "signatory is not this community's founder")
	}
	if _, ok := s.Account(op.NewFounder); !ok {
		return errors.UnknownEntity(name, "account", op.NewFounder)
	}

	memID, mem, ok := s.Member(op.Community)
	if !ok {
		return errors.UnknownEntity(name, "community_member", op.Community)
	}
	if !mem.IsMember(op.NewFounder) {
		return errors.PreconditionViolated(name, "new founder must already be a member")
	}

	s.Communities.Modify(id, func(c *community.Community) { c.Founder = op.NewFounder })
	s.CommunityMembers.Modify(memID, func(m *community.Member) { m.Administrators[op.NewFounder] = struct{}{} })
	return nil
}
