// Package evaluator implements the per-operation evaluator contract:
// resolve signatory, check authority, apply preconditions, mutate state,
// emit virtual ops (spec.md §4.6).
package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

// Dispatch is the evaluator dispatch table entry point, matching
// chainstate.Dispatch's signature so it can be handed to chainstate.ApplyBlock
// without chainstate ever importing this package.
func Dispatch(s *chainstate.State, op operation.Operation, keys map[string]struct{}, now time.Time) error {
	disc := op.Discriminator()

	signatory, ok := s.Account(op.Signatory())
	if !ok {
		return errors.UnknownEntity(disc, "account", op.Signatory())
	}
	if !signatory.Active {
		return errors.PreconditionViolated(disc, "signatory account is not active")
	}
	if err := s.Resolver.Check(disc, op.Signatory(), op.RequiredClass(), keys); err != nil {
		return err
	}

	switch v := op.(type) {
	case operation.AccountCreate:
		return evalAccountCreate(s, v, now)
	case operation.AccountUpdate:
		return evalAccountUpdate(s, v, now)
	case operation.AccountRequestRecovery:
		return evalAccountRequestRecovery(s, v, now)
	case operation.AccountRecover:
		return evalAccountRecover(s, v, now)
	case operation.AccountReset:
		return evalAccountReset(s, v, now)
	case operation.AccountUpdateProxy:
		return evalAccountUpdateProxy(s, v, now)
	case operation.ConnectionRequest:
		return evalConnectionRequest(s, v, now)
	case operation.ConnectionAccept:
		return evalConnectionAccept(s, v, now)
	case operation.Follow:
		return evalFollow(s, v, now)
	case operation.Activity:
		return evalActivity(s, v, now)

	case operation.CommunityCreate:
		return evalCommunityCreate(s, v, now)
	case operation.CommunityJoinRequest:
		return evalCommunityJoinRequest(s, v, now)
	case operation.CommunityJoinInvite:
		return evalCommunityJoinInvite(s, v, now)
	case operation.CommunityJoinAccept:
		return evalCommunityJoinAccept(s, v, now)
	case operation.CommunityAddMod:
		return evalCommunityAddMod(s, v, now)
	case operation.CommunityAddAdmin:
		return evalCommunityAddAdmin(s, v, now)
	case operation.CommunityVoteMod:
		return evalCommunityVoteMod(s, v, now)
	case operation.CommunityBlacklist:
		return evalCommunityBlacklist(s, v, now)
	case operation.CommunityTransferOwnership:
		return evalCommunityTransferOwnership(s, v, now)

	case operation.MarketLimitOrderCreate:
		return evalLimitOrderCreate(s, v, now)
	case operation.MarketLimitOrderCancel:
		return evalLimitOrderCancel(s, v, now)
	case operation.MarketCallOrderUpdate:
		return evalCallOrderUpdate(s, v, now)
	case operation.MarketBidCollateral:
		return evalBidCollateral(s, v, now)
	case operation.MarketAssetSettle:
		return evalAssetSettle(s, v, now)
	case operation.MarketAssetGlobalSettle:
		return evalAssetGlobalSettle(s, v, now)
	case operation.MarketAssetPublishFeed:
		return evalAssetPublishFeed(s, v, now)
	case operation.MarketUpdateFeedProducers:
		return evalUpdateFeedProducers(s, v, now)

	case operation.GovernanceUpdateNetworkOfficer:
		return evalUpdateRoleCandidate(s, "governance.update_network_officer", v.Candidate, roleKindNetworkOfficer, now)
	case operation.GovernanceNetworkOfficerVote:
		return evalRoleVote(s, "governance.network_officer_vote", v.Voter, v.Candidate, roleKindNetworkOfficer, v.Approve, now)
	case operation.GovernanceUpdateExecutiveBoard:
		return evalUpdateRoleCandidate(s, "governance.update_executive_board", v.Candidate, roleKindExecutiveBoard, now)
	case operation.GovernanceExecutiveBoardVote:
		return evalRoleVote(s, "governance.executive_board_vote", v.Voter, v.Candidate, roleKindExecutiveBoard, v.Approve, now)
	case operation.GovernanceUpdateGovernance:
		return evalUpdateRoleCandidate(s, "governance.update_governance", v.Candidate, roleKindGovernance, now)
	case operation.GovernanceSubscribeGovernance:
		return evalRoleVote(s, "governance.subscribe_governance", v.Voter, v.Candidate, roleKindGovernance, v.Subscribe, now)
	case operation.GovernanceCreateCommunityEnterprise:
		return evalCreateEnterprise(s, v, now)
	case operation.GovernanceApproveEnterpriseMilestone:
		return evalApproveEnterpriseMilestone(s, v, now)
	case operation.GovernanceClaimEnterpriseMilestone:
		return evalClaimEnterpriseMilestone(s, v, now)
	}

	return errors.InvalidArgument(disc, "discriminator", "no evaluator registered for this operation")
}
