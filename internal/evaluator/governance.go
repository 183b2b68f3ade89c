package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/governance"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

const (
	roleKindNetworkOfficer = governance.RoleNetworkOfficer
	roleKindExecutiveBoard = governance.RoleExecutiveBoard
	roleKindGovernance     = governance.RoleGovernance
)

// evalUpdateRoleCandidate registers or refreshes an account as a candidate
// for an approval-gated role. A candidate with no existing record starts
// with ApprovedFlag false; recomputation happens in the Maintenance
// Scheduler, not here (spec.md §4.8, §4.9).
func evalUpdateRoleCandidate(s *chainstate.State, op, candidate string, kind governance.RoleKind, now time.Time) error {
	if _, ok := s.Account(candidate); !ok {
		return errors.UnknownEntity(op, "account", candidate)
	}
	if _, _, ok := s.Role(kind, candidate); ok {
		return nil
	}
	s.Roles.Create(func(id store.ID) governance.Role {
		return *governance.NewRole(kind, candidate)
	})
	return nil
}

// evalRoleVote casts or withdraws a voter's approval for a role candidate.
// The withdrawn/approved state is recorded immediately; ApprovedFlag is
// only recomputed by the Maintenance Scheduler against the governance
// approval threshold (spec.md §4.8, §4.9).
func evalRoleVote(s *chainstate.State, op, voter, candidate string, kind governance.RoleKind, approve bool, now time.Time) error {
	if _, ok := s.Account(voter); !ok {
		return errors.UnknownEntity(op, "account", voter)
	}
	id, _, ok := s.Role(kind, candidate)
	if !ok {
		return errors.UnknownEntity(op, "role_candidate", candidate)
	}
	s.Roles.Modify(id, func(r *governance.Role) {
		if r.Approvers == nil {
			r.Approvers = map[string]struct{}{}
		}
		if approve {
			r.Approvers[voter] = struct{}{}
		} else {
			delete(r.Approvers, voter)
		}
	})
	return nil
}

// evalCreateEnterprise proposes a milestone-bounded community funding
// commitment (spec.md §4.8).
func evalCreateEnterprise(s *chainstate.State, op operation.GovernanceCreateCommunityEnterprise, now time.Time) error {
	const name = "governance.create_community_enterprise"

	if _, ok := s.Account(op.Creator); !ok {
		return errors.UnknownEntity(name, "account", op.Creator)
	}
	if len(op.Milestones) == 0 {
		return errors.InvalidArgument(name, "milestones", "an enterprise needs at least one milestone")
	}
	if !governance.MilestonesSumTo100(op.Milestones) {
		return errors.InvalidArgument(name, "milestones", "milestone percentages must sum to 100")
	}
	if op.DurationDays <= 0 || op.DailyBudget <= 0 {
		return errors.InvalidArgument(name, "duration_days", "enterprise duration and daily budget must be positive")
	}

	id := s.AllocateEnterpriseID()
	s.Enterprises.Create(func(storeID store.ID) governance.Enterprise {
		return *governance.NewEnterprise(id, op.Creator, op.Title, op.Milestones, op.Begin, op.DurationDays, op.DailyBudget, op.BudgetSymbol)
	})
	return nil
}

// evalApproveEnterpriseMilestone casts the signatory's approval for the
// next enterprise milestone. Approval only advances ApprovedMilestones by
// one past the current value, preserving the milestone order spec.md §4.8
// requires (milestones are approved sequentially, never out of order).
func evalApproveEnterpriseMilestone(s *chainstate.State, op operation.GovernanceApproveEnterpriseMilestone, now time.Time) error {
	const name = "governance.approve_enterprise_milestone"

	id, e, ok := s.Enterprise(op.EnterpriseID)
	if !ok {
		return errors.UnknownEntity(name, "enterprise", "")
	}
	if _, ok := s.Account(op.Voter); !ok {
		return errors.UnknownEntity(name, "account", op.Voter)
	}
	if op.Milestone != e.ApprovedMilestones+1 {
		return errors.PreconditionViolated(name, "milestones must be approved in order")
	}
	if op.Milestone < 0 || op.Milestone >= len(e.Milestones) {
		return errors.InvalidArgument(name, "milestone", "milestone index out of range")
	}

	s.Enterprises.Modify(id, func(ent *governance.Enterprise) {
		if ent.Approvers == nil {
			ent.Approvers = map[string]struct{}{}
		}
		ent.Approvers[op.Voter] = struct{}{}
		if len(ent.Approvers) >= s.Config.GovernanceApprovalMinVoters {
			ent.ApprovedMilestones = op.Milestone
			ent.Approvers = map[string]struct{}{}
		}
	})
	return nil
}

// evalClaimEnterpriseMilestone advances claimed_milestones by one once the
// corresponding milestone has been approved (spec.md §4.8, §4.10).
func evalClaimEnterpriseMilestone(s *chainstate.State, op operation.GovernanceClaimEnterpriseMilestone, now time.Time) error {
	const name = "governance.claim_enterprise_milestone"

	id, e, ok := s.Enterprise(op.EnterpriseID)
	if !ok {
		return errors.UnknownEntity(name, "enterprise", "")
	}
	if e.Creator != op.Creator {
		return errors.PreconditionViolated(name, "signatory is not this enterprise's creator")
	}
	if e.ClaimedMilestones > e.ApprovedMilestones {
		return errors.PreconditionViolated(name, "no newly approved milestone available to claim")
	}
	if e.ClaimedMilestones >= len(e.Milestones) {
		return errors.PreconditionViolated(name, "all milestones already claimed")
	}

	s.Enterprises.Modify(id, func(ent *governance.Enterprise) { ent.ClaimedMilestones++ })
	return nil
}
