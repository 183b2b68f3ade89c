package operation

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
	"github.com/r3e-network/ledgerchain/domain/governance"
)

// GovernanceUpdateNetworkOfficer registers/updates a candidate network
// officer.
type GovernanceUpdateNetworkOfficer struct {
	Candidate string
}

func (o GovernanceUpdateNetworkOfficer) Discriminator() string      { return "governance.update_network_officer" }
func (o GovernanceUpdateNetworkOfficer) Signatory() string          { return o.Candidate }
func (o GovernanceUpdateNetworkOfficer) SignedFor() string          { return o.Candidate }
func (o GovernanceUpdateNetworkOfficer) RequiredClass() AuthorityClass { return ClassActive }

// GovernanceNetworkOfficerVote casts or withdraws approval for a network
// officer candidate.
type GovernanceNetworkOfficerVote struct {
	Voter     string
	Candidate string
	Approve   bool
}

func (o GovernanceNetworkOfficerVote) Discriminator() string      { return "governance.network_officer_vote" }
func (o GovernanceNetworkOfficerVote) Signatory() string          { return o.Voter }
func (o GovernanceNetworkOfficerVote) SignedFor() string          { return o.Voter }
func (o GovernanceNetworkOfficerVote) RequiredClass() AuthorityClass { return ClassActive }

// GovernanceUpdateExecutiveBoard registers/updates a candidate executive
// board account.
type GovernanceUpdateExecutiveBoard struct {
	Candidate string
}

func (o GovernanceUpdateExecutiveBoard) Discriminator() string      { return "governance.update_executive_board" }
func (o GovernanceUpdateExecutiveBoard) Signatory() string          { return o.Candidate }
func (o GovernanceUpdateExecutiveBoard) SignedFor() string          { return o.Candidate }
func (o GovernanceUpdateExecutiveBoard) RequiredClass() AuthorityClass { return ClassActive }

// GovernanceExecutiveBoardVote casts or withdraws approval for an executive
// board candidate.
type GovernanceExecutiveBoardVote struct {
	Voter     string
	Candidate string
	Approve   bool
}

func (o GovernanceExecutiveBoardVote) Discriminator() string      { return "governance.executive_board_vote" }
func (o GovernanceExecutiveBoardVote) Signatory() string          { return o.Voter }
func (o GovernanceExecutiveBoardVote) SignedFor() string          { return o.Voter }
func (o GovernanceExecutiveBoardVote) RequiredClass() AuthorityClass { return ClassActive }

// GovernanceUpdateGovernance registers/updates a candidate governance
// account.
type GovernanceUpdateGovernance struct {
	Candidate string
}

func (o GovernanceUpdateGovernance) Discriminator() string      { return "governance.update_governance" }
func (o GovernanceUpdateGovernance) Signatory() string          { return o.Candidate }
func (o GovernanceUpdateGovernance) SignedFor() string          { return o.Candidate }
func (o GovernanceUpdateGovernance) RequiredClass() AuthorityClass { return ClassActive }

// GovernanceSubscribeGovernance subscribes/unsubscribes a voter's support
// behind a governance account.
type GovernanceSubscribeGovernance struct {
	Voter     string
	Candidate string
	Subscribe bool
}

func (o GovernanceSubscribeGovernance) Discriminator() string      { return "governance.subscribe_governance" }
func (o GovernanceSubscribeGovernance) Signatory() string          { return o.Voter }
func (o GovernanceSubscribeGovernance) SignedFor() string          { return o.Voter }
func (o GovernanceSubscribeGovernance) RequiredClass() AuthorityClass { return ClassActive }

// GovernanceCreateCommunityEnterprise proposes a milestone-bounded funding
// commitment.
type GovernanceCreateCommunityEnterprise struct {
	Creator      string
	Title        string
	Milestones   []governance.Milestone
	Begin        time.Time
	DurationDays int
	DailyBudget  asset.Amount
	BudgetSymbol asset.Symbol
}

func (o GovernanceCreateCommunityEnterprise) Discriminator() string      { return "governance.create_community_enterprise" }
func (o GovernanceCreateCommunityEnterprise) Signatory() string          { return o.Creator }
func (o GovernanceCreateCommunityEnterprise) SignedFor() string          { return o.Creator }
func (o GovernanceCreateCommunityEnterprise) RequiredClass() AuthorityClass { return ClassActive }

// GovernanceApproveEnterpriseMilestone casts approval for the next
// enterprise milestone.
type GovernanceApproveEnterpriseMilestone struct {
	Voter        string
	EnterpriseID uint64
	Milestone    int
}

func (o GovernanceApproveEnterpriseMilestone) Discriminator() string      { return "governance.approve_enterprise_milestone" }
func (o GovernanceApproveEnterpriseMilestone) Signatory() string          { return o.Voter }
func (o GovernanceApproveEnterpriseMilestone) SignedFor() string          { return o.Voter }
func (o GovernanceApproveEnterpriseMilestone) RequiredClass() AuthorityClass { return ClassActive }

// GovernanceClaimEnterpriseMilestone advances claimed_milestones by one.
type GovernanceClaimEnterpriseMilestone struct {
	Creator      string
	EnterpriseID uint64
}

func (o GovernanceClaimEnterpriseMilestone) Discriminator() string      { return "governance.claim_enterprise_milestone" }
func (o GovernanceClaimEnterpriseMilestone) Signatory() string          { return o.Creator }
func (o GovernanceClaimEnterpriseMilestone) SignedFor() string          { return o.Creator }
func (o GovernanceClaimEnterpriseMilestone) RequiredClass() AuthorityClass { return ClassActive }
