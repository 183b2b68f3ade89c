// Package governance models network officer, executive board, governance
// account, and community-enterprise objects from spec.md §4.8.
package governance

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/asset"
)

// RoleKind distinguishes the three approval-gated role types.
type RoleKind string

const (
	RoleNetworkOfficer RoleKind = "network_officer"
	RoleExecutiveBoard RoleKind = "executive_board"
	RoleGovernance      RoleKind = "governance"
)

// Role is an approval-gated officer/executive/governance record. Approval
// accrues from account votes weighted by voting power; ApprovedFlag is
// recomputed every Maintenance Scheduler pass.
type Role struct {
	Kind          RoleKind
	Account       string
	Approvers     map[string]struct{}
	ApprovedFlag  bool
	LastRecomputed time.Time
}

// NewRole returns an empty Role record.
func NewRole(kind RoleKind, account string) *Role {
	return &Role{Kind: kind, Account: account, Approvers: map[string]struct{}{}}
}

// ApprovalWeight sums the voting power of every approving account, given a
// lookup function, used to decide ApprovedFlag against a threshold.
func (r *Role) ApprovalWeight(votingPower func(account string) float64) float64 {
	var total float64
	for acc := range r.Approvers {
		total += votingPower(acc)
	}
	return total
}

// Milestone is a named, percentage-weighted checkpoint within a Community
// Enterprise proposal.
type Milestone struct {
	Label   string
	Percent float64 // share of total funding, 0..100; all milestones sum to 100
}

// Enterprise is a milestone-bounded community funding commitment.
type Enterprise struct {
	ID                 uint64
	Creator            string
	Title              string
	Milestones         []Milestone
	Begin              time.Time
	DurationDays       int
	DailyBudget        asset.Amount
	BudgetSymbol       asset.Symbol
	ApprovedMilestones int // -1..len(Milestones)-1
	ClaimedMilestones  int // 0..len(Milestones)
	DaysPaid           int
	Approvers          map[string]struct{}
}

// NewEnterprise returns an Enterprise with ApprovedMilestones initialized to
// -1 (no milestone approved yet) per spec.md §4.8.
func NewEnterprise(id uint64, creator, title string, milestones []Milestone, begin time.Time, durationDays int, dailyBudget asset.Amount, sym asset.Symbol) *Enterprise {
	return &Enterprise{
		ID:                 id,
		Creator:            creator,
		Title:              title,
		Milestones:         milestones,
		Begin:              begin,
		DurationDays:       durationDays,
		DailyBudget:        dailyBudget,
		BudgetSymbol:       sym,
		ApprovedMilestones: -1,
		ClaimedMilestones:  0,
		Approvers:          map[string]struct{}{},
	}
}

// EligibleForDailyPayment reports whether §4.8's payment gate is satisfied:
// approved_milestones >= claimed_milestones - 1 and days_paid < duration.
func (e *Enterprise) EligibleForDailyPayment() bool {
	return e.ApprovedMilestones >= e.ClaimedMilestones-1 && e.DaysPaid < e.DurationDays
}

// MilestonesSumTo100 validates the milestone-percent invariant at creation.
func MilestonesSumTo100(ms []Milestone) bool {
	var total float64
	for _, m := range ms {
		total += m.Percent
	}
	return total > 99.999 && total < 100.001
}
