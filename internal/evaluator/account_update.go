package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

// evalAccountUpdate mutates authority fields. Owner-authority changes are
// rate-limited to once per OwnerUpdateLimitSeconds and archived into
// OwnerHistory; every other field change is rate-limited to once per
// second (spec.md §4.7).
func evalAccountUpdate(s *chainstate.State, op operation.AccountUpdate, now time.Time) error {
	const name = "account.update"

	id, aa, ok := s.AccountAuthorityWithID(op.Account)
	if !ok {
		return errors.UnknownEntity(name, "account", op.Account)
	}

	if op.NewOwner != nil {
		if !op.NewOwner.Possible() {
			return errors.PreconditionViolated(name, "new owner authority threshold is unreachable")
		}
		interval := time.Duration(s.Config.OwnerUpdateLimitSeconds) * time.Second
		if err := checkInterval(name, aa.LastOwnerUpdate, interval, now); err != nil {
			return err
		}
	}
	if op.NewActive != nil && !op.NewActive.Possible() {
		return errors.PreconditionViolated(name, "new active authority threshold is unreachable")
	}
	if op.NewPosting != nil && !op.NewPosting.Possible() {
		return errors.PreconditionViolated(name, "new posting authority threshold is unreachable")
	}

	accID, acc, ok := s.AccountWithID(op.Account)
	if !ok {
		return errors.UnknownEntity(name, "account", op.Account)
	}
	if op.NewOwner == nil {
		interval := time.Second
		if err := checkInterval(name, acc.LastUpdated, interval, now); err != nil {
			return err
		}
	}

	s.AccountAuthorities.Modify(id, func(a *account.AccountAuthority) {
		if op.NewOwner != nil {
			a.OwnerHistory = append(a.OwnerHistory, account.OwnerHistoryEntry{Authority: a.Owner, ReplacedAt: now})
			a.Owner = *op.NewOwner
			a.LastOwnerUpdate = now
		}
		if op.NewActive != nil {
			a.Active = *op.NewActive
		}
		if op.NewPosting != nil {
			a.Posting = *op.NewPosting
		}
		a.PruneHistory(now, time.Duration(s.Config.OwnerHistoryRetentionDays)*24*time.Hour)
	})

	s.Accounts.Modify(accID, func(a *account.Account) { a.LastUpdated = now })
	return nil
}
