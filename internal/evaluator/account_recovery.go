package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

// evalAccountRequestRecovery files a pending recovery naming the owner
// authority to install, permitted only from the account's registered
// recovery_account (spec.md §4.7).
func evalAccountRequestRecovery(s *chainstate.State, op operation.AccountRequestRecovery, now time.Time) error {
	const name = "account.request_recovery"

	target, ok := s.Account(op.AccountToRecover)
	if !ok {
		return errors.UnknownEntity(name, "account", op.AccountToRecover)
	}
	if target.RecoveryAccount != op.RecoveryAccount {
		return errors.PreconditionViolated(name, "signatory is not the account's designated recovery account")
	}
	if !op.NewOwnerAuthority.Possible() {
		return errors.PreconditionViolated(name, "new owner authority threshold is unreachable")
	}

	if id, _, ok := s.RecoveryRequest(op.AccountToRecover); ok {
		s.RecoveryRequests.Modify(id, func(r *account.RecoveryRequest) {
			r.NewOwnerAuthority = op.NewOwnerAuthority
			r.Created = now
		})
		return nil
	}
	s.RecoveryRequests.Create(func(id store.ID) account.RecoveryRequest {
		return account.RecoveryRequest{
			AccountToRecover:  op.AccountToRecover,
			RecoveryAccount:   op.RecoveryAccount,
			NewOwnerAuthority: op.NewOwnerAuthority,
			Created:           now,
		}
	})
	return nil
}

// evalAccountRecover applies a pending recovery request, citing a recent
// owner authority as proof of continuity. A recovery is impossible-authority
// exempt: it is the one operation an otherwise-unreachable authority may
// still authorize, since the whole point is escaping a compromised owner
// key (spec.md §4.5).
func evalAccountRecover(s *chainstate.State, op operation.AccountRecover, now time.Time) error {
	const name = "account.recover"

	reqID, req, ok := s.RecoveryRequest(op.AccountToRecover)
	if !ok {
		return errors.UnknownEntity(name, "recovery_request", op.AccountToRecover)
	}
	if !authoritiesEqual(req.NewOwnerAuthority, op.NewOwnerAuthority) {
		return errors.PreconditionViolated(name, "recovery does not match the pending request's new owner authority")
	}
	if now.Before(req.Created.Add(time.Duration(s.Config.RecoveryDelaySeconds) * time.Second)) {
		return errors.RateLimited(name, int64(req.Created.Add(time.Duration(s.Config.RecoveryDelaySeconds)*time.Second).Sub(now).Seconds()))
	}
	if now.After(req.Created.Add(time.Duration(s.Config.RecoveryExpirationSeconds) * time.Second)) {
		return errors.UnknownEntity(name, "recovery_request", op.AccountToRecover)
	}

	aaID, aa, ok := s.AccountAuthorityWithID(op.AccountToRecover)
	if !ok {
		return errors.UnknownEntity(name, "account", op.AccountToRecover)
	}
	if !recentAuthorityKnown(&aa, op.RecentOwnerAuthority, now, time.Duration(s.Config.OwnerHistoryRetentionDays)*24*time.Hour) {
		return errors.UnknownEntity(name, "owner_history", op.AccountToRecover)
	}

	accID, acc, ok := s.AccountWithID(op.AccountToRecover)
	if !ok {
		return errors.UnknownEntity(name, "account", op.AccountToRecover)
	}
	if err := checkInterval(name, acc.LastAccountRecovery, time.Duration(s.Config.OwnerUpdateLimitSeconds)*time.Second, now); err != nil {
		return err
	}

	s.AccountAuthorities.Modify(aaID, func(a *account.AccountAuthority) {
		a.OwnerHistory = append(a.OwnerHistory, account.OwnerHistoryEntry{Authority: a.Owner, ReplacedAt: now})
		a.Owner = op.NewOwnerAuthority
		a.LastOwnerUpdate = now
	})
	s.Accounts.Modify(accID, func(a *account.Account) { a.LastAccountRecovery = now })
	s.RecoveryRequests.Remove(reqID)
	return nil
}

// recentAuthorityKnown reports whether candidate is the account's current
// owner authority or appears in its retained owner history.
func recentAuthorityKnown(aa *account.AccountAuthority, candidate account.Authority, now time.Time, retention time.Duration) bool {
	if authoritiesEqual(aa.Owner, candidate) {
		return true
	}
	for _, h := range aa.OwnerHistory {
		if now.Sub(h.ReplacedAt) <= retention && authoritiesEqual(h.Authority, candidate) {
			return true
		}
	}
	return false
}

func authoritiesEqual(a, b account.Authority) bool {
	if a.Threshold != b.Threshold || len(a.Keys) != len(b.Keys) || len(a.Accounts) != len(b.Accounts) {
		return false
	}
	for i := range a.Keys {
		if a.Keys[i] != b.Keys[i] {
			return false
		}
	}
	for i := range a.Accounts {
		if a.Accounts[i] != b.Accounts[i] {
			return false
		}
	}
	return true
}

// evalAccountReset lets an account's designated reset_account replace its
// owner authority once the account has been inactive for reset_delay_days
// (spec.md §4.7).
func evalAccountReset(s *chainstate.State, op operation.AccountReset, now time.Time) error {
	const name = "account.reset"

	target, ok := s.Account(op.AccountToReset)
	if !ok {
		return errors.UnknownEntity(name, "account", op.AccountToReset)
	}
	if target.ResetAccount != op.ResetAccount {
		return errors.PreconditionViolated(name, "signatory is not the account's designated reset account")
	}
	if !op.NewOwnerAuthority.Possible() {
		return errors.PreconditionViolated(name, "new owner authority threshold is unreachable")
	}
	cutoff := now.AddDate(0, 0, -target.ResetDelayDays)
	if !target.InactiveSince(cutoff) {
		return errors.PreconditionViolated(name, "account has not been inactive long enough to reset")
	}

	aaID, ok2 := func() (store.ID, bool) { id, _, ok := s.AccountAuthorityWithID(op.AccountToReset); return id, ok }()
	if !ok2 {
		return errors.UnknownEntity(name, "account_authority", op.AccountToReset)
	}
	s.AccountAuthorities.Modify(aaID, func(a *account.AccountAuthority) {
		a.OwnerHistory = append(a.OwnerHistory, account.OwnerHistoryEntry{Authority: a.Owner, ReplacedAt: now})
		a.Owner = op.NewOwnerAuthority
		a.LastOwnerUpdate = now
	})
	return nil
}
