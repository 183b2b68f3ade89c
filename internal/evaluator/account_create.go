package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

const minUndiscountedNameLength = 8

// requiredCreationFee doubles the base fee for every character the new
// account's name falls short of minUndiscountedNameLength (spec.md §4.7).
func requiredCreationFee(name string, base int64) int64 {
	shortfall := minUndiscountedNameLength - len(name)
	if shortfall <= 0 {
		return base
	}
	fee := base
	for i := 0; i < shortfall; i++ {
		fee *= 2
	}
	return fee
}

// evalAccountCreate registers a new account, moving the creation fee into
// its staked balance and delegating bootstrap voting power from the
// registrar (spec.md §4.7).
func evalAccountCreate(s *chainstate.State, op operation.AccountCreate, now time.Time) error {
	const name = "account.create"

	if op.NewAccount == "" {
		return errors.InvalidArgument(name, "new_account", "account name must not be empty")
	}
	if _, exists := s.Account(op.NewAccount); exists {
		return errors.PreconditionViolated(name, "account name already registered")
	}
	if !op.Owner.Possible() || !op.Active.Possible() || !op.Posting.Possible() {
		return errors.PreconditionViolated(name, "authority threshold is unreachable")
	}

	required := requiredCreationFee(op.NewAccount, s.Config.AccountCreationFee)
	if op.Fee < required {
		return errors.InvalidArgument(name, "fee", "fee below required account creation fee for this name length")
	}

	registrar, ok := s.Account(op.Creator)
	if !ok {
		return errors.UnknownEntity(name, "account", op.Creator)
	}
	if !registrar.Active {
		return errors.PreconditionViolated(name, "registrar account is not active")
	}

	delegation := int64(float64(required) * s.Config.DelegationRatio)
	registrarBalance := s.Ledger.GetBalanceRecord(op.Creator, op.FeeSymbol)
	undelegated := registrarBalance.Staked - registrarBalance.Delegated
	if undelegated < delegation {
		return errors.InsufficientStake(name, op.Creator, undelegated, delegation)
	}

	if err := s.Ledger.AdjustLiquid(name, op.Creator, op.FeeSymbol, -op.Fee); err != nil {
		return err
	}
	if err := s.Ledger.AdjustStaked(name, op.NewAccount, op.FeeSymbol, op.Fee); err != nil {
		return err
	}
	if delegation > 0 {
		if err := s.Ledger.AdjustDelegated(name, op.Creator, op.FeeSymbol, delegation); err != nil {
			return err
		}
		if err := s.Ledger.AdjustReceiving(name, op.NewAccount, op.FeeSymbol, delegation); err != nil {
			return err
		}
		s.Delegations.Create(func(id store.ID) account.Delegation {
			return account.Delegation{
				Delegator:  op.Creator,
				Delegatee:  op.NewAccount,
				Amount:     delegation,
				Symbol:     op.FeeSymbol,
				Created:    now,
				Expiration: now.AddDate(0, 0, s.Config.DelegationReturnDays),
			}
		})
	}

	var secureKey string
	if len(op.SecureKey) > 0 {
		secureKey = account.Fingerprint(op.SecureKey)
	}

	s.Accounts.Create(func(id store.ID) account.Account {
		return account.Account{
			ID:                  account.ID(id),
			Name:                op.NewAccount,
			Active:              true,
			Registrar:           op.Creator,
			SecureKey:           secureKey,
			Referrer:            op.Creator,
			ReferrerRewardsPct:  0,
			RecoveryAccount:     op.Creator, // defaults to registrar (SPEC_FULL §4)
			ResetAccount:        op.Creator,
			ResetDelayDays:      s.Config.MinResetDelayDays,
			CreatedAt:           now,
			LastUpdated:         now,
			LastVote:            now,
			LastView:            now,
			LastShare:           now,
			LastPost:            now,
			LastRootPost:        now,
			LastTransfer:        now,
			LastActivityReward:  now,
			LastAccountRecovery: now,
			VotingMeter:         100,
			ViewingMeter:        100,
			SharingMeter:        100,
			CommentingMeter:     100,
		}
	})

	s.AccountAuthorities.Create(func(id store.ID) account.AccountAuthority {
		return account.AccountAuthority{
			AccountName:     op.NewAccount,
			Owner:           op.Owner,
			Active:          op.Active,
			Posting:         op.Posting,
			LastOwnerUpdate: now,
		}
	})

	return nil
}
