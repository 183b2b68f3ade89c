package evaluator

import (
	"testing"
	"time"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/store"
	"github.com/r3e-network/ledgerchain/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecoveryGenesis(s *chainstate.State, now time.Time) {
	s.Accounts.Create(func(id store.ID) account.Account {
		return account.Account{ID: account.ID(id), Name: "genesis", Active: true, Registrar: "genesis", CreatedAt: now}
	})
	auth := account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "key-genesis", Weight: 1}}}
	s.AccountAuthorities.Create(func(id store.ID) account.AccountAuthority {
		return account.AccountAuthority{AccountName: "genesis", Owner: auth, Active: auth, Posting: auth, LastOwnerUpdate: now}
	})
}

func keysFor(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func singleKeyAuth(fingerprint string) account.Authority {
	return account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: fingerprint, Weight: 1}}}
}

// TestAccountRecoveryCitesRotatedAwayOwnerKey covers spec.md §8's boundary
// scenario 5: an account rotates its owner authority via recovery once,
// then rotates again, citing the now-historical (but still within the
// retention window) owner authority from before the first rotation as proof
// of continuity, while signing with whichever owner key is current at the
// time of each `recover` call.
func TestAccountRecoveryCitesRotatedAwayOwnerKey(t *testing.T) {
	cfg := config.New()
	s := chainstate.New(&cfg.Chain, nil)

	t0 := time.Unix(1_700_000_000, 0)
	seedRecoveryGenesis(s, t0)
	require.NoError(t, s.Ledger.AdjustLiquid("seed", "genesis", chainstate.NativeSymbol, 10_000))
	require.NoError(t, s.Ledger.AdjustStaked("seed", "genesis", chainstate.NativeSymbol, 10_000))

	ownerV1 := singleKeyAuth("bob-v1")
	require.NoError(t, Dispatch(s, operation.AccountCreate{
		Creator:    "genesis",
		NewAccount: "bobrecover",
		Fee:        cfg.Chain.AccountCreationFee,
		FeeSymbol:  chainstate.NativeSymbol,
		Owner:      ownerV1,
		Active:     ownerV1,
		Posting:    ownerV1,
	}, keysFor("key-genesis"), t0))

	bob, ok := s.Account("bobrecover")
	require.True(t, ok)
	assert.Equal(t, "genesis", bob.RecoveryAccount, "recovery account defaults to the registrar")

	delay := time.Duration(cfg.Chain.RecoveryDelaySeconds) * time.Second
	ownerUpdateLimit := time.Duration(cfg.Chain.OwnerUpdateLimitSeconds) * time.Second

	// First rotation: v1 -> v2, signed with v1 (the account's current owner
	// key at the time of the recover call).
	tReq1 := t0.Add(time.Minute)
	ownerV2 := singleKeyAuth("bob-v2")
	require.NoError(t, Dispatch(s, operation.AccountRequestRecovery{
		RecoveryAccount:   "genesis",
		AccountToRecover:  "bobrecover",
		NewOwnerAuthority: ownerV2,
	}, keysFor("key-genesis"), tReq1))

	tRecover1 := tReq1.Add(delay).Add(time.Second)
	require.NoError(t, Dispatch(s, operation.AccountRecover{
		AccountToRecover:     "bobrecover",
		NewOwnerAuthority:    ownerV2,
		RecentOwnerAuthority: ownerV1,
	}, keysFor("bob-v1"), tRecover1))

	aa1, ok := s.AccountAuthority("bobrecover")
	require.True(t, ok)
	assert.True(t, authoritiesEqual(aa1.Owner, ownerV2))
	require.Len(t, aa1.OwnerHistory, 1)
	assert.True(t, authoritiesEqual(aa1.OwnerHistory[0].Authority, ownerV1))

	// A recover signed with the now-superseded v1 key must fail: the
	// Authority Resolver checks the account's *current* owner authority.
	err := Dispatch(s, operation.AccountRecover{
		AccountToRecover:     "bobrecover",
		NewOwnerAuthority:    ownerV2,
		RecentOwnerAuthority: ownerV1,
	}, keysFor("bob-v1"), tRecover1.Add(ownerUpdateLimit).Add(time.Minute))
	assert.Error(t, err)

	// Second rotation: v2 -> v3, citing v1 (now rotated away twice, still
	// within the owner-history retention window), signed with v2.
	tReq2 := tRecover1.Add(time.Minute)
	ownerV3 := singleKeyAuth("bob-v3")
	require.NoError(t, Dispatch(s, operation.AccountRequestRecovery{
		RecoveryAccount:   "genesis",
		AccountToRecover:  "bobrecover",
		NewOwnerAuthority: ownerV3,
	}, keysFor("key-genesis"), tReq2))

	tRecover2 := tReq2.Add(delay).Add(time.Second)
	if tRecover2.Sub(tRecover1) < ownerUpdateLimit {
		tRecover2 = tRecover1.Add(ownerUpdateLimit).Add(time.Second)
	}
	require.NoError(t, Dispatch(s, operation.AccountRecover{
		AccountToRecover:     "bobrecover",
		NewOwnerAuthority:    ownerV3,
		RecentOwnerAuthority: ownerV1,
	}, keysFor("bob-v2"), tRecover2))

	aa2, ok := s.AccountAuthority("bobrecover")
	require.True(t, ok)
	assert.True(t, authoritiesEqual(aa2.Owner, ownerV3))
	require.Len(t, aa2.OwnerHistory, 2)
	assert.True(t, authoritiesEqual(aa2.OwnerHistory[1].Authority, ownerV2))
}
