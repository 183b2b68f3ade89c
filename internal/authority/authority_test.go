package authority

import (
	"testing"

	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/operation"
)

func registry(entries map[string]account.AccountAuthority) Lookup {
	return func(name string) (account.AccountAuthority, bool) {
		aa, ok := entries[name]
		return aa, ok
	}
}

func TestSatisfiesDirectKeyWeight(t *testing.T) {
	lookup := registry(map[string]account.AccountAuthority{
		"alice": {
			AccountName: "alice",
			Active: account.Authority{
				Threshold: 2,
				Keys:      []account.WeightedKey{{KeyFingerprint: "k1", Weight: 2}},
			},
		},
	})
	r := New(lookup, 4, 2)

	if !r.Satisfies("alice", operation.ClassActive, map[string]struct{}{"k1": {}}) {
		t.Fatalf("expected single 2-weight key to satisfy threshold 2")
	}
	if r.Satisfies("alice", operation.ClassActive, map[string]struct{}{"other": {}}) {
		t.Fatalf("expected unrelated key to not satisfy authority")
	}
}

func TestOwnerSatisfiesActiveRequirement(t *testing.T) {
	lookup := registry(map[string]account.AccountAuthority{
		"alice": {
			AccountName: "alice",
			Owner: account.Authority{
				Threshold: 1,
				Keys:      []account.WeightedKey{{KeyFingerprint: "owner-key", Weight: 1}},
			},
		},
	})
	r := New(lookup, 4, 2)

	if !r.Satisfies("alice", operation.ClassActive, map[string]struct{}{"owner-key": {}}) {
		t.Fatalf("expected owner key to satisfy an active-class requirement")
	}
}

func TestPostingDoesNotSatisfyActiveRequirement(t *testing.T) {
	lookup := registry(map[string]account.AccountAuthority{
		"alice": {
			AccountName: "alice",
			Posting: account.Authority{
				Threshold: 1,
				Keys:      []account.WeightedKey{{KeyFingerprint: "posting-key", Weight: 1}},
			},
		},
	})
	r := New(lookup, 4, 2)

	if r.Satisfies("alice", operation.ClassActive, map[string]struct{}{"posting-key": {}}) {
		t.Fatalf("expected posting-only key to fail an active-class requirement")
	}
}

func TestRecursiveWeightedAccountExpansion(t *testing.T) {
	lookup := registry(map[string]account.AccountAuthority{
		"dao": {
			AccountName: "dao",
			Active: account.Authority{
				Threshold: 2,
				Accounts:  []account.WeightedAccount{{Name: "signer1", Weight: 1}, {Name: "signer2", Weight: 1}},
			},
		},
		"signer1": {
			AccountName: "signer1",
			Active:      account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "s1", Weight: 1}}},
		},
		"signer2": {
			AccountName: "signer2",
			Active:      account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "s2", Weight: 1}}},
		},
	})
	r := New(lookup, 4, 2)

	if r.Satisfies("dao", operation.ClassActive, map[string]struct{}{"s1": {}}) {
		t.Fatalf("one of two required sub-signers should not satisfy the dao's threshold")
	}
	if !r.Satisfies("dao", operation.ClassActive, map[string]struct{}{"s1": {}, "s2": {}}) {
		t.Fatalf("both sub-signers together should satisfy the dao's threshold")
	}
}

func TestDepthLimitStopsExpansion(t *testing.T) {
	lookup := registry(map[string]account.AccountAuthority{
		"a": {AccountName: "a", Active: account.Authority{Threshold: 1, Accounts: []account.WeightedAccount{{Name: "b", Weight: 1}}}},
		"b": {AccountName: "b", Active: account.Authority{Threshold: 1, Accounts: []account.WeightedAccount{{Name: "c", Weight: 1}}}},
		"c": {AccountName: "c", Active: account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "ck", Weight: 1}}}},
	})
	r := New(lookup, 4, 1)

	if r.Satisfies("a", operation.ClassActive, map[string]struct{}{"ck": {}}) {
		t.Fatalf("expected a depth-1 budget to stop short of the two-level chain to c")
	}
}

func TestImpossibleAuthorityNeverSatisfied(t *testing.T) {
	auth := account.Authority{Threshold: 5, Keys: []account.WeightedKey{{KeyFingerprint: "k", Weight: 1}}}
	if !IsImpossible(auth) {
		t.Fatalf("expected threshold exceeding max possible weight to be impossible")
	}
}

func TestCheckReturnsMissingAuthorityError(t *testing.T) {
	lookup := registry(map[string]account.AccountAuthority{
		"alice": {AccountName: "alice", Active: account.Authority{Threshold: 1, Keys: []account.WeightedKey{{KeyFingerprint: "k1", Weight: 1}}}},
	})
	r := New(lookup, 4, 2)

	err := r.Check("test.op", "alice", operation.ClassActive, map[string]struct{}{})
	if err == nil {
		t.Fatalf("expected missing authority error")
	}
}
