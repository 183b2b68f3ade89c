// Package authority resolves whether a transaction's signature set satisfies
// an operation's required authority class, expanding weighted account
// references recursively (spec.md §4.5).
package authority

import (
	"github.com/r3e-network/ledgerchain/domain/account"
	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/pkg/errors"
)

// Lookup resolves an account's AccountAuthority record by name.
type Lookup func(name string) (account.AccountAuthority, bool)

// Resolver checks signature sufficiency against the authority graph.
type Resolver struct {
	lookup          Lookup
	maxProxyDepth   int
	maxSigCheckDepth int
}

// New constructs a Resolver. maxProxyDepth bounds voting-proxy expansion
// elsewhere; maxSigCheckDepth bounds how many levels of weighted-account
// delegation this resolver will expand before giving up on a branch.
func New(lookup Lookup, maxProxyDepth, maxSigCheckDepth int) *Resolver {
	return &Resolver{lookup: lookup, maxProxyDepth: maxProxyDepth, maxSigCheckDepth: maxSigCheckDepth}
}

// Satisfies reports whether keys (the transaction's recovered signatory key
// fingerprints) satisfy account's authority at or above requiredClass. Owner
// authority can always stand in for active or posting; active can stand in
// for posting; posting satisfies only posting-class operations.
func (r *Resolver) Satisfies(accountName string, requiredClass operation.AuthorityClass, keys map[string]struct{}) bool {
	aa, ok := r.lookup(accountName)
	if !ok {
		return false
	}
	switch requiredClass {
	case operation.ClassPosting:
		return r.authoritySatisfied(aa.Posting, keys, r.maxSigCheckDepth) ||
			r.authoritySatisfied(aa.Active, keys, r.maxSigCheckDepth) ||
			r.authoritySatisfied(aa.Owner, keys, r.maxSigCheckDepth)
	case operation.ClassActive:
		return r.authoritySatisfied(aa.Active, keys, r.maxSigCheckDepth) ||
			r.authoritySatisfied(aa.Owner, keys, r.maxSigCheckDepth)
	case operation.ClassOwner:
		return r.authoritySatisfied(aa.Owner, keys, r.maxSigCheckDepth)
	default:
		return false
	}
}

// Check is the evaluator-facing entry point: it returns a ChainError of kind
// MissingAuthority when the signature set is insufficient, nil otherwise.
func (r *Resolver) Check(op string, accountName string, requiredClass operation.AuthorityClass, keys map[string]struct{}) error {
	if r.Satisfies(accountName, requiredClass, keys) {
		return nil
	}
	need, have := r.weights(accountName, requiredClass, keys)
	return errors.MissingAuthority(op, need, have)
}

// authoritySatisfied walks auth's keys directly and its weighted accounts
// recursively (each sub-account's own active authority, bounded by depth),
// summing satisfied weight until threshold is met or the budget is spent.
func (r *Resolver) authoritySatisfied(auth account.Authority, keys map[string]struct{}, depth int) bool {
	if !auth.Possible() {
		return false
	}
	var total uint32
	for _, k := range auth.Keys {
		if _, signed := keys[k.KeyFingerprint]; signed {
			total += k.Weight
		}
	}
	if total >= auth.Threshold {
		return true
	}
	if depth > 0 {
		for _, wa := range auth.Accounts {
			sub, ok := r.lookup(wa.Name)
			if !ok {
				continue
			}
			if r.authoritySatisfied(sub.Active, keys, depth-1) {
				total += wa.Weight
			}
		}
	}
	return total >= auth.Threshold
}

// weights returns (required, satisfied) weight for diagnostics on failure.
func (r *Resolver) weights(accountName string, requiredClass operation.AuthorityClass, keys map[string]struct{}) (uint32, uint32) {
	aa, ok := r.lookup(accountName)
	if !ok {
		return 1, 0
	}
	var auth account.Authority
	switch requiredClass {
	case operation.ClassOwner:
		auth = aa.Owner
	case operation.ClassActive:
		auth = aa.Active
	default:
		auth = aa.Posting
	}
	var satisfied uint32
	for _, k := range auth.Keys {
		if _, signed := keys[k.KeyFingerprint]; signed {
			satisfied += k.Weight
		}
	}
	return auth.Threshold, satisfied
}

// IsImpossible reports whether auth's threshold can never be reached, which
// account-update evaluators must reject outright (spec.md §4.5 edge case).
func IsImpossible(auth account.Authority) bool {
	return !auth.Possible()
}
