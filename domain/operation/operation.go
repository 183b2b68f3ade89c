// Package operation defines the transaction envelope and the closed sum type
// of operations dispatched by internal/evaluator, per spec.md §6.
package operation

import "time"

// AuthorityClass names which of an account's three role-scoped authorities
// may authorize an operation. Posting authorizes posting-class operations
// only; active authorizes active- and posting-class; owner authorizes
// anything (spec.md §4.5).
type AuthorityClass string

const (
	ClassPosting AuthorityClass = "posting"
	ClassActive  AuthorityClass = "active"
	ClassOwner   AuthorityClass = "owner"
)

// Operation is the closed sum type every evaluator dispatches on. Each
// concrete operation type in this package implements it.
type Operation interface {
	// Discriminator names the operation for dispatch, e.g. "account.create".
	Discriminator() string
	// Signatory is the account whose signature authorizes this operation.
	Signatory() string
	// SignedFor is the business account this operation acts on behalf of;
	// equal to Signatory unless the operation is performed by a delegate
	// acting on behalf of another account (spec.md §4.6 step 3).
	SignedFor() string
	// RequiredClass is the minimum authority class that must cover Signatory.
	RequiredClass() AuthorityClass
}

// Signature is a recovered public-key fingerprint known to have signed the
// enclosing transaction. Signature verification itself happens upstream of
// the core (spec.md §1); the core only consumes the already-verified set.
type Signature struct {
	KeyFingerprint string
}

// Transaction is the operation envelope from spec.md §6.
type Transaction struct {
	ID             string
	RefBlockNum    uint32
	RefBlockPrefix uint32
	Expiration     time.Time
	Operations     []Operation
	Signatures     []Signature
}

// SignatoryKeySet returns the set of key fingerprints that signed tx, for
// authority-sufficiency checks.
func (tx *Transaction) SignatoryKeySet() map[string]struct{} {
	set := make(map[string]struct{}, len(tx.Signatures))
	for _, s := range tx.Signatures {
		set[s.KeyFingerprint] = struct{}{}
	}
	return set
}

// Block is an ordered sequence of transactions applied atomically against
// one undo session (spec.md §2).
type Block struct {
	Number    uint64
	Timestamp time.Time
	Txs       []*Transaction
}
