package account

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // matches the teacher's internal/crypto hash160 scheme
)

// Fingerprint derives the stable KeyFingerprint stored on a WeightedKey entry
// from a raw public key, using the same RIPEMD160(SHA256(·)) "hash160"
// construction the teacher's internal/crypto.Hash160 uses for script hashes.
// The core never verifies signatures itself (spec.md §1) — signature
// recovery happens upstream — but whoever assembles an Authority from a
// verified public key uses this to get a canonical, compact fingerprint
// instead of carrying raw key bytes through every authority record.
func Fingerprint(publicKey []byte) string {
	sum := sha256.Sum256(publicKey)
	h := ripemd160.New()
	h.Write(sum[:])
	return hex.EncodeToString(h.Sum(nil))
}
