package account

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	key := []byte{0x02, 0x01, 0x02, 0x03}
	a := Fingerprint(key)
	b := Fingerprint(key)
	if a != b {
		t.Fatalf("expected fingerprint to be deterministic, got %q and %q", a, b)
	}
	if len(a) != 40 {
		t.Fatalf("expected a 20-byte hex-encoded ripemd160 digest (40 chars), got %d", len(a))
	}
}

func TestFingerprintDistinguishesKeys(t *testing.T) {
	if Fingerprint([]byte{0x02, 0x01}) == Fingerprint([]byte{0x03, 0x01}) {
		t.Fatalf("expected distinct keys to fingerprint differently")
	}
}
