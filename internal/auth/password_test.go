package auth

import (
	"strings"
	"testing"
)

func testHasher() *Argon2Hasher {
	// Small parameters keep the suite fast; production uses NewArgon2Hasher.
	return &Argon2Hasher{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
}

func TestArgon2HashAndCompare(t *testing.T) {
	h := testHasher()
	encoded, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected encoding: %s", encoded)
	}
	if err := h.Compare(encoded, "hunter2"); err != nil {
		t.Fatalf("compare with correct secret: %v", err)
	}
	if err := h.Compare(encoded, "hunter3"); err == nil {
		t.Fatal("compare with wrong secret should fail")
	}
}

func TestArgon2HashesAreSalted(t *testing.T) {
	h := testHasher()
	a, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same secret should differ by salt")
	}
}

func TestArgon2RejectsEmptyAndMalformed(t *testing.T) {
	h := testHasher()
	if _, err := h.Hash(""); err == nil {
		t.Fatal("empty secret should be rejected")
	}
	for _, bad := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=64,t=1,p=1$salt",
		"$bcrypt$v=19$m=64,t=1,p=1$c2FsdA$a2V5",
	} {
		if err := h.Compare(bad, "anything"); err == nil {
			t.Fatalf("malformed hash %q should not verify", bad)
		}
	}
}

func TestArgon2CompareHonorsStoredParameters(t *testing.T) {
	strong := NewArgon2Hasher()
	encoded, err := strong.Hash("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	// A hasher configured differently must still verify using the parameters
	// embedded in the stored string.
	if err := testHasher().Compare(encoded, "secret"); err != nil {
		t.Fatalf("compare across parameter sets: %v", err)
	}
}
