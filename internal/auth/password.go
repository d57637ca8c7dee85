package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var errSecretMismatch = errors.New("auth: secret does not match")

// Hasher turns plaintext secrets into stored verifiers. The credential store
// contract stays the same whichever implementation is injected.
type Hasher interface {
	Hash(secret string) (string, error)
	// Compare returns nil when secret matches the encoded verifier.
	Compare(encoded, secret string) error
}

// Argon2Hasher implements Hasher with argon2id in PHC string format.
type Argon2Hasher struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// NewArgon2Hasher returns the production parameter set.
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{
		Memory:      64 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (h *Argon2Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: secret is empty", ErrInvalidInput)
	}
	salt := make([]byte, h.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(secret), salt, h.Iterations, h.Memory, h.Parallelism, h.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		h.Memory,
		h.Iterations,
		h.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Compare(encoded, secret string) error {
	memory, iterations, parallelism, salt, key, err := decodeArgon2(encoded)
	if err != nil {
		return err
	}
	candidate := argon2.IDKey([]byte(secret), salt, iterations, memory, parallelism, uint32(len(key)))
	if subtle.ConstantTimeCompare(candidate, key) != 1 {
		return errSecretMismatch
	}
	return nil
}

func decodeArgon2(encoded string) (memory, iterations uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		err = errors.New("auth: malformed argon2id hash")
		return
	}
	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		err = errors.New("auth: unsupported argon2 version")
		return
	}
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		err = errors.New("auth: malformed argon2id parameters")
		return
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		err = errors.New("auth: malformed argon2id salt")
		return
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		err = errors.New("auth: malformed argon2id key")
		return
	}
	return
}
