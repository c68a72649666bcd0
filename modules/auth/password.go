package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	// Scrypt parameters.
	scryptN      = 1 << 14
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16

	hashSeparator = "."
)

// hashVersion identifies how a stored credential was produced.
type hashVersion int

const (
	versionLegacyPlaintext hashVersion = iota
	versionScrypt
)

// PasswordHasher provides password hashing and verification functionality.
type PasswordHasher struct {
	n int
}

// NewPasswordHasher creates a new PasswordHasher with the default cost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{n: scryptN}
}

// NewPasswordHasherWithCost creates a PasswordHasher with scrypt cost parameter n,
// which must be a power of two greater than one.
func NewPasswordHasherWithCost(n int) *PasswordHasher {
	return &PasswordHasher{n: n}
}

// newTestHasher returns a cheap hasher for tests.
func newTestHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(1 << 10)
}

// Hash derives a salted scrypt digest, encoded as hex(digest) + "." + hex(salt).
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	digest, err := scrypt.Key([]byte(password), salt, h.n, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}
	return hex.EncodeToString(digest) + hashSeparator + hex.EncodeToString(salt), nil
}

// Verify checks if the provided password matches the stored credential.
func (h *PasswordHasher) Verify(password, stored string) bool {
	switch versionOf(stored) {
	case versionScrypt:
		return h.verifyScrypt(password, stored)
	default:
		return verifyLegacyPlaintext(password, stored)
	}
}

// NeedsRehash reports whether stored was not produced by Hash.
func (h *PasswordHasher) NeedsRehash(stored string) bool {
	return versionOf(stored) != versionScrypt
}

func versionOf(stored string) hashVersion {
	if strings.Contains(stored, hashSeparator) {
		return versionScrypt
	}
	return versionLegacyPlaintext
}

func (h *PasswordHasher) verifyScrypt(password, stored string) bool {
	digestHex, saltHex, _ := strings.Cut(stored, hashSeparator)
	want, err := hex.DecodeString(digestHex)
	if err != nil || len(want) == 0 {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	got, err := scrypt.Key([]byte(password), salt, h.n, scryptR, scryptP, len(want))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

// verifyLegacyPlaintext compares against credentials stored before hashing was
// introduced. New credentials are never written in this form.
func verifyLegacyPlaintext(password, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}
