package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordScheme selects how passwords are hashed at rest.
type PasswordScheme string

const (
	// SchemeSHA256 stores "salt:hex(sha256(salt+password))" with a 16 byte hex salt.
	SchemeSHA256 PasswordScheme = "sha256"
	// SchemeBcrypt stores a bcrypt hash at the default cost.
	SchemeBcrypt PasswordScheme = "bcrypt"
)

const saltBytes = 16

// ErrUnknownScheme is returned for a scheme other than sha256 or bcrypt.
var ErrUnknownScheme = errors.New("unknown password scheme")

// ParsePasswordScheme maps a config value onto a scheme. Empty means sha256.
func ParsePasswordScheme(s string) (PasswordScheme, error) {
	switch PasswordScheme(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchemeSHA256:
		return SchemeSHA256, nil
	case SchemeBcrypt:
		return SchemeBcrypt, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownScheme, s)
	}
}

// HashPassword hashes raw under scheme.
func HashPassword(scheme PasswordScheme, raw string) (string, error) {
	switch scheme {
	case SchemeSHA256, "":
		salt := make([]byte, saltBytes)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		saltHex := hex.EncodeToString(salt)
		return saltHex + ":" + sha256Hex(saltHex, raw), nil
	case SchemeBcrypt:
		hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		return string(hash), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}
}

// VerifyPassword checks raw against a hash produced by HashPassword. The
// scheme is recognised from the stored value.
func VerifyPassword(stored, raw string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(raw)) == nil
	}
	salt, hashed, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sha256Hex(salt, raw)), []byte(hashed)) == 1
}

func sha256Hex(salt, raw string) string {
	sum := sha256.Sum256([]byte(salt + raw))
	return hex.EncodeToString(sum[:])
}
