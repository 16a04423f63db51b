package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// One credential policy for every account, whether it comes in through
// /auth/register or the staff seeder. The upper bound is bcrypt's input
// limit; beyond 72 bytes the tail would be silently ignored.
const (
	credentialCost    = 12
	minPasswordLength = 8
	maxPasswordBytes  = 72
)

// HashPassword validates the password against the credential policy and
// returns the bcrypt hash stored in the user document's password_hash field.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), credentialCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches a stored hash. A malformed
// hash counts as a mismatch; login treats both the same way.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
