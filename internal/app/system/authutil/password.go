// Package authutil holds password helpers shared by registration, login and
// profile password changes.
package authutil

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 6
	// MaxPasswordLength stays under bcrypt's 72-byte input limit for ASCII
	// input in practice, and rejects absurd payloads early.
	MaxPasswordLength = 128
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	ErrPasswordCommon   = errors.New("password is too common")
)

// commonPasswords is a short deny-list of the most frequently used passwords.
var commonPasswords = map[string]struct{}{
	"123456":    {},
	"1234567":   {},
	"12345678":  {},
	"123456789": {},
	"password":  {},
	"qwerty":    {},
	"abc123":    {},
	"111111":    {},
	"iloveyou":  {},
	"letmein":   {},
	"football":  {},
	"welcome":   {},
	"monkey":    {},
	"dragon":    {},
	"sunshine":  {},
}

// ValidatePassword checks length limits and the common-password list.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, bad := commonPasswords[strings.ToLower(pw)]; bad {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes the password policy for API clients.
func PasswordRules() string {
	return fmt.Sprintf("Passwords must be %d-%d characters and not a commonly used password.",
		MinPasswordLength, MaxPasswordLength)
}

// HashPassword returns a bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches the bcrypt hash.
func CheckPassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// dummyHash is compared against when there is no stored hash, so a login for
// an unknown account costs the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	b, err := bcrypt.GenerateFromPassword([]byte("taskquest-no-such-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("authutil: dummy hash: %v", err))
	}
	return b
})

// CheckNoPassword runs a bcrypt comparison that always fails. Call it on
// login paths that have no hash to check.
func CheckNoPassword(pw string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(pw))
	return false
}
