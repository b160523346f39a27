// internal/pkg/auth/password.go
package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores bytes past 72
)

var (
	sequentialRun = regexp.MustCompile(`(?i)(abc|bcd|cde|def|efg|fgh|ghi|hij|ijk|jkl|klm|lmn|mno|nop|opq|pqr|qrs|rst|stu|tuv|uvw|vwx|wxy|xyz|012|123|234|345|456|567|678|789)`)

	weakPasswords = []string{
		"password", "qwerty", "letmein", "welcome", "admin", "monkey", "dragon", "football",
	}
)

// PasswordManager hashes and checks user passwords
type PasswordManager struct {
	cost int
}

// NewPasswordManager creates a password manager using the given bcrypt cost
func NewPasswordManager(cost int) *PasswordManager {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

// HashPassword validates password strength and returns its bcrypt hash
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches hash
func (p *PasswordManager) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks length, character classes and common weak patterns.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperror.InvalidArgument("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return apperror.InvalidArgument("password must be no more than %d characters long", maxPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	switch {
	case !upper:
		return apperror.InvalidArgument("password must contain at least one uppercase letter")
	case !lower:
		return apperror.InvalidArgument("password must contain at least one lowercase letter")
	case !digit:
		return apperror.InvalidArgument("password must contain at least one number")
	case !special:
		return apperror.InvalidArgument("password must contain at least one special character")
	}

	if sequentialRun.MatchString(password) {
		return apperror.InvalidArgument("password cannot contain sequential characters")
	}
	if hasRepeatRun(password, 3) {
		return apperror.InvalidArgument("password cannot contain more than 2 repeating characters")
	}

	lowered := strings.ToLower(password)
	for _, weak := range weakPasswords {
		if strings.Contains(lowered, weak) {
			return apperror.InvalidArgument("password is too common and easily guessable")
		}
	}
	return nil
}

// hasRepeatRun reports whether any rune repeats n times in a row.
// RE2 has no backreferences, so this is checked by hand.
func hasRepeatRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
