// internal/pkg/auth/password.go
package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/your-org/storefront-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

var (
	sequentialLetters = regexp.MustCompile(`(abc|bcd|cde|def|efg|fgh|ghi|hij|ijk|jkl|klm|lmn|mno|nop|opq|pqr|qrs|rst|stu|tuv|uvw|vwx|wxy|xyz)`)
	sequentialDigits  = regexp.MustCompile(`(012|123|234|345|456|567|678|789)`)
	repeatedRun       = regexp.MustCompile(`(.)\1{2,}`)

	weakWords = []string{
		"password", "123456", "password123", "admin", "qwerty", "letmein",
		"welcome", "monkey", "dragon", "password1", "123456789", "football",
	}
)

// PasswordManager hashes and verifies passwords with bcrypt and enforces
// the strength rules below on new passwords.
type PasswordManager struct {
	config *config.Config
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	return &PasswordManager{
		config: cfg,
	}
}

// HashPassword validates the password's strength, then hashes it at the
// configured bcrypt cost.
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.config.Security.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword compares a plaintext password against a stored hash.
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword enforces length, character class and weak-pattern rules.
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must be no more than 128 characters long")
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return fmt.Errorf("password must contain at least one uppercase letter")
	case !hasLower:
		return fmt.Errorf("password must contain at least one lowercase letter")
	case !hasNumber:
		return fmt.Errorf("password must contain at least one number")
	case !hasSpecial:
		return fmt.Errorf("password must contain at least one special character")
	}

	return checkWeakPatterns(password)
}

func checkWeakPatterns(password string) error {
	lower := strings.ToLower(password)

	if sequentialLetters.MatchString(lower) {
		return fmt.Errorf("password cannot contain sequential letters")
	}
	if sequentialDigits.MatchString(password) {
		return fmt.Errorf("password cannot contain sequential numbers")
	}
	if repeatedRun.MatchString(password) {
		return fmt.Errorf("password cannot contain more than 2 repeating characters")
	}

	for _, word := range weakWords {
		if strings.Contains(lower, word) {
			return fmt.Errorf("password is too common and easily guessable")
		}
	}

	return nil
}
