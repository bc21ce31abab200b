package service

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/and161185/peakflow/internal/errs"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 8

// passwordSpecials lists the characters that satisfy the special-character rule.
const passwordSpecials = `!@#$%^&*(),.?":{}|<>+`

// ValidatePassword enforces the password policy: length, lower, upper, digit, special.
func ValidatePassword(pw string) error {
	if len([]rune(pw)) < MinPasswordLen {
		return errs.Validation("password must be at least %d characters", MinPasswordLen)
	}
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	switch {
	case !lower:
		return errs.Validation("password must contain a lowercase letter")
	case !upper:
		return errs.Validation("password must contain an uppercase letter")
	case !digit:
		return errs.Validation("password must contain a digit")
	case !special:
		return errs.Validation("password must contain a special character")
	}
	return nil
}

// NormalizeEmail trims and lower-cases email and checks it is a bare address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errs.Validation("empty email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errs.Validation("malformed email %q", email)
	}
	return email, nil
}
