package http

import (
	"errors"
	"strings"
	"unicode"
)

const passwordSpecials = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

// ValidatePassword aplica a política de senha do cadastro.
func ValidatePassword(p string) error {
	if len(p) < 8 {
		return errors.New("Password must be at least 8 characters long")
	}
	var lower, upper, digit, special bool
	for _, r := range p {
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
		return errors.New("Password must contain at least one lowercase letter")
	case !upper:
		return errors.New("Password must contain at least one uppercase letter")
	case !digit:
		return errors.New("Password must contain at least one number")
	case !special:
		return errors.New("Password must contain at least one special character")
	}
	return nil
}
