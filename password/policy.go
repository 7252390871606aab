package password

import (
	"errors"
	"unicode"
)

// MinLength is the minimum accepted password length in runes.
const MinLength = 12

var (
	ErrTooShort = errors.New("password must be at least 12 characters")
	ErrNoLower  = errors.New("password must include a lowercase letter")
	ErrNoUpper  = errors.New("password must include an uppercase letter")
	ErrNoDigit  = errors.New("password must include a digit")
	ErrNoSymbol = errors.New("password must include a symbol")
)

// ValidatePolicy checks password strength: at least [MinLength] runes with
// one lowercase letter, one uppercase letter, one digit, and one
// non-alphanumeric symbol. It reports the first unmet requirement.
func ValidatePolicy(password string) error {
	runes := []rune(password)
	if len(runes) < MinLength {
		return ErrTooShort
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range runes {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasLower:
		return ErrNoLower
	case !hasUpper:
		return ErrNoUpper
	case !hasDigit:
		return ErrNoDigit
	case !hasSymbol:
		return ErrNoSymbol
	}
	return nil
}
