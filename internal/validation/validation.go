package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrLocationEmpty is returned when a city is empty or whitespace-only after trim.
	ErrLocationEmpty = errors.New("city is required")
	// ErrLocationTooShort is returned when a city is below the minimum length.
	ErrLocationTooShort = errors.New("city name too short")
	// ErrLocationTooLong is returned when a city exceeds the maximum length.
	ErrLocationTooLong = errors.New("city name too long")
	// ErrLocationInvalidChars is returned when a city contains disallowed characters.
	ErrLocationInvalidChars = errors.New("city name contains invalid characters")
)

// FieldError names the query parameter that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidateLocation trims the input, enforces length bounds (minLen, maxLen in runes)
// and restricts it to letters, digits, space, comma, hyphen, period and apostrophe.
// Returns the trimmed string. Case is preserved: the city is echoed back as typed.
func ValidateLocation(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrLocationEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrLocationTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrLocationTooLong
	}
	for _, c := range r {
		if !isAllowedLocationRune(c) {
			return "", ErrLocationInvalidChars
		}
	}
	return s, nil
}

// ValidateField is ValidateLocation with the failing parameter name attached.
func ValidateField(field, input string, minLen, maxLen int) (string, error) {
	s, err := ValidateLocation(input, minLen, maxLen)
	if err != nil {
		return "", &FieldError{Field: field, Err: err}
	}
	return s, nil
}

// "St. John's", "Saint-Étienne", "Washington, D.C."
func isAllowedLocationRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'', '’':
		return true
	}
	return false
}
