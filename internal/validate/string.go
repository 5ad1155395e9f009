// Package validate provides input validation and sanitization for
// user-supplied task fields.
package validate

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooLong = errors.New("string is too long")
	ErrEmpty         = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MaxLength  int  // Maximum length in runes (0 = no maximum)
	AllowEmpty bool // Whether empty strings are allowed
}

// String trims, validates, and returns the string. Lengths are counted
// in runes, not bytes.
func String(s string, constraints StringConstraints) (string, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	length := utf8.RuneCountInString(s)
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	return s, nil
}

// SanitizeString validates the string and escapes HTML special
// characters. Call this on any user text that may be rendered.
func SanitizeString(s string, constraints StringConstraints) (string, error) {
	validated, err := String(s, constraints)
	if err != nil {
		return "", err
	}
	return html.EscapeString(validated), nil
}

// TaskTitle validates a task title: required, max 200 characters.
func TaskTitle(title string) (string, error) {
	return SanitizeString(title, StringConstraints{
		MaxLength:  200,
		AllowEmpty: false,
	})
}

// TaskDescription validates a task description: optional, max 2000
// characters.
func TaskDescription(desc string) (string, error) {
	return SanitizeString(desc, StringConstraints{
		MaxLength:  2000,
		AllowEmpty: true,
	})
}
