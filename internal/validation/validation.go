// Package validation normalizes the free text users type into the bot:
// passport names, phone numbers and admin name lists.
package validation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	MinNameLength = 2
	MaxNameLength = 50

	minPhoneDigits = 9
)

var (
	ErrNameEmpty      = errors.New("validation: name is empty")
	ErrNameTooShort   = errors.New("validation: name is too short")
	ErrNameTooLong    = errors.New("validation: name is too long")
	ErrNameCharacters = errors.New("validation: name has invalid characters")
	ErrPhoneInvalid   = errors.New("validation: phone number is invalid")
)

// toUpper builds a fresh Caser per call; a Caser is stateful and not safe
// for concurrent use.
func toUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// ValidateName trims and upper-cases a single name. Letters of any script,
// spaces, hyphens and apostrophes are accepted.
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(norm.NFC.String(raw))
	if name == "" {
		return "", ErrNameEmpty
	}
	n := utf8.RuneCountInString(name)
	if n < MinNameLength {
		return "", ErrNameTooShort
	}
	if n > MaxNameLength {
		return "", ErrNameTooLong
	}
	for _, r := range name {
		if !nameRune(r) {
			return "", ErrNameCharacters
		}
	}
	return toUpper(name), nil
}

func nameRune(r rune) bool {
	switch r {
	case ' ', '-', '\'', '’', 'ʻ', 'ʼ':
		return true
	}
	return unicode.IsLetter(r) || unicode.Is(unicode.Mn, r)
}

// FormatPhone keeps digits and a leading plus, requires at least nine digits
// and always returns the number with a leading plus.
func FormatPhone(raw string) (string, error) {
	var b strings.Builder
	digits := 0
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			digits++
		}
	}
	if digits < minPhoneDigits {
		return "", ErrPhoneInvalid
	}
	return "+" + b.String(), nil
}

// IsValidPhone reports whether FormatPhone would accept raw.
func IsValidPhone(raw string) bool {
	_, err := FormatPhone(raw)
	return err == nil
}

// NormalizeFullName is the allow-list key: upper-cased with whitespace collapsed.
func NormalizeFullName(raw string) string {
	fields := strings.Fields(norm.NFC.String(raw))
	return toUpper(strings.Join(fields, " "))
}

// JoinFullName builds the allow-list key for a first and last name pair.
func JoinFullName(first, last string) string {
	return NormalizeFullName(first + " " + last)
}

// ParseNameList splits admin input into one trimmed entry per non-empty line.
func ParseNameList(input string) []string {
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
