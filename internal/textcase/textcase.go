// Package textcase classifies the letter-case style of a piece of text and
// re-applies that style to a translation of it.
package textcase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style is the casing style of a span of text.
type Style int

const (
	Undefined Style = iota
	Uppercase
	Lowercase
	Titlecase
	Mixed
)

func (s Style) String() string {
	switch s {
	case Uppercase:
		return "uppercase"
	case Lowercase:
		return "lowercase"
	case Titlecase:
		return "titlecase"
	case Mixed:
		return "mixed"
	default:
		return "undefined"
	}
}

var (
	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
)

// Classify returns the casing style of text. Classification is advisory:
// empty, blank or invalid UTF-8 input yields Undefined instead of an error.
func Classify(text string) Style {
	if !utf8.ValidString(text) || strings.TrimSpace(text) == "" {
		return Undefined
	}
	switch {
	case isUpper(text):
		return Uppercase
	case isLower(text):
		return Lowercase
	case isTitle(text):
		return Titlecase
	default:
		return Mixed
	}
}

// Apply re-applies style to text. Mixed and Undefined leave text untouched.
func Apply(style Style, text string) string {
	switch style {
	case Uppercase:
		return upper.String(text)
	case Lowercase:
		return lower.String(text)
	case Titlecase:
		return capitalize(text)
	default:
		return text
	}
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// isUpper needs at least one cased rune and no lower-case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func isLower(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}
	return cased
}

// isTitle reports whether upper-case runes only follow uncased runes and
// lower-case runes only follow cased ones.
func isTitle(s string) bool {
	cased, prevCased := false, false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

// capitalize upper-cases the first letter and lower-cases everything after
// it. Runes before the first letter (spaces, digits, punctuation) are kept.
func capitalize(s string) string {
	idx := strings.IndexFunc(s, isCased)
	if idx < 0 {
		return lower.String(s)
	}
	r, size := utf8.DecodeRuneInString(s[idx:])
	return s[:idx] + string(unicode.ToTitle(r)) + lower.String(s[idx+size:])
}
