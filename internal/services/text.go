package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCase collapses whitespace and capitalises each word.
// A new Caser is built per call because Casers are not safe for concurrent use.
func titleCase(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// normalizeEmail trims and lower-cases an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
