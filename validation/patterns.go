package validation

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// dangerousPatterns detect common SQL injection and XSS payloads. A match
// rejects the field outright; escaping is not attempted on matches.
var dangerousPatterns = []*regexp.Regexp{
	// SQL keywords combined with statement punctuation.
	regexp.MustCompile(`(?i)(union\s+select|drop\s+table|insert\s+into|delete\s+from|update\s+\S+\s+set|truncate\s+table)`),
	regexp.MustCompile(`(?i)(--|;)\s*(select|insert|update|delete|drop|exec)`),
	regexp.MustCompile(`(?i)'\s*(or|and)\s+[\w'"]+\s*=`),
	// Script and frame injection.
	regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe)`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	// Inline event handlers: onload=, onclick=, onerror= ...
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
}

// IsDangerous reports whether s matches a known injection pattern.
func IsDangerous(s string) bool {
	for _, p := range dangerousPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// Sanitize trims whitespace, drops control characters, and HTML-entity
// escapes the remainder. Applied only to strings that passed the
// dangerous-pattern screen.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return html.EscapeString(s)
}
