package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	dotRegex  = regexp.MustCompile(`\.{2,}`)
	ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	wsRegex   = regexp.MustCompile(`[ \t]+`)
)

// Apply runs transforms over value in order.
func Apply[T any](value T, transforms ...func(T) T) T {
	for _, fn := range transforms {
		value = fn(value)
	}
	return value
}

// NormalizeEmail lowercases and trims an address and collapses runs of dots
// in the local part. Strings without exactly one "@" are only trimmed and
// lowercased.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return email
	}

	local = dotRegex.ReplaceAllString(local, ".")
	local = strings.Trim(local, ".")

	return local + "@" + domain
}

// RemoveControlChars strips ANSI escape sequences and control characters,
// keeping newlines and tabs.
func RemoveControlChars(s string) string {
	s = ansiRegex.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// CollapseSpaces replaces runs of spaces and tabs with a single space.
// Newlines are kept.
func CollapseSpaces(s string) string {
	return wsRegex.ReplaceAllString(s, " ")
}

// MaxLength truncates s to maxLen runes.
func MaxLength(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// UserText cleans free text typed by a user: control characters are removed,
// spaces collapsed, the result trimmed and cut to maxLen runes.
func UserText(s string, maxLen int) string {
	s = Apply(s, RemoveControlChars, CollapseSpaces, strings.TrimSpace)
	return MaxLength(s, maxLen)
}
