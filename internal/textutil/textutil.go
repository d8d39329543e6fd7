package textutil

import (
	"strings"
	"unicode/utf8"
)

// Truncate shortens s to at most max characters, replacing the tail with
// "...". Cuts fall on rune boundaries. When max is 3 or less the result is
// just "...".
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - 3
	if keep < 0 {
		keep = 0
	}
	end := 0
	for i := 0; i < keep; i++ {
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	return s[:end] + "..."
}

// IsValidEmail is a cheap shape check: one '@', non-empty parts and a dot
// in the domain.
func IsValidEmail(email string) bool {
	local, domainPart, ok := strings.Cut(email, "@")
	if !ok || local == "" || domainPart == "" || strings.Contains(domainPart, "@") {
		return false
	}
	return strings.Contains(domainPart, ".")
}

// ParseKeyValuePairs parses "k1=v1,k2=v2". Pairs without exactly one '='
// are skipped; keys and values are trimmed.
func ParseKeyValuePairs(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}
