package common

import "strings"

// HasAnySuffix reports whether s ends with any of the suffixes, ignoring case.
func HasAnySuffix(s string, suffixes ...string) bool {
	lower := strings.ToLower(s)
	for _, suf := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(suf)) {
			return true
		}
	}
	return false
}

// ReplaceSuffixFold swaps a trailing old for repl, ignoring case. s is
// returned unchanged when it does not end with old.
func ReplaceSuffixFold(s, old, repl string) string {
	if len(s) < len(old) || !strings.EqualFold(s[len(s)-len(old):], old) {
		return s
	}
	return s[:len(s)-len(old)] + repl
}
