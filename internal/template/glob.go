package template

import "strings"

// MatchGlob implements the simple glob grammar shared by §4.3 pattern
// placeholders and §4.4 rate-limit key patterns: a single leading and/or
// trailing '*' wildcard, matching as prefix ("foo*"), suffix ("*foo"),
// contains ("*foo*"), or exact (no '*').
func MatchGlob(pattern, s string) bool {
	if pattern == "" {
		return s == ""
	}
	hasPrefix := strings.HasPrefix(pattern, "*")
	hasSuffix := strings.HasSuffix(pattern, "*")

	switch {
	case hasPrefix && hasSuffix && len(pattern) >= 2:
		needle := pattern[1 : len(pattern)-1]
		return strings.Contains(s, needle)
	case hasSuffix:
		needle := pattern[:len(pattern)-1]
		return strings.HasPrefix(s, needle)
	case hasPrefix:
		needle := pattern[1:]
		return strings.HasSuffix(s, needle)
	default:
		return s == pattern
	}
}
