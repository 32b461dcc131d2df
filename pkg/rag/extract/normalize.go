package extract

import (
	"regexp"
	"strings"
)

var (
	legalSuffixes = regexp.MustCompile(`\s*\b(inc\.?|corp\.?|ltd\.?|llc\.?|co\.?|plc\.?|gmbh|s\.a\.?|n\.v\.?)\s*$`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes an entity name for identity comparison.
// It lowercases, strips a trailing corporate suffix, drops trailing
// punctuation, and collapses whitespace runs. The result is stable under
// repeated application, so stored normalized names can be re-normalized
// safely.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = legalSuffixes.ReplaceAllString(n, "")
	n = strings.TrimRight(n, ".,;:!?")
	n = whitespaceRun.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}
