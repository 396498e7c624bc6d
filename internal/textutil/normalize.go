package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var reNonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// StripDiacritics removes combining marks after NFD decomposition.
func StripDiacritics(s string) string {
	decomp := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomp))
	for _, r := range decomp {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeTitle folds a title into its comparison form.
// "Amélie (2001)" and "amelie 2001" normalize to the same string.
func NormalizeTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = StripDiacritics(s)
	s = strings.ToLower(s)
	s = reNonAlnum.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
