package cache

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxKeyLength = 60

var (
	keepPattern       = regexp.MustCompile(`[^\w \-.]`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Key derives a deterministic cache key from a raw input string so that
// cosmetically different inputs (case, punctuation, diacritics) collide onto
// the same entry. Parts are joined with ":" to namespace key families, e.g.
// Key("profile", makerName).
func Key(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		cleaned = append(cleaned, cleanKeyPart(part))
	}
	return strings.Join(cleaned, ":")
}

func cleanKeyPart(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}

	s = keepPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, "_")

	if len(s) > maxKeyLength {
		s = s[:maxKeyLength]
	}

	return s
}
