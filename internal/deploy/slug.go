package deploy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 63

var (
	apostrophes    = strings.NewReplacer("'", "", "’", "")
	nonAlnumRuns   = regexp.MustCompile(`[^a-z0-9]+`)
	diacriticStrip = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify derives a hosting-safe project name from a business name:
// lower-cased, apostrophes and diacritics removed, runs of anything else
// collapsed to single hyphens, trimmed, capped at 63 characters.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = apostrophes.Replace(s)
	if stripped, _, err := transform.String(diacriticStrip, s); err == nil {
		s = stripped
	}
	s = nonAlnumRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	return s
}
