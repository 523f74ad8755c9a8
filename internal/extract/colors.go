// Package extract provides pure, best-effort parsing of arbitrary HTML into
// structured design and business signals. Nothing here touches the network.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tradiesite/tradiesite/internal/domain"
)

var colorLiteral = regexp.MustCompile(`#[0-9A-Fa-f]{3,8}|rgba?\([^)]+\)|hsla?\([^)]+\)`)

// neutralColors are overused defaults excluded from the ranked palette.
var neutralColors = map[string]bool{
	"#000":             true,
	"#000000":          true,
	"#fff":             true,
	"#ffffff":          true,
	"#333":             true,
	"#333333":          true,
	"#666":             true,
	"#999":             true,
	"#ccc":             true,
	"#eee":             true,
	"#f5f5f5":          true,
	"rgba(0,0,0,0)":    true,
	"rgba(0, 0, 0, 0)": true,
}

// DefaultPalette fills any slot the reference site could not supply.
var DefaultPalette = domain.ColorPalette{
	Primary:    "#2c3e50",
	Secondary:  "#e67e22",
	Accent:     "#f39c12",
	Background: "#fafafa",
	Text:       "#2c3e50",
}

// ColorLiterals returns every color literal found in the markup, lower-cased
// and trimmed, in order of appearance. Duplicates are kept; this is the raw
// input for both ranking and the dark-style heuristic.
func ColorLiterals(html string) []string {
	matches := colorLiteral.FindAllString(html, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.ToLower(strings.TrimSpace(m)))
	}
	return out
}

// RankColors orders the distinct non-neutral colors by descending frequency.
// Ties break by first appearance so the ordering is deterministic.
func RankColors(literals []string) []string {
	freq := make(map[string]int)
	first := make(map[string]int)
	for i, c := range literals {
		if neutralColors[c] {
			continue
		}
		if _, seen := freq[c]; !seen {
			first[c] = i
		}
		freq[c]++
	}

	ranked := make([]string, 0, len(freq))
	for c := range freq {
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if freq[ranked[i]] != freq[ranked[j]] {
			return freq[ranked[i]] > freq[ranked[j]]
		}
		return first[ranked[i]] < first[ranked[j]]
	})
	return ranked
}

// Palette maps the top five ranked colors onto the named slots, falling back
// to the default palette for any missing slot.
func Palette(ranked []string) domain.ColorPalette {
	pick := func(i int, fallback string) string {
		if i < len(ranked) {
			return ranked[i]
		}
		return fallback
	}
	return domain.ColorPalette{
		Primary:    pick(0, DefaultPalette.Primary),
		Secondary:  pick(1, DefaultPalette.Secondary),
		Accent:     pick(2, DefaultPalette.Accent),
		Background: pick(3, DefaultPalette.Background),
		Text:       pick(4, DefaultPalette.Text),
	}
}

var sixDigitHex = regexp.MustCompile(`#([0-9a-f]{6})`)

// darkChannelThreshold is the per-channel brightness ceiling for a color to
// count as dark.
const darkChannelThreshold = 60

// IsDarkHex reports whether the literal contains a 6-digit hex color whose
// red, green and blue channels are all below the dark threshold.
func IsDarkHex(literal string) bool {
	m := sixDigitHex.FindStringSubmatch(strings.ToLower(literal))
	if m == nil {
		return false
	}
	r, _ := strconv.ParseInt(m[1][0:2], 16, 32)
	g, _ := strconv.ParseInt(m[1][2:4], 16, 32)
	b, _ := strconv.ParseInt(m[1][4:6], 16, 32)
	return r < darkChannelThreshold && g < darkChannelThreshold && b < darkChannelThreshold
}
