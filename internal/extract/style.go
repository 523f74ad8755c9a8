package extract

import (
	"strings"

	"github.com/tradiesite/tradiesite/internal/domain"
)

// ClassifyStyle picks a style keyword from the page's color literals.
//
// Any sufficiently dark 6-digit hex anywhere in the markup classifies the
// page as "dark"; otherwise a top ranked color containing "warm" yields
// "warm", and everything else is "minimal". Note the dark check inspects raw
// literals without correlating a color with its CSS role, so a page with dark
// text on a light background is classified dark too. That mirrors the
// observed production heuristic; fixing it would change classifications.
func ClassifyStyle(literals, ranked []string) domain.Style {
	for _, c := range literals {
		if IsDarkHex(c) {
			return domain.StyleDark
		}
	}
	if len(ranked) > 0 && strings.Contains(ranked[0], "warm") {
		return domain.StyleWarm
	}
	return domain.StyleMinimal
}

// DefaultLayoutPatterns are used when no reference analysis supplies any.
var DefaultLayoutPatterns = []string{"hero-full", "services-grid", "testimonial-cards"}

// DesignTokens derives a full token set from raw markup using only the regex
// heuristics. This is the deterministic fallback tier behind the remote-model
// design analysis.
func DesignTokens(html string) domain.ExtractedDesignTokens {
	literals := ColorLiterals(html)
	ranked := RankColors(literals)
	heading, body := FontPairing(Fonts(html))

	return domain.ExtractedDesignTokens{
		Colors:         Palette(ranked),
		Fonts:          domain.FontPair{Heading: heading, Body: body},
		Style:          ClassifyStyle(literals, ranked),
		LayoutPatterns: append([]string(nil), DefaultLayoutPatterns...),
	}
}
