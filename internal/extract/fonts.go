package extract

import (
	"regexp"
	"strings"
)

var fontDecl = regexp.MustCompile(`(?i)font-family:\s*['"]?([\w\s,-]+)`)

// genericFonts are CSS fallback keywords, never real font families.
var genericFonts = map[string]bool{
	"inherit":    true,
	"initial":    true,
	"sans-serif": true,
	"serif":      true,
	"monospace":  true,
}

// DefaultFonts fills in when a reference site declares fewer than two fonts.
var DefaultFonts = struct{ Heading, Body string }{"Montserrat", "Open Sans"}

// Fonts returns the distinct font family names declared in the markup, in
// order of first appearance. Only the first name of each comma-separated
// stack is kept; quotes are stripped and generic keywords skipped.
func Fonts(html string) []string {
	var fonts []string
	seen := make(map[string]bool)
	for _, m := range fontDecl.FindAllStringSubmatch(html, -1) {
		name := strings.TrimSpace(strings.Split(m[1], ",")[0])
		name = strings.Trim(name, `'"`)
		if name == "" || genericFonts[strings.ToLower(name)] || seen[name] {
			continue
		}
		seen[name] = true
		fonts = append(fonts, name)
	}
	return fonts
}

// FontPairing picks heading and body fonts from the extracted list, reusing
// the heading font for body when only one was found.
func FontPairing(fonts []string) (heading, body string) {
	switch len(fonts) {
	case 0:
		return DefaultFonts.Heading, DefaultFonts.Body
	case 1:
		return fonts[0], fonts[0]
	default:
		return fonts[0], fonts[1]
	}
}
