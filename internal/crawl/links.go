package crawl

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxPriorityLinks bounds how many sub-pages a crawl will visit.
const MaxPriorityLinks = 8

// priorityKeywords order likely content pages first. Keywords earlier in the
// list sort first; paths matching none sort last.
var priorityKeywords = []string{
	"contact", "about", "service", "project", "portfolio", "gallery", "team", "testimonial",
}

// assetExtensions are link targets that are never content pages.
var assetExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".css", ".js", ".zip", ".doc", ".docx", ".mp4",
}

// DiscoverLinks parses anchor hrefs out of the markup and returns absolute
// same-origin page URLs: cross-origin links, the seed path itself, asset
// files and fragment-only anchors are discarded, and the result is
// de-duplicated by trailing-slash-normalized path.
func DiscoverLinks(html, seedURL string) []string {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil
	}
	seedPath := normalizePath(seed.Path)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		resolved, err := seed.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if resolved.Host != seed.Host {
			return
		}

		path := normalizePath(resolved.Path)
		if path == seedPath {
			return
		}
		lower := strings.ToLower(path)
		for _, ext := range assetExtensions {
			if strings.HasSuffix(lower, ext) {
				return
			}
		}
		if seen[path] {
			return
		}
		seen[path] = true

		resolved.Fragment = ""
		links = append(links, resolved.String())
	})
	return links
}

// normalizePath strips a trailing slash so /about and /about/ de-duplicate.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// priorityRank returns the index of the first priority keyword the path
// contains, or len(priorityKeywords) when none match.
func priorityRank(link string) int {
	lower := strings.ToLower(link)
	for i, kw := range priorityKeywords {
		if strings.Contains(lower, kw) {
			return i
		}
	}
	return len(priorityKeywords)
}

// Prioritize orders links by priority keyword and truncates to max. The sort
// is stable so unmatched links keep their discovery order at the tail.
func Prioritize(links []string, max int) []string {
	if max <= 0 {
		max = MaxPriorityLinks
	}
	ordered := append([]string(nil), links...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return priorityRank(ordered[i]) < priorityRank(ordered[j])
	})
	if len(ordered) > max {
		ordered = ordered[:max]
	}
	return ordered
}
