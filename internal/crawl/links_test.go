package crawl

import (
	"fmt"
	"strings"
	"testing"
)

func TestDiscoverLinksSameOriginOnly(t *testing.T) {
	html := `
		<a href="/about">About</a>
		<a href="https://example.com/services">Services</a>
		<a href="https://other.com/steal">Other</a>
		<a href="//cdn.example.net/lib.js">CDN</a>
		<a href="#top">Top</a>
		<a href="/brochure.pdf">Brochure</a>
		<a href="mailto:hi@example.com">Mail</a>
		<a href="/">Seed</a>`

	links := DiscoverLinks(html, "https://example.com/")
	for _, l := range links {
		if !strings.HasPrefix(l, "https://example.com/") {
			t.Errorf("cross-origin link leaked: %q", l)
		}
	}
	want := map[string]bool{
		"https://example.com/about":    true,
		"https://example.com/services": true,
	}
	if len(links) != len(want) {
		t.Fatalf("links = %v, want exactly %v", links, want)
	}
	for _, l := range links {
		if !want[l] {
			t.Errorf("unexpected link %q", l)
		}
	}
}

func TestDiscoverLinksDeduplicatesByPath(t *testing.T) {
	html := `
		<a href="/about">About</a>
		<a href="/about/">About again</a>
		<a href="https://example.com/about">Once more</a>`

	links := DiscoverLinks(html, "https://example.com/")
	if len(links) != 1 {
		t.Errorf("links = %v, want one entry for /about", links)
	}
}

func TestPrioritizeContactFirst(t *testing.T) {
	links := []string{
		"https://example.com/blog/post-1",
		"https://example.com/contact",
		"https://example.com/random",
	}
	ordered := Prioritize(links, 8)
	if ordered[0] != "https://example.com/contact" {
		t.Errorf("contact should sort first, got %v", ordered)
	}
}

func TestPrioritizeKeywordOrderAndCap(t *testing.T) {
	// 15 links, 3 carrying priority keywords.
	var links []string
	for i := 0; i < 12; i++ {
		links = append(links, fmt.Sprintf("https://example.com/page-%d", i))
	}
	links = append(links,
		"https://example.com/gallery",
		"https://example.com/contact",
		"https://example.com/about",
	)

	ordered := Prioritize(links, 8)
	if len(ordered) != 8 {
		t.Fatalf("got %d links, want 8", len(ordered))
	}
	want := []string{
		"https://example.com/contact",
		"https://example.com/about",
		"https://example.com/gallery",
	}
	for i, w := range want {
		if ordered[i] != w {
			t.Errorf("ordered[%d] = %q, want %q", i, ordered[i], w)
		}
	}
	// Unmatched links keep discovery order after the keyword matches.
	if ordered[3] != "https://example.com/page-0" {
		t.Errorf("ordered[3] = %q, want page-0", ordered[3])
	}
}

func TestPrioritizeNeverExceedsCap(t *testing.T) {
	var links []string
	for i := 0; i < 50; i++ {
		links = append(links, fmt.Sprintf("https://example.com/contact-%d", i))
	}
	if got := Prioritize(links, 8); len(got) != 8 {
		t.Errorf("got %d, want 8", len(got))
	}
}
