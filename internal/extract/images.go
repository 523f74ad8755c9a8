package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tradiesite/tradiesite/internal/domain"
)

// MaxImages caps the extracted image list to bound payload size.
const MaxImages = 30

var backgroundImage = regexp.MustCompile(`(?i)background(?:-image)?:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// lazyAttrs are attributes common CMSes use for deferred image loading.
var lazyAttrs = []string{"data-src", "data-image", "data-bg"}

// Images extracts candidate images from the markup, resolves each src
// against the base URL, de-duplicates, classifies and caps the result.
func Images(html, baseURL string, max int) []domain.ExtractedImage {
	if max <= 0 {
		max = MaxImages
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	type candidate struct{ src, alt string }
	var candidates []candidate

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
			src, _ := sel.Attr("src")
			alt, _ := sel.Attr("alt")
			if src != "" {
				candidates = append(candidates, candidate{src, alt})
			}
		})
		for _, attr := range lazyAttrs {
			doc.Find("[" + attr + "]").Each(func(_ int, sel *goquery.Selection) {
				if src, ok := sel.Attr(attr); ok && src != "" {
					alt, _ := sel.Attr("alt")
					candidates = append(candidates, candidate{src, alt})
				}
			})
		}
	}
	for _, m := range backgroundImage.FindAllStringSubmatch(html, -1) {
		candidates = append(candidates, candidate{m[1], ""})
	}

	var images []domain.ExtractedImage
	seen := make(map[string]bool)
	for _, c := range candidates {
		if len(images) >= max {
			break
		}
		if isJunkImage(c.src) {
			continue
		}

		resolved, err := base.Parse(c.src)
		if err != nil {
			continue
		}
		abs := resolved.String()
		if seen[abs] {
			continue
		}
		seen[abs] = true

		images = append(images, domain.ExtractedImage{
			Src:  abs,
			Alt:  c.alt,
			Type: ClassifyImage(abs, c.alt),
		})
	}
	return images
}

// isJunkImage filters tracking pixels, 1x1 spacers and inline GIF data URIs.
func isJunkImage(src string) bool {
	lower := strings.ToLower(src)
	return strings.Contains(lower, "1x1") ||
		strings.Contains(lower, "pixel") ||
		strings.Contains(lower, "tracking") ||
		strings.HasSuffix(lower, ".svg") ||
		strings.Contains(lower, "data:image/gif")
}

// ClassifyImage guesses an image's role from substrings in its URL or alt
// text, case-insensitively. First match wins; unknown images are "other".
func ClassifyImage(src, alt string) domain.ImageType {
	haystack := strings.ToLower(alt) + " " + strings.ToLower(src)
	switch {
	case strings.Contains(haystack, "logo"):
		return domain.ImageLogo
	case strings.Contains(haystack, "hero"), strings.Contains(haystack, "banner"):
		return domain.ImageHero
	case strings.Contains(haystack, "team"), strings.Contains(haystack, "staff"):
		return domain.ImageTeam
	case strings.Contains(haystack, "gallery"), strings.Contains(haystack, "project"):
		return domain.ImageGallery
	default:
		return domain.ImageOther
	}
}

// MergeImages combines image lists from several pages, preserving order,
// de-duplicating by src and applying the cap.
func MergeImages(max int, lists ...[]domain.ExtractedImage) []domain.ExtractedImage {
	if max <= 0 {
		max = MaxImages
	}
	var merged []domain.ExtractedImage
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, img := range list {
			if len(merged) >= max {
				return merged
			}
			if seen[img.Src] {
				continue
			}
			seen[img.Src] = true
			merged = append(merged, img)
		}
	}
	return merged
}
