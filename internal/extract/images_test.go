package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tradiesite/tradiesite/internal/domain"
)

func TestImagesResolvesAndClassifies(t *testing.T) {
	html := `
		<img src="/img/logo.png" alt="Acme logo">
		<img src="https://cdn.example.com/hero-shot.jpg" alt="">
		<img src="/img/team-photo.jpg" alt="Our staff">
		<img src="/img/deck.jpg" alt="Gallery of recent work">
		<img src="/img/fence.jpg" alt="A fence">`

	images := Images(html, "https://example.com/about", 0)
	if len(images) != 5 {
		t.Fatalf("got %d images, want 5: %+v", len(images), images)
	}

	wantTypes := map[string]domain.ImageType{
		"https://example.com/img/logo.png":       domain.ImageLogo,
		"https://cdn.example.com/hero-shot.jpg":  domain.ImageHero,
		"https://example.com/img/team-photo.jpg": domain.ImageTeam,
		"https://example.com/img/deck.jpg":       domain.ImageGallery,
		"https://example.com/img/fence.jpg":      domain.ImageOther,
	}
	for _, img := range images {
		want, ok := wantTypes[img.Src]
		if !ok {
			t.Errorf("unexpected src %q", img.Src)
			continue
		}
		if img.Type != want {
			t.Errorf("type of %q = %q, want %q", img.Src, img.Type, want)
		}
	}
}

func TestImagesResolutionIdempotent(t *testing.T) {
	abs := "https://cdn.example.com/a/b.jpg"
	html := fmt.Sprintf(`<img src=%q alt="">`, abs)
	first := Images(html, "https://example.com/", 0)
	if len(first) != 1 || first[0].Src != abs {
		t.Fatalf("absolute URL changed on resolve: %+v", first)
	}
	// Re-resolving the already-absolute result must be a fixed point.
	second := Images(fmt.Sprintf(`<img src=%q alt="">`, first[0].Src), "https://example.com/", 0)
	if second[0].Src != abs {
		t.Errorf("re-resolve changed URL: %q", second[0].Src)
	}
}

func TestImagesFiltersJunk(t *testing.T) {
	html := `
		<img src="/1x1.gif" alt="">
		<img src="/tracking/beacon.png" alt="">
		<img src="/spacer-pixel.png" alt="">
		<img src="/icon.svg" alt="">
		<img src="data:image/gif;base64,R0lGOD" alt="">
		<img src="/real.jpg" alt="">`

	images := Images(html, "https://example.com/", 0)
	if len(images) != 1 || !strings.HasSuffix(images[0].Src, "/real.jpg") {
		t.Errorf("junk not filtered: %+v", images)
	}
}

func TestImagesDeduplicatesAndCaps(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, `<img src="/img/%d.jpg" alt="">`, i)
	}
	b.WriteString(`<img src="/img/0.jpg" alt="dup">`)

	images := Images(b.String(), "https://example.com/", MaxImages)
	if len(images) != MaxImages {
		t.Errorf("got %d images, want cap %d", len(images), MaxImages)
	}
	seen := make(map[string]bool)
	for _, img := range images {
		if seen[img.Src] {
			t.Errorf("duplicate src %q", img.Src)
		}
		seen[img.Src] = true
	}
}

func TestImagesLazyAttrsAndBackground(t *testing.T) {
	html := `
		<div data-src="/lazy.jpg"></div>
		<div data-bg="/bg-banner.jpg"></div>
		<style>.hero { background-image: url('/css-hero.jpg'); }</style>`

	images := Images(html, "https://example.com/", 0)
	srcs := make(map[string]domain.ImageType)
	for _, img := range images {
		srcs[img.Src] = img.Type
	}
	if _, ok := srcs["https://example.com/lazy.jpg"]; !ok {
		t.Error("data-src image missing")
	}
	if typ, ok := srcs["https://example.com/bg-banner.jpg"]; !ok || typ != domain.ImageHero {
		t.Errorf("data-bg banner = %q, want hero", typ)
	}
	if _, ok := srcs["https://example.com/css-hero.jpg"]; !ok {
		t.Error("css background image missing")
	}
}

func TestMergeImages(t *testing.T) {
	a := []domain.ExtractedImage{{Src: "https://e.com/1.jpg"}, {Src: "https://e.com/2.jpg"}}
	b := []domain.ExtractedImage{{Src: "https://e.com/2.jpg"}, {Src: "https://e.com/3.jpg"}}
	merged := MergeImages(0, a, b)
	if len(merged) != 3 {
		t.Errorf("merged = %d images, want 3", len(merged))
	}
	if merged[0].Src != "https://e.com/1.jpg" || merged[2].Src != "https://e.com/3.jpg" {
		t.Errorf("order not preserved: %+v", merged)
	}
}
