// Package synth turns crawled pages into structured business content,
// preferring model synthesis with a regex backstop.
package synth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/crawl"
	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/extract"
	"github.com/tradiesite/tradiesite/internal/llm"
	"github.com/tradiesite/tradiesite/internal/observability"
)

// Per-page prompt budgets. The homepage carries most of the signal so it
// gets the larger slice.
const (
	homepageBudget = 3000
	subPageBudget  = 2000
	rawTextBudget  = 3000
)

const systemPrompt = `You are extracting facts about a New Zealand trade business from its existing website. You must be conservative: NEVER invent services, testimonials, or facts that are not present in the source HTML. If a field is not evidenced by the pages, leave it empty.`

const schemaBlock = `Return a JSON object with exactly these fields (omit or empty where unknown):
{
  "businessInfo": {"businessName": "", "tradeType": "", "location": "", "region": "", "phone": "", "email": "", "services": [], "aboutText": "", "tagline": "", "yearsExperience": 0},
  "services": ["each distinct service the site names"],
  "testimonials": [{"quote": "", "name": "", "location": ""}],
  "socialLinks": [{"platform": "", "url": ""}],
  "yearFounded": 0,
  "logoUrl": "",
  "heroUrl": "",
  "images": [{"src": "", "alt": "", "type": "logo|hero|gallery|team|project|other"}],
  "summary": "2-3 sentence plain-text summary of the business"
}`

// contentResponse is the defensive parse target: every field optional.
type contentResponse struct {
	BusinessInfo domain.BusinessInfo  `json:"businessInfo"`
	Services     []string             `json:"services"`
	Testimonials []domain.Testimonial `json:"testimonials"`
	SocialLinks  []domain.SocialLink  `json:"socialLinks"`
	YearFounded  int                  `json:"yearFounded"`
	LogoURL      string               `json:"logoUrl"`
	HeroURL      string               `json:"heroUrl"`
	Images       []imageEntry         `json:"images"`
	Summary      string               `json:"summary"`
}

type imageEntry struct {
	Src  string `json:"src"`
	Alt  string `json:"alt"`
	Type string `json:"type"`
}

// Synthesizer produces ExtractedContent from a crawl.
type Synthesizer struct {
	client *llm.Client
	logger *zap.Logger
}

// New creates a synthesizer.
func New(client *llm.Client, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{client: client, logger: logger}
}

// Synthesize issues one model call over every crawled page and parses the
// structured answer. One attempt: any failure is the caller's cue to fall
// back to regex extraction.
func (s *Synthesizer) Synthesize(ctx context.Context, snap *crawl.SiteSnapshot) (domain.ExtractedContent, error) {
	var resp contentResponse
	if err := s.client.CompleteJSON(ctx, "synthesize", systemPrompt, buildPrompt(snap), &resp); err != nil {
		return domain.ExtractedContent{}, fmt.Errorf("content synthesis: %w", err)
	}

	content := domain.ExtractedContent{
		BusinessInfo: resp.BusinessInfo,
		Services:     orEmpty(resp.Services),
		Testimonials: orEmptyT(resp.Testimonials),
		SocialLinks:  orEmptyS(resp.SocialLinks),
		YearFounded:  resp.YearFounded,
		LogoURL:      resp.LogoURL,
		HeroURL:      resp.HeroURL,
		RawText:      resp.Summary,
	}

	images := make([]domain.ExtractedImage, 0, len(resp.Images))
	for _, img := range resp.Images {
		if img.Src == "" {
			continue
		}
		images = append(images, domain.ExtractedImage{
			Src:  img.Src,
			Alt:  img.Alt,
			Type: imageType(img.Type),
		})
	}
	content.Images = mergeFeatureImages(images, resp.LogoURL, resp.HeroURL)
	return content, nil
}

// Resolve is the two-tier entry point: model synthesis first, regex
// extraction from the seed page when the model path fails.
func (s *Synthesizer) Resolve(ctx context.Context, snap *crawl.SiteSnapshot) domain.ExtractedContent {
	content, err := s.Synthesize(ctx, snap)
	if err != nil {
		s.logger.Warn("model synthesis failed, using regex extraction", zap.Error(err))
		observability.FallbacksTotal.WithLabelValues("synthesis").Inc()
		return Fallback(snap)
	}
	return content
}

// Fallback builds ExtractedContent from regex extraction alone: business
// info from the seed page, crawled images, empty lists.
func Fallback(snap *crawl.SiteSnapshot) domain.ExtractedContent {
	return domain.ExtractedContent{
		BusinessInfo: extract.BusinessInfo(snap.SeedHTML),
		Images:       snap.Images,
		RawText:      extract.PlainText(snap.SeedHTML, rawTextBudget),
		Services:     []string{},
		Testimonials: []domain.Testimonial{},
		SocialLinks:  []domain.SocialLink{},
	}
}

// buildPrompt lays out per-page snippets, the detected image list and the
// schema the model must return.
func buildPrompt(snap *crawl.SiteSnapshot) string {
	var b strings.Builder

	b.WriteString("Extract the business facts from these pages of one website.\n\n")
	fmt.Fprintf(&b, "HOMEPAGE (%s):\n%s\n\n", snap.SeedURL, truncate(snap.SeedHTML, homepageBudget))
	for _, page := range snap.SubPages {
		fmt.Fprintf(&b, "PAGE (%s):\n%s\n\n", page.URL, truncate(page.HTML, subPageBudget))
	}

	if len(snap.Images) > 0 {
		b.WriteString("IMAGES ALREADY DETECTED (classify these, do not re-discover):\n")
		for _, img := range snap.Images {
			fmt.Fprintf(&b, "- %s (alt: %q)\n", img.Src, img.Alt)
		}
		b.WriteString("\n")
	}

	b.WriteString(schemaBlock)
	return b.String()
}

// mergeFeatureImages moves separately-identified logo and hero URLs to the
// front of the classified list when they are not already present.
func mergeFeatureImages(images []domain.ExtractedImage, logoURL, heroURL string) []domain.ExtractedImage {
	front := make([]domain.ExtractedImage, 0, 2)
	if logoURL != "" && !containsSrc(images, logoURL) {
		front = append(front, domain.ExtractedImage{Src: logoURL, Type: domain.ImageLogo})
	}
	if heroURL != "" && !containsSrc(images, heroURL) {
		front = append(front, domain.ExtractedImage{Src: heroURL, Type: domain.ImageHero})
	}
	if len(front) == 0 {
		return images
	}
	return append(front, images...)
}

func containsSrc(images []domain.ExtractedImage, src string) bool {
	for _, img := range images {
		if img.Src == src {
			return true
		}
	}
	return false
}

func imageType(s string) domain.ImageType {
	t := domain.ImageType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case domain.ImageLogo, domain.ImageHero, domain.ImageGallery, domain.ImageTeam, domain.ImageProject:
		return t
	}
	return domain.ImageOther
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyT(s []domain.Testimonial) []domain.Testimonial {
	if s == nil {
		return []domain.Testimonial{}
	}
	return s
}

func orEmptyS(s []domain.SocialLink) []domain.SocialLink {
	if s == nil {
		return []domain.SocialLink{}
	}
	return s
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
