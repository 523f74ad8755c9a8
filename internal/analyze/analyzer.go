// Package analyze turns a reference page into design tokens, preferring a
// model analysis with a deterministic regex backstop.
package analyze

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/extract"
	"github.com/tradiesite/tradiesite/internal/llm"
	"github.com/tradiesite/tradiesite/internal/observability"
)

// htmlBudget bounds how much reference markup goes into each prompt.
const htmlBudget = 3000

const tokensSystemPrompt = `You are a design analyst. You are given the HTML of a trade business website and must report its visual design as structured data.`

const tokensPromptTemplate = `Analyse the design of this website and return a JSON object with exactly these fields:
{
  "colors": {"primary": "", "secondary": "", "accent": "", "background": "", "text": ""},
  "fonts": {"heading": "", "body": ""},
  "style": "one of: minimal, bold, warm, dark, corporate, rustic",
  "layoutPatterns": ["short keyword per observed section layout"]
}
All colours as hex strings.

HTML:
%s`

const designSystemSystemPrompt = `You are a senior web designer documenting an existing website's design system so another designer can faithfully reproduce its feel.`

const designSystemPromptTemplate = `Write a design system specification for this website. Cover: colour palette and how each colour is used, typography (families, weights, scale), spacing rhythm, shadows and depth, border treatment, motion and hover behaviour, and the overall aesthetic in one sentence. Be specific and concrete; this text will be handed to another designer as the sole style reference.

HTML:
%s`

// tokenResponse is the shape the structured call must return. Fields are
// pointers where absence must be distinguishable from the zero value.
type tokenResponse struct {
	Colors         *domain.ColorPalette `json:"colors"`
	Fonts          *domain.FontPair     `json:"fonts"`
	Style          string               `json:"style"`
	LayoutPatterns []string             `json:"layoutPatterns"`
}

// Analyzer produces design tokens for a reference page.
type Analyzer struct {
	client *llm.Client
	logger *zap.Logger
}

// New creates an analyzer.
func New(client *llm.Client, logger *zap.Logger) *Analyzer {
	return &Analyzer{client: client, logger: logger}
}

// Analyze issues the two model calls concurrently: structured tokens and the
// prose design-system spec. Either call failing fails the whole analysis;
// partial success is not supported at this layer.
func (a *Analyzer) Analyze(ctx context.Context, html string) (domain.ExtractedDesignTokens, error) {
	snippet := truncate(html, htmlBudget)

	var (
		wg        sync.WaitGroup
		tokens    tokenResponse
		tokensErr error
		prose     string
		proseErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		tokensErr = a.client.CompleteJSON(ctx, "analyze_tokens",
			tokensSystemPrompt, fmt.Sprintf(tokensPromptTemplate, snippet), &tokens)
	}()
	go func() {
		defer wg.Done()
		prose, proseErr = a.client.Complete(ctx, "analyze_design_system",
			designSystemSystemPrompt, fmt.Sprintf(designSystemPromptTemplate, snippet))
	}()
	wg.Wait()

	if tokensErr != nil {
		return domain.ExtractedDesignTokens{}, fmt.Errorf("token analysis: %w", tokensErr)
	}
	if proseErr != nil {
		return domain.ExtractedDesignTokens{}, fmt.Errorf("design system analysis: %w", proseErr)
	}

	result := applyDefaults(tokens)
	result.DesignSystem = prose
	return result, nil
}

// ResolveTokens is the two-tier entry point: model analysis first, regex
// extraction when the model path fails for any reason.
func (a *Analyzer) ResolveTokens(ctx context.Context, html string) domain.ExtractedDesignTokens {
	tokens, err := a.Analyze(ctx, html)
	if err != nil {
		a.logger.Warn("model analysis failed, using regex extraction", zap.Error(err))
		observability.FallbacksTotal.WithLabelValues("analysis").Inc()
		return extract.DesignTokens(html)
	}
	return tokens
}

// applyDefaults replaces absent or invalid fields with the fixed defaults.
func applyDefaults(t tokenResponse) domain.ExtractedDesignTokens {
	out := domain.ExtractedDesignTokens{
		Colors:         extract.DefaultPalette,
		Fonts:          domain.FontPair{Heading: extract.DefaultFonts.Heading, Body: extract.DefaultFonts.Body},
		Style:          domain.StyleMinimal,
		LayoutPatterns: extract.DefaultLayoutPatterns,
	}

	if t.Colors != nil {
		setIfPresent(&out.Colors.Primary, t.Colors.Primary)
		setIfPresent(&out.Colors.Secondary, t.Colors.Secondary)
		setIfPresent(&out.Colors.Accent, t.Colors.Accent)
		setIfPresent(&out.Colors.Background, t.Colors.Background)
		setIfPresent(&out.Colors.Text, t.Colors.Text)
	}
	if t.Fonts != nil {
		setIfPresent(&out.Fonts.Heading, t.Fonts.Heading)
		setIfPresent(&out.Fonts.Body, t.Fonts.Body)
	}
	if style := domain.Style(t.Style); style.Valid() {
		out.Style = style
	}
	if len(t.LayoutPatterns) > 0 {
		out.LayoutPatterns = t.LayoutPatterns
	}
	return out
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
