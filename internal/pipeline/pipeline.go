// Package pipeline drives the multi-turn website generation state machine:
// plan, generate, refine, with continuation handling and layered fallbacks.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/llm"
	"github.com/tradiesite/tradiesite/internal/observability"
	"github.com/tradiesite/tradiesite/internal/screenshot"
)

// Capturer renders HTML to a base64 screenshot. Failures degrade the refine
// turn to a text critique.
type Capturer interface {
	Capture(html string, vp screenshot.Viewport) (string, error)
}

// Callbacks receive progress while a site is generated. Both are best-effort
// fire-and-forget: a panicking or slow callback never aborts generation.
type Callbacks struct {
	OnChunk  func(text string)
	OnStatus func(message string)
}

func (cb Callbacks) chunk(text string) {
	if cb.OnChunk == nil {
		return
	}
	defer func() { recover() }()
	cb.OnChunk(text)
}

func (cb Callbacks) status(message string) {
	if cb.OnStatus == nil {
		return
	}
	defer func() { recover() }()
	cb.OnStatus(message)
}

// Pipeline generates one complete HTML document per run.
type Pipeline struct {
	client           *llm.Client
	capturer         Capturer
	skillID          string
	maxContinuations int
	logger           *zap.Logger
}

// New creates a pipeline. capturer may be nil, which forces text refinement.
func New(client *llm.Client, capturer Capturer, cfg config.ClaudeConfig, logger *zap.Logger) *Pipeline {
	maxCont := cfg.MaxContinuations
	if maxCont < 1 {
		maxCont = 10
	}
	return &Pipeline{
		client:           client,
		capturer:         capturer,
		skillID:          cfg.SkillID,
		maxContinuations: maxCont,
		logger:           logger,
	}
}

// Generate produces the site HTML. The only fatal path is a Generate turn
// with no document-shaped output; every refinement failure degrades to the
// pre-refinement HTML.
func (p *Pipeline) Generate(ctx context.Context, info domain.BusinessInfo, tokens domain.ExtractedDesignTokens, content *domain.ExtractedContent, cb Callbacks) (string, error) {
	start := time.Now()
	mode := "fallback"
	if p.skillID != "" {
		mode = "skill"
	}

	html, err := p.run(ctx, mode, info, tokens, content, cb)
	if err != nil {
		observability.RecordGeneration(mode, "error", time.Since(start))
		return "", err
	}
	observability.RecordGeneration(mode, "success", time.Since(start))
	return html, nil
}

func (p *Pipeline) run(ctx context.Context, mode string, info domain.BusinessInfo, tokens domain.ExtractedDesignTokens, content *domain.ExtractedContent, cb Callbacks) (string, error) {
	if mode == "skill" {
		return p.runSkillMode(ctx, info, tokens, content, cb)
	}
	return p.runFallbackMode(ctx, info, tokens, content, cb)
}

// runSkillMode is the rich three-turn path: plan, generate, refine, all
// sharing one code-execution container.
func (p *Pipeline) runSkillMode(ctx context.Context, info domain.BusinessInfo, tokens domain.ExtractedDesignTokens, content *domain.ExtractedContent, cb Callbacks) (string, error) {
	req := llm.Request{
		System:   systemPrompt,
		Messages: []llm.Message{llm.TextMessage("user", planPrompt(info, tokens, content))},
		Tools:    []llm.Tool{{Type: "code_execution_20250522", Name: "code_execution"}},
		Skills:   []llm.SkillRef{{Type: "custom", SkillID: p.skillID}},
	}

	// Plan turn: all static and dynamic context goes in here so the later
	// turns stay small.
	cb.status("Planning...")
	planResp, err := p.runTurn(ctx, "plan", &req)
	if err != nil {
		return "", domain.GenerationError(err)
	}
	req.Messages = append(req.Messages, llm.TextMessage("assistant", planResp.Text()))

	// Generate turn.
	cb.status("Building...")
	req.Messages = append(req.Messages, llm.TextMessage("user", generateInstruction))
	genResp, err := p.runTurn(ctx, "generate", &req)
	if err != nil {
		return "", domain.GenerationError(err)
	}
	html, err := llm.ExtractHTML(genResp)
	if err != nil {
		return "", domain.GenerationError(err)
	}
	cb.chunk(html)
	req.Messages = append(req.Messages, llm.TextMessage("assistant", genResp.Text()))

	// Refine turn, always advisory.
	cb.status("Polishing...")
	return p.refine(ctx, &req, html, cb), nil
}

// runFallbackMode collapses plan and generate into one streamed call,
// followed by a best-effort text refine.
func (p *Pipeline) runFallbackMode(ctx context.Context, info domain.BusinessInfo, tokens domain.ExtractedDesignTokens, content *domain.ExtractedContent, cb Callbacks) (string, error) {
	req := llm.Request{
		System:   systemPrompt,
		Messages: []llm.Message{llm.TextMessage("user", fallbackPrompt(info, tokens, content))},
	}

	cb.status("Building...")
	resp, err := p.runStreamTurn(ctx, "generate", &req, cb.chunk)
	if err != nil {
		return "", domain.GenerationError(err)
	}
	html, err := llm.ExtractHTML(resp)
	if err != nil {
		return "", domain.GenerationError(err)
	}
	req.Messages = append(req.Messages, llm.TextMessage("assistant", resp.Text()))

	cb.status("Polishing...")
	return p.refineText(ctx, &req, html), nil
}

// refine tries the screenshot critique first and degrades to the text
// critique when either viewport capture fails. Any refine failure returns
// the pre-refine HTML.
func (p *Pipeline) refine(ctx context.Context, req *llm.Request, html string, cb Callbacks) string {
	desktop, mobile, ok := p.captureBoth(html)
	if !ok {
		observability.FallbacksTotal.WithLabelValues("refine").Inc()
		return p.refineText(ctx, req, html)
	}

	req.Messages = append(req.Messages, llm.Message{
		Role: "user",
		Content: []llm.ContentBlock{
			llm.ImageBlock(desktop),
			llm.ImageBlock(mobile),
			{Type: "text", Text: screenshotRefinePrompt},
		},
	})
	resp, err := p.runTurn(ctx, "refine", req)
	if err != nil {
		p.logger.Warn("refine turn failed, keeping unrefined output", zap.Error(err))
		return html
	}
	refined, err := llm.ExtractHTML(resp)
	if err != nil {
		p.logger.Warn("refine produced no document, keeping unrefined output", zap.Error(err))
		return html
	}
	return refined
}

// refineText is the screenshot-free critique: the HTML is pasted back in.
func (p *Pipeline) refineText(ctx context.Context, req *llm.Request, html string) string {
	req.Messages = append(req.Messages, llm.TextMessage("user", textRefinePrompt(html)))
	resp, err := p.runTurn(ctx, "refine", req)
	if err != nil {
		p.logger.Warn("text refine failed, keeping unrefined output", zap.Error(err))
		return html
	}
	refined, err := llm.ExtractHTML(resp)
	if err != nil {
		p.logger.Warn("text refine produced no document, keeping unrefined output", zap.Error(err))
		return html
	}
	return refined
}

func (p *Pipeline) captureBoth(html string) (desktop, mobile string, ok bool) {
	if p.capturer == nil {
		return "", "", false
	}
	desktop, err := p.capturer.Capture(html, screenshot.Desktop)
	if err != nil {
		p.logger.Warn("desktop screenshot failed", zap.Error(err))
		return "", "", false
	}
	mobile, err = p.capturer.Capture(html, screenshot.Mobile)
	if err != nil {
		p.logger.Warn("mobile screenshot failed", zap.Error(err))
		return "", "", false
	}
	return desktop, mobile, true
}

// runTurn issues one turn, reissuing while the model reports it has more to
// say. The partial answer goes back in as an assistant turn each round, and
// the container id threads the code-execution session through. The caller's
// req keeps the accumulated conversation and container.
func (p *Pipeline) runTurn(ctx context.Context, purpose string, req *llm.Request) (*llm.Response, error) {
	resp, err := p.client.Messages(ctx, purpose, *req)
	if err != nil {
		return nil, err
	}
	p.adoptContainer(req, resp)

	combined := *resp
	for round := 0; combined.Truncated() && round < p.maxContinuations; round++ {
		observability.ClaudeContinuations.Inc()
		p.logger.Debug("continuing truncated turn",
			zap.String("purpose", purpose),
			zap.Int("round", round+1),
			zap.String("stop_reason", combined.StopReason),
		)

		cont := *req
		cont.Messages = append(append([]llm.Message(nil), req.Messages...),
			llm.TextMessage("assistant", combined.Text()))

		next, err := p.client.Messages(ctx, purpose, cont)
		if err != nil {
			// Keep what was produced so far.
			p.logger.Warn("continuation failed, using partial output", zap.Error(err))
			break
		}
		p.adoptContainer(req, next)
		combined.Content = append(combined.Content, next.Content...)
		combined.StopReason = next.StopReason
	}
	return &combined, nil
}

// runStreamTurn is runTurn over the streaming endpoint.
func (p *Pipeline) runStreamTurn(ctx context.Context, purpose string, req *llm.Request, onDelta func(string)) (*llm.Response, error) {
	resp, err := p.client.MessagesStream(ctx, purpose, *req, onDelta)
	if err != nil {
		return nil, err
	}

	combined := *resp
	for round := 0; combined.Truncated() && round < p.maxContinuations; round++ {
		observability.ClaudeContinuations.Inc()

		cont := *req
		cont.Messages = append(append([]llm.Message(nil), req.Messages...),
			llm.TextMessage("assistant", combined.Text()))

		next, err := p.client.MessagesStream(ctx, purpose, cont, onDelta)
		if err != nil {
			p.logger.Warn("continuation failed, using partial output", zap.Error(err))
			break
		}
		combined.Content = append(combined.Content, next.Content...)
		combined.StopReason = next.StopReason
	}
	return &combined, nil
}

func (p *Pipeline) adoptContainer(req *llm.Request, resp *llm.Response) {
	if id := resp.ContainerID(); id != "" {
		req.Container = id
	}
}
