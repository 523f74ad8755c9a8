package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/crawl"
	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/synth"
	"github.com/tradiesite/tradiesite/pkg/httputil"
)

const unreachableNote = "We couldn't reach that website, but no worries — just fill in your details below."

// extractResponse is the wire shape of a content extraction. An unreachable
// target still answers 200 with empty fields and a note, so the caller's
// form proceeds unprefilled.
type extractResponse struct {
	BusinessInfo domain.BusinessInfo     `json:"businessInfo"`
	Images       []domain.ExtractedImage `json:"images"`
	RawText      string                  `json:"rawText"`
	Services     []string                `json:"services"`
	Testimonials []domain.Testimonial    `json:"testimonials"`
	SocialLinks  []domain.SocialLink     `json:"socialLinks"`
	Note         string                  `json:"note,omitempty"`
}

// ExtractHandler serves POST /api/extract.
type ExtractHandler struct {
	crawler     *crawl.Crawler
	synthesizer *synth.Synthesizer
	cfg         config.CrawlerConfig
	logger      *zap.Logger
}

// NewExtractHandler creates the handler.
func NewExtractHandler(crawler *crawl.Crawler, synthesizer *synth.Synthesizer, cfg config.CrawlerConfig, logger *zap.Logger) *ExtractHandler {
	return &ExtractHandler{crawler: crawler, synthesizer: synthesizer, cfg: cfg, logger: logger}
}

// Extract crawls the business's existing site and returns the structured
// content. Only a malformed request body or URL errors; everything past
// validation degrades instead of failing.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	target, ok := validateURL(req.URL)
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "Please enter a valid website address")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.OverallBudget)
	defer cancel()

	snap := h.crawler.Crawl(ctx, target)
	if snap == nil {
		httputil.JSON(w, http.StatusOK, extractResponse{
			Images:       []domain.ExtractedImage{},
			Services:     []string{},
			Testimonials: []domain.Testimonial{},
			SocialLinks:  []domain.SocialLink{},
			Note:         unreachableNote,
		})
		return
	}

	synthCtx, cancelSynth := context.WithTimeout(r.Context(), h.cfg.ExtractTimeout)
	defer cancelSynth()

	content := h.synthesizer.Resolve(synthCtx, snap)
	httputil.JSON(w, http.StatusOK, extractResponse{
		BusinessInfo: content.BusinessInfo,
		Images:       content.Images,
		RawText:      content.RawText,
		Services:     content.Services,
		Testimonials: content.Testimonials,
		SocialLinks:  content.SocialLinks,
	})
}
