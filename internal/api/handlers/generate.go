package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/pipeline"
	"github.com/tradiesite/tradiesite/internal/registry"
	"github.com/tradiesite/tradiesite/pkg/httputil"
)

// generateRequest is the wire shape of a generation request.
type generateRequest struct {
	BusinessInfo     domain.BusinessInfo          `json:"businessInfo"`
	DesignTokens     domain.ExtractedDesignTokens `json:"designTokens"`
	ExtractedContent *domain.ExtractedContent     `json:"extractedContent,omitempty"`
}

// GenerateHandler serves POST /api/generate as a server-sent event stream.
type GenerateHandler struct {
	pipeline *pipeline.Pipeline
	store    registry.Store
	validate *validator.Validate
	logger   *zap.Logger
}

// NewGenerateHandler creates the handler.
func NewGenerateHandler(p *pipeline.Pipeline, store registry.Store, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		pipeline: p,
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// sseWriter frames one JSON event per SSE message and flushes immediately.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseWriter{w: w, flusher: flusher}, true
}

func (s *sseWriter) send(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

// Generate validates the input, runs the pipeline and streams progress as
// chunk/status events, terminated by complete or error.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.validateRequest(req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	stream, ok := newSSEWriter(w)
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	html, err := h.pipeline.Generate(r.Context(), req.BusinessInfo, req.DesignTokens, req.ExtractedContent, pipeline.Callbacks{
		OnChunk: func(text string) {
			stream.send(map[string]string{"type": "chunk", "text": text})
		},
		OnStatus: func(message string) {
			stream.send(map[string]string{"type": "status", "message": message})
		},
	})
	if err != nil {
		h.logger.Error("generation failed", zap.Error(err))
		stream.send(map[string]string{
			"type":  "error",
			"error": "Something went wrong building your website. Please try again.",
		})
		return
	}

	site := &domain.GeneratedSite{
		ID:           domain.NewSiteID(),
		HTML:         html,
		BusinessInfo: req.BusinessInfo,
		DesignTokens: req.DesignTokens,
		CreatedAt:    time.Now(),
		Status:       domain.StatusPreview,
	}
	if err := h.store.Save(r.Context(), site); err != nil {
		h.logger.Error("saving site failed", zap.Error(err))
		stream.send(map[string]string{
			"type":  "error",
			"error": "Something went wrong building your website. Please try again.",
		})
		return
	}

	stream.send(map[string]string{
		"type":       "complete",
		"siteId":     site.ID,
		"previewUrl": "/api/preview/" + site.ID,
	})
}

func (h *GenerateHandler) validateRequest(req generateRequest) error {
	if err := h.validate.Struct(req.BusinessInfo); err != nil {
		return domain.ValidationError("Please fill in all required business details")
	}
	if !req.BusinessInfo.TradeType.Valid() {
		return domain.ValidationError("Unknown trade type")
	}
	return nil
}
