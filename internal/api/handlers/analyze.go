// Package handlers implements the HTTP endpoints.
package handlers

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/analyze"
	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/crawl"
	"github.com/tradiesite/tradiesite/pkg/httputil"
)

type urlRequest struct {
	URL string `json:"url"`
}

// validateURL rejects anything that is not an absolute http(s) URL.
func validateURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// AnalyzeHandler serves POST /api/analyze.
type AnalyzeHandler struct {
	crawler  *crawl.Crawler
	analyzer *analyze.Analyzer
	timeout  config.CrawlerConfig
	logger   *zap.Logger
}

// NewAnalyzeHandler creates the handler.
func NewAnalyzeHandler(crawler *crawl.Crawler, analyzer *analyze.Analyzer, cfg config.CrawlerConfig, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{crawler: crawler, analyzer: analyzer, timeout: cfg, logger: logger}
}

// Analyze fetches the reference page and returns its design tokens. An
// invalid or unreachable URL is a 400; a model failure silently degrades to
// regex extraction.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout.FetchTimeout)
	defer cancel()

	html := h.crawler.FetchPage(ctx, target)
	if html == "" {
		httputil.Error(w, http.StatusBadRequest, "We couldn't reach that website. Please check the address and try again.")
		return
	}

	tokens := h.analyzer.ResolveTokens(r.Context(), html)
	httputil.JSON(w, http.StatusOK, tokens)
}
