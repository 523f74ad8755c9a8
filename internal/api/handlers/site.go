package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/deploy"
	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/registry"
	"github.com/tradiesite/tradiesite/pkg/httputil"
)

// notFoundPage is served when a preview id is unknown or expired.
const notFoundPage = `<!DOCTYPE html>
<html lang="en-NZ">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Preview Not Found</title>
  <style>
    body { font-family: 'Outfit', system-ui, sans-serif; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; background: #FAF8F5; color: #2A2A2A; }
    .container { text-align: center; padding: 2rem; }
    h1 { font-family: 'DM Serif Display', serif; font-size: 2rem; margin-bottom: 0.5rem; }
    p { color: #6B6560; }
  </style>
</head>
<body>
  <div class="container">
    <h1>Preview Not Found</h1>
    <p>This preview may have expired. Head back and generate a new one.</p>
  </div>
</body>
</html>`

// SiteHandler serves preview, checkout and deploy for stored sites.
type SiteHandler struct {
	store          registry.Store
	deployer       *deploy.Deployer
	requirePayment bool
	logger         *zap.Logger
}

// NewSiteHandler creates the handler.
func NewSiteHandler(store registry.Store, deployer *deploy.Deployer, requirePayment bool, logger *zap.Logger) *SiteHandler {
	return &SiteHandler{
		store:          store,
		deployer:       deployer,
		requirePayment: requirePayment,
		logger:         logger,
	}
}

type siteRequest struct {
	SiteID string `json:"siteId"`
}

// Preview serves the stored HTML verbatim, or the fixed 404 page. Both are
// framed same-origin only.
func (h *SiteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteId")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")

	site, err := h.store.Get(r.Context(), siteID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(notFoundPage))
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(site.HTML))
}

// Checkout marks the site paid. Payment capture is a stub: no real provider
// is connected.
// TODO: connect a real payment provider (Stripe or similar).
func (h *SiteHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if req.SiteID == "" {
		httputil.Error(w, http.StatusBadRequest, "siteId is required")
		return
	}

	if _, err := h.store.Get(r.Context(), req.SiteID); err != nil {
		httputil.Error(w, http.StatusNotFound, "Website not found. Please try generating it again.")
		return
	}

	if err := h.store.UpdateStatus(r.Context(), req.SiteID, domain.StatusPaid, ""); err != nil {
		h.logger.Error("checkout status update failed", zap.Error(err))
		httputil.Error(w, http.StatusInternalServerError, "Something went wrong with the checkout. Please try again.")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"siteId":  req.SiteID,
		"message": "Payment successful! Your website is being deployed.",
	})
}

// Deploy publishes the stored site. The paid-status gate applies only when
// payment is required by configuration.
func (h *SiteHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if req.SiteID == "" {
		httputil.Error(w, http.StatusBadRequest, "siteId is required")
		return
	}

	site, err := h.store.Get(r.Context(), req.SiteID)
	if errors.Is(err, registry.ErrNotFound) {
		httputil.Error(w, http.StatusNotFound, "Website not found. Please try generating it again.")
		return
	}
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "Something went wrong deploying your website. Please try again.")
		return
	}

	if h.requirePayment && site.Status == domain.StatusPreview {
		httputil.Error(w, http.StatusForbidden, "Payment required before deployment.")
		return
	}

	deployedURL, err := h.deployer.Deploy(r.Context(), site)
	if err != nil {
		h.logger.Error("deploy failed", zap.String("site_id", site.ID), zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	if err := h.store.UpdateStatus(r.Context(), site.ID, domain.StatusDeployed, deployedURL); err != nil {
		h.logger.Error("deploy status update failed", zap.Error(err))
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"deployedUrl": deployedURL})
}
