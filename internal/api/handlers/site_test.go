package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/deploy"
	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/registry"
)

func siteRouter(store registry.Store, requirePayment bool) chi.Router {
	deployer := deploy.New(config.DeployConfig{Timeout: 5 * time.Second}, zap.NewNop())
	h := NewSiteHandler(store, deployer, requirePayment, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/api/preview/{siteId}", h.Preview)
	r.Post("/api/checkout", h.Checkout)
	r.Post("/api/deploy", h.Deploy)
	return r
}

func storedSite(t *testing.T, store registry.Store, status domain.SiteStatus) *domain.GeneratedSite {
	t.Helper()
	site := &domain.GeneratedSite{
		ID:           "site-known-abc123",
		HTML:         "<!DOCTYPE html><html><body>Smith Plumbing</body></html>",
		BusinessInfo: domain.BusinessInfo{BusinessName: "Smith Plumbing"},
		CreatedAt:    time.Now(),
		Status:       status,
	}
	if err := store.Save(context.Background(), site); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return site
}

func TestPreviewServesStoredHTML(t *testing.T) {
	store := registry.NewMemoryStore(7 * 24 * time.Hour)
	site := storedSite(t, store, domain.StatusPreview)
	router := siteRouter(store, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preview/"+site.ID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != site.HTML {
		t.Error("HTML should be served verbatim")
	}
	if rec.Header().Get("X-Frame-Options") != "SAMEORIGIN" {
		t.Error("missing X-Frame-Options header")
	}
}

func TestPreviewUnknownID(t *testing.T) {
	store := registry.NewMemoryStore(7 * 24 * time.Hour)
	router := siteRouter(store, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preview/unknown-id", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Preview Not Found") {
		t.Error("404 page should contain the literal text \"Preview Not Found\"")
	}
	if rec.Header().Get("X-Frame-Options") != "SAMEORIGIN" {
		t.Error("missing X-Frame-Options header on 404 page")
	}
}

func TestCheckoutMarksPaid(t *testing.T) {
	store := registry.NewMemoryStore(7 * 24 * time.Hour)
	site := storedSite(t, store, domain.StatusPreview)
	router := siteRouter(store, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checkout",
		strings.NewReader(`{"siteId":"`+site.ID+`"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got, _ := store.Get(context.Background(), site.ID)
	if got.Status != domain.StatusPaid {
		t.Errorf("status = %q, want paid", got.Status)
	}
}

func TestCheckoutUnknownSite(t *testing.T) {
	store := registry.NewMemoryStore(7 * 24 * time.Hour)
	router := siteRouter(store, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checkout",
		strings.NewReader(`{"siteId":"site-ghost"}`)))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeployPaymentGate(t *testing.T) {
	store := registry.NewMemoryStore(7 * 24 * time.Hour)
	site := storedSite(t, store, domain.StatusPreview)
	router := siteRouter(store, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/deploy",
		strings.NewReader(`{"siteId":"`+site.ID+`"}`)))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for unpaid site", rec.Code)
	}
}

func TestDeployGateBypassedWhenNotRequired(t *testing.T) {
	store := registry.NewMemoryStore(7 * 24 * time.Hour)
	site := storedSite(t, store, domain.StatusPreview)
	router := siteRouter(store, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/deploy",
		strings.NewReader(`{"siteId":"`+site.ID+`"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	// No hosting token in the test config: the placeholder URL comes back
	// and the site still advances to deployed.
	if !strings.Contains(rec.Body.String(), "smith-plumbing.vercel.app") {
		t.Errorf("body = %s", rec.Body.String())
	}
	got, _ := store.Get(context.Background(), site.ID)
	if got.Status != domain.StatusDeployed {
		t.Errorf("status = %q, want deployed", got.Status)
	}
}

func TestDeployPaidSitePassesGate(t *testing.T) {
	store := registry.NewMemoryStore(7 * 24 * time.Hour)
	site := storedSite(t, store, domain.StatusPaid)
	router := siteRouter(store, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/deploy",
		strings.NewReader(`{"siteId":"`+site.ID+`"}`)))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d: %s", rec.Code, rec.Body.String())
	}
}
