// Package api wires the HTTP surface together.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/analyze"
	"github.com/tradiesite/tradiesite/internal/api/handlers"
	"github.com/tradiesite/tradiesite/internal/api/middleware"
	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/crawl"
	"github.com/tradiesite/tradiesite/internal/deploy"
	"github.com/tradiesite/tradiesite/internal/observability"
	"github.com/tradiesite/tradiesite/internal/pipeline"
	"github.com/tradiesite/tradiesite/internal/registry"
	"github.com/tradiesite/tradiesite/internal/synth"
	"github.com/tradiesite/tradiesite/pkg/httputil"
)

// RouterConfig carries every dependency the routes need.
type RouterConfig struct {
	Config      *config.Config
	Crawler     *crawl.Crawler
	Analyzer    *analyze.Analyzer
	Synthesizer *synth.Synthesizer
	Pipeline    *pipeline.Pipeline
	Store       registry.Store
	Deployer    *deploy.Deployer
	Logger      *zap.Logger
}

// NewRouter builds the chi router with the full middleware stack and routes.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Handler)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	analyzeHandler := handlers.NewAnalyzeHandler(cfg.Crawler, cfg.Analyzer, cfg.Config.Crawler, cfg.Logger)
	extractHandler := handlers.NewExtractHandler(cfg.Crawler, cfg.Synthesizer, cfg.Config.Crawler, cfg.Logger)
	generateHandler := handlers.NewGenerateHandler(cfg.Pipeline, cfg.Store, cfg.Logger)
	siteHandler := handlers.NewSiteHandler(cfg.Store, cfg.Deployer, cfg.Config.Deploy.RequirePayment, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", analyzeHandler.Analyze)
		r.Post("/extract", extractHandler.Extract)
		r.Post("/generate", generateHandler.Generate)
		r.Get("/preview/{siteId}", siteHandler.Preview)
		r.Post("/checkout", siteHandler.Checkout)
		r.Post("/deploy", siteHandler.Deploy)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
