// Package observability exposes the Prometheus metrics the service records.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradiesite"

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
	HTTPRequestsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_active",
			Help:      "Number of active HTTP requests",
		},
	)

	// Generation metrics
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of website generations",
		},
		[]string{"mode", "status"}, // mode: skill, fallback
	)
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end website generation duration in seconds",
			Buckets:   []float64{10, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of degraded-path activations",
		},
		[]string{"stage"}, // stage: analysis, synthesis, generation, refine
	)

	// Crawl metrics
	CrawlPagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_pages_fetched_total",
			Help:      "Total number of pages fetched by the crawler",
		},
	)

	// Claude API metrics
	ClaudeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claude_requests_total",
			Help:      "Total number of Claude API requests",
		},
		[]string{"purpose", "status"},
	)
	ClaudeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "claude_request_duration_seconds",
			Help:      "Claude API request duration in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"purpose"},
	)
	ClaudeTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claude_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"type"}, // type: input, output
	)
	ClaudeContinuations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claude_continuations_total",
			Help:      "Total number of continuation rounds issued for truncated responses",
		},
	)

	// Screenshot metrics
	ScreenshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenshots_total",
			Help:      "Total number of preview screenshot captures",
		},
		[]string{"status"},
	)

	// Deployment metrics
	DeploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deployments_total",
			Help:      "Total number of deployment attempts",
		},
		[]string{"status"},
	)

	// Registry metrics
	SitesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sites_stored",
			Help:      "Number of sites currently held by the registry",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records request count and latency for one served request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordClaudeRequest records count, latency and token usage for one API call.
func RecordClaudeRequest(purpose, status string, duration time.Duration, inputTokens, outputTokens int) {
	ClaudeRequestsTotal.WithLabelValues(purpose, status).Inc()
	ClaudeRequestDuration.WithLabelValues(purpose).Observe(duration.Seconds())
	ClaudeTokensUsed.WithLabelValues("input").Add(float64(inputTokens))
	ClaudeTokensUsed.WithLabelValues("output").Add(float64(outputTokens))
}

// RecordGeneration records the outcome of one full pipeline run.
func RecordGeneration(mode, status string, duration time.Duration) {
	GenerationsTotal.WithLabelValues(mode, status).Inc()
	GenerationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}
