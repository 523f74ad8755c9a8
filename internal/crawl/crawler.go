// Package crawl fetches a seed page and a bounded set of prioritized
// same-origin sub-pages, feeding the extractor.
package crawl

import (
	"context"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/extract"
	"github.com/tradiesite/tradiesite/internal/observability"
)

// maxBodyBytes bounds how much of any fetched page is read.
const maxBodyBytes = 2 << 20

// Page is one fetched page of a crawl.
type Page struct {
	URL  string
	HTML string
}

// SiteSnapshot aggregates everything a crawl produced.
type SiteSnapshot struct {
	SeedURL  string
	SeedHTML string
	SubPages []Page
	Images   []domain.ExtractedImage
}

// Pages returns the seed page followed by the fetched sub-pages.
func (s *SiteSnapshot) Pages() []Page {
	pages := make([]Page, 0, len(s.SubPages)+1)
	pages = append(pages, Page{URL: s.SeedURL, HTML: s.SeedHTML})
	return append(pages, s.SubPages...)
}

// Crawler fetches pages with bounded fanout. Fetch failures are soft: a page
// that cannot be retrieved yields nothing rather than failing the crawl.
type Crawler struct {
	client    *http.Client
	userAgent string
	maxPages  int
	maxImages int
	logger    *zap.Logger
}

// New creates a crawler from configuration.
func New(cfg config.CrawlerConfig, logger *zap.Logger) *Crawler {
	return &Crawler{
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		userAgent: cfg.UserAgent,
		maxPages:  cfg.MaxSubPages,
		maxImages: cfg.MaxImages,
		logger:    logger,
	}
}

// FetchPage retrieves one page and returns its markup, or "" on any fetch
// error or non-2xx status. The caller proceeds with whatever it has.
func (c *Crawler) FetchPage(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("page fetch non-2xx", zap.String("url", pageURL), zap.Int("status", resp.StatusCode))
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ""
	}
	observability.CrawlPagesFetched.Inc()
	return string(body)
}

// Crawl fetches the seed page, discovers and prioritizes its internal links,
// fetches up to maxPages of them concurrently and merges extracted images
// across every page that succeeded. A nil snapshot means the seed itself was
// unreachable.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) *SiteSnapshot {
	seedHTML := c.FetchPage(ctx, seedURL)
	if seedHTML == "" {
		return nil
	}

	snap := &SiteSnapshot{SeedURL: seedURL, SeedHTML: seedHTML}

	links := Prioritize(DiscoverLinks(seedHTML, seedURL), c.maxPages)

	pages := make([]Page, len(links))
	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		go func(i int, link string) {
			defer wg.Done()
			if html := c.FetchPage(ctx, link); html != "" {
				pages[i] = Page{URL: link, HTML: html}
			}
		}(i, link)
	}
	wg.Wait()

	for _, p := range pages {
		if p.HTML != "" {
			snap.SubPages = append(snap.SubPages, p)
		}
	}

	imageLists := make([][]domain.ExtractedImage, 0, len(snap.SubPages)+1)
	imageLists = append(imageLists, extract.Images(seedHTML, seedURL, c.maxImages))
	for _, p := range snap.SubPages {
		imageLists = append(imageLists, extract.Images(p.HTML, p.URL, c.maxImages))
	}
	snap.Images = extract.MergeImages(c.maxImages, imageLists...)

	c.logger.Info("crawl complete",
		zap.String("seed", seedURL),
		zap.Int("sub_pages", len(snap.SubPages)),
		zap.Int("images", len(snap.Images)),
	)
	return snap
}
