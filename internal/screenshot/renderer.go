// Package screenshot renders generated HTML in a headless browser and
// captures viewport screenshots for the refinement pass. Every failure here
// is soft: the caller degrades to text-only refinement.
package screenshot

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/observability"
)

// Viewport is a fixed capture size.
type Viewport struct {
	Name   string
	Width  int
	Height int
}

// The two viewports the refine pass inspects.
var (
	Desktop = Viewport{Name: "desktop", Width: 1280, Height: 900}
	Mobile  = Viewport{Name: "mobile", Width: 375, Height: 812}
)

// Renderer captures screenshots of in-memory HTML. The browser starts
// lazily on first capture; a machine without playwright drivers fails the
// first capture and the pipeline carries on without screenshots.
type Renderer struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *zap.Logger
}

// NewRenderer creates a renderer. No browser is launched yet.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// ensureBrowser launches chromium on first use.
func (r *Renderer) ensureBrowser() (playwright.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil && r.browser.IsConnected() {
		return r.browser, nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	r.pw = pw
	r.browser = browser
	return browser, nil
}

// Capture renders the HTML at the given viewport and returns the PNG as
// base64. Any error means no screenshot; the caller decides how to degrade.
func (r *Renderer) Capture(html string, vp Viewport) (string, error) {
	browser, err := r.ensureBrowser()
	if err != nil {
		observability.ScreenshotsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: vp.Width, Height: vp.Height},
	})
	if err != nil {
		observability.ScreenshotsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("creating browser context: %w", err)
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		observability.ScreenshotsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("creating page: %w", err)
	}

	if err := page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(15000),
	}); err != nil {
		observability.ScreenshotsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("setting page content: %w", err)
	}

	data, err := page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		observability.ScreenshotsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}

	observability.ScreenshotsTotal.WithLabelValues("success").Inc()
	r.logger.Debug("screenshot captured",
		zap.String("viewport", vp.Name),
		zap.Int("bytes", len(data)),
	)
	return base64.StdEncoding.EncodeToString(data), nil
}

// Close shuts the browser down.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		r.browser.Close()
		r.browser = nil
	}
	if r.pw != nil {
		r.pw.Stop()
		r.pw = nil
	}
}
