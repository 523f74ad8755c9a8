// Command sitegen generates a tradie website from the terminal, without the
// HTTP server: optionally crawl an existing site for design and content, then
// run the generation pipeline and write the HTML to a file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/analyze"
	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/crawl"
	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/extract"
	"github.com/tradiesite/tradiesite/internal/llm"
	"github.com/tradiesite/tradiesite/internal/pipeline"
	"github.com/tradiesite/tradiesite/internal/screenshot"
	"github.com/tradiesite/tradiesite/internal/synth"
)

var (
	green = color.New(color.FgGreen, color.Bold)
	red   = color.New(color.FgRed, color.Bold)
	cyan  = color.New(color.FgCyan, color.Bold)
	bold  = color.New(color.Bold)
	dim   = color.New(color.Faint)
)

func main() {
	godotenv.Load()

	// Flags
	siteURL := flag.String("url", "", "Existing website to crawl for design and content (optional)")
	name := flag.String("name", "", "Business name (required)")
	trade := flag.String("trade", "builder", "Trade type (plumber, electrician, builder, ...)")
	location := flag.String("location", "", "Town or suburb (required)")
	region := flag.String("region", "", "Region (defaults to location)")
	phone := flag.String("phone", "", "Contact phone")
	email := flag.String("email", "", "Contact email")
	services := flag.String("services", "", "Comma-separated list of services")
	about := flag.String("about", "", "Short blurb about the business")
	style := flag.String("style", "", "Visual style override (minimal, bold, warm, dark, corporate, rustic)")
	output := flag.String("output", "site.html", "Output file")
	screenshots := flag.Bool("screenshots", false, "Render screenshots for the refinement pass (needs Playwright)")
	verbose := flag.Bool("verbose", false, "Verbose output")

	flag.Parse()

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		red.Println("ANTHROPIC_API_KEY not set")
		fmt.Println("   Add it to a .env file or export it")
		os.Exit(1)
	}
	if *name == "" || *location == "" {
		red.Println("-name and -location are required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		red.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	var logger *zap.Logger
	if *verbose {
		logger, _ = zap.NewDevelopment()
	} else {
		zapCfg := zap.NewProductionConfig()
		zapCfg.OutputPaths = []string{"/dev/null"}
		logger, _ = zapCfg.Build()
	}
	defer logger.Sync()

	client, err := llm.NewClient(cfg.Claude, logger)
	if err != nil {
		red.Printf("Failed to create model client: %v\n", err)
		os.Exit(1)
	}

	bold.Println("\n  sitegen — tradie website generator")
	dim.Printf("  model: %s\n\n", cfg.Claude.Model)

	ctx := context.Background()
	start := time.Now()

	tradeType := domain.TradeType(strings.ToLower(*trade))
	if !tradeType.Valid() {
		red.Printf("Unknown trade type %q\n", *trade)
		os.Exit(1)
	}

	info := domain.BusinessInfo{
		BusinessName: *name,
		TradeType:    tradeType,
		Location:     *location,
		Region:       *region,
		Phone:        *phone,
		Email:        *email,
		AboutText:    *about,
	}
	if info.Region == "" {
		info.Region = info.Location
	}
	for _, s := range strings.Split(*services, ",") {
		if s = strings.TrimSpace(s); s != "" {
			info.Services = append(info.Services, s)
		}
	}

	tokens := defaultTokens()
	var content *domain.ExtractedContent

	// Crawl phase, only when an existing site was given.
	if *siteURL != "" {
		cyan.Printf("  Crawling %s\n", *siteURL)
		bar := spinner("   Fetching pages...")

		crawler := crawl.New(cfg.Crawler, logger)
		crawlCtx, cancel := context.WithTimeout(ctx, cfg.Crawler.OverallBudget)
		snap := crawler.Crawl(crawlCtx, *siteURL)
		cancel()
		bar.Finish()
		fmt.Println()

		if snap == nil {
			dim.Println("   site unreachable, continuing with flags only")
		} else {
			bar = spinner("   Analyzing design...")
			tokens = analyze.New(client, logger).ResolveTokens(ctx, snap.SeedHTML)
			bar.Finish()
			fmt.Println()

			bar = spinner("   Extracting content...")
			extracted := synth.New(client, logger).Resolve(ctx, snap)
			bar.Finish()
			fmt.Println()

			content = &extracted
			mergeExtracted(&info, extracted)
			green.Printf("   pages: %d  images: %d  style: %s\n\n",
				1+len(snap.SubPages), len(snap.Images), tokens.Style)
		}
	}

	if *style != "" {
		tokens.Style = domain.Style(*style)
		if !tokens.Style.Valid() {
			red.Printf("Unknown style %q\n", *style)
			os.Exit(1)
		}
	}

	var capturer pipeline.Capturer
	if *screenshots {
		renderer := screenshot.NewRenderer(logger)
		defer renderer.Close()
		capturer = renderer
	}

	// Generate phase.
	cyan.Printf("  Generating website for %s\n", info.BusinessName)
	bar := spinner("   Working...")
	p := pipeline.New(client, capturer, cfg.Claude, logger)
	html, err := p.Generate(ctx, info, tokens, content, pipeline.Callbacks{
		OnStatus: func(msg string) { bar.Describe("   " + msg) },
		OnChunk:  func(string) { bar.Add(1) },
	})
	bar.Finish()
	fmt.Println()
	if err != nil {
		red.Printf("  Generation failed: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, []byte(html), 0o644); err != nil {
		red.Printf("  Failed to write %s: %v\n", *output, err)
		os.Exit(1)
	}

	green.Printf("\n  Done in %s\n", time.Since(start).Round(time.Second))
	bold.Printf("  %s (%d KB)\n\n", *output, len(html)/1024)
}

// mergeExtracted fills the gaps flags left open; flags always win.
func mergeExtracted(info *domain.BusinessInfo, content domain.ExtractedContent) {
	bi := content.BusinessInfo
	if info.Phone == "" {
		info.Phone = bi.Phone
	}
	if info.Email == "" {
		info.Email = bi.Email
	}
	if info.AboutText == "" {
		info.AboutText = bi.AboutText
	}
	if len(info.Services) == 0 {
		info.Services = content.Services
	}
}

func defaultTokens() domain.ExtractedDesignTokens {
	return domain.ExtractedDesignTokens{
		Colors:         extract.DefaultPalette,
		Fonts:          domain.FontPair{Heading: extract.DefaultFonts.Heading, Body: extract.DefaultFonts.Body},
		Style:          domain.StyleMinimal,
		LayoutPatterns: append([]string(nil), extract.DefaultLayoutPatterns...),
	}
}

func spinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(40),
	)
}
