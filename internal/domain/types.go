package domain

import (
	"time"
)

// TradeType identifies the kind of trade business a site is built for.
type TradeType string

const (
	TradeBuilder     TradeType = "builder"
	TradeElectrician TradeType = "electrician"
	TradePlumber     TradeType = "plumber"
	TradeDrainlayer  TradeType = "drainlayer"
	TradePainter     TradeType = "painter"
	TradeRoofer      TradeType = "roofer"
	TradeLandscaper  TradeType = "landscaper"
	TradeConcrete    TradeType = "concrete"
	TradeFencer      TradeType = "fencer"
	TradeTiler       TradeType = "tiler"
	TradeGasfitter   TradeType = "gasfitter"
	TradePlasterer   TradeType = "plasterer"
	TradeDemolition  TradeType = "demolition"
	TradeEarthworks  TradeType = "earthworks"
	TradeOther       TradeType = "other"
)

// TradeTypes lists every supported trade.
var TradeTypes = []TradeType{
	TradeBuilder, TradeElectrician, TradePlumber, TradeDrainlayer,
	TradePainter, TradeRoofer, TradeLandscaper, TradeConcrete,
	TradeFencer, TradeTiler, TradeGasfitter, TradePlasterer,
	TradeDemolition, TradeEarthworks, TradeOther,
}

// Valid reports whether t is a known trade type.
func (t TradeType) Valid() bool {
	for _, known := range TradeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BusinessInfo holds the facts a tradie supplies about their business.
// It is immutable once submitted to generation; regeneration appends user
// feedback to AboutText and resubmits.
type BusinessInfo struct {
	BusinessName    string    `json:"businessName" validate:"required"`
	TradeType       TradeType `json:"tradeType" validate:"required"`
	Location        string    `json:"location" validate:"required"`
	Region          string    `json:"region" validate:"required"`
	Phone           string    `json:"phone" validate:"required"`
	Email           string    `json:"email" validate:"required,email"`
	Services        []string  `json:"services" validate:"required,min=1"`
	AboutText       string    `json:"aboutText" validate:"required"`
	Tagline         string    `json:"tagline,omitempty"`
	YearsExperience int       `json:"yearsExperience,omitempty"`
}

// Style classifies the overall aesthetic of a reference site.
type Style string

const (
	StyleMinimal   Style = "minimal"
	StyleBold      Style = "bold"
	StyleWarm      Style = "warm"
	StyleDark      Style = "dark"
	StyleCorporate Style = "corporate"
	StyleRustic    Style = "rustic"
)

// Styles lists the fixed style vocabulary.
var Styles = []Style{StyleMinimal, StyleBold, StyleWarm, StyleDark, StyleCorporate, StyleRustic}

// Valid reports whether s is one of the six known styles.
func (s Style) Valid() bool {
	for _, known := range Styles {
		if s == known {
			return true
		}
	}
	return false
}

// ColorPalette names the five colors a generated site is built around.
type ColorPalette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// FontPair holds heading and body font family names.
type FontPair struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// ExtractedDesignTokens is the structured design record derived from a
// reference website, consumed read-only by the generation pipeline.
type ExtractedDesignTokens struct {
	Colors         ColorPalette `json:"colors"`
	Fonts          FontPair     `json:"fonts"`
	Style          Style        `json:"style"`
	LayoutPatterns []string     `json:"layoutPatterns"`

	// DesignSystem is an optional long-form prose specification replayed
	// verbatim into the generation prompt as style guidance.
	DesignSystem string `json:"designSystem,omitempty"`
}

// ImageType classifies an extracted image by its likely role on the page.
type ImageType string

const (
	ImageLogo    ImageType = "logo"
	ImageHero    ImageType = "hero"
	ImageGallery ImageType = "gallery"
	ImageTeam    ImageType = "team"
	ImageProject ImageType = "project"
	ImageOther   ImageType = "other"
)

// ExtractedImage is an image discovered on a crawled page, with its src
// resolved to an absolute URL.
type ExtractedImage struct {
	Src  string    `json:"src"`
	Alt  string    `json:"alt"`
	Type ImageType `json:"type"`
}

// Testimonial is a customer quote scraped from an existing site.
type Testimonial struct {
	Quote    string `json:"quote"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// SocialLink points at a business's social media profile.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// Project is a past-work record scraped from an existing site.
type Project struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

// ExtractedContent is the structured business-fact record derived from a
// tradie's existing website. All fields are best-effort and may be empty.
type ExtractedContent struct {
	BusinessInfo BusinessInfo     `json:"businessInfo"`
	Images       []ExtractedImage `json:"images"`
	RawText      string           `json:"rawText"`
	Services     []string         `json:"services"`
	Testimonials []Testimonial    `json:"testimonials"`
	SocialLinks  []SocialLink     `json:"socialLinks"`
	LogoURL      string           `json:"logoUrl,omitempty"`
	HeroURL      string           `json:"heroUrl,omitempty"`
	Projects     []Project        `json:"projects,omitempty"`
	YearFounded  int              `json:"yearFounded,omitempty"`
}

// SiteStatus tracks a generated site through its lifecycle.
type SiteStatus string

const (
	StatusPreview  SiteStatus = "preview"
	StatusPaid     SiteStatus = "paid"
	StatusDeployed SiteStatus = "deployed"
)

// rank orders statuses along the forward-only lifecycle.
func (s SiteStatus) rank() int {
	switch s {
	case StatusPreview:
		return 0
	case StatusPaid:
		return 1
	case StatusDeployed:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Status only moves forward: preview -> paid -> deployed.
func (s SiteStatus) CanTransitionTo(next SiteStatus) bool {
	return next.rank() > s.rank() && s.rank() >= 0
}

// GeneratedSite is the persisted unit: the HTML document plus the inputs
// that produced it. Entries expire after the registry's retention window.
type GeneratedSite struct {
	ID           string                `json:"id"`
	HTML         string                `json:"html"`
	BusinessInfo BusinessInfo          `json:"businessInfo"`
	DesignTokens ExtractedDesignTokens `json:"designTokens"`
	CreatedAt    time.Time             `json:"createdAt"`
	Status       SiteStatus            `json:"status"`
	DeployedURL  string                `json:"deployedUrl,omitempty"`
}
