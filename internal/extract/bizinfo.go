package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tradiesite/tradiesite/internal/domain"
)

var (
	titleSuffix = regexp.MustCompile(`(?i)\s*[-|–]\s*(Home|Welcome|Official).*$`)

	// nzPhonePattern matches NZ landline, mobile and 0800 numbers with an
	// optional +64 prefix.
	nzPhonePattern = regexp.MustCompile(`(?:\+?64|0)[- ]?(?:2[0-9]|[3-9])[- ]?\d{3}[- ]?\d{4}|\b0800[- ]?\d{3}[- ]?\d{3}\b`)

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// nzCities is a small gazetteer checked by substring match for a location.
var nzCities = []string{
	"Auckland", "Wellington", "Christchurch", "Hamilton", "Tauranga",
	"Dunedin", "Napier", "Hastings", "Palmerston North", "Nelson",
	"Rotorua", "New Plymouth", "Whangarei", "Invercargill", "Whanganui",
	"Gisborne", "Blenheim", "Timaru", "Taupo", "Queenstown",
}

// BusinessInfo scrapes partial business facts out of raw markup. Every field
// is best-effort; absent signals leave the zero value. This is the fallback
// tier behind the remote-model content synthesis.
func BusinessInfo(html string) domain.BusinessInfo {
	var info domain.BusinessInfo

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	if docErr == nil {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		title = strings.TrimSpace(titleSuffix.ReplaceAllString(title, ""))
		if len(title) > 2 && len(title) < 80 {
			info.BusinessName = title
		}

		if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
			info.AboutText = strings.TrimSpace(desc)
		}
	}

	if phone := nzPhonePattern.FindString(html); phone != "" {
		info.Phone = strings.TrimSpace(phone)
	}
	if email := emailPattern.FindString(html); email != "" {
		info.Email = email
	}
	for _, city := range nzCities {
		if strings.Contains(html, city) {
			info.Location = city
			break
		}
	}

	return info
}
