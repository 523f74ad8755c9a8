package pipeline

import (
	"fmt"
	"strings"

	"github.com/tradiesite/tradiesite/internal/domain"
)

// systemPrompt carries the house style and hard constraints for every
// generation mode.
const systemPrompt = `You are a web designer specialising in trade and construction business websites for New Zealand tradies. Generate a complete, self-contained HTML file with inline CSS and minimal inline JavaScript.

REQUIREMENTS:
- Single HTML file, fully self-contained (no external dependencies except Google Fonts)
- Mobile-first responsive design
- Sections: Navigation, Hero, Services, About Us, Testimonials, Contact/Quote Form, Footer
- Use the provided colour palette and typography style
- NZ English spelling throughout (colour, specialise, organisation, etc.)
- Include placeholder testimonials relevant to the trade type only when no real testimonials are supplied
- Contact form with: Name, Phone, Email, Message, Submit button
- SEO: proper meta tags, Open Graph, LocalBusiness structured data
- Hero should feature a strong call to action: "Get a Free Quote"
- Business phone number prominently in header and footer
- Professional, trustworthy aesthetic appropriate for the trade
- All content should reference the specific location and region in New Zealand
- Smooth scroll navigation
- Scroll-reveal animations (CSS only, using @keyframes + IntersectionObserver)
- NO references to AI or any AI-related branding anywhere

ANTI-GENERIC CHECKLIST (every site must clear all of these):
- No default-looking bootstrap-style cards or evenly-spaced three-column grids everywhere
- Typography has real hierarchy: display sizes, weight contrast, tight headings
- Colour is used with depth: tints, shades and one deliberate accent moment
- At least one asymmetric layout section
- Hover and focus states on every interactive element
- Icons feel drawn for this site, not pasted from a generic set
- Content reads like a real local business wrote it, not lorem-flavoured filler

OUTPUT: Return ONLY the complete HTML. No markdown, no explanation, no code fences.`

const planInstruction = `Before you build anything, write a short creative brief for this specific business: the aesthetic direction in one or two sentences, the section order you will use, how you will map the palette onto the page, the typography pairing, and two or three key design moments that will make this site feel individually designed. Return the brief only; you will build the site in the next turn.`

const generateInstruction = `Execute your brief now. Emit the complete HTML document and nothing else.`

const skipBriefInstruction = `Skip the brief, go straight to building the complete HTML document.`

// refineChecklist is the fixed self-critique list for the polish turn.
const refineChecklist = `Compare the site against this checklist and fix every miss:
1. Typography hierarchy: clear display/heading/body scale, deliberate weights
2. Colour depth: tints and shades in use, not just the five flat swatches
3. Layout asymmetry: at least one section that is not a centred symmetric block
4. Motion and hover states: scroll reveals working, interactive elements respond
5. Icon uniqueness: icons consistent and specific to the trade
6. Mobile correctness: no overflow, readable sizes, tappable targets at 375px wide
7. Content substance: every section says something concrete about this business
8. Decorative detail: dividers, textures or accents that reward a second look

Return the corrected, complete HTML document. Output ONLY the HTML.`

// businessBlock renders the dynamic business facts.
func businessBlock(info domain.BusinessInfo) string {
	var b strings.Builder
	b.WriteString("BUSINESS DETAILS:\n")
	fmt.Fprintf(&b, "- Business Name: %s\n", info.BusinessName)
	fmt.Fprintf(&b, "- Trade Type: %s\n", info.TradeType)
	fmt.Fprintf(&b, "- Location: %s, %s\n", info.Location, info.Region)
	fmt.Fprintf(&b, "- Phone: %s\n", info.Phone)
	fmt.Fprintf(&b, "- Email: %s\n", info.Email)
	fmt.Fprintf(&b, "- Services: %s\n", strings.Join(info.Services, ", "))
	fmt.Fprintf(&b, "- About: %s\n", info.AboutText)
	if info.Tagline != "" {
		fmt.Fprintf(&b, "- Tagline: %s\n", info.Tagline)
	}
	if info.YearsExperience > 0 {
		fmt.Fprintf(&b, "- Years Experience: %d\n", info.YearsExperience)
	}
	return b.String()
}

// designBlock renders the design tokens, including the prose design system
// when the analyzer produced one.
func designBlock(tokens domain.ExtractedDesignTokens) string {
	var b strings.Builder
	b.WriteString("DESIGN STYLE:\n")
	fmt.Fprintf(&b, "- Primary colour: %s\n", tokens.Colors.Primary)
	fmt.Fprintf(&b, "- Secondary colour: %s\n", tokens.Colors.Secondary)
	fmt.Fprintf(&b, "- Accent colour: %s\n", tokens.Colors.Accent)
	fmt.Fprintf(&b, "- Background colour: %s\n", tokens.Colors.Background)
	fmt.Fprintf(&b, "- Text colour: %s\n", tokens.Colors.Text)
	fmt.Fprintf(&b, "- Heading font: %s\n", tokens.Fonts.Heading)
	fmt.Fprintf(&b, "- Body font: %s\n", tokens.Fonts.Body)
	fmt.Fprintf(&b, "- Overall style: %s\n", tokens.Style)
	fmt.Fprintf(&b, "- Layout patterns: %s\n", strings.Join(tokens.LayoutPatterns, ", "))
	if tokens.DesignSystem != "" {
		fmt.Fprintf(&b, "\nDESIGN SYSTEM SPECIFICATION (follow this faithfully):\n%s\n", tokens.DesignSystem)
	}
	return b.String()
}

// contentBlock renders extracted content from the business's existing site.
func contentBlock(content *domain.ExtractedContent) string {
	if content == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("CONTENT FROM THE BUSINESS'S EXISTING WEBSITE (reuse real facts, never invent new ones):\n")
	if content.RawText != "" {
		fmt.Fprintf(&b, "- Summary: %s\n", content.RawText)
	}
	if len(content.Services) > 0 {
		fmt.Fprintf(&b, "- Services mentioned: %s\n", strings.Join(content.Services, ", "))
	}
	for _, tm := range content.Testimonials {
		fmt.Fprintf(&b, "- Testimonial: %q — %s", tm.Quote, tm.Name)
		if tm.Location != "" {
			fmt.Fprintf(&b, ", %s", tm.Location)
		}
		b.WriteString("\n")
	}
	for _, link := range content.SocialLinks {
		fmt.Fprintf(&b, "- Social: %s %s\n", link.Platform, link.URL)
	}
	if content.YearFounded > 0 {
		fmt.Fprintf(&b, "- Year founded: %d\n", content.YearFounded)
	}
	if content.LogoURL != "" {
		fmt.Fprintf(&b, "- Logo image: %s\n", content.LogoURL)
	}
	if content.HeroURL != "" {
		fmt.Fprintf(&b, "- Hero image: %s\n", content.HeroURL)
	}
	for _, img := range content.Images {
		fmt.Fprintf(&b, "- Image (%s): %s\n", img.Type, img.Src)
	}
	return b.String()
}

// planPrompt is the first rich-mode turn: all static instructions plus all
// dynamic data, asking for a brief.
func planPrompt(info domain.BusinessInfo, tokens domain.ExtractedDesignTokens, content *domain.ExtractedContent) string {
	var b strings.Builder
	b.WriteString("Generate a professional website for this New Zealand trade business.\n\n")
	b.WriteString(businessBlock(info))
	b.WriteString("\n")
	b.WriteString(designBlock(tokens))
	if block := contentBlock(content); block != "" {
		b.WriteString("\n")
		b.WriteString(block)
	}
	fmt.Fprintf(&b, "\nMake it feel authentic to the %s trade in %s, New Zealand — designed, not templated.\n\n", info.TradeType, info.Region)
	b.WriteString(planInstruction)
	return b.String()
}

// fallbackPrompt collapses plan and generate into one call.
func fallbackPrompt(info domain.BusinessInfo, tokens domain.ExtractedDesignTokens, content *domain.ExtractedContent) string {
	prompt := planPrompt(info, tokens, content)
	return strings.Replace(prompt, planInstruction, skipBriefInstruction, 1)
}

// textRefinePrompt pastes the HTML back for a screenshot-free critique.
func textRefinePrompt(html string) string {
	return "Here is the website you built:\n\n" + html + "\n\n" + refineChecklist
}

// screenshotRefinePrompt accompanies the two viewport screenshots.
const screenshotRefinePrompt = `Here are screenshots of the site you built at desktop (1280x900) and mobile (375x812) sizes. ` + refineChecklist
