package extract

import (
	"regexp"
	"strings"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlock  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	anyTag      = regexp.MustCompile(`<[^>]+>`)
	whitespace  = regexp.MustCompile(`\s+`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
)

// PlainText strips scripts, styles and tags from markup, unescapes the
// common entities, collapses whitespace and truncates to limit characters.
func PlainText(html string, limit int) string {
	text := scriptBlock.ReplaceAllString(html, "")
	text = styleBlock.ReplaceAllString(text, "")
	text = anyTag.ReplaceAllString(text, " ")
	text = entityReplacer.Replace(text)
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if limit > 0 && len(text) > limit {
		text = text[:limit]
	}
	return text
}
