package llm

import (
	"fmt"
	"regexp"
	"strings"
)

var codeBlockPattern = regexp.MustCompile("```(?:json|html)?\\s*([\\s\\S]*?)```")

// doctypeIndex returns the byte offset of the first document-type
// declaration, case-insensitively, or -1.
func doctypeIndex(s string) int {
	return strings.Index(strings.ToLower(s), "<!doctype")
}

// ExtractHTML locates the HTML document inside a model response. Three
// shapes are checked in order: the stdout of a code-execution tool result,
// the concatenated text blocks with code fences stripped, and finally a scan
// for a document-type declaration anywhere in the text. Failure surfaces a
// snippet of the raw text so the caller can log what actually came back.
func ExtractHTML(resp *Response) (string, error) {
	for _, block := range resp.Content {
		if block.Type != "code_execution_tool_result" || block.Content == nil {
			continue
		}
		stdout := strings.TrimSpace(block.Content.Stdout)
		if stdout == "" {
			continue
		}
		if idx := doctypeIndex(stdout); idx >= 0 {
			return stdout[idx:], nil
		}
	}

	text := strings.TrimSpace(resp.Text())
	stripped := strings.TrimSpace(StripFences(text))
	if doctypeIndex(stripped) == 0 || strings.HasPrefix(strings.ToLower(stripped), "<html") {
		return stripped, nil
	}

	if idx := doctypeIndex(text); idx >= 0 {
		return text[idx:], nil
	}

	snippet := text
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return "", fmt.Errorf("no HTML document in response: %q", snippet)
}

// StripFences removes a Markdown code-fence wrapper when the whole string is
// one fenced block; otherwise the input is returned unchanged.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	matches := codeBlockPattern.FindStringSubmatch(trimmed)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return s
}

// ExtractJSON extracts a JSON object or array from text that might wrap it
// in markdown or prose.
func ExtractJSON(text string) string {
	matches := codeBlockPattern.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	text = strings.TrimSpace(text)

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")

	start := -1
	isArray := false
	if startObj >= 0 && (startArr < 0 || startObj < startArr) {
		start = startObj
	} else if startArr >= 0 {
		start = startArr
		isArray = true
	}
	if start < 0 {
		return ""
	}

	text = text[start:]
	depth := 0
	inString := false
	escaped := false

	openBracket := byte('{')
	closeBracket := byte('}')
	if isArray {
		openBracket = '['
		closeBracket = ']'
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == openBracket {
			depth++
		} else if c == closeBracket {
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
