package llm

import (
	"strings"
	"testing"
)

const doc = "<!DOCTYPE html><html><body>hi</body></html>"

func TestExtractHTMLFromStdout(t *testing.T) {
	resp := &Response{Content: []ResponseBlock{
		{Type: "text", Text: "Building the site now."},
		{Type: "code_execution_tool_result", Content: &CodeExecutionResult{
			Stdout: "installing deps...\n" + doc,
		}},
	}}

	html, err := ExtractHTML(resp)
	if err != nil {
		t.Fatalf("ExtractHTML() error = %v", err)
	}
	if !strings.HasPrefix(html, "<!DOCTYPE") {
		t.Errorf("embedded doctype should be sliced out, got %q", html[:40])
	}
}

func TestExtractHTMLStdoutWinsOverText(t *testing.T) {
	resp := &Response{Content: []ResponseBlock{
		{Type: "text", Text: doc},
		{Type: "code_execution_tool_result", Content: &CodeExecutionResult{
			Stdout: "<!DOCTYPE html><html><body>from stdout</body></html>",
		}},
	}}

	html, err := ExtractHTML(resp)
	if err != nil {
		t.Fatalf("ExtractHTML() error = %v", err)
	}
	if !strings.Contains(html, "from stdout") {
		t.Errorf("stdout tier should win, got %q", html)
	}
}

func TestExtractHTMLFromFencedText(t *testing.T) {
	resp := &Response{Content: []ResponseBlock{
		{Type: "text", Text: "```html\n" + doc + "\n```"},
	}}

	html, err := ExtractHTML(resp)
	if err != nil {
		t.Fatalf("ExtractHTML() error = %v", err)
	}
	if html != doc {
		t.Errorf("got %q", html)
	}
}

func TestExtractHTMLEmbeddedInProse(t *testing.T) {
	resp := &Response{Content: []ResponseBlock{
		{Type: "text", Text: "Here is the site you asked for:\n\n" + doc},
	}}

	html, err := ExtractHTML(resp)
	if err != nil {
		t.Fatalf("ExtractHTML() error = %v", err)
	}
	if !strings.HasPrefix(html, "<!DOCTYPE") {
		t.Errorf("got %q", html)
	}
}

func TestExtractHTMLNoDocument(t *testing.T) {
	resp := &Response{Content: []ResponseBlock{
		{Type: "text", Text: "I could not produce a website."},
	}}

	if _, err := ExtractHTML(resp); err == nil {
		t.Fatal("expected error")
	} else if !strings.Contains(err.Error(), "could not produce") {
		t.Errorf("raw text should be surfaced, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "hello", "hello"},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\ncontent\n```", "content"},
		{"fence mid-text untouched", "prefix ```x``` suffix", "prefix ```x``` suffix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"object in prose", `Sure: {"a": {"b": 2}} hope that helps`, `{"a": {"b": 2}}`},
		{"array", `[1, 2, 3]`, `[1, 2, 3]`},
		{"braces in strings", `{"s": "has } brace"}`, `{"s": "has } brace"}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"nothing", "no json here", ""},
		{"unbalanced", `{"a": 1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
