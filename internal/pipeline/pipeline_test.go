package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/llm"
	"github.com/tradiesite/tradiesite/internal/screenshot"
)

const doc = "<!DOCTYPE html><html><body>Smith Plumbing</body></html>"
const refinedDoc = "<!DOCTYPE html><html><body>Smith Plumbing, polished</body></html>"

func pipelineConfig(baseURL, skillID string) config.ClaudeConfig {
	return config.ClaudeConfig{
		APIKey:           "test-key",
		BaseURL:          baseURL,
		Model:            "claude-sonnet-4-20250514",
		MaxTokens:        16000,
		Timeout:          10 * time.Second,
		RateLimitRPM:     6000,
		MaxRetries:       0,
		SkillID:          skillID,
		MaxContinuations: 3,
	}
}

func newPipeline(t *testing.T, cfg config.ClaudeConfig, capturer Capturer) *Pipeline {
	t.Helper()
	client, err := llm.NewClient(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return New(client, capturer, cfg, zap.NewNop())
}

func businessInfo() domain.BusinessInfo {
	return domain.BusinessInfo{
		BusinessName: "Smith Plumbing",
		TradeType:    domain.TradePlumber,
		Location:     "Wellington",
		Region:       "Wellington",
		Phone:        "021 555 1234",
		Email:        "hello@smithplumbing.co.nz",
		Services:     []string{"Hot water cylinders"},
		AboutText:    "Family plumbing firm.",
	}
}

func designTokens() domain.ExtractedDesignTokens {
	return domain.ExtractedDesignTokens{
		Colors:         domain.ColorPalette{Primary: "#2c3e50", Secondary: "#e67e22", Accent: "#f39c12", Background: "#fafafa", Text: "#2c3e50"},
		Fonts:          domain.FontPair{Heading: "Montserrat", Body: "Open Sans"},
		Style:          domain.StyleMinimal,
		LayoutPatterns: []string{"hero-full"},
	}
}

type fakeCapturer struct {
	err   error
	calls int32
}

func (f *fakeCapturer) Capture(html string, vp screenshot.Viewport) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return "", f.err
	}
	return "aGVsbG8=", nil
}

func textResponse(text, stopReason string) llm.Response {
	return llm.Response{
		Content:    []llm.ResponseBlock{{Type: "text", Text: text}},
		StopReason: stopReason,
	}
}

func sse(events ...string) string {
	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "data: %s\n\n", ev)
	}
	return b.String()
}

func streamOf(text string) string {
	data, _ := json.Marshal(text)
	return sse(
		`{"type":"message_start","message":{"id":"msg_1"}}`,
		fmt.Sprintf(`{"type":"content_block_delta","delta":{"type":"text_delta","text":%s}}`, data),
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":10}}`,
	)
}

func TestFallbackModeSurvivesRefineFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.Request
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			fmt.Fprint(w, streamOf(doc))
			return
		}
		// The refine turn is the only non-streaming call in fallback mode.
		http.Error(w, `{"type":"error","error":{"type":"api_error","message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	var statuses []string
	var chunks int32
	p := newPipeline(t, pipelineConfig(server.URL, ""), nil)
	html, err := p.Generate(context.Background(), businessInfo(), designTokens(), nil, Callbacks{
		OnChunk:  func(string) { atomic.AddInt32(&chunks, 1) },
		OnStatus: func(m string) { statuses = append(statuses, m) },
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.HasPrefix(html, "<!DOCTYPE") {
		t.Errorf("html = %q", html[:40])
	}
	if atomic.LoadInt32(&chunks) == 0 {
		t.Error("no chunks delivered")
	}
	if len(statuses) != 2 || statuses[0] != "Building..." || statuses[1] != "Polishing..." {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestFallbackModeNoDocumentIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, streamOf("sorry, I cannot build that"))
	}))
	defer server.Close()

	p := newPipeline(t, pipelineConfig(server.URL, ""), nil)
	_, err := p.Generate(context.Background(), businessInfo(), designTokens(), nil, Callbacks{})
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeGeneration {
		t.Errorf("error = %v, want generation AppError", err)
	}
}

func TestSkillModeThreeTurns(t *testing.T) {
	var calls int32
	var containers []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.Request
		json.NewDecoder(r.Body).Decode(&req)
		containers = append(containers, req.Container)

		switch atomic.AddInt32(&calls, 1) {
		case 1:
			if len(req.Skills) != 1 || req.Skills[0].SkillID != "skill-web" {
				t.Errorf("skills = %+v", req.Skills)
			}
			resp := textResponse("BRIEF: warm and local.", llm.StopEndTurn)
			resp.Container = &llm.ContainerInfo{ID: "cont_1"}
			json.NewEncoder(w).Encode(resp)
		case 2:
			json.NewEncoder(w).Encode(llm.Response{
				Content: []llm.ResponseBlock{
					{Type: "text", Text: "Building now."},
					{Type: "code_execution_tool_result", Content: &llm.CodeExecutionResult{Stdout: doc}},
				},
				StopReason: llm.StopEndTurn,
			})
		default:
			// Refine: expect the screenshots in the last message.
			last := req.Messages[len(req.Messages)-1]
			imageBlocks := 0
			for _, block := range last.Content {
				if block.Type == "image" {
					imageBlocks++
				}
			}
			if imageBlocks != 2 {
				t.Errorf("refine message has %d image blocks, want 2", imageBlocks)
			}
			json.NewEncoder(w).Encode(textResponse(refinedDoc, llm.StopEndTurn))
		}
	}))
	defer server.Close()

	capturer := &fakeCapturer{}
	p := newPipeline(t, pipelineConfig(server.URL, "skill-web"), capturer)
	html, err := p.Generate(context.Background(), businessInfo(), designTokens(), nil, Callbacks{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if html != refinedDoc {
		t.Errorf("html = %q", html)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// Turn 1 starts without a container; later turns must thread cont_1.
	if containers[0] != "" || containers[1] != "cont_1" || containers[2] != "cont_1" {
		t.Errorf("containers = %v", containers)
	}
	if atomic.LoadInt32(&capturer.calls) != 2 {
		t.Errorf("captures = %d, want 2", capturer.calls)
	}
}

func TestSkillModeScreenshotFailureDegradesToTextRefine(t *testing.T) {
	var sawPastedHTML bool
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.Request
		json.NewDecoder(r.Body).Decode(&req)

		switch atomic.AddInt32(&calls, 1) {
		case 1:
			json.NewEncoder(w).Encode(textResponse("brief", llm.StopEndTurn))
		case 2:
			json.NewEncoder(w).Encode(textResponse(doc, llm.StopEndTurn))
		default:
			last := req.Messages[len(req.Messages)-1]
			for _, block := range last.Content {
				if block.Type == "text" && strings.Contains(block.Text, doc) {
					sawPastedHTML = true
				}
			}
			json.NewEncoder(w).Encode(textResponse(refinedDoc, llm.StopEndTurn))
		}
	}))
	defer server.Close()

	capturer := &fakeCapturer{err: fmt.Errorf("no browser")}
	p := newPipeline(t, pipelineConfig(server.URL, "skill-web"), capturer)
	html, err := p.Generate(context.Background(), businessInfo(), designTokens(), nil, Callbacks{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if html != refinedDoc {
		t.Errorf("html = %q", html)
	}
	if !sawPastedHTML {
		t.Error("text refine should paste the HTML back into the prompt")
	}
}

func TestContinuationLoopStopsAtCeiling(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(textResponse("partial...", llm.StopMaxTokens))
	}))
	defer server.Close()

	cfg := pipelineConfig(server.URL, "")
	p := newPipeline(t, cfg, nil)

	req := llm.Request{Messages: []llm.Message{llm.TextMessage("user", "go")}}
	resp, err := p.runTurn(context.Background(), "test", &req)
	if err != nil {
		t.Fatalf("runTurn() error = %v", err)
	}
	// Initial call plus MaxContinuations rounds, then give up with what we have.
	if got := atomic.LoadInt32(&calls); got != int32(1+cfg.MaxContinuations) {
		t.Errorf("calls = %d, want %d", got, 1+cfg.MaxContinuations)
	}
	if !strings.Contains(resp.Text(), "partial...") {
		t.Errorf("partial output should be kept: %q", resp.Text())
	}
}

func TestContinuationConcatenatesParts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.Request
		json.NewDecoder(r.Body).Decode(&req)

		if atomic.AddInt32(&calls, 1) == 1 {
			json.NewEncoder(w).Encode(textResponse("<!DOCTYPE html><html><body>part one ", llm.StopMaxTokens))
			return
		}
		// The partial turn must come back as assistant context.
		last := req.Messages[len(req.Messages)-1]
		if last.Role != "assistant" || !strings.Contains(last.Content[0].Text, "part one") {
			t.Errorf("continuation should append the partial assistant turn, got %+v", last)
		}
		json.NewEncoder(w).Encode(textResponse("part two</body></html>", llm.StopEndTurn))
	}))
	defer server.Close()

	p := newPipeline(t, pipelineConfig(server.URL, ""), nil)
	req := llm.Request{Messages: []llm.Message{llm.TextMessage("user", "go")}}
	resp, err := p.runTurn(context.Background(), "test", &req)
	if err != nil {
		t.Fatalf("runTurn() error = %v", err)
	}
	if resp.Text() != "<!DOCTYPE html><html><body>part one part two</body></html>" {
		t.Errorf("Text() = %q", resp.Text())
	}
	if resp.StopReason != llm.StopEndTurn {
		t.Errorf("StopReason = %q", resp.StopReason)
	}
}

func TestCallbackPanicNeverAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.Request
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			fmt.Fprint(w, streamOf(doc))
			return
		}
		json.NewEncoder(w).Encode(textResponse(refinedDoc, llm.StopEndTurn))
	}))
	defer server.Close()

	p := newPipeline(t, pipelineConfig(server.URL, ""), nil)
	html, err := p.Generate(context.Background(), businessInfo(), designTokens(), nil, Callbacks{
		OnChunk:  func(string) { panic("listener went away") },
		OnStatus: func(string) { panic("listener went away") },
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.HasPrefix(html, "<!DOCTYPE") {
		t.Errorf("html = %q", html)
	}
}
