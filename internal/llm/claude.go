// Package llm wraps the Claude Messages API: multi-turn requests, SSE
// streaming, rate limiting and retry, and helpers for digging HTML and JSON
// out of model responses.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/observability"
)

const anthropicVersion = "2023-06-01"

// Stop reasons a response may terminate with. PauseTurn and MaxTokens mean
// the model has more to say; the caller reissues with the partial turn
// appended.
const (
	StopEndTurn   = "end_turn"
	StopMaxTokens = "max_tokens"
	StopPauseTurn = "pause_turn"
)

// Client is a Claude API client.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	maxRetries int
	httpClient *http.Client

	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a Claude client from configuration.
func NewClient(cfg config.ClaudeConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.RateLimitRPM <= 0 {
		cfg.RateLimitRPM = 50
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  cfg.MaxRetries,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPM)/60.0), 1),
		logger:      logger,
	}, nil
}

// Model returns the model the client is configured for.
func (c *Client) Model() string { return c.model }

// MaxTokens returns the configured per-turn output budget.
func (c *Client) MaxTokens() int { return c.maxTokens }

// Message is one conversation turn.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one block of request content: text or an image.
type ContentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource carries base64-encoded image data.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// TextMessage builds a single-text-block message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ImageBlock builds a base64 PNG image block.
func ImageBlock(base64PNG string) ContentBlock {
	return ContentBlock{Type: "image", Source: &ImageSource{
		Type:      "base64",
		MediaType: "image/png",
		Data:      base64PNG,
	}}
}

// Tool enables a server-side tool such as code execution.
type Tool struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// SkillRef attaches an uploaded skill to the request container.
type SkillRef struct {
	Type    string `json:"type"`
	SkillID string `json:"skill_id"`
	Version string `json:"version,omitempty"`
}

// Request is a Messages API request.
type Request struct {
	Model       string     `json:"model"`
	MaxTokens   int        `json:"max_tokens"`
	System      string     `json:"system,omitempty"`
	Messages    []Message  `json:"messages"`
	Temperature float64    `json:"temperature,omitempty"`
	Stream      bool       `json:"stream,omitempty"`
	Tools       []Tool     `json:"tools,omitempty"`
	Skills      []SkillRef `json:"skills,omitempty"`

	// Container threads the code-execution session across turns. Empty on
	// the first turn; subsequent turns pass the id the previous response
	// returned.
	Container string `json:"container,omitempty"`
}

// ResponseBlock is one block of response content. Text blocks carry Text;
// code-execution result blocks carry Content with the captured stdout.
type ResponseBlock struct {
	Type    string               `json:"type"`
	Text    string               `json:"text,omitempty"`
	Content *CodeExecutionResult `json:"content,omitempty"`
}

// CodeExecutionResult is the captured output of a server-side tool run.
type CodeExecutionResult struct {
	Type       string `json:"type"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"return_code"`
}

// ContainerInfo identifies the code-execution container a response ran in.
type ContainerInfo struct {
	ID string `json:"id"`
}

// Usage contains token usage information.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is a Messages API response.
type Response struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Role       string          `json:"role"`
	Content    []ResponseBlock `json:"content"`
	Model      string          `json:"model"`
	StopReason string          `json:"stop_reason"`
	Container  *ContainerInfo  `json:"container,omitempty"`
	Usage      Usage           `json:"usage"`
}

// Text concatenates the response's text blocks.
func (r *Response) Text() string {
	var buf bytes.Buffer
	for _, block := range r.Content {
		if block.Type == "text" {
			buf.WriteString(block.Text)
		}
	}
	return buf.String()
}

// ContainerID returns the response's container id, or "".
func (r *Response) ContainerID() string {
	if r.Container == nil {
		return ""
	}
	return r.Container.ID
}

// Truncated reports whether the response stopped before finishing its turn.
func (r *Response) Truncated() bool {
	return r.StopReason == StopMaxTokens || r.StopReason == StopPauseTurn
}

// apiError is the error envelope the API returns on non-2xx.
type apiError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Messages sends one Messages API request, retrying on 429 and 5xx with
// linear backoff. purpose labels the call in logs and metrics.
func (c *Client) Messages(ctx context.Context, purpose string, req Request) (*Response, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		resp, retryable, err := c.doRequest(ctx, req)
		if err == nil {
			observability.RecordClaudeRequest(purpose, "success", time.Since(start),
				resp.Usage.InputTokens, resp.Usage.OutputTokens)
			return resp, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.logger.Warn("model request failed, retrying",
			zap.String("purpose", purpose),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	observability.RecordClaudeRequest(purpose, "error", time.Since(start), 0, 0)
	return nil, lastErr
}

// doRequest performs one HTTP round trip. The bool reports whether the
// failure is worth retrying.
func (c *Client) doRequest(ctx context.Context, req Request) (*Response, bool, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, false, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		var envelope apiError
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Message != "" {
			return nil, retryable, fmt.Errorf("API error (status %d): %s", resp.StatusCode, envelope.Error.Message)
		}
		return nil, retryable, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp Response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, false, fmt.Errorf("parsing response: %w", err)
	}
	return &apiResp, false, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

// Complete sends a single-turn completion and returns the concatenated text.
func (c *Client) Complete(ctx context.Context, purpose, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.Messages(ctx, purpose, Request{
		System:      systemPrompt,
		Messages:    []Message{TextMessage("user", userPrompt)},
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return resp.Text(), nil
}

// CompleteJSON sends a single-turn completion and parses the JSON it returns.
// One attempt only: a malformed response is the caller's cue to fall back to
// its deterministic path, not to retry the model.
func (c *Client) CompleteJSON(ctx context.Context, purpose, systemPrompt, userPrompt string, result any) error {
	jsonSystemPrompt := systemPrompt + "\n\nIMPORTANT: Return ONLY valid JSON. No markdown, no code blocks, no explanations."

	text, err := c.Complete(ctx, purpose, jsonSystemPrompt, userPrompt)
	if err != nil {
		return err
	}

	jsonStr := ExtractJSON(text)
	if jsonStr == "" {
		return fmt.Errorf("no JSON found in response")
	}
	if err := json.Unmarshal([]byte(jsonStr), result); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
