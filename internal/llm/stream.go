package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tradiesite/tradiesite/internal/observability"
)

// streamEvent is one decoded SSE event payload.
type streamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		ID        string         `json:"id"`
		Model     string         `json:"model"`
		Container *ContainerInfo `json:"container,omitempty"`
		Usage     Usage          `json:"usage"`
	} `json:"message,omitempty"`
	Delta *struct {
		Type       string `json:"type"`
		Text       string `json:"text,omitempty"`
		StopReason string `json:"stop_reason,omitempty"`
	} `json:"delta,omitempty"`
	Usage *Usage `json:"usage,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// MessagesStream sends a streaming Messages request, invoking onDelta with
// each text fragment as it arrives, and returns the assembled response.
// onDelta may be nil.
func (c *Client) MessagesStream(ctx context.Context, purpose string, req Request, onDelta func(text string)) (*Response, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}
	req.Stream = true

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.RecordClaudeRequest(purpose, "error", time.Since(start), 0, 0)
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		observability.RecordClaudeRequest(purpose, "error", time.Since(start), 0, 0)
		return nil, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	resp, err := c.readStream(httpResp.Body, onDelta)
	if err != nil {
		observability.RecordClaudeRequest(purpose, "error", time.Since(start), 0, 0)
		return nil, err
	}
	observability.RecordClaudeRequest(purpose, "success", time.Since(start),
		resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

// readStream consumes the SSE body and assembles the final response from its
// deltas. Only `data:` lines matter; event-name lines are advisory.
func (c *Client) readStream(body io.Reader, onDelta func(string)) (*Response, error) {
	resp := &Response{Type: "message", Role: "assistant"}
	var text strings.Builder

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "message_start":
			if ev.Message != nil {
				resp.ID = ev.Message.ID
				resp.Model = ev.Message.Model
				resp.Container = ev.Message.Container
				resp.Usage.InputTokens = ev.Message.Usage.InputTokens
			}
		case "content_block_delta":
			if ev.Delta != nil && ev.Delta.Text != "" {
				text.WriteString(ev.Delta.Text)
				if onDelta != nil {
					onDelta(ev.Delta.Text)
				}
			}
		case "message_delta":
			if ev.Delta != nil && ev.Delta.StopReason != "" {
				resp.StopReason = ev.Delta.StopReason
			}
			if ev.Usage != nil {
				resp.Usage.OutputTokens = ev.Usage.OutputTokens
			}
		case "error":
			if ev.Error != nil {
				return nil, fmt.Errorf("stream error: %s", ev.Error.Message)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}

	if text.Len() > 0 {
		resp.Content = []ResponseBlock{{Type: "text", Text: text.String()}}
	}
	return resp, nil
}
