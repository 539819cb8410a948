package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/domain"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

var ErrUnavailable = errors.New("openai: service unavailable")

// Client talks to the chat completions endpoint. Safety settings on a
// domain.Prompt have no equivalent here and are not sent.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	hc      *http.Client
	rl      *rate.Limiter
}

func New(apiKey, model, baseURL string, rps int) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 20 * time.Second},
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// GenerateStructured sends p once with a json_schema response format.
func (c *Client) GenerateStructured(ctx context.Context, p domain.Prompt) ([]byte, error) {
	name := p.Name
	if name == "" {
		name = "structured_output"
	}
	payload := map[string]any{
		"model":    c.model,
		"messages": []message{{Role: "user", Content: p.Text}},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"schema": p.Schema.JSONSchema(),
				"strict": false,
			},
		},
	}
	out, err := c.complete(ctx, "structured", payload)
	if err != nil {
		return nil, err
	}
	out = stripFences(out)
	if out == "" {
		return nil, domain.ErrNoStructuredOutput
	}
	return []byte(out), nil
}

func (c *Client) Reply(ctx context.Context, system string, history []domain.ChatTurn, msg string) (string, error) {
	msgs := make([]message, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, message{Role: "system", Content: system})
	}
	for _, t := range history {
		role := "user"
		if t.Role == domain.SenderAssistant {
			role = "assistant"
		}
		msgs = append(msgs, message{Role: role, Content: t.Text})
	}
	msgs = append(msgs, message{Role: "user", Content: msg})

	out, err := c.complete(ctx, "chat", map[string]any{"model": c.model, "messages": msgs, "temperature": 0.7})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", errors.New("openai: missing output text")
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, endpoint string, payload map[string]any) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("openai", endpoint, 0, time.Since(start))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	observability.ObserveExternal("openai", endpoint, res.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return "", err
	}
	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return "", domain.ErrUnauthorized
	case res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	case res.StatusCode >= 300:
		return "", fmt.Errorf("openai: status %d: %s", res.StatusCode, truncate(string(raw), 256))
	}

	var cr completion
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("openai: decode: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", nil
	}
	// a refusal carries no usable content
	if cr.Choices[0].Message.Refusal != "" {
		return "", nil
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
