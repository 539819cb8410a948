package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/domain"
)

const DefaultModel = "gemini-2.0-flash"

// generator is the slice of *genai.Models this adapter calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	gen   generator
	model string
	rl    *rate.Limiter
}

func New(ctx context.Context, apiKey, model string, rps int) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newWithGenerator(gc.Models, model, rps), nil
}

func newWithGenerator(g generator, model string, rps int) *Client {
	if model == "" {
		model = DefaultModel
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{gen: g, model: model, rl: rate.NewLimiter(rate.Limit(rps), rps)}
}

// GenerateStructured runs p once with JSON output constrained to p.Schema.
// An empty or blocked candidate yields domain.ErrNoStructuredOutput.
func (c *Client) GenerateStructured(ctx context.Context, p domain.Prompt) ([]byte, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toSchema(p.Schema),
		SafetySettings:   toSafety(p.SafetySettings),
	}
	text, err := c.generate(ctx, "structured:"+p.Name, genai.Text(p.Text), cfg)
	if err != nil {
		return nil, err
	}
	text = stripFences(text)
	if text == "" {
		return nil, domain.ErrNoStructuredOutput
	}
	return []byte(text), nil
}

func (c *Client) Reply(ctx context.Context, system string, history []domain.ChatTurn, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		role := "user"
		if t.Role == domain.SenderAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: t.Text}}})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: message}}})

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	text, err := c.generate(ctx, "chat", contents, cfg)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini: empty reply")
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, endpoint string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	resp, err := c.gen.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		observability.ObserveExternal("gemini", endpoint, 0, time.Since(start))
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	observability.ObserveExternal("gemini", endpoint, 200, time.Since(start))
	return firstText(resp), nil
}

// firstText concatenates the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "```json"), "```")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	}
	return strings.TrimSpace(s)
}

func toSafety(in []domain.SafetySetting) []*genai.SafetySetting {
	out := make([]*genai.SafetySetting, 0, len(in))
	for _, s := range in {
		out = append(out, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	return out
}

func toSchema(s *domain.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             toType(s.Type),
		Description:      s.Description,
		Required:         s.Required,
		PropertyOrdering: s.Order,
		Minimum:          s.Minimum,
		Maximum:          s.Maximum,
		Items:            toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toSchema(v)
		}
	}
	return out
}

func toType(t domain.SchemaType) genai.Type {
	switch t {
	case domain.TypeObject:
		return genai.TypeObject
	case domain.TypeArray:
		return genai.TypeArray
	case domain.TypeInteger:
		return genai.TypeInteger
	case domain.TypeNumber:
		return genai.TypeNumber
	default:
		return genai.TypeString
	}
}
