// Package gemini adapts the google.golang.org/genai SDK to the enhancement
// pipeline's TextGenerator contract.
//
// The adapter is deliberately thin: one client, one model, one blocking
// GenerateContent call per invocation. Timeout racing, error classification,
// and retry policy all live in internal/enhance; this package only moves
// bytes and surfaces the SDK's raw errors untouched so they can be classified
// upstream.
package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/promptpilot/go-prompt-backend/internal/enhance"
)

// DefaultModel is the model every enhancement request is sent to unless
// overridden by configuration.
const DefaultModel = "gemini-1.5-pro"

// ErrEmptyResponse is returned when the model answers with no usable text
// (no candidates, or candidates with empty parts).
var ErrEmptyResponse = errors.New("gemini: model returned an empty response")

// Client is a TextGenerator backed by the Gemini API.
//
// Fields:
//   - client: the shared genai SDK client (safe for concurrent use)
//   - model:  the model identifier requests are addressed to
type Client struct {
	client *genai.Client
	model  string
}

// New dials the Gemini API with the given key and returns a Client bound to
// model. An empty model falls back to DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return NewFromClient(c, model), nil
}

// NewFromClient wraps an existing SDK client; used by tests and by callers
// that share one client across adapters.
func NewFromClient(c *genai.Client, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: c, model: model}
}

// Generate implements enhance.TextGenerator. It issues a single
// GenerateContent call with the pipeline's sampling parameters and returns
// the concatenated text of the first candidate, trimmed of surrounding
// whitespace.
func (c *Client) Generate(ctx context.Context, instruction string, cfg enhance.GenerationConfig) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		TopK:            genai.Ptr(float32(cfg.TopK)),
		TopP:            genai.Ptr(cfg.TopP),
		MaxOutputTokens: cfg.MaxOutputTokens,
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(instruction), gc)
	if err != nil {
		return "", err
	}

	text := firstCandidateText(result)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// firstCandidateText concatenates the text parts of the first candidate.
func firstCandidateText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}
	cand := result.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
