package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Client is the minimal generative surface the classifier needs. It exists
// so tests can substitute a canned implementation.
type Client interface {
	// GenerateJSON sends the parts as a single user turn and returns the
	// model's text output, constrained to the given schema.
	GenerateJSON(ctx context.Context, parts []*genai.Part, schema *genai.Schema) (string, error)
	Close() error
}

// geminiClient implements Client against the Gemini API.
type geminiClient struct {
	client *genai.Client
	model  string
}

func newGeminiClient(ctx context.Context, apiKey, model string) (*geminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiClient{client: client, model: model}, nil
}

func (g *geminiClient) GenerateJSON(ctx context.Context, parts []*genai.Part, schema *genai.Schema) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty response")
	}
	return text, nil
}

// Close is a no-op; the underlying client is plain HTTP with no persistent
// resources to release.
func (g *geminiClient) Close() error {
	return nil
}
