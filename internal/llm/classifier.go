package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/sayboard/sayboard/internal/common"
	"github.com/sayboard/sayboard/internal/extract"
	"github.com/sayboard/sayboard/internal/live"
	"github.com/sayboard/sayboard/internal/model"
	"github.com/sayboard/sayboard/internal/service"
	"google.golang.org/genai"
)

// Classifier implements service.Classifier using the Gemini REST API.
type Classifier struct {
	client      Client
	cache       *classificationCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// Config holds configuration for the frame classifier.
type Config struct {
	APIKey     string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
	RateLimit  int
}

// NewClassifier creates a Gemini-backed frame classifier.
func NewClassifier(ctx context.Context, cfg Config, logger *slog.Logger) (*Classifier, error) {
	client, err := newGeminiClient(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Classifier{
		client:      client,
		cache:       newClassificationCache(cfg.CacheTTL),
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// classifyResponse mirrors the structured output schema for one frame.
type classifyResponse struct {
	PrimaryContext     string   `json:"primaryContext"`
	SituationInference string   `json:"situationInference"`
	SecondaryContexts  []string `json:"secondaryContexts"`
	EntitiesDetected   []string `json:"entitiesDetected"`
	ConfidenceScore    float64  `json:"confidenceScore"`
}

func classificationSchema() *genai.Schema {
	contexts := make([]string, 0, len(model.AllContexts))
	for _, c := range model.AllContexts {
		contexts = append(contexts, string(c))
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"primaryContext": {
				Type: genai.TypeString,
				Enum: contexts,
			},
			"confidenceScore": {
				Type: genai.TypeNumber,
			},
			"secondaryContexts": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"entitiesDetected": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"situationInference": {
				Type: genai.TypeString,
			},
		},
		Required: []string{"primaryContext", "confidenceScore"},
	}
}

// ClassifyFrame classifies a single camera frame. Identical frames within the
// cache TTL are served from cache without an API call.
func (c *Classifier) ClassifyFrame(ctx context.Context, frame service.Frame, placeHint string) (model.Classification, error) {
	key := frameKey(frame.Data)
	if cached, found := c.cache.get(key); found {
		c.logger.Debug("cache hit for frame", "key", key[:12])
		return cached, nil
	}

	if err := c.rateLimiter.wait(ctx); err != nil {
		return model.Classification{}, err
	}

	mime := frame.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(live.BuildSystemPrompt(placeHint)),
		genai.NewPartFromBytes(frame.Data, mime),
	}

	var classification model.Classification

	err := common.WithRetry(ctx, func() error {
		text, err := c.client.GenerateJSON(ctx, parts, classificationSchema())
		if err != nil {
			c.logger.Warn("frame classification attempt failed", "error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		parsed, err := parseClassification(text)
		if err != nil {
			c.logger.Warn("frame classification response invalid", "error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		classification = parsed
		return nil
	}, c.retryOpts)
	if err != nil {
		return model.Classification{}, fmt.Errorf("%w: %w", common.ErrClassificationFailed, err)
	}

	c.cache.set(key, classification)
	c.logger.Debug("classification cached",
		"key", key[:12],
		"entries", c.cache.size())
	return classification, nil
}

// parseClassification converts the model's JSON output into a validated
// Classification. Unknown context labels in the secondary list are dropped;
// an unknown primary label fails the whole response.
func parseClassification(text string) (model.Classification, error) {
	var resp classifyResponse
	if !extract.Unmarshal(text, &resp) {
		return model.Classification{}, fmt.Errorf("no JSON object in response")
	}

	primary, err := model.ParseContext(resp.PrimaryContext)
	if err != nil {
		return model.Classification{}, fmt.Errorf("invalid primary context: %w", err)
	}

	var secondary []model.ContextType
	for _, s := range resp.SecondaryContexts {
		parsed, err := model.ParseContext(s)
		if err != nil {
			slog.Debug("dropping invalid secondary context", "value", s)
			continue
		}
		secondary = append(secondary, parsed)
	}

	return model.Classification{
		ReceivedAt:         time.Now(),
		Primary:            primary,
		Secondary:          secondary,
		Entities:           resp.EntitiesDetected,
		SituationInference: resp.SituationInference,
		Confidence:         resp.ConfidenceScore,
	}, nil
}

// entityPhrasesResponse mirrors the structured output schema for phrase
// generation.
type entityPhrasesResponse struct {
	Phrases []struct {
		Label string `json:"label"`
		Speak string `json:"speak"`
		Emoji string `json:"emoji"`
	} `json:"phrases"`
}

func entityPhrasesSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"phrases": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"label": {Type: genai.TypeString},
						"speak": {Type: genai.TypeString},
						"emoji": {Type: genai.TypeString},
					},
					Required: []string{"label", "speak"},
				},
			},
		},
		Required: []string{"phrases"},
	}
}

// EntityPhrases generates short speakable phrases about a focused entity.
func (c *Classifier) EntityPhrases(ctx context.Context, entity, situation string) ([]model.DisplayTile, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are helping a non-verbal child communicate about something they are looking at.

The child is focused on: %s
Current situation: %s

Generate 4 to 6 short phrases the child might want to say about it. Each phrase needs:
- "label": 1-4 words shown on a button
- "speak": the full sentence spoken aloud, in a child's first-person voice
- "emoji": one emoji for the button

Keep the language simple, positive, and age-appropriate for a young child.`, entity, situation)

	parts := []*genai.Part{genai.NewPartFromText(prompt)}

	var tiles []model.DisplayTile

	err := common.WithRetry(ctx, func() error {
		text, err := c.client.GenerateJSON(ctx, parts, entityPhrasesSchema())
		if err != nil {
			c.logger.Warn("entity phrase generation attempt failed",
				"error", err,
				"entity", entity)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		var resp entityPhrasesResponse
		if !extract.Unmarshal(text, &resp) {
			return &common.RetryableError{
				Err:       fmt.Errorf("no JSON object in phrase response"),
				Retryable: true,
			}
		}
		if len(resp.Phrases) == 0 {
			return &common.RetryableError{
				Err:       fmt.Errorf("no phrases returned for %q", entity),
				Retryable: true,
			}
		}

		tiles = tiles[:0]
		for i, p := range resp.Phrases {
			speak := p.Speak
			if speak == "" {
				speak = p.Label
			}
			tiles = append(tiles, model.DisplayTile{
				ID:             fmt.Sprintf("entity_phrase_%d", i+1),
				Text:           p.Label,
				Speak:          speak,
				Emoji:          p.Emoji,
				IsSuggested:    true,
				RelevanceScore: 90 - i*5,
			})
		}
		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("entity phrase generation failed: %w", err)
	}

	return tiles, nil
}

// Close releases the classifier's background resources.
func (c *Classifier) Close() error {
	c.cache.Close()
	c.rateLimiter.Close()
	return c.client.Close()
}

// frameKey hashes frame bytes for cache lookup.
func frameKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
