package live

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sayboard/sayboard/internal/extract"
	"github.com/sayboard/sayboard/internal/model"
)

// Outbound message shapes for the bidirectional streaming API.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model             string            `json:"model"`
	GenerationConfig  generationConfig  `json:"generationConfig"`
	SystemInstruction systemInstruction `json:"systemInstruction"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type systemInstruction struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtime_input"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"media_chunks"`
}

type mediaChunk struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type clientContentMessage struct {
	ClientContent clientContent `json:"client_content"`
}

type clientContent struct {
	Turns        []contentTurn `json:"turns"`
	TurnComplete bool          `json:"turn_complete"`
}

type contentTurn struct {
	Role  string     `json:"role"`
	Parts []textPart `json:"parts"`
}

func newSetupMessage(modelName, systemPrompt string) setupMessage {
	return setupMessage{
		Setup: setupPayload{
			Model: "models/" + modelName,
			GenerationConfig: generationConfig{
				ResponseModalities: []string{"AUDIO", "TEXT"},
			},
			SystemInstruction: systemInstruction{
				Parts: []textPart{{Text: systemPrompt}},
			},
		},
	}
}

func newMediaMessage(mimeType string, data []byte) realtimeInputMessage {
	return realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(data),
			}},
		},
	}
}

func newTextMessage(text string) clientContentMessage {
	return clientContentMessage{
		ClientContent: clientContent{
			Turns: []contentTurn{{
				Role:  "user",
				Parts: []textPart{{Text: text}},
			}},
			TurnComplete: true,
		},
	}
}

// Inbound message shapes.

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete"`
	ServerContent *serverContent `json:"serverContent"`
}

type serverContent struct {
	ModelTurn *modelTurn `json:"modelTurn"`
}

type modelTurn struct {
	Parts []serverPart `json:"parts"`
}

type serverPart struct {
	Text string `json:"text"`
}

// liveUpdate is the JSON payload the model embeds in its text responses.
type liveUpdate struct {
	Context *liveContext `json:"context"`
	Tiles   []liveTile   `json:"tiles"`
}

type liveContext struct {
	PrimaryContext     string   `json:"primaryContext"`
	ConfidenceScore    float64  `json:"confidenceScore"`
	SecondaryContexts  []string `json:"secondaryContexts"`
	EntitiesDetected   []string `json:"entitiesDetected"`
	SituationInference string   `json:"situationInference"`
}

type liveTile struct {
	ID             string  `json:"id"`
	Label          string  `json:"label"`
	Speak          string  `json:"tts"`
	Emoji          string  `json:"emoji"`
	RelevanceScore float64 `json:"relevanceScore"`
}

// decodeServerText extracts the model's text parts from a raw text frame.
// Partial or non-JSON frames return nothing; they are expected, not errors.
func decodeServerText(raw []byte) []string {
	var msg serverMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}
	if msg.ServerContent == nil || msg.ServerContent.ModelTurn == nil {
		return nil
	}
	texts := make([]string, 0, len(msg.ServerContent.ModelTurn.Parts))
	for _, p := range msg.ServerContent.ModelTurn.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return texts
}

// parseUpdate pulls a classification and tile set out of one model text part.
// The JSON may arrive bare, fenced, or buried in prose. Context labels are
// validated against the closed enum; a bad label drops the whole
// classification rather than forwarding garbage downstream. Secondary labels
// are filtered individually.
func parseUpdate(text string) (*model.Classification, []model.DisplayTile, bool) {
	var update liveUpdate
	if !extract.Unmarshal(text, &update) {
		return nil, nil, false
	}

	var classification *model.Classification
	if update.Context != nil {
		primary, err := model.ParseContext(update.Context.PrimaryContext)
		if err != nil {
			slog.Debug("dropping classification with invalid context label",
				"label", update.Context.PrimaryContext)
		} else {
			secondary := make([]model.ContextType, 0, len(update.Context.SecondaryContexts))
			for _, s := range update.Context.SecondaryContexts {
				if ct, err := model.ParseContext(s); err == nil {
					secondary = append(secondary, ct)
				}
			}
			classification = &model.Classification{
				ReceivedAt:         time.Now(),
				Primary:            primary,
				Secondary:          secondary,
				Entities:           update.Context.EntitiesDetected,
				SituationInference: update.Context.SituationInference,
				Confidence:         update.Context.ConfidenceScore,
			}
		}
	}

	var tiles []model.DisplayTile
	for _, t := range update.Tiles {
		if t.Label == "" {
			continue
		}
		tiles = append(tiles, model.DisplayTile{
			ID:             t.ID,
			Text:           t.Label,
			Speak:          t.Speak,
			Emoji:          t.Emoji,
			IsSuggested:    true,
			RelevanceScore: int(t.RelevanceScore),
		})
	}

	if classification == nil && len(tiles) == 0 {
		return nil, nil, false
	}
	return classification, tiles, true
}
