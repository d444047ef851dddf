// Package speech turns tile text into audible output. In live mode the
// streaming channel speaks for us; these synthesizers cover discrete mode
// and local testing.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"google.golang.org/genai"
)

// GeminiSynthesizer generates speech audio through the Gemini TTS models.
// Speak returns 24kHz 16-bit mono PCM for the audio sink.
type GeminiSynthesizer struct {
	client *genai.Client
	model  string
	voice  string
}

// NewGeminiSynthesizer creates a TTS client. Model defaults to the flash TTS
// preview and voice to a child-friendly preset.
func NewGeminiSynthesizer(ctx context.Context, apiKey, model, voice string) (*GeminiSynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("TTS API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash-preview-tts"
	}
	if voice == "" {
		voice = "Puck"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	return &GeminiSynthesizer{client: client, model: model, voice: voice}, nil
}

// Speak synthesizes the text and returns the raw PCM audio.
func (s *GeminiSynthesizer) Speak(ctx context.Context, text string) ([]byte, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: s.voice,
				},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("speech synthesis returned no audio")
}

// LocalSynthesizer shells out to the platform speech command. It performs
// playback itself and returns nil audio.
type LocalSynthesizer struct {
	command string
}

// NewLocalSynthesizer picks the platform speech binary.
func NewLocalSynthesizer() *LocalSynthesizer {
	command := "espeak"
	if runtime.GOOS == "darwin" {
		command = "say"
	}
	return &LocalSynthesizer{command: command}
}

// Speak runs the speech command and blocks until playback finishes.
func (s *LocalSynthesizer) Speak(ctx context.Context, text string) ([]byte, error) {
	if _, err := exec.LookPath(s.command); err != nil {
		slog.Warn("speech command not found, printing instead", "command", s.command)
		fmt.Printf("[speak] %s\n", text)
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, s.command, text)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("speech command failed: %w", err)
	}
	return nil, nil
}
