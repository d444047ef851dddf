package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sayboard/sayboard/internal/config"
	"github.com/sayboard/sayboard/internal/service"
	"github.com/sayboard/sayboard/internal/speech"
	"github.com/spf13/cobra"
)

func speakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speak <text>...",
		Short: "Speak a phrase aloud",
		Long: `Synthesize and play a phrase, the same path a tile tap takes outside a
live session. With --tts the Gemini TTS model generates the audio and the raw
PCM is written to --out; otherwise the platform speech command plays it
directly.

Examples:
  sayboard speak I want more please
  sayboard speak --tts --out phrase.pcm "Look, a dog!"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSpeak,
	}

	cmd.Flags().Bool("tts", false, "use the Gemini TTS model instead of the local command")
	cmd.Flags().String("out", "", "file to write PCM audio to (with --tts)")

	return cmd
}

func runSpeak(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text := strings.Join(args, " ")
	useTTS, _ := cmd.Flags().GetBool("tts")
	out, _ := cmd.Flags().GetString("out")

	var synth service.Synthesizer
	if useTTS {
		app := config.Load()
		if app.Gemini.APIKey == "" {
			return fmt.Errorf("gemini API key is required for --tts")
		}
		gemini, err := speech.NewGeminiSynthesizer(ctx, app.Gemini.APIKey, app.Gemini.TTSModel, app.Gemini.Voice)
		if err != nil {
			return err
		}
		synth = gemini
	} else {
		synth = speech.NewLocalSynthesizer()
	}

	audio, err := synth.Speak(ctx, text)
	if err != nil {
		return err
	}

	if audio != nil && out != "" {
		if err := os.WriteFile(out, audio, 0600); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
		fmt.Printf("wrote %d bytes of %dHz PCM to %s\n", len(audio), speech.DefaultSampleRate, out)
	}
	return nil
}
