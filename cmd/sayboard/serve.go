package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sayboard/sayboard/internal/config"
	"github.com/sayboard/sayboard/internal/engine"
	"github.com/sayboard/sayboard/internal/frames"
	"github.com/sayboard/sayboard/internal/live"
	"github.com/sayboard/sayboard/internal/llm"
	"github.com/sayboard/sayboard/internal/model"
	"github.com/sayboard/sayboard/internal/places"
	"github.com/sayboard/sayboard/internal/service"
	"github.com/sayboard/sayboard/internal/speech"
	"github.com/sayboard/sayboard/internal/stabilizer"
	"github.com/sayboard/sayboard/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the full classification session",
		Long: `Run the capture-classify-stabilize loop until interrupted.

Frames come from --frames (a directory served in order) or --still (one image
repeated). The live channel is used when a Gemini API key is configured;
otherwise, and whenever the channel drops, classification falls back to
discrete REST calls.

Examples:
  sayboard serve --frames ./session-frames
  sayboard serve --still kitchen.jpg --no-live
  sayboard serve --frames ./f --lat 40.78 --lng -73.97`,
		RunE: runServe,
	}

	cmd.Flags().String("frames", "", "directory of frames to serve in order")
	cmd.Flags().String("still", "", "single image to serve repeatedly")
	cmd.Flags().Bool("no-live", false, "disable the live channel")
	cmd.Flags().Float64("lat", 0, "starting latitude for place resolution")
	cmd.Flags().Float64("lng", 0, "starting longitude for place resolution")

	_ = viper.BindPFlag("capture.frames_dir", cmd.Flags().Lookup("frames"))
	_ = viper.BindPFlag("capture.still", cmd.Flags().Lookup("still"))
	_ = viper.BindPFlag("live.disabled", cmd.Flags().Lookup("no-live"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app := config.Load()

	if app.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required (set SAYBOARD_GEMINI_API_KEY or gemini.api_key)")
	}

	source, err := openFrameSource()
	if err != nil {
		return err
	}

	classifier, err := llm.NewClassifier(ctx, llm.Config{
		APIKey: app.Gemini.APIKey,
		Model:  app.Gemini.Model,
	}, slog.Default())
	if err != nil {
		return err
	}

	mirror, err := storage.NewSQLiteMirror(app.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open mirror database: %w", err)
	}
	if err := mirror.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	player := speech.NewPlayer(speech.DefaultSampleRate)
	defer func() {
		if closeErr := player.Close(); closeErr != nil {
			slog.Warn("Failed to close audio player", "error", closeErr)
		}
	}()

	deps := engine.Deps{
		Frames:     source,
		Classifier: classifier,
		Synth:      speech.NewLocalSynthesizer(),
		Mirror:     mirror,
	}
	if app.PlacesAPIKey != "" {
		finder, placesErr := places.NewClient(app.PlacesAPIKey, 0)
		if placesErr != nil {
			return placesErr
		}
		deps.Places = finder
	}

	eng, err := engine.New(engine.Config{
		Stabilizer: stabilizer.Config{
			DebounceThreshold: app.DebounceCount,
			DebounceInterval:  app.DebounceInterval,
			GridSize:          app.GridSize,
		},
		FrameInterval: app.FrameInterval,
	}, deps, engine.Callbacks{
		OnState: logTransitions(),
		OnPrompt: func(a model.Affirmation, c model.Classification) {
			slog.Info("context needs affirmation",
				"context", c.Primary,
				"confidence", c.Confidence,
				"method", a.Method)
		},
		OnAudio: func(pcm []byte) {
			if playErr := player.Play(ctx, pcm); playErr != nil {
				slog.Warn("audio playback failed", "error", playErr)
			}
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := eng.Close(); closeErr != nil {
			slog.Error("Failed to close engine", "error", closeErr)
		}
	}()

	if !app.DisableLive {
		client, liveErr := live.NewClient(live.Config{
			APIKey: app.Gemini.APIKey,
			Model:  app.Gemini.LiveModel,
		}, eng.LiveEvents())
		if liveErr != nil {
			return liveErr
		}
		eng.AttachLive(client)
	}

	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	if deps.Places != nil && (lat != 0 || lng != 0) {
		if locErr := eng.ResolveLocation(ctx, model.LatLng{Latitude: lat, Longitude: lng}); locErr != nil {
			slog.Warn("initial place resolution failed", "error", locErr)
		}
	}

	slog.Info("Starting session")
	return eng.Run(ctx)
}

func openFrameSource() (service.FrameSource, error) {
	if dir := viper.GetString("capture.frames_dir"); dir != "" {
		return frames.NewDirSource(dir)
	}
	if still := viper.GetString("capture.still"); still != "" {
		return frames.NewStillSource(still)
	}
	return nil, fmt.Errorf("a frame source is required: --frames or --still")
}

// logTransitions reports context changes without spamming a line per state
// update.
func logTransitions() func(stabilizer.State) {
	var last string
	return func(st stabilizer.State) {
		current := string(st.Context.Current)
		if current == last {
			return
		}
		last = current

		confidence := 0.0
		if st.Context.Classification != nil {
			confidence = st.Context.Classification.Confidence
		}
		slog.Info("context changed",
			"context", current,
			"confidence", confidence,
			"tiles", len(st.DisplayTiles()),
			"at", time.Now().Format(time.TimeOnly))
	}
}
