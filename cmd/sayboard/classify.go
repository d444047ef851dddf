package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sayboard/sayboard/internal/affirm"
	"github.com/sayboard/sayboard/internal/cli"
	"github.com/sayboard/sayboard/internal/config"
	"github.com/sayboard/sayboard/internal/frames"
	"github.com/sayboard/sayboard/internal/grid"
	"github.com/sayboard/sayboard/internal/llm"
	"github.com/sayboard/sayboard/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [image]",
		Short: "Classify a frame and show the resulting board",
		Long: `Run one frame (or a directory of frames) through the classifier and print
the context, the affirmation it would require, and the tile grid it produces.

Examples:
  sayboard classify kitchen.jpg
  sayboard classify --dir ./session-frames
  sayboard classify playground.jpg --place "Riverside Park"`,
		RunE: runClassifyCmd,
	}

	cmd.Flags().String("dir", "", "classify every image in a directory")
	cmd.Flags().String("place", "", "place name hint for the classifier")
	cmd.Flags().Int("size", 0, "grid size (default 9)")

	return cmd
}

func runClassifyCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app := config.Load()

	if app.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required (set SAYBOARD_GEMINI_API_KEY or gemini.api_key)")
	}

	dir, _ := cmd.Flags().GetString("dir")
	place, _ := cmd.Flags().GetString("place")
	size, _ := cmd.Flags().GetInt("size")

	classifier, err := llm.NewClassifier(ctx, llm.Config{
		APIKey: app.Gemini.APIKey,
		Model:  app.Gemini.Model,
	}, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := classifier.Close(); closeErr != nil {
			slog.Error("Failed to close classifier", "error", closeErr)
		}
	}()

	if dir != "" {
		return classifyDir(cmd, classifier, dir, place)
	}

	if len(args) != 1 {
		return fmt.Errorf("provide an image path or --dir")
	}

	source, err := frames.NewStillSource(args[0])
	if err != nil {
		return err
	}
	frame, err := source.Next(ctx)
	if err != nil {
		return err
	}

	classification, err := classifier.ClassifyFrame(ctx, frame, place)
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderClassification(classification))
	fmt.Println(cli.RenderPrompt(affirm.Context(classification)))
	fmt.Println(cli.RenderGrid(grid.Generate(grid.Request{
		Context:   classification.Primary,
		Entities:  classification.Entities,
		Situation: classification.SituationInference,
		Size:      size,
	})))
	return nil
}

func classifyDir(cmd *cobra.Command, classifier service.Classifier, dir, place string) error {
	ctx := cmd.Context()

	source, err := frames.NewDirSource(dir)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(source.Len(),
		progressbar.OptionSetDescription("classifying frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	counts := make(map[string]int)
	for {
		frame, nextErr := source.Next(ctx)
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return nextErr
		}

		classification, classifyErr := classifier.ClassifyFrame(ctx, frame, place)
		if classifyErr != nil {
			slog.Warn("frame classification failed", "error", classifyErr)
			continue
		}
		counts[string(classification.Primary)]++
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Fprintln(os.Stdout, cli.TitleStyle.Render("Classification summary"))
	for context, n := range counts {
		fmt.Fprintf(os.Stdout, "  %-20s %d\n", context, n)
	}
	return nil
}
