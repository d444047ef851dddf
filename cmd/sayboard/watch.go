package main

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sayboard/sayboard/internal/config"
	"github.com/sayboard/sayboard/internal/storage"
	"github.com/sayboard/sayboard/internal/tui"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Observe a running session",
		Long: `Open a terminal view of the mirror database: current context, confidence,
connection mode, and recent classification history. Run it alongside
'sayboard serve' to see what the stabilizer is doing.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app := config.Load()

	mirror, err := storage.NewSQLiteMirror(app.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open mirror database: %w", err)
	}
	defer func() {
		if closeErr := mirror.Close(); closeErr != nil {
			slog.Error("Failed to close mirror", "error", closeErr)
		}
	}()

	if err := mirror.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	program := tea.NewProgram(tui.NewWatchModel(ctx, mirror))
	_, err = program.Run()
	return err
}
