package main

import (
	"fmt"
	"log/slog"

	"github.com/sayboard/sayboard/internal/config"
	"github.com/sayboard/sayboard/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run mirror database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			if err := mirror.Migrate(cmd.Context()); err != nil {
				return err
			}
			slog.Info("Migrations complete", "path", app.DatabasePath)
			return nil
		},
	}
}
