package main

import (
	"fmt"

	"github.com/sayboard/sayboard/internal/cli"
	"github.com/sayboard/sayboard/internal/grid"
	"github.com/sayboard/sayboard/internal/model"
	"github.com/spf13/cobra"
)

func gridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid <context>",
		Short: "Show the tile grid for a context",
		Long: `Generate and render the ranked tile grid for a context, optionally with
detected entities boosting their related tiles.

Examples:
  sayboard grid playground
  sayboard grid playground --entity swing --entity dog
  sayboard grid restaurant_counter --size 12`,
		Args: cobra.ExactArgs(1),
		RunE: runGrid,
	}

	cmd.Flags().StringArray("entity", nil, "detected entity (repeatable)")
	cmd.Flags().String("situation", "", "situation inference to attach")
	cmd.Flags().Int("size", 0, "grid size (default 9)")

	return cmd
}

func runGrid(cmd *cobra.Command, args []string) error {
	context, err := model.ParseContext(args[0])
	if err != nil {
		return fmt.Errorf("unknown context %q (one of %v)", args[0], model.AllContexts)
	}

	entities, _ := cmd.Flags().GetStringArray("entity")
	situation, _ := cmd.Flags().GetString("situation")
	size, _ := cmd.Flags().GetInt("size")

	g := grid.Generate(grid.Request{
		Context:   context,
		Entities:  entities,
		Situation: situation,
		Size:      size,
	})

	fmt.Println(cli.RenderGrid(g))
	return nil
}
