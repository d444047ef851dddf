package main

import (
	"fmt"
	"strings"

	"github.com/sayboard/sayboard/internal/cli"
	"github.com/sayboard/sayboard/internal/config"
	"github.com/sayboard/sayboard/internal/model"
	"github.com/sayboard/sayboard/internal/places"
	"github.com/spf13/cobra"
)

func placesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "places",
		Short: "Resolve coordinates to a place and context",
		Long: `Look up places near a GPS coordinate and show which communication context
they map to.

Example:
  sayboard places --lat 40.7812 --lng -73.9665`,
		RunE: runPlaces,
	}

	cmd.Flags().Float64("lat", 0, "latitude")
	cmd.Flags().Float64("lng", 0, "longitude")
	cmd.Flags().Float64("radius", 0, "search radius in meters (default 150)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func runPlaces(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app := config.Load()

	if app.PlacesAPIKey == "" {
		return fmt.Errorf("places API key is required (set SAYBOARD_PLACES_API_KEY or places.api_key)")
	}

	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	radius, _ := cmd.Flags().GetFloat64("radius")

	finder, err := places.NewClient(app.PlacesAPIKey, radius)
	if err != nil {
		return err
	}

	found, err := finder.Nearby(ctx, model.LatLng{Latitude: lat, Longitude: lng})
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no places found"))
		return nil
	}

	for _, p := range found {
		line := fmt.Sprintf("%-30s %s", p.Name, strings.Join(p.Types, ","))
		if mapped, ok := places.ContextForTypes(p.Types); ok {
			line += cli.SuccessStyle.Render(fmt.Sprintf("  -> %s", mapped))
		}
		fmt.Println(line)
	}

	if place, mapped, ok := places.BestContext(found); ok {
		fmt.Println()
		fmt.Println(cli.TitleStyle.Render(
			fmt.Sprintf("Session location: %s (%s)", place.Name, mapped.Format())))
	}
	return nil
}
