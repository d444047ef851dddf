package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sayboard/sayboard/internal/model"
)

// RenderGrid draws a generated grid as rows of bordered tiles.
func RenderGrid(g model.Grid) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Grid for %s", g.Context.Format())))
	b.WriteString("\n")

	tiles := make([]model.DisplayTile, len(g.Tiles))
	for i, t := range g.Tiles {
		tiles[i] = t.Display()
	}

	cols := 3
	if g.Size > 9 {
		cols = 4
	}
	b.WriteString(RenderTiles(tiles, cols))
	return b.String()
}

// RenderTiles draws display tiles in a fixed-column layout.
func RenderTiles(tiles []model.DisplayTile, cols int) string {
	if cols <= 0 {
		cols = 3
	}

	var rows []string
	for start := 0; start < len(tiles); start += cols {
		end := start + cols
		if end > len(tiles) {
			end = len(tiles)
		}

		cells := make([]string, 0, end-start)
		for _, t := range tiles[start:end] {
			cells = append(cells, renderTile(t))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func renderTile(t model.DisplayTile) string {
	label := t.Text
	if t.Emoji != "" {
		label = t.Emoji + " " + label
	}

	switch {
	case t.IsCore:
		return CoreTileStyle.Render(label)
	case t.IsSuggested:
		return SuggestedTileStyle.Render(label)
	default:
		return ContextTileStyle.Render(label)
	}
}

// RenderClassification summarizes one classification result.
func RenderClassification(c model.Classification) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n",
		TitleStyle.Render("Context:"),
		c.Primary.Format()))
	b.WriteString(fmt.Sprintf("Confidence: %.2f\n", c.Confidence))
	if len(c.Secondary) > 0 {
		names := make([]string, len(c.Secondary))
		for i, s := range c.Secondary {
			names[i] = string(s)
		}
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("Also possible: %s", strings.Join(names, ", "))))
		b.WriteString("\n")
	}
	if len(c.Entities) > 0 {
		b.WriteString(fmt.Sprintf("Entities: %s\n", strings.Join(c.Entities, ", ")))
	}
	if c.SituationInference != "" {
		b.WriteString(fmt.Sprintf("Situation: %s\n", c.SituationInference))
	}
	return b.String()
}

// RenderPrompt draws the affirmation UI that a classification requires.
func RenderPrompt(a model.Affirmation) string {
	if a.Affirmed || a.UI == nil {
		name := "unknown"
		if a.FinalContext != nil {
			name = a.FinalContext.Format()
		}
		return SuccessStyle.Render(fmt.Sprintf("Affirmed: %s", name))
	}

	var b strings.Builder
	b.WriteString(WarningStyle.Render(a.UI.Prompt))
	b.WriteString("\n")
	for i, opt := range a.UI.Options {
		label := opt.Label
		if opt.Icon != "" {
			label = opt.Icon + " " + label
		}
		b.WriteString(fmt.Sprintf("  %d) %s\n", i+1, label))
	}
	return b.String()
}
