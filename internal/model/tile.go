package model

import "time"

// TileAction tags tiles that perform an action instead of (or in addition to)
// speaking their phrase.
type TileAction string

// Tile actions.
const (
	ActionExpandGrid TileAction = "expand_grid"
	ActionNavigate   TileAction = "navigate"
)

// TileDefinition is a static phrase template owned by the catalog. Speak is
// empty for tiles that only perform an action. Definitions are never mutated
// at runtime.
type TileDefinition struct {
	ID         string
	Label      string
	Speak      string
	Emoji      string
	Action     TileAction
	Priority   int
	AlwaysShow bool
}

// ScoreReason records why a candidate tile was considered for a grid.
type ScoreReason string

// Score reasons.
const (
	ReasonCore         ScoreReason = "core"
	ReasonContextMatch ScoreReason = "context_match"
	ReasonCustom       ScoreReason = "custom"
	ReasonFallback     ScoreReason = "fallback"
)

// ScoredTile is a catalog tile annotated with a relevance score during grid
// generation. Ephemeral: recomputed on every generation call.
type ScoredTile struct {
	Tile   TileDefinition
	Reason ScoreReason
	Score  int
}

// GridTile is a ScoredTile placed into the grid layout.
type GridTile struct {
	TileDefinition
	RelevanceScore int
	Position       int
	Row            int
	Col            int
}

// Grid is an immutable, ranked, laid-out set of tiles generated for one
// context. The ID is fresh per generation; two generations with identical
// inputs differ only in ID and GeneratedAt.
type Grid struct {
	GeneratedAt time.Time
	ID          string
	Context     ContextType
	Tiles       []GridTile
	Size        int
}

// DisplayTile is the UI-facing projection of a tile: exactly what a renderer
// needs and nothing else.
type DisplayTile struct {
	ID             string
	Text           string
	Speak          string
	Emoji          string
	IsCore         bool
	IsSuggested    bool
	RelevanceScore int
}

// Display projects a GridTile for rendering.
func (t GridTile) Display() DisplayTile {
	return DisplayTile{
		ID:             t.ID,
		Text:           t.Label,
		Speak:          t.Speak,
		Emoji:          t.Emoji,
		IsCore:         t.AlwaysShow,
		RelevanceScore: t.RelevanceScore,
	}
}

// Display projects a TileDefinition for rendering, using its static priority
// as the relevance score.
func (t TileDefinition) Display() DisplayTile {
	return DisplayTile{
		ID:             t.ID,
		Text:           t.Label,
		Speak:          t.Speak,
		Emoji:          t.Emoji,
		IsCore:         t.AlwaysShow,
		RelevanceScore: t.Priority,
	}
}

// ContextTiles returns the non-core tiles of a grid as display tiles. Core
// tiles are rendered from their own fixed bar, so they are filtered here to
// avoid duplicates.
func (g Grid) ContextTiles() []DisplayTile {
	out := make([]DisplayTile, 0, len(g.Tiles))
	for _, t := range g.Tiles {
		if t.AlwaysShow {
			continue
		}
		out = append(out, t.Display())
	}
	return out
}
