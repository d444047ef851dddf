// Package grid generates ranked, laid-out tile grids from a context and the
// entities currently in view. Generation is a full recomputation every call;
// apart from the grid id and timestamp, identical inputs produce identical
// output.
package grid

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sayboard/sayboard/internal/catalog"
	"github.com/sayboard/sayboard/internal/model"
)

// Scoring constants. Entity matches add a single boost; multiple matching
// entities do not stack.
const (
	coreScore    = 200
	entityBoost  = 50
	adhocScore   = 80
	adhocPrio    = 8
	priorityStep = 10
)

// Request describes one grid generation call.
type Request struct {
	Context   model.ContextType
	Entities  []string
	Situation string
	Size      int
}

// Generate builds a grid for the request. Candidates are seeded from core
// tiles, the context's tile set (entity-boosted where applicable), and ad-hoc
// observation tiles for entities with no catalog mapping.
func Generate(req Request) model.Grid {
	size := req.Size
	if size <= 0 {
		size = 9
	}

	normalized := make([]string, 0, len(req.Entities))
	for _, e := range req.Entities {
		if n := catalog.NormalizeEntity(e); n != "" {
			normalized = append(normalized, n)
		}
	}

	candidates := make([]model.ScoredTile, 0, len(catalog.CoreTiles)+16)

	for _, tile := range catalog.CoreTiles {
		candidates = append(candidates, model.ScoredTile{Tile: tile, Score: coreScore, Reason: model.ReasonCore})
	}

	for _, tile := range catalog.SetFor(req.Context) {
		score := tile.Priority * priorityStep
		for _, entity := range normalized {
			if containsID(catalog.BoostedTiles(entity), tile.ID) {
				score += entityBoost
				break
			}
		}
		candidates = append(candidates, model.ScoredTile{Tile: tile, Score: score, Reason: model.ReasonContextMatch})
	}

	// Observation tiles for entities the catalog does not know about,
	// deduplicated by entity name within this call.
	seen := make(map[string]bool)
	for _, entity := range normalized {
		if catalog.BoostedTiles(entity) != nil || seen[entity] {
			continue
		}
		seen[entity] = true
		display := strings.ReplaceAll(entity, "_", " ")
		candidates = append(candidates, model.ScoredTile{
			Tile: model.TileDefinition{
				ID:       "adhoc_" + entity,
				Label:    "Look, " + display + "!",
				Speak:    "Look! I see a " + display + "!",
				Emoji:    "👀",
				Priority: adhocPrio,
			},
			Score:  adhocScore,
			Reason: model.ReasonCustom,
		})
	}

	// Stable keeps catalog order for ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > size {
		candidates = candidates[:size]
	}

	cols := 3
	if size > 9 {
		cols = 4
	}

	tiles := make([]model.GridTile, len(candidates))
	for i, c := range candidates {
		tiles[i] = model.GridTile{
			TileDefinition: c.Tile,
			RelevanceScore: c.Score,
			Position:       i,
			Row:            i / cols,
			Col:            i % cols,
		}
	}

	return model.Grid{
		ID:          uuid.NewString(),
		Context:     req.Context,
		Tiles:       tiles,
		Size:        size,
		GeneratedAt: time.Now(),
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
