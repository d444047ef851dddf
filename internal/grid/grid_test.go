package grid

import (
	"testing"

	"github.com/sayboard/sayboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tileIDs(g model.Grid) []string {
	ids := make([]string, len(g.Tiles))
	for i, t := range g.Tiles {
		ids[i] = t.ID
	}
	return ids
}

func findTile(g model.Grid, id string) (model.GridTile, bool) {
	for _, t := range g.Tiles {
		if t.ID == id {
			return t, true
		}
	}
	return model.GridTile{}, false
}

func TestGenerateDeterministic(t *testing.T) {
	req := Request{
		Context:  model.ContextPlayground,
		Entities: []string{"swing", "dog"},
		Size:     9,
	}

	first := Generate(req)
	second := Generate(req)

	assert.Equal(t, tileIDs(first), tileIDs(second), "same inputs must produce the same ordering")
	for i := range first.Tiles {
		assert.Equal(t, first.Tiles[i].RelevanceScore, second.Tiles[i].RelevanceScore)
		assert.Equal(t, first.Tiles[i].Position, second.Tiles[i].Position)
	}
	assert.NotEqual(t, first.ID, second.ID, "each generation gets its own id")
}

func TestGenerateCoreTilesAlwaysPresent(t *testing.T) {
	contexts := []model.ContextType{
		model.ContextPlayground,
		model.ContextRestaurantCounter,
		model.ContextHomeKitchen,
		model.ContextUnknown,
		model.ContextClassroom, // no authored set
	}

	for _, ctx := range contexts {
		g := Generate(Request{Context: ctx, Size: 9})
		ids := tileIDs(g)
		assert.Contains(t, ids, "core_yes", "context %s", ctx)
		assert.Contains(t, ids, "core_no", "context %s", ctx)
		assert.Contains(t, ids, "core_help", "context %s", ctx)
		assert.Contains(t, ids, "core_more", "context %s", ctx)

		// Core tiles outrank everything.
		for i := 0; i < 4; i++ {
			assert.Equal(t, coreScore, g.Tiles[i].RelevanceScore)
		}
	}
}

func TestGenerateEntityBoost(t *testing.T) {
	plain := Generate(Request{Context: model.ContextPlayground, Size: 20})
	boosted := Generate(Request{
		Context:  model.ContextPlayground,
		Entities: []string{"swing"},
		Size:     20,
	})

	plainTile, ok := findTile(plain, "pg_3")
	require.True(t, ok)
	boostedTile, ok := findTile(boosted, "pg_3")
	require.True(t, ok)

	assert.Equal(t, plainTile.RelevanceScore+entityBoost, boostedTile.RelevanceScore)

	// pg_3 (priority 8, boosted to 130) must now outrank pg_1 (priority 10,
	// score 100).
	pos3 := boostedTile.Position
	pg1, ok := findTile(boosted, "pg_1")
	require.True(t, ok)
	assert.Less(t, pos3, pg1.Position, "boosted tile ranks above the highest-priority unboosted tile")
}

func TestGenerateEntityBoostDoesNotStack(t *testing.T) {
	// Both swing and slide boost pg_2; the boost applies once.
	g := Generate(Request{
		Context:  model.ContextPlayground,
		Entities: []string{"swing", "slide"},
		Size:     20,
	})

	tile, ok := findTile(g, "pg_2")
	require.True(t, ok)
	assert.Equal(t, 9*priorityStep+entityBoost, tile.RelevanceScore)
}

func TestGenerateAdhocTiles(t *testing.T) {
	g := Generate(Request{
		Context:  model.ContextPlayground,
		Entities: []string{"dog", "Dog", "dog"},
		Size:     20,
	})

	count := 0
	for _, tile := range g.Tiles {
		if tile.ID == "adhoc_dog" {
			count++
			assert.Equal(t, "Look, dog!", tile.Label)
			assert.Equal(t, adhocScore, tile.RelevanceScore)
		}
	}
	assert.Equal(t, 1, count, "repeated unknown entities produce one tile")
}

func TestGenerateSizeAndLayout(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		wantCols int
	}{
		{name: "default nine uses three columns", size: 9, wantCols: 3},
		{name: "twelve uses four columns", size: 12, wantCols: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Generate(Request{
				Context:  model.ContextPlayground,
				Entities: []string{"dog", "ball"},
				Size:     tt.size,
			})

			assert.LessOrEqual(t, len(g.Tiles), tt.size)
			for _, tile := range g.Tiles {
				assert.Equal(t, tile.Position/tt.wantCols, tile.Row)
				assert.Equal(t, tile.Position%tt.wantCols, tile.Col)
			}
		})
	}
}

func TestGenerateUnauthoredContextFallsBack(t *testing.T) {
	g := Generate(Request{Context: model.ContextClassroom, Size: 9})

	ids := tileIDs(g)
	assert.Contains(t, ids, "feel_1", "contexts without authored tiles use the feelings set")
	assert.NotEmpty(t, g.ContextTiles())
}

func TestGenerateScoresDescending(t *testing.T) {
	g := Generate(Request{
		Context:  model.ContextRestaurantCounter,
		Entities: []string{"menu", "dog"},
		Size:     12,
	})

	for i := 1; i < len(g.Tiles); i++ {
		assert.GreaterOrEqual(t, g.Tiles[i-1].RelevanceScore, g.Tiles[i].RelevanceScore)
	}
}
