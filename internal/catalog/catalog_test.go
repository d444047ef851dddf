package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sayboard/sayboard/internal/model"
)

func TestNormalizeEntity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"swing", "swing"},
		{"Swing", "swing"},
		{"  Menu Board  ", "menu_board"},
		{"OTHER   CHILDREN", "other_children"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEntity(tt.in), "input %q", tt.in)
	}
}

func TestSetFor(t *testing.T) {
	set := SetFor(model.ContextPlayground)
	require.NotEmpty(t, set)
	for _, tile := range set {
		assert.True(t, strings.HasPrefix(tile.ID, "pg_"), "unexpected tile %q", tile.ID)
		assert.NotEmpty(t, tile.Label)
		assert.NotEmpty(t, tile.Speak)
	}
}

func TestSetForUnauthoredFallsBackToFeelings(t *testing.T) {
	fallback := SetFor(model.ContextClassroom)
	feelings := tileSets[model.ContextUnknown]
	assert.Equal(t, feelings, fallback)
}

func TestHasAuthoredSet(t *testing.T) {
	assert.True(t, HasAuthoredSet(model.ContextPlayground))
	assert.True(t, HasAuthoredSet(model.ContextRestaurantCounter))
	assert.True(t, HasAuthoredSet(model.ContextHomeKitchen))
	assert.True(t, HasAuthoredSet(model.ContextUnknown))
	assert.False(t, HasAuthoredSet(model.ContextClassroom))
	assert.False(t, HasAuthoredSet(model.ContextMedicalOffice))
}

func TestBoostedTiles(t *testing.T) {
	assert.Equal(t, []string{"pg_3", "pg_4", "pg_2"}, BoostedTiles("swing"))
	assert.Equal(t, BoostedTiles("swing"), BoostedTiles("swings"))
	assert.Nil(t, BoostedTiles("spaceship"))
}

func TestBoostedTileIDsExist(t *testing.T) {
	known := make(map[string]bool)
	for _, tile := range CoreTiles {
		known[tile.ID] = true
	}
	for _, set := range tileSets {
		for _, tile := range set {
			known[tile.ID] = true
		}
	}

	for entity, ids := range entityTileMap {
		for _, id := range ids {
			assert.True(t, known[id], "entity %q references unknown tile %q", entity, id)
		}
	}
}

func TestCoreTilesAlwaysShow(t *testing.T) {
	require.Len(t, CoreTiles, 4)
	for _, tile := range CoreTiles {
		assert.True(t, tile.AlwaysShow, "core tile %q must always show", tile.ID)
		assert.NotEmpty(t, tile.Label)
		if tile.Action == "" {
			assert.NotEmpty(t, tile.Speak)
		}
	}
}
