package stabilizer

import (
	"testing"
	"time"

	"github.com/sayboard/sayboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classified(ctx model.ContextType, confidence float64) Classified {
	return Classified{Classification: model.Classification{
		ReceivedAt: time.Now(),
		Primary:    ctx,
		Confidence: confidence,
	}}
}

func testConfig() Config {
	return Config{
		DebounceThreshold:    3,
		DebounceInterval:     100 * time.Millisecond,
		ShiftThreshold:       3,
		MajorShiftConfidence: 0.8,
		GridSize:             9,
	}
}

func TestDebounceSuppressesFlicker(t *testing.T) {
	cfg := testConfig()
	s := State{}

	// A, B, A, A, A: the lone B resets the run; A satisfies the threshold
	// only after three consecutive frames.
	sequence := []model.ContextType{
		model.ContextPlayground,
		model.ContextRestaurantCounter,
		model.ContextPlayground,
		model.ContextPlayground,
	}
	for _, ctx := range sequence {
		s = Reduce(cfg, s, classified(ctx, 0.9))
		assert.False(t, s.Context.TransitionPending, "no transition before the threshold")
	}

	s = Reduce(cfg, s, classified(model.ContextPlayground, 0.9))
	assert.True(t, s.Context.TransitionPending)
	assert.Equal(t, model.ContextPlayground, s.PendingContext)
	assert.False(t, s.Context.HasCurrent, "tiles do not change until the debounce timer applies")
}

func TestDebounceSingleFrameNeverApplies(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, classified(model.ContextPlayground, 0.95))
	assert.Equal(t, 1, s.ContextDebounceCount)
	assert.False(t, s.Context.TransitionPending)

	// Differing frame repoints the run rather than extending it.
	s = Reduce(cfg, s, classified(model.ContextHomeKitchen, 0.95))
	assert.Equal(t, model.ContextHomeKitchen, s.PendingContext)
	assert.Equal(t, 1, s.ContextDebounceCount)
}

func TestDifferingFrameWithdrawsPendingTransition(t *testing.T) {
	cfg := testConfig()
	s := State{}

	for i := 0; i < 3; i++ {
		s = Reduce(cfg, s, classified(model.ContextPlayground, 0.9))
	}
	require.True(t, s.Context.TransitionPending)

	// A single differing frame repoints the run and withdraws the pending
	// transition; a timer firing now must not install the new label.
	s = Reduce(cfg, s, classified(model.ContextHomeKitchen, 0.9))
	assert.False(t, s.Context.TransitionPending)
	assert.Equal(t, model.ContextHomeKitchen, s.PendingContext)
	assert.Equal(t, 1, s.ContextDebounceCount)

	s = Reduce(cfg, s, ApplyPending{})
	assert.NotEqual(t, model.ContextHomeKitchen, s.Context.Current)
	assert.False(t, s.Context.HasCurrent)
}

func TestApplyPendingInstallsContext(t *testing.T) {
	cfg := testConfig()
	s := State{}

	for i := 0; i < 3; i++ {
		s = Reduce(cfg, s, classified(model.ContextPlayground, 0.9))
	}
	require.True(t, s.Context.TransitionPending)

	s = Reduce(cfg, s, ApplyPending{})

	assert.Equal(t, model.ContextPlayground, s.Context.Current)
	assert.True(t, s.Context.HasCurrent)
	assert.False(t, s.Context.TransitionPending)
	assert.Empty(t, s.PendingContext)
	assert.Zero(t, s.ContextDebounceCount)
	assert.NotEmpty(t, s.ContextTiles)

	require.NotNil(t, s.Notification)
	assert.Equal(t, model.NotifyContextChanged, s.Notification.Type)
}

func TestApplyPendingWithoutTransitionIsNoop(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, ApplyPending{})
	assert.False(t, s.Context.HasCurrent)
	assert.Empty(t, s.ContextTiles)
}

func TestLockIsolatesVisibleContext(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, Lock{Context: model.ContextHomeKitchen})
	require.True(t, s.ContextLocked)
	require.Equal(t, model.ContextHomeKitchen, s.Context.Current)

	// High-confidence different context: background tracking plus the shift
	// flag, never an automatic switch.
	s = Reduce(cfg, s, classified(model.ContextPlayground, 0.85))
	assert.Equal(t, model.ContextHomeKitchen, s.Context.Current)
	assert.Equal(t, model.ContextPlayground, s.BackgroundContext)
	assert.InDelta(t, 0.85, s.BackgroundConfidence, 1e-9)
	assert.True(t, s.MajorShiftDetected)
}

func TestLockBelowConfidenceNoShiftFlag(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, Lock{Context: model.ContextHomeKitchen})
	s = Reduce(cfg, s, classified(model.ContextPlayground, 0.79))

	assert.False(t, s.MajorShiftDetected)
	assert.Equal(t, model.ContextPlayground, s.BackgroundContext, "background still tracks")
}

func TestLockSameContextNoShiftFlag(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, Lock{Context: model.ContextHomeKitchen})
	s = Reduce(cfg, s, classified(model.ContextHomeKitchen, 0.99))

	assert.False(t, s.MajorShiftDetected)
}

func TestUnlockClearsBackgroundTracking(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, Lock{Context: model.ContextHomeKitchen})
	s = Reduce(cfg, s, classified(model.ContextPlayground, 0.9))
	require.True(t, s.MajorShiftDetected)

	tilesBefore := s.ContextTiles
	s = Reduce(cfg, s, Unlock{})

	assert.False(t, s.ContextLocked)
	assert.Empty(t, s.BackgroundContext)
	assert.Zero(t, s.BackgroundConfidence)
	assert.False(t, s.MajorShiftDetected)
	assert.Equal(t, tilesBefore, s.ContextTiles, "tiles stay until the next cycle")
}

func TestSessionShiftHysteresis(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, SetSessionLocation{
		PlaceName: "Shake Shack",
		AreaName:  "Madison Square Park",
		Context:   model.ContextRestaurantCounter,
	})

	// Same category (restaurant_table) never counts as a shift.
	s = Reduce(cfg, s, classified(model.ContextRestaurantTable, 0.95))
	assert.Zero(t, s.ShiftCounter)

	// Two high-confidence different-category frames are not enough.
	s = Reduce(cfg, s, classified(model.ContextPlayground, 0.9))
	s = Reduce(cfg, s, classified(model.ContextPlayground, 0.9))
	assert.Equal(t, 2, s.ShiftCounter)
	assert.False(t, s.ShiftRefetchNeeded)

	// A low-confidence frame resets the counter.
	s = Reduce(cfg, s, classified(model.ContextPlayground, 0.5))
	assert.Zero(t, s.ShiftCounter)

	// Three in a row confirm the shift.
	for i := 0; i < 3; i++ {
		s = Reduce(cfg, s, classified(model.ContextPlayground, 0.9))
	}
	assert.True(t, s.MajorShiftDetected)
	assert.True(t, s.ShiftRefetchNeeded)
	assert.Equal(t, model.ContextPlayground, s.PendingShiftContext)

	s = Reduce(cfg, s, ShiftHandled{})
	assert.Zero(t, s.ShiftCounter)
	assert.False(t, s.MajorShiftDetected)
	assert.False(t, s.ShiftRefetchNeeded)
}

func TestSessionShiftRequiresSessionLocation(t *testing.T) {
	cfg := testConfig()
	s := State{}

	for i := 0; i < 5; i++ {
		s = Reduce(cfg, s, classified(model.ContextPlayground, 0.95))
	}
	assert.Zero(t, s.ShiftCounter)
	assert.False(t, s.ShiftRefetchNeeded)
}

func TestFallbackAlwaysYieldsTiles(t *testing.T) {
	cfg := testConfig()
	s := State{IsLoading: true}

	s = Reduce(cfg, s, Fallback{})

	assert.Equal(t, model.ContextUnknown, s.Context.Current)
	assert.True(t, s.Context.HasCurrent)
	assert.NotEmpty(t, s.ContextTiles)
	assert.False(t, s.IsLoading)
	require.NotNil(t, s.Notification)
}

func TestLiveTilesIgnoredWhileLocked(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, Lock{Context: model.ContextHomeKitchen})
	tilesBefore := s.ContextTiles

	s = Reduce(cfg, s, LiveTiles{Tiles: []model.DisplayTile{
		{ID: "sg_1", Text: "Something new"},
	}})
	assert.Equal(t, tilesBefore, s.ContextTiles)
}

func TestLiveTilesFiltersCoreDuplicates(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, LiveTiles{Tiles: []model.DisplayTile{
		{ID: "core_yes", Text: "Yes", IsCore: true},
		{ID: "sg_1", Text: "Order food", IsSuggested: true},
	}})

	require.Len(t, s.ContextTiles, 1)
	assert.Equal(t, "sg_1", s.ContextTiles[0].ID)
}

func TestAcceptedReplacesContextImmediately(t *testing.T) {
	cfg := testConfig()
	s := State{}

	c := model.Classification{Primary: model.ContextPlayground, Confidence: 0.9}
	g := model.Grid{Context: model.ContextPlayground, Tiles: []model.GridTile{
		{TileDefinition: model.TileDefinition{ID: "pg_1", Label: "Can I play?"}},
	}}

	s = Reduce(cfg, s, Accepted{Classification: c, Grid: g})
	assert.Equal(t, model.ContextPlayground, s.Context.Current)
	assert.Nil(t, s.Notification, "first context needs no change notification")

	c2 := model.Classification{Primary: model.ContextHomeKitchen, Confidence: 0.9}
	s = Reduce(cfg, s, Accepted{Classification: c2, Grid: model.Grid{}})
	assert.Equal(t, model.ContextHomeKitchen, s.Context.Current)
	assert.Equal(t, model.ContextPlayground, s.Context.Previous)
	require.NotNil(t, s.Notification)
	assert.Equal(t, model.ContextPlayground, s.Notification.From)
	assert.Equal(t, model.ContextHomeKitchen, s.Notification.To)
}

func TestEntityFocusLifecycle(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, SetEntities{Entities: []string{"swing", "slide"}})
	s = Reduce(cfg, s, FocusEntity{Entity: "swing"})
	assert.True(t, s.EntityPhrasesLoading)

	phrases := []model.DisplayTile{
		{ID: "entity_phrase_1", Text: "So fast!", IsSuggested: true},
	}
	s = Reduce(cfg, s, SetEntityPhrases{Tiles: phrases})
	assert.False(t, s.EntityPhrasesLoading)
	assert.Equal(t, phrases, s.EntityPhrases)

	// The focused entity survives disappearing from detection.
	s = Reduce(cfg, s, SetEntities{Entities: []string{"slide"}})
	assert.Contains(t, s.DetectedEntities, "swing")

	s = Reduce(cfg, s, FocusEntity{})
	assert.Empty(t, s.FocusedEntity)
	assert.Nil(t, s.EntityPhrases)
}

func TestDisplayTilesPreferEntityPhrases(t *testing.T) {
	s := State{
		CoreTiles: []model.DisplayTile{
			{ID: "core_yes", Text: "Yes", IsCore: true},
		},
		ContextTiles: []model.DisplayTile{
			{ID: "pg_1", Text: "Can I play?"},
		},
		FocusedEntity: "swing",
		EntityPhrases: []model.DisplayTile{
			{ID: "entity_phrase_1", Text: "So fast!", IsSuggested: true},
		},
	}

	tiles := s.DisplayTiles()
	require.Len(t, tiles, 2)
	assert.Equal(t, "core_yes", tiles[0].ID)
	assert.Equal(t, "entity_phrase_1", tiles[1].ID)
}

func TestDisplayTilesDeduplicateByID(t *testing.T) {
	s := State{
		CoreTiles: []model.DisplayTile{
			{ID: "core_yes", Text: "Yes", IsCore: true},
		},
		ContextTiles: []model.DisplayTile{
			{ID: "core_yes", Text: "Yes again"},
			{ID: "pg_1", Text: "Can I play?"},
		},
	}

	tiles := s.DisplayTiles()
	require.Len(t, tiles, 2)
	assert.Equal(t, "Yes", tiles[0].Text, "first occurrence wins")
}

func TestSelectLocationKeepsPlaceNames(t *testing.T) {
	cfg := testConfig()
	s := State{}

	s = Reduce(cfg, s, SetSessionLocation{
		PlaceName: "Shake Shack",
		AreaName:  "Madison Square Park",
		Context:   model.ContextRestaurantCounter,
	})
	s = Reduce(cfg, s, SelectLocation{Context: model.ContextRestaurantTable})

	require.NotNil(t, s.SessionLocation)
	assert.Equal(t, "Shake Shack", s.SessionLocation.PlaceName)
	assert.Equal(t, model.ContextRestaurantTable, s.SessionLocation.Context)
	assert.Equal(t, model.ContextRestaurantTable, s.Context.Current)
}
