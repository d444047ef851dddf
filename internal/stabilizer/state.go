// Package stabilizer turns the noisy per-frame classification stream into a
// stable decision about which tiles to show. It is written as a pure
// transition function over an explicit state struct, driven by a
// single-consumer event loop, so every context change is auditable and no two
// classification-driven transitions ever interleave.
package stabilizer

import (
	"time"

	"github.com/sayboard/sayboard/internal/model"
)

// Mode selects which upstream source feeds the stabilizer. The two paths are
// mutually exclusive at any instant.
type Mode string

// Connection modes.
const (
	ModeLive Mode = "live"
	ModeREST Mode = "rest"
)

// Config holds the stabilizer's tunable parameters. The debounce threshold
// and interval varied across product iterations (1 frame / 100ms in the most
// responsive build, 3 frames / 500ms in the most conservative), so both are
// configuration rather than constants.
type Config struct {
	DebounceThreshold    int
	DebounceInterval     time.Duration
	ShiftThreshold       int
	MajorShiftConfidence float64
	GridSize             int
}

// DefaultConfig returns the default stabilizer configuration.
func DefaultConfig() Config {
	return Config{
		DebounceThreshold:    1,
		DebounceInterval:     100 * time.Millisecond,
		ShiftThreshold:       3,
		MajorShiftConfidence: 0.8,
		GridSize:             9,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DebounceThreshold <= 0 {
		c.DebounceThreshold = d.DebounceThreshold
	}
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = d.DebounceInterval
	}
	if c.ShiftThreshold <= 0 {
		c.ShiftThreshold = d.ShiftThreshold
	}
	if c.MajorShiftConfidence <= 0 {
		c.MajorShiftConfidence = d.MajorShiftConfidence
	}
	if c.GridSize <= 0 {
		c.GridSize = d.GridSize
	}
	return c
}

// ContextState tracks the confirmed context and the debounce transition in
// flight. TransitionPending is true only while a debounce window is open.
type ContextState struct {
	ConfirmedAt        time.Time
	Classification     *model.Classification
	Current            model.ContextType
	Previous           model.ContextType
	HasCurrent         bool
	TransitionPending  bool
}

// State is the full stabilizer state. It is a value: Reduce returns a new
// State rather than mutating in place, and the slices it carries are treated
// as immutable once stored.
type State struct {
	// Connection
	Mode              Mode
	LiveSessionActive bool

	Context ContextState

	// Context locking. While locked, live classifications land in the
	// background fields and the visible tiles stay put.
	ContextLocked        bool
	LockedContext        model.ContextType
	LockedAt             time.Time
	BackgroundContext    model.ContextType
	BackgroundConfidence float64
	MajorShiftDetected   bool

	// Place name resolved from GPS, if any.
	PlaceName string

	// Session location: the sticky "where the user has settled" value with
	// its category-level shift hysteresis.
	SessionLocation     *model.SessionLocation
	ShiftCounter        int
	PendingShiftContext model.ContextType
	ShiftRefetchNeeded  bool

	// Entity focus
	DetectedEntities     []string
	FocusedEntity        string
	EntityPhrases        []model.DisplayTile
	EntityPhrasesLoading bool

	CoreTiles    []model.DisplayTile
	ContextTiles []model.DisplayTile

	Notification *model.Notification

	// Debounce bookkeeping, keyed purely by label value.
	PendingContext       model.ContextType
	ContextDebounceCount int

	IsLoading bool
}

// DisplayTiles returns the tiles the UI should render right now: core tiles
// first, then either the focused entity's phrase set or the context tiles,
// deduplicated by tile id.
func (s State) DisplayTiles() []model.DisplayTile {
	active := s.ContextTiles
	if s.FocusedEntity != "" && len(s.EntityPhrases) > 0 {
		active = s.EntityPhrases
	}

	seen := make(map[string]bool, len(s.CoreTiles)+len(active))
	out := make([]model.DisplayTile, 0, len(s.CoreTiles)+len(active))
	for _, t := range s.CoreTiles {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	for _, t := range active {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
