package stabilizer

import "github.com/sayboard/sayboard/internal/model"

// Event is the closed set of inputs the stabilizer reacts to. Events are
// processed one at a time, to completion, in arrival order.
type Event interface {
	isEvent()
}

// Classified carries one raw per-frame classification from either upstream
// path. The reducer routes it into background tracking (locked) or the
// debounce counter (unlocked), and runs session-shift detection either way.
type Classified struct {
	Classification model.Classification
}

// Accepted carries an affirmed classification plus the grid generated for it.
// This is the discrete path's direct apply: no debounce, tiles replace
// immediately.
type Accepted struct {
	Classification model.Classification
	Grid           model.Grid
}

// LiveTiles carries a pre-ranked tile set pushed over the live channel.
// Ignored while the context is locked.
type LiveTiles struct {
	Tiles []model.DisplayTile
}

// ApplyPending fires when the debounce timer elapses. It is a no-op unless a
// transition is still pending.
type ApplyPending struct{}

// Lock pins the visible context.
type Lock struct {
	Context model.ContextType
}

// Unlock resumes normal scanning. Visible tiles stay as-is until the next
// classification cycle repopulates them.
type Unlock struct{}

// DismissShift clears a major-shift alert without switching.
type DismissShift struct{}

// SetEntities replaces the detected entity list. A focused entity is kept in
// the list even when no longer detected, so the child can keep exploring its
// phrases.
type SetEntities struct {
	Entities []string
}

// FocusEntity selects (or, with empty Entity, deselects) an entity of
// interest. Selection flags phrase loading; the engine fetches phrases
// asynchronously and follows up with SetEntityPhrases.
type FocusEntity struct {
	Entity string
}

// SetEntityPhrases installs the generated phrase set for the focused entity.
type SetEntityPhrases struct {
	Tiles []model.DisplayTile
}

// SetSessionLocation establishes the sticky session location.
type SetSessionLocation struct {
	PlaceName string
	AreaName  string
	Context   model.ContextType
}

// ClearSessionLocation drops the session location and its shift state.
type ClearSessionLocation struct{}

// SelectLocation is a manual context pick; previously known place and area
// names are preserved.
type SelectLocation struct {
	Context model.ContextType
}

// ShiftHandled acknowledges that the caller re-resolved location after a
// confirmed session shift.
type ShiftHandled struct{}

// ResetShift clears shift tracking entirely.
type ResetShift struct{}

// Fallback deterministically switches to the unknown context's grid after an
// upstream failure. The user is never left with an empty tile set.
type Fallback struct{}

// ClearNotification expires the current notification.
type ClearNotification struct{}

// SetPlaceName records the GPS-resolved place name.
type SetPlaceName struct {
	Name string
}

// SetMode flips between the live and REST upstream paths.
type SetMode struct {
	Mode Mode
}

// SessionStarted marks the live channel as connected.
type SessionStarted struct{}

// SessionEnded marks the live channel as closed.
type SessionEnded struct{}

// SetLoading toggles the loading indicator.
type SetLoading struct {
	Loading bool
}

func (Classified) isEvent()           {}
func (Accepted) isEvent()             {}
func (LiveTiles) isEvent()            {}
func (ApplyPending) isEvent()         {}
func (Lock) isEvent()                 {}
func (Unlock) isEvent()               {}
func (DismissShift) isEvent()         {}
func (SetEntities) isEvent()          {}
func (FocusEntity) isEvent()          {}
func (SetEntityPhrases) isEvent()     {}
func (SetSessionLocation) isEvent()   {}
func (ClearSessionLocation) isEvent() {}
func (SelectLocation) isEvent()       {}
func (ShiftHandled) isEvent()         {}
func (ResetShift) isEvent()           {}
func (Fallback) isEvent()             {}
func (ClearNotification) isEvent()    {}
func (SetPlaceName) isEvent()         {}
func (SetMode) isEvent()              {}
func (SessionStarted) isEvent()       {}
func (SessionEnded) isEvent()         {}
func (SetLoading) isEvent()           {}
