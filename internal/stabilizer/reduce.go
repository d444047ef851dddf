package stabilizer

import (
	"time"

	"github.com/sayboard/sayboard/internal/grid"
	"github.com/sayboard/sayboard/internal/model"
)

// Reduce applies one event to the state and returns the next state. It is the
// only place state transitions happen; callers never mutate State directly.
func Reduce(cfg Config, s State, ev Event) State {
	cfg = cfg.withDefaults()

	switch e := ev.(type) {
	case Classified:
		return reduceClassified(cfg, s, e.Classification)

	case Accepted:
		return reduceAccepted(s, e)

	case LiveTiles:
		if s.ContextLocked {
			return s
		}
		tiles := make([]model.DisplayTile, 0, len(e.Tiles))
		for _, t := range e.Tiles {
			if t.IsCore {
				continue
			}
			tiles = append(tiles, t)
		}
		s.ContextTiles = tiles
		return s

	case ApplyPending:
		return reduceApplyPending(cfg, s)

	case Lock:
		g := grid.Generate(grid.Request{Context: e.Context, Size: cfg.GridSize})
		s.ContextLocked = true
		s.LockedContext = e.Context
		s.LockedAt = time.Now()
		s.Context.Current = e.Context
		s.Context.HasCurrent = true
		s.Context.ConfirmedAt = time.Now()
		s.ContextTiles = g.ContextTiles()
		s.MajorShiftDetected = false
		s.Notification = &model.Notification{
			Type:      model.NotifyContextConfirmed,
			Message:   "Locked: " + e.Context.Format(),
			To:        e.Context,
			Timestamp: time.Now(),
		}
		return s

	case Unlock:
		s.ContextLocked = false
		s.LockedContext = ""
		s.LockedAt = time.Time{}
		s.BackgroundContext = ""
		s.BackgroundConfidence = 0
		s.MajorShiftDetected = false
		s.Notification = &model.Notification{
			Type:      model.NotifyContextChanged,
			Message:   "Context unlocked - scanning...",
			Timestamp: time.Now(),
		}
		return s

	case DismissShift:
		s.MajorShiftDetected = false
		return s

	case SetEntities:
		s.DetectedEntities = withFocused(e.Entities, s.FocusedEntity)
		return s

	case FocusEntity:
		if e.Entity == "" {
			s.FocusedEntity = ""
			s.EntityPhrases = nil
			s.EntityPhrasesLoading = false
			return s
		}
		s.FocusedEntity = e.Entity
		s.EntityPhrasesLoading = true
		return s

	case SetEntityPhrases:
		s.EntityPhrases = e.Tiles
		s.EntityPhrasesLoading = false
		return s

	case SetSessionLocation:
		g := grid.Generate(grid.Request{Context: e.Context, Size: cfg.GridSize})
		s.SessionLocation = &model.SessionLocation{
			PlaceName: e.PlaceName,
			AreaName:  e.AreaName,
			Context:   e.Context,
			LockedAt:  time.Now(),
		}
		s.Context.Current = e.Context
		s.Context.HasCurrent = true
		s.Context.ConfirmedAt = time.Now()
		s.ContextTiles = g.ContextTiles()
		s.ShiftCounter = 0
		s.PendingShiftContext = ""
		s.ShiftRefetchNeeded = false
		return s

	case ClearSessionLocation:
		s.SessionLocation = nil
		s.ShiftCounter = 0
		s.PendingShiftContext = ""
		s.ShiftRefetchNeeded = false
		return s

	case SelectLocation:
		g := grid.Generate(grid.Request{Context: e.Context, Size: cfg.GridSize})
		loc := model.SessionLocation{Context: e.Context, LockedAt: time.Now()}
		if s.SessionLocation != nil {
			loc.PlaceName = s.SessionLocation.PlaceName
			loc.AreaName = s.SessionLocation.AreaName
		}
		s.SessionLocation = &loc
		s.Context.Current = e.Context
		s.Context.HasCurrent = true
		s.Context.ConfirmedAt = time.Now()
		s.ContextTiles = g.ContextTiles()
		s.ShiftCounter = 0
		s.PendingShiftContext = ""
		s.ShiftRefetchNeeded = false
		return s

	case ShiftHandled:
		s.ShiftCounter = 0
		s.MajorShiftDetected = false
		s.ShiftRefetchNeeded = false
		return s

	case ResetShift:
		s.ShiftCounter = 0
		s.PendingShiftContext = ""
		s.MajorShiftDetected = false
		s.ShiftRefetchNeeded = false
		return s

	case Fallback:
		g := grid.Generate(grid.Request{Context: model.ContextUnknown, Size: cfg.GridSize})
		s.IsLoading = false
		s.Context.Current = model.ContextUnknown
		s.Context.HasCurrent = true
		s.Context.ConfirmedAt = time.Now()
		s.ContextTiles = g.ContextTiles()
		s.Notification = &model.Notification{
			Type:      model.NotifyContextChanged,
			Message:   "Offline - using fallbacks",
			Timestamp: time.Now(),
		}
		return s

	case ClearNotification:
		s.Notification = nil
		return s

	case SetPlaceName:
		s.PlaceName = e.Name
		return s

	case SetMode:
		s.Mode = e.Mode
		return s

	case SessionStarted:
		s.LiveSessionActive = true
		s.Mode = ModeLive
		return s

	case SessionEnded:
		s.LiveSessionActive = false
		return s

	case SetLoading:
		s.IsLoading = e.Loading
		return s

	default:
		return s
	}
}

// reduceClassified routes a raw per-frame classification. Locked contexts
// track it in the background; unlocked contexts debounce it. Session-shift
// detection runs either way because it operates at a coarser granularity than
// the lock.
func reduceClassified(cfg Config, s State, c model.Classification) State {
	cls := c
	s.Context.Classification = &cls
	s.DetectedEntities = withFocused(c.Entities, s.FocusedEntity)
	s = checkSessionShift(cfg, s, c)

	if s.ContextLocked {
		s.BackgroundContext = c.Primary
		s.BackgroundConfidence = c.Confidence
		if c.Primary != s.LockedContext && c.Confidence >= cfg.MajorShiftConfidence {
			s.MajorShiftDetected = true
		}
		return s
	}

	// Debounce, keyed purely by label value. A single differing frame resets
	// the run; it never satisfies the threshold by itself.
	if c.Primary == s.PendingContext {
		s.ContextDebounceCount++
		if s.ContextDebounceCount >= cfg.DebounceThreshold {
			s.Context.TransitionPending = true
		}
		return s
	}

	s.PendingContext = c.Primary
	s.ContextDebounceCount = 1
	s.Context.TransitionPending = false
	return s
}

// checkSessionShift compares the coarse category of the session location
// against the incoming classification. Three consecutive high-confidence
// frames of a different category are required before signaling a location
// re-resolution; one odd frame (a menu held up to the camera) resets nothing
// worse than the counter.
func checkSessionShift(cfg Config, s State, c model.Classification) State {
	if s.SessionLocation == nil || s.SessionLocation.Context == "" {
		return s
	}

	sameCategory := s.SessionLocation.Context.Category() == c.Primary.Category()
	if sameCategory || c.Confidence < cfg.MajorShiftConfidence {
		if s.ShiftCounter > 0 {
			s.ShiftCounter = 0
			s.PendingShiftContext = ""
		}
		return s
	}

	s.ShiftCounter++
	s.PendingShiftContext = c.Primary
	if s.ShiftCounter >= cfg.ShiftThreshold {
		s.MajorShiftDetected = true
		s.ShiftRefetchNeeded = true
	}
	return s
}

func reduceAccepted(s State, e Accepted) State {
	c := e.Classification
	contextChanged := s.Context.HasCurrent && s.Context.Current != c.Primary

	if contextChanged {
		s.Notification = &model.Notification{
			Type:      model.NotifyContextChanged,
			Message:   "Now at " + c.Primary.Format(),
			From:      s.Context.Current,
			To:        c.Primary,
			Timestamp: time.Now(),
		}
	}

	cls := c
	s.IsLoading = false
	s.Context = ContextState{
		Current:        c.Primary,
		Previous:       s.Context.Current,
		HasCurrent:     true,
		Classification: &cls,
		ConfirmedAt:    time.Now(),
	}
	s.ContextTiles = e.Grid.ContextTiles()
	s.DetectedEntities = withFocused(c.Entities, s.FocusedEntity)
	return s
}

func reduceApplyPending(cfg Config, s State) State {
	if s.PendingContext == "" || !s.Context.TransitionPending {
		return s
	}

	g := grid.Generate(grid.Request{Context: s.PendingContext, Size: cfg.GridSize})
	applied := s.PendingContext

	s.Notification = &model.Notification{
		Type:      model.NotifyContextChanged,
		Message:   "Context updated: " + applied.Format(),
		From:      s.Context.Current,
		To:        applied,
		Timestamp: time.Now(),
	}
	s.Context = ContextState{
		Current:        applied,
		Previous:       s.Context.Current,
		HasCurrent:     true,
		Classification: s.Context.Classification,
		ConfirmedAt:    time.Now(),
	}
	s.ContextTiles = g.ContextTiles()
	s.PendingContext = ""
	s.ContextDebounceCount = 0
	return s
}

// withFocused keeps the focused entity in the detected list even when the
// classifier no longer reports it.
func withFocused(entities []string, focused string) []string {
	if focused == "" {
		return entities
	}
	for _, e := range entities {
		if e == focused {
			return entities
		}
	}
	return append([]string{focused}, entities...)
}
