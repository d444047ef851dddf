// Package engine orchestrates the capture-classify-stabilize loop: frames in
// from the camera, classifications in from the live channel or the REST
// classifier, events out to the stabilizer, audio and prompts out to the UI.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sayboard/sayboard/internal/affirm"
	"github.com/sayboard/sayboard/internal/grid"
	"github.com/sayboard/sayboard/internal/live"
	"github.com/sayboard/sayboard/internal/model"
	"github.com/sayboard/sayboard/internal/places"
	"github.com/sayboard/sayboard/internal/service"
	"github.com/sayboard/sayboard/internal/stabilizer"
)

// Config holds engine timing and fallback parameters.
type Config struct {
	Stabilizer       stabilizer.Config
	FrameInterval    time.Duration
	SnapshotInterval time.Duration
	// MaxClassifyFailures is how many consecutive discrete-path failures are
	// tolerated before falling back to the unknown grid.
	MaxClassifyFailures int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Stabilizer:          stabilizer.DefaultConfig(),
		FrameInterval:       5 * time.Second,
		SnapshotInterval:    10 * time.Second,
		MaxClassifyFailures: 3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FrameInterval <= 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = d.SnapshotInterval
	}
	if c.MaxClassifyFailures <= 0 {
		c.MaxClassifyFailures = d.MaxClassifyFailures
	}
	return c
}

// Engine ties the services together around one stabilizer.
type Engine struct {
	cfg       Config
	deps      Deps
	callbacks Callbacks
	stab      *stabilizer.Stabilizer

	mu        sync.RWMutex
	liveChan  LiveChannel
	liveUp    bool
	placeHint string

	classifyFailures int
}

// New creates an engine. Frames and Classifier in deps are required.
func New(cfg Config, deps Deps, callbacks Callbacks) (*Engine, error) {
	if deps.Frames == nil {
		return nil, fmt.Errorf("engine requires a frame source")
	}
	if deps.Classifier == nil {
		return nil, fmt.Errorf("engine requires a classifier")
	}

	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:       cfg,
		deps:      deps,
		callbacks: callbacks,
	}
	e.stab = stabilizer.New(cfg.Stabilizer, stabilizer.WithOnChange(func(st stabilizer.State) {
		if callbacks.OnState != nil {
			callbacks.OnState(st)
		}
	}))
	return e, nil
}

// AttachLive installs the live channel. Must be called before Run.
func (e *Engine) AttachLive(ch LiveChannel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.liveChan = ch
}

// LiveEvents returns the callback set to construct the live client with,
// bound to this engine.
func (e *Engine) LiveEvents() live.Events {
	return live.Events{
		OnConnect:    e.handleLiveUp,
		OnContext:    e.handleLiveContext,
		OnTiles:      e.handleLiveTiles,
		OnAudio:      e.handleLiveAudio,
		OnDisconnect: e.handleLiveDown,
		OnReconnecting: func(attempt int) {
			slog.Info("live channel reconnecting", "attempt", attempt)
		},
		OnSessionExpiring: func() {
			slog.Debug("live session approaching limit")
		},
		OnError: func(err error) {
			slog.Warn("live channel gave up", "error", err)
		},
	}
}

// Run drives the engine until the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	go e.stab.Run(ctx)

	e.mu.RLock()
	liveChan := e.liveChan
	e.mu.RUnlock()

	if liveChan != nil {
		if err := liveChan.Connect(ctx); err != nil {
			// Discrete mode covers for the live channel; the user just sees
			// slower updates.
			slog.Warn("live channel unavailable, using discrete classification", "error", err)
		}
	}

	if e.deps.Mirror != nil {
		go e.snapshotLoop(ctx)
	}

	return e.frameLoop(ctx)
}

func (e *Engine) frameLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frame, err := e.deps.Frames.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("frame capture failed", "error", err)
			continue
		}

		e.processFrame(ctx, frame)
	}
}

func (e *Engine) processFrame(ctx context.Context, frame service.Frame) {
	e.mu.RLock()
	liveChan, liveUp := e.liveChan, e.liveUp
	e.mu.RUnlock()

	if liveChan != nil && liveUp {
		if err := liveChan.SendFrame(frame.Data); err != nil {
			slog.Warn("live frame upload failed", "error", err)
		}
		return
	}

	e.stab.Dispatch(stabilizer.SetLoading{Loading: true})
	classification, err := e.deps.Classifier.ClassifyFrame(ctx, frame, e.place())
	e.stab.Dispatch(stabilizer.SetLoading{Loading: false})
	if err != nil {
		e.classifyFailures++
		slog.Warn("frame classification failed",
			"error", err,
			"consecutive_failures", e.classifyFailures)
		if e.classifyFailures >= e.cfg.MaxClassifyFailures {
			slog.Warn("classification failing persistently, showing fallback tiles")
			e.stab.Dispatch(stabilizer.Fallback{})
			e.classifyFailures = 0
		}
		return
	}
	e.classifyFailures = 0

	e.record(ctx, classification)
	e.handleClassification(classification)
}

// handleClassification routes a discrete-path classification through
// affirmation banding. Affirmed results flow into the debounce; everything
// else is surfaced as a prompt for the caregiver.
func (e *Engine) handleClassification(c model.Classification) {
	a := affirm.Context(c)
	if a.Affirmed {
		e.stab.Dispatch(stabilizer.Classified{Classification: c})
		return
	}
	if e.callbacks.OnPrompt != nil {
		e.callbacks.OnPrompt(a, c)
		return
	}
	slog.Debug("classification needs affirmation but no prompter is attached",
		"context", c.Primary,
		"confidence", c.Confidence)
}

// ConfirmContext applies a user-affirmed context choice immediately, without
// debounce.
func (e *Engine) ConfirmContext(c model.Classification, chosen model.ContextType) {
	c.Primary = chosen
	g := grid.Generate(grid.Request{
		Context:   chosen,
		Entities:  c.Entities,
		Situation: c.SituationInference,
		Size:      e.cfg.Stabilizer.GridSize,
	})
	e.stab.Dispatch(stabilizer.Accepted{Classification: c, Grid: g})
}

// Tap speaks the tapped tile's phrase.
func (e *Engine) Tap(ctx context.Context, tileID string) error {
	var tile *model.DisplayTile
	for _, t := range e.stab.State().DisplayTiles() {
		if t.ID == tileID {
			tile = &t
			break
		}
	}
	if tile == nil {
		return fmt.Errorf("no visible tile with id %q", tileID)
	}

	phrase := tile.Speak
	if phrase == "" {
		phrase = tile.Text
	}

	e.mu.RLock()
	liveChan, liveUp := e.liveChan, e.liveUp
	e.mu.RUnlock()

	if liveChan != nil && liveUp {
		return liveChan.RequestSpeech(phrase)
	}
	if e.deps.Synth == nil {
		return fmt.Errorf("no speech output available")
	}

	audio, err := e.deps.Synth.Speak(ctx, phrase)
	if err != nil {
		return fmt.Errorf("failed to speak %q: %w", phrase, err)
	}
	if audio != nil && e.callbacks.OnAudio != nil {
		e.callbacks.OnAudio(audio)
	}
	return nil
}

// FocusEntity selects an entity and fetches its phrase set in the
// background. An empty entity deselects.
func (e *Engine) FocusEntity(ctx context.Context, entity string) {
	e.stab.Dispatch(stabilizer.FocusEntity{Entity: entity})
	if entity == "" {
		return
	}

	situation := ""
	if cls := e.stab.State().Context.Classification; cls != nil {
		situation = cls.SituationInference
	}

	go func() {
		tiles, err := e.deps.Classifier.EntityPhrases(ctx, entity, situation)
		if err != nil {
			slog.Warn("entity phrase fetch failed", "entity", entity, "error", err)
			e.stab.Dispatch(stabilizer.SetEntityPhrases{})
			return
		}
		e.stab.Dispatch(stabilizer.SetEntityPhrases{Tiles: tiles})
	}()
}

// ResolveLocation resolves GPS coordinates to a place and establishes the
// session location when the place type maps to a context.
func (e *Engine) ResolveLocation(ctx context.Context, loc model.LatLng) error {
	if e.deps.Places == nil {
		return fmt.Errorf("no place finder configured")
	}

	found, err := e.deps.Places.Nearby(ctx, loc)
	if err != nil {
		return fmt.Errorf("place lookup failed: %w", err)
	}
	if len(found) == 0 {
		return nil
	}

	place, placeCtx, ok := places.BestContext(found)
	if !ok {
		place = found[0]
		e.setPlace(place.Name)
		e.stab.Dispatch(stabilizer.SetPlaceName{Name: place.Name})
		return nil
	}

	e.setPlace(place.Name)
	e.stab.Dispatch(stabilizer.SetPlaceName{Name: place.Name})
	e.stab.Dispatch(stabilizer.SetSessionLocation{
		PlaceName: place.Name,
		AreaName:  place.Address,
		Context:   placeCtx,
	})
	return nil
}

// LockContext pins the current visible context.
func (e *Engine) LockContext() {
	e.stab.Dispatch(stabilizer.Lock{Context: e.stab.State().Context.Current})
}

// UnlockContext resumes normal scanning.
func (e *Engine) UnlockContext() {
	e.stab.Dispatch(stabilizer.Unlock{})
}

// DismissShift clears a major-shift alert without switching contexts.
func (e *Engine) DismissShift() {
	e.stab.Dispatch(stabilizer.DismissShift{})
}

// State returns the current stabilizer state.
func (e *Engine) State() stabilizer.State {
	return e.stab.State()
}

// Dispatch forwards an event to the stabilizer. Exposed for the CLI surface.
func (e *Engine) Dispatch(ev stabilizer.Event) {
	e.stab.Dispatch(ev)
}

func (e *Engine) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.deps.Mirror.RecordSnapshot(ctx, e.snapshot()); err != nil {
				slog.Warn("snapshot write failed", "error", err)
			}
		}
	}
}

func (e *Engine) snapshot() service.Snapshot {
	st := e.stab.State()

	snap := service.Snapshot{
		TakenAt:            time.Now(),
		ConnectionMode:     string(st.Mode),
		CurrentContext:     st.Context.Current,
		BackgroundContext:  st.BackgroundContext,
		TileCount:          len(st.DisplayTiles()),
		ContextLocked:      st.ContextLocked,
		LiveSessionActive:  st.LiveSessionActive,
		MajorShiftDetected: st.MajorShiftDetected,
	}
	if st.Context.Classification != nil {
		snap.Confidence = st.Context.Classification.Confidence
	}
	snap.BackgroundConfidence = st.BackgroundConfidence

	e.mu.RLock()
	liveChan := e.liveChan
	e.mu.RUnlock()
	if liveChan != nil {
		snap.SessionRemaining = liveChan.SessionTimeRemaining()
	}
	return snap
}

func (e *Engine) record(ctx context.Context, c model.Classification) {
	if e.deps.Mirror == nil {
		return
	}
	if err := e.deps.Mirror.RecordClassification(ctx, c); err != nil {
		slog.Warn("classification history write failed", "error", err)
	}
}

func (e *Engine) place() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.placeHint
}

func (e *Engine) setPlace(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.placeHint = name
}

// Live channel handlers.

func (e *Engine) handleLiveUp() {
	e.mu.Lock()
	e.liveUp = true
	e.mu.Unlock()

	e.stab.Dispatch(stabilizer.SessionStarted{})
	e.stab.Dispatch(stabilizer.SetMode{Mode: stabilizer.ModeLive})
}

func (e *Engine) handleLiveDown() {
	e.mu.Lock()
	e.liveUp = false
	e.mu.Unlock()

	slog.Info("live channel down, discrete classification takes over")
	e.stab.Dispatch(stabilizer.SessionEnded{})
	e.stab.Dispatch(stabilizer.SetMode{Mode: stabilizer.ModeREST})
}

func (e *Engine) handleLiveContext(c model.Classification) {
	e.record(context.Background(), c)
	e.stab.Dispatch(stabilizer.Classified{Classification: c})
}

func (e *Engine) handleLiveTiles(tiles []model.DisplayTile) {
	e.stab.Dispatch(stabilizer.LiveTiles{Tiles: tiles})
}

func (e *Engine) handleLiveAudio(audio []byte) {
	if e.callbacks.OnAudio != nil {
		e.callbacks.OnAudio(audio)
	}
}

// Close releases the engine's resources. The stabilizer loop stops with the
// Run context.
func (e *Engine) Close() error {
	e.mu.RLock()
	liveChan := e.liveChan
	e.mu.RUnlock()

	if liveChan != nil {
		liveChan.Disconnect()
	}

	var firstErr error
	if err := e.deps.Frames.Close(); err != nil {
		firstErr = err
	}
	if err := e.deps.Classifier.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if e.deps.Mirror != nil {
		if err := e.deps.Mirror.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.stab.Close()
	return firstErr
}
