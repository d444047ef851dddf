package stabilizer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sayboard/sayboard/internal/catalog"
	"github.com/sayboard/sayboard/internal/model"
)

// Stabilizer owns a State and the single goroutine that advances it. Events
// arrive over a channel and are reduced one at a time; subscribers observe
// each resulting state through the OnChange callback, never by reaching into
// shared fields.
type Stabilizer struct {
	cfg      Config
	onChange func(State)
	events   chan Event
	done     chan struct{}
	debounce *time.Timer
	state    State
	mu       sync.RWMutex
	stopOnce sync.Once
}

// Option configures a Stabilizer.
type Option func(*Stabilizer)

// WithOnChange registers a callback invoked from the event loop after every
// transition. The callback must not block; slow consumers should copy the
// state and return.
func WithOnChange(fn func(State)) Option {
	return func(s *Stabilizer) {
		s.onChange = fn
	}
}

// New creates a stabilizer with the initial state: REST mode, no context,
// core tiles only.
func New(cfg Config, opts ...Option) *Stabilizer {
	core := make([]model.DisplayTile, len(catalog.CoreTiles))
	for i, t := range catalog.CoreTiles {
		core[i] = t.Display()
	}

	s := &Stabilizer{
		cfg:    cfg.withDefaults(),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
		state: State{
			Mode:      ModeREST,
			CoreTiles: core,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes events until the context is canceled or Close is called. It
// must be called exactly once.
func (s *Stabilizer) Run(ctx context.Context) {
	defer s.disarmDebounce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case ev := <-s.events:
			s.apply(ev)
		}
	}
}

// Dispatch queues an event for processing. Events dispatched after Close are
// dropped.
func (s *Stabilizer) Dispatch(ev Event) {
	select {
	case <-s.done:
	case s.events <- ev:
	}
}

// State returns a snapshot of the current state.
func (s *Stabilizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Close stops the event loop and cancels any pending debounce timer. Safe to
// call more than once.
func (s *Stabilizer) Close() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

func (s *Stabilizer) apply(ev Event) {
	s.mu.Lock()
	next := Reduce(s.cfg, s.state, ev)
	s.state = next
	s.mu.Unlock()

	s.manageDebounce(next)

	if s.onChange != nil {
		s.onChange(next)
	}
}

// manageDebounce arms a single-shot timer when a transition becomes pending
// and disarms it once the transition resolves. The ApplyPending reduction is
// guarded on TransitionPending, so a timer that fires after the transition
// already resolved is harmless.
func (s *Stabilizer) manageDebounce(st State) {
	if st.Context.TransitionPending {
		if s.debounce == nil {
			s.debounce = time.AfterFunc(s.cfg.DebounceInterval, func() {
				s.Dispatch(ApplyPending{})
			})
			slog.Debug("debounce timer armed",
				"pending_context", st.PendingContext,
				"interval", s.cfg.DebounceInterval)
		}
		return
	}
	s.disarmDebounce()
}

func (s *Stabilizer) disarmDebounce() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}
