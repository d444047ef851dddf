package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sayboard/sayboard/internal/model"
	"github.com/sayboard/sayboard/internal/service"
	"github.com/sayboard/sayboard/internal/stabilizer"
)

type stubFrames struct {
	frame service.Frame
}

func (s *stubFrames) Next(_ context.Context) (service.Frame, error) {
	return s.frame, nil
}

func (s *stubFrames) Close() error { return nil }

type stubClassifier struct {
	mu        sync.Mutex
	result    model.Classification
	err       error
	calls     int
	phrases   []model.DisplayTile
	phraseErr error
	gate      chan struct{}
}

func (s *stubClassifier) ClassifyFrame(_ context.Context, _ service.Frame, _ string) (model.Classification, error) {
	s.mu.Lock()
	gate := s.gate
	s.calls++
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.Classification{}, s.err
	}
	return s.result, nil
}

func (s *stubClassifier) EntityPhrases(_ context.Context, _, _ string) ([]model.DisplayTile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phraseErr != nil {
		return nil, s.phraseErr
	}
	return s.phrases, nil
}

func (s *stubClassifier) Close() error { return nil }

func (s *stubClassifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (s *stubSynth) Speak(_ context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return []byte("pcm"), nil
}

type stubLive struct {
	mu         sync.Mutex
	frames     [][]byte
	speech     []string
	connectErr error
}

func (s *stubLive) Connect(_ context.Context) error { return s.connectErr }
func (s *stubLive) Disconnect()                     {}

func (s *stubLive) SendFrame(jpeg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, jpeg)
	return nil
}

func (s *stubLive) RequestSpeech(phrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speech = append(s.speech, phrase)
	return nil
}

func (s *stubLive) IsConnected() bool                   { return true }
func (s *stubLive) SessionTimeRemaining() time.Duration { return time.Minute }

func (s *stubLive) sentFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func testConfig() Config {
	return Config{
		Stabilizer: stabilizer.Config{
			DebounceThreshold: 1,
			DebounceInterval:  5 * time.Millisecond,
		},
		FrameInterval:       10 * time.Millisecond,
		SnapshotInterval:    time.Hour,
		MaxClassifyFailures: 3,
	}
}

func newTestEngine(t *testing.T, cfg Config, deps Deps, callbacks Callbacks) *Engine {
	t.Helper()
	if deps.Frames == nil {
		deps.Frames = &stubFrames{frame: service.Frame{Data: []byte("frame")}}
	}
	eng, err := New(cfg, deps, callbacks)
	require.NoError(t, err)
	return eng
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(DefaultConfig(), Deps{Classifier: &stubClassifier{}}, Callbacks{})
	assert.Error(t, err)

	_, err = New(DefaultConfig(), Deps{Frames: &stubFrames{}}, Callbacks{})
	assert.Error(t, err)
}

func TestRunAppliesConfidentClassification(t *testing.T) {
	classifier := &stubClassifier{result: model.Classification{
		ReceivedAt: time.Now(),
		Primary:    model.ContextPlayground,
		Confidence: 0.95,
	}}
	eng := newTestEngine(t, testConfig(), Deps{Classifier: classifier}, Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	require.Eventually(t, func() bool {
		return eng.State().Context.Current == model.ContextPlayground
	}, 2*time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, classifier.callCount(), 1)
}

func TestLowConfidencePromptsInsteadOfApplying(t *testing.T) {
	classifier := &stubClassifier{result: model.Classification{
		ReceivedAt: time.Now(),
		Primary:    model.ContextHomeKitchen,
		Confidence: 0.7,
	}}

	var mu sync.Mutex
	var prompts []model.Affirmation
	eng := newTestEngine(t, testConfig(), Deps{Classifier: classifier}, Callbacks{
		OnPrompt: func(a model.Affirmation, _ model.Classification) {
			mu.Lock()
			prompts = append(prompts, a)
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(prompts) > 0
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, prompts[0].Affirmed)
	require.NotNil(t, prompts[0].UI)
	assert.Equal(t, model.PromptBinary, prompts[0].UI.Type)
	assert.NotEqual(t, model.ContextHomeKitchen, eng.State().Context.Current)
}

func TestPersistentClassifyFailureFallsBack(t *testing.T) {
	classifier := &stubClassifier{err: fmt.Errorf("api unreachable")}
	eng := newTestEngine(t, testConfig(), Deps{Classifier: classifier}, Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	require.Eventually(t, func() bool {
		st := eng.State()
		return st.Context.Current == model.ContextUnknown && len(st.ContextTiles) > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDiscreteClassifyTogglesLoading(t *testing.T) {
	gate := make(chan struct{})
	classifier := &stubClassifier{
		gate: gate,
		result: model.Classification{
			ReceivedAt: time.Now(),
			Primary:    model.ContextPlayground,
			Confidence: 0.95,
		},
	}
	eng := newTestEngine(t, testConfig(), Deps{Classifier: classifier}, Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	// While the classifier call is in flight the loading flag is up.
	require.Eventually(t, func() bool {
		return eng.State().IsLoading
	}, 2*time.Second, time.Millisecond)

	close(gate)

	require.Eventually(t, func() bool {
		st := eng.State()
		return !st.IsLoading && st.Context.Current == model.ContextPlayground
	}, 2*time.Second, 5*time.Millisecond)
}

func TestConfirmContextAppliesImmediately(t *testing.T) {
	classifier := &stubClassifier{}
	eng := newTestEngine(t, testConfig(), Deps{Classifier: classifier}, Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.stab.Run(ctx)

	eng.ConfirmContext(model.Classification{
		ReceivedAt: time.Now(),
		Primary:    model.ContextRestaurantTable,
		Confidence: 0.45,
	}, model.ContextRestaurantCounter)

	require.Eventually(t, func() bool {
		return eng.State().Context.Current == model.ContextRestaurantCounter
	}, 2*time.Second, 5*time.Millisecond)

	st := eng.State()
	assert.NotEmpty(t, st.ContextTiles)
	// The first confirmed context is not a change, so no notification yet.
	assert.Nil(t, st.Notification)

	// Confirming a different context announces the change.
	eng.ConfirmContext(model.Classification{
		ReceivedAt: time.Now(),
		Primary:    model.ContextPlayground,
		Confidence: 0.5,
	}, model.ContextPlayground)

	require.Eventually(t, func() bool {
		return eng.State().Context.Current == model.ContextPlayground
	}, 2*time.Second, 5*time.Millisecond)

	st = eng.State()
	require.NotNil(t, st.Notification)
	assert.Equal(t, model.NotifyContextChanged, st.Notification.Type)
	assert.Equal(t, model.ContextRestaurantCounter, st.Notification.From)
	assert.Equal(t, model.ContextPlayground, st.Notification.To)
}

func TestTapSpeaksThroughSynthesizer(t *testing.T) {
	synth := &stubSynth{}
	var mu sync.Mutex
	var audio [][]byte
	eng := newTestEngine(t, testConfig(), Deps{Classifier: &stubClassifier{}, Synth: synth}, Callbacks{
		OnAudio: func(b []byte) {
			mu.Lock()
			audio = append(audio, b)
			mu.Unlock()
		},
	})

	// Core tiles are visible from the initial state; no transition needed.
	err := eng.Tap(context.Background(), "core_help")
	require.NoError(t, err)

	synth.mu.Lock()
	require.Len(t, synth.spoken, 1)
	assert.Equal(t, "I need help", synth.spoken[0])
	synth.mu.Unlock()

	mu.Lock()
	assert.Len(t, audio, 1)
	mu.Unlock()
}

func TestTapUnknownTile(t *testing.T) {
	eng := newTestEngine(t, testConfig(), Deps{Classifier: &stubClassifier{}}, Callbacks{})

	err := eng.Tap(context.Background(), "no_such_tile")
	assert.Error(t, err)
}

func TestLiveModeRoutesFramesUpstream(t *testing.T) {
	classifier := &stubClassifier{}
	liveChan := &stubLive{}
	eng := newTestEngine(t, testConfig(), Deps{Classifier: classifier}, Callbacks{})
	eng.AttachLive(liveChan)

	// Simulate the live channel coming up before any frames are captured.
	eng.LiveEvents().OnConnect()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	require.Eventually(t, func() bool {
		return liveChan.sentFrames() > 0
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, classifier.callCount(), "live mode must not invoke the discrete classifier")
	assert.Equal(t, stabilizer.ModeLive, eng.State().Mode)
}

func TestLiveDisconnectFallsBackToDiscrete(t *testing.T) {
	classifier := &stubClassifier{result: model.Classification{
		ReceivedAt: time.Now(),
		Primary:    model.ContextPlayground,
		Confidence: 0.95,
	}}
	liveChan := &stubLive{}
	eng := newTestEngine(t, testConfig(), Deps{Classifier: classifier}, Callbacks{})
	eng.AttachLive(liveChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	events := eng.LiveEvents()
	events.OnConnect()
	events.OnDisconnect()

	require.Eventually(t, func() bool {
		return classifier.callCount() > 0
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, stabilizer.ModeREST, eng.State().Mode)
}

func TestFocusEntityFetchesPhrases(t *testing.T) {
	classifier := &stubClassifier{phrases: []model.DisplayTile{
		{ID: "entity_phrase_1", Text: "Push me", Speak: "Push me please", IsSuggested: true},
	}}
	eng := newTestEngine(t, testConfig(), Deps{Classifier: classifier}, Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.stab.Run(ctx)

	eng.FocusEntity(ctx, "swing")

	require.Eventually(t, func() bool {
		st := eng.State()
		return st.FocusedEntity == "swing" && len(st.EntityPhrases) == 1 && !st.EntityPhrasesLoading
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLockAndUnlock(t *testing.T) {
	eng := newTestEngine(t, testConfig(), Deps{Classifier: &stubClassifier{}}, Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.stab.Run(ctx)

	eng.LockContext()
	require.Eventually(t, func() bool {
		return eng.State().ContextLocked
	}, 2*time.Second, 5*time.Millisecond)

	eng.UnlockContext()
	require.Eventually(t, func() bool {
		return !eng.State().ContextLocked
	}, 2*time.Second, 5*time.Millisecond)
}

type stubPlaces struct {
	places []model.Place
}

func (s *stubPlaces) Nearby(_ context.Context, _ model.LatLng) ([]model.Place, error) {
	return s.places, nil
}

func TestResolveLocationEstablishesSession(t *testing.T) {
	finder := &stubPlaces{places: []model.Place{
		{Name: "Riverside Park", Address: "1 Park Way", Types: []string{"park"}},
	}}
	eng := newTestEngine(t, testConfig(), Deps{Classifier: &stubClassifier{}, Places: finder}, Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.stab.Run(ctx)

	require.NoError(t, eng.ResolveLocation(ctx, model.LatLng{Latitude: 40.7, Longitude: -74.0}))

	require.Eventually(t, func() bool {
		st := eng.State()
		return st.SessionLocation != nil && st.PlaceName == "Riverside Park"
	}, 2*time.Second, 5*time.Millisecond)

	st := eng.State()
	assert.Equal(t, model.ContextPlayground, st.SessionLocation.Context)
	assert.Equal(t, "Riverside Park", st.SessionLocation.PlaceName)
}

func TestResolveLocationUnmappedPlaceKeepsNameOnly(t *testing.T) {
	finder := &stubPlaces{places: []model.Place{
		{Name: "Central Garage", Types: []string{"parking"}},
	}}
	eng := newTestEngine(t, testConfig(), Deps{Classifier: &stubClassifier{}, Places: finder}, Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.stab.Run(ctx)

	require.NoError(t, eng.ResolveLocation(ctx, model.LatLng{}))

	require.Eventually(t, func() bool {
		return eng.State().PlaceName == "Central Garage"
	}, 2*time.Second, 5*time.Millisecond)

	assert.Nil(t, eng.State().SessionLocation)
}

func TestResolveLocationWithoutFinder(t *testing.T) {
	eng := newTestEngine(t, testConfig(), Deps{Classifier: &stubClassifier{}}, Callbacks{})
	assert.Error(t, eng.ResolveLocation(context.Background(), model.LatLng{}))
}
