package engine

import (
	"context"
	"time"

	"github.com/sayboard/sayboard/internal/model"
	"github.com/sayboard/sayboard/internal/service"
	"github.com/sayboard/sayboard/internal/stabilizer"
)

// LiveChannel is the streaming session surface the engine drives. Satisfied
// by live.Client; mocked in tests.
type LiveChannel interface {
	Connect(ctx context.Context) error
	Disconnect()
	SendFrame(jpeg []byte) error
	RequestSpeech(phrase string) error
	IsConnected() bool
	SessionTimeRemaining() time.Duration
}

// Deps holds the engine's collaborators. Frames and Classifier are required;
// the rest are optional and skipped when nil.
type Deps struct {
	Frames     service.FrameSource
	Classifier service.Classifier
	Synth      service.Synthesizer
	Places     service.PlaceFinder
	Mirror     service.Mirror
}

// Callbacks are the engine's outputs toward the UI layer. All are optional.
type Callbacks struct {
	// OnState fires after every state transition.
	OnState func(stabilizer.State)
	// OnPrompt fires when a classification needs user affirmation before it
	// can be applied.
	OnPrompt func(model.Affirmation, model.Classification)
	// OnAudio receives PCM audio from the live channel or the synthesizer.
	OnAudio func([]byte)
}
