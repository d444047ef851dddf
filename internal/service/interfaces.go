// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/sayboard/sayboard/internal/model"
)

// RetryOptions configures retry behavior for operations that may fail.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Frame is one captured camera frame ready for upload.
type Frame struct {
	CapturedAt time.Time
	MIMEType   string
	Data       []byte
}

// FrameSource supplies camera frames at the capture cadence. Next blocks
// until a frame is available or the context is canceled.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Classifier is the discrete (REST) classification path: one frame in, one
// classification out.
type Classifier interface {
	ClassifyFrame(ctx context.Context, frame Frame, placeHint string) (model.Classification, error)
	EntityPhrases(ctx context.Context, entity, situation string) ([]model.DisplayTile, error)
	Close() error
}

// Synthesizer converts text to audible speech. Implementations either return
// PCM bytes for the audio sink or perform playback themselves and return nil
// audio.
type Synthesizer interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

// PlaceFinder resolves GPS coordinates to nearby places.
type PlaceFinder interface {
	Nearby(ctx context.Context, loc model.LatLng) ([]model.Place, error)
}

// Snapshot is a read-only projection of stabilizer state for the
// observability channel.
type Snapshot struct {
	TakenAt              time.Time
	ConnectionMode       string
	CurrentContext       model.ContextType
	BackgroundContext    model.ContextType
	Confidence           float64
	BackgroundConfidence float64
	TileCount            int
	SessionRemaining     time.Duration
	ContextLocked        bool
	LiveSessionActive    bool
	MajorShiftDetected   bool
}

// Mirror persists classification history and state snapshots for the debug
// observer. It is write-mostly from the engine and read-only for viewers.
type Mirror interface {
	RecordClassification(ctx context.Context, c model.Classification) error
	RecordSnapshot(ctx context.Context, s Snapshot) error
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
	RecentClassifications(ctx context.Context, limit int) ([]model.Classification, error)
	Close() error
}
