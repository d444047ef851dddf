package speech

import (
	"sync"
	"time"
)

// Default stream format for model audio output: 24kHz 16-bit signed mono PCM.
const (
	DefaultSampleRate = 24000
	bytesPerSample    = 2
)

// Scheduler assigns gapless playback times to a stream of PCM chunks.
// Chunks arrive in bursts from the network; each one is scheduled to start
// exactly when the previous one ends, or immediately if the stream has
// drained.
type Scheduler struct {
	end        time.Time
	sampleRate int
	now        func() time.Time
	mu         sync.Mutex
}

// NewScheduler creates a scheduler for the given sample rate. A rate of 0
// uses DefaultSampleRate.
func NewScheduler(sampleRate int) *Scheduler {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Scheduler{
		sampleRate: sampleRate,
		now:        time.Now,
	}
}

// Schedule returns the time at which a chunk of the given byte length should
// begin playing, and its duration. Consecutive calls produce contiguous
// intervals with no overlap and no gap while the stream keeps up.
func (s *Scheduler) Schedule(chunkLen int) (start time.Time, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	start = s.end
	if start.Before(now) {
		start = now
	}

	samples := chunkLen / bytesPerSample
	duration = time.Duration(samples) * time.Second / time.Duration(s.sampleRate)
	s.end = start.Add(duration)
	return start, duration
}

// Pending reports how much scheduled audio remains unplayed.
func (s *Scheduler) Pending() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.end.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset drops all scheduled audio, for interruptions and reconnects.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end = time.Time{}
}
