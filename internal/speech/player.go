package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// preroll is how far ahead of a chunk's scheduled start it may be written to
// the sink. Holding bursty chunks back keeps an interruption from flushing
// seconds of already-queued audio.
const preroll = 250 * time.Millisecond

// Player streams raw PCM chunks to the platform audio pipeline, pacing
// writes with the gapless scheduler so network bursts play back smoothly.
type Player struct {
	sched   *Scheduler
	command string
	args    []string

	mu      sync.Mutex
	sink    io.WriteCloser
	cmd     *exec.Cmd
	missing bool
}

// NewPlayer creates a player for the given sample rate. A rate of 0 uses
// DefaultSampleRate.
func NewPlayer(sampleRate int) *Player {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	rate := strconv.Itoa(sampleRate)

	command := "aplay"
	args := []string{"-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", rate}
	if runtime.GOOS == "darwin" {
		command = "play"
		args = []string{"-q", "-t", "raw", "-b", "16", "-e", "signed", "-c", "1", "-r", rate, "-"}
	}

	return &Player{
		sched:   NewScheduler(sampleRate),
		command: command,
		args:    args,
	}
}

// Play schedules the chunk and writes it to the audio pipeline in arrival
// order. It blocks until just before the chunk's slot; canceling the context
// drops the chunk.
func (p *Player) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}

	start, _ := p.sched.Schedule(len(pcm))
	if wait := time.Until(start.Add(-preroll)); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	sink, err := p.ensureSink(ctx)
	if err != nil {
		return err
	}
	if sink == nil {
		// No playback binary on this machine; the chunk is dropped.
		return nil
	}

	if _, err := sink.Write(pcm); err != nil {
		return fmt.Errorf("audio write failed: %w", err)
	}
	return nil
}

// Interrupt drops all scheduled audio so the next chunk plays immediately.
func (p *Player) Interrupt() {
	p.sched.Reset()
}

func (p *Player) ensureSink(ctx context.Context) (io.Writer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sink != nil {
		return p.sink, nil
	}
	if p.missing {
		return nil, nil
	}

	if _, err := exec.LookPath(p.command); err != nil {
		slog.Warn("audio playback command not found, dropping live audio",
			"command", p.command)
		p.missing = true
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, p.command, p.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open audio pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start audio pipeline: %w", err)
	}

	p.cmd = cmd
	p.sink = stdin
	return p.sink, nil
}

// Close stops the audio pipeline and discards scheduled audio.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sched.Reset()

	if p.sink == nil {
		return nil
	}
	err := p.sink.Close()
	if p.cmd != nil {
		if waitErr := p.cmd.Wait(); waitErr != nil && err == nil {
			err = waitErr
		}
	}
	p.sink = nil
	p.cmd = nil
	return err
}
