// Package frames supplies camera frames to the engine. On-device builds feed
// from the camera pipeline; these sources feed from files for development and
// batch runs.
package frames

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sayboard/sayboard/internal/service"
)

// DirSource walks a directory of image files in name order and serves each
// one once. Next returns io.EOF when the directory is exhausted.
type DirSource struct {
	paths []string
	pos   int
}

// NewDirSource lists the image files under dir.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isImage(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files in %s", dir)
	}
	return &DirSource{paths: paths}, nil
}

// Len returns the number of frames the source will serve.
func (s *DirSource) Len() int {
	return len(s.paths)
}

// Next returns the next frame, or io.EOF once all files are served.
func (s *DirSource) Next(ctx context.Context) (service.Frame, error) {
	if err := ctx.Err(); err != nil {
		return service.Frame{}, err
	}
	if s.pos >= len(s.paths) {
		return service.Frame{}, io.EOF
	}

	path := s.paths[s.pos]
	s.pos++

	data, err := os.ReadFile(path) // #nosec G304 -- paths come from the listed directory
	if err != nil {
		return service.Frame{}, fmt.Errorf("failed to read frame %s: %w", path, err)
	}

	return service.Frame{
		CapturedAt: time.Now(),
		MIMEType:   mimeFor(path),
		Data:       data,
	}, nil
}

// Close is a no-op.
func (s *DirSource) Close() error {
	return nil
}

// StillSource serves the same image on every call, simulating a stationary
// camera.
type StillSource struct {
	frame service.Frame
}

// NewStillSource loads one image to repeat.
func NewStillSource(path string) (*StillSource, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	return &StillSource{
		frame: service.Frame{MIMEType: mimeFor(path), Data: data},
	}, nil
}

// Next returns the still frame with a fresh capture time.
func (s *StillSource) Next(ctx context.Context) (service.Frame, error) {
	if err := ctx.Err(); err != nil {
		return service.Frame{}, err
	}
	frame := s.frame
	frame.CapturedAt = time.Now()
	return frame, nil
}

// Close is a no-op.
func (s *StillSource) Close() error {
	return nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

func mimeFor(path string) string {
	if m := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); m != "" {
		return m
	}
	return "image/jpeg"
}
