// Package tui implements the live state observer: a small terminal view of
// the mirror database that refreshes while a session runs elsewhere.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sayboard/sayboard/internal/cli"
	"github.com/sayboard/sayboard/internal/model"
	"github.com/sayboard/sayboard/internal/service"
)

const (
	refreshInterval = time.Second
	historyLimit    = 8
)

type refreshMsg struct {
	snapshot *service.Snapshot
	history  []model.Classification
	err      error
}

type tickMsg struct{}

// WatchModel is the bubbletea model for the watch command.
type WatchModel struct {
	mirror   service.Mirror
	ctx      context.Context
	spinner  spinner.Model
	snapshot *service.Snapshot
	history  []model.Classification
	err      error
}

// NewWatchModel creates the observer view over a mirror.
func NewWatchModel(ctx context.Context, mirror service.Mirror) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cli.SubtleStyle

	return WatchModel{
		mirror:  mirror,
		ctx:     ctx,
		spinner: sp,
	}
}

// Init starts the spinner and the first refresh.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

// Update handles refresh results, ticks, and quit keys.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case refreshMsg:
		m.err = msg.err
		if msg.err == nil {
			m.snapshot = msg.snapshot
			m.history = msg.history
		}
		return m, m.tick()

	case tickMsg:
		return m, m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the latest snapshot and recent classification history.
func (m WatchModel) View() string {
	var b strings.Builder
	b.WriteString(cli.TitleStyle.Render("sayboard observer"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(cli.ErrorStyle.Render(fmt.Sprintf("mirror read failed: %v", m.err)))
		b.WriteString("\n")
	}

	if m.snapshot == nil {
		b.WriteString(m.spinner.View())
		b.WriteString(" waiting for first snapshot\n")
		b.WriteString(cli.SubtleStyle.Render("press q to quit"))
		return b.String()
	}

	s := m.snapshot
	b.WriteString(fmt.Sprintf("Context:    %s", s.CurrentContext.Format()))
	if s.ContextLocked {
		b.WriteString(cli.WarningStyle.Render("  [locked]"))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Confidence: %.2f\n", s.Confidence))
	b.WriteString(fmt.Sprintf("Mode:       %s", s.ConnectionMode))
	if s.LiveSessionActive {
		b.WriteString(fmt.Sprintf("  (session %s remaining)", s.SessionRemaining.Round(time.Second)))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Tiles:      %d\n", s.TileCount))

	if s.MajorShiftDetected {
		b.WriteString(cli.WarningStyle.Render(
			fmt.Sprintf("Major shift detected: %s (%.2f)", s.BackgroundContext.Format(), s.BackgroundConfidence)))
		b.WriteString("\n")
	}

	if len(m.history) > 0 {
		b.WriteString("\n")
		b.WriteString(cli.SubtleStyle.Render("recent classifications"))
		b.WriteString("\n")
		for _, c := range m.history {
			b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf("  %s  %-20s %.2f",
				c.ReceivedAt.Format("15:04:05"), c.Primary, c.Confidence)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.spinner.View())
	b.WriteString(cli.SubtleStyle.Render(" refreshing, press q to quit"))
	return b.String()
}

func (m WatchModel) refresh() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.mirror.LatestSnapshot(m.ctx)
		if err != nil {
			return refreshMsg{err: err}
		}
		history, err := m.mirror.RecentClassifications(m.ctx, historyLimit)
		if err != nil {
			return refreshMsg{err: err}
		}
		return refreshMsg{snapshot: snapshot, history: history}
	}
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
