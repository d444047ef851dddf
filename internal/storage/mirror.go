package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sayboard/sayboard/internal/model"
	"github.com/sayboard/sayboard/internal/service"
)

// RecordClassification appends one classification to the history.
func (s *SQLiteMirror) RecordClassification(ctx context.Context, c model.Classification) error {
	secondary, err := json.Marshal(c.Secondary)
	if err != nil {
		return fmt.Errorf("failed to encode secondary contexts: %w", err)
	}
	entities, err := json.Marshal(c.Entities)
	if err != nil {
		return fmt.Errorf("failed to encode entities: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classifications (received_at, primary_context, secondary_contexts, entities, situation, confidence)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ReceivedAt, string(c.Primary), string(secondary), string(entities), c.SituationInference, c.Confidence)
	if err != nil {
		return fmt.Errorf("failed to record classification: %w", err)
	}
	return nil
}

// RecentClassifications returns the newest classifications, newest first.
func (s *SQLiteMirror) RecentClassifications(ctx context.Context, limit int) ([]model.Classification, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT received_at, primary_context, secondary_contexts, entities, situation, confidence
		FROM classifications
		ORDER BY received_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.Classification
	for rows.Next() {
		var (
			c         model.Classification
			primary   string
			secondary sql.NullString
			entities  sql.NullString
			situation sql.NullString
		)
		if err := rows.Scan(&c.ReceivedAt, &primary, &secondary, &entities, &situation, &c.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}

		c.Primary = model.ContextType(primary)
		c.SituationInference = situation.String
		if secondary.Valid && secondary.String != "" {
			if err := json.Unmarshal([]byte(secondary.String), &c.Secondary); err != nil {
				return nil, fmt.Errorf("failed to decode secondary contexts: %w", err)
			}
		}
		if entities.Valid && entities.String != "" {
			if err := json.Unmarshal([]byte(entities.String), &c.Entities); err != nil {
				return nil, fmt.Errorf("failed to decode entities: %w", err)
			}
		}

		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classifications: %w", err)
	}
	return results, nil
}

// RecordSnapshot appends one state snapshot.
func (s *SQLiteMirror) RecordSnapshot(ctx context.Context, snap service.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (taken_at, connection_mode, current_context, background_context,
			confidence, background_confidence, tile_count, session_remaining_ms,
			context_locked, live_session_active, major_shift_detected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.TakenAt, snap.ConnectionMode, string(snap.CurrentContext), string(snap.BackgroundContext),
		snap.Confidence, snap.BackgroundConfidence, snap.TileCount, snap.SessionRemaining.Milliseconds(),
		boolToInt(snap.ContextLocked), boolToInt(snap.LiveSessionActive), boolToInt(snap.MajorShiftDetected))
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot, or nil if none exist.
func (s *SQLiteMirror) LatestSnapshot(ctx context.Context) (*service.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT taken_at, connection_mode, current_context, background_context,
			confidence, background_confidence, tile_count, session_remaining_ms,
			context_locked, live_session_active, major_shift_detected
		FROM snapshots
		ORDER BY taken_at DESC, id DESC
		LIMIT 1`)

	var (
		snap        service.Snapshot
		current     string
		background  sql.NullString
		remainingMS int64
		locked      int
		liveActive  int
		majorShift  int
	)
	err := row.Scan(&snap.TakenAt, &snap.ConnectionMode, &current, &background,
		&snap.Confidence, &snap.BackgroundConfidence, &snap.TileCount, &remainingMS,
		&locked, &liveActive, &majorShift)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	snap.CurrentContext = model.ContextType(current)
	snap.BackgroundContext = model.ContextType(background.String)
	snap.SessionRemaining = time.Duration(remainingMS) * time.Millisecond
	snap.ContextLocked = locked != 0
	snap.LiveSessionActive = liveActive != 0
	snap.MajorShiftDetected = majorShift != 0
	return &snap, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
