package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RubeHicksCube/Djournal/internal/models"
)

type durationRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	IsRunning bool           `db:"is_running"`
	StartTime sql.NullString `db:"start_time"`
	ElapsedMs int64          `db:"elapsed_ms"`
	Value     int64          `db:"value"`
}

func (s *Store) ListTimeSince(ctx context.Context, userID string) ([]models.TimeSinceTracker, error) {
	trackers := []models.TimeSinceTracker{}
	err := s.db.SelectContext(ctx, &trackers, s.q(`
		SELECT id, name, reference_date FROM time_since_trackers
		WHERE user_id = ? ORDER BY seq`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time-since trackers: %w", err)
	}
	return trackers, nil
}

func (s *Store) SaveTimeSince(ctx context.Context, userID string, t models.TimeSinceTracker) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO time_since_trackers (id, user_id, name, reference_date) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = excluded.name,
			reference_date = excluded.reference_date`),
		t.ID, userID, t.Name, t.ReferenceDate,
	)
	if err != nil {
		return fmt.Errorf("failed to save time-since tracker %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) DeleteTimeSince(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, s.q("DELETE FROM time_since_trackers WHERE user_id = ? AND id = ?"), userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete time-since tracker %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListDuration(ctx context.Context, userID string) ([]models.DurationTracker, error) {
	var rows []durationRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT id, name, is_running, start_time, elapsed_ms, value FROM duration_trackers
		WHERE user_id = ? ORDER BY seq`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list duration trackers: %w", err)
	}

	trackers := make([]models.DurationTracker, 0, len(rows))
	for _, r := range rows {
		t := models.DurationTracker{
			ID:        r.ID,
			Name:      r.Name,
			IsRunning: r.IsRunning,
			ElapsedMs: r.ElapsedMs,
			Value:     r.Value,
		}
		if r.StartTime.Valid && r.StartTime.String != "" {
			st := parseTime(r.StartTime.String)
			t.StartTime = &st
		}
		trackers = append(trackers, t)
	}
	return trackers, nil
}

func (s *Store) SaveDuration(ctx context.Context, userID string, t models.DurationTracker) error {
	var startTime sql.NullString
	if t.StartTime != nil {
		startTime = sql.NullString{String: formatTime(*t.StartTime), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO duration_trackers (id, user_id, name, is_running, start_time, elapsed_ms, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = excluded.name,
			is_running = excluded.is_running,
			start_time = excluded.start_time,
			elapsed_ms = excluded.elapsed_ms,
			value = excluded.value`),
		t.ID, userID, t.Name, t.IsRunning, startTime, t.ElapsedMs, t.Value,
	)
	if err != nil {
		return fmt.Errorf("failed to save duration tracker %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) DeleteDuration(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, s.q("DELETE FROM duration_trackers WHERE user_id = ? AND id = ?"), userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete duration tracker %s: %w", id, err)
	}
	return nil
}
