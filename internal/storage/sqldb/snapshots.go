package sqldb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

type snapshotRow struct {
	UserID  string `db:"user_id"`
	Date    string `db:"date"`
	Data    string `db:"data"`
	SavedAt string `db:"saved_at"`
}

func (r snapshotRow) toModel() (models.Snapshot, error) {
	var state models.DayState
	if err := json.Unmarshal([]byte(r.Data), &state); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", r.Date, err)
	}
	state.Normalize()
	return models.Snapshot{
		UserID:  r.UserID,
		Date:    r.Date,
		State:   state,
		SavedAt: parseTime(r.SavedAt),
	}, nil
}

func (s *Store) SaveSnapshot(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO snapshots (user_id, date, data, saved_at) VALUES (:user_id, :date, :data, :saved_at)
		ON CONFLICT (user_id, date) DO UPDATE SET
			data = excluded.data,
			saved_at = excluded.saved_at`,
		snapshotRow{
			UserID:  snap.UserID,
			Date:    snap.Date,
			Data:    string(data),
			SavedAt: formatTime(snap.SavedAt),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.Date, err)
	}
	return nil
}

func (s *Store) GetSnapshot(ctx context.Context, userID, date string) (models.Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, s.q(
		"SELECT user_id, date, data, saved_at FROM snapshots WHERE user_id = ? AND date = ?"),
		userID, date)
	if err != nil {
		if isNoRows(err) {
			return models.Snapshot{}, apperrors.NotFound("snapshot", date)
		}
		return models.Snapshot{}, fmt.Errorf("failed to load snapshot %s: %w", date, err)
	}
	return row.toModel()
}

func (s *Store) ListSnapshotDates(ctx context.Context, userID string) ([]string, error) {
	dates := []string{}
	err := s.db.SelectContext(ctx, &dates, s.q(
		"SELECT date FROM snapshots WHERE user_id = ? ORDER BY date DESC"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return dates, nil
}

func (s *Store) GetSnapshotRange(ctx context.Context, userID, start, end string) ([]models.Snapshot, error) {
	var rows []snapshotRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT user_id, date, data, saved_at FROM snapshots
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`),
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots %s..%s: %w", start, end, err)
	}

	snaps := make([]models.Snapshot, 0, len(rows))
	for _, r := range rows {
		snap, err := r.toModel()
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, userID, date string) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM snapshots WHERE user_id = ? AND date = ?"), userID, date)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", date, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("snapshot", date)
	}
	return nil
}

func (s *Store) DeleteSnapshots(ctx context.Context, userID string, dates []string) error {
	if len(dates) == 0 {
		return nil
	}

	query, args, err := sqlx.In("DELETE FROM snapshots WHERE user_id = ? AND date IN (?)", userID, dates)
	if err != nil {
		return fmt.Errorf("failed to build snapshot delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.q(query), args...); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}
