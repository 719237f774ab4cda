package sqldb

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

func (s *Store) GetDayState(ctx context.Context, userID string) (models.DayState, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.q("SELECT data FROM day_states WHERE user_id = ?"), userID)
	if err != nil {
		if isNoRows(err) {
			return models.DayState{}, apperrors.NotFound("day state", userID)
		}
		return models.DayState{}, fmt.Errorf("failed to load day state: %w", err)
	}

	var state models.DayState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return models.DayState{}, fmt.Errorf("failed to decode day state for %s: %w", userID, err)
	}
	state.Normalize()
	return state, nil
}

func (s *Store) SaveDayState(ctx context.Context, userID string, state models.DayState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode day state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO day_states (user_id, date, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			date = excluded.date,
			data = excluded.data,
			updated_at = excluded.updated_at`),
		userID, state.Date, string(data), formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save day state: %w", err)
	}
	return nil
}
