package daystate

import (
	"context"

	"github.com/RubeHicksCube/Djournal/internal/models"
)

// Tracker operations delegate to the registry inside the user's lock so that
// each one returns the full state.

func (m *Manager) CreateTimeSinceTracker(ctx context.Context, userID, name, referenceDate string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		_, err := m.trackers.CreateTimeSinceTracker(ctx, userID, s, name, referenceDate)
		return err
	})
}

func (m *Manager) DeleteTimeSinceTracker(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.DeleteTimeSinceTracker(ctx, userID, s, id)
	})
}

func (m *Manager) CreateDurationTracker(ctx context.Context, userID, name string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		_, err := m.trackers.CreateDurationTracker(ctx, userID, s, name)
		return err
	})
}

func (m *Manager) DeleteDurationTracker(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.DeleteDurationTracker(ctx, userID, s, id)
	})
}

func (m *Manager) StartTimer(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.StartTimer(ctx, userID, s, id)
	})
}

func (m *Manager) StopTimer(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.StopTimer(ctx, userID, s, id)
	})
}

func (m *Manager) ResetTimer(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.ResetTimer(ctx, userID, s, id)
	})
}

func (m *Manager) SetManualTime(ctx context.Context, userID, id string, elapsedMs int64) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.SetManualTime(ctx, userID, s, id, elapsedMs)
	})
}

func (m *Manager) CreateCustomCounter(ctx context.Context, userID, name string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		_, err := m.trackers.CreateCustomCounter(ctx, userID, s, name)
		return err
	})
}

func (m *Manager) DeleteCustomCounter(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.DeleteCustomCounter(ctx, userID, s, id)
	})
}

func (m *Manager) IncrementCounter(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.IncrementCounter(s, id)
	})
}

func (m *Manager) DecrementCounter(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.DecrementCounter(s, id)
	})
}

func (m *Manager) SetCounterValue(ctx context.Context, userID, id string, value int) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		return m.trackers.SetCounterValue(s, id, value)
	})
}
