// Package trackers implements the tracker operations of a day: time-since
// markers, duration timers and custom counters. The registry mutates the
// DayState it is handed and writes trackers through to storage immediately.
package trackers

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/logger"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/storage"
)

// Registry holds no state of its own; callers serialize access per user.
type Registry struct {
	trackers storage.TrackerRepository
	counters storage.CounterRegistry
	clock    clock.Clock
}

func New(trackers storage.TrackerRepository, counters storage.CounterRegistry, clk clock.Clock) *Registry {
	return &Registry{
		trackers: trackers,
		counters: counters,
		clock:    clk,
	}
}

// Load returns the persisted trackers of a user, used when a day is built
// from scratch.
func (r *Registry) Load(ctx context.Context, userID string) ([]models.TimeSinceTracker, []models.DurationTracker, error) {
	timeSince, err := r.trackers.ListTimeSince(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	durations, err := r.trackers.ListDuration(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return timeSince, durations, nil
}

// Counters returns the counter definitions of a user as zero-valued counters.
func (r *Registry) Counters(ctx context.Context, userID string) ([]models.Counter, error) {
	defs, err := r.counters.ListCounters(ctx, userID)
	if err != nil {
		return nil, err
	}
	counters := make([]models.Counter, 0, len(defs))
	for _, d := range defs {
		counters = append(counters, models.Counter{ID: d.ID, Name: d.Name})
	}
	return counters, nil
}

// CreateTimeSinceTracker appends a marker. referenceDate may lie in the past
// or the future.
func (r *Registry) CreateTimeSinceTracker(ctx context.Context, userID string, state *models.DayState, name, referenceDate string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("name", "cannot be empty")
	}
	if _, err := clock.ParseReference(referenceDate, r.clock.Now().Location()); err != nil {
		return "", apperrors.Validation("referenceDate", err.Error())
	}

	t := models.TimeSinceTracker{
		ID:            uuid.NewString(),
		Name:          name,
		ReferenceDate: referenceDate,
	}
	if err := r.trackers.SaveTimeSince(ctx, userID, t); err != nil {
		return "", err
	}
	state.TimeSinceTrackers = append(state.TimeSinceTrackers, t)
	logger.Debug("Created time-since tracker", "user", userID, "id", t.ID)
	return t.ID, nil
}

func (r *Registry) DeleteTimeSinceTracker(ctx context.Context, userID string, state *models.DayState, id string) error {
	if err := r.trackers.DeleteTimeSince(ctx, userID, id); err != nil {
		return err
	}
	state.TimeSinceTrackers = slices.DeleteFunc(state.TimeSinceTrackers, func(t models.TimeSinceTracker) bool {
		return t.ID == id
	})
	return nil
}

func (r *Registry) CreateDurationTracker(ctx context.Context, userID string, state *models.DayState, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("name", "cannot be empty")
	}

	t := models.DurationTracker{
		ID:   uuid.NewString(),
		Name: name,
	}
	if err := r.trackers.SaveDuration(ctx, userID, t); err != nil {
		return "", err
	}
	state.DurationTrackers = append(state.DurationTrackers, t)
	logger.Debug("Created duration tracker", "user", userID, "id", t.ID)
	return t.ID, nil
}

func (r *Registry) DeleteDurationTracker(ctx context.Context, userID string, state *models.DayState, id string) error {
	if err := r.trackers.DeleteDuration(ctx, userID, id); err != nil {
		return err
	}
	state.DurationTrackers = slices.DeleteFunc(state.DurationTrackers, func(t models.DurationTracker) bool {
		return t.ID == id
	})
	return nil
}

// StartTimer marks the timer running from now. Starting a running timer
// keeps its original start time.
func (r *Registry) StartTimer(ctx context.Context, userID string, state *models.DayState, id string) error {
	return r.updateTimer(ctx, userID, state, id, func(t *models.DurationTracker, now time.Time) bool {
		if t.IsRunning {
			return false
		}
		t.IsRunning = true
		t.StartTime = &now
		return true
	})
}

// StopTimer folds the current run into ElapsedMs. It is a no-op for a
// stopped timer.
func (r *Registry) StopTimer(ctx context.Context, userID string, state *models.DayState, id string) error {
	return r.updateTimer(ctx, userID, state, id, func(t *models.DurationTracker, now time.Time) bool {
		if !t.IsRunning {
			return false
		}
		t.ElapsedMs = t.LiveElapsedMs(now)
		t.Value = t.ElapsedMs / 1000
		t.IsRunning = false
		t.StartTime = nil
		return true
	})
}

func (r *Registry) ResetTimer(ctx context.Context, userID string, state *models.DayState, id string) error {
	return r.updateTimer(ctx, userID, state, id, func(t *models.DurationTracker, _ time.Time) bool {
		t.ElapsedMs = 0
		t.Value = 0
		t.IsRunning = false
		t.StartTime = nil
		return true
	})
}

// SetManualTime overwrites the accumulated time and stops the timer.
// StartTime is backdated so that it stays consistent with elapsedMs.
func (r *Registry) SetManualTime(ctx context.Context, userID string, state *models.DayState, id string, elapsedMs int64) error {
	if elapsedMs < 0 {
		return apperrors.Validation("elapsedMs", "must not be negative")
	}
	return r.updateTimer(ctx, userID, state, id, func(t *models.DurationTracker, now time.Time) bool {
		start := now.Add(-time.Duration(elapsedMs) * time.Millisecond)
		t.ElapsedMs = elapsedMs
		t.Value = elapsedMs / 1000
		t.StartTime = &start
		t.IsRunning = false
		return true
	})
}

// updateTimer applies fn to a copy of the timer and, when fn reports a change,
// persists it before replacing the timer in state.
func (r *Registry) updateTimer(ctx context.Context, userID string, state *models.DayState, id string, fn func(*models.DurationTracker, time.Time) bool) error {
	i, err := findTimer(state, id)
	if err != nil {
		return err
	}

	t := state.DurationTrackers[i].Clone()
	if !fn(&t, r.clock.Now()) {
		return nil
	}
	if err := r.trackers.SaveDuration(ctx, userID, t); err != nil {
		return err
	}
	state.DurationTrackers[i] = t
	return nil
}

// CreateCustomCounter registers name with the counter registry and adds a
// zero-valued counter to today. Names are unique per user.
func (r *Registry) CreateCustomCounter(ctx context.Context, userID string, state *models.DayState, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("name", "cannot be empty")
	}

	def := models.CounterDefinition{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: r.clock.Now(),
	}
	if err := r.counters.CreateCounter(ctx, userID, def); err != nil {
		return "", err
	}
	state.CustomCounters = append(state.CustomCounters, models.Counter{ID: def.ID, Name: def.Name})
	logger.Debug("Created counter", "user", userID, "id", def.ID)
	return def.ID, nil
}

func (r *Registry) DeleteCustomCounter(ctx context.Context, userID string, state *models.DayState, id string) error {
	if err := r.counters.DeleteCounter(ctx, userID, id); err != nil {
		return err
	}
	state.CustomCounters = slices.DeleteFunc(state.CustomCounters, func(c models.Counter) bool {
		return c.ID == id
	})
	return nil
}

func (r *Registry) IncrementCounter(state *models.DayState, id string) error {
	i, err := findCounter(state, id)
	if err != nil {
		return err
	}
	state.CustomCounters[i].Value++
	return nil
}

// DecrementCounter never takes a counter below zero.
func (r *Registry) DecrementCounter(state *models.DayState, id string) error {
	i, err := findCounter(state, id)
	if err != nil {
		return err
	}
	if state.CustomCounters[i].Value > 0 {
		state.CustomCounters[i].Value--
	}
	return nil
}

func (r *Registry) SetCounterValue(state *models.DayState, id string, value int) error {
	if value < 0 {
		return apperrors.Validation("value", "must be a non-negative integer")
	}
	i, err := findCounter(state, id)
	if err != nil {
		return err
	}
	state.CustomCounters[i].Value = value
	return nil
}

func findTimer(state *models.DayState, id string) (int, error) {
	for i, t := range state.DurationTrackers {
		if t.ID == id {
			return i, nil
		}
	}
	if kind, ok := kindOf(state, id); ok {
		return -1, apperrors.InvalidState(string(kind)+" tracker", id, "not a duration timer")
	}
	return -1, apperrors.NotFound("duration tracker", id)
}

func findCounter(state *models.DayState, id string) (int, error) {
	for i, c := range state.CustomCounters {
		if c.ID == id {
			return i, nil
		}
	}
	if kind, ok := kindOf(state, id); ok {
		return -1, apperrors.InvalidState(string(kind)+" tracker", id, "not a counter")
	}
	return -1, apperrors.NotFound("counter", id)
}

// kindOf reports which tracker collection of state holds id.
func kindOf(state *models.DayState, id string) (models.TrackerKind, bool) {
	for _, t := range state.TimeSinceTrackers {
		if t.ID == id {
			return models.TrackerTimeSince, true
		}
	}
	for _, t := range state.DurationTrackers {
		if t.ID == id {
			return models.TrackerDuration, true
		}
	}
	for _, c := range state.CustomCounters {
		if c.ID == id {
			return models.TrackerCounter, true
		}
	}
	return "", false
}
