package trackers

import (
	"context"
	"testing"
	"time"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/storage/memory"
)

const user = "u1"

func setup(t *testing.T) (*Registry, *memory.Store, *clock.Fixed, *models.DayState) {
	t.Helper()
	store := memory.New()
	clk := clock.NewFixed(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))
	state := models.NewDayState("2024-01-05")
	return New(store, store, clk), store, clk, &state
}

func TestTimeSinceTracker(t *testing.T) {
	ctx := context.Background()
	r, store, _, state := setup(t)

	if _, err := r.CreateTimeSinceTracker(ctx, user, state, "  ", "2024-01-01"); !apperrors.IsValidation(err) {
		t.Errorf("empty name: expected ValidationError, got %v", err)
	}
	if _, err := r.CreateTimeSinceTracker(ctx, user, state, "Moved", "yesterday"); !apperrors.IsValidation(err) {
		t.Errorf("bad reference: expected ValidationError, got %v", err)
	}

	past, err := r.CreateTimeSinceTracker(ctx, user, state, "Quit coffee", "2023-01-01")
	if err != nil {
		t.Fatalf("CreateTimeSinceTracker: %v", err)
	}
	if _, err := r.CreateTimeSinceTracker(ctx, user, state, "Trip", "2025-06-01T10:00:00Z"); err != nil {
		t.Fatalf("future reference should be accepted: %v", err)
	}
	if len(state.TimeSinceTrackers) != 2 {
		t.Fatalf("state has %d time-since trackers, want 2", len(state.TimeSinceTrackers))
	}

	stored, _ := store.ListTimeSince(ctx, user)
	if len(stored) != 2 || stored[0].ID != past {
		t.Errorf("tracker not written through: %+v", stored)
	}

	for range 2 {
		if err := r.DeleteTimeSinceTracker(ctx, user, state, past); err != nil {
			t.Fatalf("DeleteTimeSinceTracker: %v", err)
		}
	}
	if len(state.TimeSinceTrackers) != 1 {
		t.Errorf("state has %d time-since trackers after delete, want 1", len(state.TimeSinceTrackers))
	}
}

func TestTimerLifecycle(t *testing.T) {
	ctx := context.Background()
	r, store, clk, state := setup(t)

	id, err := r.CreateDurationTracker(ctx, user, state, "Reading")
	if err != nil {
		t.Fatalf("CreateDurationTracker: %v", err)
	}
	timer := state.DurationTrackers[0]
	if timer.IsRunning || timer.StartTime != nil || timer.ElapsedMs != 0 || timer.Value != 0 {
		t.Fatalf("new timer = %+v", timer)
	}

	startedAt := clk.Now()
	if err := r.StartTimer(ctx, user, state, id); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	clk.Advance(30 * time.Second)
	if err := r.StartTimer(ctx, user, state, id); err != nil {
		t.Fatalf("second StartTimer: %v", err)
	}
	if got := state.DurationTrackers[0].StartTime; got == nil || !got.Equal(startedAt) {
		t.Errorf("repeated start moved StartTime to %v", got)
	}

	clk.Advance(95*time.Second + 500*time.Millisecond)
	if err := r.StopTimer(ctx, user, state, id); err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	timer = state.DurationTrackers[0]
	if timer.IsRunning || timer.StartTime != nil || timer.ElapsedMs != 125500 || timer.Value != 125 {
		t.Errorf("stopped timer = %+v", timer)
	}

	if err := r.StopTimer(ctx, user, state, id); err != nil {
		t.Fatalf("StopTimer on stopped timer: %v", err)
	}
	if state.DurationTrackers[0].ElapsedMs != 125500 {
		t.Error("stopping a stopped timer changed it")
	}

	stored, _ := store.ListDuration(ctx, user)
	if len(stored) != 1 || stored[0].ElapsedMs != 125500 {
		t.Errorf("timer not written through: %+v", stored)
	}

	if err := r.ResetTimer(ctx, user, state, id); err != nil {
		t.Fatalf("ResetTimer: %v", err)
	}
	timer = state.DurationTrackers[0]
	if timer.ElapsedMs != 0 || timer.Value != 0 || timer.IsRunning {
		t.Errorf("reset timer = %+v", timer)
	}
}

func TestSetManualTime(t *testing.T) {
	ctx := context.Background()
	r, _, clk, state := setup(t)

	id, _ := r.CreateDurationTracker(ctx, user, state, "Piano")
	_ = r.StartTimer(ctx, user, state, id)

	if err := r.SetManualTime(ctx, user, state, id, 90500); err != nil {
		t.Fatalf("SetManualTime: %v", err)
	}
	timer := state.DurationTrackers[0]
	wantStart := clk.Now().Add(-90500 * time.Millisecond)
	if timer.IsRunning || timer.ElapsedMs != 90500 || timer.Value != 90 || timer.StartTime == nil || !timer.StartTime.Equal(wantStart) {
		t.Errorf("timer after SetManualTime = %+v", timer)
	}

	if err := r.SetManualTime(ctx, user, state, id, -1); !apperrors.IsValidation(err) {
		t.Errorf("negative elapsed: expected ValidationError, got %v", err)
	}
	if err := r.SetManualTime(ctx, user, state, "missing", 10); !apperrors.IsNotFound(err) {
		t.Errorf("unknown id: expected NotFoundError, got %v", err)
	}

	counterID, _ := r.CreateCustomCounter(ctx, user, state, "Water")
	if err := r.SetManualTime(ctx, user, state, counterID, 10); !apperrors.IsInvalidState(err) {
		t.Errorf("counter id: expected InvalidStateError, got %v", err)
	}
	tsID, _ := r.CreateTimeSinceTracker(ctx, user, state, "Moved", "2022-01-01")
	if err := r.SetManualTime(ctx, user, state, tsID, 10); !apperrors.IsInvalidState(err) {
		t.Errorf("time-since id: expected InvalidStateError, got %v", err)
	}
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	r, store, _, state := setup(t)

	id, err := r.CreateCustomCounter(ctx, user, state, "Push-ups")
	if err != nil {
		t.Fatalf("CreateCustomCounter: %v", err)
	}
	if _, err := r.CreateCustomCounter(ctx, user, state, "Push-ups"); !apperrors.IsConflict(err) {
		t.Errorf("duplicate name: expected ConflictError, got %v", err)
	}
	if len(state.CustomCounters) != 1 {
		t.Fatalf("state has %d counters, want 1", len(state.CustomCounters))
	}
	if _, err := store.GetCounterByName(ctx, user, "Push-ups"); err != nil {
		t.Errorf("counter not registered: %v", err)
	}

	steps := []struct {
		name string
		op   func() error
		want int
	}{
		{"increment", func() error { return r.IncrementCounter(state, id) }, 1},
		{"increment again", func() error { return r.IncrementCounter(state, id) }, 2},
		{"decrement", func() error { return r.DecrementCounter(state, id) }, 1},
		{"decrement to zero", func() error { return r.DecrementCounter(state, id) }, 0},
		{"decrement clamps", func() error { return r.DecrementCounter(state, id) }, 0},
		{"set", func() error { return r.SetCounterValue(state, id, 42) }, 42},
	}
	for _, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if got := state.CustomCounters[0].Value; got != step.want {
			t.Errorf("%s: value = %d, want %d", step.name, got, step.want)
		}
	}

	if err := r.SetCounterValue(state, id, -3); !apperrors.IsValidation(err) {
		t.Errorf("negative value: expected ValidationError, got %v", err)
	}
	if state.CustomCounters[0].Value != 42 {
		t.Error("rejected SetCounterValue changed the counter")
	}
	if err := r.IncrementCounter(state, "missing"); !apperrors.IsNotFound(err) {
		t.Errorf("unknown counter: expected NotFoundError, got %v", err)
	}

	for range 2 {
		if err := r.DeleteCustomCounter(ctx, user, state, id); err != nil {
			t.Fatalf("DeleteCustomCounter: %v", err)
		}
	}
	if len(state.CustomCounters) != 0 {
		t.Error("counter still in state after delete")
	}
	if defs, _ := store.ListCounters(ctx, user); len(defs) != 0 {
		t.Errorf("counter still registered: %+v", defs)
	}
}

func TestLoadAndCounters(t *testing.T) {
	ctx := context.Background()
	r, _, _, state := setup(t)

	_, _ = r.CreateTimeSinceTracker(ctx, user, state, "Moved", "2022-01-01")
	_, _ = r.CreateDurationTracker(ctx, user, state, "Reading")
	id, _ := r.CreateCustomCounter(ctx, user, state, "Water")
	_ = r.IncrementCounter(state, id)

	timeSince, durations, err := r.Load(ctx, user)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(timeSince) != 1 || len(durations) != 1 {
		t.Errorf("Load = %d time-since, %d durations", len(timeSince), len(durations))
	}

	counters, err := r.Counters(ctx, user)
	if err != nil {
		t.Fatalf("Counters: %v", err)
	}
	if len(counters) != 1 || counters[0].ID != id || counters[0].Value != 0 {
		t.Errorf("Counters = %+v, want one zero-valued counter", counters)
	}
}
