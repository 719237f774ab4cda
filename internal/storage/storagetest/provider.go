// Package storagetest holds the behavioural tests every storage.Provider must
// pass. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/storage"
)

// Run exercises store. Each subtest uses a fresh random user id so that a
// shared database (such as a Postgres integration instance) can be reused.
func Run(t *testing.T, store storage.Provider) {
	t.Helper()

	t.Run("DayState", func(t *testing.T) { testDayState(t, store) })
	t.Run("Snapshots", func(t *testing.T) { testSnapshots(t, store) })
	t.Run("Trackers", func(t *testing.T) { testTrackers(t, store) })
	t.Run("Templates", func(t *testing.T) { testTemplates(t, store) })
	t.Run("Counters", func(t *testing.T) { testCounters(t, store) })
	t.Run("Profile", func(t *testing.T) { testProfile(t, store) })
	t.Run("Retention", func(t *testing.T) { testRetention(t, store) })
}

func newUser() string {
	return "user-" + uuid.NewString()
}

func testDayState(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	user := newUser()

	if _, err := store.GetDayState(ctx, user); !apperrors.IsNotFound(err) {
		t.Fatalf("GetDayState on new user: expected NotFoundError, got %v", err)
	}

	state := models.NewDayState("2024-01-05")
	state.WakeTime = "07:15"
	state.Entries = append(state.Entries, models.Entry{ID: "e1", Timestamp: "08:00", Text: "run"})
	if err := store.SaveDayState(ctx, user, state); err != nil {
		t.Fatalf("SaveDayState: %v", err)
	}

	state.Date = "2024-01-06"
	state.Entries = []models.Entry{}
	if err := store.SaveDayState(ctx, user, state); err != nil {
		t.Fatalf("SaveDayState overwrite: %v", err)
	}

	got, err := store.GetDayState(ctx, user)
	if err != nil {
		t.Fatalf("GetDayState: %v", err)
	}
	if got.Date != "2024-01-06" || got.WakeTime != "07:15" || len(got.Entries) != 0 {
		t.Errorf("GetDayState = %+v", got)
	}
}

func testSnapshots(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	user := newUser()
	saved := time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC)

	for _, date := range []string{"2024-01-07", "2024-01-05", "2024-01-10"} {
		state := models.NewDayState(date)
		state.Tasks = append(state.Tasks, models.Task{ID: "t-" + date, Text: "task " + date})
		if err := store.SaveSnapshot(ctx, models.Snapshot{UserID: user, Date: date, State: state, SavedAt: saved}); err != nil {
			t.Fatalf("SaveSnapshot %s: %v", date, err)
		}
	}

	// overwrite keeps one row per date
	again := models.NewDayState("2024-01-07")
	again.WakeTime = "06:00"
	if err := store.SaveSnapshot(ctx, models.Snapshot{UserID: user, Date: "2024-01-07", State: again, SavedAt: saved}); err != nil {
		t.Fatalf("SaveSnapshot overwrite: %v", err)
	}

	dates, err := store.ListSnapshotDates(ctx, user)
	if err != nil {
		t.Fatalf("ListSnapshotDates: %v", err)
	}
	if want := []string{"2024-01-10", "2024-01-07", "2024-01-05"}; !reflect.DeepEqual(dates, want) {
		t.Errorf("ListSnapshotDates = %v, want %v", dates, want)
	}

	snap, err := store.GetSnapshot(ctx, user, "2024-01-07")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap.State.WakeTime != "06:00" || len(snap.State.Tasks) != 0 {
		t.Errorf("GetSnapshot did not return overwritten state: %+v", snap.State)
	}
	if !snap.SavedAt.Equal(saved) {
		t.Errorf("SavedAt = %v, want %v", snap.SavedAt, saved)
	}

	rng, err := store.GetSnapshotRange(ctx, user, "2024-01-06", "2024-01-10")
	if err != nil {
		t.Fatalf("GetSnapshotRange: %v", err)
	}
	var rangeDates []string
	for _, s := range rng {
		rangeDates = append(rangeDates, s.Date)
	}
	if want := []string{"2024-01-07", "2024-01-10"}; !reflect.DeepEqual(rangeDates, want) {
		t.Errorf("GetSnapshotRange = %v, want %v", rangeDates, want)
	}

	if _, err := store.GetSnapshot(ctx, user, "2024-01-06"); !apperrors.IsNotFound(err) {
		t.Errorf("GetSnapshot missing: expected NotFoundError, got %v", err)
	}
	if err := store.DeleteSnapshot(ctx, user, "2024-01-06"); !apperrors.IsNotFound(err) {
		t.Errorf("DeleteSnapshot missing: expected NotFoundError, got %v", err)
	}
	if err := store.DeleteSnapshot(ctx, user, "2024-01-05"); err != nil {
		t.Errorf("DeleteSnapshot: %v", err)
	}
	if err := store.DeleteSnapshots(ctx, user, []string{"2024-01-07", "2024-01-09"}); err != nil {
		t.Errorf("DeleteSnapshots: %v", err)
	}

	dates, _ = store.ListSnapshotDates(ctx, user)
	if want := []string{"2024-01-10"}; !reflect.DeepEqual(dates, want) {
		t.Errorf("dates after deletes = %v, want %v", dates, want)
	}

	other, _ := store.ListSnapshotDates(ctx, newUser())
	if len(other) != 0 {
		t.Errorf("snapshots leaked across users: %v", other)
	}
}

func testTrackers(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	user := newUser()

	ts := models.TimeSinceTracker{ID: "ts1", Name: "Quit coffee", ReferenceDate: "2023-01-01"}
	if err := store.SaveTimeSince(ctx, user, ts); err != nil {
		t.Fatalf("SaveTimeSince: %v", err)
	}
	if err := store.SaveTimeSince(ctx, user, models.TimeSinceTracker{ID: "ts2", Name: "Moved", ReferenceDate: "2022-06-01"}); err != nil {
		t.Fatalf("SaveTimeSince: %v", err)
	}
	ts.Name = "No coffee"
	if err := store.SaveTimeSince(ctx, user, ts); err != nil {
		t.Fatalf("SaveTimeSince update: %v", err)
	}

	list, err := store.ListTimeSince(ctx, user)
	if err != nil {
		t.Fatalf("ListTimeSince: %v", err)
	}
	if len(list) != 2 || list[0].ID != "ts1" || list[0].Name != "No coffee" || list[1].ID != "ts2" {
		t.Errorf("ListTimeSince = %+v", list)
	}

	if err := store.DeleteTimeSince(ctx, user, "ts1"); err != nil {
		t.Fatalf("DeleteTimeSince: %v", err)
	}
	if err := store.DeleteTimeSince(ctx, user, "ts1"); err != nil {
		t.Errorf("DeleteTimeSince should be idempotent: %v", err)
	}

	start := time.Date(2024, 1, 5, 9, 30, 0, 123000000, time.UTC)
	running := models.DurationTracker{ID: "d1", Name: "Reading", IsRunning: true, StartTime: &start, ElapsedMs: 5000, Value: 5}
	if err := store.SaveDuration(ctx, user, running); err != nil {
		t.Fatalf("SaveDuration: %v", err)
	}
	if err := store.SaveDuration(ctx, user, models.DurationTracker{ID: "d2", Name: "Piano"}); err != nil {
		t.Fatalf("SaveDuration: %v", err)
	}

	durations, err := store.ListDuration(ctx, user)
	if err != nil {
		t.Fatalf("ListDuration: %v", err)
	}
	if len(durations) != 2 {
		t.Fatalf("ListDuration returned %d trackers, want 2", len(durations))
	}
	got := durations[0]
	if got.ID != "d1" || !got.IsRunning || got.ElapsedMs != 5000 || got.Value != 5 || got.StartTime == nil || !got.StartTime.Equal(start) {
		t.Errorf("ListDuration[0] = %+v", got)
	}
	if durations[1].StartTime != nil || durations[1].IsRunning {
		t.Errorf("ListDuration[1] = %+v, want stopped with nil start", durations[1])
	}

	if err := store.DeleteDuration(ctx, user, "d1"); err != nil {
		t.Fatalf("DeleteDuration: %v", err)
	}
	if err := store.DeleteDuration(ctx, user, "missing"); err != nil {
		t.Errorf("DeleteDuration should be idempotent: %v", err)
	}
	durations, _ = store.ListDuration(ctx, user)
	if len(durations) != 1 || durations[0].ID != "d2" {
		t.Errorf("ListDuration after delete = %+v", durations)
	}
}

func testTemplates(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	user := newUser()
	now := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

	if err := store.CreateTemplate(ctx, user, models.FieldTemplate{ID: "tp1", Key: "mood", CreatedAt: now}); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if err := store.CreateTemplate(ctx, user, models.FieldTemplate{ID: "tp2", Key: "weather", CreatedAt: now}); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if err := store.CreateTemplate(ctx, user, models.FieldTemplate{ID: "tp3", Key: "mood", CreatedAt: now}); !apperrors.IsConflict(err) {
		t.Errorf("duplicate CreateTemplate: expected ConflictError, got %v", err)
	}
	// keys are per user
	if err := store.CreateTemplate(ctx, newUser(), models.FieldTemplate{ID: "tp1", Key: "mood", CreatedAt: now}); err != nil {
		t.Errorf("CreateTemplate for another user: %v", err)
	}

	list, err := store.ListTemplates(ctx, user)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(list) != 2 || list[0].Key != "mood" || list[1].Key != "weather" {
		t.Errorf("ListTemplates = %+v", list)
	}

	byKey, err := store.GetTemplateByKey(ctx, user, "weather")
	if err != nil || byKey.ID != "tp2" {
		t.Errorf("GetTemplateByKey = %+v, %v", byKey, err)
	}
	byID, err := store.GetTemplate(ctx, user, "tp1")
	if err != nil || byID.Key != "mood" || !byID.CreatedAt.Equal(now) {
		t.Errorf("GetTemplate = %+v, %v", byID, err)
	}

	if err := store.DeleteTemplate(ctx, user, "tp1"); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if err := store.DeleteTemplate(ctx, user, "tp1"); !apperrors.IsNotFound(err) {
		t.Errorf("DeleteTemplate missing: expected NotFoundError, got %v", err)
	}
	if _, err := store.GetTemplate(ctx, user, "tp1"); !apperrors.IsNotFound(err) {
		t.Errorf("GetTemplate deleted: expected NotFoundError, got %v", err)
	}
}

func testCounters(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	user := newUser()
	now := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

	if err := store.CreateCounter(ctx, user, models.CounterDefinition{ID: "c1", Name: "Push-ups", CreatedAt: now}); err != nil {
		t.Fatalf("CreateCounter: %v", err)
	}
	if err := store.CreateCounter(ctx, user, models.CounterDefinition{ID: "c2", Name: "Push-ups", CreatedAt: now}); !apperrors.IsConflict(err) {
		t.Errorf("duplicate CreateCounter: expected ConflictError, got %v", err)
	}
	if err := store.CreateCounter(ctx, user, models.CounterDefinition{ID: "c3", Name: "Water", CreatedAt: now}); err != nil {
		t.Fatalf("CreateCounter: %v", err)
	}

	defs, err := store.ListCounters(ctx, user)
	if err != nil {
		t.Fatalf("ListCounters: %v", err)
	}
	if len(defs) != 2 || defs[0].ID != "c1" || defs[1].ID != "c3" {
		t.Errorf("ListCounters = %+v", defs)
	}

	def, err := store.GetCounterByName(ctx, user, "Water")
	if err != nil || def.ID != "c3" {
		t.Errorf("GetCounterByName = %+v, %v", def, err)
	}

	if err := store.DeleteCounter(ctx, user, "c1"); err != nil {
		t.Fatalf("DeleteCounter: %v", err)
	}
	if err := store.DeleteCounter(ctx, user, "c1"); err != nil {
		t.Errorf("DeleteCounter should be idempotent: %v", err)
	}
	if _, err := store.GetCounterByName(ctx, user, "Push-ups"); !apperrors.IsNotFound(err) {
		t.Errorf("GetCounterByName deleted: expected NotFoundError, got %v", err)
	}
}

func testProfile(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	user := newUser()

	for _, f := range []models.ProfileField{{Key: "city", Value: "Lyon"}, {Key: "age", Value: "34"}, {Key: "city", Value: "Paris"}} {
		if err := store.SetProfileField(ctx, user, f); err != nil {
			t.Fatalf("SetProfileField: %v", err)
		}
	}

	fields, err := store.ListProfile(ctx, user)
	if err != nil {
		t.Fatalf("ListProfile: %v", err)
	}
	want := []models.ProfileField{{Key: "age", Value: "34"}, {Key: "city", Value: "Paris"}}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("ListProfile = %+v, want %+v", fields, want)
	}

	if err := store.DeleteProfileField(ctx, user, "age"); err != nil {
		t.Fatalf("DeleteProfileField: %v", err)
	}
	if err := store.DeleteProfileField(ctx, user, "age"); !apperrors.IsNotFound(err) {
		t.Errorf("DeleteProfileField missing: expected NotFoundError, got %v", err)
	}
}

func testRetention(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	user := newUser()

	if _, ok, err := store.GetRetentionPolicy(ctx, user); err != nil || ok {
		t.Fatalf("GetRetentionPolicy on new user = ok %v, err %v", ok, err)
	}

	policy := models.RetentionPolicy{MaxAgeDays: 30, MaxCount: 5}
	if err := store.SaveRetentionPolicy(ctx, user, policy); err != nil {
		t.Fatalf("SaveRetentionPolicy: %v", err)
	}
	policy.MaxCount = 10
	if err := store.SaveRetentionPolicy(ctx, user, policy); err != nil {
		t.Fatalf("SaveRetentionPolicy update: %v", err)
	}

	got, ok, err := store.GetRetentionPolicy(ctx, user)
	if err != nil || !ok {
		t.Fatalf("GetRetentionPolicy = ok %v, err %v", ok, err)
	}
	if got != policy {
		t.Errorf("GetRetentionPolicy = %+v, want %+v", got, policy)
	}
}
