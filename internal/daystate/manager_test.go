package daystate

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	"github.com/RubeHicksCube/Djournal/internal/constants"
	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/snapshots"
	"github.com/RubeHicksCube/Djournal/internal/storage/memory"
	"github.com/RubeHicksCube/Djournal/internal/trackers"
)

const user = "u1"

type fixture struct {
	m     *Manager
	store *memory.Store
	snaps *snapshots.Store
	clk   *clock.Fixed
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	clk := clock.NewFixed(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))
	snaps := snapshots.New(store, store, clk, models.RetentionPolicy{})
	reg := trackers.New(store, store, clk)
	return fixture{
		m:     New(store, store, reg, snaps, clk),
		store: store,
		snaps: snaps,
		clk:   clk,
	}
}

func TestGetStateCreatesToday(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	state, err := f.m.GetState(ctx, user)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Date != "2024-01-05" {
		t.Errorf("Date = %q, want 2024-01-05", state.Date)
	}
	if state.Tasks == nil || state.Entries == nil || state.TemplateFields == nil {
		t.Error("new state has nil collections")
	}

	stored, err := f.store.GetDayState(ctx, user)
	if err != nil || stored.Date != "2024-01-05" {
		t.Errorf("state not saved: %+v, %v", stored, err)
	}
}

func TestCheckDateTransitionIdempotent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.m.AddTask(ctx, user, "write report"); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	f.clk.Advance(24 * time.Hour)

	first, err := f.m.CheckDateTransition(ctx, user)
	if err != nil {
		t.Fatalf("CheckDateTransition: %v", err)
	}
	if !first {
		t.Error("first call after midnight did not transition")
	}
	afterFirst, _ := f.store.GetDayState(ctx, user)
	datesFirst, _ := f.snaps.ListDates(ctx, user)

	second, err := f.m.CheckDateTransition(ctx, user)
	if err != nil {
		t.Fatalf("second CheckDateTransition: %v", err)
	}
	if second {
		t.Error("second call transitioned again")
	}
	afterSecond, _ := f.store.GetDayState(ctx, user)
	datesSecond, _ := f.snaps.ListDates(ctx, user)

	if !reflect.DeepEqual(afterFirst, afterSecond) {
		t.Errorf("state changed on redundant call:\n%+v\n%+v", afterFirst, afterSecond)
	}
	if !reflect.DeepEqual(datesFirst, datesSecond) || !reflect.DeepEqual(datesSecond, []string{"2024-01-05"}) {
		t.Errorf("snapshots = %v then %v, want [2024-01-05]", datesFirst, datesSecond)
	}

	snap, err := f.snaps.Get(ctx, user, "2024-01-05")
	if err != nil {
		t.Fatalf("Get archived day: %v", err)
	}
	if len(snap.State.Tasks) != 1 || snap.State.Tasks[0].Text != "write report" {
		t.Errorf("archived tasks = %+v", snap.State.Tasks)
	}
	if len(afterSecond.Tasks) != 0 {
		t.Errorf("tasks carried over: %+v", afterSecond.Tasks)
	}
}

func TestTrackersSurviveTransition(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	state, _ := f.m.CreateDurationTracker(ctx, user, "Reading")
	timerID := state.DurationTrackers[0].ID
	if _, err := f.m.SetManualTime(ctx, user, timerID, 125000); err != nil {
		t.Fatalf("SetManualTime: %v", err)
	}
	state, _ = f.m.CreateCustomCounter(ctx, user, "Push-ups")
	counterID := state.CustomCounters[0].ID
	for range 3 {
		if _, err := f.m.IncrementCounter(ctx, user, counterID); err != nil {
			t.Fatalf("IncrementCounter: %v", err)
		}
	}
	before, err := f.m.CreateTimeSinceTracker(ctx, user, "Moved", "2022-06-01")
	if err != nil {
		t.Fatalf("CreateTimeSinceTracker: %v", err)
	}
	if before.CustomCounters[0].Value != 3 {
		t.Fatalf("counter value = %d, want 3", before.CustomCounters[0].Value)
	}

	f.clk.Advance(24 * time.Hour)
	after, err := f.m.GetState(ctx, user)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}

	if !reflect.DeepEqual(after.DurationTrackers, before.DurationTrackers) {
		t.Errorf("duration trackers changed:\n%+v\n%+v", before.DurationTrackers, after.DurationTrackers)
	}
	if !reflect.DeepEqual(after.TimeSinceTrackers, before.TimeSinceTrackers) {
		t.Errorf("time-since trackers changed:\n%+v\n%+v", before.TimeSinceTrackers, after.TimeSinceTrackers)
	}
	want := []models.Counter{{ID: counterID, Name: "Push-ups", Value: 0}}
	if !reflect.DeepEqual(after.CustomCounters, want) {
		t.Errorf("counters = %+v, want %+v", after.CustomCounters, want)
	}

	snap, _ := f.snaps.Get(ctx, user, "2024-01-05")
	if snap.State.CustomCounters[0].Value != 3 {
		t.Errorf("archived counter value = %d, want 3", snap.State.CustomCounters[0].Value)
	}
}

func TestTemplateFieldRegeneration(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.m.CreateTemplateField(ctx, user, "mood"); err != nil {
		t.Fatalf("CreateTemplateField: %v", err)
	}
	if _, err := f.m.SetTemplateFieldValue(ctx, user, "mood", "happy"); err != nil {
		t.Fatalf("SetTemplateFieldValue: %v", err)
	}
	if _, err := f.m.AddOneOffField(ctx, user, "weather", "rain"); err != nil {
		t.Fatalf("AddOneOffField: %v", err)
	}

	f.clk.Advance(24 * time.Hour)
	state, err := f.m.GetState(ctx, user)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}

	if len(state.TemplateFields) != 1 || state.TemplateFields[0].Key != "mood" || state.TemplateFields[0].Value != "" {
		t.Errorf("template fields = %+v, want one empty mood field", state.TemplateFields)
	}
	if len(state.OneOffFields) != 0 {
		t.Errorf("one-off fields carried over: %+v", state.OneOffFields)
	}

	snap, _ := f.snaps.Get(ctx, user, "2024-01-05")
	if snap.State.TemplateFields[0].Value != "happy" {
		t.Errorf("archived mood = %q, want happy", snap.State.TemplateFields[0].Value)
	}
}

func TestMultiDayGapCollapses(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.m.UpdateSleep(ctx, user, SleepUpdate{WakeTime: ptr("07:00")}); err != nil {
		t.Fatalf("UpdateSleep: %v", err)
	}
	f.clk.Advance(5 * 24 * time.Hour)

	state, err := f.m.GetState(ctx, user)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Date != "2024-01-10" || state.WakeTime != "" {
		t.Errorf("state after gap = %+v", state)
	}
	dates, _ := f.snaps.ListDates(ctx, user)
	if !reflect.DeepEqual(dates, []string{"2024-01-05"}) {
		t.Errorf("snapshots = %v, want only the last active day", dates)
	}
}

func TestAddEntryRejectsLargeImage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	state, err := f.m.AddEntry(ctx, user, "breakfast", "aGVsbG8=")
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if len(state.Entries) != 1 || state.Entries[0].Timestamp != "09:00" || state.Entries[0].Text != "breakfast" {
		t.Fatalf("entries = %+v", state.Entries)
	}

	big := "data:image/png;base64," + strings.Repeat("A", (constants.MaxImageBytes/3)*4+8)
	_, err = f.m.AddEntry(ctx, user, "huge", big)
	if !apperrors.IsValidation(err) || !apperrors.IsPayloadTooLarge(err) {
		t.Fatalf("expected payload-too-large ValidationError, got %v", err)
	}

	state, _ = f.m.GetState(ctx, user)
	if len(state.Entries) != 1 {
		t.Errorf("entries changed after rejection: %+v", state.Entries)
	}

	if _, err := f.m.AddEntry(ctx, user, "  ", ""); !apperrors.IsValidation(err) {
		t.Errorf("empty entry: expected ValidationError, got %v", err)
	}
}

func TestDecodedImageSize(t *testing.T) {
	tests := []struct {
		image string
		want  int64
	}{
		{"", 0},
		{"aGVsbG8=", 6},
		{"data:image/png;base64,aGVsbG8=", 6},
		{"abc", 3},
	}
	for _, tt := range tests {
		if got := DecodedImageSize(tt.image); got != tt.want {
			t.Errorf("DecodedImageSize(%q) = %d, want %d", tt.image, got, tt.want)
		}
	}
}

func TestEntriesAndTasks(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	state, _ := f.m.AddEntry(ctx, user, "coffee", "")
	entryID := state.Entries[0].ID
	for range 2 {
		state, err := f.m.DeleteEntry(ctx, user, entryID)
		if err != nil || len(state.Entries) != 0 {
			t.Fatalf("DeleteEntry = %+v, %v", state.Entries, err)
		}
	}

	if _, err := f.m.AddTask(ctx, user, ""); !apperrors.IsValidation(err) {
		t.Errorf("empty task: expected ValidationError, got %v", err)
	}
	state, _ = f.m.AddTask(ctx, user, "call mum")
	taskID := state.Tasks[0].ID

	state, err := f.m.ToggleTask(ctx, user, taskID)
	if err != nil || !state.Tasks[0].Done {
		t.Fatalf("ToggleTask = %+v, %v", state.Tasks, err)
	}
	state, _ = f.m.ToggleTask(ctx, user, taskID)
	if state.Tasks[0].Done {
		t.Error("second toggle did not clear done")
	}
	if _, err := f.m.ToggleTask(ctx, user, "missing"); !apperrors.IsNotFound(err) {
		t.Errorf("toggle missing: expected NotFoundError, got %v", err)
	}
	state, _ = f.m.DeleteTask(ctx, user, taskID)
	if len(state.Tasks) != 0 {
		t.Errorf("tasks after delete = %+v", state.Tasks)
	}
}

func TestOneOffFields(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.m.AddOneOffField(ctx, user, " ", "x"); !apperrors.IsValidation(err) {
		t.Errorf("empty key: expected ValidationError, got %v", err)
	}
	state, _ := f.m.AddOneOffField(ctx, user, "weather", "sun")
	id := state.OneOffFields[0].ID

	state, err := f.m.UpdateOneOffField(ctx, user, id, "rain")
	if err != nil || state.OneOffFields[0].Value != "rain" {
		t.Errorf("UpdateOneOffField = %+v, %v", state.OneOffFields, err)
	}
	if _, err := f.m.UpdateOneOffField(ctx, user, "missing", "x"); !apperrors.IsNotFound(err) {
		t.Errorf("update missing: expected NotFoundError, got %v", err)
	}
	state, _ = f.m.DeleteOneOffField(ctx, user, id)
	if len(state.OneOffFields) != 0 {
		t.Errorf("fields after delete = %+v", state.OneOffFields)
	}
}

func TestTemplateFieldOperations(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.m.CreateTemplateField(ctx, user, "mood"); err != nil {
		t.Fatalf("CreateTemplateField: %v", err)
	}
	if _, err := f.m.CreateTemplateField(ctx, user, "mood"); !apperrors.IsConflict(err) {
		t.Errorf("duplicate key: expected ConflictError, got %v", err)
	}
	if _, err := f.m.SetTemplateFieldValue(ctx, user, "energy", "high"); !apperrors.IsNotFound(err) {
		t.Errorf("unknown key: expected NotFoundError, got %v", err)
	}

	templates, _ := f.m.ListTemplates(ctx, user)
	if len(templates) != 1 {
		t.Fatalf("ListTemplates = %+v", templates)
	}

	state, err := f.m.DeleteTemplateField(ctx, user, templates[0].ID)
	if err != nil {
		t.Fatalf("DeleteTemplateField: %v", err)
	}
	if len(state.TemplateFields) != 0 {
		t.Errorf("template field still present: %+v", state.TemplateFields)
	}
	if _, err := f.m.DeleteTemplateField(ctx, user, templates[0].ID); !apperrors.IsNotFound(err) {
		t.Errorf("delete missing template: expected NotFoundError, got %v", err)
	}
}

func TestUpdateSleep(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	state, err := f.m.UpdateSleep(ctx, user, SleepUpdate{PreviousBedtime: ptr("23:30"), WakeTime: ptr("07:15")})
	if err != nil {
		t.Fatalf("UpdateSleep: %v", err)
	}
	state, _ = f.m.UpdateSleep(ctx, user, SleepUpdate{WakeTime: ptr("07:45")})
	if state.PreviousBedtime != "23:30" || state.WakeTime != "07:45" {
		t.Errorf("sleep = %q / %q", state.PreviousBedtime, state.WakeTime)
	}
	if _, err := f.m.UpdateSleep(ctx, user, SleepUpdate{WakeTime: ptr("late")}); !apperrors.IsValidation(err) {
		t.Errorf("bad time: expected ValidationError, got %v", err)
	}
	state, _ = f.m.UpdateSleep(ctx, user, SleepUpdate{WakeTime: ptr("")})
	if state.WakeTime != "" {
		t.Errorf("clearing wake time left %q", state.WakeTime)
	}
}

func TestSaveSnapshotKeepsState(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, _ = f.m.AddTask(ctx, user, "stretch")
	state, err := f.m.SaveSnapshot(ctx, user)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if len(state.Tasks) != 1 {
		t.Errorf("SaveSnapshot changed today: %+v", state.Tasks)
	}
	snap, err := f.snaps.Get(ctx, user, "2024-01-05")
	if err != nil || len(snap.State.Tasks) != 1 {
		t.Errorf("snapshot = %+v, %v", snap.State.Tasks, err)
	}
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	state, _ := f.m.CreateCustomCounter(ctx, user, "Steps")
	id := state.CustomCounters[0].ID

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.m.IncrementCounter(ctx, user, id); err != nil {
				t.Errorf("IncrementCounter: %v", err)
			}
		}()
	}
	wg.Wait()

	state, _ = f.m.GetState(ctx, user)
	if state.CustomCounters[0].Value != 50 {
		t.Errorf("counter = %d, want 50", state.CustomCounters[0].Value)
	}
}

func TestNextDay(t *testing.T) {
	start := time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC)
	prev := models.NewDayState("2024-01-04")
	prev.WakeTime = "07:00"
	prev.Entries = append(prev.Entries, models.Entry{ID: "e1", Text: "x"})
	prev.DurationTrackers = append(prev.DurationTrackers, models.DurationTracker{ID: "d1", IsRunning: true, StartTime: &start})

	next := NextDay(prev, "2024-01-05",
		[]models.FieldTemplate{{ID: "t1", Key: "mood"}},
		[]models.Counter{{ID: "c1", Name: "Water", Value: 9}})

	if next.Date != "2024-01-05" || next.WakeTime != "" || len(next.Entries) != 0 {
		t.Errorf("NextDay = %+v", next)
	}
	if next.TemplateFields[0] != (models.Field{ID: "t1", Key: "mood"}) {
		t.Errorf("template field = %+v", next.TemplateFields[0])
	}
	if next.CustomCounters[0].Value != 0 {
		t.Errorf("counter value = %d, want 0", next.CustomCounters[0].Value)
	}
	if next.DurationTrackers[0].StartTime == prev.DurationTrackers[0].StartTime {
		t.Error("duration tracker start time shared with previous day")
	}

	if NeedsTransition("2024-01-05", "2024-01-05") || !NeedsTransition("2024-01-04", "2024-01-05") {
		t.Error("NeedsTransition gave the wrong answer")
	}
}

func ptr(s string) *string { return &s }
