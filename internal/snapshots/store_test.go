package snapshots

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/storage/memory"
)

func januaryDates(from, to int) []string {
	var dates []string
	for d := from; d <= to; d++ {
		dates = append(dates, time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	}
	return dates
}

func TestExpired(t *testing.T) {
	tests := []struct {
		name   string
		dates  []string
		today  string
		policy models.RetentionPolicy
		want   []string
	}{
		{
			name:   "unlimited",
			dates:  januaryDates(1, 10),
			today:  "2024-01-11",
			policy: models.RetentionPolicy{},
			want:   nil,
		},
		{
			name:   "max count keeps newest",
			dates:  januaryDates(1, 10),
			today:  "2024-01-11",
			policy: models.RetentionPolicy{MaxCount: 5},
			want:   januaryDates(1, 5),
		},
		{
			name:   "max age keeps cutoff day",
			dates:  januaryDates(1, 10),
			today:  "2024-01-11",
			policy: models.RetentionPolicy{MaxAgeDays: 7},
			want:   januaryDates(1, 3),
		},
		{
			name:   "age then count",
			dates:  januaryDates(1, 10),
			today:  "2024-01-11",
			policy: models.RetentionPolicy{MaxAgeDays: 7, MaxCount: 2},
			want:   januaryDates(1, 8),
		},
		{
			name:   "count larger than set",
			dates:  []string{"2024-01-03", "2024-01-01"},
			today:  "2024-01-11",
			policy: models.RetentionPolicy{MaxCount: 5},
			want:   nil,
		},
		{
			name:   "unsorted input",
			dates:  []string{"2024-01-02", "2024-01-09", "2024-01-05"},
			today:  "2024-01-11",
			policy: models.RetentionPolicy{MaxCount: 1},
			want:   []string{"2024-01-02", "2024-01-05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expired(tt.dates, tt.today, tt.policy)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func newStore(t *testing.T, defaultPolicy models.RetentionPolicy) (*Store, *clock.Fixed) {
	t.Helper()
	repo := memory.New()
	clk := clock.NewFixed(time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC))
	return New(repo, repo, clk, defaultPolicy), clk
}

func TestRetentionAfterArchive(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, models.RetentionPolicy{})

	if _, err := s.SetPolicy(ctx, "u1", models.RetentionPolicy{MaxCount: 5}); err != nil {
		t.Fatalf("SetPolicy: %v", err)
	}
	for _, date := range januaryDates(1, 10) {
		if err := s.ArchiveAndRetain(ctx, "u1", models.NewDayState(date)); err != nil {
			t.Fatalf("ArchiveAndRetain %s: %v", date, err)
		}
	}

	dates, err := s.ListDates(ctx, "u1")
	if err != nil {
		t.Fatalf("ListDates: %v", err)
	}
	want := []string{"2024-01-10", "2024-01-09", "2024-01-08", "2024-01-07", "2024-01-06"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("ListDates = %v, want %v", dates, want)
	}
}

func TestSetPolicyAppliesImmediately(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, models.RetentionPolicy{})

	for _, date := range januaryDates(1, 4) {
		if err := s.Archive(ctx, "u1", models.NewDayState(date)); err != nil {
			t.Fatalf("Archive: %v", err)
		}
	}

	deleted, err := s.SetPolicy(ctx, "u1", models.RetentionPolicy{MaxCount: 1})
	if err != nil {
		t.Fatalf("SetPolicy: %v", err)
	}
	if want := januaryDates(1, 3); !reflect.DeepEqual(deleted, want) {
		t.Errorf("deleted = %v, want %v", deleted, want)
	}

	if _, err := s.SetPolicy(ctx, "u1", models.RetentionPolicy{MaxCount: -1}); !apperrors.IsValidation(err) {
		t.Errorf("negative count: expected ValidationError, got %v", err)
	}
	if _, err := s.SetPolicy(ctx, "u1", models.RetentionPolicy{MaxAgeDays: -1}); !apperrors.IsValidation(err) {
		t.Errorf("negative age: expected ValidationError, got %v", err)
	}
}

func TestPolicyDefault(t *testing.T) {
	ctx := context.Background()
	def := models.RetentionPolicy{MaxAgeDays: 365}
	s, _ := newStore(t, def)

	got, err := s.Policy(ctx, "u1")
	if err != nil || got != def {
		t.Errorf("Policy() = %+v, %v; want default %+v", got, err, def)
	}

	custom := models.RetentionPolicy{MaxCount: 3}
	if _, err := s.SetPolicy(ctx, "u1", custom); err != nil {
		t.Fatalf("SetPolicy: %v", err)
	}
	if got, _ := s.Policy(ctx, "u1"); got != custom {
		t.Errorf("Policy() = %+v, want %+v", got, custom)
	}
}

func TestArchiveIsDeepCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, models.RetentionPolicy{})

	start := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	state := models.NewDayState("2024-01-05")
	state.DurationTrackers = append(state.DurationTrackers, models.DurationTracker{ID: "d1", Name: "Reading", IsRunning: true, StartTime: &start})
	if err := s.Archive(ctx, "u1", state); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	state.DurationTrackers[0].ElapsedMs = 999
	*state.DurationTrackers[0].StartTime = start.Add(time.Hour)

	snap, err := s.Get(ctx, "u1", "2024-01-05")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got := snap.State.DurationTrackers[0]
	if got.ElapsedMs != 0 || !got.StartTime.Equal(start) {
		t.Errorf("archived tracker changed after archival: %+v", got)
	}

	if err := s.Archive(ctx, "u1", models.NewDayState("05/01/2024")); !apperrors.IsValidation(err) {
		t.Errorf("bad date: expected ValidationError, got %v", err)
	}
}

func TestRangeAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, models.RetentionPolicy{})

	for _, date := range []string{"2024-01-05", "2024-01-07", "2024-01-10"} {
		if err := s.Archive(ctx, "u1", models.NewDayState(date)); err != nil {
			t.Fatalf("Archive: %v", err)
		}
	}

	snaps, err := s.GetRange(ctx, "u1", "2024-01-06", "2024-01-10")
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(snaps) != 2 || snaps[0].Date != "2024-01-07" || snaps[1].Date != "2024-01-10" {
		t.Errorf("GetRange = %+v", snaps)
	}

	if _, err := s.GetRange(ctx, "u1", "2024-01-10", "2024-01-01"); !apperrors.IsValidation(err) {
		t.Errorf("inverted range: expected ValidationError, got %v", err)
	}

	if err := s.DeleteOne(ctx, "u1", "2024-01-07"); err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}
	if err := s.DeleteOne(ctx, "u1", "2024-01-07"); !apperrors.IsNotFound(err) {
		t.Errorf("DeleteOne missing: expected NotFoundError, got %v", err)
	}
}
