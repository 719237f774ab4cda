package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDayState_CloneIsIndependent(t *testing.T) {
	start := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	s := NewDayState("2024-01-05")
	s.Entries = append(s.Entries, Entry{ID: "e1", Timestamp: "09:00", Text: "coffee"})
	s.CustomCounters = append(s.CustomCounters, Counter{ID: "c1", Name: "Push-ups", Value: 3})
	s.DurationTrackers = append(s.DurationTrackers, DurationTracker{
		ID: "d1", Name: "Reading", IsRunning: true, StartTime: &start,
	})

	c := s.Clone()

	s.Entries[0].Text = "changed"
	s.CustomCounters[0].Value = 10
	*s.DurationTrackers[0].StartTime = start.Add(time.Hour)
	s.Tasks = append(s.Tasks, Task{ID: "t1", Text: "late"})

	if c.Entries[0].Text != "coffee" {
		t.Errorf("clone entry text = %q, want coffee", c.Entries[0].Text)
	}
	if c.CustomCounters[0].Value != 3 {
		t.Errorf("clone counter value = %d, want 3", c.CustomCounters[0].Value)
	}
	if !c.DurationTrackers[0].StartTime.Equal(start) {
		t.Errorf("clone start time = %v, want %v", c.DurationTrackers[0].StartTime, start)
	}
	if len(c.Tasks) != 0 {
		t.Errorf("clone tasks = %d, want 0", len(c.Tasks))
	}
}

func TestDayState_NormalizeAfterDecode(t *testing.T) {
	var s DayState
	if err := json.Unmarshal([]byte(`{"date":"2024-01-05"}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s.Normalize()

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	for _, key := range []string{"templateFields", "oneOffFields", "tasks", "entries", "customCounters", "timeSinceTrackers", "durationTrackers"} {
		if _, ok := raw[key].([]any); !ok {
			t.Errorf("%s encoded as %v, want empty array", key, raw[key])
		}
	}
}

func TestDurationTracker_LiveElapsedMs(t *testing.T) {
	start := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	now := start.Add(90 * time.Second)

	tests := []struct {
		name    string
		tracker DurationTracker
		want    int64
	}{
		{"stopped", DurationTracker{ElapsedMs: 5000}, 5000},
		{"running", DurationTracker{ElapsedMs: 5000, IsRunning: true, StartTime: &start}, 95000},
		{"running without start", DurationTracker{ElapsedMs: 5000, IsRunning: true}, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tracker.LiveElapsedMs(now); got != tt.want {
				t.Errorf("LiveElapsedMs() = %d, want %d", got, tt.want)
			}
		})
	}
}
