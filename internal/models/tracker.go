package models

import "time"

// TrackerKind identifies which collection a tracker id belongs to
type TrackerKind string

const (
	TrackerTimeSince TrackerKind = "time-since"
	TrackerDuration  TrackerKind = "duration"
	TrackerCounter   TrackerKind = "counter"
)

// TimeSinceTracker marks a reference date; it is displayed as the time
// elapsed since that date and never resets.
type TimeSinceTracker struct {
	ID            string `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	ReferenceDate string `json:"referenceDate" db:"reference_date"` // YYYY-MM-DD or RFC3339
}

// DurationTracker is a stopwatch. ElapsedMs accumulates across start/stop
// cycles and Value mirrors it in whole seconds.
type DurationTracker struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	IsRunning bool       `json:"isRunning"`
	StartTime *time.Time `json:"startTime"`
	ElapsedMs int64      `json:"elapsedMs"`
	Value     int64      `json:"value"`
}

// Clone returns a copy that does not share StartTime with t.
func (t DurationTracker) Clone() DurationTracker {
	if t.StartTime != nil {
		st := *t.StartTime
		t.StartTime = &st
	}
	return t
}

// LiveElapsedMs is the accumulated time plus the current run, if any.
func (t DurationTracker) LiveElapsedMs(now time.Time) int64 {
	if !t.IsRunning || t.StartTime == nil {
		return t.ElapsedMs
	}
	run := now.Sub(*t.StartTime).Milliseconds()
	if run < 0 {
		run = 0
	}
	return t.ElapsedMs + run
}

// Counter is a named non-negative integer. The name is owned by the counter
// registry; the value belongs to the day and resets on transition.
type Counter struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// CounterDefinition is the persistent half of a Counter
type CounterDefinition struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
