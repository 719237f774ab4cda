// Package render turns day states into Markdown and PDF documents. Every
// function is pure: the current time is always passed in.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

// Document is one day to render together with the owner's details.
type Document struct {
	State       models.DayState
	DisplayName string
	Profile     []models.ProfileField
}

const (
	msMinute int64 = 60 * 1000
	msHour         = 60 * msMinute
	msDay          = 24 * msHour
	msWeek         = 7 * msDay
	msMonth        = 2630016000  // 30.44 days
	msYear         = 31557600000 // 365.25 days
)

var elapsedUnits = []struct {
	ms    int64
	label string
}{
	{msYear, "y"},
	{msMonth, "mo"},
	{msWeek, "w"},
	{msDay, "d"},
	{msHour, "h"},
	{msMinute, "m"},
}

// FormatElapsedSince breaks now-ref into years, months, weeks, days, hours and
// minutes, dropping zero units. A reference in the future is prefixed "in".
func FormatElapsedSince(ref, now time.Time) string {
	remaining := now.Sub(ref).Milliseconds()
	prefix := ""
	if remaining < 0 {
		remaining = -remaining
		prefix = "in "
	}

	var parts []string
	for _, u := range elapsedUnits {
		n := remaining / u.ms
		remaining %= u.ms
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, u.label))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "0m")
	}
	return prefix + strings.Join(parts, " ")
}

// FormatDuration renders whole seconds as "1h 2m 3s", dropping zero leading units.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// LiveElapsedMs is the tracker's accumulated time including a running interval.
func LiveElapsedMs(t models.DurationTracker, now time.Time) int64 {
	return t.LiveElapsedMs(now)
}

// timeSince returns the reference and formatted elapsed time of a tracker.
// References are read in now's location.
func timeSince(t models.TimeSinceTracker, now time.Time) string {
	ref, err := clock.ParseReference(t.ReferenceDate, now.Location())
	if err != nil {
		return "unknown"
	}
	return FormatElapsedSince(ref, now)
}
