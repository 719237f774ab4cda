package clock

import (
	"fmt"
	"time"

	"github.com/RubeHicksCube/Djournal/internal/constants"
)

// ParseDate parses a date string (YYYY-MM-DD) as midnight UTC.
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse(constants.DateFormat, dateStr)
}

// ValidateDate reports whether dateStr is a real, zero-padded YYYY-MM-DD date.
func ValidateDate(dateStr string) bool {
	t, err := ParseDate(dateStr)
	return err == nil && t.Format(constants.DateFormat) == dateStr
}

// ShiftDate returns the date that is days away from dateStr.
func ShiftDate(dateStr string, days int) (string, error) {
	t, err := ParseDate(dateStr)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t.AddDate(0, 0, days).Format(constants.DateFormat), nil
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ParseReference parses a tracker reference date, either YYYY-MM-DD
// (midnight in loc) or a full RFC3339 timestamp.
func ParseReference(ref string, loc *time.Location) (time.Time, error) {
	if t, err := ParseDateInLocation(ref, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, ref)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q: expected YYYY-MM-DD or RFC3339", ref)
	}
	return t, nil
}

// ValidateTimeFormat checks if the string matches the standard time format (HH:MM).
func ValidateTimeFormat(timeStr string) bool {
	_, err := time.Parse(constants.TimeFormat, timeStr)
	return err == nil
}
