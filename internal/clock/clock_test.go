package clock

import (
	"testing"
	"time"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC)
	c := NewFixed(start)

	if got := Today(c); got != "2024-01-05" {
		t.Errorf("Today() = %s, want 2024-01-05", got)
	}

	c.Advance(2 * time.Minute)
	if got := Today(c); got != "2024-01-06" {
		t.Errorf("Today() after advance = %s, want 2024-01-06", got)
	}

	c.Set(start.AddDate(0, 0, 10))
	if got := Today(c); got != "2024-01-15" {
		t.Errorf("Today() after set = %s, want 2024-01-15", got)
	}
}

func TestShiftDate(t *testing.T) {
	tests := []struct {
		date string
		days int
		want string
	}{
		{"2024-01-10", -5, "2024-01-05"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2023-12-31", 1, "2024-01-01"},
		{"2024-01-10", 0, "2024-01-10"},
	}
	for _, tt := range tests {
		got, err := ShiftDate(tt.date, tt.days)
		if err != nil {
			t.Fatalf("ShiftDate(%s, %d) error: %v", tt.date, tt.days, err)
		}
		if got != tt.want {
			t.Errorf("ShiftDate(%s, %d) = %s, want %s", tt.date, tt.days, got, tt.want)
		}
	}

	if _, err := ShiftDate("not-a-date", 1); err == nil {
		t.Error("ShiftDate should reject malformed dates")
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2024-01-05", true},
		{"2024-1-5", false},
		{"2024-02-30", false},
		{"today", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateDate(tt.input); got != tt.want {
			t.Errorf("ValidateDate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidateTimezone(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"Local", true},
		{"UTC", true},
		{"Mars/Olympus_Mons", false},
	}
	for _, tt := range tests {
		if got := ValidateTimezone(tt.input); got != tt.want {
			t.Errorf("ValidateTimezone(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseReference(t *testing.T) {
	loc := time.UTC

	got, err := ParseReference("2023-06-01", loc)
	if err != nil {
		t.Fatalf("ParseReference(date) error: %v", err)
	}
	if !got.Equal(time.Date(2023, 6, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("ParseReference(date) = %v", got)
	}

	got, err = ParseReference("2023-06-01T08:30:00Z", loc)
	if err != nil {
		t.Fatalf("ParseReference(rfc3339) error: %v", err)
	}
	if got.Hour() != 8 || got.Minute() != 30 {
		t.Errorf("ParseReference(rfc3339) = %v", got)
	}

	if _, err := ParseReference("yesterday", loc); err == nil {
		t.Error("ParseReference should reject free text")
	}
}

func TestNewSystemClock(t *testing.T) {
	if _, err := New("Not/AZone"); err == nil {
		t.Error("New should reject unknown timezones")
	}
	c, err := New("UTC")
	if err != nil {
		t.Fatalf("New(UTC) error: %v", err)
	}
	if c.Now().Location() != time.UTC {
		t.Errorf("Now() location = %v, want UTC", c.Now().Location())
	}
}
