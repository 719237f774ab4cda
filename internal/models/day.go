package models

// Field is a key/value pair recorded for one day. Template fields share their
// key with a FieldTemplate; one-off fields exist only for the day they were added.
type Field struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Task is a day-scoped to-do item
type Task struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Entry is a timestamped activity log line, optionally with a base64 image
type Entry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"` // HH:MM, 24-hour local time
	Text      string `json:"text"`
	Image     string `json:"image,omitempty"`
}

// DayState is everything one user tracked for one calendar date.
// The active state is mutable; archived copies in the snapshot store are not.
type DayState struct {
	Date              string             `json:"date"` // YYYY-MM-DD format
	PreviousBedtime   string             `json:"previousBedtime"`
	WakeTime          string             `json:"wakeTime"`
	TemplateFields    []Field            `json:"templateFields"`
	OneOffFields      []Field            `json:"oneOffFields"`
	Tasks             []Task             `json:"tasks"`
	Entries           []Entry            `json:"entries"`
	CustomCounters    []Counter          `json:"customCounters"`
	TimeSinceTrackers []TimeSinceTracker `json:"timeSinceTrackers"`
	DurationTrackers  []DurationTracker  `json:"durationTrackers"`
}

// NewDayState returns an empty state for date with non-nil collections so
// that JSON encodes them as [] rather than null.
func NewDayState(date string) DayState {
	return DayState{
		Date:              date,
		TemplateFields:    []Field{},
		OneOffFields:      []Field{},
		Tasks:             []Task{},
		Entries:           []Entry{},
		CustomCounters:    []Counter{},
		TimeSinceTrackers: []TimeSinceTracker{},
		DurationTrackers:  []DurationTracker{},
	}
}

// Clone returns a deep copy that shares no slices or pointers with s.
func (s DayState) Clone() DayState {
	out := s
	out.TemplateFields = append([]Field{}, s.TemplateFields...)
	out.OneOffFields = append([]Field{}, s.OneOffFields...)
	out.Tasks = append([]Task{}, s.Tasks...)
	out.Entries = append([]Entry{}, s.Entries...)
	out.CustomCounters = append([]Counter{}, s.CustomCounters...)
	out.TimeSinceTrackers = append([]TimeSinceTracker{}, s.TimeSinceTrackers...)
	out.DurationTrackers = make([]DurationTracker, len(s.DurationTrackers))
	for i, t := range s.DurationTrackers {
		out.DurationTrackers[i] = t.Clone()
	}
	return out
}

// Normalize replaces nil collections with empty ones, typically after decoding.
func (s *DayState) Normalize() {
	if s.TemplateFields == nil {
		s.TemplateFields = []Field{}
	}
	if s.OneOffFields == nil {
		s.OneOffFields = []Field{}
	}
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.Entries == nil {
		s.Entries = []Entry{}
	}
	if s.CustomCounters == nil {
		s.CustomCounters = []Counter{}
	}
	if s.TimeSinceTrackers == nil {
		s.TimeSinceTrackers = []TimeSinceTracker{}
	}
	if s.DurationTrackers == nil {
		s.DurationTrackers = []DurationTracker{}
	}
}

// TemplateField returns the index of today's template field with key, or -1.
func (s *DayState) TemplateField(key string) int {
	for i, f := range s.TemplateFields {
		if f.Key == key {
			return i
		}
	}
	return -1
}
