// Package memory is a process-local storage.Provider. Values are copied on the
// way in and out so callers never share state with the store.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

type userData struct {
	day       *models.DayState
	snapshots map[string]models.Snapshot
	timeSince []models.TimeSinceTracker
	durations []models.DurationTracker
	templates []models.FieldTemplate
	counters  []models.CounterDefinition
	profile   map[string]string
	retention *models.RetentionPolicy
}

type Store struct {
	mu    sync.Mutex
	users map[string]*userData
}

func New() *Store {
	return &Store{users: make(map[string]*userData)}
}

func (s *Store) Init() error           { return nil }
func (s *Store) Load() error           { return nil }
func (s *Store) Close() error          { return nil }
func (s *Store) GetConfigPath() string { return "memory" }

// user returns the bucket for userID, creating it. Callers hold s.mu.
func (s *Store) user(userID string) *userData {
	u, ok := s.users[userID]
	if !ok {
		u = &userData{
			snapshots: make(map[string]models.Snapshot),
			profile:   make(map[string]string),
		}
		s.users[userID] = u
	}
	return u
}

func (s *Store) GetDayState(_ context.Context, userID string) (models.DayState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	if u.day == nil {
		return models.DayState{}, apperrors.NotFound("day state", userID)
	}
	return u.day.Clone(), nil
}

func (s *Store) SaveDayState(_ context.Context, userID string, state models.DayState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := state.Clone()
	s.user(userID).day = &c
	return nil
}

func (s *Store) SaveSnapshot(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.State = snap.State.Clone()
	s.user(snap.UserID).snapshots[snap.Date] = snap
	return nil
}

func (s *Store) GetSnapshot(_ context.Context, userID, date string) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.user(userID).snapshots[date]
	if !ok {
		return models.Snapshot{}, apperrors.NotFound("snapshot", date)
	}
	snap.State = snap.State.Clone()
	return snap, nil
}

func (s *Store) ListSnapshotDates(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make([]string, 0)
	for date := range s.user(userID).snapshots {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (s *Store) GetSnapshotRange(_ context.Context, userID, start, end string) ([]models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.Snapshot, 0)
	for date, snap := range s.user(userID).snapshots {
		if date >= start && date <= end {
			snap.State = snap.State.Clone()
			result = append(result, snap)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (s *Store) DeleteSnapshot(_ context.Context, userID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	if _, ok := u.snapshots[date]; !ok {
		return apperrors.NotFound("snapshot", date)
	}
	delete(u.snapshots, date)
	return nil
}

func (s *Store) DeleteSnapshots(_ context.Context, userID string, dates []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for _, date := range dates {
		delete(u.snapshots, date)
	}
	return nil
}

func (s *Store) ListTimeSince(_ context.Context, userID string) ([]models.TimeSinceTracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TimeSinceTracker{}, s.user(userID).timeSince...), nil
}

func (s *Store) SaveTimeSince(_ context.Context, userID string, t models.TimeSinceTracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.timeSince {
		if u.timeSince[i].ID == t.ID {
			u.timeSince[i] = t
			return nil
		}
	}
	u.timeSince = append(u.timeSince, t)
	return nil
}

func (s *Store) DeleteTimeSince(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	u.timeSince = slices.DeleteFunc(u.timeSince, func(t models.TimeSinceTracker) bool { return t.ID == id })
	return nil
}

func (s *Store) ListDuration(_ context.Context, userID string) ([]models.DurationTracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	out := make([]models.DurationTracker, 0, len(u.durations))
	for _, d := range u.durations {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (s *Store) SaveDuration(_ context.Context, userID string, t models.DurationTracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	t = t.Clone()
	for i := range u.durations {
		if u.durations[i].ID == t.ID {
			u.durations[i] = t
			return nil
		}
	}
	u.durations = append(u.durations, t)
	return nil
}

func (s *Store) DeleteDuration(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	u.durations = slices.DeleteFunc(u.durations, func(t models.DurationTracker) bool { return t.ID == id })
	return nil
}

func (s *Store) ListTemplates(_ context.Context, userID string) ([]models.FieldTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.FieldTemplate{}, s.user(userID).templates...), nil
}

func (s *Store) GetTemplate(_ context.Context, userID, id string) (models.FieldTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.user(userID).templates {
		if t.ID == id {
			return t, nil
		}
	}
	return models.FieldTemplate{}, apperrors.NotFound("field template", id)
}

func (s *Store) GetTemplateByKey(_ context.Context, userID, key string) (models.FieldTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.user(userID).templates {
		if t.Key == key {
			return t, nil
		}
	}
	return models.FieldTemplate{}, apperrors.NotFound("field template", key)
}

func (s *Store) CreateTemplate(_ context.Context, userID string, tmpl models.FieldTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for _, t := range u.templates {
		if t.Key == tmpl.Key {
			return apperrors.Conflict("field template", tmpl.Key)
		}
	}
	u.templates = append(u.templates, tmpl)
	return nil
}

func (s *Store) DeleteTemplate(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	n := len(u.templates)
	u.templates = slices.DeleteFunc(u.templates, func(t models.FieldTemplate) bool { return t.ID == id })
	if len(u.templates) == n {
		return apperrors.NotFound("field template", id)
	}
	return nil
}

func (s *Store) ListCounters(_ context.Context, userID string) ([]models.CounterDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CounterDefinition{}, s.user(userID).counters...), nil
}

func (s *Store) GetCounterByName(_ context.Context, userID, name string) (models.CounterDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.user(userID).counters {
		if c.Name == name {
			return c, nil
		}
	}
	return models.CounterDefinition{}, apperrors.NotFound("counter", name)
}

func (s *Store) CreateCounter(_ context.Context, userID string, def models.CounterDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for _, c := range u.counters {
		if c.Name == def.Name {
			return apperrors.Conflict("counter", def.Name)
		}
	}
	u.counters = append(u.counters, def)
	return nil
}

func (s *Store) DeleteCounter(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	u.counters = slices.DeleteFunc(u.counters, func(c models.CounterDefinition) bool { return c.ID == id })
	return nil
}

func (s *Store) ListProfile(_ context.Context, userID string) ([]models.ProfileField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	fields := make([]models.ProfileField, 0, len(u.profile))
	for k, v := range u.profile {
		fields = append(fields, models.ProfileField{Key: k, Value: v})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields, nil
}

func (s *Store) SetProfileField(_ context.Context, userID string, field models.ProfileField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).profile[field.Key] = field.Value
	return nil
}

func (s *Store) DeleteProfileField(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	if _, ok := u.profile[key]; !ok {
		return apperrors.NotFound("profile field", key)
	}
	delete(u.profile, key)
	return nil
}

func (s *Store) GetRetentionPolicy(_ context.Context, userID string) (models.RetentionPolicy, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	if u.retention == nil {
		return models.RetentionPolicy{}, false, nil
	}
	return *u.retention, true, nil
}

func (s *Store) SaveRetentionPolicy(_ context.Context, userID string, policy models.RetentionPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).retention = &policy
	return nil
}
