// Package daystate owns the single active DayState of each user and the
// day-transition algorithm that archives it when the date changes.
package daystate

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	"github.com/RubeHicksCube/Djournal/internal/constants"
	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/logger"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/snapshots"
	"github.com/RubeHicksCube/Djournal/internal/storage"
	"github.com/RubeHicksCube/Djournal/internal/trackers"
)

// SleepUpdate is a partial update; nil fields are left unchanged.
type SleepUpdate struct {
	PreviousBedtime *string `json:"previousBedtime"`
	WakeTime        *string `json:"wakeTime"`
}

// Manager serializes calls per user. Every mutating method returns the state
// as it was saved.
type Manager struct {
	days      storage.DayStateRepository
	templates storage.TemplateRegistry
	trackers  *trackers.Registry
	snapshots *snapshots.Store
	clock     clock.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(days storage.DayStateRepository, templates storage.TemplateRegistry, tr *trackers.Registry, snaps *snapshots.Store, clk clock.Clock) *Manager {
	return &Manager{
		days:      days,
		templates: templates,
		trackers:  tr,
		snapshots: snaps,
		clock:     clk,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Today is the current date according to the manager's clock.
func (m *Manager) Today() string {
	return clock.Today(m.clock)
}

func (m *Manager) lock(userID string) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// GetState returns today's state, transitioning or creating it first.
func (m *Manager) GetState(ctx context.Context, userID string) (models.DayState, error) {
	unlock := m.lock(userID)
	defer unlock()

	state, _, err := m.current(ctx, userID)
	return state, err
}

// CheckDateTransition archives a stale state and replaces it with today's.
// Calling it again on the same date does nothing.
func (m *Manager) CheckDateTransition(ctx context.Context, userID string) (bool, error) {
	unlock := m.lock(userID)
	defer unlock()

	_, transitioned, err := m.current(ctx, userID)
	return transitioned, err
}

// current loads the active state, building a fresh one on first access and
// running the transition when the stored date is stale. Callers hold the
// user's lock.
func (m *Manager) current(ctx context.Context, userID string) (models.DayState, bool, error) {
	today := m.Today()

	state, err := m.days.GetDayState(ctx, userID)
	if apperrors.IsNotFound(err) {
		prev := models.NewDayState("")
		prev.TimeSinceTrackers, prev.DurationTrackers, err = m.trackers.Load(ctx, userID)
		if err != nil {
			return models.DayState{}, false, err
		}
		fresh, err := m.nextDay(ctx, userID, prev, today)
		if err != nil {
			return models.DayState{}, false, err
		}
		logger.Debug("Created day state", "user", userID, "date", today)
		return fresh, false, nil
	}
	if err != nil {
		return models.DayState{}, false, err
	}

	if !NeedsTransition(state.Date, today) {
		return state, false, nil
	}

	if err := m.snapshots.ArchiveAndRetain(ctx, userID, state); err != nil {
		return models.DayState{}, false, err
	}
	next, err := m.nextDay(ctx, userID, state, today)
	if err != nil {
		return models.DayState{}, false, err
	}
	logger.Info("Day transition", "user", userID, "from", state.Date, "to", today)
	return next, true, nil
}

func (m *Manager) nextDay(ctx context.Context, userID string, prev models.DayState, date string) (models.DayState, error) {
	templates, err := m.templates.ListTemplates(ctx, userID)
	if err != nil {
		return models.DayState{}, err
	}
	counters, err := m.trackers.Counters(ctx, userID)
	if err != nil {
		return models.DayState{}, err
	}

	next := NextDay(prev, date, templates, counters)
	if err := m.days.SaveDayState(ctx, userID, next); err != nil {
		return models.DayState{}, err
	}
	return next, nil
}

// mutate applies fn to today's state and saves the result. Nothing is saved
// when fn fails.
func (m *Manager) mutate(ctx context.Context, userID string, fn func(*models.DayState) error) (models.DayState, error) {
	unlock := m.lock(userID)
	defer unlock()

	state, _, err := m.current(ctx, userID)
	if err != nil {
		return models.DayState{}, err
	}
	if err := fn(&state); err != nil {
		return models.DayState{}, err
	}
	if err := m.days.SaveDayState(ctx, userID, state); err != nil {
		return models.DayState{}, err
	}
	return state, nil
}

// SaveSnapshot archives today's state as it stands and applies retention.
func (m *Manager) SaveSnapshot(ctx context.Context, userID string) (models.DayState, error) {
	unlock := m.lock(userID)
	defer unlock()

	state, _, err := m.current(ctx, userID)
	if err != nil {
		return models.DayState{}, err
	}
	if err := m.snapshots.ArchiveAndRetain(ctx, userID, state); err != nil {
		return models.DayState{}, err
	}
	return state, nil
}

func (m *Manager) UpdateSleep(ctx context.Context, userID string, update SleepUpdate) (models.DayState, error) {
	for field, v := range map[string]*string{"previousBedtime": update.PreviousBedtime, "wakeTime": update.WakeTime} {
		if v != nil && *v != "" && !clock.ValidateTimeFormat(*v) {
			return models.DayState{}, apperrors.Validationf(field, "%q is not HH:MM", *v)
		}
	}

	return m.mutate(ctx, userID, func(s *models.DayState) error {
		if update.PreviousBedtime != nil {
			s.PreviousBedtime = *update.PreviousBedtime
		}
		if update.WakeTime != nil {
			s.WakeTime = *update.WakeTime
		}
		return nil
	})
}

// AddEntry appends a timestamped entry. image is base64 text, optionally with
// a data URI prefix; its decoded size may not exceed MaxImageBytes.
func (m *Manager) AddEntry(ctx context.Context, userID, text, image string) (models.DayState, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == "" {
		return models.DayState{}, apperrors.Validation("text", "entry needs text or an image")
	}
	if size := DecodedImageSize(image); size > constants.MaxImageBytes {
		return models.DayState{}, apperrors.TooLarge("image", size, constants.MaxImageBytes)
	}

	return m.mutate(ctx, userID, func(s *models.DayState) error {
		s.Entries = append(s.Entries, models.Entry{
			ID:        uuid.NewString(),
			Timestamp: m.clock.Now().Format(constants.TimeFormat),
			Text:      text,
			Image:     image,
		})
		return nil
	})
}

// DecodedImageSize estimates the byte size of a base64 image as
// ceil(len*3/4), ignoring any data URI prefix.
func DecodedImageSize(image string) int64 {
	if strings.HasPrefix(image, "data:") {
		if i := strings.Index(image, ","); i >= 0 {
			image = image[i+1:]
		}
	}
	n := int64(len(image))
	return (n*3 + 3) / 4
}

func (m *Manager) DeleteEntry(ctx context.Context, userID, entryID string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		s.Entries = slices.DeleteFunc(s.Entries, func(e models.Entry) bool { return e.ID == entryID })
		return nil
	})
}

func (m *Manager) ListTemplates(ctx context.Context, userID string) ([]models.FieldTemplate, error) {
	return m.templates.ListTemplates(ctx, userID)
}

// CreateTemplateField registers key for every future day and adds it to today.
func (m *Manager) CreateTemplateField(ctx context.Context, userID, key string) (models.DayState, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.DayState{}, apperrors.Validation("key", "cannot be empty")
	}

	return m.mutate(ctx, userID, func(s *models.DayState) error {
		if _, err := m.templates.GetTemplateByKey(ctx, userID, key); err == nil {
			return apperrors.Conflict("field template", key)
		} else if !apperrors.IsNotFound(err) {
			return err
		}

		tmpl := models.FieldTemplate{ID: uuid.NewString(), Key: key, CreatedAt: m.clock.Now()}
		if err := m.templates.CreateTemplate(ctx, userID, tmpl); err != nil {
			return err
		}
		if s.TemplateField(key) < 0 {
			s.TemplateFields = append(s.TemplateFields, models.Field{ID: tmpl.ID, Key: key})
		}
		return nil
	})
}

// DeleteTemplateField removes the template and today's field with its key.
func (m *Manager) DeleteTemplateField(ctx context.Context, userID, templateID string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		tmpl, err := m.templates.GetTemplate(ctx, userID, templateID)
		if err != nil {
			return err
		}
		if err := m.templates.DeleteTemplate(ctx, userID, templateID); err != nil {
			return err
		}
		s.TemplateFields = slices.DeleteFunc(s.TemplateFields, func(f models.Field) bool { return f.Key == tmpl.Key })
		return nil
	})
}

func (m *Manager) SetTemplateFieldValue(ctx context.Context, userID, key, value string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		i := s.TemplateField(key)
		if i < 0 {
			return apperrors.NotFound("template field", key)
		}
		s.TemplateFields[i].Value = value
		return nil
	})
}

func (m *Manager) AddOneOffField(ctx context.Context, userID, key, value string) (models.DayState, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.DayState{}, apperrors.Validation("key", "cannot be empty")
	}
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		s.OneOffFields = append(s.OneOffFields, models.Field{ID: uuid.NewString(), Key: key, Value: value})
		return nil
	})
}

func (m *Manager) UpdateOneOffField(ctx context.Context, userID, id, value string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		for i := range s.OneOffFields {
			if s.OneOffFields[i].ID == id {
				s.OneOffFields[i].Value = value
				return nil
			}
		}
		return apperrors.NotFound("field", id)
	})
}

func (m *Manager) DeleteOneOffField(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		s.OneOffFields = slices.DeleteFunc(s.OneOffFields, func(f models.Field) bool { return f.ID == id })
		return nil
	})
}

func (m *Manager) AddTask(ctx context.Context, userID, text string) (models.DayState, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.DayState{}, apperrors.Validation("text", "cannot be empty")
	}
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		s.Tasks = append(s.Tasks, models.Task{ID: uuid.NewString(), Text: text})
		return nil
	})
}

func (m *Manager) ToggleTask(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		for i := range s.Tasks {
			if s.Tasks[i].ID == id {
				s.Tasks[i].Done = !s.Tasks[i].Done
				return nil
			}
		}
		return apperrors.NotFound("task", id)
	})
}

func (m *Manager) DeleteTask(ctx context.Context, userID, id string) (models.DayState, error) {
	return m.mutate(ctx, userID, func(s *models.DayState) error {
		s.Tasks = slices.DeleteFunc(s.Tasks, func(t models.Task) bool { return t.ID == id })
		return nil
	})
}
