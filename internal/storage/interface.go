package storage

import (
	"context"

	"github.com/RubeHicksCube/Djournal/internal/models"
)

// DayStateRepository holds the single active DayState per user.
type DayStateRepository interface {
	// GetDayState returns a NotFoundError when the user has no active state yet.
	GetDayState(ctx context.Context, userID string) (models.DayState, error)
	SaveDayState(ctx context.Context, userID string, state models.DayState) error
}

// SnapshotRepository is the durable archive of completed days keyed by (user, date).
type SnapshotRepository interface {
	// SaveSnapshot inserts or overwrites the snapshot for (UserID, Date).
	SaveSnapshot(ctx context.Context, snap models.Snapshot) error
	GetSnapshot(ctx context.Context, userID, date string) (models.Snapshot, error)
	// ListSnapshotDates returns dates newest first.
	ListSnapshotDates(ctx context.Context, userID string) ([]string, error)
	// GetSnapshotRange returns snapshots with start <= date <= end, oldest first.
	GetSnapshotRange(ctx context.Context, userID, start, end string) ([]models.Snapshot, error)
	// DeleteSnapshot returns a NotFoundError when nothing was deleted.
	DeleteSnapshot(ctx context.Context, userID, date string) error
	// DeleteSnapshots removes every listed date, ignoring ones that are absent.
	DeleteSnapshots(ctx context.Context, userID string, dates []string) error
}

// TrackerRepository is the persistent tracker store written on every tracker
// mutation. Deletes are idempotent.
type TrackerRepository interface {
	ListTimeSince(ctx context.Context, userID string) ([]models.TimeSinceTracker, error)
	SaveTimeSince(ctx context.Context, userID string, t models.TimeSinceTracker) error
	DeleteTimeSince(ctx context.Context, userID, id string) error

	ListDuration(ctx context.Context, userID string) ([]models.DurationTracker, error)
	SaveDuration(ctx context.Context, userID string, t models.DurationTracker) error
	DeleteDuration(ctx context.Context, userID, id string) error
}

// TemplateRegistry stores the template field keys of each user.
type TemplateRegistry interface {
	ListTemplates(ctx context.Context, userID string) ([]models.FieldTemplate, error)
	GetTemplate(ctx context.Context, userID, id string) (models.FieldTemplate, error)
	GetTemplateByKey(ctx context.Context, userID, key string) (models.FieldTemplate, error)
	// CreateTemplate returns a ConflictError if the key is taken.
	CreateTemplate(ctx context.Context, userID string, tmpl models.FieldTemplate) error
	DeleteTemplate(ctx context.Context, userID, id string) error
}

// CounterRegistry stores the counter names of each user.
type CounterRegistry interface {
	ListCounters(ctx context.Context, userID string) ([]models.CounterDefinition, error)
	GetCounterByName(ctx context.Context, userID, name string) (models.CounterDefinition, error)
	// CreateCounter returns a ConflictError if the name is taken.
	CreateCounter(ctx context.Context, userID string, def models.CounterDefinition) error
	// DeleteCounter is idempotent.
	DeleteCounter(ctx context.Context, userID, id string) error
}

// ProfileStore holds arbitrary user key/value pairs included in exports.
type ProfileStore interface {
	// ListProfile returns fields ordered by key.
	ListProfile(ctx context.Context, userID string) ([]models.ProfileField, error)
	SetProfileField(ctx context.Context, userID string, field models.ProfileField) error
	DeleteProfileField(ctx context.Context, userID, key string) error
}

// RetentionStore holds per-user retention policies.
type RetentionStore interface {
	// GetRetentionPolicy reports ok=false when the user has no stored policy.
	GetRetentionPolicy(ctx context.Context, userID string) (policy models.RetentionPolicy, ok bool, err error)
	SaveRetentionPolicy(ctx context.Context, userID string, policy models.RetentionPolicy) error
}

// Provider is a complete storage backend.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	DayStateRepository
	SnapshotRepository
	TrackerRepository
	TemplateRegistry
	CounterRegistry
	ProfileStore
	RetentionStore

	// Utils
	GetConfigPath() string
}
