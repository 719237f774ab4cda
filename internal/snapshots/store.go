// Package snapshots archives completed days and enforces the per-user
// retention policy over them.
package snapshots

import (
	"context"
	"sort"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/logger"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/storage"
)

type Store struct {
	repo          storage.SnapshotRepository
	policies      storage.RetentionStore
	clock         clock.Clock
	defaultPolicy models.RetentionPolicy
}

// New returns a snapshot store. defaultPolicy applies to users that never
// saved a policy of their own.
func New(repo storage.SnapshotRepository, policies storage.RetentionStore, clk clock.Clock, defaultPolicy models.RetentionPolicy) *Store {
	return &Store{
		repo:          repo,
		policies:      policies,
		clock:         clk,
		defaultPolicy: defaultPolicy,
	}
}

// Archive stores a deep copy of state under its date, replacing any earlier
// snapshot of the same day.
func (s *Store) Archive(ctx context.Context, userID string, state models.DayState) error {
	if !clock.ValidateDate(state.Date) {
		return apperrors.Validationf("date", "%q is not a YYYY-MM-DD date", state.Date)
	}
	snap := models.Snapshot{
		UserID:  userID,
		Date:    state.Date,
		State:   state.Clone(),
		SavedAt: s.clock.Now(),
	}
	if err := s.repo.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	logger.Debug("Archived day", "user", userID, "date", state.Date)
	return nil
}

// ArchiveAndRetain archives state and then applies the user's policy.
func (s *Store) ArchiveAndRetain(ctx context.Context, userID string, state models.DayState) error {
	if err := s.Archive(ctx, userID, state); err != nil {
		return err
	}
	policy, err := s.Policy(ctx, userID)
	if err != nil {
		return err
	}
	_, err = s.ApplyRetention(ctx, userID, policy)
	return err
}

// ApplyRetention deletes the snapshots policy expires and returns their dates.
func (s *Store) ApplyRetention(ctx context.Context, userID string, policy models.RetentionPolicy) ([]string, error) {
	if policy.MaxAgeDays == 0 && policy.MaxCount == 0 {
		return nil, nil
	}

	dates, err := s.repo.ListSnapshotDates(ctx, userID)
	if err != nil {
		return nil, err
	}

	expired := Expired(dates, clock.Today(s.clock), policy)
	if len(expired) == 0 {
		return nil, nil
	}
	if err := s.repo.DeleteSnapshots(ctx, userID, expired); err != nil {
		return nil, err
	}
	logger.Info("Applied retention policy", "user", userID, "deleted", len(expired),
		"max_age_days", policy.MaxAgeDays, "max_count", policy.MaxCount)
	return expired, nil
}

// Expired selects the dates policy removes, oldest first. The age filter runs
// first and drops dates strictly older than today minus MaxAgeDays; the count
// filter then keeps only the MaxCount newest of what is left.
func Expired(dates []string, today string, policy models.RetentionPolicy) []string {
	sorted := append([]string{}, dates...)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))

	var expired, kept []string
	cutoff := ""
	if policy.MaxAgeDays > 0 {
		if c, err := clock.ShiftDate(today, -policy.MaxAgeDays); err == nil {
			cutoff = c
		}
	}
	for _, d := range sorted {
		if cutoff != "" && d < cutoff {
			expired = append(expired, d)
			continue
		}
		kept = append(kept, d)
	}

	if policy.MaxCount > 0 && len(kept) > policy.MaxCount {
		expired = append(expired, kept[policy.MaxCount:]...)
	}

	sort.Strings(expired)
	return expired
}

// ListDates returns archived dates newest first.
func (s *Store) ListDates(ctx context.Context, userID string) ([]string, error) {
	return s.repo.ListSnapshotDates(ctx, userID)
}

// GetRange returns snapshots with start <= date <= end in ascending order.
func (s *Store) GetRange(ctx context.Context, userID, start, end string) ([]models.Snapshot, error) {
	if start > end {
		return nil, apperrors.Validationf("range", "start %s is after end %s", start, end)
	}
	return s.repo.GetSnapshotRange(ctx, userID, start, end)
}

func (s *Store) Get(ctx context.Context, userID, date string) (models.Snapshot, error) {
	return s.repo.GetSnapshot(ctx, userID, date)
}

// DeleteOne returns a NotFoundError when there is no snapshot for date.
func (s *Store) DeleteOne(ctx context.Context, userID, date string) error {
	if err := s.repo.DeleteSnapshot(ctx, userID, date); err != nil {
		return err
	}
	logger.Info("Deleted snapshot", "user", userID, "date", date)
	return nil
}

// Policy returns the user's stored policy or the configured default.
func (s *Store) Policy(ctx context.Context, userID string) (models.RetentionPolicy, error) {
	policy, ok, err := s.policies.GetRetentionPolicy(ctx, userID)
	if err != nil {
		return models.RetentionPolicy{}, err
	}
	if !ok {
		return s.defaultPolicy, nil
	}
	return policy, nil
}

// SetPolicy saves policy and applies it straight away.
func (s *Store) SetPolicy(ctx context.Context, userID string, policy models.RetentionPolicy) ([]string, error) {
	if policy.MaxAgeDays < 0 {
		return nil, apperrors.Validation("maxAgeDays", "must not be negative")
	}
	if policy.MaxCount < 0 {
		return nil, apperrors.Validation("maxCount", "must not be negative")
	}
	if err := s.policies.SaveRetentionPolicy(ctx, userID, policy); err != nil {
		return nil, err
	}
	return s.ApplyRetention(ctx, userID, policy)
}
