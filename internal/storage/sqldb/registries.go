package sqldb

import (
	"context"
	"fmt"

	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

type templateRow struct {
	ID        string `db:"id"`
	Key       string `db:"key"`
	CreatedAt string `db:"created_at"`
}

func (r templateRow) toModel() models.FieldTemplate {
	return models.FieldTemplate{ID: r.ID, Key: r.Key, CreatedAt: parseTime(r.CreatedAt)}
}

type counterRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

func (r counterRow) toModel() models.CounterDefinition {
	return models.CounterDefinition{ID: r.ID, Name: r.Name, CreatedAt: parseTime(r.CreatedAt)}
}

func (s *Store) ListTemplates(ctx context.Context, userID string) ([]models.FieldTemplate, error) {
	var rows []templateRow
	err := s.db.SelectContext(ctx, &rows, s.q(
		"SELECT id, key, created_at FROM field_templates WHERE user_id = ? ORDER BY seq"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list field templates: %w", err)
	}
	templates := make([]models.FieldTemplate, 0, len(rows))
	for _, r := range rows {
		templates = append(templates, r.toModel())
	}
	return templates, nil
}

func (s *Store) GetTemplate(ctx context.Context, userID, id string) (models.FieldTemplate, error) {
	var row templateRow
	err := s.db.GetContext(ctx, &row, s.q(
		"SELECT id, key, created_at FROM field_templates WHERE user_id = ? AND id = ?"), userID, id)
	if err != nil {
		if isNoRows(err) {
			return models.FieldTemplate{}, apperrors.NotFound("field template", id)
		}
		return models.FieldTemplate{}, fmt.Errorf("failed to load field template %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (s *Store) GetTemplateByKey(ctx context.Context, userID, key string) (models.FieldTemplate, error) {
	var row templateRow
	err := s.db.GetContext(ctx, &row, s.q(
		"SELECT id, key, created_at FROM field_templates WHERE user_id = ? AND key = ?"), userID, key)
	if err != nil {
		if isNoRows(err) {
			return models.FieldTemplate{}, apperrors.NotFound("field template", key)
		}
		return models.FieldTemplate{}, fmt.Errorf("failed to load field template %s: %w", key, err)
	}
	return row.toModel(), nil
}

func (s *Store) CreateTemplate(ctx context.Context, userID string, tmpl models.FieldTemplate) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, s.q(
		"SELECT COUNT(*) FROM field_templates WHERE user_id = ? AND key = ?"), userID, tmpl.Key); err != nil {
		return fmt.Errorf("failed to check field template key: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("field template", tmpl.Key)
	}

	if _, err := tx.ExecContext(ctx, s.q(
		"INSERT INTO field_templates (id, user_id, key, created_at) VALUES (?, ?, ?, ?)"),
		tmpl.ID, userID, tmpl.Key, formatTime(tmpl.CreatedAt)); err != nil {
		return fmt.Errorf("failed to create field template: %w", err)
	}

	return tx.Commit()
}

func (s *Store) DeleteTemplate(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM field_templates WHERE user_id = ? AND id = ?"), userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete field template %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("field template", id)
	}
	return nil
}

func (s *Store) ListCounters(ctx context.Context, userID string) ([]models.CounterDefinition, error) {
	var rows []counterRow
	err := s.db.SelectContext(ctx, &rows, s.q(
		"SELECT id, name, created_at FROM counter_definitions WHERE user_id = ? ORDER BY seq"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list counters: %w", err)
	}
	defs := make([]models.CounterDefinition, 0, len(rows))
	for _, r := range rows {
		defs = append(defs, r.toModel())
	}
	return defs, nil
}

func (s *Store) GetCounterByName(ctx context.Context, userID, name string) (models.CounterDefinition, error) {
	var row counterRow
	err := s.db.GetContext(ctx, &row, s.q(
		"SELECT id, name, created_at FROM counter_definitions WHERE user_id = ? AND name = ?"), userID, name)
	if err != nil {
		if isNoRows(err) {
			return models.CounterDefinition{}, apperrors.NotFound("counter", name)
		}
		return models.CounterDefinition{}, fmt.Errorf("failed to load counter %s: %w", name, err)
	}
	return row.toModel(), nil
}

func (s *Store) CreateCounter(ctx context.Context, userID string, def models.CounterDefinition) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, s.q(
		"SELECT COUNT(*) FROM counter_definitions WHERE user_id = ? AND name = ?"), userID, def.Name); err != nil {
		return fmt.Errorf("failed to check counter name: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("counter", def.Name)
	}

	if _, err := tx.ExecContext(ctx, s.q(
		"INSERT INTO counter_definitions (id, user_id, name, created_at) VALUES (?, ?, ?, ?)"),
		def.ID, userID, def.Name, formatTime(def.CreatedAt)); err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}

	return tx.Commit()
}

func (s *Store) DeleteCounter(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, s.q("DELETE FROM counter_definitions WHERE user_id = ? AND id = ?"), userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete counter %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListProfile(ctx context.Context, userID string) ([]models.ProfileField, error) {
	fields := []models.ProfileField{}
	err := s.db.SelectContext(ctx, &fields, s.q(
		"SELECT key, value FROM profile_fields WHERE user_id = ? ORDER BY key"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile fields: %w", err)
	}
	return fields, nil
}

func (s *Store) SetProfileField(ctx context.Context, userID string, field models.ProfileField) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO profile_fields (user_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value`),
		userID, field.Key, field.Value)
	if err != nil {
		return fmt.Errorf("failed to save profile field %s: %w", field.Key, err)
	}
	return nil
}

func (s *Store) DeleteProfileField(ctx context.Context, userID, key string) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM profile_fields WHERE user_id = ? AND key = ?"), userID, key)
	if err != nil {
		return fmt.Errorf("failed to delete profile field %s: %w", key, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("profile field", key)
	}
	return nil
}

func (s *Store) GetRetentionPolicy(ctx context.Context, userID string) (models.RetentionPolicy, bool, error) {
	var policy models.RetentionPolicy
	err := s.db.GetContext(ctx, &policy, s.q(
		"SELECT max_age_days, max_count FROM retention_policies WHERE user_id = ?"), userID)
	if err != nil {
		if isNoRows(err) {
			return models.RetentionPolicy{}, false, nil
		}
		return models.RetentionPolicy{}, false, fmt.Errorf("failed to load retention policy: %w", err)
	}
	return policy, true, nil
}

func (s *Store) SaveRetentionPolicy(ctx context.Context, userID string, policy models.RetentionPolicy) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO retention_policies (user_id, max_age_days, max_count) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			max_age_days = excluded.max_age_days,
			max_count = excluded.max_count`),
		userID, policy.MaxAgeDays, policy.MaxCount)
	if err != nil {
		return fmt.Errorf("failed to save retention policy: %w", err)
	}
	return nil
}
