package migration

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/RubeHicksCube/Djournal/migrations"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func migrationFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for name, content := range files {
		m[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return m
}

func tableExists(t *testing.T, db *sqlx.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?", name); err != nil {
		t.Fatalf("checking table %s: %v", name, err)
	}
	return count > 0
}

// markApplied records a version as applied without running anything.
func markApplied(t *testing.T, db *sqlx.DB, version int) {
	t.Helper()
	if _, err := db.Exec(historyTable); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, 'manual', '2024-01-01T00:00:00Z')", version); err != nil {
		t.Fatalf("marking version %d: %v", version, err)
	}
}

func TestCurrentAndHistory(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_first.sql":  "CREATE TABLE first (id INTEGER);",
		"002_second.sql": "CREATE TABLE second (id INTEGER);",
	}))
	runner.now = func() time.Time { return time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC) }

	version, err := runner.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if _, err := runner.Apply(nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	recs, err := runner.History()
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	want := []Record{
		{Version: 1, Name: "first", AppliedAt: "2024-01-11T10:00:00Z"},
		{Version: 2, Name: "second", AppliedAt: "2024-01-11T10:00:00Z"},
	}
	if len(recs) != len(want) {
		t.Fatalf("history = %+v", recs)
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, recs[i], want[i])
		}
	}

	current, latest, err := runner.Versions()
	if err != nil || current != 2 || latest != 2 {
		t.Errorf("Versions = %d, %d, %v", current, latest, err)
	}
}

func TestApplyFromScratch(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_first.sql":  "CREATE TABLE first (id INTEGER);",
		"002_second.sql": "CREATE TABLE second (id INTEGER);",
		"README.md":      "not a migration",
	}))

	var messages []string
	applied, err := runner.Apply(func(msg string) {
		messages = append(messages, msg)
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 migrations applied, got %d", applied)
	}
	if len(messages) == 0 {
		t.Error("expected progress messages")
	}

	for _, table := range []string{"first", "second"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s was not created", table)
		}
	}

	version, _ := runner.Current()
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
}

func TestApplyIncremental(t *testing.T) {
	db := setupTestDB(t)

	first := NewRunner(db, migrationFS(map[string]string{
		"001_first.sql": "CREATE TABLE first (id INTEGER);",
	}))
	if _, err := first.Apply(nil); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}

	second := NewRunner(db, migrationFS(map[string]string{
		"001_first.sql":  "CREATE TABLE first (id INTEGER);",
		"002_second.sql": "CREATE TABLE second (id INTEGER);",
	}))
	applied, err := second.Apply(nil)
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if applied != 1 {
		t.Errorf("expected 1 migration applied, got %d", applied)
	}

	applied, err = second.Apply(nil)
	if err != nil {
		t.Fatalf("no-op Apply failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected no migrations applied, got %d", applied)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_good.sql": "CREATE TABLE good (id INTEGER);",
		"002_bad.sql":  "CREATE TABLE partial (id INTEGER); THIS IS NOT SQL;",
	}))

	applied, err := runner.Apply(nil)
	if err == nil {
		t.Fatal("expected error from invalid migration")
	}
	if applied != 1 {
		t.Errorf("expected 1 migration applied before failure, got %d", applied)
	}
	if tableExists(t, db, "partial") {
		t.Error("failed migration should have been rolled back")
	}

	version, _ := runner.Current()
	if version != 1 {
		t.Errorf("expected version 1 after rollback, got %d", version)
	}
}

func TestCheck(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_first.sql": "CREATE TABLE first (id INTEGER);",
	}))

	if err := runner.Check(); err == nil || !strings.Contains(err.Error(), "djournal migrate") {
		t.Errorf("expected behind-version error, got %v", err)
	}

	if _, err := runner.Apply(nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if err := runner.Check(); err != nil {
		t.Errorf("Check after migrate: %v", err)
	}

	markApplied(t, db, 99)
	if err := runner.Check(); err == nil {
		t.Error("expected error for database newer than application")
	}
	if _, err := runner.Apply(nil); err == nil {
		t.Error("Apply should refuse a newer database")
	}
}

func TestLoadRejectsBadNames(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"missing underscore", map[string]string{"001.sql": "SELECT 1;"}},
		{"non-numeric version", map[string]string{"abc_test.sql": "SELECT 1;"}},
		{"zero version", map[string]string{"000_test.sql": "SELECT 1;"}},
		{"duplicate version", map[string]string{"001_a.sql": "SELECT 1;", "001_b.sql": "SELECT 1;"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(setupTestDB(t), migrationFS(tt.files))
			if _, err := runner.Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	db := setupTestDB(t)

	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}

	runner := NewRunner(db, sub)
	if _, err := runner.Apply(nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, table := range []string{"day_states", "snapshots", "time_since_trackers", "duration_trackers", "field_templates", "counter_definitions", "profile_fields", "retention_policies"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s missing after embedded migrations", table)
		}
	}
}
