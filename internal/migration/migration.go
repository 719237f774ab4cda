// Package migration applies the numbered SQL scripts under migrations/ and
// records each applied script in schema_migrations. Statements are rebound
// per driver, so one runner serves SQLite and PostgreSQL.
package migration

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const historyTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TEXT NOT NULL
)`

// Migration is one NNN_name.sql script.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Record is a row of schema_migrations.
type Record struct {
	Version   int    `db:"version"`
	Name      string `db:"name"`
	AppliedAt string `db:"applied_at"`
}

type Runner struct {
	db  *sqlx.DB
	src fs.FS
	now func() time.Time
}

func NewRunner(db *sqlx.DB, src fs.FS) *Runner {
	return &Runner{db: db, src: src, now: time.Now}
}

// Load parses every .sql file at the root of the source, ordered by version.
func (r *Runner) Load() ([]Migration, error) {
	entries, err := fs.ReadDir(r.src, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		m, err := parseName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[m.Version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, e.Name(), m.Version)
		}
		seen[m.Version] = e.Name()

		body, err := fs.ReadFile(r.src, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", e.Name(), err)
		}
		m.SQL = string(body)
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseName(file string) (Migration, error) {
	num, name, ok := strings.Cut(strings.TrimSuffix(file, ".sql"), "_")
	if !ok || name == "" {
		return Migration{}, fmt.Errorf("migration %s: want NNN_name.sql", file)
	}
	v, err := strconv.Atoi(num)
	if err != nil || v < 1 {
		return Migration{}, fmt.Errorf("migration %s: version must be a positive number", file)
	}
	return Migration{Version: v, Name: name}, nil
}

// History lists applied migrations, oldest first.
func (r *Runner) History() ([]Record, error) {
	if _, err := r.db.Exec(historyTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	var recs []Record
	if err := r.db.Select(&recs, "SELECT version, name, applied_at FROM schema_migrations ORDER BY version"); err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	return recs, nil
}

// Current is the highest applied version, 0 on a fresh database.
func (r *Runner) Current() (int, error) {
	recs, err := r.History()
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}
	return recs[len(recs)-1].Version, nil
}

// Versions returns the applied and the newest available version.
func (r *Runner) Versions() (current, latest int, err error) {
	current, err = r.Current()
	if err != nil {
		return 0, 0, err
	}
	all, err := r.Load()
	if err != nil {
		return 0, 0, err
	}
	if len(all) > 0 {
		latest = all[len(all)-1].Version
	}
	return current, latest, nil
}

// Apply runs every pending migration in its own transaction and returns how
// many succeeded. A failed migration leaves earlier ones applied.
func (r *Runner) Apply(logFn func(string)) (int, error) {
	if logFn == nil {
		logFn = func(string) {}
	}

	current, err := r.Current()
	if err != nil {
		return 0, err
	}
	all, err := r.Load()
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		logFn("No migration files found")
		return 0, nil
	}
	latest := all[len(all)-1].Version
	if current > latest {
		return 0, newerError(current, latest)
	}

	var pending []Migration
	for _, m := range all {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		logFn(fmt.Sprintf("Schema is at version %d, nothing to apply", current))
		return 0, nil
	}

	logFn(fmt.Sprintf("Migrating schema from version %d to %d", current, latest))
	record := r.db.Rebind("INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)")
	for i, m := range pending {
		if err := r.applyOne(m, record); err != nil {
			return i, err
		}
		logFn(fmt.Sprintf("  %03d %s", m.Version, m.Name))
	}
	return len(pending), nil
}

func (r *Runner) applyOne(m Migration, record string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.Exec(record, m.Version, m.Name, r.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("migration %d: recording version: %w", m.Version, err)
	}
	return tx.Commit()
}

// Check fails unless the database is exactly at the newest version.
func (r *Runner) Check() error {
	current, latest, err := r.Versions()
	if err != nil {
		return err
	}
	switch {
	case current > latest:
		return newerError(current, latest)
	case current < latest:
		return fmt.Errorf("database schema version %d is behind %d, run 'djournal migrate'", current, latest)
	}
	return nil
}

func newerError(current, latest int) error {
	return fmt.Errorf("database schema version %d is newer than this build supports (%d), upgrade djournal", current, latest)
}
