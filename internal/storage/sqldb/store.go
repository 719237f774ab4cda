// Package sqldb implements the storage repositories over sqlx. Queries are
// written with ? placeholders and rebound per driver, so the same code serves
// the SQLite and PostgreSQL backends.
package sqldb

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/RubeHicksCube/Djournal/internal/clock"
)

// timestampFormat is used for every timestamp column; both drivers store it as TEXT.
const timestampFormat = time.RFC3339Nano

type Store struct {
	db    *sqlx.DB
	clock clock.Clock
}

// New wraps db. Row timestamps come from clk, or the system time when clk is nil.
func New(db *sqlx.DB, clk clock.Clock) *Store {
	return &Store{db: db, clock: clk}
}

func (s *Store) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

// DB returns the underlying connection.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timestampFormat, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
