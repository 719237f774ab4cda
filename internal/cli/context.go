package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	"github.com/RubeHicksCube/Djournal/internal/config"
	"github.com/RubeHicksCube/Djournal/internal/daystate"
	"github.com/RubeHicksCube/Djournal/internal/export"
	"github.com/RubeHicksCube/Djournal/internal/keyring"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/snapshots"
	"github.com/RubeHicksCube/Djournal/internal/storage"
	"github.com/RubeHicksCube/Djournal/internal/storage/memory"
	"github.com/RubeHicksCube/Djournal/internal/storage/postgres"
	"github.com/RubeHicksCube/Djournal/internal/storage/sqlite"
	"github.com/RubeHicksCube/Djournal/internal/trackers"
)

// Context is handed to every command's Run method.
type Context struct {
	Config *config.Config
	Store  storage.Provider
	Clock  clock.Clock
	User   string
	Out    io.Writer

	services *Services
}

// Services is the journal core wired over one storage provider.
type Services struct {
	Trackers  *trackers.Registry
	Snapshots *snapshots.Store
	Days      *daystate.Manager
	Exports   *export.Orchestrator
}

func NewServices(store storage.Provider, clk clock.Clock, policy models.RetentionPolicy) *Services {
	tr := trackers.New(store, store, clk)
	snaps := snapshots.New(store, store, clk, policy)
	days := daystate.New(store, store, tr, snaps, clk)
	return &Services{
		Trackers:  tr,
		Snapshots: snaps,
		Days:      days,
		Exports:   export.New(days, snaps, store, clk),
	}
}

func (c *Context) Services() *Services {
	if c.services == nil {
		c.services = NewServices(c.Store, c.Clock, c.Config.DefaultPolicy())
	}
	return c.services
}

// settle archives a completed day so archive reads see it.
func (c *Context) settle() error {
	_, err := c.Services().Days.CheckDateTransition(cmdContext(), c.User)
	return err
}

// Identity is who local commands act as.
func (c *Context) Identity() models.Identity {
	return identityFor(c.User, c.User, false)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

// OpenStore picks the storage backend. A non-empty db overrides the config:
// a postgres:// URL selects PostgreSQL and anything else is a SQLite path.
// SQL backends stamp row timestamps with clk.
func OpenStore(cfg *config.Config, db string, clk clock.Clock) (storage.Provider, error) {
	driver, target := cfg.Database.Driver, ""
	switch {
	case db != "" && postgres.IsConnString(db):
		driver, target = config.DriverPostgres, db
	case db != "":
		driver, target = config.DriverSQLite, config.ExpandPath(db)
	}

	switch driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverPostgres:
		if target == "" {
			target = cfg.Database.DSN
		}
		fromKeyring := false
		if target == "" {
			dsn, err := keyring.GetConnectionString()
			if err != nil {
				if errors.Is(err, keyring.ErrNotFound) {
					return nil, errors.New("no PostgreSQL connection string configured; set database.dsn or run 'djournal keyring set dsn <url>'")
				}
				return nil, err
			}
			target, fromKeyring = dsn, true
		}
		// Passwords are only allowed in a DSN read from the keyring.
		if _, err := postgres.ValidateConnString(target); err != nil && !(fromKeyring && errors.Is(err, postgres.ErrEmbeddedCredentials)) {
			return nil, err
		}
		store := postgres.New(target)
		store.SetClock(clk)
		return store, nil
	default:
		if target == "" {
			target = cfg.Database.Path
		}
		store := sqlite.NewStore(target)
		store.SetClock(clk)
		return store, nil
	}
}

func cmdContext() context.Context {
	return context.Background()
}

func identityFor(userID, name string, admin bool) models.Identity {
	return models.Identity{UserID: userID, DisplayName: name, IsAdmin: admin}
}
