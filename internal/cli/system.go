package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RubeHicksCube/Djournal/internal/auth"
	"github.com/RubeHicksCube/Djournal/internal/config"
	"github.com/RubeHicksCube/Djournal/internal/constants"
	"github.com/RubeHicksCube/Djournal/internal/keyring"
	"github.com/RubeHicksCube/Djournal/internal/lockfile"
	"github.com/RubeHicksCube/Djournal/internal/logger"
	"github.com/RubeHicksCube/Djournal/internal/server"
	"github.com/RubeHicksCube/Djournal/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Delete an existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if c.Force {
		if _, ok := ctx.Store.(*sqlite.Store); ok {
			dbPath := ctx.Store.GetConfigPath()
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err == nil {
				ctx.printf("Deleted existing database at: %s\n", dbPath)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.printf("Initialized djournal storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}

// migrator is implemented by the SQL-backed stores.
type migrator interface {
	Migrate(logFn func(string)) (int, error)
}

type schemaReporter interface {
	SchemaVersions() (current, latest int, err error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return errors.New("migrate is only supported for SQLite and PostgreSQL storage")
	}

	count, err := m.Migrate(func(msg string) { ctx.println(msg) })
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if count == 0 {
		ctx.println("No migrations to apply. Database is up to date.")
	} else {
		ctx.printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *Context) error {
	if err := ctx.settle(); err != nil {
		return err
	}
	svc := ctx.Services()
	dates, err := svc.Snapshots.ListDates(cmdContext(), ctx.User)
	if err != nil {
		return err
	}
	policy, err := svc.Snapshots.Policy(cmdContext(), ctx.User)
	if err != nil {
		return err
	}

	ctx.println(titleStyle.Render("djournal " + constants.Version))
	ctx.field("Storage", ctx.Store.GetConfigPath())
	if sr, ok := ctx.Store.(schemaReporter); ok {
		if current, latest, err := sr.SchemaVersions(); err != nil {
			ctx.field("Schema", warnStyle.Render(err.Error()))
		} else {
			ctx.field("Schema", fmt.Sprintf("version %d of %d", current, latest))
		}
	}
	ctx.field("User", ctx.User)
	ctx.field("Today", svc.Days.Today())
	ctx.field("Snapshots", fmt.Sprintf("%d", len(dates)))
	if len(dates) > 0 {
		ctx.field("Latest", dates[0])
	}
	ctx.field("Retention", formatPolicy(policy.MaxAgeDays, policy.MaxCount))

	owner, err := lockfile.Running(config.ConfigDir())
	switch {
	case err == nil:
		ctx.field("Server", okStyle.Render(fmt.Sprintf("running on %s (pid %d)", owner.Addr, owner.PID)))
	case errors.Is(err, lockfile.ErrNotRunning):
		ctx.field("Server", dimStyle.Render("not running"))
	default:
		ctx.field("Server", warnStyle.Render("stale lockfile: "+err.Error()))
	}

	if keyring.IsAvailable() {
		ctx.field("Keyring", okStyle.Render("available"))
	} else {
		ctx.field("Keyring", warnStyle.Render("unavailable"))
	}
	return nil
}

func formatPolicy(maxAgeDays, maxCount int) string {
	age, count := "unlimited age", "unlimited count"
	if maxAgeDays > 0 {
		age = fmt.Sprintf("max %d days", maxAgeDays)
	}
	if maxCount > 0 {
		count = fmt.Sprintf("max %d snapshots", maxCount)
	}
	return age + ", " + count
}

type ServeCmd struct {
	Addr string `help:"Listen address (overrides server.addr)."`
}

// signingSecret prefers the configured secret and falls back to the keyring.
func signingSecret(cfg *config.Config) (string, error) {
	if cfg.Auth.Secret != "" {
		return cfg.Auth.Secret, nil
	}
	secret, err := keyring.SigningSecretOrCreate()
	if err != nil {
		return "", fmt.Errorf("no auth.secret configured and the keyring failed: %w", err)
	}
	return secret, nil
}

func (c *ServeCmd) Run(ctx *Context) error {
	addr := c.Addr
	if addr == "" {
		addr = ctx.Config.Server.Addr
	}

	lock, err := lockfile.Acquire(config.ConfigDir(), addr)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release lockfile", "error", err)
		}
	}()

	secret, err := signingSecret(ctx.Config)
	if err != nil {
		return err
	}
	tokens, err := auth.NewService(secret, ctx.Config.Auth.TokenTTL)
	if err != nil {
		return err
	}

	svc := ctx.Services()
	srv := server.New(server.Deps{
		Days:         svc.Days,
		Snapshots:    svc.Snapshots,
		Exports:      svc.Exports,
		Profiles:     ctx.Store,
		Tokens:       tokens,
		MaxBodyBytes: ctx.Config.Server.MaxBodyBytes,
	})

	sigCtx, stop := signal.NotifyContext(cmdContext(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.printf("Serving djournal on %s (storage: %s)\n", addr, ctx.Store.GetConfigPath())
	return srv.ListenAndServe(sigCtx, addr)
}

type TokenCmd struct {
	User  string `arg:"" optional:"" help:"User id to issue the token for (defaults to --user)."`
	Name  string `help:"Display name carried in the token."`
	Admin bool   `help:"Allow the token to act for other users on snapshot and export routes."`
}

func (c *TokenCmd) Run(ctx *Context) error {
	user := c.User
	if user == "" {
		user = ctx.User
	}
	name := c.Name
	if name == "" {
		name = user
	}

	secret, err := signingSecret(ctx.Config)
	if err != nil {
		return err
	}
	tokens, err := auth.NewService(secret, ctx.Config.Auth.TokenTTL)
	if err != nil {
		return err
	}
	token, expires, err := tokens.GenerateToken(identityFor(user, name, c.Admin))
	if err != nil {
		return err
	}

	ctx.println(token)
	fmt.Fprintf(os.Stderr, "%s\n", dimStyle.Render("expires "+expires.Format("2006-01-02 15:04 MST")))
	return nil
}
