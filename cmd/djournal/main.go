package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/RubeHicksCube/Djournal/internal/cli"
	"github.com/RubeHicksCube/Djournal/internal/clock"
	"github.com/RubeHicksCube/Djournal/internal/config"
	"github.com/RubeHicksCube/Djournal/internal/constants"
	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"~/.config/djournal/config.yaml"`
	DB      string `name:"db" help:"SQLite path or postgres:// URL (overrides the config file)."`
	Debug   bool   `help:"Enable debug logging."`
	User    string `help:"User id local commands act as." env:"DJOURNAL_USER" default:"local"`

	Init    cli.InitCmd    `cmd:"" help:"Initialize djournal storage."`
	Migrate cli.MigrateCmd `cmd:"" help:"Apply pending database migrations."`
	Serve   cli.ServeCmd   `cmd:"" help:"Run the HTTP API server."`
	Status  cli.StatusCmd  `cmd:"" help:"Show storage, snapshot and server status."`
	Export  cli.ExportCmd  `cmd:"" help:"Export a day or a date range as Markdown or PDF."`
	Token   cli.TokenCmd   `cmd:"" help:"Issue a bearer token for the API."`

	Snapshot struct {
		Save   cli.SnapshotSaveCmd   `cmd:"" help:"Archive today's state now."`
		List   cli.SnapshotListCmd   `cmd:"" help:"List archived days."`
		Delete cli.SnapshotDeleteCmd `cmd:"" help:"Delete one archived day."`
	} `cmd:"" help:"Manage daily snapshots."`

	Retention struct {
		Get cli.RetentionGetCmd `cmd:"" help:"Show the snapshot retention policy."`
		Set cli.RetentionSetCmd `cmd:"" help:"Change the retention policy and apply it."`
	} `cmd:"" help:"Manage snapshot retention."`

	Profile struct {
		Set    cli.ProfileSetCmd    `cmd:"" help:"Set a profile field."`
		List   cli.ProfileListCmd   `cmd:"" help:"List profile fields."`
		Delete cli.ProfileDeleteCmd `cmd:"" help:"Delete a profile field."`
	} `cmd:"" help:"Manage profile fields included in exports."`

	Keyring struct {
		Set    cli.KeyringSetCmd    `cmd:"" help:"Store a value in the OS keyring."`
		Get    cli.KeyringGetCmd    `cmd:"" help:"Show a value from the OS keyring."`
		Delete cli.KeyringDeleteCmd `cmd:"" help:"Delete a value from the OS keyring."`
		Status cli.KeyringStatusCmd `cmd:"" help:"Show keyring availability."`
	} `cmd:"" help:"Manage secrets in the OS keyring."`

	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a database backup."`
		List    cli.BackupListCmd    `cmd:"" help:"List database backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore the database from a backup."`
	} `cmd:"" help:"Manage SQLite database backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily journal with trackers, snapshots and exports"),
		kong.UsageOnError(),
		kong.Vars{"version": constants.Version},
	)
	command := ctx.Command()

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || cfg.Log.Debug,
		ConfigDir: config.ConfigDir(),
		Stderr:    command == "serve",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		apperrors.Fatal(err)
	}

	appCtx := &cli.Context{
		Config: cfg,
		Clock:  clk,
		User:   CLI.User,
	}

	if needsStore(command) {
		store, err := cli.OpenStore(cfg, CLI.DB, clk)
		if err != nil {
			apperrors.Fatal(err)
		}
		if command != "init" && command != "migrate" {
			if err := store.Load(); err != nil {
				apperrors.Fatal(err)
			}
		}
		defer store.Close()
		appCtx.Store = store
	}

	if err := ctx.Run(appCtx); err != nil {
		logger.Error("Command execution failed", "command", command, "error", err)
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		// os.Exit skips the deferred Close.
		if appCtx.Store != nil {
			appCtx.Store.Close()
		}
		os.Exit(1)
	}
}

// needsStore reports whether command touches the database. Keyring and token
// commands work before any storage is configured.
func needsStore(command string) bool {
	return !strings.HasPrefix(command, "keyring") && !strings.HasPrefix(command, "token")
}
