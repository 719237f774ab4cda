package cli

import (
	"errors"
	"fmt"

	"github.com/RubeHicksCube/Djournal/internal/keyring"
	"github.com/RubeHicksCube/Djournal/internal/storage/postgres"
)

type KeyringSetCmd struct {
	Item  string `arg:"" enum:"dsn,secret" help:"Item to store (dsn or secret)."`
	Value string `arg:"" help:"Value to store."`
}

func (c *KeyringSetCmd) Run(ctx *Context) error {
	item, err := keyring.ParseItem(c.Item)
	if err != nil {
		return err
	}
	if item == keyring.ConnectionString {
		// The keyring is the one place a DSN may carry a password.
		if _, err := postgres.ValidateConnString(c.Value); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return err
		}
	}
	if err := keyring.Set(item, c.Value); err != nil {
		return err
	}
	ctx.printf("%s Stored %s in the OS keyring\n", okStyle.Render("✓"), c.Item)
	return nil
}

type KeyringGetCmd struct {
	Item   string `arg:"" enum:"dsn,secret" help:"Item to show (dsn or secret)."`
	Reveal bool   `help:"Print the value unmasked."`
}

func (c *KeyringGetCmd) Run(ctx *Context) error {
	item, err := keyring.ParseItem(c.Item)
	if err != nil {
		return err
	}
	value, err := keyring.Get(item)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%s is not set in the keyring", c.Item)
		}
		return err
	}
	if !c.Reveal {
		value = mask(value)
	}
	ctx.println(value)
	return nil
}

type KeyringDeleteCmd struct {
	Item string `arg:"" enum:"dsn,secret" help:"Item to delete (dsn or secret)."`
}

func (c *KeyringDeleteCmd) Run(ctx *Context) error {
	item, err := keyring.ParseItem(c.Item)
	if err != nil {
		return err
	}
	if err := keyring.Delete(item); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%s is not set in the keyring", c.Item)
		}
		return err
	}
	ctx.printf("%s Deleted %s from the OS keyring\n", okStyle.Render("✓"), c.Item)
	return nil
}

type KeyringStatusCmd struct{}

func (c *KeyringStatusCmd) Run(ctx *Context) error {
	if !keyring.IsAvailable() {
		ctx.field("Keyring", warnStyle.Render("unavailable"))
		return nil
	}
	ctx.field("Keyring", okStyle.Render("available"))
	for _, name := range []string{"dsn", "secret"} {
		item, _ := keyring.ParseItem(name)
		state := dimStyle.Render("not set")
		if _, err := keyring.Get(item); err == nil {
			state = okStyle.Render("set")
		}
		ctx.field(name, state)
	}
	return nil
}

// mask keeps the first and last two characters of values long enough to
// still hide something.
func mask(value string) string {
	r := []rune(value)
	if len(r) <= 8 {
		return "********"
	}
	return string(r[:2]) + "****" + string(r[len(r)-2:])
}
