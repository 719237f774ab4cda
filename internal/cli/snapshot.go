package cli

import (
	"fmt"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

type SnapshotSaveCmd struct{}

func (c *SnapshotSaveCmd) Run(ctx *Context) error {
	state, err := ctx.Services().Days.SaveSnapshot(cmdContext(), ctx.User)
	if err != nil {
		return err
	}
	ctx.printf("%s Saved snapshot for %s\n", okStyle.Render("✓"), state.Date)
	return nil
}

type SnapshotListCmd struct {
	Start string `help:"Only list snapshots on or after this date (YYYY-MM-DD)."`
	End   string `help:"Only list snapshots on or before this date (YYYY-MM-DD)."`
}

func (c *SnapshotListCmd) Run(ctx *Context) error {
	if err := ctx.settle(); err != nil {
		return err
	}
	svc := ctx.Services()
	dates, err := svc.Snapshots.ListDates(cmdContext(), ctx.User)
	if err != nil {
		return err
	}

	var shown []string
	for _, d := range dates {
		if (c.Start == "" || d >= c.Start) && (c.End == "" || d <= c.End) {
			shown = append(shown, d)
		}
	}
	if len(shown) == 0 {
		ctx.println("No snapshots found.")
		return nil
	}

	ctx.println(titleStyle.Render(fmt.Sprintf("Snapshots for %s (%d)", ctx.User, len(shown))))
	for _, d := range shown {
		snap, err := svc.Snapshots.Get(cmdContext(), ctx.User, d)
		if err != nil {
			return err
		}
		ctx.printf("  %s  %s\n", d, dimStyle.Render(summarize(snap)))
	}
	return nil
}

func summarize(snap models.Snapshot) string {
	s := snap.State
	return fmt.Sprintf("%d entries, %d tasks, %d counters, saved %s",
		len(s.Entries), len(s.Tasks), len(s.CustomCounters), snap.SavedAt.Local().Format("2006-01-02 15:04"))
}

type SnapshotDeleteCmd struct {
	Date string `arg:"" help:"Date of the snapshot to delete (YYYY-MM-DD)."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *SnapshotDeleteCmd) Run(ctx *Context) error {
	if !clock.ValidateDate(c.Date) {
		return apperrors.Validationf("date", "%q is not a YYYY-MM-DD date", c.Date)
	}
	if !c.Yes {
		ok, err := confirmFunc(fmt.Sprintf("Delete the snapshot for %s?", c.Date), "This cannot be undone.")
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Deletion cancelled.")
			return nil
		}
	}

	if err := ctx.settle(); err != nil {
		return err
	}
	if err := ctx.Services().Snapshots.DeleteOne(cmdContext(), ctx.User, c.Date); err != nil {
		return err
	}
	ctx.printf("%s Deleted snapshot for %s\n", okStyle.Render("✓"), c.Date)
	return nil
}

type RetentionGetCmd struct{}

func (c *RetentionGetCmd) Run(ctx *Context) error {
	policy, err := ctx.Services().Snapshots.Policy(cmdContext(), ctx.User)
	if err != nil {
		return err
	}
	ctx.field("Max age (days)", fmt.Sprintf("%d", policy.MaxAgeDays))
	ctx.field("Max count", fmt.Sprintf("%d", policy.MaxCount))
	ctx.println(dimStyle.Render(formatPolicy(policy.MaxAgeDays, policy.MaxCount)))
	return nil
}

type RetentionSetCmd struct {
	MaxAgeDays int `help:"Delete snapshots older than this many days (0 = unlimited)." default:"0"`
	MaxCount   int `help:"Keep at most this many snapshots (0 = unlimited)." default:"0"`
}

func (c *RetentionSetCmd) Run(ctx *Context) error {
	if err := ctx.settle(); err != nil {
		return err
	}
	policy := models.RetentionPolicy{MaxAgeDays: c.MaxAgeDays, MaxCount: c.MaxCount}
	deleted, err := ctx.Services().Snapshots.SetPolicy(cmdContext(), ctx.User, policy)
	if err != nil {
		return err
	}
	ctx.printf("%s Retention set: %s\n", okStyle.Render("✓"), formatPolicy(policy.MaxAgeDays, policy.MaxCount))
	if len(deleted) > 0 {
		ctx.printf("Deleted %d snapshot(s):\n", len(deleted))
		for _, d := range deleted {
			ctx.printf("  %s\n", d)
		}
	}
	return nil
}

type ProfileSetCmd struct {
	Key   string `arg:"" help:"Profile field name."`
	Value string `arg:"" help:"Profile field value."`
}

func (c *ProfileSetCmd) Run(ctx *Context) error {
	if c.Key == "" {
		return apperrors.Validation("key", "must not be empty")
	}
	field := models.ProfileField{Key: c.Key, Value: c.Value}
	if err := ctx.Store.SetProfileField(cmdContext(), ctx.User, field); err != nil {
		return err
	}
	ctx.printf("%s %s = %s\n", okStyle.Render("✓"), c.Key, c.Value)
	return nil
}

type ProfileListCmd struct{}

func (c *ProfileListCmd) Run(ctx *Context) error {
	fields, err := ctx.Store.ListProfile(cmdContext(), ctx.User)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		ctx.println("No profile fields set.")
		return nil
	}
	for _, f := range fields {
		ctx.field(f.Key, f.Value)
	}
	return nil
}

type ProfileDeleteCmd struct {
	Key string `arg:"" help:"Profile field name."`
}

func (c *ProfileDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Store.DeleteProfileField(cmdContext(), ctx.User, c.Key); err != nil {
		return err
	}
	ctx.printf("%s Deleted profile field %s\n", okStyle.Render("✓"), c.Key)
	return nil
}
