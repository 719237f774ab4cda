// Package export resolves a day or a date range into a rendered document.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	"github.com/RubeHicksCube/Djournal/internal/constants"
	apperrors "github.com/RubeHicksCube/Djournal/internal/errors"
	"github.com/RubeHicksCube/Djournal/internal/logger"
	"github.com/RubeHicksCube/Djournal/internal/models"
	"github.com/RubeHicksCube/Djournal/internal/render"
	"github.com/RubeHicksCube/Djournal/internal/snapshots"
	"github.com/RubeHicksCube/Djournal/internal/storage"
)

// Artifact is a rendered export ready to be written or served.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// DayArchiver is the part of the day-state manager the orchestrator needs.
type DayArchiver interface {
	Today() string
	CheckDateTransition(ctx context.Context, userID string) (bool, error)
	SaveSnapshot(ctx context.Context, userID string) (models.DayState, error)
}

type Orchestrator struct {
	days      DayArchiver
	snapshots *snapshots.Store
	profiles  storage.ProfileStore
	clock     clock.Clock
}

func New(days DayArchiver, snaps *snapshots.Store, profiles storage.ProfileStore, clk clock.Clock) *Orchestrator {
	return &Orchestrator{
		days:      days,
		snapshots: snaps,
		profiles:  profiles,
		clock:     clk,
	}
}

// ExportSingleDay renders one day. "today" and today's date archive the live
// state first so the export reflects it; other dates must already have a
// snapshot.
func (o *Orchestrator) ExportSingleDay(ctx context.Context, id models.Identity, date, format string) (Artifact, error) {
	ext, contentType, err := resolveFormat(format)
	if err != nil {
		return Artifact{}, err
	}

	today := o.days.Today()
	if date == constants.Today || date == "" {
		date = today
	}
	if !clock.ValidateDate(date) {
		return Artifact{}, apperrors.Validationf("date", "%q is not a YYYY-MM-DD date", date)
	}

	if _, err := o.days.CheckDateTransition(ctx, id.UserID); err != nil {
		return Artifact{}, err
	}
	if date == today {
		if _, err := o.days.SaveSnapshot(ctx, id.UserID); err != nil {
			return Artifact{}, err
		}
	}

	snap, err := o.snapshots.Get(ctx, id.UserID, date)
	if err != nil {
		return Artifact{}, err
	}

	body, err := o.render(ctx, id, []models.Snapshot{snap}, ext)
	if err != nil {
		return Artifact{}, err
	}

	logger.Info("Exported day", "user", id.UserID, "date", date, "format", ext)
	return Artifact{
		Filename:    fmt.Sprintf("%s.%s", date, ext),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// ExportRange renders every archived day in [start, end] in date order.
func (o *Orchestrator) ExportRange(ctx context.Context, id models.Identity, start, end, format string) (Artifact, error) {
	ext, contentType, err := resolveFormat(format)
	if err != nil {
		return Artifact{}, err
	}
	for field, d := range map[string]string{"start": start, "end": end} {
		if !clock.ValidateDate(d) {
			return Artifact{}, apperrors.Validationf(field, "%q is not a YYYY-MM-DD date", d)
		}
	}

	if _, err := o.days.CheckDateTransition(ctx, id.UserID); err != nil {
		return Artifact{}, err
	}
	snaps, err := o.snapshots.GetRange(ctx, id.UserID, start, end)
	if err != nil {
		return Artifact{}, err
	}
	if len(snaps) == 0 {
		return Artifact{}, apperrors.NotFound("snapshots", start+".."+end)
	}

	body, err := o.render(ctx, id, snaps, ext)
	if err != nil {
		return Artifact{}, err
	}

	logger.Info("Exported range", "user", id.UserID, "start", start, "end", end, "days", len(snaps), "format", ext)
	return Artifact{
		Filename:    RangeFilename(snaps, start, end, ext),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// RangeFilename names a range export after its single day, or after the
// requested bounds when it spans several days.
func RangeFilename(snaps []models.Snapshot, start, end, ext string) string {
	if len(snaps) == 1 {
		return fmt.Sprintf("%s.%s", snaps[0].Date, ext)
	}
	return fmt.Sprintf("%s_to_%s.%s", start, end, ext)
}

func (o *Orchestrator) render(ctx context.Context, id models.Identity, snaps []models.Snapshot, ext string) ([]byte, error) {
	profile, err := o.profiles.ListProfile(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	docs := make([]render.Document, 0, len(snaps))
	for _, s := range snaps {
		docs = append(docs, render.Document{
			State:       s.State,
			DisplayName: id.DisplayName,
			Profile:     profile,
		})
	}

	now := o.clock.Now()
	if ext == constants.FormatPDF {
		return render.PDF(docs, now)
	}
	return render.MarkdownRange(docs, now)
}

func resolveFormat(format string) (ext, contentType string, err error) {
	switch strings.ToLower(format) {
	case constants.FormatMarkdown, "markdown", "":
		return constants.FormatMarkdown, constants.ContentTypeMarkdown, nil
	case constants.FormatPDF:
		return constants.FormatPDF, constants.ContentTypePDF, nil
	default:
		return "", "", apperrors.Validationf("format", "unsupported format %q (want md or pdf)", format)
	}
}
