package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RubeHicksCube/Djournal/internal/export"
)

type ExportCmd struct {
	Date   string `arg:"" optional:"" help:"Day to export (YYYY-MM-DD or 'today')." default:"today"`
	Start  string `help:"First day of a range export (YYYY-MM-DD)."`
	End    string `help:"Last day of a range export (YYYY-MM-DD)."`
	Format string `short:"f" enum:"md,pdf" help:"Output format (md or pdf)." default:"md"`
	Output string `short:"o" help:"Output file or directory; '-' writes to stdout. Defaults to the export's file name in the current directory."`
}

func (c *ExportCmd) Run(ctx *Context) error {
	exports := ctx.Services().Exports

	var (
		art export.Artifact
		err error
	)
	switch {
	case c.Start != "" || c.End != "":
		if c.Start == "" || c.End == "" {
			return fmt.Errorf("--start and --end must be given together")
		}
		art, err = exports.ExportRange(cmdContext(), ctx.Identity(), c.Start, c.End, c.Format)
	default:
		art, err = exports.ExportSingleDay(cmdContext(), ctx.Identity(), c.Date, c.Format)
	}
	if err != nil {
		return err
	}

	if c.Output == "-" {
		_, err := ctx.out().Write(art.Body)
		return err
	}

	path := outputPath(c.Output, art.Filename)
	if err := os.WriteFile(path, art.Body, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	ctx.printf("%s Exported %s\n", okStyle.Render("✓"), path)
	return nil
}

// outputPath resolves the -o flag: empty means the artifact name in the
// current directory, and an existing directory receives the artifact name.
func outputPath(output, filename string) string {
	if output == "" {
		return filename
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, filename)
	}
	return output
}
