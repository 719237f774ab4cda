package migrations

import "embed"

// FS holds the per-driver migration files, one subdirectory per driver.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
