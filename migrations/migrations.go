package migrations

import "embed"

// Schema migrations per database driver, applied in filename order by
// db.MigrateUp.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
