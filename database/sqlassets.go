package sqlassets

import "embed"

// Migrations holds the versioned schema applied by golang-migrate (see persistence.MigrateUp).
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that contains the numbered files.
const MigrationsDir = "migrations"
