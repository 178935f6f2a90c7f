package migrations

import "github.com/uptrace/bun/migrate"

// Migrations collects every schema change; each file registers one migration
// named after its file.
var Migrations = migrate.NewMigrations()
