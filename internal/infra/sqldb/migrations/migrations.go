// Package migrations holds the bun schema migrations. They build tables from the row models
// so the same steps run on PostgreSQL and SQLite.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
