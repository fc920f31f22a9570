package migrations

import (
	"embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed *.sql
var sqlFiles embed.FS

// Migrations holds the schema for the game catalog and the sync sink.
var Migrations = migrate.NewMigrations()

func mustReadSQL(name string) string {
	data, err := sqlFiles.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}
