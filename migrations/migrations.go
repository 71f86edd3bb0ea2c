// Package migrations embeds the ledger schema, the criartransacao function and the seed
// accounts.
package migrations

import (
	"database/sql"
	"embed"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed *.sql
var files embed.FS

func Source() migrate.MigrationSource {
	return migrate.EmbedFileSystemMigrationSource{
		FileSystem: files,
		Root:       ".",
	}
}

// Up applies all pending migrations and returns how many ran.
func Up(db *sql.DB) (int, error) {
	return migrate.Exec(db, "postgres", Source(), migrate.Up)
}

// Down rolls back every applied migration.
func Down(db *sql.DB) (int, error) {
	return migrate.Exec(db, "postgres", Source(), migrate.Down)
}
