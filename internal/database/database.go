// Package database opens the app's SQLite store and keeps its schema
// current through embedded goose migrations.
package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// connPragmas are applied per connection by the modernc driver. WAL and
// a busy timeout cover the scheduler's concurrent readers; synchronous
// NORMAL is safe under WAL.
const connPragmas = "_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=foreign_keys(ON)" +
	"&_pragma=synchronous(NORMAL)"

// Open opens the SQLite database at path and migrates it to the latest
// schema. Pass ":memory:" for an ephemeral database in tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?"+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite has one writer at a time, and a fresh connection to
	// ":memory:" would see an empty database. A single pooled
	// connection serves both cases.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
