// Package storage holds the shared database plumbing: schema
// initialization, the SQLDB store interface, and query instrumentation.
// The content database runs on SQLite for single-host deployments and
// Postgres (via pgx) when configured with a remote DSN.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// Driver name constants, matching the registered database/sql drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables exist; on SQLite, WAL mode and foreign keys are enabled
func InitDB(db *sql.DB, driver string) error {
	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	// Content records keep the JSON document the legacy migration wrote;
	// normalization of the document shape happens in the application layer.
	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		member_id TEXT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL DEFAULT 0,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS course (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL DEFAULT 0,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gallery_item (
		id TEXT PRIMARY KEY,
		artist_id TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_id TEXT,
		resource_id TEXT,
		description TEXT
	);
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Rebind converts ?-style placeholders to the driver's native form.
// SQLite accepts ? directly; pgx wants $1, $2, ...
// POST: The query text is otherwise unchanged
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
