// Package db persists raw metric samples and report run records in SQLite.
// Derived results (series, correlations, plans) are recomputed on demand
// and never stored.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle with the dashboard's queries.
type DB struct {
	*sql.DB
}

// Open opens the database without touching the schema. Use New for the
// common open-and-migrate path; Open exists so the migrate CLI can inspect
// a database in any state.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := sqldb.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	return &DB{sqldb}, nil
}

// New opens the database and applies all pending migrations.
func New(path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
