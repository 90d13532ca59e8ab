// Package catalog keeps a SQLite record of the books found in the books
// directory: file checksums, item and link counts, and the id high-water
// mark that survives deletes and restarts.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS books (
	name           TEXT PRIMARY KEY,
	items_checksum TEXT NOT NULL DEFAULT '',
	links_checksum TEXT NOT NULL DEFAULT '',
	item_count     INTEGER NOT NULL DEFAULT 0,
	link_count     INTEGER NOT NULL DEFAULT 0,
	next_id        INTEGER NOT NULL DEFAULT 1,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
