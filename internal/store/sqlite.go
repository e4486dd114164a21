package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name:        "sqlite",
	rebind:      numberedPlaceholders,
	stringArray: jsonStringArray,
	scanStringArray: func(items *[]string) any {
		return jsonStrings{items: items}
	},
}

// NewSQLite opens (or creates) a single-file store with WAL and foreign keys
// enabled. Suitable for local runs and the CLI.
func NewSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; avoids SQLITE_BUSY between gateway and worker goroutines.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := initSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db, d: sqliteDialect}, nil
}

func initSQLiteSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	size_bytes INTEGER NOT NULL DEFAULT 0,
	page_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	content BLOB,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	ord INTEGER NOT NULL,
	text TEXT NOT NULL,
	page_start INTEGER NOT NULL,
	page_end INTEGER NOT NULL,
	token_count INTEGER NOT NULL,
	UNIQUE (document_id, ord)
);

CREATE TABLE IF NOT EXISTS chunk_results (
	chunk_id TEXT PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	classification TEXT NOT NULL,
	rubric TEXT NOT NULL,
	terms TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS document_results (
	document_id TEXT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
	overall_rating INTEGER NOT NULL,
	avg_violence REAL NOT NULL,
	avg_sexual_content REAL NOT NULL,
	avg_profanity REAL NOT NULL,
	avg_hate REAL NOT NULL,
	avg_self_harm REAL NOT NULL,
	confidence REAL NOT NULL,
	summary TEXT NOT NULL,
	terms TEXT NOT NULL,
	evidence TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	stage TEXT NOT NULL,
	status TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMP,
	completed_at TIMESTAMP,
	error TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL,
	UNIQUE (document_id, stage)
);

CREATE TABLE IF NOT EXISTS term_lists (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	terms TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS chunk_results_document_idx ON chunk_results(document_id);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
