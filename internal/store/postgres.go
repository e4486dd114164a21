package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

var postgresDialect = dialect{
	name: "postgres",
	stringArray: func(items []string) any {
		if items == nil {
			items = []string{}
		}
		return pq.Array(items)
	},
	scanStringArray: func(items *[]string) any {
		return pq.Array(items)
	},
}

// NewPostgres opens a Postgres-backed store through the pgx stdlib driver and
// applies the schema.
func NewPostgres(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLStore{db: db, d: postgresDialect}
	if err := migratePostgres(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func migratePostgres(ctx context.Context, db *sql.DB) error {
	// Gateway and worker start together; the advisory lock keeps them from
	// racing on DDL.
	const lockID = 418_201_507

	var acquired bool
	if err := db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			page_count INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			content BYTEA,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			ord INT NOT NULL,
			text TEXT NOT NULL,
			page_start INT NOT NULL,
			page_end INT NOT NULL,
			token_count INT NOT NULL,
			UNIQUE (document_id, ord)
		);`,
		`CREATE TABLE IF NOT EXISTS chunk_results (
			chunk_id UUID PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			classification JSONB NOT NULL,
			rubric JSONB NOT NULL,
			terms JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS document_results (
			document_id UUID PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
			overall_rating INT NOT NULL,
			avg_violence DOUBLE PRECISION NOT NULL,
			avg_sexual_content DOUBLE PRECISION NOT NULL,
			avg_profanity DOUBLE PRECISION NOT NULL,
			avg_hate DOUBLE PRECISION NOT NULL,
			avg_self_harm DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			summary TEXT NOT NULL,
			terms JSONB NOT NULL,
			evidence JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			progress INT NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			error TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (document_id, stage)
		);`,
		`CREATE TABLE IF NOT EXISTS term_lists (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			terms TEXT[] NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS chunk_results_document_idx ON chunk_results(document_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
