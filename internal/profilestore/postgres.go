package profilestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresBackend keeps each profile as a JSONB row keyed by
// (project_id, doc_id) in a table named after the collection. Batches run
// in one transaction.
type PostgresBackend struct {
	db    *sql.DB
	table string
	ns    Namespace
}

func NewPostgresBackend(db *sql.DB, ns Namespace) *PostgresBackend {
	return &PostgresBackend{db: db, table: pq.QuoteIdentifier(ns.Collection), ns: ns}
}

func (b *PostgresBackend) Name() string { return "postgres" }

// EnsureSchema creates the collection table if it is missing.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	project_id TEXT NOT NULL,
	doc_id     TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (project_id, doc_id)
)`, b.table)
	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", b.table, err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE project_id = $1 AND doc_id = $2`, b.table)

	var data []byte
	err := b.db.QueryRowContext(ctx, query, b.ns.ProjectID, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return data, nil
}

func (b *PostgresBackend) SetBatch(ctx context.Context, docs []Document) error {
	query := fmt.Sprintf(`INSERT INTO %s (project_id, doc_id, data, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (project_id, doc_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`, b.table)

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres begin: %w", err)
	}

	for _, d := range docs {
		if _, err := tx.ExecContext(ctx, query, b.ns.ProjectID, d.Key, string(d.Body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres upsert %s: %w", d.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres commit: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
