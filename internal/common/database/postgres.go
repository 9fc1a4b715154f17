// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crediflow/internal/common/config"

	_ "github.com/lib/pq"
)

// OpenPostgres opens a pool against cfg and verifies it with a ping.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := preparePostgres(ctx, db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

func preparePostgres(ctx context.Context, db *sql.DB, cfg config.PostgresConfig) error {
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("postgres ping %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return nil
}
