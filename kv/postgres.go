package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	postgresDriver = "pgx"
	defaultDSN     = "postgres://localhost/shopbag?sslmode=disable"
)

var sqlOpen = sql.Open

// Postgres stores values in a bag_kv table, for deployments where several
// app instances share one bag store.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects using dsn (or a local default) and ensures the table.
func OpenPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sqlOpen(postgresDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS bag_kv (
    namespace TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (namespace, key)
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure bag table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(namespace, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(context.Background(),
		`SELECT value FROM bag_kv WHERE namespace = $1 AND key = $2`, namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (p *Postgres) Set(namespace, key, value string) error {
	_, err := p.db.ExecContext(context.Background(), `INSERT INTO bag_kv (namespace, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		namespace, key, value)
	return err
}

func (p *Postgres) Delete(namespace, key string) error {
	_, err := p.db.ExecContext(context.Background(),
		`DELETE FROM bag_kv WHERE namespace = $1 AND key = $2`, namespace, key)
	return err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
