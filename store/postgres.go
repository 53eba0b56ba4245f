package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

// PostgresResource stores the Database as one JSONB row, the hosted
// document-database variant.
//
// Tables:
//
//	farm_state(name, payload)  PRIMARY KEY (name)
type PostgresResource struct {
	db *sql.DB
}

// NewPostgresResource connects to dsn and ensures the state table exists.
func NewPostgresResource(ctx context.Context, dsn string) (*PostgresResource, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS farm_state (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure farm_state table: %w", err)
	}
	return &PostgresResource{db: db}, nil
}

func (p *PostgresResource) Close() error {
	return p.db.Close()
}

func (p *PostgresResource) Read(ctx context.Context) ([]byte, error) {
	var raw string
	err := p.db.QueryRowContext(ctx,
		`SELECT payload::text FROM farm_state WHERE name = $1`, documentName,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (p *PostgresResource) Write(ctx context.Context, data []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO farm_state (name, payload) VALUES ($1, $2::jsonb)
		 ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload`,
		documentName, string(data),
	)
	return err
}

func (p *PostgresResource) String() string {
	return "postgres:farm_state"
}
