package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// documentName is the row key the farm Database is stored under.
const documentName = "farm"

// SqliteResource stores the Database as a single row in a SQLite database.
//
// Tables:
//
//	documents(name, data)  PRIMARY KEY (name)
type SqliteResource struct {
	db   *sql.DB
	path string
}

func NewSqliteResource(dbPath string) (*SqliteResource, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteResource{db: db, path: dbPath}, nil
}

func (s *SqliteResource) Close() error {
	return s.db.Close()
}

func (s *SqliteResource) Read(ctx context.Context) ([]byte, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE name = ?", documentName,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

// Write upserts the row; SQLite applies the statement atomically.
func (s *SqliteResource) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (name, data) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data`,
		documentName, string(data),
	)
	return err
}

func (s *SqliteResource) String() string {
	return "sqlite:" + s.path
}
