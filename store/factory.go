package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Config selects and parameterizes the Resource built by Open.
type Config struct {
	Backend     string
	DataDir     string
	FileName    string
	PostgresDSN string
	S3          S3Config
}

// Open creates a Resource based on the backend name.
//
// Supported backends:
//
//	"json"     - single JSON file dataDir/db.json (default)
//	"sqlite"   - SQLite database at dataDir/farm.db
//	"postgres" - JSONB row in Postgres at PostgresDSN
//	"s3"       - one object in an S3 bucket
//	"memory"   - in-memory (ephemeral, for testing)
//
// Resources holding connections also implement io.Closer.
func Open(ctx context.Context, cfg Config) (Resource, error) {
	var (
		res Resource
		err error
	)
	switch cfg.Backend {
	case "json", "":
		res, err = NewFileResource(cfg.DataDir, cfg.FileName)
	case "sqlite":
		res, err = NewSqliteResource(filepath.Join(cfg.DataDir, "farm.db"))
	case "postgres":
		res, err = NewPostgresResource(ctx, cfg.PostgresDSN)
	case "s3":
		res, err = NewS3Resource(ctx, cfg.S3)
	case "memory":
		res = NewMemoryResource()
	default:
		return nil, fmt.Errorf("%w: %q (supported: json, sqlite, postgres, s3, memory)", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
