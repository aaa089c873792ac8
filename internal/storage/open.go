package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	DataDir     string  // file backend
	SQLite      *sql.DB // sqlite backend, already migrated
	PostgresDSN string
	S3          S3Config
}

// Open returns the configured store and a function that releases it.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(opts.Driver) {
	case "", DriverSQLite:
		if opts.SQLite == nil {
			return nil, nil, fmt.Errorf("sqlite storage requires an open database")
		}
		return NewSQLStore(opts.SQLite, DialectSQLite), noop, nil
	case DriverMemory:
		return NewMemoryStore(), noop, nil
	case DriverFile:
		s, err := NewFileStore(opts.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case DriverS3:
		s, err := NewS3Store(ctx, opts.S3)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
