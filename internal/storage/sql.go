package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// Dialect selects placeholder syntax for SQLStore queries.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// SQLStore keeps documents in the kv_state table. The sqlite schema comes
// from the embedded migrations in internal/database; OpenPostgres creates
// the table itself.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	ownsDB  bool
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// OpenPostgres connects through the pgx stdlib driver and ensures the table exists.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	ddl := `CREATE TABLE IF NOT EXISTS kv_state (
	store_key TEXT PRIMARY KEY,
	payload BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv_state table: %w", err)
	}
	return &SQLStore{db: db, dialect: DialectPostgres, ownsDB: true}, nil
}

func (s *SQLStore) query(sqlite, postgres string) string {
	if s.dialect == DialectPostgres {
		return postgres
	}
	return sqlite
}

// Load returns the payload stored under key.
func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	q := s.query(
		`SELECT payload FROM kv_state WHERE store_key = ?`,
		`SELECT payload FROM kv_state WHERE store_key = $1`,
	)
	var payload []byte
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return payload, nil
}

// Save upserts the payload for key.
func (s *SQLStore) Save(ctx context.Context, key string, value []byte) error {
	q := s.query(
		`INSERT INTO kv_state (store_key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(store_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		`INSERT INTO kv_state (store_key, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT(store_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
	)
	if _, err := s.db.ExecContext(ctx, q, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Close closes the connection when the store opened it.
func (s *SQLStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
