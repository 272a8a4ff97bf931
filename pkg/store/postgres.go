// Copyright 2025 The lcp-enclave-go Authors

package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresBackend persists the store's key-value contents, sequence
// counter, and pubkey binding in Postgres, applying write sets inside a
// single *sql.Tx.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend opens a connection pool against connStr and verifies
// it is reachable. Callers are responsible for having applied the
// enclave_kv/enclave_meta schema beforehand.
func NewPostgresBackend(ctx context.Context, connStr string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres store: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

// Close releases the underlying connection pool.
func (b *PostgresBackend) Close() error {
	return b.db.Close()
}

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS enclave_kv (
	key   BYTEA PRIMARY KEY,
	value BYTEA NOT NULL
);
CREATE TABLE IF NOT EXISTS enclave_meta (
	id       SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	pubkey   BYTEA,
	sequence BIGINT NOT NULL DEFAULT 0
);
INSERT INTO enclave_meta (id) VALUES (1) ON CONFLICT (id) DO NOTHING;
`

// EnsureSchema creates the store's tables if they do not already exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, createSchemaSQL)
	if err != nil {
		return fmt.Errorf("ensure store schema: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM enclave_kv WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get key %s: %w", hex.EncodeToString(key), err)
	}
	return value, true, nil
}

func (b *PostgresBackend) Root(ctx context.Context) ([32]byte, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key, value FROM enclave_kv ORDER BY key`)
	if err != nil {
		return [32]byte{}, fmt.Errorf("scan store for root: %w", err)
	}
	defer rows.Close()

	h := make(map[string][]byte)
	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return [32]byte{}, fmt.Errorf("scan store row: %w", err)
		}
		h[string(key)] = value
	}
	if err := rows.Err(); err != nil {
		return [32]byte{}, fmt.Errorf("iterate store rows: %w", err)
	}
	return computeRoot(h), nil
}

// ApplyWriteSet applies puts and deletes, reads back the resulting root,
// and increments the sequence counter inside one transaction, so a
// failure reading the root or bumping the sequence rolls back the writes
// along with it instead of leaving them durably committed with nothing
// reported back to the caller.
func (b *PostgresBackend) ApplyWriteSet(ctx context.Context, puts map[string][]byte, deletes []string) ([32]byte, uint64, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return [32]byte{}, 0, fmt.Errorf("begin write set transaction: %w", err)
	}
	defer tx.Rollback()

	for _, k := range deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM enclave_kv WHERE key = $1`, []byte(k)); err != nil {
			return [32]byte{}, 0, fmt.Errorf("delete key during commit: %w", err)
		}
	}
	for k, v := range puts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO enclave_kv (key, value) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
			[]byte(k), v)
		if err != nil {
			return [32]byte{}, 0, fmt.Errorf("put key during commit: %w", err)
		}
	}

	rows, err := tx.QueryContext(ctx, `SELECT key, value FROM enclave_kv ORDER BY key`)
	if err != nil {
		return [32]byte{}, 0, fmt.Errorf("scan store for post-commit root: %w", err)
	}
	h := make(map[string][]byte)
	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return [32]byte{}, 0, fmt.Errorf("scan store row: %w", err)
		}
		h[string(key)] = value
	}
	rowsErr := rows.Err()
	rows.Close()
	if rowsErr != nil {
		return [32]byte{}, 0, fmt.Errorf("iterate store rows: %w", rowsErr)
	}
	postRoot := computeRoot(h)

	var seq uint64
	if err := tx.QueryRowContext(ctx,
		`UPDATE enclave_meta SET sequence = sequence + 1 WHERE id = 1 RETURNING sequence`).Scan(&seq); err != nil {
		return [32]byte{}, 0, fmt.Errorf("increment sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return [32]byte{}, 0, fmt.Errorf("commit write set transaction: %w", err)
	}
	return postRoot, seq, nil
}

func (b *PostgresBackend) BoundPubkey(ctx context.Context) ([]byte, error) {
	var pubkey []byte
	err := b.db.QueryRowContext(ctx, `SELECT pubkey FROM enclave_meta WHERE id = 1`).Scan(&pubkey)
	if err != nil {
		return nil, fmt.Errorf("read bound pubkey: %w", err)
	}
	return pubkey, nil
}

func (b *PostgresBackend) BindPubkey(ctx context.Context, pubkey []byte) error {
	_, err := b.db.ExecContext(ctx, `UPDATE enclave_meta SET pubkey = $1 WHERE id = 1`, pubkey)
	if err != nil {
		return fmt.Errorf("bind pubkey: %w", err)
	}
	return nil
}

