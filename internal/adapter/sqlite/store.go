// Package sqlite persists the QRZ session key in an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const (
	keyDate  = "qrz_key_date"
	keyValue = "qrz_key_value"
)

// Store implements credential.Store over a two-row key/value table.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open creates the database file and its parent directory if absent.
// Writes take the database lock up front so concurrent runs serialize
// instead of interleaving the two fields.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create credential dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open credential db: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	logger.Debug("credential store opened", "path", path)
	return &Store{db: db, path: path, logger: logger}, nil
}

// Load returns the stored credential. A missing field or an unparseable date
// yields the zero value for that field.
func (s *Store) Load(ctx context.Context) (domain.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv WHERE key IN (?, ?)`, keyDate, keyValue)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("query kv: %w", err)
	}
	defer rows.Close()

	var cred domain.Credential
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return domain.Credential{}, fmt.Errorf("scan kv: %w", err)
		}
		switch k {
		case keyValue:
			cred.Key = v
		case keyDate:
			d, err := domain.ParseDate(v)
			if err != nil {
				s.logger.Warn("ignoring unreadable qrz key date", "value", v, "error", err)
				continue
			}
			cred.Issued = d
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Credential{}, fmt.Errorf("read kv: %w", err)
	}
	return cred, nil
}

// Save replaces both fields in a single transaction.
func (s *Store) Save(ctx context.Context, c domain.Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin kv tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const upsert = `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	for _, kv := range [][2]string{{keyDate, c.Issued.String()}, {keyValue, c.Key}} {
		if _, err := tx.ExecContext(ctx, upsert, kv[0], kv[1]); err != nil {
			return fmt.Errorf("write %s: %w", kv[0], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit kv tx: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
