package artifact

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sweeplab/sweep/internal/errors"
)

// schema is the single-table layout of the sqlite backend. The composite
// primary key carries the namespace invariant into the database itself.
const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	variant_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	data       BLOB NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (variant_id, key)
);`

// SQLStore keeps artifacts in a single-file SQLite database, for runs
// whose outputs should travel as one file.
type SQLStore struct {
	db *sql.DB

	mu     sync.Mutex
	closed bool
}

// OpenSQLite opens or creates the database at path and ensures the schema
// exists. The parent directory is created if needed.
func OpenSQLite(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create store dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &SQLStore{db: db}, nil
}

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// Put inserts the blob, write-once. The existence check and the insert
// run under the store mutex, so concurrent writers to the same key cannot
// both pass the check.
func (s *SQLStore) Put(variantID, key string, data []byte) (Ref, error) {
	if err := validateRef(variantID, key); err != nil {
		return Ref{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Ref{}, errors.Wrap(errors.ErrStoreClosed, "put")
	}

	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM artifacts WHERE variant_id = ? AND key = ?",
		variantID, key,
	).Scan(&n)
	if err != nil {
		return Ref{}, errors.Wrap(err, "check artifact key")
	}
	if n > 0 {
		return Ref{}, conflictErr(variantID, key)
	}

	_, err = s.db.Exec(
		"INSERT INTO artifacts(variant_id, key, data, created_at) VALUES(?, ?, ?, ?)",
		variantID, key, data, nowUTC(),
	)
	if err != nil {
		return Ref{}, errors.Wrap(err, "insert artifact")
	}
	return Ref{Variant: variantID, Key: key}, nil
}

// Get returns the blob stored under (variant, key).
func (s *SQLStore) Get(variantID, key string) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM artifacts WHERE variant_id = ? AND key = ?",
		variantID, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrArtifactNotFound, "%s/%s", variantID, key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get artifact")
	}
	return data, nil
}

// Keys returns the sorted keys of the variant's namespace.
func (s *SQLStore) Keys(variantID string) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT key FROM artifacts WHERE variant_id = ? ORDER BY key", variantID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list artifact keys")
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "scan artifact key")
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list artifact keys")
	}
	return keys, nil
}

// List returns the sorted refs of the variant's namespace.
func (s *SQLStore) List(variantID string) ([]Ref, error) {
	keys, err := s.Keys(variantID)
	if err != nil {
		return nil, err
	}
	return listRefs(variantID, keys), nil
}

// Variants returns the sorted namespaces holding at least one artifact.
func (s *SQLStore) Variants() ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT DISTINCT variant_id FROM artifacts ORDER BY variant_id",
	)
	if err != nil {
		return nil, errors.Wrap(err, "list variants")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan variant id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list variants")
	}
	return ids, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLStore) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.Wrap(errors.ErrStoreClosed, "sqlite")
	}
	return nil
}
