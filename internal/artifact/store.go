// Package artifact provides per-variant namespaced key→blob storage for
// stage outputs.
//
// Every artifact lives under exactly one variant's namespace, and every key
// is write-once within a run. Both properties are enforced by the store
// itself rather than by caller discipline: a second Put to the same
// (variant, key) fails with a consistency violation, and nothing a variant
// writes is ever visible under another variant's namespace.
//
// Three backends share the Store interface: an in-memory map for tests, a
// directory tree (<root>/<variant>/<key>) for normal runs, and a single-file
// SQLite database for runs whose artifacts should travel as one file.
package artifact

import (
	"path/filepath"
	"strings"

	"github.com/sweeplab/sweep/internal/errors"
)

// Backend names accepted by Open and the artifacts.backend config key.
const (
	BackendMem    = "mem"
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// SQLiteFileName is the database file Open creates under the artifact root
// for the sqlite backend.
const SQLiteFileName = "artifacts.db"

// Ref identifies one stored artifact: the owning variant's namespace plus
// the key within it.
type Ref struct {
	Variant string `json:"variant"`
	Key     string `json:"key"`
}

// String returns the ref as "variant/key".
func (r Ref) String() string {
	return r.Variant + "/" + r.Key
}

// Store is per-variant namespaced key→blob storage.
//
// Writes are single-writer per key by construction (only the owning
// variant's stage executor writes a key), and reads for aggregation happen
// only after every variant is terminal, so implementations need no locking
// beyond write-once enforcement. All of them are nevertheless safe for
// concurrent use, since different variants do write concurrently.
type Store interface {
	// Put stores data under the variant's namespace. The key must not
	// have been written before: a second Put for the same (variant, key)
	// fails with a ConsistencyError wrapping ErrKeyConflict.
	Put(variantID, key string, data []byte) (Ref, error)

	// Get returns the bytes stored under (variant, key), or an error
	// wrapping ErrArtifactNotFound.
	Get(variantID, key string) ([]byte, error)

	// Keys returns the keys written in the variant's namespace, sorted.
	// A namespace with no artifacts yields an empty slice, not an error.
	Keys(variantID string) ([]string, error)

	// List returns the refs in the variant's namespace, sorted by key.
	List(variantID string) ([]Ref, error)

	// Variants returns every namespace holding at least one artifact,
	// sorted.
	Variants() ([]string, error)

	// Close releases backend resources. Operations after Close fail
	// with ErrStoreClosed.
	Close() error
}

// Open constructs the named backend. The dir argument is the artifact
// root; it is ignored by the mem backend.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case BackendMem:
		return NewMemStore(), nil
	case BackendFS:
		return NewFSStore(dir)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, SQLiteFileName))
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"unknown artifact backend %q (valid: mem, fs, sqlite)", backend)
	}
}

// validateRef rejects variant IDs and keys that cannot serve as namespace
// and key across all backends. Keys become file names in the fs backend,
// so path separators and traversal names are refused everywhere to keep
// backends interchangeable.
func validateRef(variantID, key string) error {
	if variantID == "" {
		return errors.Wrap(errors.ErrInvalidInput, "variant id is empty")
	}
	if key == "" {
		return errors.Wrap(errors.ErrInvalidInput, "artifact key is empty")
	}
	for _, s := range []string{variantID, key} {
		if s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return errors.Wrapf(errors.ErrInvalidInput,
				"invalid artifact path element %q", s)
		}
	}
	return nil
}

// conflictErr builds the consistency violation for a double write.
func conflictErr(variantID, key string) error {
	return errors.NewConsistencyError("double write", errors.ErrKeyConflict).
		WithVariant(variantID).
		WithKey(key).
		WithOp("put")
}

// listRefs maps sorted keys to sorted refs for one namespace.
func listRefs(variantID string, keys []string) []Ref {
	refs := make([]Ref, len(keys))
	for i, k := range keys {
		refs[i] = Ref{Variant: variantID, Key: k}
	}
	return refs
}
