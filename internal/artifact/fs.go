package artifact

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sweeplab/sweep/internal/errors"
)

// FSStore keeps artifacts as plain files, one directory per variant:
//
//	<root>/<variantID>/<key>
//
// The layout is the run's durable output. Reports, the isolation monitor,
// and offline re-aggregation all work directly off this tree.
type FSStore struct {
	root string

	mu     sync.Mutex
	closed bool
}

// NewFSStore creates a filesystem store rooted at root, creating the
// directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "artifact root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "create artifact root")
	}
	return &FSStore{root: root}, nil
}

// Root returns the store's root directory.
func (s *FSStore) Root() string {
	return s.root
}

// Put writes data to <root>/<variant>/<key>. O_EXCL makes the write-once
// check atomic: whichever writer creates the file first wins, any other
// sees the conflict.
func (s *FSStore) Put(variantID, key string, data []byte) (Ref, error) {
	if err := validateRef(variantID, key); err != nil {
		return Ref{}, err
	}
	if err := s.check(); err != nil {
		return Ref{}, err
	}

	dir := filepath.Join(s.root, variantID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Ref{}, errors.Wrap(err, "create variant namespace")
	}

	path := filepath.Join(dir, key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Ref{}, conflictErr(variantID, key)
		}
		return Ref{}, errors.Wrap(err, "create artifact file")
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return Ref{}, errors.Wrap(err, "write artifact file")
	}
	if err := f.Close(); err != nil {
		return Ref{}, errors.Wrap(err, "close artifact file")
	}
	return Ref{Variant: variantID, Key: key}, nil
}

// Get reads <root>/<variant>/<key>.
func (s *FSStore) Get(variantID, key string) ([]byte, error) {
	if err := validateRef(variantID, key); err != nil {
		return nil, err
	}
	if err := s.check(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, variantID, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(errors.ErrArtifactNotFound, "%s/%s", variantID, key)
		}
		return nil, errors.Wrap(err, "read artifact file")
	}
	return data, nil
}

// Keys lists the files in the variant's directory. ReadDir returns
// entries sorted by name, which is the ordering the store promises.
func (s *FSStore) Keys(variantID string) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.root, variantID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errors.Wrap(err, "read variant namespace")
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		keys = append(keys, e.Name())
	}
	return keys, nil
}

// List returns the sorted refs of the variant's namespace.
func (s *FSStore) List(variantID string) ([]Ref, error) {
	keys, err := s.Keys(variantID)
	if err != nil {
		return nil, err
	}
	return listRefs(variantID, keys), nil
}

// Variants lists the variant directories under the root that hold at
// least one artifact.
func (s *FSStore) Variants() ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "read artifact root")
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		keys, err := s.Keys(e.Name())
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Close marks the store closed. Files written so far stay on disk.
func (s *FSStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FSStore) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.Wrap(errors.ErrStoreClosed, s.root)
	}
	return nil
}
