package artifact

import (
	"slices"
	"sync"

	"github.com/sweeplab/sweep/internal/errors"
)

// MemStore keeps artifacts in process memory. It backs tests and runs
// that do not need their artifacts to outlive the process.
type MemStore struct {
	mu     sync.RWMutex
	blobs  map[string]map[string][]byte
	closed bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string]map[string][]byte)}
}

// Put stores a copy of data under (variant, key), write-once.
func (s *MemStore) Put(variantID, key string, data []byte) (Ref, error) {
	if err := validateRef(variantID, key); err != nil {
		return Ref{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Ref{}, errors.Wrap(errors.ErrStoreClosed, "put")
	}

	ns := s.blobs[variantID]
	if ns == nil {
		ns = make(map[string][]byte)
		s.blobs[variantID] = ns
	}
	if _, exists := ns[key]; exists {
		return Ref{}, conflictErr(variantID, key)
	}

	// Copy so later mutation of the caller's slice cannot alter the
	// stored blob.
	ns[key] = append([]byte(nil), data...)
	return Ref{Variant: variantID, Key: key}, nil
}

// Get returns a copy of the stored blob.
func (s *MemStore) Get(variantID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.Wrap(errors.ErrStoreClosed, "get")
	}

	data, ok := s.blobs[variantID][key]
	if !ok {
		return nil, errors.Wrapf(errors.ErrArtifactNotFound, "%s/%s", variantID, key)
	}
	return append([]byte(nil), data...), nil
}

// Keys returns the sorted keys of the variant's namespace.
func (s *MemStore) Keys(variantID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.Wrap(errors.ErrStoreClosed, "keys")
	}

	ns := s.blobs[variantID]
	keys := make([]string, 0, len(ns))
	for k := range ns {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// List returns the sorted refs of the variant's namespace.
func (s *MemStore) List(variantID string) ([]Ref, error) {
	keys, err := s.Keys(variantID)
	if err != nil {
		return nil, err
	}
	return listRefs(variantID, keys), nil
}

// Variants returns the sorted namespaces holding at least one artifact.
func (s *MemStore) Variants() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.Wrap(errors.ErrStoreClosed, "variants")
	}

	ids := make([]string, 0, len(s.blobs))
	for id, ns := range s.blobs {
		if len(ns) > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Close marks the store closed. Stored blobs are released.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.blobs = nil
	return nil
}
