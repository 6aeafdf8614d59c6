package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sweeplab/sweep/internal/errors"
)

// backends lists one constructor per Store implementation so every
// invariant test runs against all of them.
func backends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"mem": func(t *testing.T) Store {
			t.Helper()
			return NewMemStore()
		},
		"fs": func(t *testing.T) Store {
			t.Helper()
			s, err := NewFSStore(t.TempDir())
			if err != nil {
				t.Fatalf("NewFSStore: %v", err)
			}
			return s
		},
		"sqlite": func(t *testing.T) Store {
			t.Helper()
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "artifacts.db"))
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return s
		},
	}
}

func TestStorePutGet(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			ref, err := s.Put("sev-10", "metrics.json", []byte(`{"accuracy": 0.91}`))
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if ref.Variant != "sev-10" || ref.Key != "metrics.json" {
				t.Errorf("ref = %+v, want {sev-10 metrics.json}", ref)
			}
			if got := ref.String(); got != "sev-10/metrics.json" {
				t.Errorf("ref.String() = %q, want %q", got, "sev-10/metrics.json")
			}

			data, err := s.Get("sev-10", "metrics.json")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(data) != `{"accuracy": 0.91}` {
				t.Errorf("Get = %q, want the stored blob", data)
			}
		})
	}
}

func TestStoreWriteOnce(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			if _, err := s.Put("sev-10", "metrics.json", []byte("first")); err != nil {
				t.Fatalf("first Put: %v", err)
			}

			_, err := s.Put("sev-10", "metrics.json", []byte("second"))
			if err == nil {
				t.Fatal("second Put should fail")
			}
			if !errors.Is(err, errors.ErrKeyConflict) {
				t.Errorf("error should match ErrKeyConflict, got %v", err)
			}
			if !errors.IsFatal(err) {
				t.Errorf("double write should be a fatal consistency violation, got %v", err)
			}

			// The first write stays intact.
			data, err := s.Get("sev-10", "metrics.json")
			if err != nil {
				t.Fatalf("Get after conflict: %v", err)
			}
			if string(data) != "first" {
				t.Errorf("blob = %q, want %q", data, "first")
			}
		})
	}
}

func TestStoreNamespaceIsolation(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			if _, err := s.Put("sev-0", "metrics.json", []byte("zero")); err != nil {
				t.Fatalf("Put sev-0: %v", err)
			}
			if _, err := s.Put("sev-10", "metrics.json", []byte("ten")); err != nil {
				t.Fatalf("Put sev-10: %v", err)
			}

			zero, err := s.Get("sev-0", "metrics.json")
			if err != nil {
				t.Fatalf("Get sev-0: %v", err)
			}
			ten, err := s.Get("sev-10", "metrics.json")
			if err != nil {
				t.Fatalf("Get sev-10: %v", err)
			}
			if string(zero) != "zero" || string(ten) != "ten" {
				t.Errorf("namespaces bled: sev-0=%q sev-10=%q", zero, ten)
			}

			keys, err := s.Keys("sev-0")
			if err != nil {
				t.Fatalf("Keys sev-0: %v", err)
			}
			if len(keys) != 1 {
				t.Errorf("sev-0 keys = %v, want exactly its own write", keys)
			}
		})
	}
}

func TestStoreKeysAndList(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			// Inserted out of order; listings are sorted.
			for _, k := range []string{"model.ckpt", "accuracy.png", "metrics.json"} {
				if _, err := s.Put("sev-5", k, []byte(k)); err != nil {
					t.Fatalf("Put %s: %v", k, err)
				}
			}

			keys, err := s.Keys("sev-5")
			if err != nil {
				t.Fatalf("Keys: %v", err)
			}
			wantKeys := []string{"accuracy.png", "metrics.json", "model.ckpt"}
			if diff := cmp.Diff(wantKeys, keys); diff != "" {
				t.Errorf("Keys mismatch (-want +got):\n%s", diff)
			}

			refs, err := s.List("sev-5")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			wantRefs := []Ref{
				{Variant: "sev-5", Key: "accuracy.png"},
				{Variant: "sev-5", Key: "metrics.json"},
				{Variant: "sev-5", Key: "model.ckpt"},
			}
			if diff := cmp.Diff(wantRefs, refs); diff != "" {
				t.Errorf("List mismatch (-want +got):\n%s", diff)
			}

			empty, err := s.Keys("sev-99")
			if err != nil {
				t.Fatalf("Keys on empty namespace: %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("empty namespace keys = %v, want none", empty)
			}
		})
	}
}

func TestStoreVariants(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			for _, id := range []string{"sev-50", "sev-0", "sev-10"} {
				if _, err := s.Put(id, "metrics.json", []byte(id)); err != nil {
					t.Fatalf("Put %s: %v", id, err)
				}
			}

			ids, err := s.Variants()
			if err != nil {
				t.Fatalf("Variants: %v", err)
			}
			want := []string{"sev-0", "sev-10", "sev-50"}
			if diff := cmp.Diff(want, ids); diff != "" {
				t.Errorf("Variants mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreGetMissing(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			_, err := s.Get("sev-10", "missing.json")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, errors.ErrArtifactNotFound) {
				t.Errorf("error should match ErrArtifactNotFound, got %v", err)
			}
		})
	}
}

func TestStoreClosed(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			if _, err := s.Put("sev-10", "metrics.json", nil); !errors.Is(err, errors.ErrStoreClosed) {
				t.Errorf("Put after Close = %v, want ErrStoreClosed", err)
			}
		})
	}
}

func TestStoreInvalidRefs(t *testing.T) {
	tests := []struct {
		name    string
		variant string
		key     string
	}{
		{"empty variant", "", "metrics.json"},
		{"empty key", "sev-10", ""},
		{"key with separator", "sev-10", "plots/a.png"},
		{"traversal key", "sev-10", ".."},
		{"variant with separator", "a/b", "metrics.json"},
	}

	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					if _, err := s.Put(tt.variant, tt.key, nil); !errors.Is(err, errors.ErrInvalidInput) {
						t.Errorf("Put(%q, %q) = %v, want ErrInvalidInput", tt.variant, tt.key, err)
					}
				})
			}
		})
	}
}

func TestStoreConcurrentWriters(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			// Four variants writing eight keys each, all at once.
			var wg sync.WaitGroup
			for v := range 4 {
				variantID := fmt.Sprintf("sev-%d", v)
				wg.Go(func() {
					for k := range 8 {
						key := fmt.Sprintf("artifact-%d", k)
						if _, err := s.Put(variantID, key, []byte(variantID+key)); err != nil {
							t.Errorf("Put(%s, %s): %v", variantID, key, err)
						}
					}
				})
			}
			wg.Wait()

			for v := range 4 {
				variantID := fmt.Sprintf("sev-%d", v)
				keys, err := s.Keys(variantID)
				if err != nil {
					t.Fatalf("Keys(%s): %v", variantID, err)
				}
				if len(keys) != 8 {
					t.Errorf("%s has %d keys, want 8", variantID, len(keys))
				}
				for k := range 8 {
					key := fmt.Sprintf("artifact-%d", k)
					data, err := s.Get(variantID, key)
					if err != nil {
						t.Fatalf("Get(%s, %s): %v", variantID, key, err)
					}
					if string(data) != variantID+key {
						t.Errorf("torn read: Get(%s, %s) = %q", variantID, key, data)
					}
				}
			}
		})
	}
}

func TestFSStoreLayout(t *testing.T) {
	root := t.TempDir()
	s, err := NewFSStore(root)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	defer s.Close()

	if _, err := s.Put("sev-10", "metrics.json", []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "sev-10", "metrics.json"))
	if err != nil {
		t.Fatalf("artifact not at <root>/<variant>/<key>: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("file contents = %q, want %q", data, "{}")
	}
	if s.Root() != root {
		t.Errorf("Root() = %q, want %q", s.Root(), root)
	}
}

func TestSQLStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := s.Put("sev-10", "metrics.json", []byte("persisted")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	data, err := reopened.Get("sev-10", "metrics.json")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(data) != "persisted" {
		t.Errorf("blob = %q, want %q", data, "persisted")
	}
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		wantErr bool
	}{
		{BackendMem, false},
		{BackendFS, false},
		{BackendSQLite, false},
		{"redis", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend, dir)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, errors.ErrInvalidInput) {
					t.Errorf("error should match ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open(%s): %v", tt.backend, err)
			}
			s.Close()
		})
	}
}
