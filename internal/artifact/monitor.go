package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sweeplab/sweep/internal/event"
	"github.com/sweeplab/sweep/internal/logging"
)

// Breach records a filesystem write into the namespace of a variant that
// had already reached a terminal state. The store itself rejects such
// writes from inside the process; the monitor catches writes that bypass
// the store, e.g. a stage subprocess scribbling into another variant's
// directory.
type Breach struct {
	VariantID string
	Path      string
	At        time.Time
}

// Monitor watches a filesystem artifact root and flags writes into the
// namespaces of terminal variants. Breaches are published on the bus as
// isolation.breach events and kept for inspection after the run.
type Monitor struct {
	watcher *fsnotify.Watcher
	bus     *event.Bus
	log     *logging.Logger
	root    string

	mu       sync.RWMutex
	terminal map[string]bool
	seen     map[string]bool
	breaches []Breach

	stopCh  chan struct{}
	stopped sync.Once
}

// NewMonitor creates a monitor for the artifact root. Existing variant
// directories are watched immediately; directories created later are
// picked up from their create events.
func NewMonitor(root string, bus *event.Bus, log *logging.Logger) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		watcher:  watcher,
		bus:      bus,
		log:      log,
		root:     root,
		terminal: make(map[string]bool),
		seen:     make(map[string]bool),
		stopCh:   make(chan struct{}),
	}

	if err := watcher.Add(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = watcher.Add(filepath.Join(root, e.Name()))
		}
	}
	return m, nil
}

// Start begins processing filesystem events.
func (m *Monitor) Start() {
	go m.watchLoop()
}

// Stop stops the monitor and releases the watcher.
func (m *Monitor) Stop() {
	m.stopped.Do(func() {
		close(m.stopCh)
		_ = m.watcher.Close()
	})
}

// MarkTerminal records that the variant reached a terminal state. Any
// write event under its namespace from now on is a breach.
func (m *Monitor) MarkTerminal(variantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminal[variantID] = true
}

// Breaches returns a copy of the breaches recorded so far.
func (m *Monitor) Breaches() []Breach {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Breach, len(m.breaches))
	copy(out, m.breaches)
	return out
}

func (m *Monitor) watchLoop() {
	for {
		select {
		case <-m.stopCh:
			return

		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			m.handleEvent(ev)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn("artifact monitor error", "error", err)
		}
	}
}

func (m *Monitor) handleEvent(ev fsnotify.Event) {
	rel, err := filepath.Rel(m.root, ev.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}

	sep := string(filepath.Separator)
	variantID, _, nested := strings.Cut(rel, sep)

	// A new directory directly under the root is a variant namespace
	// appearing; watch it so writes inside it are seen.
	if !nested && ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = m.watcher.Add(ev.Name)
			return
		}
	}
	if !nested {
		// Root-level files (run.json, run.log) belong to the run, not
		// to any variant.
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.terminal[variantID] || m.seen[rel] {
		return
	}
	m.seen[rel] = true
	m.breaches = append(m.breaches, Breach{
		VariantID: variantID,
		Path:      ev.Name,
		At:        time.Now(),
	})

	m.log.Warn("write into terminal variant namespace",
		"variant_id", variantID,
		"path", ev.Name,
	)
	m.bus.Publish(event.NewIsolationBreachEvent(variantID, ev.Name))
}
