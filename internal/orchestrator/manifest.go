package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sweeplab/sweep/internal/report"
	"github.com/sweeplab/sweep/internal/variant"
)

// ManifestFileName is the manifest file written at the artifact root.
const ManifestFileName = "run.json"

// Manifest freezes everything needed to rebuild a run's report
// offline: the run identity, the report options that shaped it, and
// every variant's terminal record. sweep report re-aggregates from a
// manifest plus the artifact store next to it.
type Manifest struct {
	RunID      string         `json:"run_id"`
	Pipeline   string         `json:"pipeline"`
	SpecDigest string         `json:"spec_digest,omitempty"`
	Report     report.Options `json:"report"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Runs       []*variant.Run `json:"runs"`
}

// Write stores the manifest as run.json in dir.
func (m *Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write run manifest: %w", err)
	}
	return nil
}

// LoadManifest reads run.json from dir.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("read run manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse run manifest: %w", err)
	}
	return &m, nil
}

// DigestSpec returns the digest recorded in manifests for a pipeline
// spec document.
func DigestSpec(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
