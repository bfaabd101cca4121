package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joerlop/block-explorer-test/script"
)

const SchemaVersionV1 uint32 = 1

// Manifest pins a chain directory to one network and one backend so that a
// datadir is never reopened with the wrong settings.
type Manifest struct {
	SchemaVersion uint32 `json:"schema_version"`
	Network       string `json:"network"`
	Backend       string `json:"backend"`
}

func manifestPath(chainDir string) string {
	return filepath.Join(chainDir, "MANIFEST.json")
}

func ReadManifest(chainDir string) (*Manifest, error) {
	b, err := os.ReadFile(manifestPath(chainDir))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("manifest json: %w", err)
	}
	return &m, nil
}

// OpenChainDir creates the chain directory for net if needed and checks its
// manifest, writing a fresh one on first use.
func OpenChainDir(datadir string, net script.Network, backend string) (string, error) {
	if datadir == "" {
		return "", fmt.Errorf("datadir required")
	}
	chainDir := ChainDir(datadir, net)
	if err := EnsureDir(chainDir); err != nil {
		return "", err
	}
	m, err := ReadManifest(chainDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		m = &Manifest{SchemaVersion: SchemaVersionV1, Network: net.String(), Backend: backend}
		if err := WriteManifestAtomic(chainDir, m); err != nil {
			return "", err
		}
		return chainDir, nil
	case err != nil:
		return "", fmt.Errorf("read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		return "", fmt.Errorf("manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	if m.Network != net.String() {
		return "", fmt.Errorf("manifest network %q, want %q", m.Network, net)
	}
	if m.Backend != backend {
		return "", fmt.Errorf("manifest backend %q, want %q", m.Backend, backend)
	}
	return chainDir, nil
}

// WriteManifestAtomic writes MANIFEST.json as a crash-safe commit point:
// write temp -> fsync temp -> rename -> fsync dir.
func WriteManifestAtomic(chainDir string, m *Manifest) error {
	if m == nil {
		return fmt.Errorf("manifest: nil")
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest json: %w", err)
	}
	b = append(b, '\n')

	final := manifestPath(chainDir)
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) // #nosec G304 -- tmp path is derived from operator-controlled datadir.
	if err != nil {
		return fmt.Errorf("manifest open tmp: %w", err)
	}
	_, werr := f.Write(b)
	serr := f.Sync()
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("manifest write tmp: %w", werr)
	}
	if serr != nil {
		return fmt.Errorf("manifest fsync tmp: %w", serr)
	}
	if cerr != nil {
		return fmt.Errorf("manifest close tmp: %w", cerr)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("manifest rename: %w", err)
	}

	d, err := os.Open(chainDir) // #nosec G304 -- chainDir is derived from operator-controlled datadir.
	if err != nil {
		return fmt.Errorf("manifest fsync dir open: %w", err)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("manifest fsync dir: %w", err)
	}
	if err := d.Close(); err != nil {
		return fmt.Errorf("manifest fsync dir close: %w", err)
	}
	return nil
}
