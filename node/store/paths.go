package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joerlop/block-explorer-test/script"
)

// ChainDir returns the on-disk directory for a network under datadir:
//
//	datadir/chains/<network>/
func ChainDir(datadir string, net script.Network) string {
	return filepath.Join(datadir, "chains", net.String())
}

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}
