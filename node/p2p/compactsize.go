package p2p

import (
	"fmt"

	"github.com/joerlop/block-explorer-test/consensus"
)

func readCompactSize(b []byte) (uint64, int, error) {
	n, used, err := consensus.DecodeVarint(b)
	if err != nil {
		return 0, 0, fmt.Errorf("p2p: compactsize: %w", err)
	}
	return n, used, nil
}

func appendCompactSize(dst []byte, n uint64) []byte {
	return consensus.AppendVarint(dst, n)
}

// readVarString reads a compactsize-prefixed string of at most max bytes.
func readVarString(b []byte, max int, what string) (string, int, error) {
	n, used, err := readCompactSize(b)
	if err != nil {
		return "", 0, err
	}
	if n > uint64(max) {
		return "", 0, fmt.Errorf("p2p: %s length %d exceeds %d", what, n, max)
	}
	if uint64(len(b)-used) < n {
		return "", 0, fmt.Errorf("p2p: %s truncated", what)
	}
	end := used + int(n)
	return string(b[used:end]), end, nil
}
