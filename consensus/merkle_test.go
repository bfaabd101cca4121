package consensus

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/crypto"
)

func TestMerkleRootOddLevels(t *testing.T) {
	hashes := make([]chainhash.Hash, 5)
	for i := range hashes {
		hashes[i] = crypto.Hash256H([]byte{byte(i)})
	}
	root, err := MerkleRoot(hashes)
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	if got := hex.EncodeToString(root[:]); got != "f4113849d628f7c3bc91cc0ff785a6aee3ee236c1c912b28cc09c44f9f97b748" {
		t.Fatalf("root=%s", got)
	}
	parent := MerkleParent(hashes[0], hashes[1])
	if got := hex.EncodeToString(parent[:]); got != "4bbe83bc38ebe2bcc7520d234139df1c0eb9ffa51f83eab1c5129b5b906b7655" {
		t.Fatalf("parent=%s", got)
	}
	// The input slice must not be modified by odd-level duplication.
	if len(hashes) != 5 || hashes[4] != crypto.Hash256H([]byte{4}) {
		t.Fatalf("input mutated")
	}
}

func TestMerkleRootSingleAndEmpty(t *testing.T) {
	h := crypto.Hash256H([]byte("only"))
	root, err := MerkleRoot([]chainhash.Hash{h})
	if err != nil || root != h {
		t.Fatalf("single root=%s err=%v", root, err)
	}
	if _, err := MerkleRoot(nil); !errors.Is(err, BLOCK_ERR_MERKLE_INVALID) {
		t.Fatalf("got %v want BLOCK_ERR_MERKLE_INVALID", err)
	}
}
