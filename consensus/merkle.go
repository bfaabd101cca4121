package consensus

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/crypto"
)

// MerkleParent hashes two nodes in wire byte order.
func MerkleParent(a, b chainhash.Hash) chainhash.Hash {
	var buf [2 * chainhash.HashSize]byte
	copy(buf[:chainhash.HashSize], a[:])
	copy(buf[chainhash.HashSize:], b[:])
	return crypto.Hash256H(buf[:])
}

// MerkleParentLevel pairs adjacent nodes, duplicating the last node of an odd
// level.
func MerkleParentLevel(level []chainhash.Hash) []chainhash.Hash {
	if len(level)%2 == 1 {
		level = append(level[:len(level):len(level)], level[len(level)-1])
	}
	next := make([]chainhash.Hash, 0, len(level)/2)
	for i := 0; i < len(level); i += 2 {
		next = append(next, MerkleParent(level[i], level[i+1]))
	}
	return next
}

// MerkleRoot computes the root over txids in wire byte order.
func MerkleRoot(hashes []chainhash.Hash) (chainhash.Hash, error) {
	if len(hashes) == 0 {
		return chainhash.Hash{}, cerr(BLOCK_ERR_MERKLE_INVALID, "empty tx list")
	}
	level := hashes
	for len(level) > 1 {
		level = MerkleParentLevel(level)
	}
	return level[0], nil
}

// ValidateMerkleRoot recomputes the root from the block's transactions.
func (blk *Block) ValidateMerkleRoot() error {
	ids := make([]chainhash.Hash, len(blk.Txs))
	for i, tx := range blk.Txs {
		ids[i] = tx.ID()
	}
	root, err := MerkleRoot(ids)
	if err != nil {
		return err
	}
	if root != blk.Header.MerkleRoot {
		return cerrf(BLOCK_ERR_MERKLE_INVALID, "computed %s, header has %s", root, blk.Header.MerkleRoot)
	}
	return nil
}
