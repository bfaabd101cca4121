package p2p

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/consensus"
)

// ChainContinuityError reports the first header in a batch that does not
// extend the chain. Err is consensus.BLOCK_ERR_LINKAGE_INVALID or
// consensus.BLOCK_ERR_POW_INVALID.
type ChainContinuityError struct {
	Index int
	Hash  chainhash.Hash
	Prev  chainhash.Hash
	Want  chainhash.Hash
	Err   error
}

func (e *ChainContinuityError) Error() string {
	if e.Err == consensus.BLOCK_ERR_LINKAGE_INVALID {
		return fmt.Sprintf("p2p: header %d (%s): prev_block %s, want %s: %v", e.Index, e.Hash, e.Prev, e.Want, e.Err)
	}
	return fmt.Sprintf("p2p: header %d (%s): %v", e.Index, e.Hash, e.Err)
}

func (e *ChainContinuityError) Unwrap() error { return e.Err }

// ValidateHeaders checks that headers form a chain starting at tip and that
// each header meets its own proof-of-work target. Difficulty retargeting and
// timestamps are not checked.
func ValidateHeaders(tip chainhash.Hash, headers []consensus.BlockHeader) error {
	prev := tip
	for i, h := range headers {
		hash := h.Hash()
		if h.PrevBlock != prev {
			return &ChainContinuityError{
				Index: i,
				Hash:  hash,
				Prev:  h.PrevBlock,
				Want:  prev,
				Err:   consensus.BLOCK_ERR_LINKAGE_INVALID,
			}
		}
		if !h.CheckPOW() {
			return &ChainContinuityError{Index: i, Hash: hash, Prev: h.PrevBlock, Want: prev, Err: consensus.BLOCK_ERR_POW_INVALID}
		}
		prev = hash
	}
	return nil
}
