package p2p

import (
	"fmt"

	"github.com/joerlop/block-explorer-test/consensus"
)

// BlockMessage carries one full block, header and transactions.
type BlockMessage struct {
	Block *consensus.Block
}

func (*BlockMessage) Command() string { return CmdBlock }

func (m *BlockMessage) Encode() ([]byte, error) {
	if m.Block == nil {
		return nil, fmt.Errorf("p2p: block: nil block")
	}
	return consensus.MarshalBlock(m.Block), nil
}

func DecodeBlockMessage(b []byte) (*BlockMessage, error) {
	blk, err := consensus.ParseBlockBytes(b)
	if err != nil {
		return nil, err
	}
	return &BlockMessage{Block: blk}, nil
}
