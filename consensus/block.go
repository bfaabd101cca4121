package consensus

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/crypto"
)

const BlockHeaderBytes = 80

type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       [4]byte
	Nonce      [4]byte
}

type Block struct {
	Header BlockHeader
	Txs    []*Tx
}

// ParseBlockHeaderBytes parses exactly BlockHeaderBytes bytes.
func ParseBlockHeaderBytes(b []byte) (BlockHeader, error) {
	if len(b) != BlockHeaderBytes {
		return BlockHeader{}, cerrf(ERR_PARSE, "block header length %d", len(b))
	}
	off := 0
	return parseBlockHeader(b, &off)
}

func parseBlockHeader(b []byte, off *int) (BlockHeader, error) {
	var h BlockHeader
	version, err := readU32le(b, off)
	if err != nil {
		return h, err
	}
	h.Version = int32(version)
	if h.PrevBlock, err = readHash(b, off); err != nil {
		return h, err
	}
	if h.MerkleRoot, err = readHash(b, off); err != nil {
		return h, err
	}
	if h.Timestamp, err = readU32le(b, off); err != nil {
		return h, err
	}
	bits, err := readBytes(b, off, 4)
	if err != nil {
		return h, err
	}
	copy(h.Bits[:], bits)
	nonce, err := readBytes(b, off, 4)
	if err != nil {
		return h, err
	}
	copy(h.Nonce[:], nonce)
	return h, nil
}

// Bytes returns the 80-byte wire encoding.
func (h BlockHeader) Bytes() []byte {
	return h.appendTo(make([]byte, 0, BlockHeaderBytes))
}

func (h BlockHeader) appendTo(out []byte) []byte {
	out = appendU32le(out, uint32(h.Version))
	out = append(out, h.PrevBlock[:]...)
	out = append(out, h.MerkleRoot[:]...)
	out = appendU32le(out, h.Timestamp)
	out = append(out, h.Bits[:]...)
	return append(out, h.Nonce[:]...)
}

// Hash is hash256 of the header. Its String form is the usual reversed hex.
func (h BlockHeader) Hash() chainhash.Hash {
	return crypto.Hash256H(h.Bytes())
}

// BIP9 reports whether the top three version bits signal BIP9 (0b001).
func (h BlockHeader) BIP9() bool {
	return uint32(h.Version)>>29 == 0b001
}

// BIP91 reports readiness signalling on bit 4.
func (h BlockHeader) BIP91() bool {
	return uint32(h.Version)>>4&1 == 1
}

// BIP141 reports segwit readiness signalling on bit 1.
func (h BlockHeader) BIP141() bool {
	return uint32(h.Version)>>1&1 == 1
}

// ParseBlockBytes parses a full block and rejects trailing bytes.
func ParseBlockBytes(b []byte) (*Block, error) {
	off := 0
	header, err := parseBlockHeader(b, &off)
	if err != nil {
		return nil, err
	}
	count, err := readCount(b, &off, 10, "transaction")
	if err != nil {
		return nil, err
	}
	blk := &Block{Header: header, Txs: make([]*Tx, 0, count)}
	for i := 0; i < count; i++ {
		tx, err := parseTx(b, &off)
		if err != nil {
			return nil, cerrf(codeOf(err), "tx %d: %v", i, err)
		}
		blk.Txs = append(blk.Txs, tx)
	}
	if off != len(b) {
		return nil, cerrf(ERR_PARSE, "%d trailing bytes after block", len(b)-off)
	}
	return blk, nil
}

// MarshalBlock serializes the header, tx count and transactions.
func MarshalBlock(blk *Block) []byte {
	out := blk.Header.appendTo(nil)
	out = AppendVarint(out, uint64(len(blk.Txs)))
	for _, tx := range blk.Txs {
		out = appendTx(out, tx, tx.Segwit)
	}
	return out
}

// Hash is the header hash.
func (blk *Block) Hash() chainhash.Hash {
	return blk.Header.Hash()
}

func codeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ERR_PARSE
}
