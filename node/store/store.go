// Package store defines the persistence boundary for decoded chain data and
// the record types shared by its backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/consensus"
	"github.com/joerlop/block-explorer-test/script"
)

// ErrDuplicateBlock is returned by StoreBlock for a hash that is already stored.
var ErrDuplicateBlock = errors.New("store: duplicate block")

// Store persists blocks and their transactions. IDs returned by StoreBlock
// and StoreTransaction are backend-assigned and only meaningful to the same
// backend.
type Store interface {
	StoreBlock(ctx context.Context, b BlockRecord) (int64, error)
	StoreTransaction(ctx context.Context, blockID int64, tx TxRecord) (int64, error)
	StoreInput(ctx context.Context, txID int64, in InputRecord) error
	StoreOutput(ctx context.Context, txID int64, out OutputRecord) error
	// LatestBlockHash reports the hash of the most recently stored block.
	LatestBlockHash(ctx context.Context) (chainhash.Hash, bool, error)
	Close() error
}

// OutputLookup is implemented by backends that can resolve a previously
// stored output, which script verification needs for later spends.
type OutputLookup interface {
	LookupOutput(ctx context.Context, txid chainhash.Hash, index uint32) (consensus.TxOutput, bool, error)
}

// BlockWriter is implemented by backends that commit a block and all of its
// rows as one unit. A failed WriteBlock leaves no rows behind and does not
// move the tip.
type BlockWriter interface {
	WriteBlock(ctx context.Context, b BlockBatch) (int64, error)
}

// BlockBatch is a block with every row derived from it, in block order.
type BlockBatch struct {
	Block BlockRecord
	Txs   []TxBatch
}

type TxBatch struct {
	Tx      TxRecord
	Inputs  []InputRecord
	Outputs []OutputRecord
}

func NewBlockBatch(blk *consensus.Block, net script.Network) BlockBatch {
	b := BlockBatch{Block: NewBlockRecord(blk), Txs: make([]TxBatch, 0, len(blk.Txs))}
	for _, tx := range blk.Txs {
		tb := TxBatch{
			Tx:      NewTxRecord(tx),
			Inputs:  make([]InputRecord, 0, len(tx.Inputs)),
			Outputs: make([]OutputRecord, 0, len(tx.Outputs)),
		}
		for _, in := range tx.Inputs {
			tb.Inputs = append(tb.Inputs, NewInputRecord(in))
		}
		for i, out := range tx.Outputs {
			tb.Outputs = append(tb.Outputs, NewOutputRecord(uint32(i), out, net))
		}
		b.Txs = append(b.Txs, tb)
	}
	return b
}

type BlockRecord struct {
	Hash       chainhash.Hash
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       [4]byte
	Nonce      [4]byte
	TxnCount   uint64
}

func (r BlockRecord) Header() consensus.BlockHeader {
	return consensus.BlockHeader{
		Version:    r.Version,
		PrevBlock:  r.PrevBlock,
		MerkleRoot: r.MerkleRoot,
		Timestamp:  r.Timestamp,
		Bits:       r.Bits,
		Nonce:      r.Nonce,
	}
}

type TxRecord struct {
	Hash     chainhash.Hash
	Version  int32
	Locktime uint32
	Segwit   bool
}

type InputRecord struct {
	PrevTx    chainhash.Hash
	PrevIndex uint32
	ScriptSig []byte
	Sequence  uint32
	Witness   [][]byte
}

// OutputRecord carries the raw script together with the values derived from
// it at ingestion time. OutputType is empty and Address is "" when the script
// matches no standard template.
type OutputRecord struct {
	Index        uint32
	OutputType   script.OutputType
	Amount       uint64
	Address      string
	ScriptPubKey []byte
	OpReturnData []byte
}

func NewBlockRecord(blk *consensus.Block) BlockRecord {
	h := blk.Header
	return BlockRecord{
		Hash:       h.Hash(),
		Version:    h.Version,
		PrevBlock:  h.PrevBlock,
		MerkleRoot: h.MerkleRoot,
		Timestamp:  h.Timestamp,
		Bits:       h.Bits,
		Nonce:      h.Nonce,
		TxnCount:   uint64(len(blk.Txs)),
	}
}

func NewTxRecord(tx *consensus.Tx) TxRecord {
	return TxRecord{Hash: tx.ID(), Version: tx.Version, Locktime: tx.Locktime, Segwit: tx.Segwit}
}

func NewInputRecord(in consensus.TxInput) InputRecord {
	return InputRecord{
		PrevTx:    in.PrevTxID,
		PrevIndex: in.PrevIndex,
		ScriptSig: in.ScriptSig,
		Sequence:  in.Sequence,
		Witness:   in.Witness,
	}
}

func NewOutputRecord(index uint32, out consensus.TxOutput, net script.Network) OutputRecord {
	rec := OutputRecord{
		Index:        index,
		OutputType:   out.Type(),
		Amount:       out.Amount,
		ScriptPubKey: out.ScriptPubKey,
	}
	if addr, ok := out.Address(net); ok {
		rec.Address = addr
	}
	if data, ok := out.OpReturnData(); ok {
		rec.OpReturnData = data
	}
	return rec
}

// SaveBlock stores blk with its transactions, inputs and outputs. Backends
// implementing BlockWriter commit the whole block at once; otherwise rows are
// stored one by one in block order, stopping at the first error.
func SaveBlock(ctx context.Context, s Store, blk *consensus.Block, net script.Network) (int64, error) {
	batch := NewBlockBatch(blk, net)
	if w, ok := s.(BlockWriter); ok {
		id, err := w.WriteBlock(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("store block %s: %w", batch.Block.Hash, err)
		}
		return id, nil
	}

	blockID, err := s.StoreBlock(ctx, batch.Block)
	if err != nil {
		return 0, fmt.Errorf("store block %s: %w", batch.Block.Hash, err)
	}
	for _, tb := range batch.Txs {
		if err := ctx.Err(); err != nil {
			return blockID, err
		}
		txID, err := s.StoreTransaction(ctx, blockID, tb.Tx)
		if err != nil {
			return blockID, fmt.Errorf("store tx %s: %w", tb.Tx.Hash, err)
		}
		for i, in := range tb.Inputs {
			if err := s.StoreInput(ctx, txID, in); err != nil {
				return blockID, fmt.Errorf("store tx %s input %d: %w", tb.Tx.Hash, i, err)
			}
		}
		for _, out := range tb.Outputs {
			if err := s.StoreOutput(ctx, txID, out); err != nil {
				return blockID, fmt.Errorf("store tx %s output %d: %w", tb.Tx.Hash, out.Index, err)
			}
		}
	}
	return blockID, nil
}

// MarshalWitness encodes a witness stack the way it appears on the wire.
// A nil or empty stack encodes to nil.
func MarshalWitness(w [][]byte) []byte {
	if len(w) == 0 {
		return nil
	}
	out := consensus.AppendVarint(nil, uint64(len(w)))
	for _, item := range w {
		out = consensus.AppendVarint(out, uint64(len(item)))
		out = append(out, item...)
	}
	return out
}

func UnmarshalWitness(b []byte) ([][]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	n, off, err := consensus.DecodeVarint(b)
	if err != nil {
		return nil, fmt.Errorf("witness count: %w", err)
	}
	if n > uint64(len(b)-off) {
		return nil, fmt.Errorf("witness count %d exceeds %d bytes", n, len(b)-off)
	}
	out := make([][]byte, 0, int(n))
	for i := 0; i < int(n); i++ {
		l, used, err := consensus.DecodeVarint(b[off:])
		if err != nil {
			return nil, fmt.Errorf("witness item %d: %w", i, err)
		}
		off += used
		if l > uint64(len(b)-off) {
			return nil, fmt.Errorf("witness item %d truncated", i)
		}
		out = append(out, append([]byte{}, b[off:off+int(l)]...))
		off += int(l)
	}
	if off != len(b) {
		return nil, fmt.Errorf("witness: %d trailing bytes", len(b)-off)
	}
	return out, nil
}
