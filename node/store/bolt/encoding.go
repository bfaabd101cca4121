package bolt

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/consensus"
	"github.com/joerlop/block-explorer-test/node/store"
	"github.com/joerlop/block-explorer-test/script"
)

// Value layouts. These are a local persistence format, not a wire format.
//
//	block:  hash 32 | header 80 | txn_count CompactSize
//	tx:     block_id u64be | hash 32 | version u32le | locktime u32le | segwit u8
//	input:  prev_tx 32 | prev_index u32le | sequence u32le | script_sig bytes | witness bytes
//	output: index u32le | amount u64le | script_pubkey bytes | type str | address str | op_return bytes
//
// bytes and str are CompactSize length-prefixed.

func idKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, id)
}

func idOf(k []byte) uint64 {
	return binary.BigEndian.Uint64(k[:8])
}

// childKey orders child rows under their parent id.
func childKey(parent uint64, n uint32) []byte {
	return binary.BigEndian.AppendUint32(idKey(parent), n)
}

type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.b)-r.off < n {
		r.err = fmt.Errorf("%s: truncated", what)
		return nil
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u32(what string) uint32 {
	if b := r.take(4, what); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) u64(what string) uint64 {
	if b := r.take(8, what); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *reader) hash(what string) chainhash.Hash {
	var h chainhash.Hash
	if b := r.take(chainhash.HashSize, what); b != nil {
		copy(h[:], b)
	}
	return h
}

func (r *reader) varint(what string) uint64 {
	if r.err != nil {
		return 0
	}
	n, used, err := consensus.DecodeVarint(r.b[r.off:])
	if err != nil {
		r.err = fmt.Errorf("%s: %w", what, err)
		return 0
	}
	r.off += used
	return n
}

func (r *reader) bytes(what string) []byte {
	n := r.varint(what)
	if r.err == nil && n > uint64(len(r.b)-r.off) {
		r.err = fmt.Errorf("%s: length %d exceeds value", what, n)
		return nil
	}
	b := r.take(int(n), what)
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

func (r *reader) done(what string) error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.b) {
		return fmt.Errorf("%s: %d trailing bytes", what, len(r.b)-r.off)
	}
	return nil
}

func appendBytes(out, b []byte) []byte {
	out = consensus.AppendVarint(out, uint64(len(b)))
	return append(out, b...)
}

func encodeBlock(rec store.BlockRecord) []byte {
	out := make([]byte, 0, chainhash.HashSize+consensus.BlockHeaderBytes+9)
	out = append(out, rec.Hash[:]...)
	out = append(out, rec.Header().Bytes()...)
	return consensus.AppendVarint(out, rec.TxnCount)
}

func decodeBlock(b []byte) (store.BlockRecord, error) {
	r := &reader{b: b}
	hash := r.hash("block: hash")
	hdrBytes := r.take(consensus.BlockHeaderBytes, "block: header")
	count := r.varint("block: txn_count")
	if err := r.done("block"); err != nil {
		return store.BlockRecord{}, err
	}
	h, err := consensus.ParseBlockHeaderBytes(hdrBytes)
	if err != nil {
		return store.BlockRecord{}, fmt.Errorf("block: %w", err)
	}
	return store.BlockRecord{
		Hash:       hash,
		Version:    h.Version,
		PrevBlock:  h.PrevBlock,
		MerkleRoot: h.MerkleRoot,
		Timestamp:  h.Timestamp,
		Bits:       h.Bits,
		Nonce:      h.Nonce,
		TxnCount:   count,
	}, nil
}

func encodeTx(blockID uint64, rec store.TxRecord) []byte {
	out := make([]byte, 0, 8+chainhash.HashSize+4+4+1)
	out = binary.BigEndian.AppendUint64(out, blockID)
	out = append(out, rec.Hash[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(rec.Version))
	out = binary.LittleEndian.AppendUint32(out, rec.Locktime)
	if rec.Segwit {
		return append(out, 1)
	}
	return append(out, 0)
}

func decodeTx(b []byte) (uint64, store.TxRecord, error) {
	if len(b) != 8+chainhash.HashSize+4+4+1 {
		return 0, store.TxRecord{}, fmt.Errorf("tx: expected %d bytes, got %d", 8+chainhash.HashSize+4+4+1, len(b))
	}
	blockID := binary.BigEndian.Uint64(b[0:8])
	r := &reader{b: b, off: 8}
	rec := store.TxRecord{
		Hash:     r.hash("tx: hash"),
		Version:  int32(r.u32("tx: version")),
		Locktime: r.u32("tx: locktime"),
	}
	rec.Segwit = r.take(1, "tx: segwit")[0] == 1
	return blockID, rec, r.done("tx")
}

func encodeInput(rec store.InputRecord) []byte {
	out := make([]byte, 0, chainhash.HashSize+4+4+len(rec.ScriptSig)+10)
	out = append(out, rec.PrevTx[:]...)
	out = binary.LittleEndian.AppendUint32(out, rec.PrevIndex)
	out = binary.LittleEndian.AppendUint32(out, rec.Sequence)
	out = appendBytes(out, rec.ScriptSig)
	return appendBytes(out, store.MarshalWitness(rec.Witness))
}

func decodeInput(b []byte) (store.InputRecord, error) {
	r := &reader{b: b}
	rec := store.InputRecord{
		PrevTx:    r.hash("input: prev_tx"),
		PrevIndex: r.u32("input: prev_index"),
		Sequence:  r.u32("input: sequence"),
		ScriptSig: r.bytes("input: script_sig"),
	}
	witness := r.bytes("input: witness")
	if err := r.done("input"); err != nil {
		return store.InputRecord{}, err
	}
	w, err := store.UnmarshalWitness(witness)
	if err != nil {
		return store.InputRecord{}, fmt.Errorf("input: %w", err)
	}
	rec.Witness = w
	return rec, nil
}

func encodeOutput(rec store.OutputRecord) []byte {
	out := make([]byte, 0, 4+8+len(rec.ScriptPubKey)+len(rec.Address)+len(rec.OpReturnData)+16)
	out = binary.LittleEndian.AppendUint32(out, rec.Index)
	out = binary.LittleEndian.AppendUint64(out, rec.Amount)
	out = appendBytes(out, rec.ScriptPubKey)
	out = appendBytes(out, []byte(rec.OutputType))
	out = appendBytes(out, []byte(rec.Address))
	return appendBytes(out, rec.OpReturnData)
}

func decodeOutput(b []byte) (store.OutputRecord, error) {
	r := &reader{b: b}
	rec := store.OutputRecord{
		Index:        r.u32("output: index"),
		Amount:       r.u64("output: amount"),
		ScriptPubKey: r.bytes("output: script_pubkey"),
		OutputType:   script.OutputType(r.bytes("output: type")),
		Address:      string(r.bytes("output: address")),
		OpReturnData: r.bytes("output: op_return_data"),
	}
	return rec, r.done("output")
}
