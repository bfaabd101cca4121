package p2p

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	MaxInvEntries = 50_000
)

type InvType uint32

const (
	InvTypeTx            InvType = 1
	InvTypeBlock         InvType = 2
	InvTypeFilteredBlock InvType = 3
	InvTypeCompactBlock  InvType = 4
	InvTypeWitnessTx     InvType = 0x40000001
	InvTypeWitnessBlock  InvType = 0x40000002
)

func (t InvType) String() string {
	switch t {
	case InvTypeTx:
		return "MSG_TX"
	case InvTypeBlock:
		return "MSG_BLOCK"
	case InvTypeFilteredBlock:
		return "MSG_FILTERED_BLOCK"
	case InvTypeCompactBlock:
		return "MSG_CMPCT_BLOCK"
	case InvTypeWitnessTx:
		return "MSG_WITNESS_TX"
	case InvTypeWitnessBlock:
		return "MSG_WITNESS_BLOCK"
	}
	return fmt.Sprintf("MSG_UNKNOWN(0x%08x)", uint32(t))
}

type InvVector struct {
	Type InvType
	Hash chainhash.Hash
}

// GetDataMessage requests the listed objects from a peer.
type GetDataMessage struct {
	Items []InvVector
}

func (m *GetDataMessage) Add(t InvType, h chainhash.Hash) {
	m.Items = append(m.Items, InvVector{Type: t, Hash: h})
}

func (*GetDataMessage) Command() string { return CmdGetData }

func (m *GetDataMessage) Encode() ([]byte, error) {
	return encodeInvVectors(m.Items)
}

func DecodeGetDataMessage(b []byte) (*GetDataMessage, error) {
	vecs, err := decodeInvVectors(b)
	if err != nil {
		return nil, err
	}
	return &GetDataMessage{Items: vecs}, nil
}

func encodeInvVectors(vecs []InvVector) ([]byte, error) {
	if len(vecs) > MaxInvEntries {
		return nil, fmt.Errorf("p2p: inv: too many entries")
	}
	out := make([]byte, 0, 9+len(vecs)*(4+chainhash.HashSize))
	out = appendCompactSize(out, uint64(len(vecs)))
	for _, v := range vecs {
		out = binary.LittleEndian.AppendUint32(out, uint32(v.Type))
		out = append(out, v.Hash[:]...)
	}
	return out, nil
}

func decodeInvVectors(b []byte) ([]InvVector, error) {
	countU64, used, err := readCompactSize(b)
	if err != nil {
		return nil, err
	}
	if countU64 > MaxInvEntries {
		return nil, fmt.Errorf("p2p: inv: count exceeds MaxInvEntries")
	}
	count := int(countU64)
	need := used + count*(4+chainhash.HashSize)
	if len(b) != need {
		return nil, fmt.Errorf("p2p: inv: length mismatch")
	}
	off := used
	out := make([]InvVector, 0, count)
	for i := 0; i < count; i++ {
		tp := binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		var h chainhash.Hash
		copy(h[:], b[off:off+chainhash.HashSize])
		off += chainhash.HashSize
		out = append(out, InvVector{Type: InvType(tp), Hash: h})
	}
	return out, nil
}
