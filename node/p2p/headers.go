package p2p

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/consensus"
)

const (
	MaxHeadersPerMsg = 2_000
)

// GetHeadersMessage asks for the headers following StartBlock. It carries a
// single locator hash; a zero EndBlock asks for as many headers as the peer
// will send.
type GetHeadersMessage struct {
	Version    int32
	StartBlock chainhash.Hash
	EndBlock   chainhash.Hash
}

func NewGetHeadersMessage(start chainhash.Hash) *GetHeadersMessage {
	return &GetHeadersMessage{Version: ProtocolVersion, StartBlock: start}
}

func (*GetHeadersMessage) Command() string { return CmdGetHeaders }

func (m *GetHeadersMessage) Encode() ([]byte, error) {
	out := make([]byte, 0, 4+1+2*chainhash.HashSize)
	out = binary.LittleEndian.AppendUint32(out, uint32(m.Version))
	out = appendCompactSize(out, 1)
	out = append(out, m.StartBlock[:]...)
	return append(out, m.EndBlock[:]...), nil
}

func DecodeGetHeadersMessage(b []byte) (*GetHeadersMessage, error) {
	if len(b) < 4+1 {
		return nil, fmt.Errorf("p2p: getheaders: short payload")
	}
	count, used, err := readCompactSize(b[4:])
	if err != nil {
		return nil, err
	}
	if count != 1 {
		return nil, fmt.Errorf("p2p: getheaders: %d locator hashes, want 1", count)
	}
	off := 4 + used
	if len(b) != off+2*chainhash.HashSize {
		return nil, fmt.Errorf("p2p: getheaders: length mismatch")
	}
	m := &GetHeadersMessage{Version: int32(binary.LittleEndian.Uint32(b[:4]))}
	copy(m.StartBlock[:], b[off:off+chainhash.HashSize])
	copy(m.EndBlock[:], b[off+chainhash.HashSize:])
	return m, nil
}

// HeadersMessage is the reply to getheaders. On the wire every header is
// followed by a tx_count that must be zero.
type HeadersMessage struct {
	Headers []consensus.BlockHeader
}

func (*HeadersMessage) Command() string { return CmdHeaders }

func (m *HeadersMessage) Encode() ([]byte, error) {
	if len(m.Headers) > MaxHeadersPerMsg {
		return nil, fmt.Errorf("p2p: headers: too many headers")
	}
	out := make([]byte, 0, 3+len(m.Headers)*(consensus.BlockHeaderBytes+1))
	out = appendCompactSize(out, uint64(len(m.Headers)))
	for _, h := range m.Headers {
		out = append(out, h.Bytes()...)
		out = append(out, 0)
	}
	return out, nil
}

func DecodeHeadersMessage(b []byte) (*HeadersMessage, error) {
	count, used, err := readCompactSize(b)
	if err != nil {
		return nil, err
	}
	if count > MaxHeadersPerMsg {
		return nil, fmt.Errorf("p2p: headers: count %d exceeds %d", count, MaxHeadersPerMsg)
	}
	off := used
	out := make([]consensus.BlockHeader, 0, int(count))
	for i := 0; i < int(count); i++ {
		if len(b) < off+consensus.BlockHeaderBytes {
			return nil, fmt.Errorf("p2p: headers: truncated header %d", i)
		}
		h, err := consensus.ParseBlockHeaderBytes(b[off : off+consensus.BlockHeaderBytes])
		if err != nil {
			return nil, err
		}
		off += consensus.BlockHeaderBytes
		txCount, n, err := readCompactSize(b[off:])
		if err != nil {
			return nil, err
		}
		if txCount != 0 {
			return nil, fmt.Errorf("p2p: headers: header %d has tx_count %d", i, txCount)
		}
		off += n
		out = append(out, h)
	}
	if off != len(b) {
		return nil, fmt.Errorf("p2p: headers: trailing bytes")
	}
	return &HeadersMessage{Headers: out}, nil
}
