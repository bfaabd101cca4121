package consensus

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func readU8(b []byte, off *int) (uint8, error) {
	if *off+1 > len(b) {
		return 0, cerr(ERR_UNEXPECTED_EOF, "u8")
	}
	v := b[*off]
	*off++
	return v, nil
}

func readU32le(b []byte, off *int) (uint32, error) {
	if *off+4 > len(b) {
		return 0, cerr(ERR_UNEXPECTED_EOF, "u32le")
	}
	v := binary.LittleEndian.Uint32(b[*off : *off+4])
	*off += 4
	return v, nil
}

func readU64le(b []byte, off *int) (uint64, error) {
	if *off+8 > len(b) {
		return 0, cerr(ERR_UNEXPECTED_EOF, "u64le")
	}
	v := binary.LittleEndian.Uint64(b[*off : *off+8])
	*off += 8
	return v, nil
}

func readBytes(b []byte, off *int, n int) ([]byte, error) {
	if n < 0 {
		return nil, cerr(ERR_PARSE, "negative length")
	}
	if *off+n > len(b) {
		return nil, cerrf(ERR_UNEXPECTED_EOF, "need %d bytes, have %d", n, len(b)-*off)
	}
	v := make([]byte, n)
	copy(v, b[*off:*off+n])
	*off += n
	return v, nil
}

func readHash(b []byte, off *int) (chainhash.Hash, error) {
	var h chainhash.Hash
	if *off+chainhash.HashSize > len(b) {
		return h, cerr(ERR_UNEXPECTED_EOF, "hash")
	}
	copy(h[:], b[*off:*off+chainhash.HashSize])
	*off += chainhash.HashSize
	return h, nil
}

func readVarint(b []byte, off *int) (uint64, error) {
	n, used, err := DecodeVarint(b[*off:])
	if err != nil {
		return 0, err
	}
	*off += used
	return n, nil
}

// readCount reads a varint element count that cannot exceed the bytes left,
// given each element takes at least minSize bytes.
func readCount(b []byte, off *int, minSize int, what string) (int, error) {
	n, err := readVarint(b, off)
	if err != nil {
		return 0, err
	}
	if minSize < 1 {
		minSize = 1
	}
	if n > uint64((len(b)-*off)/minSize) {
		return 0, cerrf(ERR_UNEXPECTED_EOF, "%s count %d exceeds remaining bytes", what, n)
	}
	return int(n), nil
}

func readVarBytes(b []byte, off *int) ([]byte, error) {
	n, err := readVarint(b, off)
	if err != nil {
		return nil, err
	}
	if n > uint64(len(b)-*off) {
		return nil, cerrf(ERR_UNEXPECTED_EOF, "need %d bytes, have %d", n, len(b)-*off)
	}
	return readBytes(b, off, int(n))
}
