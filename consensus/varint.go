package consensus

import (
	"encoding/binary"
	"errors"
	"io"
)

// EncodeVarint returns the Bitcoin CompactSize encoding of n.
func EncodeVarint(n uint64) []byte {
	return AppendVarint(make([]byte, 0, 9), n)
}

func AppendVarint(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		return binary.LittleEndian.AppendUint16(dst, uint16(n))
	case n <= 0xffffffff:
		dst = append(dst, 0xfe)
		return binary.LittleEndian.AppendUint32(dst, uint32(n))
	default:
		dst = append(dst, 0xff)
		return binary.LittleEndian.AppendUint64(dst, n)
	}
}

// VarintLen is the encoded size of n.
func VarintLen(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// DecodeVarint decodes a varint at the start of b and returns the value and
// the number of bytes consumed. Non-minimal encodings are rejected.
func DecodeVarint(b []byte) (uint64, int, error) {
	if len(b) < 1 {
		return 0, 0, cerr(ERR_UNEXPECTED_EOF, "varint: empty")
	}
	var n uint64
	var size int
	switch tag := b[0]; tag {
	case 0xfd:
		size = 3
		if len(b) < size {
			return 0, 0, cerr(ERR_UNEXPECTED_EOF, "varint: truncated u16")
		}
		n = uint64(binary.LittleEndian.Uint16(b[1:]))
	case 0xfe:
		size = 5
		if len(b) < size {
			return 0, 0, cerr(ERR_UNEXPECTED_EOF, "varint: truncated u32")
		}
		n = uint64(binary.LittleEndian.Uint32(b[1:]))
	case 0xff:
		size = 9
		if len(b) < size {
			return 0, 0, cerr(ERR_UNEXPECTED_EOF, "varint: truncated u64")
		}
		n = binary.LittleEndian.Uint64(b[1:])
	default:
		return uint64(tag), 1, nil
	}
	if VarintLen(n) != size {
		return 0, 0, cerrf(ERR_VARINT_MALFORMED, "varint: non-minimal encoding of %d", n)
	}
	return n, size, nil
}

// ReadVarint reads one varint from r.
func ReadVarint(r io.Reader) (uint64, error) {
	var buf [9]byte
	if err := readFull(r, buf[:1]); err != nil {
		return 0, err
	}
	size := 1
	switch buf[0] {
	case 0xfd:
		size = 3
	case 0xfe:
		size = 5
	case 0xff:
		size = 9
	}
	if err := readFull(r, buf[1:size]); err != nil {
		return 0, err
	}
	n, _, err := DecodeVarint(buf[:size])
	return n, err
}

func readFull(r io.Reader, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if _, err := io.ReadFull(r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return cerrf(ERR_UNEXPECTED_EOF, "read %d bytes: %v", len(b), err)
		}
		return err
	}
	return nil
}
