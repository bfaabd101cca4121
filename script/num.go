package script

// maxNumLen bounds numeric stack operands.
const maxNumLen = 4

// EncodeNum encodes n in the minimal little-endian form used on the stack.
// The sign is carried in the top bit of the last byte and zero is empty.
func EncodeNum(n int64) []byte {
	if n == 0 {
		return []byte{}
	}
	neg := n < 0
	var abs uint64
	if neg {
		abs = uint64(-(n + 1)) + 1
	} else {
		abs = uint64(n)
	}
	out := make([]byte, 0, 9)
	for abs > 0 {
		out = append(out, byte(abs&0xff))
		abs >>= 8
	}
	switch {
	case out[len(out)-1]&0x80 != 0:
		if neg {
			out = append(out, 0x80)
		} else {
			out = append(out, 0x00)
		}
	case neg:
		out[len(out)-1] |= 0x80
	}
	return out
}

// DecodeNum reverses EncodeNum. Callers limit b to at most 8 bytes.
func DecodeNum(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	last := len(b) - 1
	neg := b[last]&0x80 != 0
	var v uint64
	for i := last; i >= 0; i-- {
		c := b[i]
		if i == last {
			c &= 0x7f
		}
		v = v<<8 | uint64(c)
	}
	if neg {
		return -int64(v)
	}
	return int64(v)
}

// asBool reports whether b is true on the stack: any nonzero byte other than
// a lone sign bit in the last position.
func asBool(b []byte) bool {
	for i, c := range b {
		if c != 0 {
			if i == len(b)-1 && c == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

func boolNum(v bool) []byte {
	if v {
		return EncodeNum(1)
	}
	return EncodeNum(0)
}
