package consensus

// BytesToBitField expands each byte into eight bits, least significant first.
func BytesToBitField(b []byte) []byte {
	bits := make([]byte, 0, len(b)*8)
	for _, c := range b {
		for i := 0; i < 8; i++ {
			bits = append(bits, c&1)
			c >>= 1
		}
	}
	return bits
}

// BitFieldToBytes packs bits produced by BytesToBitField.
func BitFieldToBytes(bits []byte) ([]byte, error) {
	if len(bits)%8 != 0 {
		return nil, cerrf(ERR_PARSE, "bit field length %d is not a multiple of 8", len(bits))
	}
	out := make([]byte, len(bits)/8)
	for i, bit := range bits {
		switch bit {
		case 0:
		case 1:
			out[i/8] |= 1 << (i % 8)
		default:
			return nil, cerrf(ERR_PARSE, "bit %d has value %d", i, bit)
		}
	}
	return out, nil
}
