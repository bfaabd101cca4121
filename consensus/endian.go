package consensus

// LittleEndianToUint interprets up to 8 bytes as a little-endian integer.
func LittleEndianToUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// UintToLittleEndian encodes v into exactly width bytes.
func UintToLittleEndian(v uint64, width int) ([]byte, error) {
	if width < 0 || width > 8 {
		return nil, cerrf(ERR_ENCODING_OVERFLOW, "width %d out of range", width)
	}
	if width < 8 && v>>(8*uint(width)) != 0 {
		return nil, cerrf(ERR_ENCODING_OVERFLOW, "value %d does not fit in %d bytes", v, width)
	}
	out := make([]byte, width)
	for i := range out {
		out[i] = byte(v >> (8 * uint(i)))
	}
	return out, nil
}
