package crypto

import (
	"fmt"
	"math/big"
)

const (
	derSequence = 0x30
	derInteger  = 0x02
)

// Signature is an ECDSA (r, s) pair.
type Signature struct {
	R *big.Int
	S *big.Int
}

// ParseDERSignature decodes a DER encoded signature without the trailing
// sighash byte.
func ParseDERSignature(b []byte) (*Signature, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("%w: der signature too short", ErrMalformedKeyOrSignature)
	}
	if b[0] != derSequence {
		return nil, fmt.Errorf("%w: bad der sequence marker", ErrMalformedKeyOrSignature)
	}
	if int(b[1])+2 != len(b) {
		return nil, fmt.Errorf("%w: bad der signature length", ErrMalformedKeyOrSignature)
	}
	off := 2
	r, used, err := parseDERInteger(b[off:])
	if err != nil {
		return nil, err
	}
	off += used
	s, used, err := parseDERInteger(b[off:])
	if err != nil {
		return nil, err
	}
	off += used
	if off != len(b) {
		return nil, fmt.Errorf("%w: trailing bytes in der signature", ErrMalformedKeyOrSignature)
	}
	return &Signature{R: r, S: s}, nil
}

func parseDERInteger(b []byte) (*big.Int, int, error) {
	if len(b) < 2 {
		return nil, 0, fmt.Errorf("%w: truncated der integer", ErrMalformedKeyOrSignature)
	}
	if b[0] != derInteger {
		return nil, 0, fmt.Errorf("%w: bad der integer marker", ErrMalformedKeyOrSignature)
	}
	n := int(b[1])
	if n == 0 || n >= 0x80 || len(b) < 2+n {
		return nil, 0, fmt.Errorf("%w: bad der integer length", ErrMalformedKeyOrSignature)
	}
	return new(big.Int).SetBytes(b[2 : 2+n]), 2 + n, nil
}

// Serialize returns the DER encoding of the signature.
func (sig *Signature) Serialize() []byte {
	rb := derIntBytes(sig.R)
	sb := derIntBytes(sig.S)
	out := make([]byte, 0, 6+len(rb)+len(sb))
	out = append(out, derSequence, byte(4+len(rb)+len(sb)))
	out = append(out, derInteger, byte(len(rb)))
	out = append(out, rb...)
	out = append(out, derInteger, byte(len(sb)))
	out = append(out, sb...)
	return out
}

func derIntBytes(n *big.Int) []byte {
	b := n.Bytes() // big-endian, leading zeros stripped
	if len(b) == 0 {
		return []byte{0x00}
	}
	if b[0]&0x80 != 0 {
		b = append([]byte{0x00}, b...)
	}
	return b
}

func (sig *Signature) String() string {
	return fmt.Sprintf("Signature(%x, %x)", sig.R, sig.S)
}
