package crypto

import (
	"fmt"
	"math/big"
)

const (
	PubKeyBytesLenCompressed   = 33
	PubKeyBytesLenUncompressed = 65

	pubKeyEven         = 0x02
	pubKeyOdd          = 0x03
	pubKeyUncompressed = 0x04
)

// PublicKey is a secp256k1 point that is not the point at infinity.
type PublicKey struct {
	Point
}

// ParsePubKey decodes a SEC encoded public key. The y coordinate of a compressed
// key is recovered from the curve equation, choosing the root whose parity
// matches the prefix byte.
func ParsePubKey(sec []byte) (*PublicKey, error) {
	if len(sec) == 0 {
		return nil, fmt.Errorf("%w: empty pubkey", ErrMalformedKeyOrSignature)
	}
	switch sec[0] {
	case pubKeyUncompressed:
		if len(sec) != PubKeyBytesLenUncompressed {
			return nil, fmt.Errorf("%w: uncompressed pubkey length %d", ErrMalformedKeyOrSignature, len(sec))
		}
		x := new(big.Int).SetBytes(sec[1:33])
		y := new(big.Int).SetBytes(sec[33:65])
		pt, err := NewPoint(x, y)
		if err != nil {
			return nil, err
		}
		return &PublicKey{Point: pt}, nil
	case pubKeyEven, pubKeyOdd:
		if len(sec) != PubKeyBytesLenCompressed {
			return nil, fmt.Errorf("%w: compressed pubkey length %d", ErrMalformedKeyOrSignature, len(sec))
		}
		xInt := new(big.Int).SetBytes(sec[1:])
		if xInt.Cmp(P) >= 0 {
			return nil, fmt.Errorf("%w: x out of range", ErrMalformedKeyOrSignature)
		}
		x := NewFieldElement(xInt)
		alpha := x.Mul(x).Mul(x).Add(curveB)
		beta, ok := alpha.Sqrt()
		if !ok {
			return nil, fmt.Errorf("%w: x has no point on the curve", ErrMalformedKeyOrSignature)
		}
		wantEven := sec[0] == pubKeyEven
		y := beta
		if beta.IsEven() != wantEven {
			y = NewFieldElement(new(big.Int).Sub(P, beta.value()))
		}
		return &PublicKey{Point: Point{x: x, y: y, set: true}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown pubkey prefix 0x%02x", ErrMalformedKeyOrSignature, sec[0])
	}
}

// SerializeCompressed returns the 33-byte SEC encoding.
func (k *PublicKey) SerializeCompressed() []byte {
	out := make([]byte, PubKeyBytesLenCompressed)
	if k.y.IsEven() {
		out[0] = pubKeyEven
	} else {
		out[0] = pubKeyOdd
	}
	k.x.value().FillBytes(out[1:])
	return out
}

// SerializeUncompressed returns the 65-byte SEC encoding.
func (k *PublicKey) SerializeUncompressed() []byte {
	out := make([]byte, PubKeyBytesLenUncompressed)
	out[0] = pubKeyUncompressed
	k.x.value().FillBytes(out[1:33])
	k.y.value().FillBytes(out[33:])
	return out
}

// Verify checks an ECDSA signature over the message hash z.
func (k *PublicKey) Verify(z *big.Int, sig *Signature) bool {
	if k == nil || sig == nil || k.IsInfinity() {
		return false
	}
	if sig.R.Sign() <= 0 || sig.R.Cmp(N) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(N) >= 0 {
		return false
	}
	sInv := new(big.Int).Exp(sig.S, new(big.Int).Sub(N, big.NewInt(2)), N)
	u := new(big.Int).Mul(z, sInv)
	u.Mod(u, N)
	v := new(big.Int).Mul(sig.R, sInv)
	v.Mod(v, N)
	total := ScalarBaseMult(u).Add(k.ScalarMult(v))
	if total.IsInfinity() {
		return false
	}
	rx := new(big.Int).Mod(total.x.value(), N)
	return rx.Cmp(sig.R) == 0
}
