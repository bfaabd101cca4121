package consensus

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BitsToTarget expands the compact target: coefficient * 256^(exponent-3).
func BitsToTarget(bits [4]byte) *big.Int {
	exp := int(bits[3])
	coef := new(big.Int).SetUint64(LittleEndianToUint(bits[:3]))
	if exp >= 3 {
		return coef.Lsh(coef, uint(8*(exp-3)))
	}
	return coef.Rsh(coef, uint(8*(3-exp)))
}

// TargetToBits is the inverse of BitsToTarget, truncating the target to a
// three byte coefficient.
func TargetToBits(target *big.Int) [4]byte {
	var bits [4]byte
	raw := target.Bytes()
	if len(raw) == 0 {
		return bits
	}
	var coef []byte
	exp := len(raw)
	if raw[0] > 0x7f {
		exp++
		coef = append([]byte{0x00}, raw...)
	} else {
		coef = raw
	}
	for len(coef) < 3 {
		coef = append(coef, 0x00)
	}
	bits[0], bits[1], bits[2] = coef[2], coef[1], coef[0]
	bits[3] = byte(exp)
	return bits
}

// hashToInt reads a hash as the little-endian number compared to the target.
func hashToInt(h chainhash.Hash) *big.Int {
	var be [chainhash.HashSize]byte
	for i := range h {
		be[chainhash.HashSize-1-i] = h[i]
	}
	return new(big.Int).SetBytes(be[:])
}

func (h BlockHeader) Target() *big.Int {
	return BitsToTarget(h.Bits)
}

// CheckPOW reports whether the header hash is below its target.
func (h BlockHeader) CheckPOW() bool {
	return hashToInt(h.Hash()).Cmp(h.Target()) < 0
}

var lowestBits = [4]byte{0xff, 0xff, 0x00, 0x1d}

// Difficulty is the lowest-difficulty target divided by the header target.
func (h BlockHeader) Difficulty() *big.Float {
	target := h.Target()
	if target.Sign() == 0 {
		return new(big.Float).SetInf(false)
	}
	num := new(big.Float).SetInt(BitsToTarget(lowestBits))
	return num.Quo(num, new(big.Float).SetInt(target))
}
