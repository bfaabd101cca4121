package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// PrivateKey holds a secret scalar in [1, N).
type PrivateKey struct {
	secret *big.Int
	pub    PublicKey
}

func NewPrivateKey(secret *big.Int) (*PrivateKey, error) {
	if secret.Sign() <= 0 || secret.Cmp(N) >= 0 {
		return nil, fmt.Errorf("crypto: secret out of range")
	}
	s := new(big.Int).Set(secret)
	return &PrivateKey{secret: s, pub: PublicKey{Point: ScalarBaseMult(s)}}, nil
}

func (k *PrivateKey) PubKey() *PublicKey {
	pub := k.pub
	return &pub
}

// Sign produces a low-S signature with an RFC 6979 nonce.
func (k *PrivateKey) Sign(z *big.Int) *Signature {
	zz := new(big.Int).Mod(z, N)
	nonce := k.deterministicK(zz)
	r := new(big.Int).Mod(ScalarBaseMult(nonce).x.value(), N)
	kInv := new(big.Int).Exp(nonce, new(big.Int).Sub(N, big.NewInt(2)), N)
	s := new(big.Int).Mul(r, k.secret)
	s.Add(s, zz)
	s.Mul(s, kInv)
	s.Mod(s, N)
	halfN := new(big.Int).Rsh(N, 1)
	if s.Cmp(halfN) > 0 {
		s.Sub(N, s)
	}
	return &Signature{R: r, S: s}
}

func (k *PrivateKey) deterministicK(z *big.Int) *big.Int {
	kb := make([]byte, 32)
	v := make([]byte, 32)
	for i := range v {
		v[i] = 0x01
	}
	var zb, sb [32]byte
	z.FillBytes(zb[:])
	k.secret.FillBytes(sb[:])

	mac := func(key []byte, parts ...[]byte) []byte {
		h := hmac.New(sha256.New, key)
		for _, p := range parts {
			_, _ = h.Write(p)
		}
		return h.Sum(nil)
	}

	kb = mac(kb, v, []byte{0x00}, sb[:], zb[:])
	v = mac(kb, v)
	kb = mac(kb, v, []byte{0x01}, sb[:], zb[:])
	v = mac(kb, v)
	for {
		v = mac(kb, v)
		candidate := new(big.Int).SetBytes(v)
		if candidate.Sign() > 0 && candidate.Cmp(N) < 0 {
			return candidate
		}
		kb = mac(kb, v, []byte{0x00})
		v = mac(kb, v)
	}
}
