package crypto

import (
	"crypto/sha1" // #nosec G505 -- OP_SHA1 is part of the script opcode set.
	"crypto/sha256"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160" // #nosec G507 -- RIPEMD160 is consensus-mandated.
)

// Hash256 returns SHA256(SHA256(b)).
func Hash256(b []byte) []byte {
	return chainhash.DoubleHashB(b)
}

// Hash256H is Hash256 returned as a chainhash.Hash (internal byte order).
func Hash256H(b []byte) chainhash.Hash {
	return chainhash.DoubleHashH(b)
}

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	return Ripemd160(Sha256(b))
}

func Sha256(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

func Ripemd160(b []byte) []byte {
	h := ripemd160.New()
	_, _ = h.Write(b)
	return h.Sum(nil)
}

func Sha1(b []byte) []byte {
	sum := sha1.Sum(b) // #nosec G401
	return sum[:]
}
