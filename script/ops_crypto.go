package script

import (
	"github.com/joerlop/block-explorer-test/crypto"
)

func ripemd160Of(b []byte) []byte { return crypto.Ripemd160(b) }
func sha1Of(b []byte) []byte      { return crypto.Sha1(b) }
func sha256Of(b []byte) []byte    { return crypto.Sha256(b) }
func hash160Of(b []byte) []byte   { return crypto.Hash160(b) }
func hash256Of(b []byte) []byte   { return crypto.Hash256(b) }

func opHash(h func([]byte) []byte) opFunc {
	return func(ctx *Context) bool {
		if len(ctx.Main) < 1 {
			return false
		}
		ctx.Main.push(h(ctx.Main.pop()))
		return true
	}
}

// stripHashType drops the trailing sighash byte of a script signature.
func stripHashType(sig []byte) []byte {
	if len(sig) == 0 {
		return sig
	}
	return sig[:len(sig)-1]
}

// verifyEncoded parses a SEC key and DER signature and checks the signature
// against ctx.Z. Malformed encodings count as an invalid signature.
func verifyEncoded(ctx *Context, sec, der []byte) bool {
	pub, err := crypto.ParsePubKey(sec)
	if err != nil {
		return false
	}
	sig, err := crypto.ParseDERSignature(der)
	if err != nil {
		return false
	}
	return pub.Verify(ctx.Z, sig)
}

func opCheckSig(ctx *Context) bool {
	if len(ctx.Main) < 2 {
		return false
	}
	sec := ctx.Main.pop()
	der := stripHashType(ctx.Main.pop())
	ctx.Main.push(boolNum(verifyEncoded(ctx, sec, der)))
	return true
}

func opCheckSigVerify(ctx *Context) bool {
	return opCheckSig(ctx) && opVerify(ctx)
}

// opCheckMultiSig consumes n, n keys, m, m signatures and one extra item.
// Keys are tried from the end of the key list and each key may satisfy at
// most one signature not yet matched. The result is true when exactly m
// signatures matched.
func opCheckMultiSig(ctx *Context) bool {
	n, ok := popNum(ctx)
	if !ok || n < 0 || n > 20 || int64(len(ctx.Main)) < n+1 {
		return false
	}
	keys := make([][]byte, n)
	for i := n - 1; i >= 0; i-- {
		keys[i] = ctx.Main.pop()
	}
	m, ok := popNum(ctx)
	if !ok || m < 0 || m > n || int64(len(ctx.Main)) < m+1 {
		return false
	}
	sigs := make([][]byte, m)
	for i := m - 1; i >= 0; i-- {
		sigs[i] = stripHashType(ctx.Main.pop())
	}
	// One extra item sits below the signatures.
	ctx.Main.pop()

	parsedKeys := make([]*crypto.PublicKey, 0, len(keys))
	for _, k := range keys {
		pub, err := crypto.ParsePubKey(k)
		if err != nil {
			ctx.Main.push(boolNum(false))
			return true
		}
		parsedKeys = append(parsedKeys, pub)
	}
	parsedSigs := make([]*crypto.Signature, 0, len(sigs))
	for _, s := range sigs {
		sig, err := crypto.ParseDERSignature(s)
		if err != nil {
			ctx.Main.push(boolNum(false))
			return true
		}
		parsedSigs = append(parsedSigs, sig)
	}

	matched := make([]bool, len(parsedSigs))
	count := int64(0)
	for i := len(parsedKeys) - 1; i >= 0; i-- {
		for j, sig := range parsedSigs {
			if matched[j] {
				continue
			}
			if parsedKeys[i].Verify(ctx.Z, sig) {
				matched[j] = true
				count++
				break
			}
		}
	}
	ctx.Main.push(boolNum(count == m))
	return true
}

func opCheckMultiSigVerify(ctx *Context) bool {
	return opCheckMultiSig(ctx) && opVerify(ctx)
}
