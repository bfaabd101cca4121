package crypto

import (
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/require"
)

func mustHexInt(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok, "bad hex int %q", s)
	return n
}

func TestFieldArithmetic(t *testing.T) {
	a := NewFieldElement(big.NewInt(17))
	b := NewFieldElement(new(big.Int).Sub(P, big.NewInt(5)))

	require.Equal(t, "c", a.Add(b).String())
	require.True(t, a.Div(a).Equal(NewFieldElement(big.NewInt(1))))
	require.True(t, a.Mul(a.Inverse()).Equal(NewFieldElement(big.NewInt(1))))
	require.True(t, a.Pow(big.NewInt(-1)).Equal(a.Inverse()))

	sq := a.Mul(a)
	root, ok := sq.Sqrt()
	require.True(t, ok)
	require.True(t, root.Mul(root).Equal(sq))
}

func TestPointGroupLaw(t *testing.T) {
	require.True(t, G.IsOnCurve())
	require.True(t, G.Add(Infinity()).Equal(G))
	require.True(t, Infinity().Add(G).Equal(G))
	require.True(t, G.Double().Equal(G.Add(G)))
	require.True(t, ScalarBaseMult(N).IsInfinity())

	neg, err := NewPoint(G.X(), new(big.Int).Sub(P, G.Y()))
	require.NoError(t, err)
	require.True(t, G.Add(neg).IsInfinity())

	two := ScalarBaseMult(big.NewInt(2))
	require.Equal(t, "c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5", hex.EncodeToString(two.X().Bytes()))
	three := ScalarBaseMult(big.NewInt(3))
	require.True(t, three.Equal(two.Add(G)))
	require.Equal(t, "f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9", hex.EncodeToString(three.X().Bytes()))

	_, err = NewPoint(big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, ErrMalformedKeyOrSignature)
}

func TestPubKeySECRoundTrip(t *testing.T) {
	for _, secret := range []int64{1, 2, 3, 5001, 0xdeadbeef} {
		priv, err := NewPrivateKey(big.NewInt(secret))
		require.NoError(t, err)
		pub := priv.PubKey()

		comp := pub.SerializeCompressed()
		require.Len(t, comp, PubKeyBytesLenCompressed)
		parsed, err := ParsePubKey(comp)
		require.NoError(t, err)
		require.True(t, parsed.Equal(pub.Point))

		uncomp := pub.SerializeUncompressed()
		require.Len(t, uncomp, PubKeyBytesLenUncompressed)
		parsed, err = ParsePubKey(uncomp)
		require.NoError(t, err)
		require.True(t, parsed.Equal(pub.Point))

		// Same encodings as btcec.
		var sb [32]byte
		big.NewInt(secret).FillBytes(sb[:])
		_, bpub := btcec.PrivKeyFromBytes(sb[:])
		require.Equal(t, bpub.SerializeCompressed(), comp)
		require.Equal(t, bpub.SerializeUncompressed(), uncomp)
	}

	require.Equal(t,
		"0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
		hex.EncodeToString((&PublicKey{Point: G}).SerializeCompressed()))
}

func TestParsePubKeyMalformed(t *testing.T) {
	bad := [][]byte{
		nil,
		{0x02},
		append([]byte{0x05}, make([]byte, 32)...),
		append([]byte{0x04}, make([]byte, 64)...),
		append([]byte{0x02}, make([]byte, 31)...),
	}
	for _, b := range bad {
		_, err := ParsePubKey(b)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrMalformedKeyOrSignature))
	}
}

func TestVerifyKnownSignature(t *testing.T) {
	z := mustHexInt(t, "bc62d4b80d9e36da29c16c5d4d9f11731f36052c72401a76c23c0fb5a9b74423")
	r := mustHexInt(t, "37206a0610995c58074999cb9767b87af4c4978db68c06e8e6e81d282047a7c6")
	s := mustHexInt(t, "8ca63759c1157ebeaec0d03cecca119fc9a75bf8e6d0fa65c841c8e2738cdaec")
	px := mustHexInt(t, "04519fac3d910ca7e7138f7013706f619fa8f033e6ec6e09370ea38cee6a7574")
	py := mustHexInt(t, "82b51eab8c27c66e26c858a079bcdf4f1ada34cec420cafc7eac1a42216fb6c4")

	pt, err := NewPoint(px, py)
	require.NoError(t, err)
	pub := &PublicKey{Point: pt}
	require.True(t, pub.Verify(z, &Signature{R: r, S: s}))
	require.False(t, pub.Verify(new(big.Int).Add(z, big.NewInt(1)), &Signature{R: r, S: s}))
}

func TestSignVerifyAgainstBtcec(t *testing.T) {
	var sb [32]byte
	secret := mustHexInt(t, "1e99423a4ed27608a15a2616a2b0e9e52ced330ac530edcc32c8ffc6a526aedd")
	secret.FillBytes(sb[:])
	bpriv, bpub := btcec.PrivKeyFromBytes(sb[:])

	priv, err := NewPrivateKey(secret)
	require.NoError(t, err)

	digest := Hash256([]byte("my message"))
	z := new(big.Int).SetBytes(digest)

	// btcec signature verifies with our engine.
	bsig := ecdsa.Sign(bpriv, digest)
	sig, err := ParseDERSignature(bsig.Serialize())
	require.NoError(t, err)
	require.True(t, priv.PubKey().Verify(z, sig))

	// Our signature verifies with btcec.
	ours := priv.Sign(z)
	parsed, err := ecdsa.ParseDERSignature(ours.Serialize())
	require.NoError(t, err)
	require.True(t, parsed.Verify(digest, bpub))

	halfN := new(big.Int).Rsh(N, 1)
	require.True(t, ours.S.Cmp(halfN) <= 0, "signature must be low-S")
}

func TestDERRoundTripAndPadding(t *testing.T) {
	sig := &Signature{
		R: mustHexInt(t, "80aa"),
		S: mustHexInt(t, "7f01"),
	}
	der := sig.Serialize()
	require.Equal(t, "300902030080aa02027f01", hex.EncodeToString(der))

	parsed, err := ParseDERSignature(der)
	require.NoError(t, err)
	require.Equal(t, 0, parsed.R.Cmp(sig.R))
	require.Equal(t, 0, parsed.S.Cmp(sig.S))
	require.Equal(t, der, parsed.Serialize())
}

func TestParseDERSignatureMalformed(t *testing.T) {
	good, err := hex.DecodeString("300902030080aa02027f01")
	require.NoError(t, err)

	cases := map[string][]byte{
		"short":          good[:4],
		"bad marker":     append([]byte{0x31}, good[1:]...),
		"bad length":     append([]byte{0x30, 0x0a}, good[2:]...),
		"bad int marker": append([]byte{0x30, 0x09, 0x03}, good[3:]...),
		"trailing":       append(append([]byte{0x30, 0x0a}, good[2:]...), 0x00),
	}
	for name, b := range cases {
		_, err := ParseDERSignature(b)
		require.ErrorIs(t, err, ErrMalformedKeyOrSignature, name)
	}
}
