package script

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeNumVectors(t *testing.T) {
	cases := map[int64]string{
		0:      "",
		1:      "01",
		-1:     "81",
		127:    "7f",
		128:    "8000",
		-128:   "8080",
		255:    "ff00",
		256:    "0001",
		-32768: "008080",
	}
	for n, want := range cases {
		require.Equal(t, want, hex.EncodeToString(EncodeNum(n)), "n=%d", n)
	}
}

func TestNumRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 16, 127, -127, 128, -128, 1 << 20, -(1 << 20), 1<<31 - 1, -(1<<31 - 1), 1 << 40} {
		require.Equal(t, n, DecodeNum(EncodeNum(n)), "n=%d", n)
	}
	require.Empty(t, EncodeNum(0))
}

func TestAsBool(t *testing.T) {
	require.False(t, asBool(nil))
	require.False(t, asBool([]byte{0x00, 0x00}))
	require.False(t, asBool([]byte{0x00, 0x80}))
	require.True(t, asBool([]byte{0x80, 0x00}))
	require.True(t, asBool([]byte{0x01}))
}
