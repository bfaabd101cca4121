package p2p

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func TestGetDataEncode(t *testing.T) {
	h, err := chainhash.NewHashFromStr(genesisHashHex)
	if err != nil {
		t.Fatal(err)
	}
	var m GetDataMessage
	m.Add(InvTypeBlock, *h)
	m.Add(InvTypeWitnessBlock, *h)
	b, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	want := "02" +
		"02000000" + "6fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000" +
		"02000040" + "6fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000"
	if got := hex.EncodeToString(b); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
	got, err := DecodeGetDataMessage(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 2 || got.Items[1].Type != InvTypeWitnessBlock || got.Items[0].Hash != *h {
		t.Fatalf("got %+v", got.Items)
	}
	if _, err := DecodeGetDataMessage(b[:10]); err == nil {
		t.Fatalf("expected length mismatch")
	}
}

func TestInvTypeValues(t *testing.T) {
	cases := map[InvType]uint32{
		InvTypeTx:            1,
		InvTypeBlock:         2,
		InvTypeFilteredBlock: 3,
		InvTypeCompactBlock:  4,
		InvTypeWitnessTx:     0x40000001,
		InvTypeWitnessBlock:  0x40000002,
	}
	for typ, v := range cases {
		if uint32(typ) != v {
			t.Fatalf("%s = %d, want %d", typ, uint32(typ), v)
		}
	}
	if InvType(9).String() != "MSG_UNKNOWN(0x00000009)" {
		t.Fatalf("unknown inv type string %q", InvType(9))
	}
}
