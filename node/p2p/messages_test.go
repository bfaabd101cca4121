package p2p

import (
	"bytes"
	"net"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/consensus"
)

const (
	genesisHeaderHex = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c"
	block1HeaderHex  = "010000006fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000982051fd1e4ba744bbbe680e1fee14677ba1a3c3540bf7b1cdb606e857233e0e61bc6649ffff001d01e36299"
	block2HeaderHex  = "010000004860eb18bf1b1620e37e9490fc8a427514416fd75159ab86688e9a8300000000d5fdcc541e25de1c7a5addedf24858b8bb665c9f36ef744ee42c316022c90f9bb0bc6649ffff001d08d2bd61"
	genesisCoinbase  = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"
	genesisHashHex   = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
)

func mustHeader(t *testing.T, s string) consensus.BlockHeader {
	t.Helper()
	h, err := consensus.ParseBlockHeaderBytes(mustHex(t, s))
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	return h
}

func TestDecodeVersionFixture(t *testing.T) {
	raw := mustHex(t, versionEnvelopeHex)[TransportPrefixBytes:]
	v, err := DecodeVersionMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Version != 70002 || v.Services != ServiceNodeNetwork || v.Timestamp != 1415483324 {
		t.Fatalf("fixed fields: %+v", v)
	}
	if !v.Receiver.IP.Equal(net.IPv4(198, 27, 100, 9)) || v.Receiver.Port != 8333 {
		t.Fatalf("receiver: %v:%d", v.Receiver.IP, v.Receiver.Port)
	}
	if !v.Sender.IP.Equal(net.IPv4(203, 0, 113, 192)) || v.Sender.Port != 8333 {
		t.Fatalf("sender: %v:%d", v.Sender.IP, v.Sender.Port)
	}
	if v.Nonce != 17893779652077781010 || v.UserAgent != "/Satoshi:0.9.3/" || v.StartHeight != 329167 || !v.Relay {
		t.Fatalf("tail fields: %+v", v)
	}
	if !v.HasService(ServiceNodeNetwork) || v.HasService(ServiceNodeWitness) {
		t.Fatalf("service flags")
	}
	bits := v.ServiceBits()
	if len(bits) != 64 || bits[0] != 1 || bits[3] != 0 {
		t.Fatalf("service bits: %v", bits)
	}

	out, err := v.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("re-encode mismatch:\n got %x\nwant %x", out, raw)
	}

	// Without the relay byte the message is still valid.
	v, err = DecodeVersionMessage(raw[:len(raw)-1])
	if err != nil || !v.Relay {
		t.Fatalf("missing relay byte: %v %+v", err, v)
	}
	if _, err := DecodeVersionMessage(raw[:50]); err == nil {
		t.Fatalf("expected error for truncated version")
	}
}

func TestNewVersionMessageDefaults(t *testing.T) {
	v := NewVersionMessage(7)
	if v.Version != ProtocolVersion || v.Services != 0x040d || v.StartHeight != 7 || v.Relay {
		t.Fatalf("defaults: %+v", v)
	}
	b, err := v.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeVersionMessage(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Nonce != v.Nonce || got.UserAgent != DefaultUserAgent || got.Receiver.Port != DefaultPort {
		t.Fatalf("round trip: %+v", got)
	}
	// Ports are big-endian on the wire.
	if b[4+8+8+8+16] != 0x20 || b[4+8+8+8+16+1] != 0x8d {
		t.Fatalf("receiver port bytes %x", b[44:46])
	}
}

func TestDecodeMessageTable(t *testing.T) {
	cases := []struct {
		m    Message
		want string
	}{
		{&VerAckMessage{}, CmdVerack},
		{&PingMessage{Nonce: 5}, CmdPing},
		{&PongMessage{Nonce: 6}, CmdPong},
		{NewGetHeadersMessage(chainhash.Hash{1}), CmdGetHeaders},
		{&GetDataMessage{Items: []InvVector{{Type: InvTypeBlock, Hash: chainhash.Hash{2}}}}, CmdGetData},
		{&RejectMessage{Message: CmdTx, Code: RejectDust, Reason: "dust", Data: bytes.Repeat([]byte{3}, 32)}, CmdReject},
		{&GenericMessage{Cmd: "sendheaders"}, "sendheaders"},
	}
	for _, c := range cases {
		env, err := NewEnvelope(MagicMainnet, c.m)
		if err != nil {
			t.Fatalf("%s: %v", c.want, err)
		}
		if env.Command != c.want {
			t.Fatalf("command %q, want %q", env.Command, c.want)
		}
		got, err := DecodeMessage(env)
		if err != nil {
			t.Fatalf("%s: decode: %v", c.want, err)
		}
		if got.Command() != c.want {
			t.Fatalf("decoded command %q, want %q", got.Command(), c.want)
		}
		again, err := got.Encode()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(again, env.Payload) {
			t.Fatalf("%s: payload changed: %x != %x", c.want, again, env.Payload)
		}
	}
}

func TestDecodeMessageUnknownIsGeneric(t *testing.T) {
	m, err := DecodeMessage(&Envelope{Command: "feefilter", Payload: []byte{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	g, ok := m.(*GenericMessage)
	if !ok || g.Cmd != "feefilter" || !bytes.Equal(g.Payload, []byte{1, 2}) {
		t.Fatalf("got %#v", m)
	}
}

func TestVerAckPayloadMustBeEmpty(t *testing.T) {
	if _, err := DecodeMessage(&Envelope{Command: CmdVerack, Payload: []byte{0}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRejectDecode(t *testing.T) {
	r := &RejectMessage{Message: CmdVersion, Code: RejectObsolete, Reason: "Version must be 31800 or greater"}
	b, err := r.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeRejectMessage(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Message != CmdVersion || got.Code != RejectObsolete || got.Reason != r.Reason || got.Data != nil {
		t.Fatalf("got %+v", got)
	}
	if _, err := DecodeRejectMessage(b[:3]); err == nil {
		t.Fatalf("expected truncation error")
	}
}

func TestBlockMessageGenesis(t *testing.T) {
	raw := mustHex(t, genesisHeaderHex+"01"+genesisCoinbase)
	m, err := DecodeMessage(&Envelope{Command: CmdBlock, Payload: raw})
	if err != nil {
		t.Fatal(err)
	}
	bm := m.(*BlockMessage)
	if bm.Block.Hash().String() != genesisHashHex || len(bm.Block.Txs) != 1 {
		t.Fatalf("genesis block: %s txs=%d", bm.Block.Hash(), len(bm.Block.Txs))
	}
	out, err := bm.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("block re-encode mismatch")
	}
}
