package p2p

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/joerlop/block-explorer-test/script"
)

const (
	verackEnvelopeHex  = "f9beb4d976657261636b000000000000000000005df6e0e2"
	versionEnvelopeHex = "f9beb4d976657273696f6e0000000000650000005f1a69d2" +
		"721101000100000000000000bc8f5e5400000000010000000000000000000000000000000000ffffc61b6409208d" +
		"010000000000000000000000000000000000ffffcb0071c0208d128035cbc97953f80f2f5361746f7368693a302e392e332fcf05050001"
)

type chunkReader struct {
	b     []byte
	step  int
	index int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.index >= len(r.b) {
		return 0, io.EOF
	}
	n := r.step
	if n <= 0 {
		n = 1
	}
	if r.index+n > len(r.b) {
		n = len(r.b) - r.index
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p[:n], r.b[r.index:r.index+n])
	r.index += n
	return n, nil
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	return b
}

func TestEmptyPayloadChecksum(t *testing.T) {
	c4 := checksum4(nil)
	if got := hex.EncodeToString(c4[:]); got != "5df6e0e2" {
		t.Fatalf("expected 5df6e0e2, got %s", got)
	}
}

func TestNetworkMagic(t *testing.T) {
	if NetworkMagic(script.Mainnet) != MagicMainnet || NetworkMagic(script.Testnet) != MagicTestnet {
		t.Fatalf("network magic mapping")
	}
	if MagicMainnet.String() != "f9beb4d9" || MagicTestnet.String() != "0b110907" {
		t.Fatalf("magic strings: %s %s", MagicMainnet, MagicTestnet)
	}
}

func TestReadEnvelopeFixtures(t *testing.T) {
	raw := mustHex(t, verackEnvelopeHex)
	env, err := ReadEnvelope(bytes.NewReader(raw), MagicMainnet)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if env.Command != CmdVerack || len(env.Payload) != 0 {
		t.Fatalf("got %s", env)
	}
	out, err := env.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("round trip: %x != %x", out, raw)
	}

	raw = mustHex(t, versionEnvelopeHex)
	env, err = ReadEnvelope(&chunkReader{b: raw, step: 7}, MagicMainnet)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if env.Command != CmdVersion || !bytes.Equal(env.Payload, raw[TransportPrefixBytes:]) {
		t.Fatalf("version envelope mismatch: %s", env)
	}
	out, err = env.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("round trip: %x != %x", out, raw)
	}
}

func TestWriteReadRoundTripPartialReads(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello")
	if err := WriteEnvelope(&buf, &Envelope{Magic: MagicTestnet, Command: "version", Payload: payload}); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}

	r := &chunkReader{b: buf.Bytes(), step: 1}
	env, err := ReadEnvelope(r, MagicTestnet)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if env.Command != "version" {
		t.Fatalf("command mismatch: %q", env.Command)
	}
	if !bytes.Equal(env.Payload, payload) {
		t.Fatalf("payload mismatch: %x != %x", env.Payload, payload)
	}
}

func TestReadEnvelopeMagicMismatch(t *testing.T) {
	raw := mustHex(t, verackEnvelopeHex)
	_, err := ReadEnvelope(bytes.NewReader(raw), MagicTestnet)
	var fe *FramingError
	if !errors.As(err, &fe) || !errors.Is(err, ErrMagicMismatch) {
		t.Fatalf("expected magic mismatch framing error, got %v", err)
	}
}

func TestReadEnvelopeChecksumMismatch(t *testing.T) {
	raw := mustHex(t, verackEnvelopeHex)
	raw[20] ^= 0xff
	_, err := ReadEnvelope(bytes.NewReader(raw), MagicMainnet)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}

func TestReadEnvelopeOversize(t *testing.T) {
	raw := mustHex(t, verackEnvelopeHex)
	raw[16], raw[17], raw[18], raw[19] = 0x01, 0x00, 0x00, 0x02 // 32 MiB + 1
	_, err := ReadEnvelope(bytes.NewReader(raw), MagicMainnet)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
}

func TestReadEnvelopeClosedAndTruncated(t *testing.T) {
	_, err := ReadEnvelope(bytes.NewReader(nil), MagicMainnet)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("expected connection closed on empty read, got %v", err)
	}

	raw := mustHex(t, versionEnvelopeHex)
	for _, n := range []int{2, 10, TransportPrefixBytes, len(raw) - 1} {
		_, err := ReadEnvelope(bytes.NewReader(raw[:n]), MagicMainnet)
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("cut at %d: expected truncated, got %v", n, err)
		}
		if errors.Is(err, ErrConnectionClosed) {
			t.Fatalf("cut at %d: truncation reported as clean close", n)
		}
	}
}

func TestCommandPadding(t *testing.T) {
	raw := mustHex(t, verackEnvelopeHex)
	raw[4+7] = 'x' // byte after the NUL terminator
	_, err := ReadEnvelope(bytes.NewReader(raw), MagicMainnet)
	if !errors.Is(err, ErrBadCommand) {
		t.Fatalf("expected bad command, got %v", err)
	}

	for _, cmd := range []string{"", "thirteenchars", "bad\x01"} {
		_, err := (&Envelope{Magic: MagicMainnet, Command: cmd}).Bytes()
		if !errors.Is(err, ErrBadCommand) {
			t.Fatalf("command %q: expected bad command, got %v", cmd, err)
		}
	}
}
