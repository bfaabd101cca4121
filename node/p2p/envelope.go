package p2p

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"unicode"

	"github.com/joerlop/block-explorer-test/crypto"
	"github.com/joerlop/block-explorer-test/script"
)

const (
	// TransportPrefixBytes is the fixed header length for every P2P message.
	TransportPrefixBytes = 24
	CommandBytes         = 12

	// MaxPayloadBytes bounds the payload length accepted from a peer.
	MaxPayloadBytes = 32 << 20
)

// Magic identifies the network an envelope belongs to. It is written to the
// wire big-endian, so MagicMainnet appears as f9 be b4 d9.
type Magic uint32

const (
	MagicMainnet Magic = 0xF9BEB4D9
	MagicTestnet Magic = 0x0B110907
)

func NetworkMagic(net script.Network) Magic {
	if net == script.Testnet {
		return MagicTestnet
	}
	return MagicMainnet
}

func (m Magic) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(m))
	return hex.EncodeToString(b[:])
}

var (
	ErrMagicMismatch    = errors.New("magic mismatch")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrTruncated        = errors.New("truncated message")
	ErrConnectionClosed = errors.New("connection closed")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrBadCommand       = errors.New("bad command")
)

// FramingError reports an envelope that could not be read or written. Kind is
// one of the Err* sentinels above; Err carries the underlying I/O error, if any.
// Framing errors are fatal to the connection.
type FramingError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *FramingError) Error() string {
	msg := "p2p: " + e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FramingError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func framingErr(kind error, format string, args ...any) *FramingError {
	return &FramingError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

type Envelope struct {
	Magic   Magic
	Command string
	Payload []byte
}

func (e *Envelope) String() string {
	return fmt.Sprintf("%s: %x", e.Command, e.Payload)
}

func checksum4(payload []byte) [4]byte {
	var out [4]byte
	copy(out[:], crypto.Hash256(payload)[:4])
	return out
}

func encodeCommand(cmd string) ([CommandBytes]byte, error) {
	var out [CommandBytes]byte
	if cmd == "" {
		return out, framingErr(ErrBadCommand, "empty command")
	}
	if len(cmd) > CommandBytes {
		return out, framingErr(ErrBadCommand, "command %q too long", cmd)
	}
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		if c >= 0x80 || c == 0x00 || !unicode.IsPrint(rune(c)) {
			return out, framingErr(ErrBadCommand, "command contains non-printable ASCII")
		}
		out[i] = c
	}
	return out, nil
}

func decodeCommand(b [CommandBytes]byte) (string, error) {
	// Find first NUL; after that all bytes must be NUL (right padding).
	n := CommandBytes
	for i := 0; i < CommandBytes; i++ {
		if b[i] == 0x00 {
			n = i
			break
		}
	}
	for i := n; i < CommandBytes; i++ {
		if b[i] != 0x00 {
			return "", framingErr(ErrBadCommand, "command not NUL-right-padded")
		}
	}
	cmd := string(b[:n])
	if cmd == "" {
		return "", framingErr(ErrBadCommand, "empty command")
	}
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		if c >= 0x80 || !unicode.IsPrint(rune(c)) {
			return "", framingErr(ErrBadCommand, "command contains non-printable ASCII")
		}
	}
	return cmd, nil
}

// Bytes returns the wire encoding: magic, padded command, payload length,
// checksum and payload.
func (e *Envelope) Bytes() ([]byte, error) {
	cmd12, err := encodeCommand(e.Command)
	if err != nil {
		return nil, err
	}
	if len(e.Payload) > MaxPayloadBytes {
		return nil, framingErr(ErrPayloadTooLarge, "%d bytes", len(e.Payload))
	}
	c4 := checksum4(e.Payload)

	out := make([]byte, TransportPrefixBytes, TransportPrefixBytes+len(e.Payload))
	binary.BigEndian.PutUint32(out[0:4], uint32(e.Magic))
	copy(out[4:16], cmd12[:])
	binary.LittleEndian.PutUint32(out[16:20], uint32(len(e.Payload)))
	copy(out[20:24], c4[:])
	return append(out, e.Payload...), nil
}

// WriteEnvelope writes a single envelope to w.
func WriteEnvelope(w io.Writer, env *Envelope) error {
	b, err := env.Bytes()
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return &FramingError{Kind: ErrConnectionClosed, Detail: "write " + env.Command, Err: err}
	}
	return nil
}

// ReadEnvelope reads exactly one envelope from r. The magic is checked before
// the rest of the header is consumed. A read that fails before the first byte
// reports ErrConnectionClosed; a failure anywhere later reports ErrTruncated.
func ReadEnvelope(r io.Reader, magic Magic) (*Envelope, error) {
	var hdr [TransportPrefixBytes]byte
	if n, err := io.ReadFull(r, hdr[0:4]); err != nil {
		if n == 0 {
			return nil, &FramingError{Kind: ErrConnectionClosed, Err: err}
		}
		return nil, readErr(err, "magic")
	}
	got := Magic(binary.BigEndian.Uint32(hdr[0:4]))
	if got != magic {
		return nil, framingErr(ErrMagicMismatch, "got %s, want %s", got, magic)
	}
	if _, err := io.ReadFull(r, hdr[4:]); err != nil {
		return nil, readErr(err, "header")
	}

	var cmdBytes [CommandBytes]byte
	copy(cmdBytes[:], hdr[4:16])
	cmd, err := decodeCommand(cmdBytes)
	if err != nil {
		return nil, err
	}

	payloadLen := binary.LittleEndian.Uint32(hdr[16:20])
	if payloadLen > MaxPayloadBytes {
		return nil, framingErr(ErrPayloadTooLarge, "%s: %d bytes", cmd, payloadLen)
	}

	payload := make([]byte, int(payloadLen))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, readErr(err, cmd+" payload")
	}

	c4 := checksum4(payload)
	if !bytes.Equal(hdr[20:24], c4[:]) {
		return nil, framingErr(ErrChecksumMismatch, "%s: got %x, want %x", cmd, hdr[20:24], c4[:])
	}

	return &Envelope{Magic: got, Command: cmd, Payload: payload}, nil
}

// readErr classifies a read failure after the first byte of an envelope.
func readErr(err error, what string) *FramingError {
	if errors.Is(err, net.ErrClosed) {
		return &FramingError{Kind: ErrConnectionClosed, Detail: what, Err: err}
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &FramingError{Kind: ErrTruncated, Detail: what, Err: err}
}
