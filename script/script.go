package script

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MaxElementSize is the largest single push a serialized script may carry.
const MaxElementSize = 520

var ErrMalformedScript = errors.New("script: malformed script")

// Command is one parsed script element. Push commands keep the opcode they
// were read with so re-serialization reproduces the input bytes.
type Command struct {
	Op   Opcode
	Data []byte
}

// IsData reports whether the command pushes Data rather than executing Op.
func (c Command) IsData() bool {
	return c.Op.IsPush()
}

// Op returns a non-push command.
func Op(op Opcode) Command {
	return Command{Op: op}
}

// PushData returns a data push using the smallest push opcode for data.
func PushData(data []byte) Command {
	d := append([]byte(nil), data...)
	switch n := len(d); {
	case n > 0 && n <= int(OP_PUSHBYTES_75):
		return Command{Op: Opcode(n), Data: d}
	case n <= 0xff:
		return Command{Op: OP_PUSHDATA1, Data: d}
	case n <= 0xffff:
		return Command{Op: OP_PUSHDATA2, Data: d}
	default:
		return Command{Op: OP_PUSHDATA4, Data: d}
	}
}

// Script is an ordered list of commands.
type Script []Command

// Parse decodes raw script bytes.
func Parse(b []byte) (Script, error) {
	var s Script
	for i := 0; i < len(b); {
		op := Opcode(b[i])
		i++
		var n int
		switch {
		case op > OP_0 && op <= OP_PUSHBYTES_75:
			n = int(op)
		case op == OP_PUSHDATA1:
			if i+1 > len(b) {
				return nil, fmt.Errorf("%w: truncated OP_PUSHDATA1 length", ErrMalformedScript)
			}
			n = int(b[i])
			i++
		case op == OP_PUSHDATA2:
			if i+2 > len(b) {
				return nil, fmt.Errorf("%w: truncated OP_PUSHDATA2 length", ErrMalformedScript)
			}
			n = int(binary.LittleEndian.Uint16(b[i:]))
			i += 2
		case op == OP_PUSHDATA4:
			if i+4 > len(b) {
				return nil, fmt.Errorf("%w: truncated OP_PUSHDATA4 length", ErrMalformedScript)
			}
			n64 := uint64(binary.LittleEndian.Uint32(b[i:]))
			i += 4
			if n64 > uint64(len(b)-i) {
				return nil, fmt.Errorf("%w: push of %d bytes exceeds script", ErrMalformedScript, n64)
			}
			n = int(n64)
		default:
			s = append(s, Command{Op: op})
			continue
		}
		if i+n > len(b) {
			return nil, fmt.Errorf("%w: push of %d bytes exceeds script", ErrMalformedScript, n)
		}
		s = append(s, Command{Op: op, Data: append([]byte(nil), b[i:i+n]...)})
		i += n
	}
	return s, nil
}

// MustParse is Parse for scripts known to be well formed.
func MustParse(b []byte) Script {
	s, err := Parse(b)
	if err != nil {
		panic(err)
	}
	return s
}

// Bytes serializes the script. Pushes over MaxElementSize are rejected.
func (s Script) Bytes() ([]byte, error) {
	var out []byte
	for _, c := range s {
		if !c.IsData() {
			out = append(out, byte(c.Op))
			continue
		}
		n := len(c.Data)
		if n > MaxElementSize {
			return nil, fmt.Errorf("%w: push of %d bytes", ErrMalformedScript, n)
		}
		switch c.Op {
		case OP_PUSHDATA1:
			if n > 0xff {
				return nil, fmt.Errorf("%w: OP_PUSHDATA1 with %d bytes", ErrMalformedScript, n)
			}
			out = append(out, byte(OP_PUSHDATA1), byte(n))
		case OP_PUSHDATA2:
			out = append(out, byte(OP_PUSHDATA2))
			out = binary.LittleEndian.AppendUint16(out, uint16(n))
		case OP_PUSHDATA4:
			out = append(out, byte(OP_PUSHDATA4))
			out = binary.LittleEndian.AppendUint32(out, uint32(n))
		default:
			if int(c.Op) != n {
				return nil, fmt.Errorf("%w: %s with %d bytes", ErrMalformedScript, c.Op, n)
			}
			out = append(out, byte(c.Op))
		}
		out = append(out, c.Data...)
	}
	return out, nil
}

// String disassembles the script. Pushes render as hex.
func (s Script) String() string {
	parts := make([]string, 0, len(s))
	for _, c := range s {
		if c.IsData() {
			parts = append(parts, hex.EncodeToString(c.Data))
			continue
		}
		parts = append(parts, c.Op.String())
	}
	return strings.Join(parts, " ")
}

// Disassemble parses raw and returns its text form, or the parse error text.
func Disassemble(raw []byte) string {
	s, err := Parse(raw)
	if err != nil {
		return "[error: " + err.Error() + "]"
	}
	return s.String()
}
