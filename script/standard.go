package script

import (
	"bytes"
	"fmt"
)

// OutputType names the standard form of a script_pubkey. The empty value
// means the script matched none of them.
type OutputType string

const (
	TypeUnknown  OutputType = ""
	TypeP2PK     OutputType = "P2PK"
	TypeP2PKH    OutputType = "P2PKH"
	TypeP2SH     OutputType = "P2SH"
	TypeP2WPKH   OutputType = "P2WPKH"
	TypeP2WSH    OutputType = "P2WSH"
	TypeOpReturn OutputType = "OP_RETURN"
)

func IsP2PK(s Script) bool {
	return len(s) == 2 && s[0].IsData() &&
		(len(s[0].Data) == 33 || len(s[0].Data) == 65) &&
		s[1].Op == OP_CHECKSIG
}

func IsP2PKH(s Script) bool {
	return len(s) == 5 && s[0].Op == OP_DUP && s[1].Op == OP_HASH160 &&
		s[2].IsData() && len(s[2].Data) == 20 &&
		s[3].Op == OP_EQUALVERIFY && s[4].Op == OP_CHECKSIG
}

func IsP2SH(s Script) bool {
	return len(s) == 3 && s[0].Op == OP_HASH160 &&
		s[1].IsData() && len(s[1].Data) == 20 && s[2].Op == OP_EQUAL
}

func IsP2WPKH(s Script) bool {
	return len(s) == 2 && s[0].Op == OP_0 && s[1].IsData() && len(s[1].Data) == 20
}

func IsP2WSH(s Script) bool {
	return len(s) == 2 && s[0].Op == OP_0 && s[1].IsData() && len(s[1].Data) == 32
}

func IsOpReturn(s Script) bool {
	return len(s) > 0 && s[0].Op == OP_RETURN
}

// Classify parses raw and returns its output type. Unparseable scripts that
// start with OP_RETURN are still reported as OP_RETURN.
func Classify(raw []byte) OutputType {
	s, err := Parse(raw)
	if err != nil {
		if len(raw) > 0 && Opcode(raw[0]) == OP_RETURN {
			return TypeOpReturn
		}
		return TypeUnknown
	}
	return ClassifyScript(s)
}

// ClassifyScript checks the standard forms in a fixed order.
func ClassifyScript(s Script) OutputType {
	switch {
	case IsP2PK(s):
		return TypeP2PK
	case IsP2PKH(s):
		return TypeP2PKH
	case IsP2SH(s):
		return TypeP2SH
	case IsP2WPKH(s):
		return TypeP2WPKH
	case IsP2WSH(s):
		return TypeP2WSH
	case IsOpReturn(s):
		return TypeOpReturn
	}
	return TypeUnknown
}

// OpReturnData returns the concatenated pushes following OP_RETURN.
func OpReturnData(raw []byte) ([]byte, bool) {
	if len(raw) == 0 || Opcode(raw[0]) != OP_RETURN {
		return nil, false
	}
	s, err := Parse(raw[1:])
	if err != nil {
		return append([]byte(nil), raw[1:]...), true
	}
	var buf bytes.Buffer
	for _, c := range s {
		if c.IsData() {
			buf.Write(c.Data)
		}
	}
	return buf.Bytes(), true
}

func P2PKHScript(h160 []byte) Script {
	return Script{Op(OP_DUP), Op(OP_HASH160), PushData(h160), Op(OP_EQUALVERIFY), Op(OP_CHECKSIG)}
}

func P2SHScript(h160 []byte) Script {
	return Script{Op(OP_HASH160), PushData(h160), Op(OP_EQUAL)}
}

func P2WPKHScript(h160 []byte) Script {
	return Script{Op(OP_0), PushData(h160)}
}

func P2WSHScript(s256 []byte) Script {
	return Script{Op(OP_0), PushData(s256)}
}

func P2PKScript(sec []byte) Script {
	return Script{PushData(sec), Op(OP_CHECKSIG)}
}

// MultisigScript builds m <keys...> n OP_CHECKMULTISIG.
func MultisigScript(m int, pubkeys [][]byte) (Script, error) {
	if m < 1 || m > len(pubkeys) {
		return nil, fmt.Errorf("script: invalid multisig threshold %d of %d", m, len(pubkeys))
	}
	mOp, err := SmallIntOpcode(m)
	if err != nil {
		return nil, err
	}
	nOp, err := SmallIntOpcode(len(pubkeys))
	if err != nil {
		return nil, err
	}
	s := Script{Op(mOp)}
	for _, k := range pubkeys {
		s = append(s, PushData(k))
	}
	return append(s, Op(nOp), Op(OP_CHECKMULTISIG)), nil
}
