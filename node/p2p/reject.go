package p2p

import (
	"fmt"
	"unicode/utf8"
)

const (
	MaxRejectMessageBytes = CommandBytes
	MaxRejectReasonBytes  = 111
)

// RejectMessage is the BIP61 reject notice. Data holds the optional trailing
// hash of the rejected object.
type RejectMessage struct {
	Message string
	Code    byte
	Reason  string
	Data    []byte
}

func (*RejectMessage) Command() string { return CmdReject }

func (r *RejectMessage) Error() string {
	return fmt.Sprintf("p2p: reject(%s) code=0x%02x reason=%q", r.Message, r.Code, r.Reason)
}

func (r *RejectMessage) Encode() ([]byte, error) {
	if r.Message == "" {
		return nil, fmt.Errorf("p2p: reject: empty message")
	}
	if len(r.Message) > MaxRejectMessageBytes {
		return nil, fmt.Errorf("p2p: reject: message too long")
	}
	if len(r.Reason) > MaxRejectReasonBytes {
		return nil, fmt.Errorf("p2p: reject: reason too long")
	}
	if !utf8.ValidString(r.Reason) {
		return nil, fmt.Errorf("p2p: reject: reason must be UTF-8")
	}
	out := make([]byte, 0, 1+len(r.Message)+1+1+len(r.Reason)+len(r.Data))
	out = appendCompactSize(out, uint64(len(r.Message)))
	out = append(out, r.Message...)
	out = append(out, r.Code)
	out = appendCompactSize(out, uint64(len(r.Reason)))
	out = append(out, r.Reason...)
	return append(out, r.Data...), nil
}

func DecodeRejectMessage(b []byte) (*RejectMessage, error) {
	msg, off, err := readVarString(b, MaxRejectMessageBytes, "reject: message")
	if err != nil {
		return nil, err
	}
	if len(b) < off+1 {
		return nil, fmt.Errorf("p2p: reject: truncated code")
	}
	code := b[off]
	off++
	reason, used, err := readVarString(b[off:], MaxRejectReasonBytes, "reject: reason")
	if err != nil {
		return nil, err
	}
	off += used
	if !utf8.ValidString(reason) {
		return nil, fmt.Errorf("p2p: reject: reason must be UTF-8")
	}
	r := &RejectMessage{Message: msg, Code: code, Reason: reason}
	if off < len(b) {
		r.Data = append([]byte(nil), b[off:]...)
	}
	return r, nil
}
