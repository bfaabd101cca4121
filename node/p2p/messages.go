package p2p

import "fmt"

const (
	CmdVersion = "version"
	CmdVerack  = "verack"
	CmdReject  = "reject"

	CmdInv        = "inv"
	CmdGetData    = "getdata"
	CmdNotFound   = "notfound"
	CmdGetHeaders = "getheaders"
	CmdHeaders    = "headers"
	CmdBlock      = "block"
	CmdTx         = "tx"
	CmdPing       = "ping"
	CmdPong       = "pong"
)

// BIP61 reject codes.
const (
	RejectMalformed       = 0x01
	RejectInvalid         = 0x10
	RejectObsolete        = 0x11
	RejectDuplicate       = 0x12
	RejectNonstandard     = 0x40
	RejectDust            = 0x41
	RejectInsufficientFee = 0x42
	RejectCheckpoint      = 0x43
)

// Message is a typed payload that can be carried in an Envelope.
type Message interface {
	Command() string
	Encode() ([]byte, error)
}

type decodeFunc func(payload []byte) (Message, error)

var decoders = map[string]decodeFunc{
	CmdVersion:    func(b []byte) (Message, error) { return DecodeVersionMessage(b) },
	CmdVerack:     func(b []byte) (Message, error) { return DecodeVerAckMessage(b) },
	CmdPing:       func(b []byte) (Message, error) { return DecodePingMessage(b) },
	CmdPong:       func(b []byte) (Message, error) { return DecodePongMessage(b) },
	CmdGetHeaders: func(b []byte) (Message, error) { return DecodeGetHeadersMessage(b) },
	CmdHeaders:    func(b []byte) (Message, error) { return DecodeHeadersMessage(b) },
	CmdGetData:    func(b []byte) (Message, error) { return DecodeGetDataMessage(b) },
	CmdBlock:      func(b []byte) (Message, error) { return DecodeBlockMessage(b) },
	CmdReject:     func(b []byte) (Message, error) { return DecodeRejectMessage(b) },
}

// DecodeMessage decodes env's payload according to its command. Commands
// without a registered decoder come back as a *GenericMessage.
func DecodeMessage(env *Envelope) (Message, error) {
	dec, ok := decoders[env.Command]
	if !ok {
		return &GenericMessage{Cmd: env.Command, Payload: env.Payload}, nil
	}
	m, err := dec(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("p2p: decode %s: %w", env.Command, err)
	}
	return m, nil
}

// NewEnvelope encodes m for the network identified by magic.
func NewEnvelope(magic Magic, m Message) (*Envelope, error) {
	payload, err := m.Encode()
	if err != nil {
		return nil, fmt.Errorf("p2p: encode %s: %w", m.Command(), err)
	}
	return &Envelope{Magic: magic, Command: m.Command(), Payload: payload}, nil
}

type VerAckMessage struct{}

func (*VerAckMessage) Command() string         { return CmdVerack }
func (*VerAckMessage) Encode() ([]byte, error) { return nil, nil }

func DecodeVerAckMessage(b []byte) (*VerAckMessage, error) {
	if len(b) != 0 {
		return nil, fmt.Errorf("p2p: verack: payload must be empty")
	}
	return &VerAckMessage{}, nil
}

// GenericMessage carries any command verbatim.
type GenericMessage struct {
	Cmd     string
	Payload []byte
}

func (m *GenericMessage) Command() string         { return m.Cmd }
func (m *GenericMessage) Encode() ([]byte, error) { return m.Payload, nil }
