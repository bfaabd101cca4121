package p2p

import (
	"encoding/binary"
	"fmt"
)

type PingMessage struct {
	Nonce uint64
}

func (*PingMessage) Command() string { return CmdPing }

func (p *PingMessage) Encode() ([]byte, error) {
	return binary.LittleEndian.AppendUint64(nil, p.Nonce), nil
}

func DecodePingMessage(b []byte) (*PingMessage, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("p2p: ping: invalid payload length %d", len(b))
	}
	return &PingMessage{Nonce: binary.LittleEndian.Uint64(b)}, nil
}

type PongMessage struct {
	Nonce uint64
}

func (*PongMessage) Command() string { return CmdPong }

func (p *PongMessage) Encode() ([]byte, error) {
	return binary.LittleEndian.AppendUint64(nil, p.Nonce), nil
}

func DecodePongMessage(b []byte) (*PongMessage, error) {
	pp, err := DecodePingMessage(b)
	if err != nil {
		return nil, fmt.Errorf("p2p: pong: %w", err)
	}
	return &PongMessage{Nonce: pp.Nonce}, nil
}
