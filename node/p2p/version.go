package p2p

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"time"
	"unicode/utf8"

	"github.com/joerlop/block-explorer-test/consensus"
)

const (
	ProtocolVersion   = 70015
	MaxUserAgentBytes = 256
	DefaultUserAgent  = "/Satoshi:0.18.1/"
	DefaultPort       = 8333
	TestnetPort       = 18333
)

// Service flags advertised in version messages.
const (
	ServiceNodeNetwork        uint64 = 1 << 0
	ServiceNodeBloom          uint64 = 1 << 2
	ServiceNodeWitness        uint64 = 1 << 3
	ServiceNodeNetworkLimited uint64 = 1 << 10

	DefaultServices = ServiceNodeNetwork | ServiceNodeBloom | ServiceNodeWitness | ServiceNodeNetworkLimited
)

const netAddressBytes = 8 + 16 + 2

// NetAddress is the version-message form of a network address: no timestamp,
// an IPv6 (or v4-mapped) address and a big-endian port.
type NetAddress struct {
	Services uint64
	IP       net.IP
	Port     uint16
}

func (a NetAddress) appendTo(out []byte) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], a.Services)
	out = append(out, tmp[:]...)
	ip16 := a.IP.To16()
	if ip16 == nil {
		ip16 = make(net.IP, net.IPv6len)
	}
	out = append(out, ip16...)
	return binary.BigEndian.AppendUint16(out, a.Port)
}

func parseNetAddress(b []byte) NetAddress {
	ip := make(net.IP, net.IPv6len)
	copy(ip, b[8:24])
	return NetAddress{
		Services: binary.LittleEndian.Uint64(b[0:8]),
		IP:       ip,
		Port:     binary.BigEndian.Uint16(b[24:26]),
	}
}

type VersionMessage struct {
	Version     int32
	Services    uint64
	Timestamp   int64
	Receiver    NetAddress
	Sender      NetAddress
	Nonce       uint64
	UserAgent   string
	StartHeight int32
	Relay       bool
}

// NewVersionMessage returns the version message this node announces: current
// time, a random nonce and the default service set.
func NewVersionMessage(startHeight int32) *VersionMessage {
	var nonce [8]byte
	_, _ = rand.Read(nonce[:])
	return &VersionMessage{
		Version:     ProtocolVersion,
		Services:    DefaultServices,
		Timestamp:   time.Now().Unix(),
		Receiver:    NetAddress{Services: DefaultServices, IP: net.IPv4zero, Port: DefaultPort},
		Sender:      NetAddress{Services: DefaultServices, IP: net.IPv4(127, 0, 0, 1), Port: DefaultPort},
		Nonce:       binary.LittleEndian.Uint64(nonce[:]),
		UserAgent:   DefaultUserAgent,
		StartHeight: startHeight,
	}
}

func (*VersionMessage) Command() string { return CmdVersion }

func (v *VersionMessage) Encode() ([]byte, error) {
	if len(v.UserAgent) > MaxUserAgentBytes {
		return nil, fmt.Errorf("p2p: version: user_agent too long")
	}
	if !utf8.ValidString(v.UserAgent) {
		return nil, fmt.Errorf("p2p: version: user_agent must be UTF-8")
	}

	out := make([]byte, 0, 4+8+8+2*netAddressBytes+8+9+len(v.UserAgent)+4+1)
	out = binary.LittleEndian.AppendUint32(out, uint32(v.Version))
	out = binary.LittleEndian.AppendUint64(out, v.Services)
	out = binary.LittleEndian.AppendUint64(out, uint64(v.Timestamp))
	out = v.Receiver.appendTo(out)
	out = v.Sender.appendTo(out)
	out = binary.LittleEndian.AppendUint64(out, v.Nonce)
	out = appendCompactSize(out, uint64(len(v.UserAgent)))
	out = append(out, v.UserAgent...)
	out = binary.LittleEndian.AppendUint32(out, uint32(v.StartHeight))
	if v.Relay {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out, nil
}

// DecodeVersionMessage parses a version payload. The trailing relay byte is
// optional (BIP37); when absent Relay is true.
func DecodeVersionMessage(b []byte) (*VersionMessage, error) {
	const fixed = 4 + 8 + 8 + 2*netAddressBytes + 8
	if len(b) < fixed+1+4 {
		return nil, fmt.Errorf("p2p: version: truncated")
	}
	v := &VersionMessage{
		Version:   int32(binary.LittleEndian.Uint32(b[0:4])),
		Services:  binary.LittleEndian.Uint64(b[4:12]),
		Timestamp: int64(binary.LittleEndian.Uint64(b[12:20])),
	}
	off := 20
	v.Receiver = parseNetAddress(b[off : off+netAddressBytes])
	off += netAddressBytes
	v.Sender = parseNetAddress(b[off : off+netAddressBytes])
	off += netAddressBytes
	v.Nonce = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8

	ua, used, err := readVarString(b[off:], MaxUserAgentBytes, "version: user_agent")
	if err != nil {
		return nil, err
	}
	off += used
	if !utf8.ValidString(ua) {
		return nil, fmt.Errorf("p2p: version: user_agent must be UTF-8")
	}
	v.UserAgent = ua

	if len(b) < off+4 {
		return nil, fmt.Errorf("p2p: version: truncated start_height")
	}
	v.StartHeight = int32(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4

	v.Relay = true
	if off < len(b) {
		switch b[off] {
		case 0:
			v.Relay = false
		case 1:
		default:
			return nil, fmt.Errorf("p2p: version: relay must be 0 or 1")
		}
		off++
	}
	if off != len(b) {
		return nil, fmt.Errorf("p2p: version: trailing bytes")
	}
	return v, nil
}

// ServiceBits returns the advertised services as a bit field, least
// significant bit first.
func (v *VersionMessage) ServiceBits() []byte {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], v.Services)
	return consensus.BytesToBitField(le[:])
}

func (v *VersionMessage) HasService(flag uint64) bool {
	return v.Services&flag == flag
}
