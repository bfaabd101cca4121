package p2p

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

type State int

const (
	StateConnected State = iota
	StateVersionSent
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateVersionSent:
		return "version_sent"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type PeerConfig struct {
	Magic Magic

	// StartHeight and UserAgent are announced in our version message.
	StartHeight int32
	UserAgent   string

	// ReadTimeout, if non-zero, sets a read deadline per message to avoid stuck connections.
	ReadTimeout time.Duration

	Logger *slog.Logger
}

// Peer is a single outbound connection. It is not safe for concurrent use.
type Peer struct {
	conn  net.Conn
	cfg   PeerConfig
	state State
	log   *slog.Logger

	// PeerVersion is the remote version message, set by Handshake.
	PeerVersion *VersionMessage
}

func NewPeer(conn net.Conn, cfg PeerConfig) (*Peer, error) {
	if conn == nil {
		return nil, fmt.Errorf("p2p: peer: nil conn")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Peer{
		conn:  conn,
		cfg:   cfg,
		state: StateConnected,
		log:   log.With("peer", conn.RemoteAddr().String()),
	}, nil
}

// Dial opens a TCP connection to addr. The handshake is left to the caller.
func Dial(ctx context.Context, addr string, cfg PeerConfig) (*Peer, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("p2p: dial %s: %w", addr, err)
	}
	p, err := NewPeer(conn, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.log.Debug("p2p: connected")
	return p, nil
}

func (p *Peer) State() State { return p.state }

func (p *Peer) Close() error { return p.conn.Close() }

func (p *Peer) fail(err error) error {
	p.state = StateFailed
	return err
}

// WatchContext closes the connection when ctx is done so that a blocked read
// returns. The returned func stops the watcher.
func (p *Peer) WatchContext(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = p.conn.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (p *Peer) Send(m Message) error {
	env, err := NewEnvelope(p.cfg.Magic, m)
	if err != nil {
		return err
	}
	p.log.Debug("p2p: send", "command", env.Command, "bytes", len(env.Payload))
	if err := WriteEnvelope(p.conn, env); err != nil {
		return p.fail(err)
	}
	return nil
}

// Read reads the next envelope, applying ReadTimeout if configured.
func (p *Peer) Read() (*Envelope, error) {
	var deadline time.Time
	if p.cfg.ReadTimeout > 0 {
		deadline = time.Now().Add(p.cfg.ReadTimeout)
	}
	return p.read(deadline)
}

func (p *Peer) read(deadline time.Time) (*Envelope, error) {
	_ = p.conn.SetReadDeadline(deadline)
	env, err := ReadEnvelope(p.conn, p.cfg.Magic)
	if err != nil {
		return nil, p.fail(err)
	}
	p.log.Debug("p2p: recv", "command", env.Command, "bytes", len(env.Payload))
	return env, nil
}

// WaitFor reads until an envelope with one of cmds arrives and returns it
// decoded. A version is answered with verack and a ping with pong on the way.
func (p *Peer) WaitFor(cmds ...string) (Message, error) {
	if len(cmds) == 0 {
		return nil, fmt.Errorf("p2p: wait_for: no commands")
	}
	want := make(map[string]struct{}, len(cmds))
	for _, c := range cmds {
		want[c] = struct{}{}
	}
	for {
		env, err := p.Read()
		if err != nil {
			return nil, err
		}
		switch env.Command {
		case CmdVersion:
			if err := p.Send(&VerAckMessage{}); err != nil {
				return nil, err
			}
		case CmdPing:
			if err := p.pong(env); err != nil {
				return nil, err
			}
		}
		if _, ok := want[env.Command]; ok {
			return DecodeMessage(env)
		}
	}
}

// pong echoes the ping payload verbatim.
func (p *Peer) pong(ping *Envelope) error {
	return p.Send(&GenericMessage{Cmd: CmdPong, Payload: ping.Payload})
}
