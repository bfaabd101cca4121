package p2p

import (
	"fmt"
	"time"
)

const (
	HandshakeTimeout = 10 * time.Second
)

// Handshake sends our version and waits for the peer's version and verack.
// Pings are answered and other messages dropped while waiting; a verack that
// arrives before the peer's version is remembered. A reject, a framing error
// or a closed connection fails the peer.
func (p *Peer) Handshake() error {
	if p.state != StateConnected {
		return fmt.Errorf("p2p: handshake: peer is %s", p.state)
	}

	ours := NewVersionMessage(p.cfg.StartHeight)
	if p.cfg.UserAgent != "" {
		ours.UserAgent = p.cfg.UserAgent
	}
	if err := p.Send(ours); err != nil {
		return err
	}
	p.state = StateVersionSent

	// VERSION_SENT: expect peer version within HandshakeTimeout.
	deadline := time.Now().Add(HandshakeTimeout)
	gotVerack := false
	for p.PeerVersion == nil {
		env, err := p.read(deadline)
		if err != nil {
			return err
		}
		switch env.Command {
		case CmdVersion:
			v, err := DecodeVersionMessage(env.Payload)
			if err != nil {
				return p.fail(fmt.Errorf("p2p: handshake: %w", err))
			}
			p.PeerVersion = v
		case CmdVerack:
			gotVerack = true
		case CmdPing:
			if err := p.pong(env); err != nil {
				return err
			}
		case CmdReject:
			return p.fail(rejectErr(env))
		default:
			p.log.Debug("p2p: handshake: dropping message", "command", env.Command)
		}
	}

	if err := p.Send(&VerAckMessage{}); err != nil {
		return err
	}

	for !gotVerack {
		env, err := p.read(deadline)
		if err != nil {
			return err
		}
		switch env.Command {
		case CmdVerack:
			gotVerack = true
		case CmdVersion:
			return p.fail(fmt.Errorf("p2p: handshake: duplicate version"))
		case CmdPing:
			if err := p.pong(env); err != nil {
				return err
			}
		case CmdReject:
			return p.fail(rejectErr(env))
		default:
			p.log.Debug("p2p: handshake: dropping message", "command", env.Command)
		}
	}

	_ = p.conn.SetReadDeadline(time.Time{})
	p.state = StateReady
	p.log.Info("p2p: handshake complete",
		"version", p.PeerVersion.Version,
		"user_agent", p.PeerVersion.UserAgent,
		"start_height", p.PeerVersion.StartHeight)
	return nil
}

func rejectErr(env *Envelope) error {
	r, err := DecodeRejectMessage(env.Payload)
	if err != nil {
		return fmt.Errorf("p2p: handshake: malformed reject: %w", err)
	}
	return fmt.Errorf("p2p: handshake: %w", r)
}
