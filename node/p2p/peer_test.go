package p2p

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/joerlop/block-explorer-test/consensus"
)

func TestWaitForAnswersVersionAndPing(t *testing.T) {
	genesis := mustHeader(t, genesisHeaderHex)
	h1 := mustHeader(t, block1HeaderHex)

	p, done := loopback(t, PeerConfig{Magic: MagicMainnet}, func(r *remoteNode) {
		r.send(NewVersionMessage(0))
		r.expect(CmdVerack)
		r.send(&PingMessage{Nonce: 77})
		if env := r.expect(CmdPong); env != nil {
			if pp, err := DecodePongMessage(env.Payload); err != nil || pp.Nonce != 77 {
				t.Errorf("pong: %v %+v", err, pp)
			}
		}
		r.send(&GenericMessage{Cmd: CmdInv, Payload: []byte{0}})
		r.send(&HeadersMessage{Headers: []consensus.BlockHeader{h1}})
	})

	m, err := p.WaitFor(CmdHeaders, CmdBlock)
	if err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	hm, ok := m.(*HeadersMessage)
	if !ok || len(hm.Headers) != 1 || hm.Headers[0].PrevBlock != genesis.Hash() {
		t.Fatalf("got %#v", m)
	}
	<-done
}

func TestGetHeadersExchangeLoopback(t *testing.T) {
	genesis := mustHeader(t, genesisHeaderHex)
	h1 := mustHeader(t, block1HeaderHex)
	h2 := mustHeader(t, block2HeaderHex)

	p, done := loopback(t, PeerConfig{Magic: MagicTestnet}, func(r *remoteNode) {
		env := r.expect(CmdGetHeaders)
		if env == nil {
			return
		}
		req, err := DecodeGetHeadersMessage(env.Payload)
		if err != nil || req.StartBlock != genesis.Hash() {
			t.Errorf("getheaders: %v %+v", err, req)
			return
		}
		r.send(&HeadersMessage{Headers: []consensus.BlockHeader{h1, h2}})
	})

	if err := p.Send(NewGetHeadersMessage(genesis.Hash())); err != nil {
		t.Fatal(err)
	}
	m, err := p.WaitFor(CmdHeaders)
	if err != nil {
		t.Fatal(err)
	}
	hs := m.(*HeadersMessage).Headers
	if err := ValidateHeaders(genesis.Hash(), hs); err != nil {
		t.Fatalf("validate: %v", err)
	}
	<-done
}

func TestWaitForDecodeError(t *testing.T) {
	p, done := loopback(t, PeerConfig{Magic: MagicMainnet}, func(r *remoteNode) {
		r.send(&GenericMessage{Cmd: CmdHeaders, Payload: []byte{1, 2, 3}})
	})
	if _, err := p.WaitFor(CmdHeaders); err == nil {
		t.Fatalf("expected decode error")
	}
	<-done
}

func TestReadTimeout(t *testing.T) {
	release := make(chan struct{})
	p, done := loopback(t, PeerConfig{Magic: MagicMainnet, ReadTimeout: 50 * time.Millisecond}, func(r *remoteNode) {
		<-release
	})
	_, err := p.Read()
	close(release)
	<-done
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Fatalf("expected net timeout error, got %v", err)
	}
	if p.State() != StateFailed {
		t.Fatalf("expected failed, got %s", p.State())
	}
}

func TestWatchContextUnblocksRead(t *testing.T) {
	release := make(chan struct{})
	p, done := loopback(t, PeerConfig{Magic: MagicMainnet}, func(r *remoteNode) {
		<-release
	})
	ctx, cancel := context.WithCancel(context.Background())
	stop := p.WatchContext(ctx)
	defer stop()

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := p.Read()
	close(release)
	<-done
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("expected connection closed, got %v", err)
	}
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := Dial(ctx, addr, PeerConfig{Magic: MagicMainnet}); err == nil {
		t.Fatalf("expected dial error")
	}
}
