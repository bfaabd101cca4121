package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/consensus"
	"github.com/joerlop/block-explorer-test/node/p2p"
	"github.com/joerlop/block-explorer-test/node/store"
)

// PeerConn is the part of *p2p.Peer the sync engine drives.
type PeerConn interface {
	Handshake() error
	Send(m p2p.Message) error
	WaitFor(cmds ...string) (p2p.Message, error)
	WatchContext(ctx context.Context) (stop func())
	Close() error
}

type DialFunc func(ctx context.Context, addr string, cfg p2p.PeerConfig) (PeerConn, error)

func dialPeer(ctx context.Context, addr string, cfg p2p.PeerConfig) (PeerConn, error) {
	p, err := p2p.Dial(ctx, addr, cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

type SyncEngine struct {
	cfg   Config
	store store.Store
	log   *slog.Logger
	dial  DialFunc
}

// SyncSummary describes one Run.
type SyncSummary struct {
	Start          chainhash.Hash
	Tip            chainhash.Hash
	Headers        int
	Blocks         int
	ScriptsChecked int
	ScriptFailures int
	MissingPrevOut int
}

func NewSyncEngine(cfg Config, s store.Store, log *slog.Logger) (*SyncEngine, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	cfg.Normalize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &SyncEngine{cfg: cfg, store: s, log: log, dial: dialPeer}, nil
}

// SetDialer replaces the function used to reach the peer.
func (e *SyncEngine) SetDialer(d DialFunc) {
	if d != nil {
		e.dial = d
	}
}

// resumePoint is the stored tip, or the configured start block for an empty
// store.
func (e *SyncEngine) resumePoint(ctx context.Context) (chainhash.Hash, error) {
	tip, ok, err := e.store.LatestBlockHash(ctx)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("latest block: %w", err)
	}
	if ok {
		return tip, nil
	}
	return e.cfg.StartBlock()
}

// Run connects to the configured peer and ingests blocks after the resume
// point until the peer has no more headers, MaxBlocks is reached or ctx is
// done. Each header batch is validated before any of its blocks is requested.
func (e *SyncEngine) Run(ctx context.Context) (SyncSummary, error) {
	var sum SyncSummary
	if e.cfg.Peer == "" {
		return sum, errors.New("peer is required")
	}
	tip, err := e.resumePoint(ctx)
	if err != nil {
		return sum, err
	}
	sum.Start, sum.Tip = tip, tip

	net := e.cfg.NetworkValue()
	peer, err := e.dial(ctx, e.cfg.Peer, p2p.PeerConfig{
		Magic:       p2p.NetworkMagic(net),
		ReadTimeout: e.cfg.ReadTimeout(),
		Logger:      e.log,
	})
	if err != nil {
		return sum, err
	}
	defer peer.Close()
	stop := peer.WatchContext(ctx)
	defer stop()

	if err := peer.Handshake(); err != nil {
		return sum, e.ctxErr(ctx, fmt.Errorf("handshake: %w", err))
	}
	e.log.Info("sync: start", "peer", e.cfg.Peer, "network", net.String(), "from", tip.String())

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if e.cfg.MaxBlocks > 0 && sum.Blocks >= e.cfg.MaxBlocks {
			break
		}

		headers, err := e.fetchHeaders(peer, tip)
		if err != nil {
			return sum, e.ctxErr(ctx, err)
		}
		if len(headers) == 0 {
			break
		}
		if err := p2p.ValidateHeaders(tip, headers); err != nil {
			e.log.Error("sync: header chain rejected", "err", err)
			return sum, err
		}
		sum.Headers += len(headers)

		for _, h := range headers {
			if e.cfg.MaxBlocks > 0 && sum.Blocks >= e.cfg.MaxBlocks {
				break
			}
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			blk, err := e.fetchBlock(peer, h)
			if err != nil {
				return sum, e.ctxErr(ctx, err)
			}
			if _, err := store.SaveBlock(ctx, e.store, blk, net); err != nil {
				return sum, err
			}
			if e.cfg.VerifyScripts {
				e.verifyScripts(ctx, blk, &sum)
			}
			tip = blk.Hash()
			sum.Tip = tip
			sum.Blocks++
			e.log.Info("sync: block stored", "hash", tip.String(), "txs", len(blk.Txs))
		}
		if len(headers) < p2p.MaxHeadersPerMsg {
			break
		}
	}

	e.log.Info("sync: done", "blocks", sum.Blocks, "headers", sum.Headers, "tip", sum.Tip.String())
	return sum, nil
}

func (e *SyncEngine) fetchHeaders(peer PeerConn, tip chainhash.Hash) ([]consensus.BlockHeader, error) {
	if err := peer.Send(p2p.NewGetHeadersMessage(tip)); err != nil {
		return nil, fmt.Errorf("send getheaders: %w", err)
	}
	m, err := peer.WaitFor(p2p.CmdHeaders)
	if err != nil {
		return nil, fmt.Errorf("wait for headers: %w", err)
	}
	hm, ok := m.(*p2p.HeadersMessage)
	if !ok {
		return nil, fmt.Errorf("headers: unexpected %T", m)
	}
	e.log.Debug("sync: headers", "count", len(hm.Headers))
	return hm.Headers, nil
}

// fetchBlock requests the body for h and checks it against the header.
func (e *SyncEngine) fetchBlock(peer PeerConn, h consensus.BlockHeader) (*consensus.Block, error) {
	want := h.Hash()
	req := &p2p.GetDataMessage{}
	req.Add(p2p.InvTypeBlock, want)
	if err := peer.Send(req); err != nil {
		return nil, fmt.Errorf("send getdata %s: %w", want, err)
	}
	m, err := peer.WaitFor(p2p.CmdBlock, p2p.CmdNotFound)
	if err != nil {
		return nil, fmt.Errorf("wait for block %s: %w", want, err)
	}
	bm, ok := m.(*p2p.BlockMessage)
	if !ok {
		return nil, fmt.Errorf("block %s: peer replied %s", want, m.Command())
	}
	blk := bm.Block
	if got := blk.Hash(); got != want {
		return nil, &consensus.Error{
			Code: consensus.BLOCK_ERR_HASH_MISMATCH,
			Msg:  fmt.Sprintf("requested %s, got %s", want, got),
		}
	}
	if err := blk.ValidateMerkleRoot(); err != nil {
		return nil, fmt.Errorf("block %s: %w", want, err)
	}
	return blk, nil
}

// verifyScripts evaluates every non-coinbase input whose spent output is
// known to the store. Failures are logged and counted, never fatal.
func (e *SyncEngine) verifyScripts(ctx context.Context, blk *consensus.Block, sum *SyncSummary) {
	lookup, ok := e.store.(store.OutputLookup)
	if !ok {
		return
	}
	for _, tx := range blk.Txs {
		if tx.IsCoinbase() {
			continue
		}
		txid := tx.ID()
		for i, in := range tx.Inputs {
			prev, found, err := lookup.LookupOutput(ctx, in.PrevTxID, in.PrevIndex)
			if err != nil {
				e.log.Warn("sync: prevout lookup", "tx", txid.String(), "input", i, "err", err)
				continue
			}
			if !found {
				sum.MissingPrevOut++
				continue
			}
			sum.ScriptsChecked++
			if err := tx.VerifyInput(i, prev); err != nil {
				sum.ScriptFailures++
				e.log.Warn("sync: script failed", "tx", txid.String(), "input", i, "err", err)
			}
		}
	}
}

// ctxErr prefers the context error when a read failed because the watcher
// closed the connection.
func (e *SyncEngine) ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}
