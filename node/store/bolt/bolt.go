// Package bolt is a bbolt-backed store.Store.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	bbolt "go.etcd.io/bbolt"

	"github.com/joerlop/block-explorer-test/consensus"
	"github.com/joerlop/block-explorer-test/node/store"
	"github.com/joerlop/block-explorer-test/script"
)

const Backend = "bolt"

var (
	bucketBlocks      = []byte("blocks_by_id")
	bucketBlockByHash = []byte("block_id_by_hash")
	bucketTxs         = []byte("txs_by_id")
	bucketTxByHash    = []byte("tx_id_by_hash")
	bucketInputs      = []byte("inputs_by_tx")
	bucketOutputs     = []byte("outputs_by_tx")
	bucketMeta        = []byte("meta")

	keyTip = []byte("tip")
)

type DB struct {
	chainDir string
	db       *bbolt.DB
}

// Open opens (creating if needed) the database for net under datadir.
func Open(datadir string, net script.Network) (*DB, error) {
	chainDir, err := store.OpenChainDir(datadir, net, Backend)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDir(filepath.Join(chainDir, "db")); err != nil {
		return nil, err
	}

	path := filepath.Join(chainDir, "db", "kv.db")
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	d := &DB{chainDir: chainDir, db: bdb}
	if err := d.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketBlocks, bucketBlockByHash, bucketTxs, bucketTxByHash, bucketInputs, bucketOutputs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) ChainDir() string { return d.chainDir }

var (
	_ store.Store        = (*DB)(nil)
	_ store.OutputLookup = (*DB)(nil)
	_ store.BlockWriter  = (*DB)(nil)
)

// StoreBlock assigns the next block id and advances the tip to b.
func (d *DB) StoreBlock(ctx context.Context, b store.BlockRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var id uint64
	err := d.db.Update(func(tx *bbolt.Tx) error {
		var err error
		if id, err = putBlock(tx, b); err != nil {
			return err
		}
		return setTip(tx, b.Hash)
	})
	if err != nil {
		return 0, err
	}
	return int64(id), nil
}

func (d *DB) StoreTransaction(ctx context.Context, blockID int64, rec store.TxRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var id uint64
	err := d.db.Update(func(tx *bbolt.Tx) error {
		var err error
		id, err = putTx(tx, uint64(blockID), rec)
		return err
	})
	if err != nil {
		return 0, err
	}
	return int64(id), nil
}

func (d *DB) StoreInput(ctx context.Context, txID int64, rec store.InputRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.Update(func(tx *bbolt.Tx) error {
		return putInput(tx, uint64(txID), rec)
	})
}

func (d *DB) StoreOutput(ctx context.Context, txID int64, rec store.OutputRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.Update(func(tx *bbolt.Tx) error {
		return putOutput(tx, uint64(txID), rec)
	})
}

// WriteBlock stores the block and all of its rows in one bbolt transaction.
// The tip moves only when every row is written.
func (d *DB) WriteBlock(ctx context.Context, b store.BlockBatch) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var blockID uint64
	err := d.db.Update(func(tx *bbolt.Tx) error {
		var err error
		if blockID, err = putBlock(tx, b.Block); err != nil {
			return err
		}
		for _, tb := range b.Txs {
			if err := ctx.Err(); err != nil {
				return err
			}
			txID, err := putTx(tx, blockID, tb.Tx)
			if err != nil {
				return err
			}
			for i, in := range tb.Inputs {
				if err := putInput(tx, txID, in); err != nil {
					return fmt.Errorf("tx %s input %d: %w", tb.Tx.Hash, i, err)
				}
			}
			for _, out := range tb.Outputs {
				if err := putOutput(tx, txID, out); err != nil {
					return fmt.Errorf("tx %s output %d: %w", tb.Tx.Hash, out.Index, err)
				}
			}
		}
		return setTip(tx, b.Block.Hash)
	})
	if err != nil {
		return 0, err
	}
	return int64(blockID), nil
}

func putBlock(tx *bbolt.Tx, b store.BlockRecord) (uint64, error) {
	byHash := tx.Bucket(bucketBlockByHash)
	if byHash.Get(b.Hash[:]) != nil {
		return 0, fmt.Errorf("%w: %s", store.ErrDuplicateBlock, b.Hash)
	}
	blocks := tx.Bucket(bucketBlocks)
	id, err := blocks.NextSequence()
	if err != nil {
		return 0, err
	}
	if err := blocks.Put(idKey(id), encodeBlock(b)); err != nil {
		return 0, err
	}
	if err := byHash.Put(b.Hash[:], idKey(id)); err != nil {
		return 0, err
	}
	return id, nil
}

func setTip(tx *bbolt.Tx, h chainhash.Hash) error {
	return tx.Bucket(bucketMeta).Put(keyTip, h[:])
}

func putTx(tx *bbolt.Tx, blockID uint64, rec store.TxRecord) (uint64, error) {
	if tx.Bucket(bucketBlocks).Get(idKey(blockID)) == nil {
		return 0, fmt.Errorf("tx %s: unknown block id %d", rec.Hash, blockID)
	}
	txs := tx.Bucket(bucketTxs)
	id, err := txs.NextSequence()
	if err != nil {
		return 0, err
	}
	if err := txs.Put(idKey(id), encodeTx(blockID, rec)); err != nil {
		return 0, err
	}
	// Duplicate txids (pre-BIP30 coinbases) resolve to the latest row.
	if err := tx.Bucket(bucketTxByHash).Put(rec.Hash[:], idKey(id)); err != nil {
		return 0, err
	}
	return id, nil
}

func putInput(tx *bbolt.Tx, txID uint64, rec store.InputRecord) error {
	if tx.Bucket(bucketTxs).Get(idKey(txID)) == nil {
		return fmt.Errorf("input: unknown tx id %d", txID)
	}
	inputs := tx.Bucket(bucketInputs)
	n := countChildren(inputs, txID)
	return inputs.Put(childKey(txID, n), encodeInput(rec))
}

func putOutput(tx *bbolt.Tx, txID uint64, rec store.OutputRecord) error {
	if tx.Bucket(bucketTxs).Get(idKey(txID)) == nil {
		return fmt.Errorf("output: unknown tx id %d", txID)
	}
	return tx.Bucket(bucketOutputs).Put(childKey(txID, rec.Index), encodeOutput(rec))
}

func countChildren(b *bbolt.Bucket, parent uint64) uint32 {
	prefix := idKey(parent)
	var n uint32
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		n++
	}
	return n
}

func (d *DB) LatestBlockHash(ctx context.Context) (chainhash.Hash, bool, error) {
	var h chainhash.Hash
	var ok bool
	if err := ctx.Err(); err != nil {
		return h, false, err
	}
	err := d.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keyTip)
		if v == nil {
			return nil
		}
		if len(v) != chainhash.HashSize {
			return fmt.Errorf("meta: tip has %d bytes", len(v))
		}
		copy(h[:], v)
		ok = true
		return nil
	})
	return h, ok, err
}

// BlockByHash returns the stored block row and its id.
func (d *DB) BlockByHash(ctx context.Context, hash chainhash.Hash) (int64, store.BlockRecord, bool, error) {
	var (
		id  uint64
		rec store.BlockRecord
		ok  bool
	)
	if err := ctx.Err(); err != nil {
		return 0, rec, false, err
	}
	err := d.db.View(func(tx *bbolt.Tx) error {
		k := tx.Bucket(bucketBlockByHash).Get(hash[:])
		if k == nil {
			return nil
		}
		v := tx.Bucket(bucketBlocks).Get(k)
		if v == nil {
			return fmt.Errorf("block %s: dangling id", hash)
		}
		r, err := decodeBlock(v)
		if err != nil {
			return err
		}
		id, rec, ok = idOf(k), r, true
		return nil
	})
	return int64(id), rec, ok, err
}

// Transaction returns the stored transaction row and the id of its block.
func (d *DB) Transaction(ctx context.Context, hash chainhash.Hash) (txID, blockID int64, rec store.TxRecord, ok bool, err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	err = d.db.View(func(tx *bbolt.Tx) error {
		k := tx.Bucket(bucketTxByHash).Get(hash[:])
		if k == nil {
			return nil
		}
		v := tx.Bucket(bucketTxs).Get(k)
		if v == nil {
			return fmt.Errorf("tx %s: dangling id", hash)
		}
		bid, r, err := decodeTx(v)
		if err != nil {
			return err
		}
		txID, blockID, rec, ok = int64(idOf(k)), int64(bid), r, true
		return nil
	})
	return
}

func (d *DB) Inputs(ctx context.Context, txID int64) ([]store.InputRecord, error) {
	var out []store.InputRecord
	err := d.scanChildren(ctx, bucketInputs, txID, func(v []byte) error {
		rec, err := decodeInput(v)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

func (d *DB) Outputs(ctx context.Context, txID int64) ([]store.OutputRecord, error) {
	var out []store.OutputRecord
	err := d.scanChildren(ctx, bucketOutputs, txID, func(v []byte) error {
		rec, err := decodeOutput(v)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

func (d *DB) scanChildren(ctx context.Context, bucket []byte, parent int64, fn func(v []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := idKey(uint64(parent))
	return d.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// LookupOutput resolves txid:index against stored outputs.
func (d *DB) LookupOutput(ctx context.Context, txid chainhash.Hash, index uint32) (consensus.TxOutput, bool, error) {
	var out consensus.TxOutput
	var ok bool
	if err := ctx.Err(); err != nil {
		return out, false, err
	}
	err := d.db.View(func(tx *bbolt.Tx) error {
		k := tx.Bucket(bucketTxByHash).Get(txid[:])
		if k == nil {
			return nil
		}
		v := tx.Bucket(bucketOutputs).Get(childKey(idOf(k), index))
		if v == nil {
			return nil
		}
		rec, err := decodeOutput(v)
		if err != nil {
			return err
		}
		out = consensus.TxOutput{Amount: rec.Amount, ScriptPubKey: rec.ScriptPubKey}
		ok = true
		return nil
	})
	return out, ok, err
}
