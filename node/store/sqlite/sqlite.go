// Package sqlite is a SQLite-backed store.Store with one table per record
// type.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mattn/go-sqlite3"

	"github.com/joerlop/block-explorer-test/consensus"
	"github.com/joerlop/block-explorer-test/node/store"
	"github.com/joerlop/block-explorer-test/script"
)

const (
	Backend = "sqlite"

	// DefaultCacheSize is the number of outputs kept by LookupOutput.
	DefaultCacheSize = 1 << 16
)

const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	hash        BLOB NOT NULL UNIQUE,
	version     INTEGER NOT NULL,
	prev_block  BLOB NOT NULL,
	merkle_root BLOB NOT NULL,
	timestamp   INTEGER NOT NULL,
	bits        BLOB NOT NULL,
	nonce       BLOB NOT NULL,
	txn_count   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	block_id INTEGER NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
	hash     BLOB NOT NULL,
	version  INTEGER NOT NULL,
	locktime INTEGER NOT NULL,
	segwit   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_hash ON transactions(hash);
CREATE INDEX IF NOT EXISTS idx_transactions_block ON transactions(block_id);

CREATE TABLE IF NOT EXISTS tx_inputs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
	prev_tx        BLOB NOT NULL,
	prev_index     INTEGER NOT NULL,
	script_sig     BLOB,
	sequence       INTEGER NOT NULL,
	witness        BLOB
);

CREATE INDEX IF NOT EXISTS idx_tx_inputs_tx ON tx_inputs(transaction_id);

CREATE TABLE IF NOT EXISTS tx_outputs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
	output_index   INTEGER NOT NULL,
	output_type    TEXT,
	amount         INTEGER NOT NULL,
	address        TEXT,
	script_pubkey  BLOB NOT NULL,
	op_return_data BLOB,
	UNIQUE (transaction_id, output_index)
);
`

type outpoint struct {
	txid  chainhash.Hash
	index uint32
}

type Store struct {
	chainDir string
	db       *sql.DB
	outputs  *lru.Cache[outpoint, consensus.TxOutput]
}

var (
	_ store.Store        = (*Store)(nil)
	_ store.OutputLookup = (*Store)(nil)
	_ store.BlockWriter  = (*Store)(nil)
)

// Open opens (creating if needed) chains/<net>/db/explorer.sqlite under
// datadir.
func Open(datadir string, net script.Network) (*Store, error) {
	chainDir, err := store.OpenChainDir(datadir, net, Backend)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDir(filepath.Join(chainDir, "db")); err != nil {
		return nil, err
	}
	path := filepath.Join(chainDir, "db", "explorer.sqlite")
	return openPath(chainDir, "file:"+path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
}

func openPath(chainDir, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	cache, err := lru.New[outpoint, consensus.TxOutput](DefaultCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{chainDir: chainDir, db: db, outputs: cache}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ChainDir() string { return s.chainDir }

func isUnique(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) StoreBlock(ctx context.Context, b store.BlockRecord) (int64, error) {
	return insertBlock(ctx, s.db, b)
}

func (s *Store) StoreTransaction(ctx context.Context, blockID int64, tx store.TxRecord) (int64, error) {
	return insertTx(ctx, s.db, blockID, tx)
}

func (s *Store) StoreInput(ctx context.Context, txID int64, in store.InputRecord) error {
	return insertInput(ctx, s.db, txID, in)
}

// StoreOutput inserts the row and drops any cached lookup for the same
// outpoint, since the newest duplicate txid wins.
func (s *Store) StoreOutput(ctx context.Context, txID int64, out store.OutputRecord) error {
	if err := insertOutput(ctx, s.db, txID, out); err != nil {
		return err
	}
	var raw []byte
	if err := s.db.QueryRowContext(ctx, `SELECT hash FROM transactions WHERE id = ?`, txID).Scan(&raw); err != nil {
		return fmt.Errorf("query transaction %d: %w", txID, err)
	}
	var h chainhash.Hash
	copy(h[:], raw)
	s.outputs.Remove(outpoint{txid: h, index: out.Index})
	return nil
}

// WriteBlock inserts the block and all of its rows in one SQL transaction.
func (s *Store) WriteBlock(ctx context.Context, b store.BlockBatch) (id int64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	blockID, err := insertBlock(ctx, tx, b.Block)
	if err != nil {
		return 0, err
	}
	for _, tb := range b.Txs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		txID, err := insertTx(ctx, tx, blockID, tb.Tx)
		if err != nil {
			return 0, err
		}
		for i, in := range tb.Inputs {
			if err := insertInput(ctx, tx, txID, in); err != nil {
				return 0, fmt.Errorf("tx %s input %d: %w", tb.Tx.Hash, i, err)
			}
		}
		for _, out := range tb.Outputs {
			if err := insertOutput(ctx, tx, txID, out); err != nil {
				return 0, fmt.Errorf("tx %s output %d: %w", tb.Tx.Hash, out.Index, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	for _, tb := range b.Txs {
		for _, out := range tb.Outputs {
			s.outputs.Remove(outpoint{txid: tb.Tx.Hash, index: out.Index})
		}
	}
	return blockID, nil
}

func insertBlock(ctx context.Context, ex execer, b store.BlockRecord) (int64, error) {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO blocks (hash, version, prev_block, merkle_root, timestamp, bits, nonce, txn_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Hash[:], b.Version, b.PrevBlock[:], b.MerkleRoot[:], b.Timestamp, b.Bits[:], b.Nonce[:], int64(b.TxnCount),
	)
	if isUnique(err) {
		return 0, fmt.Errorf("%w: %s", store.ErrDuplicateBlock, b.Hash)
	}
	if err != nil {
		return 0, fmt.Errorf("insert block: %w", err)
	}
	return res.LastInsertId()
}

func insertTx(ctx context.Context, ex execer, blockID int64, tx store.TxRecord) (int64, error) {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO transactions (block_id, hash, version, locktime, segwit) VALUES (?, ?, ?, ?, ?)`,
		blockID, tx.Hash[:], tx.Version, tx.Locktime, tx.Segwit,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return res.LastInsertId()
}

func insertInput(ctx context.Context, ex execer, txID int64, in store.InputRecord) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO tx_inputs (transaction_id, prev_tx, prev_index, script_sig, sequence, witness)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		txID, in.PrevTx[:], in.PrevIndex, in.ScriptSig, in.Sequence, store.MarshalWitness(in.Witness),
	)
	if err != nil {
		return fmt.Errorf("insert input: %w", err)
	}
	return nil
}

func insertOutput(ctx context.Context, ex execer, txID int64, out store.OutputRecord) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO tx_outputs (transaction_id, output_index, output_type, amount, address, script_pubkey, op_return_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txID, out.Index, nullString(string(out.OutputType)), int64(out.Amount), nullString(out.Address),
		out.ScriptPubKey, out.OpReturnData,
	)
	if err != nil {
		return fmt.Errorf("insert output: %w", err)
	}
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// LatestBlockHash returns the hash of the highest block id.
func (s *Store) LatestBlockHash(ctx context.Context) (chainhash.Hash, bool, error) {
	var h chainhash.Hash
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT hash FROM blocks ORDER BY id DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return h, false, nil
	}
	if err != nil {
		return h, false, fmt.Errorf("query tip: %w", err)
	}
	if len(raw) != chainhash.HashSize {
		return h, false, fmt.Errorf("tip hash has %d bytes", len(raw))
	}
	copy(h[:], raw)
	return h, true, nil
}

// LookupOutput resolves txid:index, consulting an LRU cache first. Duplicate
// txids resolve to the most recently stored transaction.
func (s *Store) LookupOutput(ctx context.Context, txid chainhash.Hash, index uint32) (consensus.TxOutput, bool, error) {
	key := outpoint{txid: txid, index: index}
	if out, ok := s.outputs.Get(key); ok {
		return out, true, nil
	}

	var (
		amount int64
		spk    []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT o.amount, o.script_pubkey FROM tx_outputs o
		 WHERE o.output_index = ? AND o.transaction_id = (
			SELECT MAX(t.id) FROM transactions t WHERE t.hash = ?)`,
		index, txid[:],
	).Scan(&amount, &spk)
	if errors.Is(err, sql.ErrNoRows) {
		return consensus.TxOutput{}, false, nil
	}
	if err != nil {
		return consensus.TxOutput{}, false, fmt.Errorf("query output %s:%d: %w", txid, index, err)
	}
	out := consensus.TxOutput{Amount: uint64(amount), ScriptPubKey: spk}
	s.outputs.Add(key, out)
	return out, true, nil
}
