package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/joerlop/block-explorer-test/consensus"
	"github.com/joerlop/block-explorer-test/node/store"
	"github.com/joerlop/block-explorer-test/node/store/storetest"
	"github.com/joerlop/block-explorer-test/script"
)

// recorder logs calls in order and can fail on a chosen one.
type recorder struct {
	calls  []string
	failAt string
	nextID int64
	tip    chainhash.Hash
	hasTip bool
}

func (r *recorder) call(name string) error {
	r.calls = append(r.calls, name)
	if name == r.failAt {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) StoreBlock(_ context.Context, b store.BlockRecord) (int64, error) {
	if err := r.call("block"); err != nil {
		return 0, err
	}
	r.tip, r.hasTip = b.Hash, true
	r.nextID++
	return r.nextID, nil
}

func (r *recorder) StoreTransaction(_ context.Context, blockID int64, _ store.TxRecord) (int64, error) {
	if err := r.call("tx"); err != nil {
		return 0, err
	}
	r.nextID++
	return r.nextID, nil
}

func (r *recorder) StoreInput(context.Context, int64, store.InputRecord) error {
	return r.call("input")
}

func (r *recorder) StoreOutput(context.Context, int64, store.OutputRecord) error {
	return r.call("output")
}

func (r *recorder) LatestBlockHash(context.Context) (chainhash.Hash, bool, error) {
	return r.tip, r.hasTip, nil
}

func (r *recorder) Close() error { return nil }

func TestSaveBlockOrder(t *testing.T) {
	r := &recorder{}
	blk := storetest.MustBlock(t, storetest.GenesisBlockHex)
	id, err := store.SaveBlock(context.Background(), r, blk, script.Mainnet)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Equal(t, []string{"block", "tx", "input", "output"}, r.calls)
	require.Equal(t, blk.Hash(), r.tip)
}

func TestSaveBlockStopsAtFirstError(t *testing.T) {
	r := &recorder{failAt: "input"}
	_, err := store.SaveBlock(context.Background(), r, storetest.MustBlock(t, storetest.GenesisBlockHex), script.Mainnet)
	require.ErrorContains(t, err, "input 0")
	require.Equal(t, []string{"block", "tx", "input"}, r.calls)
}

// batchRecorder commits through WriteBlock and fails it on demand.
type batchRecorder struct {
	recorder
	batches []store.BlockBatch
	fail    bool
}

func (b *batchRecorder) WriteBlock(_ context.Context, batch store.BlockBatch) (int64, error) {
	if b.fail {
		return 0, errors.New("boom")
	}
	b.batches = append(b.batches, batch)
	b.tip, b.hasTip = batch.Block.Hash, true
	return 7, nil
}

func TestSaveBlockUsesBlockWriter(t *testing.T) {
	b := &batchRecorder{}
	blk := storetest.MustBlock(t, storetest.GenesisBlockHex)
	id, err := store.SaveBlock(context.Background(), b, blk, script.Mainnet)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.Empty(t, b.calls)
	require.Len(t, b.batches, 1)

	batch := b.batches[0]
	require.Equal(t, blk.Hash(), batch.Block.Hash)
	require.Equal(t, uint64(1), batch.Block.TxnCount)
	require.Len(t, batch.Txs, 1)
	require.Equal(t, storetest.GenesisCoinbase, batch.Txs[0].Tx.Hash.String())
	require.Len(t, batch.Txs[0].Inputs, 1)
	require.Len(t, batch.Txs[0].Outputs, 1)
	require.Equal(t, script.TypeP2PK, batch.Txs[0].Outputs[0].OutputType)

	b = &batchRecorder{fail: true}
	_, err = store.SaveBlock(context.Background(), b, blk, script.Mainnet)
	require.ErrorContains(t, err, "boom")
	require.False(t, b.hasTip)
	require.Empty(t, b.calls)
}

func TestNewOutputRecord(t *testing.T) {
	blk := storetest.MustBlock(t, storetest.GenesisBlockHex)
	rec := store.NewOutputRecord(0, blk.Txs[0].Outputs[0], script.Mainnet)
	require.Equal(t, script.TypeP2PK, rec.OutputType)
	require.Equal(t, storetest.GenesisAddress, rec.Address)

	opret := consensus.TxOutput{ScriptPubKey: []byte{0x6a, 0x03, 'a', 'b', 'c'}}
	rec = store.NewOutputRecord(4, opret, script.Mainnet)
	require.Equal(t, script.TypeOpReturn, rec.OutputType)
	require.Equal(t, "", rec.Address)
	require.Equal(t, []byte("abc"), rec.OpReturnData)
	require.Equal(t, uint32(4), rec.Index)

	rec = store.NewOutputRecord(0, consensus.TxOutput{ScriptPubKey: []byte{0x51}}, script.Mainnet)
	require.Equal(t, script.TypeUnknown, rec.OutputType)
	require.Equal(t, "", rec.Address)
}

func TestWitnessRoundTrip(t *testing.T) {
	require.Nil(t, store.MarshalWitness(nil))
	require.Nil(t, store.MarshalWitness([][]byte{}))

	w := [][]byte{{0x30, 0x45, 0x02}, {}, {0x03}}
	b := store.MarshalWitness(w)
	require.Equal(t, []byte{0x03, 0x03, 0x30, 0x45, 0x02, 0x00, 0x01, 0x03}, b)
	got, err := store.UnmarshalWitness(b)
	require.NoError(t, err)
	require.Equal(t, w, got)

	_, err = store.UnmarshalWitness(b[:len(b)-1])
	require.Error(t, err)
	_, err = store.UnmarshalWitness(append(b, 0))
	require.Error(t, err)
}

func TestOpenChainDirManifest(t *testing.T) {
	dir := t.TempDir()
	chainDir, err := store.OpenChainDir(dir, script.Testnet, "bolt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "chains", "testnet"), chainDir)

	m, err := store.ReadManifest(chainDir)
	require.NoError(t, err)
	require.Equal(t, store.Manifest{SchemaVersion: store.SchemaVersionV1, Network: "testnet", Backend: "bolt"}, *m)

	_, err = store.OpenChainDir(dir, script.Testnet, "bolt")
	require.NoError(t, err)
	_, err = store.OpenChainDir(dir, script.Testnet, "sqlite")
	require.ErrorContains(t, err, "backend")

	m.Network = "mainnet"
	require.NoError(t, store.WriteManifestAtomic(chainDir, m))
	_, err = store.OpenChainDir(dir, script.Testnet, "bolt")
	require.ErrorContains(t, err, "network")

	require.NoError(t, os.WriteFile(filepath.Join(chainDir, "MANIFEST.json"), []byte("{"), 0o600))
	_, err = store.OpenChainDir(dir, script.Testnet, "bolt")
	require.Error(t, err)

	_, err = store.OpenChainDir("", script.Mainnet, "bolt")
	require.Error(t, err)
}
