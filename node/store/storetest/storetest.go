// Package storetest holds chain fixtures and a behavioural suite shared by the
// store backends.
package storetest

import (
	"context"
	"encoding/hex"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joerlop/block-explorer-test/consensus"
	"github.com/joerlop/block-explorer-test/node/store"
	"github.com/joerlop/block-explorer-test/script"
)

const (
	GenesisBlockHex = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c" +
		"01" +
		"01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"

	Block1Hex = "010000006fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000982051fd1e4ba744bbbe680e1fee14677ba1a3c3540bf7b1cdb606e857233e0e61bc6649ffff001d01e36299" +
		"01" +
		"01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff0704ffff001d0104ffffffff0100f2052a0100000043410496b538e853519c726a2c91e61ec11600ae1390813a627c66fb8be7947be63c52da7589379515d4e0a604f8141781e62294721166bf621e73a82cbf2342c858eeac00000000"

	Block2Hex = "010000004860eb18bf1b1620e37e9490fc8a427514416fd75159ab86688e9a8300000000d5fdcc541e25de1c7a5addedf24858b8bb665c9f36ef744ee42c316022c90f9bb0bc6649ffff001d08d2bd61" +
		"01" +
		"01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff0704ffff001d010bffffffff0100f2052a010000004341047211a824f55b505228e4c3d5194c1fcfaa15a456abdf37f9b9d97a4040afc073dee6c89064984f03385237d92167c13e236446b417ab79a0fcae412ae3316b77ac00000000"

	GenesisHash     = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	Block1Hash      = "00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048"
	Block2Hash      = "000000006a625f06636b8bb6ac7b960a8d03705d1ace08b1a19da3fdcc99ddbd"
	GenesisCoinbase = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	Block1Coinbase  = "0e3e2357e806b6cdb1f70b54c3a3a17b6714ee1f0e68bebb44a74b1efd512098"
	GenesisAddress  = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
)

func MustBlock(t testing.TB, rawHex string) *consensus.Block {
	t.Helper()
	raw, err := hex.DecodeString(rawHex)
	require.NoError(t, err)
	blk, err := consensus.ParseBlockBytes(raw)
	require.NoError(t, err)
	return blk
}

// Run exercises the Store contract against a fresh store from open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("EmptyHasNoTip", func(t *testing.T) {
		s := open(t)
		_, ok, err := s.LatestBlockHash(context.Background())
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("SaveBlockAdvancesTip", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		id0, err := store.SaveBlock(ctx, s, MustBlock(t, GenesisBlockHex), script.Mainnet)
		require.NoError(t, err)
		tip, ok, err := s.LatestBlockHash(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, GenesisHash, tip.String())

		id1, err := store.SaveBlock(ctx, s, MustBlock(t, Block1Hex), script.Mainnet)
		require.NoError(t, err)
		require.Greater(t, id1, id0)
		tip, _, err = s.LatestBlockHash(ctx)
		require.NoError(t, err)
		require.Equal(t, Block1Hash, tip.String())
	})

	t.Run("DuplicateBlock", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		blk := MustBlock(t, GenesisBlockHex)
		_, err := store.SaveBlock(ctx, s, blk, script.Mainnet)
		require.NoError(t, err)

		_, err = s.StoreBlock(ctx, store.NewBlockRecord(blk))
		require.Error(t, err)
		require.True(t, errors.Is(err, store.ErrDuplicateBlock), "got %v", err)
	})

	t.Run("OrphanRowsRejected", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		_, err := s.StoreTransaction(ctx, 999, store.TxRecord{Version: 1})
		require.Error(t, err)
		require.Error(t, s.StoreOutput(ctx, 999, store.OutputRecord{Index: 0}))
		require.Error(t, s.StoreInput(ctx, 999, store.InputRecord{}))
	})

	t.Run("LookupOutput", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		lookup, ok := s.(store.OutputLookup)
		if !ok {
			t.Skip("backend has no output lookup")
		}
		blk := MustBlock(t, GenesisBlockHex)
		_, err := store.SaveBlock(ctx, s, blk, script.Mainnet)
		require.NoError(t, err)

		txid := blk.Txs[0].ID()
		out, found, err := lookup.LookupOutput(ctx, txid, 0)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, uint64(5_000_000_000), out.Amount)
		require.Equal(t, blk.Txs[0].Outputs[0].ScriptPubKey, out.ScriptPubKey)

		_, found, err = lookup.LookupOutput(ctx, txid, 1)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("CanceledMidBlockLeavesNoRows", func(t *testing.T) {
		s := open(t)
		if _, ok := s.(store.BlockWriter); !ok {
			t.Skip("backend writes rows one by one")
		}
		blk := twoTxBlock(t)

		// Entry and first-transaction checks pass; the check before the
		// second transaction fails with the first one already written.
		_, err := store.SaveBlock(newCancelAfter(2), s, blk, script.Mainnet)
		require.ErrorIs(t, err, context.Canceled)

		ctx := context.Background()
		_, ok, err := s.LatestBlockHash(ctx)
		require.NoError(t, err)
		require.False(t, ok, "tip moved for a block that was not fully stored")
		if lookup, ok := s.(store.OutputLookup); ok {
			_, found, err := lookup.LookupOutput(ctx, blk.Txs[0].ID(), 0)
			require.NoError(t, err)
			require.False(t, found, "first transaction survived the failed block")
		}

		_, err = store.SaveBlock(ctx, s, blk, script.Mainnet)
		require.NoError(t, err)
		tip, ok, err := s.LatestBlockHash(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, Block2Hash, tip.String())
		if lookup, ok := s.(store.OutputLookup); ok {
			for _, tx := range blk.Txs {
				_, found, err := lookup.LookupOutput(ctx, tx.ID(), 0)
				require.NoError(t, err)
				require.True(t, found)
			}
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.SaveBlock(ctx, s, MustBlock(t, GenesisBlockHex), script.Mainnet)
		require.ErrorIs(t, err, context.Canceled)
	})
}
