package consensus

import (
	"math/big"

	"github.com/joerlop/block-explorer-test/crypto"
)

// SigHash computes the legacy SIGHASH_ALL digest for input i. The input's
// script_sig is replaced by redeemScript when given, otherwise by
// prevScriptPubKey; all other script_sigs are emptied.
func (tx *Tx) SigHash(i int, prevScriptPubKey, redeemScript []byte) (*big.Int, error) {
	if i < 0 || i >= len(tx.Inputs) {
		return nil, cerrf(TX_ERR_INPUT_INDEX, "input %d of %d", i, len(tx.Inputs))
	}
	subscript := prevScriptPubKey
	if redeemScript != nil {
		subscript = redeemScript
	}

	out := appendU32le(nil, uint32(tx.Version))
	out = AppendVarint(out, uint64(len(tx.Inputs)))
	for j, in := range tx.Inputs {
		if j == i {
			out = appendTxInput(out, in, subscript)
		} else {
			out = appendTxInput(out, in, nil)
		}
	}
	out = AppendVarint(out, uint64(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		out = appendTxOutput(out, o)
	}
	out = appendU32le(out, tx.Locktime)
	out = appendU32le(out, SigHashAll)
	return new(big.Int).SetBytes(crypto.Hash256(out)), nil
}

// SigHashBIP143 computes the segwit v0 SIGHASH_ALL digest for input i.
// scriptCode is the raw script without its length prefix.
func (tx *Tx) SigHashBIP143(i int, scriptCode []byte, amount uint64) (*big.Int, error) {
	if i < 0 || i >= len(tx.Inputs) {
		return nil, cerrf(TX_ERR_INPUT_INDEX, "input %d of %d", i, len(tx.Inputs))
	}
	var prevouts, sequences, outputs []byte
	for _, in := range tx.Inputs {
		prevouts = append(prevouts, in.PrevTxID[:]...)
		prevouts = appendU32le(prevouts, in.PrevIndex)
		sequences = appendU32le(sequences, in.Sequence)
	}
	for _, o := range tx.Outputs {
		outputs = appendTxOutput(outputs, o)
	}

	in := tx.Inputs[i]
	out := appendU32le(nil, uint32(tx.Version))
	out = append(out, crypto.Hash256(prevouts)...)
	out = append(out, crypto.Hash256(sequences)...)
	out = append(out, in.PrevTxID[:]...)
	out = appendU32le(out, in.PrevIndex)
	out = appendVarBytes(out, scriptCode)
	out = appendU64le(out, amount)
	out = appendU32le(out, in.Sequence)
	out = append(out, crypto.Hash256(outputs)...)
	out = appendU32le(out, tx.Locktime)
	out = appendU32le(out, SigHashAll)
	return new(big.Int).SetBytes(crypto.Hash256(out)), nil
}
