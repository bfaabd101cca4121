package consensus

import (
	"math/big"

	"github.com/joerlop/block-explorer-test/script"
)

// VerifyInput evaluates input i against the output it spends. The signature
// hash is chosen from the spent script: BIP143 for native and nested segwit
// programs, legacy otherwise.
func (tx *Tx) VerifyInput(i int, prevOut TxOutput) error {
	if i < 0 || i >= len(tx.Inputs) {
		return cerrf(TX_ERR_INPUT_INDEX, "input %d of %d", i, len(tx.Inputs))
	}
	in := tx.Inputs[i]

	scriptSig, err := script.Parse(in.ScriptSig)
	if err != nil {
		return cerrf(TX_ERR_SCRIPT, "input %d script_sig: %v", i, err)
	}
	scriptPubKey, err := script.Parse(prevOut.ScriptPubKey)
	if err != nil {
		return cerrf(TX_ERR_SCRIPT, "input %d script_pubkey: %v", i, err)
	}

	z, witness, err := tx.inputSigHash(i, scriptSig, scriptPubKey, prevOut)
	if err != nil {
		return err
	}
	if err := script.Execute(scriptSig, scriptPubKey, z, witness); err != nil {
		return cwrap(TX_ERR_SCRIPT, err, "input %d", i)
	}
	return nil
}

func (tx *Tx) inputSigHash(i int, scriptSig, scriptPubKey script.Script, prevOut TxOutput) (*big.Int, [][]byte, error) {
	in := tx.Inputs[i]
	program := scriptPubKey

	if script.IsP2SH(scriptPubKey) {
		if len(scriptSig) == 0 || !scriptSig[len(scriptSig)-1].IsData() {
			return nil, nil, cerrf(TX_ERR_SCRIPT, "input %d: p2sh spend without redeem script", i)
		}
		redeemRaw := scriptSig[len(scriptSig)-1].Data
		redeem, err := script.Parse(redeemRaw)
		if err != nil {
			return nil, nil, cerrf(TX_ERR_SCRIPT, "input %d redeem script: %v", i, err)
		}
		if !script.IsP2WPKH(redeem) && !script.IsP2WSH(redeem) {
			z, err := tx.SigHash(i, prevOut.ScriptPubKey, redeemRaw)
			return z, nil, err
		}
		program = redeem
	}

	switch {
	case script.IsP2WPKH(program):
		code, err := script.P2PKHScript(program[1].Data).Bytes()
		if err != nil {
			return nil, nil, err
		}
		z, err := tx.SigHashBIP143(i, code, prevOut.Amount)
		return z, in.Witness, err
	case script.IsP2WSH(program):
		if len(in.Witness) == 0 {
			return nil, nil, cerrf(TX_ERR_SCRIPT, "input %d: empty witness", i)
		}
		z, err := tx.SigHashBIP143(i, in.Witness[len(in.Witness)-1], prevOut.Amount)
		return z, in.Witness, err
	}
	z, err := tx.SigHash(i, prevOut.ScriptPubKey, nil)
	return z, nil, err
}
