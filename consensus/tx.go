package consensus

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/joerlop/block-explorer-test/crypto"
	"github.com/joerlop/block-explorer-test/script"
)

const (
	segwitMarker = 0x00
	segwitFlag   = 0x01

	// SigHashAll is the only signature hash type computed here.
	SigHashAll = 0x01

	coinbasePrevIndex = 0xffffffff
)

type Tx struct {
	Version  int32
	Inputs   []TxInput
	Outputs  []TxOutput
	Locktime uint32
	Segwit   bool
}

type TxInput struct {
	PrevTxID  chainhash.Hash
	PrevIndex uint32
	ScriptSig []byte
	Sequence  uint32
	Witness   [][]byte
}

type TxOutput struct {
	Amount       uint64
	ScriptPubKey []byte
}

// ID is the txid: hash256 of the serialization without witness data.
func (tx *Tx) ID() chainhash.Hash {
	return crypto.Hash256H(MarshalTxLegacy(tx))
}

// WitnessHash is the wtxid. It equals ID for non-segwit transactions.
func (tx *Tx) WitnessHash() chainhash.Hash {
	if !tx.Segwit {
		return tx.ID()
	}
	return crypto.Hash256H(MarshalTx(tx))
}

// IsCoinbase reports whether tx has the single null-prevout input of a
// coinbase transaction.
func (tx *Tx) IsCoinbase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	in := tx.Inputs[0]
	return in.PrevTxID == (chainhash.Hash{}) && in.PrevIndex == coinbasePrevIndex
}

// CoinbaseHeight returns the BIP34 block height pushed first in a coinbase
// script_sig.
func (tx *Tx) CoinbaseHeight() (uint64, bool) {
	if !tx.IsCoinbase() {
		return 0, false
	}
	s, err := script.Parse(tx.Inputs[0].ScriptSig)
	if err != nil || len(s) == 0 || !s[0].IsData() || len(s[0].Data) > 8 {
		return 0, false
	}
	return LittleEndianToUint(s[0].Data), true
}

// TotalOut sums the output amounts.
func (tx *Tx) TotalOut() uint64 {
	var sum uint64
	for _, out := range tx.Outputs {
		sum += out.Amount
	}
	return sum
}

// Type classifies the output script.
func (o TxOutput) Type() script.OutputType {
	return script.Classify(o.ScriptPubKey)
}

func (o TxOutput) Address(net script.Network) (string, bool) {
	return script.Address(o.ScriptPubKey, net)
}

func (o TxOutput) OpReturnData() ([]byte, bool) {
	return script.OpReturnData(o.ScriptPubKey)
}
