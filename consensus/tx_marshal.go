package consensus

// MarshalTx serializes tx, with marker, flag and witness stacks when
// tx.Segwit is set. An empty witness item is written as the single byte 0x00.
func MarshalTx(tx *Tx) []byte {
	return appendTx(nil, tx, tx.Segwit)
}

// MarshalTxLegacy serializes tx without witness data, as hashed for the txid.
func MarshalTxLegacy(tx *Tx) []byte {
	return appendTx(nil, tx, false)
}

func appendTx(out []byte, tx *Tx, withWitness bool) []byte {
	out = appendU32le(out, uint32(tx.Version))
	if withWitness {
		out = append(out, segwitMarker, segwitFlag)
	}
	out = AppendVarint(out, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		out = appendTxInput(out, in, in.ScriptSig)
	}
	out = AppendVarint(out, uint64(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		out = appendTxOutput(out, o)
	}
	if withWitness {
		for _, in := range tx.Inputs {
			out = AppendVarint(out, uint64(len(in.Witness)))
			for _, item := range in.Witness {
				out = appendVarBytes(out, item)
			}
		}
	}
	return appendU32le(out, tx.Locktime)
}

func appendTxInput(out []byte, in TxInput, scriptSig []byte) []byte {
	out = append(out, in.PrevTxID[:]...)
	out = appendU32le(out, in.PrevIndex)
	out = appendVarBytes(out, scriptSig)
	return appendU32le(out, in.Sequence)
}

func appendTxOutput(out []byte, o TxOutput) []byte {
	out = appendU64le(out, o.Amount)
	return appendVarBytes(out, o.ScriptPubKey)
}
