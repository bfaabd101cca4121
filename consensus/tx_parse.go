package consensus

// Minimum encoded sizes used to bound counts before allocating.
const (
	minTxInputBytes  = 32 + 4 + 1 + 4
	minTxOutputBytes = 8 + 1
)

// ParseTxBytes parses exactly one transaction and rejects trailing bytes.
func ParseTxBytes(b []byte) (*Tx, error) {
	tx, n, err := ParseTx(b)
	if err != nil {
		return nil, err
	}
	if n != len(b) {
		return nil, cerrf(ERR_PARSE, "%d trailing bytes after transaction", len(b)-n)
	}
	return tx, nil
}

// ParseTx parses a transaction at the start of b and returns the number of
// bytes consumed.
func ParseTx(b []byte) (*Tx, int, error) {
	off := 0
	tx, err := parseTx(b, &off)
	if err != nil {
		return nil, 0, err
	}
	return tx, off, nil
}

func parseTx(b []byte, off *int) (*Tx, error) {
	version, err := readU32le(b, off)
	if err != nil {
		return nil, err
	}
	tx := &Tx{Version: int32(version)}

	if *off < len(b) && b[*off] == segwitMarker {
		*off++
		flag, err := readU8(b, off)
		if err != nil {
			return nil, err
		}
		if flag != segwitFlag {
			return nil, cerrf(ERR_PARSE, "segwit flag 0x%02x", flag)
		}
		tx.Segwit = true
	}

	inCount, err := readCount(b, off, minTxInputBytes, "input")
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]TxInput, 0, inCount)
	for i := 0; i < inCount; i++ {
		in, err := parseTxInput(b, off)
		if err != nil {
			return nil, err
		}
		tx.Inputs = append(tx.Inputs, in)
	}

	outCount, err := readCount(b, off, minTxOutputBytes, "output")
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]TxOutput, 0, outCount)
	for i := 0; i < outCount; i++ {
		amount, err := readU64le(b, off)
		if err != nil {
			return nil, err
		}
		spk, err := readVarBytes(b, off)
		if err != nil {
			return nil, err
		}
		tx.Outputs = append(tx.Outputs, TxOutput{Amount: amount, ScriptPubKey: spk})
	}

	if tx.Segwit {
		for i := range tx.Inputs {
			items, err := readCount(b, off, 1, "witness item")
			if err != nil {
				return nil, err
			}
			witness := make([][]byte, 0, items)
			for j := 0; j < items; j++ {
				item, err := readVarBytes(b, off)
				if err != nil {
					return nil, err
				}
				witness = append(witness, item)
			}
			tx.Inputs[i].Witness = witness
		}
	}

	tx.Locktime, err = readU32le(b, off)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func parseTxInput(b []byte, off *int) (TxInput, error) {
	var in TxInput
	var err error
	if in.PrevTxID, err = readHash(b, off); err != nil {
		return in, err
	}
	if in.PrevIndex, err = readU32le(b, off); err != nil {
		return in, err
	}
	if in.ScriptSig, err = readVarBytes(b, off); err != nil {
		return in, err
	}
	if in.Sequence, err = readU32le(b, off); err != nil {
		return in, err
	}
	return in, nil
}
