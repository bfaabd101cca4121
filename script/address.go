package script

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/joerlop/block-explorer-test/crypto"
)

// Network selects address prefixes and wire magic.
type Network int

const (
	Mainnet Network = iota
	Testnet
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	}
	return fmt.Sprintf("network(%d)", int(n))
}

// ParseNetwork accepts "mainnet" or "testnet".
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "mainnet", "main":
		return Mainnet, nil
	case "testnet", "test", "testnet3":
		return Testnet, nil
	}
	return 0, fmt.Errorf("script: unknown network %q", s)
}

func (n Network) pubKeyHashID() byte {
	if n == Testnet {
		return 0x6f
	}
	return 0x00
}

func (n Network) scriptHashID() byte {
	if n == Testnet {
		return 0xc4
	}
	return 0x05
}

func (n Network) bech32HRP() string {
	if n == Testnet {
		return "tb"
	}
	return "bc"
}

// Address renders the address a standard script_pubkey pays to. P2PK outputs
// are shown as the P2PKH address of their key.
func Address(raw []byte, net Network) (string, bool) {
	s, err := Parse(raw)
	if err != nil {
		return "", false
	}
	switch ClassifyScript(s) {
	case TypeP2PK:
		return base58.CheckEncode(crypto.Hash160(s[0].Data), net.pubKeyHashID()), true
	case TypeP2PKH:
		return base58.CheckEncode(s[2].Data, net.pubKeyHashID()), true
	case TypeP2SH:
		return base58.CheckEncode(s[1].Data, net.scriptHashID()), true
	case TypeP2WPKH, TypeP2WSH:
		addr, err := segwitAddress(net.bech32HRP(), 0, s[1].Data)
		if err != nil {
			return "", false
		}
		return addr, true
	}
	return "", false
}

func segwitAddress(hrp string, version byte, program []byte) (string, error) {
	conv, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, append([]byte{version}, conv...))
}
