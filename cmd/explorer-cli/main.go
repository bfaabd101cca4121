package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joerlop/block-explorer-test/consensus"
	"github.com/joerlop/block-explorer-test/script"
)

const version = "explorer-cli v0.1"

func hexDecodeStrict(s string) ([]byte, error) {
	cleaned := strings.Join(strings.Fields(s), "")
	return hex.DecodeString(cleaned)
}

func cmdTxID(w io.Writer, txHex string, net script.Network) error {
	txBytes, err := hexDecodeStrict(txHex)
	if err != nil {
		return fmt.Errorf("tx hex: %w", err)
	}
	tx, err := consensus.ParseTxBytes(txBytes)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "txid: %s\n", tx.ID())
	if tx.Segwit {
		_, _ = fmt.Fprintf(w, "wtxid: %s\n", tx.WitnessHash())
	}
	_, _ = fmt.Fprintf(w, "version: %d segwit: %v locktime: %d inputs: %d outputs: %d total_out: %d\n",
		tx.Version, tx.Segwit, tx.Locktime, len(tx.Inputs), len(tx.Outputs), tx.TotalOut())
	if h, ok := tx.CoinbaseHeight(); ok {
		_, _ = fmt.Fprintf(w, "coinbase_height: %d\n", h)
	}
	for i, out := range tx.Outputs {
		addr, _ := out.Address(net)
		typ := string(out.Type())
		if typ == "" {
			typ = "-"
		}
		_, _ = fmt.Fprintf(w, "output %d: amount=%d type=%s address=%s\n", i, out.Amount, typ, addr)
	}
	return nil
}

func cmdHeader(w io.Writer, headerHex string) error {
	raw, err := hexDecodeStrict(headerHex)
	if err != nil {
		return fmt.Errorf("header hex: %w", err)
	}
	h, err := consensus.ParseBlockHeaderBytes(raw)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "hash: %s\n", h.Hash())
	_, _ = fmt.Fprintf(w, "prev_block: %s\n", h.PrevBlock)
	_, _ = fmt.Fprintf(w, "merkle_root: %s\n", h.MerkleRoot)
	_, _ = fmt.Fprintf(w, "version: %d bip9: %v bip91: %v bip141: %v\n", h.Version, h.BIP9(), h.BIP91(), h.BIP141())
	_, _ = fmt.Fprintf(w, "timestamp: %d bits: %x nonce: %x\n", h.Timestamp, h.Bits, h.Nonce)
	_, _ = fmt.Fprintf(w, "target: %064x\n", h.Target())
	_, _ = fmt.Fprintf(w, "difficulty: %s\n", h.Difficulty().Text('f', 2))
	_, _ = fmt.Fprintf(w, "pow_valid: %v\n", h.CheckPOW())
	return nil
}

func cmdScript(w io.Writer, scriptHex string, net script.Network) error {
	raw, err := hexDecodeStrict(scriptHex)
	if err != nil {
		return fmt.Errorf("script hex: %w", err)
	}
	s, err := script.Parse(raw)
	if err != nil {
		return err
	}
	typ := string(script.ClassifyScript(s))
	if typ == "" {
		typ = "-"
	}
	_, _ = fmt.Fprintf(w, "asm: %s\n", s)
	_, _ = fmt.Fprintf(w, "type: %s\n", typ)
	if addr, ok := script.Address(raw, net); ok {
		_, _ = fmt.Fprintf(w, "address: %s\n", addr)
	}
	if data, ok := script.OpReturnData(raw); ok {
		_, _ = fmt.Fprintf(w, "op_return_data: %x\n", data)
	}
	return nil
}

func cmdVerify(w io.Writer, txHex string, inputIndex int, prevAmount uint64, prevScriptHex string) error {
	txBytes, err := hexDecodeStrict(txHex)
	if err != nil {
		return fmt.Errorf("tx hex: %w", err)
	}
	tx, err := consensus.ParseTxBytes(txBytes)
	if err != nil {
		return err
	}
	spk, err := hexDecodeStrict(prevScriptHex)
	if err != nil {
		return fmt.Errorf("prev-script hex: %w", err)
	}
	if err := tx.VerifyInput(inputIndex, consensus.TxOutput{Amount: prevAmount, ScriptPubKey: spk}); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "input %d: ok\n", inputIndex)
	return nil
}

const usageCommands = "commands: version | txid --tx-hex <hex> [--network <net>] | header --header-hex <hex> | script --hex <hex> [--network <net>] | verify --tx-hex <hex> --input-index <n> --prev-amount <sats> --prev-script <hex>"

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: explorer-cli <command> [args]")
	_, _ = fmt.Fprintln(w, usageCommands)
}

func parseNetworkFlag(name string, stderr io.Writer) (script.Network, bool) {
	net, err := script.ParseNetwork(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 0, false
	}
	return net, true
}

func cmdTxIDMain(argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("txid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	txHex := fs.String("tx-hex", "", "transaction hex bytes")
	network := fs.String("network", "mainnet", "network for address encoding (mainnet/testnet)")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if *txHex == "" {
		_, _ = fmt.Fprintln(stderr, "missing required flag: --tx-hex")
		return 2
	}
	net, ok := parseNetworkFlag(*network, stderr)
	if !ok {
		return 2
	}
	if err := cmdTxID(stdout, *txHex, net); err != nil {
		_, _ = fmt.Fprintln(stderr, "txid error:", err)
		return 1
	}
	return 0
}

func cmdHeaderMain(argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("header", flag.ContinueOnError)
	fs.SetOutput(stderr)
	headerHex := fs.String("header-hex", "", "80-byte block header hex")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if *headerHex == "" {
		_, _ = fmt.Fprintln(stderr, "missing required flag: --header-hex")
		return 2
	}
	if err := cmdHeader(stdout, *headerHex); err != nil {
		_, _ = fmt.Fprintln(stderr, "header error:", err)
		return 1
	}
	return 0
}

func cmdScriptMain(argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("script", flag.ContinueOnError)
	fs.SetOutput(stderr)
	scriptHex := fs.String("hex", "", "raw script hex (no length prefix)")
	network := fs.String("network", "mainnet", "network for address encoding (mainnet/testnet)")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if *scriptHex == "" {
		_, _ = fmt.Fprintln(stderr, "missing required flag: --hex")
		return 2
	}
	net, ok := parseNetworkFlag(*network, stderr)
	if !ok {
		return 2
	}
	if err := cmdScript(stdout, *scriptHex, net); err != nil {
		_, _ = fmt.Fprintln(stderr, "script error:", err)
		return 1
	}
	return 0
}

func cmdVerifyMain(argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	txHex := fs.String("tx-hex", "", "spending transaction hex")
	inputIndex := fs.Int("input-index", 0, "0-based input index")
	prevAmount := fs.Uint64("prev-amount", 0, "amount of the spent output in satoshis")
	prevScript := fs.String("prev-script", "", "script_pubkey of the spent output, hex")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if *txHex == "" || *prevScript == "" {
		_, _ = fmt.Fprintln(stderr, "missing required flag: --tx-hex and --prev-script")
		return 2
	}
	if err := cmdVerify(stdout, *txHex, *inputIndex, *prevAmount, *prevScript); err != nil {
		_, _ = fmt.Fprintln(stderr, "verify error:", err)
		return 1
	}
	return 0
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}
	command, argv := args[0], args[1:]
	switch command {
	case "version":
		_, _ = fmt.Fprintln(stdout, version)
		return 0
	case "txid":
		return cmdTxIDMain(argv, stdout, stderr)
	case "header":
		return cmdHeaderMain(argv, stdout, stderr)
	case "script":
		return cmdScriptMain(argv, stdout, stderr)
	case "verify":
		return cmdVerifyMain(argv, stdout, stderr)
	}
	_, _ = fmt.Fprintln(stderr, "unknown command")
	printUsage(stderr)
	return 2
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
