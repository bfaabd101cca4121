package script

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/joerlop/block-explorer-test/crypto"
)

var ErrScriptFailure = errors.New("script: evaluation failed")

// Error describes why an evaluation failed. It always matches
// ErrScriptFailure with errors.Is.
type Error struct {
	Op     Opcode
	Step   int
	Reason string
}

func (e *Error) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("script: %s", e.Reason)
	}
	return fmt.Sprintf("script: step %d (%s): %s", e.Step, e.Op, e.Reason)
}

func (e *Error) Unwrap() error { return ErrScriptFailure }

// Stack is a list of byte strings with the top at the end.
type Stack [][]byte

func (s *Stack) push(b []byte) { *s = append(*s, b) }

func (s *Stack) pop() []byte {
	old := *s
	top := old[len(old)-1]
	*s = old[:len(old)-1]
	return top
}

// peek returns the item n back from the top, 0 being the top.
func (s Stack) peek(n int) []byte { return s[len(s)-1-n] }

// Context is the interpreter state of one evaluation.
type Context struct {
	Main    Stack
	Alt     Stack
	Cmds    []Command
	Z       *big.Int
	Witness [][]byte

	// pubKeyLen is the number of commands left when scriptPubKey starts.
	pubKeyLen int
	// scriptHash and witnessProgram are pending expansions; each fires once.
	scriptHash     bool
	witnessProgram bool
}

type opFunc func(ctx *Context) bool

// Evaluate runs scriptSig followed by scriptPubKey and reports success.
func Evaluate(scriptSig, scriptPubKey Script, z *big.Int, witness [][]byte) bool {
	return Execute(scriptSig, scriptPubKey, z, witness) == nil
}

// Execute runs scriptSig followed by scriptPubKey. Pay-to-script-hash
// redeem scripts and version 0 witness programs are expanded in place.
func Execute(scriptSig, scriptPubKey Script, z *big.Int, witness [][]byte) error {
	ctx := &Context{Z: z, Witness: witness}
	ctx.Cmds = make([]Command, 0, len(scriptSig)+len(scriptPubKey))
	ctx.Cmds = append(ctx.Cmds, scriptSig...)
	ctx.Cmds = append(ctx.Cmds, scriptPubKey...)
	if ctx.Z == nil {
		ctx.Z = new(big.Int)
	}
	ctx.pubKeyLen = len(scriptPubKey)
	ctx.scriptHash = IsP2SH(scriptPubKey)
	ctx.witnessProgram = IsP2WPKH(scriptPubKey) || IsP2WSH(scriptPubKey)

	for step := 0; len(ctx.Cmds) > 0; step++ {
		cmd := ctx.Cmds[0]
		ctx.Cmds = ctx.Cmds[1:]

		if !cmd.IsData() {
			fn := opcodeTable[cmd.Op]
			if fn == nil {
				return &Error{Op: cmd.Op, Step: step, Reason: "unknown or disabled opcode"}
			}
			if !fn(ctx) {
				return &Error{Op: cmd.Op, Step: step, Reason: "opcode failed"}
			}
			continue
		}

		ctx.Main.push(cmd.Data)
		if ctx.scriptHash && len(ctx.Cmds) == ctx.pubKeyLen {
			ctx.scriptHash = false
			if err := ctx.expandScriptHash(cmd.Data); err != nil {
				return &Error{Op: cmd.Op, Step: step, Reason: err.Error()}
			}
		}
		if ctx.witnessProgram && len(ctx.Cmds) == 0 {
			ctx.witnessProgram = false
			if err := ctx.expandWitnessProgram(); err != nil {
				return &Error{Op: cmd.Op, Step: step, Reason: err.Error()}
			}
		}
	}

	if len(ctx.Main) == 0 {
		return &Error{Step: -1, Reason: "empty stack after evaluation"}
	}
	if !asBool(ctx.Main.pop()) {
		return &Error{Step: -1, Reason: "false top stack item after evaluation"}
	}
	return nil
}

// expandScriptHash runs when the last scriptSig push is followed by a
// pay-to-script-hash scriptPubKey: the pushed item is checked against the
// hash and then executed as the redeem script.
func (ctx *Context) expandScriptHash(redeem []byte) error {
	want := ctx.Cmds[1].Data
	ctx.Cmds = nil
	top := ctx.Main.pop()
	if !bytes.Equal(crypto.Hash160(top), want) {
		return errors.New("redeem script hash mismatch")
	}
	cmds, err := Parse(redeem)
	if err != nil {
		return fmt.Errorf("redeem script: %w", err)
	}
	ctx.Cmds = cmds
	ctx.witnessProgram = IsP2WPKH(cmds) || IsP2WSH(cmds)
	return nil
}

// expandWitnessProgram replaces a version 0 witness program sitting alone on
// the stack with the commands its witness commits to. It only runs once a
// witness program scriptPubKey or P2SH redeem script has been consumed.
func (ctx *Context) expandWitnessProgram() error {
	if len(ctx.Main) != 2 || len(ctx.Main[0]) != 0 {
		return nil
	}
	switch program := ctx.Main[1]; len(program) {
	case 20:
		ctx.Main = ctx.Main[:0]
		for _, item := range ctx.Witness {
			ctx.Cmds = append(ctx.Cmds, PushData(item))
		}
		ctx.Cmds = append(ctx.Cmds, P2PKHScript(program)...)
	case 32:
		if len(ctx.Witness) == 0 {
			return errors.New("empty witness for witness script hash")
		}
		ws := ctx.Witness[len(ctx.Witness)-1]
		if !bytes.Equal(crypto.Sha256(ws), program) {
			return errors.New("witness script hash mismatch")
		}
		cmds, err := Parse(ws)
		if err != nil {
			return fmt.Errorf("witness script: %w", err)
		}
		ctx.Main = ctx.Main[:0]
		for _, item := range ctx.Witness[:len(ctx.Witness)-1] {
			ctx.Cmds = append(ctx.Cmds, PushData(item))
		}
		ctx.Cmds = append(ctx.Cmds, cmds...)
	}
	return nil
}
