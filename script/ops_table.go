package script

// opcodeTable maps each executable opcode to its implementation. Entries left
// nil fail evaluation. The table is never modified after package init.
var opcodeTable = [256]opFunc{
	OP_0:       opPushInt(0),
	OP_1NEGATE: opPushInt(-1),
	OP_1:       opPushInt(1),
	OP_2:       opPushInt(2),
	OP_3:       opPushInt(3),
	OP_4:       opPushInt(4),
	OP_5:       opPushInt(5),
	OP_6:       opPushInt(6),
	OP_7:       opPushInt(7),
	OP_8:       opPushInt(8),
	OP_9:       opPushInt(9),
	OP_10:      opPushInt(10),
	OP_11:      opPushInt(11),
	OP_12:      opPushInt(12),
	OP_13:      opPushInt(13),
	OP_14:      opPushInt(14),
	OP_15:      opPushInt(15),
	OP_16:      opPushInt(16),

	OP_NOP:    opNop,
	OP_IF:     opIf,
	OP_NOTIF:  opNotIf,
	OP_ELSE:   opUnbalancedConditional,
	OP_ENDIF:  opUnbalancedConditional,
	OP_VERIFY: opVerify,
	OP_RETURN: opReturn,

	OP_TOALTSTACK:   opToAltStack,
	OP_FROMALTSTACK: opFromAltStack,
	OP_2DROP:        op2Drop,
	OP_2DUP:         op2Dup,
	OP_3DUP:         op3Dup,
	OP_2OVER:        op2Over,
	OP_2ROT:         op2Rot,
	OP_2SWAP:        op2Swap,
	OP_IFDUP:        opIfDup,
	OP_DEPTH:        opDepth,
	OP_DROP:         opDrop,
	OP_DUP:          opDup,
	OP_NIP:          opNip,
	OP_OVER:         opOver,
	OP_PICK:         opPick,
	OP_ROLL:         opRoll,
	OP_ROT:          opRot,
	OP_SWAP:         opSwap,
	OP_TUCK:         opTuck,

	OP_SIZE:        opSize,
	OP_EQUAL:       opEqual,
	OP_EQUALVERIFY: opEqualVerify,

	OP_1ADD:               opUnary(func(a int64) int64 { return a + 1 }),
	OP_1SUB:               opUnary(func(a int64) int64 { return a - 1 }),
	OP_NEGATE:             opUnary(func(a int64) int64 { return -a }),
	OP_ABS:                opUnary(abs64),
	OP_NOT:                opUnary(func(a int64) int64 { return b2i(a == 0) }),
	OP_0NOTEQUAL:          opUnary(func(a int64) int64 { return b2i(a != 0) }),
	OP_ADD:                opBinary(func(a, b int64) int64 { return a + b }),
	OP_SUB:                opBinary(func(a, b int64) int64 { return a - b }),
	OP_BOOLAND:            opBinary(func(a, b int64) int64 { return b2i(a != 0 && b != 0) }),
	OP_BOOLOR:             opBinary(func(a, b int64) int64 { return b2i(a != 0 || b != 0) }),
	OP_NUMEQUAL:           opBinary(func(a, b int64) int64 { return b2i(a == b) }),
	OP_NUMEQUALVERIFY:     opNumEqualVerify,
	OP_NUMNOTEQUAL:        opBinary(func(a, b int64) int64 { return b2i(a != b) }),
	OP_LESSTHAN:           opBinary(func(a, b int64) int64 { return b2i(a < b) }),
	OP_GREATERTHAN:        opBinary(func(a, b int64) int64 { return b2i(a > b) }),
	OP_LESSTHANOREQUAL:    opBinary(func(a, b int64) int64 { return b2i(a <= b) }),
	OP_GREATERTHANOREQUAL: opBinary(func(a, b int64) int64 { return b2i(a >= b) }),
	OP_MIN:                opBinary(min64),
	OP_MAX:                opBinary(max64),
	OP_WITHIN:             opWithin,

	OP_RIPEMD160:     opHash(ripemd160Of),
	OP_SHA1:          opHash(sha1Of),
	OP_SHA256:        opHash(sha256Of),
	OP_HASH160:       opHash(hash160Of),
	OP_HASH256:       opHash(hash256Of),
	OP_CODESEPARATOR: opNop,

	OP_CHECKSIG:            opCheckSig,
	OP_CHECKSIGVERIFY:      opCheckSigVerify,
	OP_CHECKMULTISIG:       opCheckMultiSig,
	OP_CHECKMULTISIGVERIFY: opCheckMultiSigVerify,

	OP_NOP1:                opNop,
	OP_CHECKLOCKTIMEVERIFY: opNop,
	OP_CHECKSEQUENCEVERIFY: opNop,
	OP_NOP4:                opNop,
	OP_NOP5:                opNop,
	OP_NOP6:                opNop,
	OP_NOP7:                opNop,
	OP_NOP8:                opNop,
	OP_NOP9:                opNop,
	OP_NOP10:               opNop,
}
