package script

func opToAltStack(ctx *Context) bool {
	if len(ctx.Main) < 1 {
		return false
	}
	ctx.Alt.push(ctx.Main.pop())
	return true
}

func opFromAltStack(ctx *Context) bool {
	if len(ctx.Alt) < 1 {
		return false
	}
	ctx.Main.push(ctx.Alt.pop())
	return true
}

func op2Drop(ctx *Context) bool {
	if len(ctx.Main) < 2 {
		return false
	}
	ctx.Main = ctx.Main[:len(ctx.Main)-2]
	return true
}

func op2Dup(ctx *Context) bool {
	if len(ctx.Main) < 2 {
		return false
	}
	ctx.Main = append(ctx.Main, ctx.Main[len(ctx.Main)-2:]...)
	return true
}

func op3Dup(ctx *Context) bool {
	if len(ctx.Main) < 3 {
		return false
	}
	ctx.Main = append(ctx.Main, ctx.Main[len(ctx.Main)-3:]...)
	return true
}

func op2Over(ctx *Context) bool {
	if len(ctx.Main) < 4 {
		return false
	}
	n := len(ctx.Main)
	ctx.Main = append(ctx.Main, ctx.Main[n-4:n-2]...)
	return true
}

func op2Rot(ctx *Context) bool {
	if len(ctx.Main) < 6 {
		return false
	}
	n := len(ctx.Main)
	x1, x2 := ctx.Main[n-6], ctx.Main[n-5]
	copy(ctx.Main[n-6:], ctx.Main[n-4:])
	ctx.Main[n-2], ctx.Main[n-1] = x1, x2
	return true
}

func op2Swap(ctx *Context) bool {
	if len(ctx.Main) < 4 {
		return false
	}
	s := ctx.Main
	n := len(s)
	s[n-4], s[n-3], s[n-2], s[n-1] = s[n-2], s[n-1], s[n-4], s[n-3]
	return true
}

func opIfDup(ctx *Context) bool {
	if len(ctx.Main) < 1 {
		return false
	}
	if top := ctx.Main.peek(0); asBool(top) {
		ctx.Main.push(top)
	}
	return true
}

func opDepth(ctx *Context) bool {
	ctx.Main.push(EncodeNum(int64(len(ctx.Main))))
	return true
}

func opDrop(ctx *Context) bool {
	if len(ctx.Main) < 1 {
		return false
	}
	ctx.Main.pop()
	return true
}

func opDup(ctx *Context) bool {
	if len(ctx.Main) < 1 {
		return false
	}
	ctx.Main.push(ctx.Main.peek(0))
	return true
}

func opNip(ctx *Context) bool {
	if len(ctx.Main) < 2 {
		return false
	}
	top := ctx.Main.pop()
	ctx.Main[len(ctx.Main)-1] = top
	return true
}

func opOver(ctx *Context) bool {
	if len(ctx.Main) < 2 {
		return false
	}
	ctx.Main.push(ctx.Main.peek(1))
	return true
}

// popIndex pops a stack depth operand for OP_PICK and OP_ROLL.
func popIndex(ctx *Context) (int, bool) {
	if len(ctx.Main) < 1 {
		return 0, false
	}
	n, ok := popNum(ctx)
	if !ok || n < 0 || n >= int64(len(ctx.Main)) {
		return 0, false
	}
	return int(n), true
}

func opPick(ctx *Context) bool {
	n, ok := popIndex(ctx)
	if !ok {
		return false
	}
	ctx.Main.push(ctx.Main.peek(n))
	return true
}

func opRoll(ctx *Context) bool {
	n, ok := popIndex(ctx)
	if !ok {
		return false
	}
	if n == 0 {
		return true
	}
	idx := len(ctx.Main) - 1 - n
	item := ctx.Main[idx]
	ctx.Main = append(ctx.Main[:idx], ctx.Main[idx+1:]...)
	ctx.Main.push(item)
	return true
}

func opRot(ctx *Context) bool {
	if len(ctx.Main) < 3 {
		return false
	}
	s := ctx.Main
	n := len(s)
	s[n-3], s[n-2], s[n-1] = s[n-2], s[n-1], s[n-3]
	return true
}

func opSwap(ctx *Context) bool {
	if len(ctx.Main) < 2 {
		return false
	}
	s := ctx.Main
	n := len(s)
	s[n-2], s[n-1] = s[n-1], s[n-2]
	return true
}

func opTuck(ctx *Context) bool {
	if len(ctx.Main) < 2 {
		return false
	}
	top := ctx.Main.peek(0)
	n := len(ctx.Main)
	ctx.Main = append(ctx.Main[:n-2], top, ctx.Main[n-2], top)
	return true
}
