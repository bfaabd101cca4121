package script

import "bytes"

// popNum pops a numeric operand of at most maxNumLen bytes.
func popNum(ctx *Context) (int64, bool) {
	if len(ctx.Main) < 1 {
		return 0, false
	}
	b := ctx.Main.pop()
	if len(b) > maxNumLen {
		return 0, false
	}
	return DecodeNum(b), true
}

func b2i(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func abs64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func opUnary(f func(a int64) int64) opFunc {
	return func(ctx *Context) bool {
		a, ok := popNum(ctx)
		if !ok {
			return false
		}
		ctx.Main.push(EncodeNum(f(a)))
		return true
	}
}

// opBinary pops b then a and pushes f(a, b).
func opBinary(f func(a, b int64) int64) opFunc {
	return func(ctx *Context) bool {
		if len(ctx.Main) < 2 {
			return false
		}
		b, ok := popNum(ctx)
		if !ok {
			return false
		}
		a, ok := popNum(ctx)
		if !ok {
			return false
		}
		ctx.Main.push(EncodeNum(f(a, b)))
		return true
	}
}

var opNumEqualBinary = opBinary(func(a, b int64) int64 { return b2i(a == b) })

func opNumEqualVerify(ctx *Context) bool {
	return opNumEqualBinary(ctx) && opVerify(ctx)
}

// opWithin pushes whether min <= x < max for stack x min max.
func opWithin(ctx *Context) bool {
	if len(ctx.Main) < 3 {
		return false
	}
	hi, ok := popNum(ctx)
	if !ok {
		return false
	}
	lo, ok := popNum(ctx)
	if !ok {
		return false
	}
	x, ok := popNum(ctx)
	if !ok {
		return false
	}
	ctx.Main.push(boolNum(lo <= x && x < hi))
	return true
}

func opSize(ctx *Context) bool {
	if len(ctx.Main) < 1 {
		return false
	}
	ctx.Main.push(EncodeNum(int64(len(ctx.Main.peek(0)))))
	return true
}

func opEqual(ctx *Context) bool {
	if len(ctx.Main) < 2 {
		return false
	}
	a := ctx.Main.pop()
	b := ctx.Main.pop()
	ctx.Main.push(boolNum(bytes.Equal(a, b)))
	return true
}

func opEqualVerify(ctx *Context) bool {
	return opEqual(ctx) && opVerify(ctx)
}
