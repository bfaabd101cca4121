package script

func opNop(*Context) bool { return true }

func opPushInt(n int64) opFunc {
	return func(ctx *Context) bool {
		ctx.Main.push(EncodeNum(n))
		return true
	}
}

func opIf(ctx *Context) bool { return conditional(ctx, false) }

func opNotIf(ctx *Context) bool { return conditional(ctx, true) }

// conditional splits the remaining commands at the matching OP_ELSE and
// OP_ENDIF and schedules one branch. Nested conditionals stay intact inside
// the chosen branch and are resolved when they execute.
func conditional(ctx *Context, invert bool) bool {
	if len(ctx.Main) < 1 {
		return false
	}
	var ifCmds, elseCmds []Command
	current := &ifCmds
	endifsNeeded := 1
	found := false
	i := 0
	for ; i < len(ctx.Cmds); i++ {
		cmd := ctx.Cmds[i]
		switch {
		case cmd.IsData():
			*current = append(*current, cmd)
		case cmd.Op == OP_IF || cmd.Op == OP_NOTIF:
			endifsNeeded++
			*current = append(*current, cmd)
		case cmd.Op == OP_ELSE && endifsNeeded == 1:
			current = &elseCmds
		case cmd.Op == OP_ENDIF:
			if endifsNeeded == 1 {
				found = true
			} else {
				endifsNeeded--
				*current = append(*current, cmd)
			}
		default:
			*current = append(*current, cmd)
		}
		if found {
			break
		}
	}
	if !found {
		return false
	}
	rest := ctx.Cmds[i+1:]

	take := asBool(ctx.Main.pop())
	if invert {
		take = !take
	}
	branch := elseCmds
	if take {
		branch = ifCmds
	}
	cmds := make([]Command, 0, len(branch)+len(rest))
	cmds = append(cmds, branch...)
	ctx.Cmds = append(cmds, rest...)
	return true
}

// opUnbalancedConditional runs for an OP_ELSE or OP_ENDIF that no OP_IF
// consumed.
func opUnbalancedConditional(*Context) bool { return false }

func opVerify(ctx *Context) bool {
	if len(ctx.Main) < 1 {
		return false
	}
	return asBool(ctx.Main.pop())
}

func opReturn(*Context) bool { return false }
