package codegen

import (
	"fmt"

	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/diag"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/runtimeabi"
	"github.com/gopascal/pgoc/typesys"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// emitStmt lowers one statement, the counterpart to emitExpr for
// tawago's codegenExpression (tawago itself has no separate statement
// tier; spec.md §4.6's fuller statement set earns its own file).
func (c *Context) emitStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Block:
		for _, sub := range n.Stmts {
			c.emitStmt(sub)
		}
	case *ast.AssignStmt:
		c.emitAssign(n)
	case *ast.ExprStmt:
		c.emitExpr(n.X)
	case *ast.IfStmt:
		c.emitIf(n)
	case *ast.ForStmt:
		c.emitFor(n)
	case *ast.WhileStmt:
		c.emitWhile(n)
	case *ast.RepeatStmt:
		c.emitRepeat(n)
	case *ast.CaseStmt:
		c.emitCase(n)
	case *ast.WithStmt:
		// with-bound field accesses are already ordinary FieldExpr
		// nodes by the time codegen sees them (spec.md §4.2): the
		// parser resolves each WithBinding alias against the
		// NameStack while parsing Body, so nothing is emitted here.
		c.emitStmt(n.Body)
	case *ast.LabelStmt:
		blk := c.labelBlock(n.Name)
		if c.block.Term == nil {
			c.block.NewBr(blk)
		}
		c.block = blk
		c.emitStmt(n.Stmt)
	case *ast.GotoStmt:
		c.block.NewBr(c.labelBlock(n.Name))
	case *ast.VarDeclStmt:
		c.emitLocalVarDecl(n)
	case *ast.WriteStmt:
		c.emitWrite(n)
	case *ast.ReadStmt:
		c.emitRead(n)
	default:
		panic(fmt.Sprintf("codegen: unhandled statement %T", s))
	}
}

// labelBlock returns the block a `label`/`goto` name refers to within
// the current function, creating it (unterminated, to be entered by
// the matching LabelStmt) on first reference.
func (c *Context) labelBlock(name string) *ir.Block {
	if c.labels == nil {
		c.labels = map[string]*ir.Block{}
	}
	if b, ok := c.labels[name]; ok {
		return b
	}
	b := c.Fn.NewBlock(name)
	c.labels[name] = b
	return b
}

// emitAssign lowers `lhs := rhs`: widen the right-hand value to the
// left-hand type (set assignment already round-trips through a single
// array-typed load+store, since a set is one first-class aggregate
// value) and store. A string lhs gets its two special cases from
// spec.md §4.6 instead: a char-literal rhs becomes length=1 plus the
// char, and a string-literal rhs is written byte by byte straight into
// lhs's own buffer, both bypassing emitExpr's normal path (which would
// otherwise build a struct value sized to the *literal's* capacity,
// not lhs's).
func (c *Context) emitAssign(n *ast.AssignStmt) {
	addr := c.emitAddr(n.LHS)
	lt := n.LHS.Type()

	if lst, ok := lt.(*typesys.StringType); ok {
		switch rhs := n.RHS.(type) {
		case *ast.CharLit:
			c.storeStringFromChar(addr, lst, rhs.Value)
			return
		case *ast.StringLit:
			c.storeStringFromLiteral(addr, lst, rhs.Value)
			return
		}
	}

	rv := c.emitExpr(n.RHS)
	rv = widenValue(c.block, rv, n.RHS.Type(), lt)
	c.block.NewStore(rv, addr)
}

// storeStringFromChar implements the char-literal case of spec.md
// §4.6's string assignment: the lhs string becomes length 1 holding ch.
func (c *Context) storeStringFromChar(addr value.Value, st *typesys.StringType, ch byte) {
	lenPtr := c.block.NewGetElementPtr(st.LLVMType(), addr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	c.block.NewStore(constant.NewInt(types.I8, 1), lenPtr)
	charPtr := c.block.NewGetElementPtr(st.LLVMType(), addr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1),
		constant.NewInt(types.I32, 0))
	c.block.NewStore(constant.NewInt(types.I8, int64(ch)), charPtr)
}

// storeStringFromLiteral implements the string-literal case of
// spec.md §4.6's string assignment: s's bytes are copied into lhs's
// buffer (truncated to its capacity) and its length byte set to s's
// length, mirroring emitStringLit's field-by-field construction but
// writing directly into lhs's own storage instead of a fresh temporary
// sized to s's length.
func (c *Context) storeStringFromLiteral(addr value.Value, st *typesys.StringType, s string) {
	lenPtr := c.block.NewGetElementPtr(st.LLVMType(), addr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	c.block.NewStore(constant.NewInt(types.I8, int64(len(s))), lenPtr)
	bytesPtr := c.block.NewGetElementPtr(st.LLVMType(), addr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1))
	for i := 0; i < len(s) && i < st.Capacity; i++ {
		charPtr := c.block.NewGetElementPtr(types.NewArray(uint64(st.Capacity), types.I8), bytesPtr,
			constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(i)))
		c.block.NewStore(constant.NewInt(types.I8, int64(s[i])), charPtr)
	}
}

func (c *Context) emitIf(n *ast.IfStmt) {
	cond := c.emitExpr(n.Cond)
	fn := c.Fn
	thenBlk := fn.NewBlock("")
	endBlk := fn.NewBlock("")
	elseBlk := endBlk
	if n.Else != nil {
		elseBlk = fn.NewBlock("")
	}
	c.block.NewCondBr(cond, thenBlk, elseBlk)

	c.block = thenBlk
	c.emitStmt(n.Then)
	if c.block.Term == nil {
		c.block.NewBr(endBlk)
	}

	if n.Else != nil {
		c.block = elseBlk
		c.emitStmt(n.Else)
		if c.block.Term == nil {
			c.block.NewBr(endBlk)
		}
	}

	c.block = endBlk
}

// emitFor lowers `for v := lo to|downto hi do body`: the loop variable
// is a normal local, stepped by +1/-1 and compared with <=/>=
// depending on direction (spec.md §4.6).
func (c *Context) emitFor(n *ast.ForStmt) {
	addr, _, vd, ok := c.lookupVarOk(n.Var)
	if !ok {
		c.Diags.Emit(diag.NameError{Loc: n.Loc(), Name: n.Var, Msg: "undeclared for-loop control variable"})
		return
	}
	loVal := c.emitExpr(n.Lo)
	c.block.NewStore(loVal, addr)

	fn := c.Fn
	headBlk := fn.NewBlock("")
	bodyBlk := fn.NewBlock("")
	endBlk := fn.NewBlock("")
	c.block.NewBr(headBlk)

	pred := enum.IPredSLE
	if n.Down {
		pred = enum.IPredSGE
	}

	c.block = headBlk
	cur := c.block.NewLoad(vd.Type.LLVMType(), addr)
	hiVal := c.emitExpr(n.Hi)
	cmp := c.block.NewICmp(pred, cur, hiVal)
	c.block.NewCondBr(cmp, bodyBlk, endBlk)

	c.block = bodyBlk
	c.emitStmt(n.Body)
	if c.block.Term == nil {
		cur2 := c.block.NewLoad(vd.Type.LLVMType(), addr)
		step := constant.NewInt(vd.Type.LLVMType().(*types.IntType), 1)
		var next value.Value = c.block.NewAdd(cur2, step)
		if n.Down {
			next = c.block.NewSub(cur2, step)
		}
		c.block.NewStore(next, addr)
		c.block.NewBr(headBlk)
	}

	c.block = endBlk
}

func (c *Context) emitWhile(n *ast.WhileStmt) {
	fn := c.Fn
	headBlk := fn.NewBlock("")
	bodyBlk := fn.NewBlock("")
	endBlk := fn.NewBlock("")
	c.block.NewBr(headBlk)

	c.block = headBlk
	cond := c.emitExpr(n.Cond)
	c.block.NewCondBr(cond, bodyBlk, endBlk)

	c.block = bodyBlk
	c.emitStmt(n.Body)
	if c.block.Term == nil {
		c.block.NewBr(headBlk)
	}

	c.block = endBlk
}

func (c *Context) emitRepeat(n *ast.RepeatStmt) {
	fn := c.Fn
	bodyBlk := fn.NewBlock("")
	endBlk := fn.NewBlock("")
	c.block.NewBr(bodyBlk)

	c.block = bodyBlk
	for _, sub := range n.Body {
		c.emitStmt(sub)
	}
	if c.block.Term == nil {
		cond := c.emitExpr(n.Cond)
		c.block.NewCondBr(cond, endBlk, bodyBlk)
	}

	c.block = endBlk
}

// emitCase lowers `case selector of ...` to an LLVM switch, one
// destination block per CaseLabel (which itself may carry several
// ordinal values, spec.md §4.6) and the otherwise arm as the switch's
// default.
func (c *Context) emitCase(n *ast.CaseStmt) {
	sel := c.emitExpr(n.Selector)
	fn := c.Fn
	endBlk := fn.NewBlock("")
	defaultBlk := endBlk
	if n.Default != nil {
		defaultBlk = fn.NewBlock("")
	}

	it := sel.Type().(*types.IntType)
	var cases []*ir.Case
	blocks := make([]*ir.Block, len(n.Labels))
	for i, label := range n.Labels {
		blk := fn.NewBlock("")
		blocks[i] = blk
		for _, v := range label.Values {
			cases = append(cases, ir.NewCase(constant.NewInt(it, v), blk))
		}
	}
	c.block.NewSwitch(sel, defaultBlk, cases...)

	for i, label := range n.Labels {
		c.block = blocks[i]
		c.emitStmt(label.Body)
		if c.block.Term == nil {
			c.block.NewBr(endBlk)
		}
	}
	if n.Default != nil {
		c.block = defaultBlk
		c.emitStmt(n.Default)
		if c.block.Term == nil {
			c.block.NewBr(endBlk)
		}
	}

	c.block = endBlk
}

// emitLocalVarDecl allocates stack storage for each local declared
// inside a function body (top-level var blocks go through decl.go
// instead) and binds it into the NameStack.
func (c *Context) emitLocalVarDecl(n *ast.VarDeclStmt) {
	for _, v := range n.Vars {
		c.declareLocal(v)
	}
}

func (c *Context) declareLocal(v *ast.VarDef) value.Value {
	addr := c.block.NewAlloca(v.Type.LLVMType())
	c.NS.Add(v.Name, names.VarDef{Type: v.Type, IsReference: v.IsReference, Addr: addr})
	if ct, ok := v.Type.(*typesys.ClassType); ok {
		c.initVTablePtr(addr, ct)
	}
	return addr
}

func (c *Context) emitWrite(n *ast.WriteStmt) {
	for _, a := range n.Args {
		c.emitWriteArg(a)
	}
	if n.Ln {
		c.block.NewCall(c.RT.Func(runtimeabi.WriteNewline))
	}
}

func (c *Context) emitWriteArg(a ast.WriteArg) {
	v := c.emitExpr(a.Value)
	t := a.Value.Type()
	width := c.writeFmtArg(a.Width, 0)
	prec := c.writeFmtArg(a.Precision, 0)
	switch {
	case t.SameAs(typesys.Real):
		c.block.NewCall(c.RT.Func(runtimeabi.WriteReal), v, width, prec)
	case t.SameAs(typesys.Boolean):
		c.block.NewCall(c.RT.Func(runtimeabi.WriteBool), v, width, prec)
	case t.SameAs(typesys.Char):
		c.block.NewCall(c.RT.Func(runtimeabi.WriteChar), v, width, prec)
	case t.IsIntegral():
		if intBits(t) > 32 {
			c.block.NewCall(c.RT.Func(runtimeabi.WriteInt64), v, width, prec)
		} else {
			c.block.NewCall(c.RT.Func(runtimeabi.WriteInt), c.toI32(v), width, prec)
		}
	default:
		if st, ok := t.(*typesys.StringType); ok {
			addr, ok := a.Value.(ast.Addressable)
			var strAddr value.Value
			if ok {
				strAddr = c.emitAddr(addr)
			} else {
				// A string literal (or any other non-addressable
				// string-valued expression, e.g. a function call) has
				// no storage of its own to point at: spill the value
				// v already holds into a fresh temporary instead.
				strAddr = c.block.NewAlloca(st.LLVMType())
				c.block.NewStore(v, strAddr)
			}
			lenPtr := c.block.NewGetElementPtr(st.LLVMType(), strAddr,
				constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
			lenByte := c.block.NewLoad(types.I8, lenPtr)
			length := c.block.NewZExt(lenByte, types.I32)
			dataPtr := c.block.NewGetElementPtr(st.LLVMType(), strAddr,
				constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1),
				constant.NewInt(types.I32, 0))
			c.block.NewCall(c.RT.Func(runtimeabi.WriteStr), dataPtr, length, width, prec)
			return
		}
		panic("codegen: write() of an unsupported type")
	}
}

// writeFmtArg lowers an optional `:width`/`:precision` clause. Absent
// (e), it passes def, the sentinel meaning "no explicit width" the
// runtime's pascal_write_* entry points use to fall back to their own
// default field width (spec.md §4.6, and see DESIGN.md's write/writeln
// note on why that default lives in the runtime and not here).
func (c *Context) writeFmtArg(e ast.Expr, def int64) value.Value {
	if e == nil {
		return constant.NewInt(types.I32, def)
	}
	return c.toI32(c.emitExpr(e))
}

func (c *Context) emitRead(n *ast.ReadStmt) {
	for _, a := range n.Args {
		addr := c.emitAddr(a)
		t := a.Type()
		switch {
		case t.SameAs(typesys.Real):
			c.block.NewStore(c.block.NewCall(c.RT.Func(runtimeabi.ReadReal)), addr)
		case t.SameAs(typesys.Char):
			c.block.NewStore(c.block.NewCall(c.RT.Func(runtimeabi.ReadChar)), addr)
		case t.IsIntegral():
			if intBits(t) > 32 {
				c.block.NewStore(c.block.NewCall(c.RT.Func(runtimeabi.ReadInt64)), addr)
			} else {
				c.block.NewStore(c.block.NewCall(c.RT.Func(runtimeabi.ReadInt)), addr)
			}
		default:
			panic("codegen: read() of an unsupported type")
		}
	}
	if n.Ln {
		c.block.NewCall(c.RT.Func(runtimeabi.ReadLine))
	}
}
