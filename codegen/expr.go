package codegen

import (
	"fmt"

	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/builtins"
	"github.com/gopascal/pgoc/constfold"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/token"
	"github.com/gopascal/pgoc/typesys"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// emitExpr lowers an rvalue expression to the value.Value it produces,
// the single dispatch point tawago/codegen.go's codegenExpression plays
// for its own AST, generalized to spec.md §4.6's fuller expression set.
func (c *Context) emitExpr(e ast.Expr) value.Value {
	switch n := e.(type) {
	case *ast.IntLit:
		return constant.NewInt(n.Type().LLVMType().(*types.IntType), n.Value)
	case *ast.RealLit:
		return constant.NewFloat(types.Double, n.Value)
	case *ast.CharLit:
		return constant.NewInt(types.I8, int64(n.Value))
	case *ast.StringLit:
		return c.emitStringLit(n)
	case *ast.NilLit:
		return constant.NewNull(types.NewPointer(types.I8))
	case *ast.SetLit:
		return c.emitSetLit(n)
	case *ast.VarExpr:
		return c.loadVar(n)
	case *ast.IndexExpr, *ast.FieldExpr, *ast.DerefExpr, *ast.FileBufferExpr:
		a := e.(ast.Addressable)
		addr := c.emitAddr(a)
		return c.block.NewLoad(a.Type().LLVMType(), addr)
	case *ast.FuncRefExpr:
		return c.lookupFunc(n.Name)
	case *ast.BinaryExpr:
		return c.emitBinary(n)
	case *ast.UnaryExpr:
		return c.emitUnary(n)
	case *ast.InExpr:
		return c.emitIn(n)
	case *ast.CallExpr:
		return c.emitCall(n)
	case *ast.BuiltinCallExpr:
		return c.emitBuiltinCall(n)
	case *ast.SizeofExpr:
		return c.emitSizeof(n)
	case *ast.AddrOfExpr:
		return c.emitAddr(n.Operand)
	default:
		panic(fmt.Sprintf("codegen: unhandled expression %T", e))
	}
}

// loadVar resolves a VarExpr against the NameStack: a genuine variable
// loads from its backend storage, but the same syntax also names
// folded constants and enum values (spec.md §4.2), which have no
// storage at all and lower straight to an LLVM constant.
func (c *Context) loadVar(n *ast.VarExpr) value.Value {
	e, ok := c.NS.Find(n.Name)
	if !ok {
		panic("codegen: undefined variable " + n.Name)
	}
	switch def := e.(type) {
	case names.ConstDef:
		return constToLLVM(def.Value.(constfold.Value))
	case names.EnumDef:
		return constant.NewInt(types.I32, int64(def.Ordinal))
	case names.VarDef:
		addr := c.emitAddr(n)
		return c.block.NewLoad(n.Type().LLVMType(), addr)
	default:
		panic(fmt.Sprintf("codegen: %s does not name a value", n.Name))
	}
}

// constToLLVM lowers an already-folded constant expression value to
// its LLVM constant representation.
func constToLLVM(v constfold.Value) value.Value {
	switch v.Kind {
	case constfold.KindInt, constfold.KindEnum:
		return constant.NewInt(types.I32, v.Int)
	case constfold.KindReal:
		return constant.NewFloat(types.Double, v.Real)
	case constfold.KindBool:
		return constant.NewInt(types.I1, v.Int)
	case constfold.KindChar:
		return constant.NewInt(types.I8, v.Int)
	case constfold.KindString:
		return constant.NewCharArrayFromString(v.Str)
	default:
		panic("codegen: unhandled constant kind")
	}
}

// lookupFunc resolves a function/procedure name to its already
// declared *ir.Func (spec.md §4.6's two-pass toplevel walk guarantees
// every prototype exists before any body is emitted).
func (c *Context) lookupFunc(name string) *ir.Func {
	e, ok := c.NS.Find(name)
	if !ok {
		panic("codegen: undefined function " + name)
	}
	fd, ok := e.(names.FuncDef)
	if !ok {
		panic("codegen: " + name + " is not callable")
	}
	return fd.Backend.(*ir.Func)
}

// emitStringLit materializes a string literal as a length-prefixed
// struct value: an interned global holding the raw bytes, copied field
// by field into a fresh stack temporary (spec.md §3.2/§4.6).
func (c *Context) emitStringLit(n *ast.StringLit) value.Value {
	st, ok := n.Type().(*typesys.StringType)
	if !ok {
		return constant.NewCharArrayFromString(n.Value)
	}
	tmp := c.block.NewAlloca(st.LLVMType())
	lenPtr := c.block.NewGetElementPtr(st.LLVMType(), tmp,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	c.block.NewStore(constant.NewInt(types.I8, int64(len(n.Value))), lenPtr)
	bytesPtr := c.block.NewGetElementPtr(st.LLVMType(), tmp,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1))
	for i := 0; i < len(n.Value) && i < st.Capacity; i++ {
		charPtr := c.block.NewGetElementPtr(types.NewArray(uint64(st.Capacity), types.I8), bytesPtr,
			constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(i)))
		c.block.NewStore(constant.NewInt(types.I8, int64(n.Value[i])), charPtr)
	}
	return c.block.NewLoad(st.LLVMType(), tmp)
}

// emitSetLit builds a set value in a stack temporary, OR-ing in each
// element's bit one at a time (spec.md §3.2, §4.6): a plain element
// sets one bit, a range sets every bit between its endpoints.
func (c *Context) emitSetLit(n *ast.SetLit) value.Value {
	st, ok := n.Type().(*typesys.SetType)
	if !ok {
		panic("codegen: set literal without a set type")
	}
	tmp := c.block.NewAlloca(st.LLVMType())
	c.block.NewStore(constant.NewZeroInitializer(st.LLVMType()), tmp)
	for _, elem := range n.Elements {
		if rng, ok := elem.(*ast.RangeExpr); ok {
			c.emitSetRange(tmp, st, rng)
			continue
		}
		c.emitSetBit(tmp, st, c.toI32(c.emitExpr(elem)))
	}
	return c.block.NewLoad(st.LLVMType(), tmp)
}

func (c *Context) emitSetBit(alloc value.Value, st *typesys.SetType, ordinal value.Value) {
	rel := c.block.NewSub(ordinal, constant.NewInt(types.I32, st.Range.Lo))
	wordIdx := c.block.NewSDiv(rel, constant.NewInt(types.I32, typesys.SetBits))
	bitIdx := c.block.NewSRem(rel, constant.NewInt(types.I32, typesys.SetBits))
	wordPtr := c.block.NewGetElementPtr(st.LLVMType(), alloc,
		constant.NewInt(types.I32, 0), wordIdx)
	word := c.block.NewLoad(types.NewInt(typesys.SetBits), wordPtr)
	one := constant.NewInt(types.NewInt(typesys.SetBits), 1)
	mask := c.block.NewShl(one, bitIdx)
	c.block.NewStore(c.block.NewOr(word, mask), wordPtr)
}

// emitSetRange lowers `lo..hi` inside a set constructor. Constant
// bounds unroll at compile time (the common case: enum/char/int
// literals); dynamic bounds fall back to a small counted loop.
func (c *Context) emitSetRange(alloc value.Value, st *typesys.SetType, rng *ast.RangeExpr) {
	lo, loOK := constOrdinal(rng.Lo)
	hi, hiOK := constOrdinal(rng.Hi)
	if loOK && hiOK {
		for v := lo; v <= hi; v++ {
			c.emitSetBit(alloc, st, constant.NewInt(types.I32, v))
		}
		return
	}
	loVal := c.toI32(c.emitExpr(rng.Lo))
	hiVal := c.toI32(c.emitExpr(rng.Hi))
	fn := c.Fn
	loopHead := fn.NewBlock("")
	loopBody := fn.NewBlock("")
	loopExit := fn.NewBlock("")
	cur := c.block.NewAlloca(types.I32)
	c.block.NewStore(loVal, cur)
	c.block.NewBr(loopHead)

	c.block = loopHead
	curVal := c.block.NewLoad(types.I32, cur)
	cond := c.block.NewICmp(enum.IPredSLE, curVal, hiVal)
	c.block.NewCondBr(cond, loopBody, loopExit)

	c.block = loopBody
	c.emitSetBit(alloc, st, curVal)
	next := c.block.NewAdd(curVal, constant.NewInt(types.I32, 1))
	c.block.NewStore(next, cur)
	c.block.NewBr(loopHead)

	c.block = loopExit
}

func constOrdinal(e ast.Expr) (int64, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		return n.Value, true
	case *ast.CharLit:
		return int64(n.Value), true
	}
	return 0, false
}

// emitBinary lowers arithmetic, comparison, and logical operators
// (spec.md §4.6): arithmetic and comparisons widen mismatched operand
// types via widenValue/resultNumericType first, and/or/xor operate
// directly on the (already-boolean) i1 operands.
func (c *Context) emitBinary(n *ast.BinaryExpr) value.Value {
	switch n.Op {
	case token.KwAnd:
		return c.block.NewAnd(c.emitExpr(n.Left), c.emitExpr(n.Right))
	case token.KwOr:
		return c.block.NewOr(c.emitExpr(n.Left), c.emitExpr(n.Right))
	case token.KwXor:
		return c.block.NewXor(c.emitExpr(n.Left), c.emitExpr(n.Right))
	}

	lt, rt := n.Left.Type(), n.Right.Type()
	l, r := c.emitExpr(n.Left), c.emitExpr(n.Right)

	switch n.Op {
	case token.Equal, token.NotEqual, token.Less, token.LessEq, token.Greater, token.GreaterEq:
		return c.emitCompare(n.Op, l, r, lt, rt)
	}

	real := lt.SameAs(typesys.Real) || rt.SameAs(typesys.Real)
	if n.Op == token.Slash {
		real = true
	}
	if real {
		l = widenValue(c.block, l, lt, typesys.Real)
		r = widenValue(c.block, r, rt, typesys.Real)
		switch n.Op {
		case token.Plus:
			return c.block.NewFAdd(l, r)
		case token.Minus:
			return c.block.NewFSub(l, r)
		case token.Star:
			return c.block.NewFMul(l, r)
		case token.Slash:
			return c.block.NewFDiv(l, r)
		}
		panic("codegen: unhandled real binary operator")
	}

	rn := resultNumericType(lt, rt)
	l = widenValue(c.block, l, lt, rn)
	r = widenValue(c.block, r, rt, rn)
	switch n.Op {
	case token.Plus:
		return c.block.NewAdd(l, r)
	case token.Minus:
		return c.block.NewSub(l, r)
	case token.Star:
		return c.block.NewMul(l, r)
	case token.KwDiv:
		return c.block.NewSDiv(l, r)
	case token.KwMod:
		return c.block.NewSRem(l, r)
	default:
		panic("codegen: unhandled integer binary operator")
	}
}

func (c *Context) emitCompare(op token.Kind, l, r value.Value, lt, rt typesys.Type) value.Value {
	if lt.SameAs(typesys.Real) || rt.SameAs(typesys.Real) {
		l = widenValue(c.block, l, lt, typesys.Real)
		r = widenValue(c.block, r, rt, typesys.Real)
		return c.block.NewFCmp(fpred(op), l, r)
	}
	if lt.IsIntegral() || rt.IsIntegral() {
		rn := resultNumericType(lt, rt)
		l = widenValue(c.block, l, lt, rn)
		r = widenValue(c.block, r, rt, rn)
	}
	return c.block.NewICmp(ipred(op), l, r)
}

func fpred(op token.Kind) enum.FPred {
	switch op {
	case token.Equal:
		return enum.FPredOEQ
	case token.NotEqual:
		return enum.FPredONE
	case token.Less:
		return enum.FPredOLT
	case token.LessEq:
		return enum.FPredOLE
	case token.Greater:
		return enum.FPredOGT
	case token.GreaterEq:
		return enum.FPredOGE
	}
	panic("codegen: unhandled comparison operator")
}

func ipred(op token.Kind) enum.IPred {
	switch op {
	case token.Equal:
		return enum.IPredEQ
	case token.NotEqual:
		return enum.IPredNE
	case token.Less:
		return enum.IPredSLT
	case token.LessEq:
		return enum.IPredSLE
	case token.Greater:
		return enum.IPredSGT
	case token.GreaterEq:
		return enum.IPredSGE
	}
	panic("codegen: unhandled comparison operator")
}

func (c *Context) emitUnary(n *ast.UnaryExpr) value.Value {
	v := c.emitExpr(n.Operand)
	switch n.Op {
	case token.Minus:
		if n.Type().SameAs(typesys.Real) {
			return c.block.NewFSub(constant.NewFloat(types.Double, 0), v)
		}
		it := v.Type().(*types.IntType)
		return c.block.NewSub(constant.NewInt(it, 0), v)
	case token.Plus:
		return v
	case token.KwNot:
		return c.block.NewXor(v, constant.NewInt(types.I1, 1))
	default:
		panic("codegen: unhandled unary operator")
	}
}

// emitIn lowers `elem in setExpr` to an inline bit test (spec.md §4.6),
// rather than a runtime call, since both the word index and the bit
// mask are cheap to compute at the call site.
func (c *Context) emitIn(n *ast.InExpr) value.Value {
	st, ok := n.Set.Type().(*typesys.SetType)
	if !ok {
		panic("codegen: `in` requires a set operand")
	}
	setVal := c.emitExpr(n.Set)
	tmp := c.block.NewAlloca(st.LLVMType())
	c.block.NewStore(setVal, tmp)

	elem := c.toI32(c.emitExpr(n.Elem))
	rel := c.block.NewSub(elem, constant.NewInt(types.I32, st.Range.Lo))
	wordIdx := c.block.NewSDiv(rel, constant.NewInt(types.I32, typesys.SetBits))
	bitIdx := c.block.NewSRem(rel, constant.NewInt(types.I32, typesys.SetBits))
	wordPtr := c.block.NewGetElementPtr(st.LLVMType(), tmp,
		constant.NewInt(types.I32, 0), wordIdx)
	word := c.block.NewLoad(types.NewInt(typesys.SetBits), wordPtr)
	one := constant.NewInt(types.NewInt(typesys.SetBits), 1)
	mask := c.block.NewShl(one, bitIdx)
	bit := c.block.NewAnd(word, mask)
	return c.block.NewICmp(enum.IPredNE, bit, constant.NewInt(types.NewInt(typesys.SetBits), 0))
}

// emitCall lowers a call to a user-defined procedure/function,
// evaluating each argument by value or, for a by-reference parameter,
// by taking its address instead (spec.md §4.5/§4.6 — this is also how
// a closure-converted call passes its synthesized capture arguments,
// since the rewrite pass has already appended matching Addressable
// VarExpr nodes to Args).
func (c *Context) emitCall(n *ast.CallExpr) value.Value {
	var fn value.Value
	if desc := virtualMethod(n.Prototype); desc != nil {
		fn = c.emitVTableLoad(n.Prototype.BaseClass, c.emitExpr(n.Args[0]), desc)
	} else {
		fn = c.emitCallee(n)
	}
	var args []value.Value
	for i, a := range n.Args {
		if i < len(n.Prototype.Params) && n.Prototype.Params[i].IsReference {
			args = append(args, c.emitAddr(a.(ast.Addressable)))
			continue
		}
		args = append(args, c.emitExpr(a))
	}
	call := c.block.NewCall(fn, args...)
	if !n.Prototype.IsFunction() {
		return nil
	}
	return call
}

// virtualMethod reports whether calling proto (a method call, i.e.
// proto.BaseClass != nil) must dispatch dynamically, and if so returns
// the MethodDesc naming its stable vtable slot (spec.md §4.7).
func virtualMethod(proto *ast.Prototype) *typesys.MethodDesc {
	if proto == nil || proto.BaseClass == nil {
		return nil
	}
	_, desc := proto.BaseClass.FindMethod(proto.Name)
	if desc != nil && (desc.IsVirtual || desc.IsOverride) {
		return desc
	}
	return nil
}

// emitVTableLoad reads self's vtable pointer and loads the function
// pointer at desc's stable slot — self's static type (proto.BaseClass)
// fixes the vtable layout being indexed, per spec.md §4.7's "overrides
// reuse the ancestor's slot" invariant.
func (c *Context) emitVTableLoad(ct *typesys.ClassType, self value.Value, desc *typesys.MethodDesc) value.Value {
	vtablePtrPtr := c.block.NewGetElementPtr(ct.LLVMType(), self,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	vtablePtr := c.block.NewLoad(types.NewPointer(ct.VTable.LLVMType()), vtablePtrPtr)
	slotPtr := c.block.NewGetElementPtr(ct.VTable.LLVMType(), vtablePtr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(desc.VTableSlot)))
	slotType := ct.VTable.LLVMType().(*types.StructType).Fields[desc.VTableSlot]
	return c.block.NewLoad(slotType, slotPtr)
}

func (c *Context) emitCallee(n *ast.CallExpr) value.Value {
	if name, ok := n.Callee.(*ast.FuncRefExpr); ok {
		return c.lookupFunc(name.Name)
	}
	// A procedural-type value (spec.md §3.3): already an *ir.Func
	// pointer produced by some other expression.
	return c.emitExpr(n.Callee)
}

func (c *Context) emitBuiltinCall(n *ast.BuiltinCallExpr) value.Value {
	args := make([]builtins.Arg, len(n.Args))
	for i, a := range n.Args {
		arg := builtins.Arg{Value: c.emitExpr(a), Type: a.Type()}
		if addressable, ok := a.(ast.Addressable); ok {
			arg.Addr = c.emitAddr(addressable)
		}
		args[i] = arg
	}
	result := builtins.Call(c, n.Name, args)
	if n.Name == "new" {
		c.initNewedVTablePtr(args[0])
	}
	return result
}

// initNewedVTablePtr sets the vtable pointer of an object new()
// allocated, when its pointer target is a virtual-bearing class:
// emitNew already stored the fresh heap pointer back into the pointer
// variable's own storage, so it is loaded once more from there (spec.md
// §4.7, §4.8).
func (c *Context) initNewedVTablePtr(pointerArg builtins.Arg) {
	pt, ok := pointerArg.Type.(*typesys.PointerType)
	if !ok {
		return
	}
	ct, ok := pt.Target.(*typesys.ClassType)
	if !ok || !ct.HasVirtuals() {
		return
	}
	obj := c.block.NewLoad(pt.LLVMType(), pointerArg.Addr)
	c.initVTablePtr(obj, ct)
}

func (c *Context) emitSizeof(n *ast.SizeofExpr) value.Value {
	var t typesys.Type
	if n.OperandType != nil {
		t = n.OperandType
	} else {
		t = n.Operand.Type()
	}
	return constant.NewInt(types.I64, t.Size())
}
