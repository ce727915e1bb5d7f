// Package builtins is the table of predeclared Pascal routines pgoc
// treats specially rather than resolving through the ordinary
// NameStack (spec.md §3.3, §4.8): abs, sqr, odd, sqrt, sin, cos, ord,
// chr, succ, pred, length, new, dispose, assign, reset, rewrite,
// close, eof, eoln, inc, dec. Each entry emits LLVM IR for a call once
// its arguments are already evaluated; Call does not check the number
// or the types of those arguments;
// this keeps codegen's expression emitter from growing one giant
// switch and matches how tawago's addBuiltins isolates runtime
// intrinsics from the rest of codegen.go.
package builtins

import (
	"fmt"

	"github.com/gopascal/pgoc/runtimeabi"
	"github.com/gopascal/pgoc/typesys"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Names is the set of identifiers Call handles. The parser keeps its
// own copy of this set (builtinNames in parser/expr.go) to recognize a
// call to an undeclared name as a builtin.
var Names = map[string]bool{
	"abs": true, "sqr": true, "odd": true, "sqrt": true, "sin": true, "cos": true,
	"ord": true, "chr": true, "succ": true, "pred": true, "length": true,
	"new": true, "dispose": true,
	"assign": true, "reset": true, "rewrite": true, "close": true, "eof": true, "eoln": true,
	"inc": true, "dec": true,
}

// Arg is one already-evaluated call argument: its LLVM value, its
// Pascal type, and — for the handful of builtins that mutate their
// operand (new/dispose/inc/dec/read-style assign targets) — the
// address of its storage.
type Arg struct {
	Value value.Value
	Type  typesys.Type
	Addr  value.Value // nil if the argument is not addressable
}

// Emitter is the subset of codegen's block-building surface a builtin
// needs. codegen.Context implements it; builtins never imports
// codegen, avoiding an import cycle while still being able to open
// new basic blocks (sqrt/sin/cos need none, but a future builtin
// might).
type Emitter interface {
	Block() *ir.Block
	Runtime() *runtimeabi.Registry
}

// Call emits IR for a call to name with the given already-evaluated
// arguments, returning the result value (nil for a builtin with a
// void result, e.g. inc/dispose/close).
func Call(e Emitter, name string, args []Arg) value.Value {
	b := e.Block()
	rt := e.Runtime()
	switch name {
	case "abs":
		return emitAbs(b, args[0])
	case "sqr":
		return emitSqr(b, args[0])
	case "odd":
		v := args[0].Value
		bit := b.NewAnd(v, constant.NewInt(v.Type().(*types.IntType), 1))
		return b.NewICmp(enum.IPredNE, bit, constant.NewInt(v.Type().(*types.IntType), 0))
	case "sqrt":
		return b.NewCall(rt.Func(runtimeabi.Sqrt), toReal(b, args[0]))
	case "sin":
		return b.NewCall(rt.Func(runtimeabi.Sin), toReal(b, args[0]))
	case "cos":
		return b.NewCall(rt.Func(runtimeabi.Cos), toReal(b, args[0]))
	case "ord":
		return emitOrd(b, args[0])
	case "chr":
		return b.NewTrunc(args[0].Value, types.I8)
	case "succ":
		return b.NewAdd(args[0].Value, constant.NewInt(args[0].Value.Type().(*types.IntType), 1))
	case "pred":
		return b.NewSub(args[0].Value, constant.NewInt(args[0].Value.Type().(*types.IntType), 1))
	case "length":
		return emitLength(b, args[0])
	case "new":
		return emitNew(b, rt, args[0])
	case "dispose":
		emitDispose(b, rt, args[0])
		return nil
	case "inc":
		return emitIncDec(b, args, 1)
	case "dec":
		return emitIncDec(b, args, -1)
	case "assign":
		emitFileCall(b, rt, runtimeabi.FileAssign, args)
		return nil
	case "reset":
		emitFileCall(b, rt, runtimeabi.FileReset, args)
		return nil
	case "rewrite":
		emitFileCall(b, rt, runtimeabi.FileRewrite, args)
		return nil
	case "close":
		emitFileCall(b, rt, runtimeabi.FileClose, args)
		return nil
	case "eof":
		return emitFileCall(b, rt, runtimeabi.FileEof, args)
	case "eoln":
		return emitFileCall(b, rt, runtimeabi.FileEoln, args)
	default:
		panic(fmt.Sprintf("builtins: unhandled builtin %q", name))
	}
}

func emitAbs(b *ir.Block, a Arg) value.Value {
	if a.Type.SameAs(typesys.Real) {
		zero := constant.NewFloat(types.Double, 0)
		neg := b.NewFSub(zero, a.Value)
		cmp := b.NewFCmp(enum.FPredOLT, a.Value, zero)
		return b.NewSelect(cmp, neg, a.Value)
	}
	it := a.Value.Type().(*types.IntType)
	zero := constant.NewInt(it, 0)
	neg := b.NewSub(zero, a.Value)
	cmp := b.NewICmp(enum.IPredSLT, a.Value, zero)
	return b.NewSelect(cmp, neg, a.Value)
}

func emitSqr(b *ir.Block, a Arg) value.Value {
	if a.Type.SameAs(typesys.Real) {
		return b.NewFMul(a.Value, a.Value)
	}
	return b.NewMul(a.Value, a.Value)
}

func toReal(b *ir.Block, a Arg) value.Value {
	if a.Type.SameAs(typesys.Real) {
		return a.Value
	}
	return b.NewSIToFP(a.Value, types.Double)
}

// emitOrd returns an argument's ordinal as a 32-bit integer: integral
// types are already their own ordinal (narrower values are
// zero-extended); enum values are already backed by i32.
func emitOrd(b *ir.Block, a Arg) value.Value {
	if it, ok := a.Value.Type().(*types.IntType); ok && it.BitSize == 32 {
		return a.Value
	}
	return b.NewZExt(a.Value, types.I32)
}

// emitLength returns a string argument's stored length byte,
// zero-extended to i32 (spec.md §4.8).
func emitLength(b *ir.Block, a Arg) value.Value {
	st, ok := a.Type.(*typesys.StringType)
	if !ok {
		panic("builtins: length() requires a string argument")
	}
	lenPtr := b.NewGetElementPtr(st.LLVMType(), a.Addr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	lenByte := b.NewLoad(types.I8, lenPtr)
	return b.NewZExt(lenByte, types.I32)
}

// emitNew allocates storage for the pointer argument's target type and
// stores the result back into the pointer variable (spec.md §4.8).
func emitNew(b *ir.Block, rt *runtimeabi.Registry, a Arg) value.Value {
	pt, ok := a.Type.(*typesys.PointerType)
	if !ok {
		panic("builtins: new() requires a pointer argument")
	}
	size := constant.NewInt(types.I64, pt.Target.Size())
	raw := b.NewCall(rt.Func(runtimeabi.Malloc), size)
	casted := b.NewBitCast(raw, pt.LLVMType())
	b.NewStore(casted, a.Addr)
	return nil
}

func emitDispose(b *ir.Block, rt *runtimeabi.Registry, a Arg) {
	casted := b.NewBitCast(a.Value, types.NewPointer(types.I8))
	b.NewCall(rt.Func(runtimeabi.Free), casted)
}

// emitIncDec implements inc(x)/inc(x, n)/dec(x)/dec(x, n): a
// load-add-store on x's storage, using n (default 1) scaled by sign.
func emitIncDec(b *ir.Block, args []Arg, sign int64) value.Value {
	x := args[0]
	var step value.Value = constant.NewInt(types.I32, sign)
	if len(args) > 1 {
		it := x.Value.Type().(*types.IntType)
		n := args[1].Value
		if sign < 0 {
			n = b.NewSub(constant.NewInt(it, 0), n)
		}
		step = n
	}
	updated := b.NewAdd(x.Value, step)
	b.NewStore(updated, x.Addr)
	return nil
}

func emitFileCall(b *ir.Block, rt *runtimeabi.Registry, name runtimeabi.Name, args []Arg) value.Value {
	var vals []value.Value
	for _, a := range args {
		vals = append(vals, a.Value)
	}
	return b.NewCall(rt.Func(name), vals...)
}
