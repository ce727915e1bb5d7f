package codegen

import (
	"fmt"

	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/typesys"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// emitAddr computes the storage address of an addressable expression:
// a pointer to a's value, suitable for a load, a store, or an @
// (spec.md §4.6's "designator chain" of index/field/deref steps).
func (c *Context) emitAddr(a ast.Addressable) value.Value {
	switch n := a.(type) {
	case *ast.VarExpr:
		addr, _, _ := c.lookupVar(n.Name)
		// A by-reference parameter's incoming value already is the
		// caller's variable's address (bindParams binds it straight
		// from the pointer-typed ir.Param, no extra alloca): addr is
		// the variable's storage either way, by-reference or not.
		return addr
	case *ast.IndexExpr:
		return c.emitIndexAddr(n)
	case *ast.FieldExpr:
		return c.emitFieldAddr(n)
	case *ast.DerefExpr:
		return c.emitExpr(n.Base)
	case *ast.FileBufferExpr:
		return c.emitFileBufferAddr(n)
	case *ast.FuncRefExpr:
		panic("codegen: cannot take the address of a function reference " + n.Name)
	default:
		panic(fmt.Sprintf("codegen: unhandled addressable %T", a))
	}
}

// emitIndexAddr lowers `base[i1, i2, ...]` to a single
// getelementptr, reducing a multi-dimensional index to one flat offset
// using each dimension's stride (spec.md §4.6, typesys.ArrayType's
// DimensionStride).
func (c *Context) emitIndexAddr(n *ast.IndexExpr) value.Value {
	baseAddr := c.emitAddr(n.Base)
	arr, ok := n.Base.Type().(*typesys.ArrayType)
	if !ok {
		if st, ok := n.Base.Type().(*typesys.StringType); ok {
			idx := c.emitExpr(n.Indices[0])
			one := constant.NewInt(types.I32, 1) // index 0 is the length byte
			off := c.block.NewAdd(c.toI32(idx), one)
			return c.block.NewGetElementPtr(st.LLVMType(), baseAddr,
				constant.NewInt(types.I32, 0), off)
		}
		panic("codegen: index base is neither an array nor a string")
	}
	offset := constant.NewInt(types.I64, 0)
	var offsetVal value.Value = offset
	for i, idxExpr := range n.Indices {
		rng := arr.Indices[i]
		v := c.toI64(c.emitExpr(idxExpr))
		if rng.Lo != 0 {
			v = c.block.NewSub(v, constant.NewInt(types.I64, rng.Lo))
		}
		stride := arr.DimensionStride(i)
		scaled := c.block.NewMul(v, constant.NewInt(types.I64, stride))
		offsetVal = c.block.NewAdd(offsetVal, scaled)
	}
	return c.block.NewGetElementPtr(arr.Elem.LLVMType(), c.decayArray(baseAddr, arr), offsetVal)
}

// decayArray computes a pointer to element zero of an [N x T] array
// value stored at addr, the way `array[0]` decays to `T*` in C.
func (c *Context) decayArray(addr value.Value, arr *typesys.ArrayType) value.Value {
	return c.block.NewGetElementPtr(arr.LLVMType(), addr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
}

// emitFieldAddr lowers `base.Name` for both plain records/classes and
// variant alternative fields.
func (c *Context) emitFieldAddr(n *ast.FieldExpr) value.Value {
	baseAddr := c.emitAddr(n.Base)
	switch t := n.Base.Type().(type) {
	case *typesys.RecordType:
		if idx := t.FieldIndex(n.Name); idx >= 0 {
			return c.block.NewGetElementPtr(t.LLVMType(), baseAddr,
				constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(idx)))
		}
		return c.emitVariantFieldAddr(baseAddr, t, n.Name)
	case *typesys.ClassType:
		if idx := t.FieldIndex(n.Name); idx >= 0 {
			return c.block.NewGetElementPtr(t.LLVMType(), baseAddr,
				constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(idx)))
		}
		panic("codegen: unknown field " + n.Name + " on class " + t.Name)
	default:
		panic(fmt.Sprintf("codegen: field access on non-record type %s", t.String()))
	}
}

// emitVariantFieldAddr steps into a record's trailing variant tail —
// its own field slot, then (if the field's alternative is not the
// widest one) a bitcast into that alternative's anonymous layout
// (spec.md §3.2/§4.6).
func (c *Context) emitVariantFieldAddr(recAddr value.Value, rec *typesys.RecordType, name string) value.Value {
	v := rec.Variant
	variantIdx := len(rec.Fields) - countStatic(rec.Fields)
	variantPtr := c.block.NewGetElementPtr(rec.LLVMType(), recAddr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(variantIdx)))
	for altIdx, alt := range v.Alts {
		fieldIdx := v.AltFieldIndex(altIdx, name)
		if fieldIdx < 0 {
			continue
		}
		var target value.Value = variantPtr
		if v.AltIsAnonymous(altIdx) {
			altStruct := altStructType(alt)
			target = c.block.NewBitCast(variantPtr, types.NewPointer(altStruct))
		}
		altStruct := altStructType(alt)
		return c.block.NewGetElementPtr(altStruct, target,
			constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(fieldIdx)))
	}
	panic("codegen: unknown variant field " + name)
}

func altStructType(fields []*typesys.FieldType) types.Type {
	var members []types.Type
	for _, f := range fields {
		members = append(members, f.LLVMType())
	}
	return types.NewStruct(members...)
}

func countStatic(fields []*typesys.FieldType) int {
	n := 0
	for _, f := range fields {
		if f.IsStatic {
			n++
		}
	}
	return n
}

// emitFileBufferAddr lowers `f^` where f is a file variable: a pointer
// to the runtime file struct's Buffer field (spec.md §4.6).
func (c *Context) emitFileBufferAddr(n *ast.FileBufferExpr) value.Value {
	fileAddr := c.emitAddr(n.File)
	ft := n.File.Type().(*typesys.FileType)
	bufPtrPtr := c.block.NewGetElementPtr(ft.LLVMType(), fileAddr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, typesys.BufferFieldIndex))
	return c.block.NewLoad(types.NewPointer(ft.Elem.LLVMType()), bufPtrPtr)
}
