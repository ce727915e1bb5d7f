package codegen

import (
	"github.com/gopascal/pgoc/typesys"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func stringConstant(s string) constant.Constant {
	if s == "" {
		return constant.NewCharArrayFromString("\x00")
	}
	return constant.NewCharArrayFromString(s)
}

// widenValue coerces v (of Pascal type from) to Pascal type to's
// backend representation, implementing the "narrower integer meets
// wider integer or real, result type is the wider" rule that
// assignments and binary arithmetic both rely on (spec.md §4.1/§4.6).
func widenValue(b *ir.Block, v value.Value, from, to typesys.Type) value.Value {
	if from.SameAs(to) {
		return v
	}
	if to.SameAs(typesys.Real) {
		if from.SameAs(typesys.Real) {
			return v
		}
		return b.NewSIToFP(v, types.Double)
	}
	fromBits := intBits(from)
	toBits := intBits(to)
	if fromBits == 0 || toBits == 0 || fromBits == toBits {
		return v
	}
	if fromBits < toBits {
		return b.NewSExt(v, types.NewInt(uint64(toBits)))
	}
	return b.NewTrunc(v, types.NewInt(uint64(toBits)))
}

// intBits returns t's integer bit width, or 0 if t is not integral.
func intBits(t typesys.Type) int64 {
	if !t.IsIntegral() {
		return 0
	}
	return t.Size() * 8
}

// resultNumericType applies spec.md's widening rule to pick the type a
// binary arithmetic expression between two operand types produces.
func resultNumericType(l, r typesys.Type) typesys.Type {
	if l.SameAs(typesys.Real) || r.SameAs(typesys.Real) {
		return typesys.Real
	}
	if intBits(l) >= intBits(r) {
		return l
	}
	return r
}

// toI32/toI64 coerce an already-integral value to exactly that many
// bits, used when a Pascal array/set index (of whatever declared
// ordinal width) needs to feed a getelementptr offset.
func (c *Context) toI32(v value.Value) value.Value { return c.toIntWidth(v, 32) }
func (c *Context) toI64(v value.Value) value.Value { return c.toIntWidth(v, 64) }

func (c *Context) toIntWidth(v value.Value, bits int64) value.Value {
	it, ok := v.Type().(*types.IntType)
	if !ok {
		panic("codegen: expected an integer value")
	}
	switch {
	case int64(it.BitSize) == bits:
		return v
	case int64(it.BitSize) < bits:
		return c.block.NewSExt(v, types.NewInt(uint64(bits)))
	default:
		return c.block.NewTrunc(v, types.NewInt(uint64(bits)))
	}
}
