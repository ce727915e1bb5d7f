package typesys

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// RangeType is an integral subrange with a base tag, e.g. `1..10` or a
// named subrange of an enum. Its backend representation is always its
// base type's representation; the bounds are compile-time metadata used
// for compatibility/assignability and case-coverage checks, not a
// distinct runtime layout.
type RangeType struct {
	base
	Base Type // Integer, Int64, Char, or an *EnumType
	Lo   int64
	Hi   int64
}

func NewRange(baseType Type, lo, hi int64) *RangeType {
	return &RangeType{Base: baseType, Lo: lo, Hi: hi}
}

func (t *RangeType) Kind() Kind          { return KindRange }
func (t *RangeType) LLVMType() types.Type {
	return t.memo(func() types.Type { return t.Base.LLVMType() })
}
func (t *RangeType) Size() int64  { return t.Base.Size() }
func (t *RangeType) Align() int64 { return t.Base.Align() }
func (t *RangeType) SameAs(o Type) bool {
	r, ok := o.(*RangeType)
	return ok && r.Base.SameAs(t.Base) && r.Lo == t.Lo && r.Hi == t.Hi
}
func (t *RangeType) IsIntegral() bool { return true }
func (t *RangeType) IsCompound() bool { return false }
func (t *RangeType) SubType() Type    { return nil }
func (t *RangeType) GetRange() (int64, int64, bool) { return t.Lo, t.Hi, true }
func (t *RangeType) Initializer() (constant.Constant, bool) {
	// If the base type's natural zero value (0) falls outside [Lo, Hi],
	// the variable's initial image must be Lo instead.
	if t.Lo <= 0 && 0 <= t.Hi {
		return nil, false
	}
	c := constant.NewInt(t.Base.LLVMType().(*types.IntType), t.Lo)
	return c, true
}
func (t *RangeType) String() string { return fmt.Sprintf("%d..%d", t.Lo, t.Hi) }

// CompatibleWith implements: "two types are compatible if one is a
// subrange of the other's base".
func (t *RangeType) CompatibleWith(o Type) bool {
	if o.SameAs(t) {
		return true
	}
	if o.SameAs(t.Base) {
		return true
	}
	if r, ok := o.(*RangeType); ok {
		return r.Base.SameAs(t.Base)
	}
	return compatibleNumeric(t.Base, o)
}

// AssignableFrom implements: both integral with T a sub-range of L's
// base and the subrange bounds statically checkable.
func (t *RangeType) AssignableFrom(o Type) bool {
	if o.SameAs(t) {
		return true
	}
	if r, ok := o.(*RangeType); ok {
		if !r.Base.SameAs(t.Base) {
			return false
		}
		return r.Lo >= t.Lo && r.Hi <= t.Hi
	}
	if o.SameAs(t.Base) {
		return true // width known only at run time; range-checked elsewhere
	}
	return false
}

// Within reports whether v is a legal value of the subrange.
func (t *RangeType) Within(v int64) bool { return v >= t.Lo && v <= t.Hi }
