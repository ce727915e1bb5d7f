package typesys

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// IntegerType is Pascal's 32-bit `integer`.
type IntegerType struct{ base }

// Int64Type is the 64-bit integer extension used by `int64`-typed
// declarations and by widened arithmetic results.
type Int64Type struct{ base }

// RealType is the IEEE double `real`.
type RealType struct{ base }

// CharType is a single byte character.
type CharType struct{ base }

// BooleanType is a one-bit-backed boolean.
type BooleanType struct{ base }

// VoidType is the result type of a procedure.
type VoidType struct{ base }

var (
	Integer = &IntegerType{}
	Int64   = &Int64Type{}
	Real    = &RealType{}
	Char    = &CharType{}
	Boolean = &BooleanType{}
	Void    = &VoidType{}
)

func (t *IntegerType) Kind() Kind      { return KindInteger }
func (t *IntegerType) LLVMType() types.Type {
	return t.memo(func() types.Type { return types.NewInt(32) })
}
func (t *IntegerType) Size() int64                      { return 4 }
func (t *IntegerType) Align() int64                      { return 4 }
func (t *IntegerType) SameAs(o Type) bool                { return o == Type(t) }
func (t *IntegerType) IsIntegral() bool                  { return true }
func (t *IntegerType) IsCompound() bool                  { return false }
func (t *IntegerType) SubType() Type                     { return nil }
func (t *IntegerType) GetRange() (int64, int64, bool)    { return -(1 << 31), (1 << 31) - 1, true }
func (t *IntegerType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *IntegerType) String() string                    { return "integer" }
func (t *IntegerType) CompatibleWith(o Type) bool         { return compatibleNumeric(t, o) }
func (t *IntegerType) AssignableFrom(o Type) bool         { return assignableToIntegral(t, o) }

func (t *Int64Type) Kind() Kind { return KindInt64 }
func (t *Int64Type) LLVMType() types.Type {
	return t.memo(func() types.Type { return types.NewInt(64) })
}
func (t *Int64Type) Size() int64                      { return 8 }
func (t *Int64Type) Align() int64                      { return 8 }
func (t *Int64Type) SameAs(o Type) bool                { return o == Type(t) }
func (t *Int64Type) IsIntegral() bool                  { return true }
func (t *Int64Type) IsCompound() bool                  { return false }
func (t *Int64Type) SubType() Type                     { return nil }
func (t *Int64Type) GetRange() (int64, int64, bool)    { return -(1 << 63), (1 << 63) - 1, true }
func (t *Int64Type) Initializer() (constant.Constant, bool) { return nil, false }
func (t *Int64Type) String() string                    { return "int64" }
func (t *Int64Type) CompatibleWith(o Type) bool         { return compatibleNumeric(t, o) }
func (t *Int64Type) AssignableFrom(o Type) bool         { return assignableToIntegral(t, o) }

func (t *RealType) Kind() Kind { return KindReal }
func (t *RealType) LLVMType() types.Type {
	return t.memo(func() types.Type { return types.Double })
}
func (t *RealType) Size() int64                   { return 8 }
func (t *RealType) Align() int64                   { return 8 }
func (t *RealType) SameAs(o Type) bool             { return o == Type(t) }
func (t *RealType) IsIntegral() bool               { return false }
func (t *RealType) IsCompound() bool               { return false }
func (t *RealType) SubType() Type                  { return nil }
func (t *RealType) GetRange() (int64, int64, bool) { return 0, 0, false }
func (t *RealType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *RealType) String() string { return "real" }
func (t *RealType) CompatibleWith(o Type) bool {
	return o.SameAs(Real) || o.IsIntegral()
}
func (t *RealType) AssignableFrom(o Type) bool {
	return o.SameAs(Real) || o.IsIntegral()
}

func (t *CharType) Kind() Kind { return KindChar }
func (t *CharType) LLVMType() types.Type {
	return t.memo(func() types.Type { return types.I8 })
}
func (t *CharType) Size() int64                   { return 1 }
func (t *CharType) Align() int64                   { return 1 }
func (t *CharType) SameAs(o Type) bool             { return o == Type(t) }
func (t *CharType) IsIntegral() bool               { return true }
func (t *CharType) IsCompound() bool               { return false }
func (t *CharType) SubType() Type                  { return nil }
func (t *CharType) GetRange() (int64, int64, bool) { return 0, 255, true }
func (t *CharType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *CharType) String() string { return "char" }
func (t *CharType) CompatibleWith(o Type) bool {
	if o.SameAs(Char) {
		return true
	}
	if s, ok := o.(*StringType); ok {
		return s.Capacity >= 1
	}
	return false
}
func (t *CharType) AssignableFrom(o Type) bool { return o.SameAs(Char) }

func (t *BooleanType) Kind() Kind { return KindBoolean }
func (t *BooleanType) LLVMType() types.Type {
	return t.memo(func() types.Type { return types.I1 })
}
func (t *BooleanType) Size() int64                   { return 1 }
func (t *BooleanType) Align() int64                   { return 1 }
func (t *BooleanType) SameAs(o Type) bool             { return o == Type(t) }
func (t *BooleanType) IsIntegral() bool               { return true }
func (t *BooleanType) IsCompound() bool               { return false }
func (t *BooleanType) SubType() Type                  { return nil }
func (t *BooleanType) GetRange() (int64, int64, bool) { return 0, 1, true }
func (t *BooleanType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *BooleanType) String() string { return "boolean" }
func (t *BooleanType) CompatibleWith(o Type) bool { return o.SameAs(Boolean) }
func (t *BooleanType) AssignableFrom(o Type) bool { return o.SameAs(Boolean) }

func (t *VoidType) Kind() Kind { return KindVoid }
func (t *VoidType) LLVMType() types.Type {
	return t.memo(func() types.Type { return types.Void })
}
func (t *VoidType) Size() int64                   { return 0 }
func (t *VoidType) Align() int64                   { return 1 }
func (t *VoidType) SameAs(o Type) bool             { return o == Type(t) }
func (t *VoidType) IsIntegral() bool               { return false }
func (t *VoidType) IsCompound() bool               { return false }
func (t *VoidType) SubType() Type                  { return nil }
func (t *VoidType) GetRange() (int64, int64, bool) { return 0, 0, false }
func (t *VoidType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *VoidType) String() string { return "void" }
func (t *VoidType) CompatibleWith(o Type) bool { return o.SameAs(Void) }
func (t *VoidType) AssignableFrom(o Type) bool { return false }

// compatibleNumeric implements: "a narrower integer appears with a
// wider integer or with real (result type is the wider)", plus the
// subrange-of-base-type rule handled by RangeType.CompatibleWith.
func compatibleNumeric(t Type, o Type) bool {
	if o.SameAs(Real) {
		return true
	}
	if o.IsIntegral() {
		return true
	}
	if r, ok := o.(*RangeType); ok {
		return compatibleNumeric(t, r.Base)
	}
	return false
}

func assignableToIntegral(l Type, r Type) bool {
	if l.SameAs(r) {
		return true
	}
	if rt, ok := r.(*RangeType); ok {
		return rt.Base.SameAs(l)
	}
	return false
}
