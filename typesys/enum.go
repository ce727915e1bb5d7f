package typesys

import (
	"strings"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// EnumType is an ordered set of identifiers, backed by a 32-bit
// integer at the IR level (ordinal = declaration position).
type EnumType struct {
	base
	Name    string
	Values  []string // in declaration order; ordinal is index
}

func NewEnum(name string, values []string) *EnumType {
	return &EnumType{Name: name, Values: values}
}

func (t *EnumType) Kind() Kind { return KindEnum }
func (t *EnumType) LLVMType() types.Type {
	return t.memo(func() types.Type { return types.NewInt(32) })
}
func (t *EnumType) Size() int64  { return 4 }
func (t *EnumType) Align() int64 { return 4 }
func (t *EnumType) SameAs(o Type) bool {
	return o == Type(t)
}
func (t *EnumType) IsIntegral() bool { return true }
func (t *EnumType) IsCompound() bool { return false }
func (t *EnumType) SubType() Type    { return nil }
func (t *EnumType) GetRange() (int64, int64, bool) {
	return 0, int64(len(t.Values)) - 1, true
}
func (t *EnumType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *EnumType) String() string {
	return "(" + strings.Join(t.Values, ", ") + ")"
}
func (t *EnumType) CompatibleWith(o Type) bool {
	if o.SameAs(t) {
		return true
	}
	if r, ok := o.(*RangeType); ok {
		return r.Base.SameAs(t)
	}
	return false
}
func (t *EnumType) AssignableFrom(o Type) bool {
	if o.SameAs(t) {
		return true
	}
	if r, ok := o.(*RangeType); ok {
		return r.Base.SameAs(t)
	}
	return false
}

// Ordinal returns the ordinal of a value name, or -1 if not present.
func (t *EnumType) Ordinal(name string) int {
	for i, v := range t.Values {
		if strings.EqualFold(v, name) {
			return i
		}
	}
	return -1
}
