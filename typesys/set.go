package typesys

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// SetType is a bitmap-encoded `set of` value. Storage is a flat array
// of SetBits-wide machine words; element e occupies bit (e mod SetBits)
// of word (e div SetBits), per spec.md §3.2.
type SetType struct {
	base
	Range *RangeType // the domain the set ranges over
	Elem  Type        // the element type (Integer, Char, or an EnumType)
}

func NewSet(rng *RangeType, elem Type) *SetType {
	return &SetType{Range: rng, Elem: elem}
}

// WordCount is the number of SetBits-wide words needed to hold every
// bit in [Range.Lo, Range.Hi].
func (t *SetType) WordCount() int64 {
	n := t.Range.Hi - t.Range.Lo + 1
	return (n + SetBits - 1) / SetBits
}

func (t *SetType) Kind() Kind { return KindSet }
func (t *SetType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		return types.NewArray(uint64(t.WordCount()), types.NewInt(SetBits))
	})
}
func (t *SetType) Size() int64  { return t.WordCount() * (SetBits / 8) }
func (t *SetType) Align() int64 { return SetBits / 8 }
func (t *SetType) SameAs(o Type) bool {
	s, ok := o.(*SetType)
	return ok && s.Elem.SameAs(t.Elem) && s.Range.SameAs(t.Range)
}
func (t *SetType) IsIntegral() bool { return false }
func (t *SetType) IsCompound() bool { return true }
func (t *SetType) SubType() Type    { return t.Elem }
func (t *SetType) GetRange() (int64, int64, bool)        { return 0, 0, false }
func (t *SetType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *SetType) String() string                         { return "set of " + t.Range.String() }

// CompatibleWith implements: "one is a set and the other is a set with
// the same element type."
func (t *SetType) CompatibleWith(o Type) bool {
	s, ok := o.(*SetType)
	return ok && s.Elem.SameAs(t.Elem)
}
func (t *SetType) AssignableFrom(o Type) bool { return t.CompatibleWith(o) }
