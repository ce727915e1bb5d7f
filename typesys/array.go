package typesys

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// ArrayType is one element type plus an ordered list of index ranges.
// ElementCount is the product of every dimension's size, matching
// `array[R1, R2] of T`'s row-major flattening.
type ArrayType struct {
	base
	Elem    Type
	Indices []*RangeType
	Packed  bool
}

func NewArray(elem Type, indices []*RangeType, packed bool) *ArrayType {
	return &ArrayType{Elem: elem, Indices: indices, Packed: packed}
}

func (t *ArrayType) ElementCount() int64 {
	n := int64(1)
	for _, idx := range t.Indices {
		n *= idx.Hi - idx.Lo + 1
	}
	return n
}

// DimensionStride returns the number of elements one step in dimension
// i represents, i.e. the product of the sizes of every later dimension.
// This is what codegen multiplies a reduced index by (spec §4.6).
func (t *ArrayType) DimensionStride(i int) int64 {
	n := int64(1)
	for j := i + 1; j < len(t.Indices); j++ {
		n *= t.Indices[j].Hi - t.Indices[j].Lo + 1
	}
	return n
}

func (t *ArrayType) Kind() Kind { return KindArray }
func (t *ArrayType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		return types.NewArray(uint64(t.ElementCount()), t.Elem.LLVMType())
	})
}
func (t *ArrayType) Size() int64  { return t.ElementCount() * t.Elem.Size() }
func (t *ArrayType) Align() int64 { return t.Elem.Align() }
func (t *ArrayType) SameAs(o Type) bool {
	a, ok := o.(*ArrayType)
	if !ok || len(a.Indices) != len(t.Indices) || !a.Elem.SameAs(t.Elem) {
		return false
	}
	for i := range t.Indices {
		if !a.Indices[i].SameAs(t.Indices[i]) {
			return false
		}
	}
	return true
}
func (t *ArrayType) IsIntegral() bool { return false }
func (t *ArrayType) IsCompound() bool { return true }
func (t *ArrayType) SubType() Type    { return t.Elem }
func (t *ArrayType) GetRange() (int64, int64, bool) { return 0, 0, false }
func (t *ArrayType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *ArrayType) String() string {
	var bounds []string
	for _, idx := range t.Indices {
		bounds = append(bounds, fmt.Sprintf("%d..%d", idx.Lo, idx.Hi))
	}
	prefix := "array"
	if t.Packed {
		prefix = "packed array"
	}
	return fmt.Sprintf("%s[%s] of %s", prefix, strings.Join(bounds, ", "), t.Elem.String())
}
func (t *ArrayType) CompatibleWith(o Type) bool { return t.SameAs(o) }
func (t *ArrayType) AssignableFrom(o Type) bool { return t.SameAs(o) }
