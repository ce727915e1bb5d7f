package typesys

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// StringType is a fixed-capacity, length-prefixed byte array:
// `{ length: byte, bytes: [char; N] }` per spec.md §3.2. Capacity is
// checked against MaxStringCapacity at construction time (Open
// Question, spec.md §9): the length prefix is one byte, so capacities
// above 255 cannot be represented and are rejected by NewString rather
// than silently truncated or widened.
type StringType struct {
	base
	Capacity int
}

// NewString constructs a string[N] type. It returns an error, not a
// panic, for capacity > MaxStringCapacity so the parser can turn it
// into a normal diag.TypeError at the declaration site.
func NewString(capacity int) (*StringType, error) {
	if capacity > MaxStringCapacity {
		return nil, fmt.Errorf("string capacity %d exceeds the maximum representable length-prefixed capacity of %d", capacity, MaxStringCapacity)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("negative string capacity %d", capacity)
	}
	return &StringType{Capacity: capacity}, nil
}

func (t *StringType) Kind() Kind { return KindString }
func (t *StringType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		return types.NewStruct(types.I8, types.NewArray(uint64(t.Capacity), types.I8))
	})
}
func (t *StringType) Size() int64  { return int64(t.Capacity) + 1 }
func (t *StringType) Align() int64 { return 1 }
func (t *StringType) SameAs(o Type) bool {
	s, ok := o.(*StringType)
	return ok && s.Capacity == t.Capacity
}
func (t *StringType) IsIntegral() bool { return false }
func (t *StringType) IsCompound() bool { return true }
func (t *StringType) SubType() Type    { return Char }
func (t *StringType) GetRange() (int64, int64, bool)        { return 0, 0, false }
func (t *StringType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *StringType) String() string                         { return fmt.Sprintf("string[%d]", t.Capacity) }

// CompatibleWith implements: "a char meets a string of length >= 1",
// generalized to string-string compatibility regardless of capacity.
func (t *StringType) CompatibleWith(o Type) bool {
	if o.SameAs(Char) {
		return t.Capacity >= 1
	}
	_, ok := o.(*StringType)
	return ok
}
func (t *StringType) AssignableFrom(o Type) bool {
	if o.SameAs(Char) {
		return t.Capacity >= 1
	}
	s, ok := o.(*StringType)
	return ok && s.Capacity <= t.Capacity
}
