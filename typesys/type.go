// Package typesys models Pascal's type-entity graph: construction,
// layout (size/alignment), and the compatibility/assignability rules
// used when typing operators, assignments, and call arguments. It is
// grounded on two teacher-corpus shapes: tawago's LLVMType, whose
// backend types.Type is constructed once and memoized
// (tawago/tawa_types.go, tawago/codegen.go's LLVMType), and
// akrennmair/pascal's DataType interface (TypeString/Equals/Resolve/
// IsCompatibleWith), whose pointer-resolution and subrange semantics
// this package's Pointer/Range types follow closely.
package typesys

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// SetBits is the machine-word width used to encode a Pascal `set of`
// value; it must be a power of two. SetMask = SetBits - 1.
const (
	SetBits    = 32
	SetMask    = SetBits - 1
	MaxSetSize = 4096 // fixed compile-time limit on a set's element range
)

// MaxStringCapacity is the largest capacity string[N] a length-prefix
// byte can address (Open Question, spec.md §9): N > 255 is a
// declaration-time type error, not a silently-widened length field.
const MaxStringCapacity = 255

// Type is the interface every type entity satisfies. Implementations
// are held by pointer in the Universe. SameAs compares primitives,
// enums, records, variants, classes and vtables by Go pointer identity;
// arrays, ranges, sets, strings, files, pointers, fields and function
// types compare structurally.
type Type interface {
	Kind() Kind

	// LLVMType lazily constructs and memoizes the backend type.
	LLVMType() types.Type

	Size() int64
	Align() int64

	SameAs(other Type) bool
	CompatibleWith(other Type) bool
	AssignableFrom(other Type) bool

	IsIntegral() bool
	IsCompound() bool

	// SubType returns the element/target type where one exists
	// (pointer target, array element, file element, set element), or
	// nil otherwise.
	SubType() Type

	// GetRange returns the inclusive bounds of an integral type. ok is
	// false for non-integral types.
	GetRange() (lo, hi int64, ok bool)

	// Initializer returns the non-zero initial image a variable of this
	// type must be given, if it needs one (e.g. a string's length byte
	// need not be nonzero, but a Range whose zero value falls outside
	// its bounds does).
	Initializer() (constant.Constant, bool)

	String() string
}

// base centralizes the LLVMType memoization every concrete Type shares,
// exactly matching the "lazily constructed backend type, memoized" note
// in the data model.
type base struct {
	cached types.Type
}

func (b *base) memo(build func() types.Type) types.Type {
	if b.cached == nil {
		b.cached = build()
	}
	return b.cached
}

// resolveOrPanic is a small helper used by types that hold a pointer to
// a possibly-still-pending target.
func resolveOrPanic(name string, t Type) Type {
	if t == nil {
		panic(fmt.Sprintf("internal error: type %q used before forward-pointer resolution", name))
	}
	return t
}

// roundUp rounds n up to the next multiple of align (align must be a
// power of two greater than zero).
func roundUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
