package ast

import (
	"github.com/gopascal/pgoc/token"
	"github.com/gopascal/pgoc/typesys"
)

// --- literals ---

type RealLit struct {
	ExprBase
	Value float64
}

func (*RealLit) isExpr() {}

type IntLit struct {
	ExprBase
	Value int64
}

func (*IntLit) isExpr() {}

type CharLit struct {
	ExprBase
	Value byte
}

func (*CharLit) isExpr() {}

type StringLit struct {
	ExprBase
	Value string
}

func (*StringLit) isExpr() {}

type NilLit struct {
	ExprBase
}

func (*NilLit) isExpr() {}

// SetLit is a set constructor: `[1, 3, 5..8]`. Elements is a mix of
// plain expressions and RangeExpr entries.
type SetLit struct {
	ExprBase
	Elements []Expr
}

func (*SetLit) isExpr() {}

// RangeExpr is `Lo..Hi`, used inside a SetLit and in array index bound
// declarations (there it is parsed directly by the type parser, not
// held as this node — this node is for expression-position ranges).
type RangeExpr struct {
	ExprBase
	Lo, Hi Expr
}

func (*RangeExpr) isExpr() {}

// --- addressable expressions ---

// VarExpr references a declared variable, constant, or enum value by
// name; which it is is resolved by the parser against the NameStack.
type VarExpr struct {
	ExprBase
	Name string
}

func (*VarExpr) isExpr()        {}
func (*VarExpr) isAddressable() {}

// IndexExpr is `base[i1, i2, ...]`.
type IndexExpr struct {
	ExprBase
	Base    Addressable
	Indices []Expr
}

func (*IndexExpr) isExpr()        {}
func (*IndexExpr) isAddressable() {}

// FieldExpr is `base.Name`, for both plain record fields and variant
// alternative fields (disambiguated by typesys at type-check time, not
// here).
type FieldExpr struct {
	ExprBase
	Base Addressable
	Name string
}

func (*FieldExpr) isExpr()        {}
func (*FieldExpr) isAddressable() {}

// DerefExpr is `base^`.
type DerefExpr struct {
	ExprBase
	Base Expr
}

func (*DerefExpr) isExpr()        {}
func (*DerefExpr) isAddressable() {}

// FileBufferExpr is `f^` where f is a file variable — spec.md §4.6
// calls this out as a special deref case (it loads the `Buffer` field
// of the runtime file struct, not a generic pointer dereference).
type FileBufferExpr struct {
	ExprBase
	File Addressable
}

func (*FileBufferExpr) isExpr()        {}
func (*FileBufferExpr) isAddressable() {}

// FuncRefExpr references a function/procedure name used as a value
// (e.g. assigned to a procedural-type variable), not called.
type FuncRefExpr struct {
	ExprBase
	Name string
}

func (*FuncRefExpr) isExpr()        {}
func (*FuncRefExpr) isAddressable() {}

// MethodRefExpr is `base.MethodName` where MethodName names a class
// method rather than a field (spec.md §4.7). It only ever appears as
// the callee of a CallExpr — finishMethodCall (reached from
// parseCallArgs) resolves it into a normal CallExpr with Base spliced
// in as the self argument, using Class and Desc to find the right
// ast.Prototype; codegen then dispatches a virtual/override method
// through the vtable instead of a direct call.
type MethodRefExpr struct {
	ExprBase
	Base  Addressable
	Class *typesys.ClassType
	Desc  *typesys.MethodDesc
}

func (*MethodRefExpr) isExpr() {}

// --- operators ---

type BinaryExpr struct {
	ExprBase
	Op          token.Kind
	Left, Right Expr
}

func (*BinaryExpr) isExpr() {}

type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

func (*UnaryExpr) isExpr() {}

// InExpr is `elem in setExpr`, kept distinct from BinaryExpr because
// its codegen inlines a shift/mask test rather than dispatching on a
// numeric operator (spec.md §4.6).
type InExpr struct {
	ExprBase
	Elem Expr
	Set  Expr
}

func (*InExpr) isExpr() {}

// --- calls ---

// CallExpr is a call to a user-defined procedure/function. Prototype
// is filled in once the callee is resolved, and Args is later extended
// in place by the closure-rewrite pass (spec.md §4.5).
type CallExpr struct {
	ExprBase
	Callee    Expr
	Args      []Expr
	Prototype *Prototype
}

func (*CallExpr) isExpr() {}

// BuiltinCallExpr is a call to a name registered in the builtins
// table; it carries a handler tag rather than a Prototype, matching
// spec.md §3.3 and §4.8.
type BuiltinCallExpr struct {
	ExprBase
	Name string
	Args []Expr
}

func (*BuiltinCallExpr) isExpr() {}

// SizeofExpr is `sizeof(expr)` or `sizeof(type)`.
type SizeofExpr struct {
	ExprBase
	Operand     Expr         // set when sizeof(expr)
	OperandType typesys.Type // set when sizeof(type)
}

func (*SizeofExpr) isExpr() {}

// AddrOfExpr is `@expr`, producing a pointer to an addressable
// expression's storage.
type AddrOfExpr struct {
	ExprBase
	Operand Addressable
}

func (*AddrOfExpr) isExpr() {}
