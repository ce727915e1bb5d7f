// Package constfold evaluates constant expressions inline during
// parsing, per spec.md §4.4: a small operator subset (+, -, *, unary +,
// -, not), identifiers resolved to already-known constants or enum
// values, and literals. Constants are first-class values substitutable
// for tokens ("translate_token" in spec.md's terms): the parser asks
// this package to fold an expression the moment it finishes parsing
// one, rather than deferring to a later pass.
package constfold

import (
	"fmt"

	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/token"
	"github.com/gopascal/pgoc/typesys"
)

type ValueKind int

const (
	KindInt ValueKind = iota
	KindReal
	KindBool
	KindChar
	KindString
	KindEnum
)

// Value is the tagged result of folding a constant expression.
type Value struct {
	Kind     ValueKind
	Int      int64
	Real     float64
	Str      string
	EnumType *typesys.EnumType
}

func Int(n int64) Value    { return Value{Kind: KindInt, Int: n} }
func Real(f float64) Value { return Value{Kind: KindReal, Real: f} }
func Char(c byte) Value    { return Value{Kind: KindChar, Int: int64(c)} }
func Str(s string) Value   { return Value{Kind: KindString, Str: s} }

func Bool(b bool) Value {
	if b {
		return Value{Kind: KindBool, Int: 1}
	}
	return Value{Kind: KindBool, Int: 0}
}
func Enum(t *typesys.EnumType, ordinal int64) Value {
	return Value{Kind: KindEnum, Int: ordinal, EnumType: t}
}

func (v Value) Type() typesys.Type {
	switch v.Kind {
	case KindInt:
		return typesys.Integer
	case KindReal:
		return typesys.Real
	case KindBool:
		return typesys.Boolean
	case KindChar:
		return typesys.Char
	case KindString:
		s, err := typesys.NewString(len(v.Str))
		if err != nil {
			return typesys.Char
		}
		return s
	case KindEnum:
		return v.EnumType
	}
	return typesys.Void
}

func (v Value) AsFloat() float64 {
	if v.Kind == KindReal {
		return v.Real
	}
	return float64(v.Int)
}

func (v Value) isNumeric() bool { return v.Kind == KindInt || v.Kind == KindReal }

// EvalError reports a constant expression that could not be folded
// (wrong operand kind, undefined identifier, unsupported operator).
type EvalError struct {
	Loc token.Location
	Msg string
}

func (e EvalError) Error() string { return fmt.Sprintf("%s: constant expression error: %s", e.Loc, e.Msg) }

// Neg implements unary `-`.
func Neg(loc token.Location, v Value) (Value, error) {
	switch v.Kind {
	case KindInt:
		return Int(-v.Int), nil
	case KindReal:
		return Real(-v.Real), nil
	}
	return Value{}, EvalError{Loc: loc, Msg: "unary - requires a numeric constant"}
}

// Pos implements unary `+` (a no-op numerically, but still type-checked).
func Pos(loc token.Location, v Value) (Value, error) {
	if !v.isNumeric() {
		return Value{}, EvalError{Loc: loc, Msg: "unary + requires a numeric constant"}
	}
	return v, nil
}

// Not implements the `not` operator on a boolean constant.
func Not(loc token.Location, v Value) (Value, error) {
	if v.Kind != KindBool {
		return Value{}, EvalError{Loc: loc, Msg: "not requires a boolean constant"}
	}
	return Bool(v.Int == 0), nil
}

// Add/Sub/Mul implement the arithmetic subset spec.md §4.4 names.
// String `+` is concatenation, matching ordinary Pascal constant
// folding for string literals.
func Add(loc token.Location, l, r Value) (Value, error) {
	if l.Kind == KindString && r.Kind == KindString {
		return Str(l.Str + r.Str), nil
	}
	return arith(loc, l, r, "+", func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
}

func Sub(loc token.Location, l, r Value) (Value, error) {
	return arith(loc, l, r, "-", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
}

func Mul(loc token.Location, l, r Value) (Value, error) {
	return arith(loc, l, r, "*", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
}

func arith(loc token.Location, l, r Value, op string, fi func(int64, int64) int64, ff func(float64, float64) float64) (Value, error) {
	if !l.isNumeric() || !r.isNumeric() {
		return Value{}, EvalError{Loc: loc, Msg: fmt.Sprintf("%s requires numeric constants", op)}
	}
	if l.Kind == KindReal || r.Kind == KindReal {
		return Real(ff(l.AsFloat(), r.AsFloat())), nil
	}
	return Int(fi(l.Int, r.Int)), nil
}

// ResolveIdent looks name up in the NameStack and, if it names a
// constant or an enum value, returns its folded Value.
func ResolveIdent(loc token.Location, ns *names.NameStack, name string) (Value, error) {
	e, ok := ns.Find(name)
	if !ok {
		return Value{}, EvalError{Loc: loc, Msg: fmt.Sprintf("undefined constant %q", name)}
	}
	switch entry := e.(type) {
	case names.ConstDef:
		v, ok := entry.Value.(Value)
		if !ok {
			return Value{}, EvalError{Loc: loc, Msg: fmt.Sprintf("%q is not a constant expression", name)}
		}
		return v, nil
	case names.EnumDef:
		et, _ := entry.Type.(*typesys.EnumType)
		return Enum(et, int64(entry.Ordinal)), nil
	default:
		return Value{}, EvalError{Loc: loc, Msg: fmt.Sprintf("%q does not name a constant", name)}
	}
}
