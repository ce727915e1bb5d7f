// Package diag implements the compiler's diagnostic model: one typed
// error value per error kind named in the specification, plus a
// per-compilation counter that gates code emission, matching the shape
// of tawago's errors.go/errors/errors.go (one struct per error shape,
// an Error() string built with fmt.Sprintf, a Location/Span field).
package diag

import (
	"fmt"

	"github.com/gopascal/pgoc/token"
)

// LexError reports a malformed literal or unterminated comment/string.
type LexError struct {
	Loc token.Location
	Msg string
}

func (e LexError) Error() string { return fmt.Sprintf("%s: lex error: %s", e.Loc, e.Msg) }

// SyntaxError reports an unexpected token or missing punctuation.
type SyntaxError struct {
	Loc      token.Location
	Expected []token.Kind
	Got      token.Kind
	Msg      string
}

func (e SyntaxError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: syntax error: %s", e.Loc, e.Msg)
	}
	return fmt.Sprintf("%s: syntax error: expected %v, got %s", e.Loc, e.Expected, e.Got)
}

// NameError reports an undefined, duplicate, or wrong-kind reference.
type NameError struct {
	Loc  token.Location
	Name string
	Msg  string
}

func (e NameError) Error() string { return fmt.Sprintf("%s: %s: %s", e.Loc, e.Name, e.Msg) }

// TypeError reports an incompatible operand, a wrong argument
// count/type, a non-addressable reference target, or an invalid
// case/for/set element type.
type TypeError struct {
	Loc token.Location
	Msg string
}

func (e TypeError) Error() string { return fmt.Sprintf("%s: type error: %s", e.Loc, e.Msg) }

// LayoutError reports a pointer to an undefined type or an override of
// a nonexistent virtual method.
type LayoutError struct {
	Loc token.Location
	Msg string
}

func (e LayoutError) Error() string { return fmt.Sprintf("%s: layout error: %s", e.Loc, e.Msg) }

// IRError indicates a compiler bug: an emission path that should be
// unreachable given a well-typed AST was reached anyway.
type IRError struct {
	Loc token.Location
	Msg string
}

func (e IRError) Error() string { return fmt.Sprintf("%s: internal error: %s", e.Loc, e.Msg) }

// Diagnostics accumulates errors for one compilation and answers
// whether emission should be suppressed at the end (spec: "a non-zero
// final counter suppresses code emission and fails the compilation").
type Diagnostics struct {
	errs []error
}

// Emit records err and increments the error counter.
func (d *Diagnostics) Emit(err error) {
	d.errs = append(d.errs, err)
}

func (d *Diagnostics) Count() int { return len(d.errs) }

func (d *Diagnostics) Failed() bool { return len(d.errs) > 0 }

func (d *Diagnostics) Errors() []error { return d.errs }

func (d *Diagnostics) PrintAll() {
	for _, e := range d.errs {
		fmt.Println(e.Error())
	}
}
