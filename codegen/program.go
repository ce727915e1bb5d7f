package codegen

import (
	"fmt"

	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/closure"
	"github.com/gopascal/pgoc/diag"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/runtimeabi"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// Generate lowers a parsed program into a complete LLVM module: it
// runs the closure transform, declares the runtime ABI, walks every
// top-level declaration in the same two-pass (declare then emit)
// order tawago/codegen.go uses for its toplevel walk, and finishes
// with a C-callable `main` that calls the program's synthesized body
// function (spec.md §4.4, §4.6, §6).
//
// A malformed-but-parseable program (an undeclared name, a value of
// the wrong shape reaching an emission path that assumes a type
// checker already ruled it out) is recovered here into the returned
// Diagnostics exactly as parser.Parser.Parse recovers its own panics,
// rather than crashing the driver with a Go stack trace (spec.md §7).
// On failure the returned module is nil; the caller checks
// diags.Failed() the same way it already checks the parser's.
func Generate(prog *ast.ProgramDecl) (m *ir.Module, diags *diag.Diagnostics) {
	diags = &diag.Diagnostics{}
	defer func() {
		if r := recover(); r != nil {
			m = nil
			if e, ok := r.(error); ok {
				diags.Emit(e)
				return
			}
			diags.Emit(diag.IRError{Msg: fmt.Sprint(r)})
		}
	}()

	closure.Convert(prog)

	m = ir.NewModule()
	rt := runtimeabi.Declare(m)
	ns := names.New()
	c := newContext(m, ns, rt, diags)

	c.declareTypesAndConsts(prog.Decls)

	c.declareProtos(prog.Body)
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			c.declareProtos(fn)
		}
	}

	c.declareVTables(prog.Decls)
	c.declareGlobalVars(prog.Decls)

	c.emitFuncBody(prog.Body)
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			c.emitFuncBody(fn)
		}
	}

	c.emitMain(prog.Body)
	RegisterTypeInfo(m, BuildTypeInfo(prog))

	if diags.Failed() {
		m = nil
	}
	return m, diags
}

// emitMain wraps the compiled program body in a normal C main, unlike
// tawago's _tawa_main raw-syscall exit wrapper (codegen.go): pgoc
// programs link against runtimeabi's C-callable runtime rather than
// making bare syscalls, so returning 0 from main is enough to exit
// cleanly (spec.md §6).
func (c *Context) emitMain(body *ast.FuncDecl) {
	main := c.Module.NewFunc("main", types.I32)
	entry := main.NewBlock("entry")
	e, _ := c.NS.Find(funcRegKey(body))
	bodyFn := e.(names.FuncDef).Backend.(*ir.Func)
	entry.NewCall(bodyFn)
	entry.NewRet(constant.NewInt(types.I32, 0))
}
