// Package codegen lowers a parsed, closure-converted *ast.ProgramDecl
// into an LLVM module using llir/llvm, the way tawago/codegen.go lowers
// its own AST: a small ctx carrying the current block and a scoped
// name table, one function over Expression producing a value.Value,
// and a two-pass toplevel walk (declare every prototype, then emit
// every body) so forward and mutually recursive calls resolve
// (spec.md §4.6, §7).
package codegen

import (
	"fmt"

	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/diag"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/runtimeabi"
	"github.com/gopascal/pgoc/typesys"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Context is the mutable state threaded through one function's
// emission: its current insertion block, the module it belongs to, the
// live NameStack of backend values (VarDef.Addr/FuncDef.Backend
// entries), the runtime ABI registry, and per-module caches (string
// constants, labels, vtable globals).
type Context struct {
	Module  *ir.Module
	NS      *names.NameStack
	RT      *runtimeabi.Registry
	Fn      *ir.Func
	block   *ir.Block

	// Diags collects failures that a caller can recover from without
	// aborting the whole compilation, such as an undeclared for-loop
	// control variable (spec.md §7). Failures that would otherwise
	// leave the module in an inconsistent state still panic and are
	// caught by Generate's recovery boundary.
	Diags *diag.Diagnostics

	strConsts map[string]*ir.Global
	labels    map[string]*ir.Block

	// vtables holds each virtual-bearing class's vtable global,
	// populated by declareVTables once every method's *ir.Func exists,
	// and consulted by initVTablePtr wherever a class instance's
	// storage is created (spec.md §4.7).
	vtables map[*typesys.ClassType]*ir.Global
}

func newContext(m *ir.Module, ns *names.NameStack, rt *runtimeabi.Registry, diags *diag.Diagnostics) *Context {
	return &Context{
		Module:    m,
		NS:        ns,
		RT:        rt,
		Diags:     diags,
		strConsts: map[string]*ir.Global{},
		vtables:   map[*typesys.ClassType]*ir.Global{},
	}
}

// initVTablePtr stores ct's vtable global into the leading vtable
// pointer field of the class instance at addr, the step every class
// instance's storage needs at creation before any virtual call through
// it is safe (spec.md §4.7). It is a no-op for a class with no
// virtuals, which has no such field.
func (c *Context) initVTablePtr(addr value.Value, ct *typesys.ClassType) {
	if !ct.HasVirtuals() {
		return
	}
	g, ok := c.vtables[ct]
	if !ok {
		panic("codegen: vtable global not yet built for " + ct.Name)
	}
	slot := c.block.NewGetElementPtr(ct.LLVMType(), addr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	c.block.NewStore(g, slot)
}

// Block satisfies builtins.Emitter.
func (c *Context) Block() *ir.Block { return c.block }

// Runtime satisfies builtins.Emitter.
func (c *Context) Runtime() *runtimeabi.Registry { return c.RT }

// SetBlock repositions the cursor, returning the previous block so
// callers can restore it — the same "save/restore the insertion point"
// discipline spec.md §5 calls for guard-object scoping elsewhere.
func (c *Context) SetBlock(b *ir.Block) (prev *ir.Block) {
	prev = c.block
	c.block = b
	return prev
}

// SaveCursor snapshots the current block so a nested emission (e.g. a
// nested function's body) can run and the caller resumes exactly where
// it left off, matching the guard-object pattern the rest of the
// codebase uses for scope push/pop.
type SaveCursor struct {
	ctx  *Context
	prev *ir.Block
}

func (c *Context) Save() SaveCursor        { return SaveCursor{ctx: c, prev: c.block} }
func (s SaveCursor) Restore()              { s.ctx.block = s.prev }

// mangledName builds the dotted `outer.inner.name` symbol tawago-style
// codegen would use for a nested function, per spec.md §4.6, prefixed
// with the owning class name for a method so two classes' same-named
// methods (the override case) never collide as linker symbols.
func mangledName(fn *ast.FuncDecl) string {
	path := fn.QualifiedPath()
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	if fn.Prototype.BaseClass != nil {
		out = fn.Prototype.BaseClass.Name + "." + out
	}
	return out
}

// funcRegKey is the NameStack key a FuncDecl resolves under, matching
// the parser's own registration convention (parser/decl.go) so a call
// site's FuncRefExpr.Name always finds the FuncDef codegen declared.
func funcRegKey(fn *ast.FuncDecl) string {
	if fn.Prototype.BaseClass != nil {
		return fn.Prototype.BaseClass.Name + "." + fn.Prototype.Name
	}
	return fn.Prototype.Name
}

func (c *Context) internString(s string) *ir.Global {
	if g, ok := c.strConsts[s]; ok {
		return g
	}
	g := c.Module.NewGlobalDef(fmt.Sprintf("_str_%d", len(c.strConsts)), stringConstant(s))
	c.strConsts[s] = g
	return g
}

// lookupVar resolves name against the live NameStack, returning the
// backend address recorded on its VarDef (an alloca, a global, or, for
// a by-reference parameter, the incoming pointer param itself — all
// three are already the variable's real storage address) and whether
// it is a by-reference parameter.
func (c *Context) lookupVar(name string) (addr value.Value, byRef bool, def names.VarDef) {
	addr, byRef, def, ok := c.lookupVarOk(name)
	if !ok {
		panic("codegen: undefined variable " + name)
	}
	return addr, byRef, def
}

// lookupVarOk is lookupVar without the panic, for call sites that can
// recover from a missing name by emitting a diagnostic of their own
// instead (spec.md §7's "the call site records the failure").
func (c *Context) lookupVarOk(name string) (addr value.Value, byRef bool, def names.VarDef, ok bool) {
	e, found := c.NS.Find(name)
	if !found {
		return nil, false, names.VarDef{}, false
	}
	vd, isVar := e.(names.VarDef)
	if !isVar {
		return nil, false, names.VarDef{}, false
	}
	return vd.Addr.(value.Value), vd.IsReference, vd, true
}
