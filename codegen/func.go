package codegen

import (
	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/typesys"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// declareProto forward-declares fn's *ir.Func and registers it in the
// NameStack under its regKey, the first half of tawago's two-pass
// toplevel walk (spec.md §4.6): every prototype exists before any
// function body is emitted, so forward, mutually recursive, and
// virtual-override calls all resolve.
func (c *Context) declareProto(fn *ast.FuncDecl) {
	proto := fn.Prototype
	var params []*ir.Param
	for _, p := range proto.Params {
		pt := p.Type.LLVMType()
		if p.IsReference {
			pt = types.NewPointer(pt)
		}
		params = append(params, ir.NewParam(p.Name, pt))
	}
	result := proto.Result.LLVMType()
	irFn := c.Module.NewFunc(mangledName(fn), result, params...)
	c.NS.Add(funcRegKey(fn), names.FuncDef{Type: protoType(proto), Prototype: proto, Backend: irFn})
}

// protoType builds the typesys.FunctionType describing proto, matching
// the parser's own funcType helper (parser/decl.go) so a FuncDef entry
// codegen adds carries the same shape one added at parse time would.
func protoType(proto *ast.Prototype) typesys.Type {
	var params []typesys.ParamType
	for _, p := range proto.Params {
		params = append(params, typesys.ParamType{Of: p.Type, IsReference: p.IsReference})
	}
	return typesys.NewFunction(params, proto.Result)
}

// declareProtos runs declareProto over fn and every nested function
// beneath it, matching how spec.md §4.5's closure conversion already
// walks FuncDecl.Nested.
func (c *Context) declareProtos(fn *ast.FuncDecl) {
	if fn.Prototype.IsForward {
		return
	}
	c.declareProto(fn)
	for _, nested := range fn.Nested {
		c.declareProtos(nested)
	}
}

// emitFuncBody is the second half of the toplevel walk: bind
// parameters and the implicit result variable into a fresh scope,
// lower the body, and close with a Ret (spec.md §4.6).
func (c *Context) emitFuncBody(fn *ast.FuncDecl) {
	if fn.Prototype.IsForward {
		return
	}
	e, _ := c.NS.Find(funcRegKey(fn))
	irFn := e.(names.FuncDef).Backend.(*ir.Func)

	prevFn, prevBlock, prevLabels := c.Fn, c.block, c.labels
	c.Fn = irFn
	c.labels = nil
	entry := irFn.NewBlock("entry")
	c.block = entry

	scope := c.NS.Enter()
	c.bindParams(fn, irFn)
	if fn.Prototype.IsFunction() {
		c.declareLocal(&ast.VarDef{Name: fn.Prototype.Name, Type: fn.Prototype.Result})
	}
	for _, decl := range fn.Locals {
		// The program body's Locals are the top-level var blocks, which
		// declareGlobalVars has already emitted as globals.
		if decl.Enclosing == nil {
			continue
		}
		c.emitLocalVarDecl(decl)
	}

	c.emitStmt(fn.Body)
	c.closeFunc(fn)
	scope.Exit()

	for _, nested := range fn.Nested {
		c.emitFuncBody(nested)
	}

	c.Fn, c.block, c.labels = prevFn, prevBlock, prevLabels
}

// bindParams binds each declared and closure-captured parameter to
// its incoming ir.Param value. A by-reference parameter's incoming
// value already is the variable's address; a by-value parameter is
// copied into a fresh alloca so its address is stable for the rest of
// the body (spec.md §4.5/§4.6).
func (c *Context) bindParams(fn *ast.FuncDecl, irFn *ir.Func) {
	for i, p := range fn.Prototype.Params {
		param := irFn.Params[i]
		if p.IsReference {
			c.NS.Add(p.Name, names.VarDef{Type: p.Type, IsReference: true, Addr: param})
			continue
		}
		addr := c.block.NewAlloca(p.Type.LLVMType())
		c.block.NewStore(param, addr)
		c.NS.Add(p.Name, names.VarDef{Type: p.Type, Addr: addr})
	}
}

// closeFunc emits the function's terminating Ret, loading the
// implicit result variable for a function or returning nothing for a
// procedure. Every reachable body path that falls off the end lands
// here (spec.md §4.6); a goto-heavy body may already have terminated
// its last block, in which case there is nothing left to close.
func (c *Context) closeFunc(fn *ast.FuncDecl) {
	if c.block.Term != nil {
		return
	}
	if !fn.Prototype.IsFunction() {
		c.block.NewRet(nil)
		return
	}
	addr, _, vd := c.lookupVar(fn.Prototype.Name)
	result := c.block.NewLoad(vd.Type.LLVMType(), addr)
	c.block.NewRet(result)
}
