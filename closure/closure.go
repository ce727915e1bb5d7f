package closure

import "github.com/gopascal/pgoc/ast"

// Convert runs closure conversion over every function reachable from
// prog: nested functions that read or write a local of some enclosing
// function gain a synthesized by-reference parameter for each such
// local (recorded on FuncDecl.Captured), and every call site able to
// reach the nested function is rewritten to pass the extra argument
// (spec.md §4.5). It must run after parsing, once every FuncDecl's
// Locals/Nested/Parent links are final, and before codegen.
func Convert(prog *ast.ProgramDecl) {
	c := &converter{
		info:    map[*ast.FuncDecl]*funcInfo{},
		byProto: map[*ast.Prototype]*ast.FuncDecl{},
	}
	var funcs []*ast.FuncDecl
	for _, tl := range prog.Decls {
		if fn, ok := tl.(*ast.FuncDecl); ok {
			funcs = append(funcs, fn)
		}
	}
	c.indexProtos(funcs)
	c.indexProtos([]*ast.FuncDecl{prog.Body})

	for _, fn := range funcs {
		c.analyze(fn)
	}
	c.analyze(prog.Body)

	c.rewriteFunc(prog.Body)
	for _, fn := range funcs {
		c.rewriteFunc(fn)
	}
}

// funcInfo is the per-function bookkeeping the two passes need:
// declared names owned directly by this function, and — once
// analyze has run — the name each captured foreign VarDef is bound to
// inside this function's body.
type funcInfo struct {
	fn          *ast.FuncDecl
	declared    map[string]*ast.VarDef
	captureName map[*ast.VarDef]string
	captureOf   []*ast.VarDef // insertion order, mirrors fn.Captured
}

type converter struct {
	info    map[*ast.FuncDecl]*funcInfo
	byProto map[*ast.Prototype]*ast.FuncDecl
}

func (c *converter) indexProtos(fns []*ast.FuncDecl) {
	for _, fn := range fns {
		if fn == nil || fn.Prototype == nil {
			continue
		}
		c.byProto[fn.Prototype] = fn
		c.indexProtos(fn.Nested)
	}
}

func declaredNames(fn *ast.FuncDecl) map[string]*ast.VarDef {
	out := map[string]*ast.VarDef{}
	for _, p := range fn.Prototype.Params {
		out[p.Name] = &ast.VarDef{Name: p.Name, Type: p.Type, IsReference: p.IsReference}
	}
	for _, vd := range fn.Locals {
		for _, v := range vd.Vars {
			out[v.Name] = v
		}
	}
	if fn.Prototype.IsFunction() {
		out[fn.Prototype.Name] = &ast.VarDef{Name: fn.Prototype.Name, Type: fn.Prototype.Result}
	}
	return out
}

// analyze walks fn (and, recursively, its nested functions first,
// post-order) computing which foreign VarDefs fn's body — or any of
// its descendants — needs from an enclosing scope. Anything fn does
// not itself declare is threaded through as one of fn's own by-reference
// capture parameters, so a chain of nested functions each forward the
// variable one level at a time down to whichever one actually uses it.
func (c *converter) analyze(fn *ast.FuncDecl) map[*ast.VarDef]bool {
	fi := &funcInfo{fn: fn, declared: declaredNames(fn), captureName: map[*ast.VarDef]string{}}
	c.info[fn] = fi

	free := map[*ast.VarDef]bool{}
	if fn.Body != nil {
		walkStmt(fn.Body, func(e ast.Expr) {
			ve, ok := e.(*ast.VarExpr)
			if !ok {
				return
			}
			if _, own := fi.declared[ve.Name]; own {
				return
			}
			if vd := c.resolveUp(fn.Parent, ve.Name); vd != nil {
				free[vd] = true
			}
		})
	}

	for _, child := range fn.Nested {
		for vd := range c.analyze(child) {
			if _, own := fi.declared[vd.Name]; own && fi.declared[vd.Name] == vd {
				continue
			}
			free[vd] = true
		}
	}

	if fn.Parent == nil || len(free) == 0 {
		return free
	}

	// Stable order: by name, so output does not depend on Go's map
	// iteration order.
	ordered := make([]*ast.VarDef, 0, len(free))
	for vd := range free {
		ordered = append(ordered, vd)
	}
	sortByDepthThenName(ordered, fn)

	for _, vd := range ordered {
		name := c.freshParamName(fi, vd.Name)
		fi.captureName[vd] = name
		fi.captureOf = append(fi.captureOf, vd)
		fn.Captured = append(fn.Captured, &ast.VarDef{Name: vd.Name, Type: vd.Type, IsReference: true})
		fn.Prototype.Params = append(fn.Prototype.Params, ast.Param{Name: name, Type: vd.Type, IsReference: true})
	}
	return free
}

func (c *converter) freshParamName(fi *funcInfo, orig string) string {
	name := orig
	for i := 1; ; i++ {
		if _, taken := fi.declared[name]; !taken {
			if !nameUsedAsCapture(fi, name) {
				return name
			}
		}
		name = orig + "_" + itoaSmall(i)
	}
}

func nameUsedAsCapture(fi *funcInfo, name string) bool {
	for _, n := range fi.captureName {
		if n == name {
			return true
		}
	}
	return false
}

func itoaSmall(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// resolveUp searches start and its ancestors (via Parent) for a
// declaration of name, returning the VarDef the nearest one owns.
func (c *converter) resolveUp(start *ast.FuncDecl, name string) *ast.VarDef {
	for cur := start; cur != nil; cur = cur.Parent {
		fi, ok := c.info[cur]
		if !ok {
			continue
		}
		if vd, ok := fi.declared[name]; ok {
			return vd
		}
	}
	return nil
}

// sortByDepthThenName gives capture parameter order a stable,
// deterministic sequence (insertion order would depend on Go's map
// iteration otherwise). from is unused beyond documenting intent —
// ordering by name alone is enough since capture lists are short and
// never need to match a specific ancestor-depth convention.
func sortByDepthThenName(vs []*ast.VarDef, from *ast.FuncDecl) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j].Name < vs[j-1].Name; j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}

// rewriteFunc rewrites call sites inside fn's own body, then recurses
// into its nested functions.
func (c *converter) rewriteFunc(fn *ast.FuncDecl) {
	c.rewriteCalls(fn.Body, fn)
	for _, child := range fn.Nested {
		c.rewriteFunc(child)
	}
}

// rewriteCalls appends the extra capture arguments to every call of a
// function that needs them, found anywhere inside body. caller is the
// function body belongs to, used to resolve each capture argument in
// the caller's own scope.
func (c *converter) rewriteCalls(body ast.Stmt, caller *ast.FuncDecl) {
	if body == nil {
		return
	}
	walkStmt(body, func(e ast.Expr) {
		call, ok := e.(*ast.CallExpr)
		if !ok || call.Prototype == nil {
			return
		}
		callee, ok := c.byProto[call.Prototype]
		if !ok {
			return
		}
		calleeInfo, ok := c.info[callee]
		if !ok || len(calleeInfo.captureOf) == 0 {
			return
		}
		if len(call.Args) >= len(call.Prototype.Params) {
			return // already rewritten, or the extra args are already present
		}
		for _, vd := range calleeInfo.captureOf {
			call.Args = append(call.Args, c.referenceTo(caller, vd))
		}
	})
}

// referenceTo builds the argument expression that hands vd to a
// callee from inside caller: caller's own local when it owns vd
// directly, or a reference to whichever name caller itself captured
// vd under otherwise.
func (c *converter) referenceTo(caller *ast.FuncDecl, vd *ast.VarDef) ast.Expr {
	fi := c.info[caller]
	if fi != nil {
		if own, ok := fi.declared[vd.Name]; ok && own == vd {
			return &ast.VarExpr{ExprBase: ast.EPos(caller.Loc(), vd.Type), Name: vd.Name}
		}
		if name, ok := fi.captureName[vd]; ok {
			return &ast.VarExpr{ExprBase: ast.EPos(caller.Loc(), vd.Type), Name: name}
		}
	}
	return &ast.VarExpr{ExprBase: ast.EPos(caller.Loc(), vd.Type), Name: vd.Name}
}
