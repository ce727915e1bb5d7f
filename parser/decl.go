package parser

import (
	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/diag"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/token"
	"github.com/gopascal/pgoc/typesys"
)

// parseVarBlock parses one `var Name1, Name2: T; ...` block. enclosing
// is the FuncDecl this block's locals belong to, or nil at the
// top/program level.
func (p *Parser) parseVarBlock(enclosing *ast.FuncDecl) *ast.VarDeclStmt {
	start := p.peek().Loc
	p.expect(token.KwVar)
	var vars []*ast.VarDef
	for p.peekIs(token.Ident) {
		var group []string
		for {
			id := p.expect(token.Ident)
			group = append(group, id.Ident)
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
		p.expect(token.Colon)
		isExternal := false
		if _, ok := p.accept(token.KwExternal); ok {
			isExternal = true
		}
		t := p.parseTypeDenoter()
		for _, n := range group {
			vd := &ast.VarDef{Name: n, Type: t, IsExternal: isExternal}
			vars = append(vars, vd)
			if !p.NS.Add(n, names.VarDef{Type: t}) {
				p.Diags.Emit(diag.NameError{Loc: start, Name: n, Msg: "already declared in this scope"})
			}
		}
		p.expect(token.Semi)
	}
	return &ast.VarDeclStmt{StmtBase: ast.Pos(start), Vars: vars, Enclosing: enclosing}
}

// parseConstBlock parses one `const Name = ConstExpr; ...` block.
func (p *Parser) parseConstBlock() []ast.TopLevel {
	p.expect(token.KwConst)
	var out []ast.TopLevel
	for p.peekIs(token.Ident) {
		start := p.peek().Loc
		id := p.expect(token.Ident)
		p.expect(token.Equal)
		v := p.parseConstExprValue()
		p.expect(token.Semi)
		if !p.NS.Add(id.Ident, names.ConstDef{Value: v}) {
			p.Diags.Emit(diag.NameError{Loc: start, Name: id.Ident, Msg: "already declared in this scope"})
		}
		out = append(out, &ast.ConstDeclTop{TopBase: ast.TPos(start), Name: id.Ident, Type: v.Type(), Value: v})
	}
	return out
}

// parseTypeBlock parses one `type Name = TypeDenoter; ...` block,
// running the forward-pointer backpatch pass once the whole block is
// consumed (spec.md §4.3/§9).
func (p *Parser) parseTypeBlock() []ast.TopLevel {
	p.expect(token.KwType)
	var out []ast.TopLevel
	for p.peekIs(token.Ident) {
		start := p.peek().Loc
		id := p.expect(token.Ident)
		p.expect(token.Equal)
		t := p.parseTypeDenoter()
		p.expect(token.Semi)

		p.Uni.Declare(id.Ident, t)
		if !p.NS.Add(id.Ident, names.TypeDef{Type: t}) {
			p.Diags.Emit(diag.NameError{Loc: start, Name: id.Ident, Msg: "already declared in this scope"})
		}
		switch nt := t.(type) {
		case *typesys.EnumType:
			nt.Name = id.Ident
		case *typesys.RecordType:
			nt.Name = id.Ident
		case *typesys.ClassType:
			nt.Name = id.Ident
		}
		out = append(out, &ast.TypeDeclTop{TopBase: ast.TPos(start), Name: id.Ident, Type: t})
	}
	if errs := p.Uni.ResolveForwardPointers(); len(errs) > 0 {
		for _, e := range errs {
			p.Diags.Emit(diag.LayoutError{Loc: p.peek().Loc, Msg: e.Error()})
		}
	}
	return out
}

// parseFunctionDecl parses a `procedure`/`function` declaration: a
// plain declaration, a forward declaration, a nested (nested inside
// parent) function, or the out-of-line definition of a class method
// named `Class.Method`. parent is the lexically enclosing FuncDecl,
// or nil at the top level (spec.md §3.3/§4.4).
func (p *Parser) parseFunctionDecl(parent *ast.FuncDecl) *ast.FuncDecl {
	start := p.peek().Loc
	isFunc := p.peekIs(token.KwFunction)
	p.expectOneOf(token.KwProcedure, token.KwFunction)

	nameTok := p.expect(token.Ident)
	name := nameTok.Ident
	var baseClass *typesys.ClassType
	if _, ok := p.accept(token.Dot); ok {
		if e, ok := p.NS.Find(name); ok {
			if td, ok := e.(names.TypeDef); ok {
				baseClass, _ = td.Type.(*typesys.ClassType)
			}
		}
		methodTok := p.expect(token.Ident)
		name = methodTok.Ident
	}

	// The parameter list is parsed against the *outer* scope (parameter
	// type names only; parameters themselves are not yet bound to
	// anything) so the function's own name can be registered there
	// before its body scope is entered — otherwise recursive and
	// forward-referencing calls could never resolve it.
	var params []ast.Param
	if baseClass != nil {
		params = append(params, ast.Param{Name: "self", Type: typesys.NewPointerTo(baseClass)})
	}
	if _, ok := p.accept(token.LParen); ok {
		for !p.peekIs(token.RParen) {
			byRef := false
			if _, ok := p.accept(token.KwVar); ok {
				byRef = true
			}
			var group []string
			for {
				id := p.expect(token.Ident)
				group = append(group, id.Ident)
				if _, ok := p.accept(token.Comma); ok {
					continue
				}
				break
			}
			p.expect(token.Colon)
			pt := p.parseTypeDenoter()
			for _, n := range group {
				params = append(params, ast.Param{Name: n, Type: pt, IsReference: byRef})
			}
			if _, ok := p.accept(token.Semi); ok {
				continue
			}
			break
		}
		p.expect(token.RParen)
	}

	result := typesys.Type(typesys.Void)
	if isFunc {
		p.expect(token.Colon)
		result = p.parseTypeDenoter()
	}
	p.expect(token.Semi)

	proto := &ast.Prototype{Name: name, Params: params, Result: result, HasSelf: baseClass != nil, BaseClass: baseClass}
	regName := name
	if baseClass != nil {
		regName = baseClass.Name + "." + name
	}

	if _, ok := p.accept(token.KwForward); ok {
		p.expect(token.Semi)
		proto.IsForward = true
		p.NS.Add(regName, names.FuncDef{Type: p.funcType(proto), Prototype: proto})
		return &ast.FuncDecl{TopBase: ast.TPos(start), Prototype: proto, Parent: parent}
	}
	if _, ok := p.accept(token.KwExternal); ok {
		p.expect(token.Semi)
		p.NS.Add(regName, names.FuncDef{Type: p.funcType(proto), Prototype: proto})
		return &ast.FuncDecl{TopBase: ast.TPos(start), Prototype: proto, Parent: parent}
	}

	fn := &ast.FuncDecl{TopBase: ast.TPos(start), Prototype: proto, Parent: parent}
	// regName was already computed above (same class-qualification
	// rule applies here for the non-forward/external path).
	if parent == nil {
		p.NS.Add(regName, names.FuncDef{Type: p.funcType(proto), Prototype: proto})
	} else {
		parent.Nested = append(parent.Nested, fn)
		p.NS.Add(regName, names.FuncDef{Type: p.funcType(proto), Prototype: proto})
	}

	scope := p.NS.Enter()
	for _, param := range params {
		p.NS.Add(param.Name, names.VarDef{Type: param.Type, IsReference: param.IsReference})
	}

	prevFunc := p.curFunc
	p.curFunc = fn
	if isFunc {
		p.NS.Add(name, names.VarDef{Type: result})
	}

	var locals []*ast.VarDeclStmt
	for {
		switch {
		case p.peekIs(token.KwVar):
			vd := p.parseVarBlock(fn)
			locals = append(locals, vd)
		case p.peekIs(token.KwConst):
			p.parseConstBlock()
		case p.peekIs(token.KwType):
			p.parseTypeBlock()
		case p.peekIs(token.KwProcedure, token.KwFunction):
			p.parseFunctionDecl(fn)
		default:
			goto bodyDone
		}
	}
bodyDone:
	fn.Locals = locals
	fn.Body = p.parseBeginEnd()
	p.expect(token.Semi)

	p.curFunc = prevFunc
	scope.Exit()
	return fn
}

func (p *Parser) funcType(proto *ast.Prototype) typesys.Type {
	var params []typesys.ParamType
	for _, pr := range proto.Params {
		params = append(params, typesys.ParamType{Of: pr.Type, IsReference: pr.IsReference})
	}
	return typesys.NewFunction(params, proto.Result)
}

// parseBeginEnd parses a `begin Stmt; Stmt; ... end` block.
func (p *Parser) parseBeginEnd() *ast.Block {
	start := p.expect(token.KwBegin).Loc
	var stmts []ast.Stmt
	for !p.peekIs(token.KwEnd) {
		stmts = append(stmts, p.parseStmt())
		if !p.peekIs(token.KwEnd) {
			p.expect(token.Semi)
		} else {
			break
		}
		for p.peekIs(token.Semi) {
			p.next()
		}
	}
	p.expect(token.KwEnd)
	return &ast.Block{StmtBase: ast.Pos(start), Stmts: stmts}
}
