package parser

import (
	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/token"
	"github.com/gopascal/pgoc/typesys"
)

// parseStmt implements spec.md §4.4's statement grammar, dispatching
// on the leading keyword or (for the assignment/call/goto-label case)
// falling through to expression parsing.
func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.peekIs(token.KwBegin):
		return p.parseBeginEnd()
	case p.peekIs(token.KwIf):
		return p.parseIfStmt()
	case p.peekIs(token.KwFor):
		return p.parseForStmt()
	case p.peekIs(token.KwWhile):
		return p.parseWhileStmt()
	case p.peekIs(token.KwRepeat):
		return p.parseRepeatStmt()
	case p.peekIs(token.KwCase):
		return p.parseCaseStmt()
	case p.peekIs(token.KwWith):
		return p.parseWithStmt()
	case p.peekIs(token.KwGoto):
		return p.parseGotoStmt()
	case p.peekIs(token.Ident) && p.isWriteBuiltin():
		return p.parseWriteStmt()
	case p.peekIs(token.Ident) && p.isReadBuiltin():
		return p.parseReadStmt()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *Parser) isWriteBuiltin() bool {
	name := p.peek().Ident
	return eqFold(name, "write") || eqFold(name, "writeln")
}

func (p *Parser) isReadBuiltin() bool {
	name := p.peek().Ident
	return eqFold(name, "read") || eqFold(name, "readln")
}

func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// parseSimpleStmt handles a label prefix, an assignment, or a bare
// procedure-call expression statement. A leading `Ident :` that does
// not resolve to any declared name is treated as a label rather than
// an assignment target, since `label` sections only record names for
// diagnostics and never bind them in the NameStack.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.peek().Loc
	if p.peekIs(token.Ident) {
		id := p.peek()
		if _, declared := p.NS.Find(id.Ident); !declared {
			p.next()
			if _, ok := p.accept(token.Colon); ok {
				inner := p.parseStmt()
				return &ast.LabelStmt{StmtBase: ast.Pos(start), Name: id.Ident, Stmt: inner}
			}
			return p.finishSimpleStmt(start, p.exprFromIdent(id))
		}
	}
	lhs := p.parseExpr()
	return p.finishSimpleStmt(start, lhs)
}

func (p *Parser) finishSimpleStmt(start token.Location, lhs ast.Expr) ast.Stmt {
	if _, ok := p.accept(token.Assign); ok {
		addr, ok := lhs.(ast.Addressable)
		if !ok {
			p.fail(start, "left side of `:=` is not assignable")
		}
		rhs := p.parseExpr()
		return &ast.AssignStmt{StmtBase: ast.Pos(start), LHS: addr, RHS: rhs}
	}
	return &ast.ExprStmt{StmtBase: ast.Pos(start), X: lhs}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.expect(token.KwIf).Loc
	cond := p.parseExpr()
	p.expect(token.KwThen)
	then := p.parseStmt()
	var elseStmt ast.Stmt
	if _, ok := p.accept(token.KwElse); ok {
		elseStmt = p.parseStmt()
	}
	return &ast.IfStmt{StmtBase: ast.Pos(start), Cond: cond, Then: then, Else: elseStmt}
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.expect(token.KwFor).Loc
	v := p.expect(token.Ident)
	p.expect(token.Assign)
	lo := p.parseExpr()
	down := false
	if p.peekIs(token.KwDownto) {
		p.next()
		down = true
	} else {
		p.expect(token.KwTo)
	}
	hi := p.parseExpr()
	p.expect(token.KwDo)
	body := p.parseStmt()
	return &ast.ForStmt{StmtBase: ast.Pos(start), Var: v.Ident, Lo: lo, Hi: hi, Down: down, Body: body}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.expect(token.KwWhile).Loc
	cond := p.parseExpr()
	p.expect(token.KwDo)
	body := p.parseStmt()
	return &ast.WhileStmt{StmtBase: ast.Pos(start), Cond: cond, Body: body}
}

func (p *Parser) parseRepeatStmt() ast.Stmt {
	start := p.expect(token.KwRepeat).Loc
	var stmts []ast.Stmt
	for !p.peekIs(token.KwUntil) {
		stmts = append(stmts, p.parseStmt())
		if !p.peekIs(token.KwUntil) {
			p.expect(token.Semi)
		}
		for p.peekIs(token.Semi) {
			p.next()
		}
	}
	p.expect(token.KwUntil)
	cond := p.parseExpr()
	return &ast.RepeatStmt{StmtBase: ast.Pos(start), Body: stmts, Cond: cond}
}

func (p *Parser) parseCaseStmt() ast.Stmt {
	start := p.expect(token.KwCase).Loc
	selector := p.parseExpr()
	p.expect(token.KwOf)

	var labels []ast.CaseLabel
	var def ast.Stmt
	for !p.peekIs(token.KwEnd) {
		if p.peekIs(token.KwOtherwise) {
			p.next()
			def = p.parseStmt()
			if p.peekIs(token.Semi) {
				p.next()
			}
			continue
		}
		var values []int64
		for {
			v := p.parseConstExprValue()
			values = append(values, v.Int)
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
		p.expect(token.Colon)
		body := p.parseStmt()
		labels = append(labels, ast.CaseLabel{Values: values, Body: body})
		if p.peekIs(token.Semi) {
			p.next()
		}
	}
	p.expect(token.KwEnd)
	return &ast.CaseStmt{StmtBase: ast.Pos(start), Selector: selector, Labels: labels, Default: def}
}

func (p *Parser) parseWithStmt() ast.Stmt {
	start := p.expect(token.KwWith).Loc
	var bindings []ast.WithBinding
	guard := p.NS.Enter()
	for {
		e := p.parseExpr()
		addr, ok := e.(ast.Addressable)
		if !ok {
			p.fail(start, "`with` requires an addressable record/object expression")
		}
		bindings = append(bindings, ast.WithBinding{Alias: "with" + itoa(len(bindings)+1), Expr: addr})
		p.bindWithFields(addr)
		if _, ok := p.accept(token.Comma); ok {
			continue
		}
		break
	}
	p.expect(token.KwDo)
	body := p.parseStmt()
	guard.Exit()
	return &ast.WithStmt{StmtBase: ast.Pos(start), Bindings: bindings, Body: body}
}

// bindWithFields makes every field of base's record/class type
// resolvable as a bare identifier for the extent of the enclosing
// `with` scope, each one a FieldExpr rooted at base (spec.md §4.6's
// `with` binding). A pointer-typed base is auto-dereferenced first.
func (p *Parser) bindWithFields(base ast.Addressable) {
	t := base.Type()
	if pt, ok := t.(*typesys.PointerType); ok {
		base = &ast.DerefExpr{ExprBase: ast.EPos(base.Loc(), pt.Target), Base: base}
		t = pt.Target
	}
	var fields []*typesys.FieldType
	switch rt := t.(type) {
	case *typesys.RecordType:
		fields = rt.Fields
	case *typesys.ClassType:
		fields = rt.Record.Fields
	default:
		return
	}
	for _, f := range fields {
		fe := &ast.FieldExpr{ExprBase: ast.EPos(base.Loc(), f.Of), Base: base, Name: f.Name}
		p.NS.Add(f.Name, names.WithDef{Expr: fe, Type: f.Of})
	}
}

func itoa(n int) string {
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

func (p *Parser) parseGotoStmt() ast.Stmt {
	start := p.expect(token.KwGoto).Loc
	id := p.expect(token.Ident)
	return &ast.GotoStmt{StmtBase: ast.Pos(start), Name: id.Ident}
}

// parseWriteStmt handles `write`/`writeln [(File,] Arg[:W[:P]], ... [)]`.
func (p *Parser) parseWriteStmt() ast.Stmt {
	start := p.peek().Loc
	nameTok := p.next()
	ln := eqFold(nameTok.Ident, "writeln")

	stmt := &ast.WriteStmt{StmtBase: ast.Pos(start), Ln: ln}
	if _, ok := p.accept(token.LParen); ok {
		if p.peekIs(token.RParen) {
			p.next()
			return stmt
		}
		for {
			arg := p.parseWriteArg()
			stmt.Args = append(stmt.Args, arg)
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
		p.expect(token.RParen)
	}
	return stmt
}

func (p *Parser) parseWriteArg() ast.WriteArg {
	v := p.parseExpr()
	arg := ast.WriteArg{Value: v}
	if _, ok := p.accept(token.Colon); ok {
		arg.Width = p.parseExpr()
		if _, ok := p.accept(token.Colon); ok {
			arg.Precision = p.parseExpr()
		}
	}
	return arg
}

// parseReadStmt handles `read`/`readln [(File,] Var, ... [)]`.
func (p *Parser) parseReadStmt() ast.Stmt {
	start := p.peek().Loc
	nameTok := p.next()
	ln := eqFold(nameTok.Ident, "readln")

	stmt := &ast.ReadStmt{StmtBase: ast.Pos(start), Ln: ln}
	if _, ok := p.accept(token.LParen); ok {
		if p.peekIs(token.RParen) {
			p.next()
			return stmt
		}
		for {
			v := p.parseExpr()
			addr, ok := v.(ast.Addressable)
			if !ok {
				p.fail(start, "read argument must be a variable reference")
			}
			stmt.Args = append(stmt.Args, addr)
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
		p.expect(token.RParen)
	}
	return stmt
}

// exprFromIdent turns a bareword Ident token already consumed as a
// label lookahead into a designator expression, delegating to the
// same resolution logic parseExpr's primary step uses.
func (p *Parser) exprFromIdent(id token.Token) ast.Expr {
	return p.resolveDesignatorFrom(id)
}
