package parser

import (
	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/constfold"
	"github.com/gopascal/pgoc/diag"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/token"
	"github.com/gopascal/pgoc/typesys"
)

// builtinNames is the set of identifiers parsed as BuiltinCallExpr
// rather than a resolved user CallExpr; package builtins owns their IR
// emission (spec.md §4.8). Neither package checks a builtin call's
// argument count or argument types.
var builtinNames = map[string]bool{
	"abs": true, "sqr": true, "odd": true, "sqrt": true, "sin": true, "cos": true,
	"ord": true, "chr": true, "succ": true, "pred": true, "length": true,
	"new": true, "dispose": true, "assign": true, "reset": true, "rewrite": true,
	"close": true, "eof": true, "eoln": true, "inc": true, "dec": true,
}

// parseExpr is the entry point for expression parsing: relational
// operators bind loosest, per spec.md §4.4's Pascal-standard
// precedence (relational < additive/or < multiplicative/and < unary).
func (p *Parser) parseExpr() ast.Expr {
	lhs := p.parseAdditive()
	for {
		var op token.Kind
		switch {
		case p.peekIs(token.Equal, token.NotEqual, token.Less, token.LessEq, token.Greater, token.GreaterEq):
			op = p.next().Kind
		case p.peekIs(token.KwIn):
			opTok := p.next()
			rhs := p.parseAdditive()
			lhs = &ast.InExpr{ExprBase: ast.EPos(opTok.Loc, typesys.Boolean), Elem: lhs, Set: rhs}
			continue
		default:
			return lhs
		}
		opLoc := lhs.Loc()
		rhs := p.parseAdditive()
		lhs = &ast.BinaryExpr{ExprBase: ast.EPos(opLoc, typesys.Boolean), Op: op, Left: lhs, Right: rhs}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	lhs := p.parseMultiplicative()
	for p.peekIs(token.Plus, token.Minus, token.KwOr, token.KwXor) {
		opTok := p.next()
		rhs := p.parseMultiplicative()
		lhs = &ast.BinaryExpr{ExprBase: ast.EPos(opTok.Loc, resultTypeOf(lhs, rhs)), Op: opTok.Kind, Left: lhs, Right: rhs}
	}
	return lhs
}

func (p *Parser) parseMultiplicative() ast.Expr {
	lhs := p.parseUnary()
	for p.peekIs(token.Star, token.Slash, token.KwDiv, token.KwMod, token.KwAnd) {
		opTok := p.next()
		rhs := p.parseUnary()
		rt := resultTypeOf(lhs, rhs)
		if opTok.Kind == token.Slash {
			rt = typesys.Real
		}
		lhs = &ast.BinaryExpr{ExprBase: ast.EPos(opTok.Loc, rt), Op: opTok.Kind, Left: lhs, Right: rhs}
	}
	return lhs
}

// resultTypeOf approximates spec.md §4.6's numeric widening rule
// (real beats any integral width) well enough to type-tag the node;
// full compatibility/assignability checking is Type()'s job at every
// use site, not this constructor.
func resultTypeOf(l, r ast.Expr) typesys.Type {
	if l.Type() != nil && l.Type().SameAs(typesys.Real) {
		return typesys.Real
	}
	if r.Type() != nil && r.Type().SameAs(typesys.Real) {
		return typesys.Real
	}
	if l.Type() != nil {
		return l.Type()
	}
	return typesys.Integer
}

func (p *Parser) parseUnary() ast.Expr {
	switch {
	case p.peekIs(token.Minus):
		t := p.next()
		operand := p.parseUnary()
		return &ast.UnaryExpr{ExprBase: ast.EPos(t.Loc, operand.Type()), Op: token.Minus, Operand: operand}
	case p.peekIs(token.Plus):
		t := p.next()
		operand := p.parseUnary()
		return &ast.UnaryExpr{ExprBase: ast.EPos(t.Loc, operand.Type()), Op: token.Plus, Operand: operand}
	case p.peekIs(token.KwNot):
		t := p.next()
		operand := p.parseUnary()
		return &ast.UnaryExpr{ExprBase: ast.EPos(t.Loc, typesys.Boolean), Op: token.KwNot, Operand: operand}
	case p.peekIs(token.At):
		t := p.next()
		operand := p.parseUnary()
		addr, ok := operand.(ast.Addressable)
		if !ok {
			p.fail(t.Loc, "`@` requires an addressable operand")
		}
		return &ast.AddrOfExpr{ExprBase: ast.EPos(t.Loc, typesys.NewPointerTo(operand.Type())), Operand: addr}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by any chain of
// `[...]`, `.name`, `^`, and `(...)` postfix operators.
func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch {
		case p.peekIs(token.LBracket):
			e = p.parseIndex(e)
		case p.peekIs(token.Dot):
			e = p.parseField(e)
		case p.peekIs(token.Caret):
			e = p.parseDeref(e)
		case p.peekIs(token.LParen):
			e = p.parseCallArgs(e)
		default:
			return e
		}
	}
}

func (p *Parser) parseIndex(base ast.Expr) ast.Expr {
	loc := p.expect(token.LBracket).Loc
	addr, ok := base.(ast.Addressable)
	if !ok {
		p.fail(loc, "cannot index a non-addressable expression")
	}
	var indices []ast.Expr
	for {
		indices = append(indices, p.parseExpr())
		if _, ok := p.accept(token.Comma); ok {
			continue
		}
		break
	}
	p.expect(token.RBracket)
	elem := elementTypeOf(addr.Type())
	return &ast.IndexExpr{ExprBase: ast.EPos(loc, elem), Base: addr, Indices: indices}
}

func elementTypeOf(t typesys.Type) typesys.Type {
	if t == nil {
		return typesys.Integer
	}
	if s := t.SubType(); s != nil {
		return s
	}
	return t
}

func (p *Parser) parseField(base ast.Expr) ast.Expr {
	loc := p.expect(token.Dot).Loc
	nameTok := p.expect(token.Ident)
	addr, ok := base.(ast.Addressable)
	if !ok {
		p.fail(loc, "cannot select a field of a non-addressable expression")
	}
	if ct, ok := addr.Type().(*typesys.ClassType); ok {
		if ct.Record.FieldIndex(nameTok.Ident) < 0 {
			if owner, desc := ct.FindMethod(nameTok.Ident); desc != nil {
				return &ast.MethodRefExpr{ExprBase: ast.EPos(loc, typesys.Void), Base: addr, Class: owner, Desc: desc}
			}
		}
	}
	ft := fieldTypeOf(addr.Type(), nameTok.Ident)
	return &ast.FieldExpr{ExprBase: ast.EPos(loc, ft), Base: addr, Name: nameTok.Ident}
}

func fieldTypeOf(t typesys.Type, name string) typesys.Type {
	switch rt := t.(type) {
	case *typesys.RecordType:
		for _, f := range rt.Fields {
			if f.Name == name {
				return f.Of
			}
		}
		if rt.Variant != nil {
			for _, alt := range rt.Variant.Alts {
				for _, f := range alt {
					if f.Name == name {
						return f.Of
					}
				}
			}
		}
	case *typesys.ClassType:
		for _, f := range rt.Record.Fields {
			if f.Name == name {
				return f.Of
			}
		}
	}
	return typesys.Integer
}

func (p *Parser) parseDeref(base ast.Expr) ast.Expr {
	loc := p.expect(token.Caret).Loc
	if ft, ok := base.Type().(*typesys.FileType); ok {
		addr, ok := base.(ast.Addressable)
		if !ok {
			p.fail(loc, "file buffer variable must be addressable")
		}
		return &ast.FileBufferExpr{ExprBase: ast.EPos(loc, ft.Elem), File: addr}
	}
	target := elementTypeOf(base.Type())
	return &ast.DerefExpr{ExprBase: ast.EPos(loc, target), Base: base}
}

func (p *Parser) parseCallArgs(callee ast.Expr) ast.Expr {
	loc := p.expect(token.LParen).Loc
	var args []ast.Expr
	if !p.peekIs(token.RParen) {
		for {
			args = append(args, p.parseExpr())
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
	}
	p.expect(token.RParen)

	if mr, ok := callee.(*ast.MethodRefExpr); ok {
		return p.finishMethodCall(loc, mr, args)
	}

	fr, ok := callee.(*ast.FuncRefExpr)
	if !ok {
		return &ast.CallExpr{ExprBase: ast.EPos(loc, callee.Type()), Callee: callee, Args: args}
	}
	e, _ := p.NS.Find(fr.Name)
	fd, _ := e.(names.FuncDef)
	proto, _ := fd.Prototype.(*ast.Prototype)
	var resultType typesys.Type = typesys.Void
	if proto != nil {
		resultType = proto.Result
	}
	return &ast.CallExpr{ExprBase: ast.EPos(loc, resultType), Callee: callee, Args: args, Prototype: proto}
}

// finishMethodCall resolves `base.Method(args)` to an ordinary
// CallExpr whose Prototype is the out-of-line `procedure
// Class.Method(...)` definition's (carrying the real by-reference
// parameter flags a bare typesys.MethodDesc doesn't keep, spec.md
// §4.7) and whose Args have base spliced in as the self argument.
func (p *Parser) finishMethodCall(loc token.Location, mr *ast.MethodRefExpr, args []ast.Expr) ast.Expr {
	regName := mr.Class.Name + "." + mr.Desc.Name
	e, ok := p.NS.Find(regName)
	if !ok {
		p.fail(loc, "method %s.%s has no definition", mr.Class.Name, mr.Desc.Name)
	}
	fd, ok := e.(names.FuncDef)
	if !ok {
		p.fail(loc, "%s.%s is not callable", mr.Class.Name, mr.Desc.Name)
	}
	proto, _ := fd.Prototype.(*ast.Prototype)
	allArgs := append([]ast.Expr{mr.Base}, args...)
	resultType := typesys.Type(typesys.Void)
	if proto != nil {
		resultType = proto.Result
	}
	return &ast.CallExpr{
		ExprBase:  ast.EPos(loc, resultType),
		Callee:    &ast.FuncRefExpr{ExprBase: ast.EPos(loc, fd.Type), Name: regName},
		Args:      allArgs,
		Prototype: proto,
	}
}

// parsePrimary parses literals, parenthesized expressions, set
// constructors, and identifiers (resolved against the NameStack into
// a variable/const/enum reference, a builtin call, or a user call).
func (p *Parser) parsePrimary() ast.Expr {
	t := p.peek()
	switch t.Kind {
	case token.IntLit:
		p.next()
		return &ast.IntLit{ExprBase: ast.EPos(t.Loc, typesys.Integer), Value: t.IntVal}
	case token.RealLit:
		p.next()
		return &ast.RealLit{ExprBase: ast.EPos(t.Loc, typesys.Real), Value: t.RealVal}
	case token.CharLit:
		p.next()
		return &ast.CharLit{ExprBase: ast.EPos(t.Loc, typesys.Char), Value: t.CharVal}
	case token.StringLit:
		p.next()
		st, _ := typesys.NewString(len(t.StrVal))
		return &ast.StringLit{ExprBase: ast.EPos(t.Loc, st), Value: t.StrVal}
	case token.KwTrue:
		p.next()
		return &ast.IntLit{ExprBase: ast.EPos(t.Loc, typesys.Boolean), Value: 1}
	case token.KwFalse:
		p.next()
		return &ast.IntLit{ExprBase: ast.EPos(t.Loc, typesys.Boolean), Value: 0}
	case token.KwNil:
		p.next()
		return &ast.NilLit{ExprBase: ast.EPos(t.Loc, typesys.NewPointerTo(nil))}
	case token.LParen:
		p.next()
		e := p.parseExpr()
		p.expect(token.RParen)
		return e
	case token.LBracket:
		return p.parseSetLit()
	case token.Ident:
		id := p.next()
		if eqFold(id.Ident, "sizeof") && p.peekIs(token.LParen) {
			return p.parseSizeof(id)
		}
		return p.resolveDesignatorFrom(id)
	default:
		p.fail(t.Loc, "expected an expression, got %s", t.Kind)
		return nil
	}
}

func (p *Parser) parseSetLit() ast.Expr {
	loc := p.expect(token.LBracket).Loc
	var elemType typesys.Type = typesys.Integer
	var elems []ast.Expr
	if !p.peekIs(token.RBracket) {
		for {
			lo := p.parseExpr()
			elemType = lo.Type()
			if _, ok := p.accept(token.DotDot); ok {
				hi := p.parseExpr()
				elems = append(elems, &ast.RangeExpr{ExprBase: ast.EPos(loc, elemType), Lo: lo, Hi: hi})
			} else {
				elems = append(elems, lo)
			}
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
	}
	p.expect(token.RBracket)
	lo, hi, ok := elemType.GetRange()
	if !ok {
		lo, hi = 0, typesys.MaxSetSize-1
	}
	setType := typesys.NewSet(typesys.NewRange(elemType, lo, hi), elemType)
	return &ast.SetLit{ExprBase: ast.EPos(loc, setType), Elements: elems}
}

func (p *Parser) parseSizeof(nameTok token.Token) ast.Expr {
	p.expect(token.LParen)
	if p.peekIs(token.Ident) {
		if e, ok := p.NS.Find(p.peek().Ident); ok {
			if td, ok := e.(names.TypeDef); ok {
				p.next()
				p.expect(token.RParen)
				return &ast.SizeofExpr{ExprBase: ast.EPos(nameTok.Loc, typesys.Integer), OperandType: td.Type}
			}
		}
	}
	operand := p.parseExpr()
	p.expect(token.RParen)
	return &ast.SizeofExpr{ExprBase: ast.EPos(nameTok.Loc, typesys.Integer), Operand: operand}
}

// resolveDesignatorFrom classifies an already-consumed identifier
// token against the NameStack: a constant/enum value folds to a
// literal node, a variable/parameter/with-alias becomes an
// addressable VarExpr-family node, and a procedure/function name
// becomes either a zero-argument call or a callable FuncRefExpr for
// parseCallArgs to finish.
func (p *Parser) resolveDesignatorFrom(id token.Token) ast.Expr {
	e, ok := p.NS.Find(id.Ident)
	if !ok {
		if builtinNames[eqFoldKey(id.Ident)] {
			return p.parseBuiltinCall(id)
		}
		p.Diags.Emit(diag.NameError{Loc: id.Loc, Name: id.Ident, Msg: "undefined identifier"})
		return &ast.VarExpr{ExprBase: ast.EPos(id.Loc, typesys.Integer), Name: id.Ident}
	}
	switch entry := e.(type) {
	case names.ConstDef:
		v, _ := entry.Value.(constfold.Value)
		return constValueToExpr(id.Loc, v)
	case names.EnumDef:
		return &ast.IntLit{ExprBase: ast.EPos(id.Loc, entry.Type), Value: int64(entry.Ordinal)}
	case names.VarDef:
		return &ast.VarExpr{ExprBase: ast.EPos(id.Loc, entry.Type), Name: id.Ident}
	case names.WithDef:
		if fe, ok := entry.Expr.(ast.Addressable); ok {
			return fe
		}
		return &ast.VarExpr{ExprBase: ast.EPos(id.Loc, entry.Type), Name: id.Ident}
	case names.FuncDef:
		proto, _ := entry.Prototype.(*ast.Prototype)
		if p.peekIs(token.LParen) {
			return &ast.FuncRefExpr{ExprBase: ast.EPos(id.Loc, entry.Type), Name: id.Ident}
		}
		var resultType typesys.Type = typesys.Void
		if proto != nil {
			resultType = proto.Result
		}
		return &ast.CallExpr{ExprBase: ast.EPos(id.Loc, resultType), Callee: &ast.FuncRefExpr{ExprBase: ast.EPos(id.Loc, entry.Type), Name: id.Ident}, Prototype: proto}
	default:
		p.Diags.Emit(diag.NameError{Loc: id.Loc, Name: id.Ident, Msg: "does not name a value"})
		return &ast.VarExpr{ExprBase: ast.EPos(id.Loc, typesys.Integer), Name: id.Ident}
	}
}

func (p *Parser) parseBuiltinCall(id token.Token) ast.Expr {
	var args []ast.Expr
	if _, ok := p.accept(token.LParen); ok {
		if !p.peekIs(token.RParen) {
			for {
				args = append(args, p.parseExpr())
				if _, ok := p.accept(token.Comma); ok {
					continue
				}
				break
			}
		}
		p.expect(token.RParen)
	}
	return &ast.BuiltinCallExpr{ExprBase: ast.EPos(id.Loc, builtinResultType(id.Ident, args)), Name: eqFoldKey(id.Ident), Args: args}
}

// builtinResultType covers the handful of builtins whose result type
// isn't simply their argument's type (spec.md §4.8): ord/length return
// an integer, odd/eof/eoln a boolean, chr a char.
func builtinResultType(name string, args []ast.Expr) typesys.Type {
	switch eqFoldKey(name) {
	case "ord", "length":
		return typesys.Integer
	case "odd", "eof", "eoln":
		return typesys.Boolean
	case "chr":
		return typesys.Char
	case "sqrt", "sin", "cos":
		return typesys.Real
	}
	if len(args) > 0 && args[0].Type() != nil {
		return args[0].Type()
	}
	return typesys.Void
}

func eqFoldKey(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func constValueToExpr(loc token.Location, v constfold.Value) ast.Expr {
	switch v.Kind {
	case constfold.KindReal:
		return &ast.RealLit{ExprBase: ast.EPos(loc, typesys.Real), Value: v.Real}
	case constfold.KindChar:
		return &ast.CharLit{ExprBase: ast.EPos(loc, typesys.Char), Value: byte(v.Int)}
	case constfold.KindString:
		st, _ := typesys.NewString(len(v.Str))
		return &ast.StringLit{ExprBase: ast.EPos(loc, st), Value: v.Str}
	case constfold.KindBool:
		return &ast.IntLit{ExprBase: ast.EPos(loc, typesys.Boolean), Value: v.Int}
	case constfold.KindEnum:
		return &ast.IntLit{ExprBase: ast.EPos(loc, v.EnumType), Value: v.Int}
	default:
		return &ast.IntLit{ExprBase: ast.EPos(loc, typesys.Integer), Value: v.Int}
	}
}
