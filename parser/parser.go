// Package parser implements the recursive-descent, one-token-lookahead
// parser spec.md §4.4 describes: every entry point on failure panics
// with a typed diag error; Parse recovers at the top, wraps the panic
// with tracerr (matching tawago.Parser.Parse's defer/recover/
// tracerr.Wrap shape exactly), and the driver decides whether to
// continue. The parser drives names.NameStack and typesys.Universe as
// it goes, so declarations are visible to the rest of the same block
// as soon as they are parsed.
package parser

import (
	"fmt"

	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/diag"
	"github.com/gopascal/pgoc/lexer"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/token"
	"github.com/gopascal/pgoc/typesys"
	"github.com/ztrue/tracerr"
)

type Parser struct {
	lex   *lexer.Lexer
	NS    *names.NameStack
	Uni   *typesys.Universe
	Diags *diag.Diagnostics

	curFunc *ast.FuncDecl
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		lex:   l,
		NS:    names.New(),
		Uni:   typesys.NewUniverse(),
		Diags: &diag.Diagnostics{},
	}
	p.registerBuiltinTypeNames()
	return p
}

// --- token plumbing ---

func (p *Parser) peek() token.Token   { return p.lex.Peek() }
func (p *Parser) next() token.Token   { return p.lex.Lex() }
func (p *Parser) peekIs(k ...token.Kind) bool { return p.lex.PeekIs(k...) }

func (p *Parser) expect(k token.Kind) token.Token {
	t := p.next()
	if t.Kind != k {
		panic(diag.SyntaxError{Loc: t.Loc, Expected: []token.Kind{k}, Got: t.Kind})
	}
	return t
}

func (p *Parser) expectOneOf(ks ...token.Kind) token.Token {
	t := p.next()
	for _, k := range ks {
		if t.Kind == k {
			return t
		}
	}
	panic(diag.SyntaxError{Loc: t.Loc, Expected: ks, Got: t.Kind})
}

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.peekIs(k) {
		return p.next(), true
	}
	return token.Token{}, false
}

func (p *Parser) fail(loc token.Location, format string, args ...interface{}) {
	panic(diag.SyntaxError{Loc: loc, Msg: fmt.Sprintf(format, args...)})
}

// Parse consumes the whole token stream and returns the compiled
// program's top-level nodes. Parse errors are recovered here and
// returned as a wrapped error, exactly as tawago.Parser.Parse does.
func (p *Parser) Parse() (prog *ast.ProgramDecl, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = tracerr.Wrap(e)
				return
			}
			panic(r)
		}
	}()

	prog = p.parseProgram()
	return prog, nil
}

// parseProgram implements spec.md §4.4's top-level order: `program`
// header, then a loop selecting between var/type/const/procedure/
// function, then the program body wrapped as __PascalMain.
func (p *Parser) parseProgram() *ast.ProgramDecl {
	start := p.peek().Loc
	p.expect(token.KwProgram)
	nameTok := p.expect(token.Ident)
	programName := nameTok.Ident

	var uses []string
	if p.peekIs(token.LParen) {
		// optional `program Name(input, output);` file-list decoration
		p.next()
		for {
			p.expectOneOf(token.Ident)
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
		p.expect(token.RParen)
	}
	p.expect(token.Semi)

	if p.peekIs(token.KwUses) {
		p.next()
		for {
			u := p.expect(token.Ident)
			uses = append(uses, u.Ident)
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
		p.expect(token.Semi)
	}

	var topLevels []ast.TopLevel
	var bodyLocals []*ast.VarDeclStmt

	for {
		switch {
		case p.peekIs(token.KwVar):
			vd := p.parseVarBlock(nil)
			topLevels = append(topLevels, vd)
			bodyLocals = append(bodyLocals, vd)
		case p.peekIs(token.KwConst):
			topLevels = append(topLevels, p.parseConstBlock()...)
		case p.peekIs(token.KwType):
			topLevels = append(topLevels, p.parseTypeBlock()...)
		case p.peekIs(token.KwProcedure, token.KwFunction):
			fn := p.parseFunctionDecl(nil)
			if fn != nil {
				topLevels = append(topLevels, fn)
			}
		case p.peekIs(token.KwLabel):
			p.next()
			for {
				p.expect(token.Ident)
				if _, ok := p.accept(token.Comma); ok {
					continue
				}
				break
			}
			p.expect(token.Semi)
		case p.peekIs(token.KwBegin):
			body := p.parseMainBody()
			mainProto := &ast.Prototype{Name: ast.EntryFunctionName, Result: typesys.Void}
			mainFn := &ast.FuncDecl{
				TopBase:   ast.TPos(start),
				Prototype: mainProto,
				Locals:    bodyLocals,
				Body:      body,
			}
			p.expect(token.Dot)
			return &ast.ProgramDecl{
				TopBase: ast.TPos(start),
				Name:    programName,
				Uses:    uses,
				Decls:   topLevels,
				Body:    mainFn,
			}
		default:
			t := p.peek()
			p.fail(t.Loc, "unexpected token %s at top level", t.Kind)
		}
	}
}

func (p *Parser) parseMainBody() *ast.Block {
	p.enterScope()
	defer p.exitScope()
	return p.parseBeginEnd()
}

func (p *Parser) enterScope() { p.NS.Push() }
func (p *Parser) exitScope()  { p.NS.Pop() }
