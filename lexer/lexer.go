// Package lexer turns a Pascal source file into a stream of token.Token
// values, one token per call to Lex, with a single token of lookahead
// via Peek. It holds no history beyond the raw reader cursor, matching
// the shape of tawago's Lexer (bufio.Reader + backup + kinded helper).
package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/gopascal/pgoc/diag"
	"github.com/gopascal/pgoc/token"
)

type Lexer struct {
	file   string
	pos    token.Location
	reader *bufio.Reader
	peeked *token.Token
}

func New(r io.Reader, filename string) *Lexer {
	return &Lexer{
		file:   filename,
		pos:    token.Location{File: filename, Line: 1, Column: 0},
		reader: bufio.NewReader(r),
	}
}

func (l *Lexer) here() token.Location { return l.pos }

func (l *Lexer) advance() (rune, error) {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == '\n' {
		l.pos.Line++
		l.pos.Column = 0
	} else {
		l.pos.Column++
	}
	return r, nil
}

// backup un-reads the rune advance last returned. When that rune was a
// newline, the line count is stepped back instead of the column, since
// reading the newline again resets the column to 0.
func (l *Lexer) backup() {
	if err := l.reader.UnreadRune(); err != nil {
		panic(err)
	}
	if b, ok := l.peekByte(); ok && b == '\n' {
		l.pos.Line--
		return
	}
	l.pos.Column--
}

func (l *Lexer) peekByte() (byte, bool) {
	b, err := l.reader.Peek(1)
	if err != nil || len(b) == 0 {
		return 0, false
	}
	return b[0], true
}

func simple(k token.Kind, loc token.Location) token.Token {
	return token.Token{Kind: k, Loc: loc}
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentCont(r rune) bool  { return isIdentStart(r) || unicode.IsDigit(r) }

// Peek returns, without consuming, the next token.
func (l *Lexer) Peek() token.Token {
	if l.peeked == nil {
		t := l.Lex()
		l.peeked = &t
	}
	return *l.peeked
}

func (l *Lexer) PeekIs(kinds ...token.Kind) bool {
	p := l.Peek()
	for _, k := range kinds {
		if p.Kind == k {
			return true
		}
	}
	return false
}

// Lex consumes and returns the next token.
func (l *Lexer) Lex() token.Token {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t
	}
	return l.lex()
}

func (l *Lexer) lex() token.Token {
	for {
		start := l.here()
		r, err := l.advance()
		if err != nil {
			if err == io.EOF {
				return simple(token.EOF, start)
			}
			panic(err)
		}

		switch {
		case unicode.IsSpace(r):
			continue
		case r == '{':
			l.skipBraceComment(start)
			continue
		case r == '(':
			if b, ok := l.peekByte(); ok && b == '*' {
				l.advance()
				l.skipParenComment(start)
				continue
			}
			return simple(token.LParen, start)
		case isIdentStart(r):
			return l.lexIdentOrKeyword(start, r)
		case unicode.IsDigit(r):
			return l.lexNumber(start, r)
		case r == '\'':
			return l.lexString(start)
		case r == '#':
			return l.lexCharNumeric(start)
		}

		switch r {
		case ';':
			return simple(token.Semi, start)
		case ',':
			return simple(token.Comma, start)
		case ')':
			return simple(token.RParen, start)
		case '[':
			return simple(token.LBracket, start)
		case ']':
			return simple(token.RBracket, start)
		case '^':
			return simple(token.Caret, start)
		case '@':
			return simple(token.At, start)
		case '+':
			return simple(token.Plus, start)
		case '-':
			return simple(token.Minus, start)
		case '*':
			return simple(token.Star, start)
		case '/':
			return simple(token.Slash, start)
		case '=':
			return simple(token.Equal, start)
		case ':':
			if b, ok := l.peekByte(); ok && b == '=' {
				l.advance()
				return simple(token.Assign, start)
			}
			return simple(token.Colon, start)
		case '<':
			if b, ok := l.peekByte(); ok {
				if b == '=' {
					l.advance()
					return simple(token.LessEq, start)
				}
				if b == '>' {
					l.advance()
					return simple(token.NotEqual, start)
				}
			}
			return simple(token.Less, start)
		case '>':
			if b, ok := l.peekByte(); ok && b == '=' {
				l.advance()
				return simple(token.GreaterEq, start)
			}
			return simple(token.Greater, start)
		case '.':
			if b, ok := l.peekByte(); ok && b == '.' {
				l.advance()
				return simple(token.DotDot, start)
			}
			return simple(token.Dot, start)
		}

		panic(diag.LexError{Loc: start, Msg: fmt.Sprintf("unexpected character %q", r)})
	}
}

func (l *Lexer) skipBraceComment(start token.Location) {
	for {
		r, err := l.advance()
		if err != nil {
			panic(diag.LexError{Loc: start, Msg: "unterminated comment"})
		}
		if r == '}' {
			return
		}
	}
}

func (l *Lexer) skipParenComment(start token.Location) {
	for {
		r, err := l.advance()
		if err != nil {
			panic(diag.LexError{Loc: start, Msg: "unterminated comment"})
		}
		if r == '*' {
			if b, ok := l.peekByte(); ok && b == ')' {
				l.advance()
				return
			}
		}
	}
}

func (l *Lexer) lexIdentOrKeyword(start token.Location, first rune) token.Token {
	var b strings.Builder
	b.WriteRune(first)
	for {
		r, err := l.advance()
		if err != nil {
			break
		}
		if !isIdentCont(r) {
			l.backup()
			break
		}
		b.WriteRune(r)
	}
	lit := b.String()
	if kind, ok := token.Keywords[strings.ToLower(lit)]; ok {
		return token.Token{Kind: kind, Loc: start, Ident: lit}
	}
	return token.Token{Kind: token.Ident, Loc: start, Ident: lit}
}

// lexNumber handles Pascal integer and real literals, including the
// exponent form `d.dE±d`.
func (l *Lexer) lexNumber(start token.Location, first rune) token.Token {
	var b strings.Builder
	b.WriteRune(first)
	isReal := false

	consumeDigits := func() {
		for {
			r, err := l.advance()
			if err != nil {
				return
			}
			if !unicode.IsDigit(r) {
				l.backup()
				return
			}
			b.WriteRune(r)
		}
	}
	consumeDigits()

	if r, ok := l.peekByte(); ok && r == '.' {
		// disambiguate from the `..` range operator: only consume the
		// dot as a decimal point if a digit follows it.
		l.advance()
		if r2, ok2 := l.peekByte(); ok2 && r2 >= '0' && r2 <= '9' {
			isReal = true
			b.WriteByte('.')
			consumeDigits()
		} else {
			l.backup()
		}
	}

	if r, ok := l.peekByte(); ok && (r == 'e' || r == 'E') {
		l.advance()
		isReal = true
		b.WriteByte('e')
		if r2, ok2 := l.peekByte(); ok2 && (r2 == '+' || r2 == '-') {
			l.advance()
			b.WriteByte(byte(r2))
		}
		consumeDigits()
	}

	if isReal {
		f, err := strconv.ParseFloat(b.String(), 64)
		if err != nil {
			panic(diag.LexError{Loc: start, Msg: "malformed real literal " + b.String()})
		}
		return token.Token{Kind: token.RealLit, Loc: start, RealVal: f}
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		panic(diag.LexError{Loc: start, Msg: "malformed integer literal " + b.String()})
	}
	return token.Token{Kind: token.IntLit, Loc: start, IntVal: n}
}

// lexString handles 'literal' with doubled '' as an escaped quote. A
// string containing exactly one character is still returned as
// StringLit; the parser/type checker decides whether it is char-typed.
func (l *Lexer) lexString(start token.Location) token.Token {
	var b strings.Builder
	for {
		r, err := l.advance()
		if err != nil {
			panic(diag.LexError{Loc: start, Msg: "unterminated string literal"})
		}
		if r == '\'' {
			if p, ok := l.peekByte(); ok && p == '\'' {
				l.advance()
				b.WriteByte('\'')
				continue
			}
			break
		}
		b.WriteRune(r)
	}
	return token.Token{Kind: token.StringLit, Loc: start, StrVal: b.String()}
}

// lexCharNumeric handles the `#nn` numeric character-constant form.
func (l *Lexer) lexCharNumeric(start token.Location) token.Token {
	var b strings.Builder
	for {
		r, err := l.advance()
		if err != nil {
			break
		}
		if !unicode.IsDigit(r) {
			l.backup()
			break
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		panic(diag.LexError{Loc: start, Msg: "malformed #nn character constant"})
	}
	n, err := strconv.Atoi(b.String())
	if err != nil || n < 0 || n > 255 {
		panic(diag.LexError{Loc: start, Msg: "character code out of range: " + b.String()})
	}
	return token.Token{Kind: token.CharLit, Loc: start, CharVal: byte(n)}
}
