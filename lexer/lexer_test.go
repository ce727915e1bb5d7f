package lexer

import (
	"strings"
	"testing"

	"github.com/gopascal/pgoc/token"
)

func lexAll(src string) []token.Token {
	l := New(strings.NewReader(src), "stdin")
	var out []token.Token
	for {
		tok := l.Lex()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	tokens := lexAll("aaa if else then ;")
	want := []token.Kind{token.Ident, token.KwIf, token.KwElse, token.KwThen, token.Semi, token.EOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %#v", len(tokens), len(want), tokens)
	}
	for i, k := range want {
		if tokens[i].Kind != k {
			t.Errorf("token %d: got %v, want %v", i, tokens[i].Kind, k)
		}
	}
	if tokens[0].Ident != "aaa" {
		t.Errorf("token 0: got Ident %q, want %q", tokens[0].Ident, "aaa")
	}
}

func TestLexerNumbers(t *testing.T) {
	tokens := lexAll("42 3.14")
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3: %#v", len(tokens), tokens)
	}
	if tokens[0].Kind != token.IntLit || tokens[0].IntVal != 42 {
		t.Errorf("token 0: got %#v, want IntLit 42", tokens[0])
	}
	if tokens[1].Kind != token.RealLit || tokens[1].RealVal != 3.14 {
		t.Errorf("token 1: got %#v, want RealLit 3.14", tokens[1])
	}
}

func TestLexerStringLiteral(t *testing.T) {
	tokens := lexAll("'hello world'")
	if len(tokens) != 2 || tokens[0].Kind != token.StringLit {
		t.Fatalf("got %#v, want a single StringLit", tokens)
	}
	if tokens[0].StrVal != "hello world" {
		t.Errorf("got %q, want %q", tokens[0].StrVal, "hello world")
	}
}

func TestLexerCaseInsensitiveKeywords(t *testing.T) {
	tokens := lexAll("BEGIN End")
	if len(tokens) != 3 || tokens[0].Kind != token.KwBegin || tokens[1].Kind != token.KwEnd {
		t.Fatalf("got %#v, want KwBegin KwEnd EOF", tokens)
	}
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	l := New(strings.NewReader("if then"), "stdin")
	first := l.Peek()
	second := l.Peek()
	if first.Kind != token.KwIf || second.Kind != token.KwIf {
		t.Fatalf("Peek should be idempotent, got %#v then %#v", first, second)
	}
	consumed := l.Lex()
	if consumed.Kind != token.KwIf {
		t.Fatalf("Lex after Peek: got %#v, want KwIf", consumed)
	}
	next := l.Lex()
	if next.Kind != token.KwThen {
		t.Fatalf("Lex: got %#v, want KwThen", next)
	}
}
