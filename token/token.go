// Package token defines the lexeme representation shared by the lexer,
// parser, and diagnostics: source locations, the closed set of token
// kinds, and the tagged-union payload a Token carries.
package token

import "fmt"

// Location identifies one point in a source file.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

// Span covers a range of source text, used by errors that want to
// underline more than one character.
type Span struct {
	From Location
	To   Location
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%d:%d", s.From, s.To.Line, s.To.Column)
}

func Point(l Location) Span { return Span{From: l, To: l} }

// Kind is the closed set of lexical categories.
type Kind int

const (
	EOF Kind = iota
	Unknown

	Ident
	IntLit
	RealLit
	CharLit
	StringLit

	// keywords
	KwProgram
	KwUnit
	KwUses
	KwInterface
	KwImplementation
	KwVar
	KwConst
	KwType
	KwProcedure
	KwFunction
	KwBegin
	KwEnd
	KwIf
	KwThen
	KwElse
	KwFor
	KwTo
	KwDownto
	KwDo
	KwWhile
	KwRepeat
	KwUntil
	KwCase
	KwOf
	KwWith
	KwArray
	KwRecord
	KwObject
	KwClass
	KwFile
	KwSet
	KwString
	KwPacked
	KwVirtual
	KwOverride
	KwStatic
	KwForward
	KwNil
	KwNot
	KwAnd
	KwOr
	KwXor
	KwDiv
	KwMod
	KwIn
	KwOtherwise
	KwLabel
	KwGoto
	KwExternal

	// literals-as-keywords
	KwTrue
	KwFalse

	// punctuation / operators
	Semi
	Colon
	Comma
	Dot
	DotDot
	Caret
	LParen
	RParen
	LBracket
	RBracket
	Assign // :=
	Equal
	NotEqual // <>
	Less
	LessEq
	Greater
	GreaterEq
	Plus
	Minus
	Star
	Slash
	At
)

var names = map[Kind]string{
	EOF: "EOF", Unknown: "UNKNOWN",
	Ident: "IDENT", IntLit: "INT", RealLit: "REAL", CharLit: "CHAR", StringLit: "STRING",
	KwProgram: "program", KwUnit: "unit", KwUses: "uses",
	KwInterface: "interface", KwImplementation: "implementation",
	KwVar: "var", KwConst: "const", KwType: "type",
	KwProcedure: "procedure", KwFunction: "function",
	KwBegin: "begin", KwEnd: "end",
	KwIf: "if", KwThen: "then", KwElse: "else",
	KwFor: "for", KwTo: "to", KwDownto: "downto", KwDo: "do",
	KwWhile: "while", KwRepeat: "repeat", KwUntil: "until",
	KwCase: "case", KwOf: "of", KwWith: "with",
	KwArray: "array", KwRecord: "record", KwObject: "object", KwClass: "class",
	KwFile: "file", KwSet: "set", KwString: "string", KwPacked: "packed",
	KwVirtual: "virtual", KwOverride: "override", KwStatic: "static",
	KwForward: "forward", KwNil: "nil", KwNot: "not",
	KwAnd: "and", KwOr: "or", KwXor: "xor", KwDiv: "div", KwMod: "mod", KwIn: "in",
	KwOtherwise: "otherwise", KwLabel: "label", KwGoto: "goto", KwExternal: "external",
	KwTrue: "true", KwFalse: "false",
	Semi: ";", Colon: ":", Comma: ",", Dot: ".", DotDot: "..", Caret: "^",
	LParen: "(", RParen: ")", LBracket: "[", RBracket: "]",
	Assign: ":=", Equal: "=", NotEqual: "<>", Less: "<", LessEq: "<=",
	Greater: ">", GreaterEq: ">=", Plus: "+", Minus: "-", Star: "*", Slash: "/", At: "@",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "?"
}

// Keywords maps the lower-cased spelling of every reserved word to its
// Kind. Identifier lookup is case-insensitive, matching standard Pascal.
var Keywords = map[string]Kind{
	"program": KwProgram, "unit": KwUnit, "uses": KwUses,
	"interface": KwInterface, "implementation": KwImplementation,
	"var": KwVar, "const": KwConst, "type": KwType,
	"procedure": KwProcedure, "function": KwFunction,
	"begin": KwBegin, "end": KwEnd,
	"if": KwIf, "then": KwThen, "else": KwElse,
	"for": KwFor, "to": KwTo, "downto": KwDownto, "do": KwDo,
	"while": KwWhile, "repeat": KwRepeat, "until": KwUntil,
	"case": KwCase, "of": KwOf, "with": KwWith,
	"array": KwArray, "record": KwRecord, "object": KwObject, "class": KwClass,
	"file": KwFile, "set": KwSet, "string": KwString, "packed": KwPacked,
	"virtual": KwVirtual, "override": KwOverride, "static": KwStatic,
	"forward": KwForward, "nil": KwNil, "not": KwNot,
	"and": KwAnd, "or": KwOr, "xor": KwXor, "div": KwDiv, "mod": KwMod, "in": KwIn,
	"otherwise": KwOtherwise, "label": KwLabel, "goto": KwGoto, "external": KwExternal,
	"true": KwTrue, "false": KwFalse,
}

// Token is a tagged union: Kind selects which payload field is live.
// Every Token carries a Loc regardless of kind.
type Token struct {
	Kind Kind
	Loc  Location

	// payload, exactly one of which is meaningful depending on Kind
	Ident    string // Ident, and the literal keyword spelling for keywords
	IntVal   int64  // IntLit
	RealVal  float64
	CharVal  byte   // CharLit
	StrVal   string // StringLit
}

func (t Token) String() string {
	switch t.Kind {
	case Ident:
		return fmt.Sprintf("IDENT(%s)", t.Ident)
	case IntLit:
		return fmt.Sprintf("INT(%d)", t.IntVal)
	case RealLit:
		return fmt.Sprintf("REAL(%g)", t.RealVal)
	case CharLit:
		return fmt.Sprintf("CHAR(#%d)", t.CharVal)
	case StringLit:
		return fmt.Sprintf("STRING(%q)", t.StrVal)
	default:
		return t.Kind.String()
	}
}
