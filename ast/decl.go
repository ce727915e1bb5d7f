package ast

import "github.com/gopascal/pgoc/typesys"

// VarDef is one declared variable: a local, a parameter, a global, or
// (after the closure transform, spec.md §4.5) a synthesized
// by-reference capture parameter.
type VarDef struct {
	Name        string
	Type        typesys.Type
	IsReference bool
	IsExternal  bool
}

// VarDeclStmt is a `var` block: a list of VarDef plus, when it
// declares locals inside a function body, the enclosing FuncDecl
// handle the spec calls for. It satisfies both Stmt (function-local
// `var` blocks) and TopLevel (global `var` blocks).
type VarDeclStmt struct {
	StmtBase
	Vars     []*VarDef
	Enclosing *FuncDecl // nil for a top-level/global var block
}

func (*VarDeclStmt) isStmt()     {}
func (*VarDeclStmt) isTopLevel() {}

// TypeDeclTop records a top-level `type Name = ...` binding, kept for
// symbol-table dumps; the type itself already lives in the Universe by
// the time this node exists.
type TypeDeclTop struct {
	TopBase
	Name string
	Type typesys.Type
}

func (*TypeDeclTop) isTopLevel() {}

// ConstDeclTop records a top-level `const Name = ...` binding, kept
// for symbol-table dumps.
type ConstDeclTop struct {
	TopBase
	Name  string
	Type  typesys.Type
	Value interface{} // constfold.Value
}

func (*ConstDeclTop) isTopLevel() {}

// Param is one prototype parameter.
type Param struct {
	Name        string
	Type        typesys.Type
	IsReference bool
}

// Prototype is a function/procedure signature: name, parameters,
// result type, and the flags spec.md §3.3 names (is_forward, has_self,
// base_class). MangledName is filled in by codegen during prototype
// emission (spec.md §4.6).
type Prototype struct {
	Name        string
	Params      []Param
	Result      typesys.Type // typesys.Void for a procedure
	IsForward   bool
	HasSelf     bool
	BaseClass   *typesys.ClassType // non-nil for a method prototype
	MangledName string
}

// IsFunction reports whether the prototype has a non-void result.
func (p *Prototype) IsFunction() bool { return p.Result != nil && p.Result != typesys.Void }

// FuncDecl is a function or procedure definition: its Prototype, local
// variable declarations, body, nested function definitions, the
// captured-variable set the closure transform fills in, and a Parent
// link for walking the lexical nesting chain (spec.md §3.3).
type FuncDecl struct {
	TopBase
	Prototype *Prototype
	Locals    []*VarDeclStmt
	Body      *Block
	Nested    []*FuncDecl
	Captured  []*VarDef // filled in by package closure
	Parent    *FuncDecl // nil for a top-level function
}

func (*FuncDecl) isTopLevel() {}

// QualifiedPath returns the chain of enclosing function names from the
// outermost ancestor down to and including this function, used by
// codegen's mangler (spec.md §4.6).
func (f *FuncDecl) QualifiedPath() []string {
	var path []string
	for cur := f; cur != nil; cur = cur.Parent {
		path = append([]string{cur.Prototype.Name}, path...)
	}
	return path
}

// ProgramDecl is the top-level `program Name; ... begin ... end.` unit.
// Body is the zero-argument function synthesized from the program
// body, named __PascalMain (spec.md §4.4, §6).
type ProgramDecl struct {
	TopBase
	Name  string
	Uses  []string
	Decls []TopLevel // global var/type/const/function declarations, in source order
	Body  *FuncDecl
}

func (*ProgramDecl) isTopLevel() {}

// EntryFunctionName is the fixed, externally linkable name of the
// compiled program body (spec.md §6).
const EntryFunctionName = "__PascalMain"
