package codegen

import (
	"encoding/json"
	"strings"

	"github.com/gopascal/pgoc/ast"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
)

// Info is the exported-signature blob embedded in every compiled unit,
// mirroring tawago's typeInfo{Functions map[string]string} (typeinfo.go)
// so a `typeinfo` CLI invocation can introspect a compiled program or
// library without re-parsing its source (spec.md §6).
type Info struct {
	Functions map[string]string `json:"functions"`
}

// BuildTypeInfo collects every top-level, non-method function's
// signature, keyed by its unqualified name — nested functions and
// class methods are implementation details of their enclosing
// unit/class and are deliberately left out, matching spec.md §6's
// "exported function signatures."
func BuildTypeInfo(prog *ast.ProgramDecl) Info {
	info := Info{Functions: map[string]string{}}
	for _, d := range prog.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Prototype.BaseClass != nil {
			continue
		}
		info.Functions[fn.Prototype.Name] = signatureString(fn.Prototype)
	}
	return info
}

func signatureString(p *ast.Prototype) string {
	var parts []string
	for _, param := range p.Params {
		t := param.Type.String()
		if param.IsReference {
			t = "var " + t
		}
		parts = append(parts, t)
	}
	sig := "(" + strings.Join(parts, ", ") + ")"
	if p.IsFunction() {
		sig += ": " + p.Result.String()
	}
	return sig
}

// RegisterTypeInfo embeds info as a JSON blob under the fixed symbol
// __pascal_typeinfo, matching tawago's registerTypeInfoWithModule
// exactly: an immutable global char array a `typeinfo` subcommand
// dlopens and reads back (spec.md §6).
func RegisterTypeInfo(m *ir.Module, info Info) {
	data, err := json.Marshal(info)
	if err != nil {
		panic(err)
	}
	g := m.NewGlobalDef("__pascal_typeinfo", constant.NewCharArray(append(data, 0)))
	g.Immutable = true
}
