package closure

import (
	"testing"

	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/typesys"
)

// buildNestedCapture builds a program whose body declares a local x and
// a nested procedure Inner that reads and writes x, matching the shape
// spec.md §4.5 describes: Inner should gain a synthesized by-reference
// parameter for x, and the call to Inner from the body should gain the
// matching extra argument.
func buildNestedCapture() *ast.ProgramDecl {
	xDef := &ast.VarDef{Name: "x", Type: typesys.Integer}

	innerProto := &ast.Prototype{Name: "Inner", Result: typesys.Void}
	innerBody := &ast.Block{Stmts: []ast.Stmt{
		&ast.AssignStmt{
			LHS: &ast.VarExpr{Name: "x"},
			RHS: &ast.IntLit{Value: 1},
		},
	}}
	inner := &ast.FuncDecl{Prototype: innerProto, Body: innerBody}

	bodyProto := &ast.Prototype{Name: ast.EntryFunctionName, Result: typesys.Void}
	body := &ast.FuncDecl{
		Prototype: bodyProto,
		Locals:    []*ast.VarDeclStmt{{Vars: []*ast.VarDef{xDef}}},
		Nested:    []*ast.FuncDecl{inner},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: &ast.CallExpr{
				Callee:    &ast.FuncRefExpr{Name: "Inner"},
				Prototype: innerProto,
			}},
		}},
	}
	inner.Parent = body

	return &ast.ProgramDecl{Name: "P", Body: body}
}

func TestConvertCapturesOuterLocalByReference(t *testing.T) {
	prog := buildNestedCapture()
	inner := prog.Body.Nested[0]

	Convert(prog)

	if len(inner.Captured) != 1 {
		t.Fatalf("got %d captures, want 1: %#v", len(inner.Captured), inner.Captured)
	}
	captured := inner.Captured[0]
	if captured.Name != "x" || !captured.IsReference || captured.Type != typesys.Integer {
		t.Fatalf("unexpected capture: %#v", captured)
	}

	if len(inner.Prototype.Params) != 1 {
		t.Fatalf("got %d params, want 1: %#v", len(inner.Prototype.Params), inner.Prototype.Params)
	}
	p := inner.Prototype.Params[0]
	if p.Name != "x" || !p.IsReference {
		t.Fatalf("unexpected synthesized param: %#v", p)
	}
}

func TestConvertRewritesCallSiteWithCaptureArgument(t *testing.T) {
	prog := buildNestedCapture()
	Convert(prog)

	call := prog.Body.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.CallExpr)
	if len(call.Args) != 1 {
		t.Fatalf("got %d call args, want 1: %#v", len(call.Args), call.Args)
	}
	arg, ok := call.Args[0].(*ast.VarExpr)
	if !ok || arg.Name != "x" {
		t.Fatalf("expected call arg referencing x, got %#v", call.Args[0])
	}
}

func TestConvertIsIdempotent(t *testing.T) {
	prog := buildNestedCapture()
	inner := prog.Body.Nested[0]

	Convert(prog)
	firstCaptures := len(inner.Captured)
	firstParams := len(inner.Prototype.Params)
	call := prog.Body.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.CallExpr)
	firstArgs := len(call.Args)

	Convert(prog)

	if len(inner.Captured) != firstCaptures {
		t.Fatalf("second Convert changed capture count: %d -> %d", firstCaptures, len(inner.Captured))
	}
	if len(inner.Prototype.Params) != firstParams {
		t.Fatalf("second Convert changed param count: %d -> %d", firstParams, len(inner.Prototype.Params))
	}
	if len(call.Args) != firstArgs {
		t.Fatalf("second Convert changed call arg count: %d -> %d", firstArgs, len(call.Args))
	}
}

func TestConvertLeavesUnrelatedFunctionUncaptured(t *testing.T) {
	proto := &ast.Prototype{Name: "Standalone", Result: typesys.Void}
	fn := &ast.FuncDecl{
		Prototype: proto,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.AssignStmt{
				LHS: &ast.VarExpr{Name: "y"},
				RHS: &ast.IntLit{Value: 2},
			},
		}},
		Locals: []*ast.VarDeclStmt{{Vars: []*ast.VarDef{{Name: "y", Type: typesys.Integer}}}},
	}
	body := &ast.FuncDecl{Prototype: &ast.Prototype{Name: ast.EntryFunctionName, Result: typesys.Void}, Body: &ast.Block{}}
	prog := &ast.ProgramDecl{Name: "P", Decls: []ast.TopLevel{fn}, Body: body}

	Convert(prog)

	if len(fn.Captured) != 0 {
		t.Fatalf("expected no captures for a function that only touches its own local, got %#v", fn.Captured)
	}
}
