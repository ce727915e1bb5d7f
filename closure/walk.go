// Package closure implements nested-procedure closure conversion:
// finding which outer locals a nested function reads or writes, and
// turning those into synthesized by-reference parameters threaded
// through every call site that can reach it (spec.md §4.5). The
// capture analysis itself is grounded on
// ActiveOberon.ClosureAnalyzer's procStack/pathStack walk, adapted
// here to actually rewrite prototypes and call sites rather than only
// report them, since pgoc has no separate runtime display/static-link
// mechanism to fall back on.
package closure

import "github.com/gopascal/pgoc/ast"

// walkStmt visits every expression reachable from s, in the order they
// would be evaluated, calling visit on each one found.
func walkStmt(s ast.Stmt, visit func(ast.Expr)) {
	switch n := s.(type) {
	case nil:
	case *ast.Block:
		for _, st := range n.Stmts {
			walkStmt(st, visit)
		}
	case *ast.AssignStmt:
		walkExpr(n.LHS, visit)
		walkExpr(n.RHS, visit)
	case *ast.ExprStmt:
		walkExpr(n.X, visit)
	case *ast.IfStmt:
		walkExpr(n.Cond, visit)
		walkStmt(n.Then, visit)
		walkStmt(n.Else, visit)
	case *ast.ForStmt:
		walkExpr(n.Lo, visit)
		walkExpr(n.Hi, visit)
		walkStmt(n.Body, visit)
	case *ast.WhileStmt:
		walkExpr(n.Cond, visit)
		walkStmt(n.Body, visit)
	case *ast.RepeatStmt:
		for _, st := range n.Body {
			walkStmt(st, visit)
		}
		walkExpr(n.Cond, visit)
	case *ast.CaseStmt:
		walkExpr(n.Selector, visit)
		for _, lbl := range n.Labels {
			walkStmt(lbl.Body, visit)
		}
		walkStmt(n.Default, visit)
	case *ast.LabelStmt:
		walkStmt(n.Stmt, visit)
	case *ast.GotoStmt:
	case *ast.WithStmt:
		for _, b := range n.Bindings {
			walkExpr(b.Expr, visit)
		}
		walkStmt(n.Body, visit)
	case *ast.WriteStmt:
		walkExpr(n.File, visit)
		for _, a := range n.Args {
			walkExpr(a.Value, visit)
			walkExpr(a.Width, visit)
			walkExpr(a.Precision, visit)
		}
	case *ast.ReadStmt:
		walkExpr(n.File, visit)
		for _, a := range n.Args {
			walkExpr(a, visit)
		}
	case *ast.VarDeclStmt:
		// no expressions; declarations only
	}
}

// walkExpr visits e and every subexpression, calling visit on each
// node including e itself. A nil e is a no-op, so callers never need
// to guard optional fields (e.g. WriteStmt.File).
func walkExpr(e ast.Expr, visit func(ast.Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case *ast.RealLit, *ast.IntLit, *ast.CharLit, *ast.StringLit, *ast.NilLit, *ast.VarExpr, *ast.FuncRefExpr:
		// leaves
	case *ast.SetLit:
		for _, el := range n.Elements {
			walkExpr(el, visit)
		}
	case *ast.RangeExpr:
		walkExpr(n.Lo, visit)
		walkExpr(n.Hi, visit)
	case *ast.IndexExpr:
		walkExpr(n.Base, visit)
		for _, ix := range n.Indices {
			walkExpr(ix, visit)
		}
	case *ast.FieldExpr:
		walkExpr(n.Base, visit)
	case *ast.DerefExpr:
		walkExpr(n.Base, visit)
	case *ast.FileBufferExpr:
		walkExpr(n.File, visit)
	case *ast.BinaryExpr:
		walkExpr(n.Left, visit)
		walkExpr(n.Right, visit)
	case *ast.UnaryExpr:
		walkExpr(n.Operand, visit)
	case *ast.InExpr:
		walkExpr(n.Elem, visit)
		walkExpr(n.Set, visit)
	case *ast.CallExpr:
		walkExpr(n.Callee, visit)
		for _, a := range n.Args {
			walkExpr(a, visit)
		}
	case *ast.BuiltinCallExpr:
		for _, a := range n.Args {
			walkExpr(a, visit)
		}
	case *ast.SizeofExpr:
		walkExpr(n.Operand, visit)
	case *ast.AddrOfExpr:
		walkExpr(n.Operand, visit)
	}
}
