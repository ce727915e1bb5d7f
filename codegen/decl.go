package codegen

import (
	"github.com/gopascal/pgoc/ast"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/typesys"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// declareTypesAndConsts walks the program's top-level declarations and
// installs everything that has no dependency on function bodies or
// vtables existing yet: enum members and folded constants go straight
// into the NameStack, since they have no backend storage at all
// (spec.md §4.2/§4.4).
func (c *Context) declareTypesAndConsts(decls []ast.TopLevel) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.TypeDeclTop:
			c.declareNamedType(n)
		case *ast.ConstDeclTop:
			c.NS.Add(n.Name, names.ConstDef{Value: n.Value})
		}
	}
}

// declareGlobalVars emits one ir.Global per top-level `var`. It must
// run after declareVTables: a virtual-bearing class's zero global
// still needs its vtable pointer field pointed at a real vtable
// (spec.md §4.7), which globalInitializer looks up in c.vtables.
func (c *Context) declareGlobalVars(decls []ast.TopLevel) {
	for _, d := range decls {
		vd, ok := d.(*ast.VarDeclStmt)
		if !ok || vd.Enclosing != nil {
			continue
		}
		for _, v := range vd.Vars {
			c.declareGlobal(v)
		}
	}
}

// declareNamedType registers an enum type's members as EnumDef
// entries, matching the way parser/types.go registers them at parse
// time (spec.md §4.2) — codegen builds its own NameStack from scratch,
// so these have to be replayed rather than inherited.
func (c *Context) declareNamedType(n *ast.TypeDeclTop) {
	et, ok := n.Type.(*typesys.EnumType)
	if !ok {
		return
	}
	for i, v := range et.Values {
		c.NS.Add(v, names.EnumDef{Ordinal: i, Type: et})
	}
}

func (c *Context) declareGlobal(v *ast.VarDef) {
	g := c.Module.NewGlobalDef(v.Name, c.globalInitializer(v.Type))
	c.NS.Add(v.Name, names.VarDef{Type: v.Type, IsReference: v.IsReference, Addr: g})
}

// globalInitializer builds a global's constant initial image: zero for
// almost every type, except a virtual-bearing class, whose leading
// vtable-pointer field must already point at its class's vtable global
// rather than be null (spec.md §4.7) — a global can only ever be given
// a constant initializer, never a runtime store, so this has to happen
// here rather than through initVTablePtr.
func (c *Context) globalInitializer(t typesys.Type) constant.Constant {
	ct, ok := t.(*typesys.ClassType)
	if !ok || !ct.HasVirtuals() {
		return constant.NewZeroInitializer(t.LLVMType())
	}
	st := t.LLVMType().(*types.StructType)
	g, ok := c.vtables[ct]
	if !ok {
		panic("codegen: vtable global not yet built for " + ct.Name)
	}
	fields := make([]constant.Constant, len(st.Fields))
	fields[0] = g
	for i := 1; i < len(st.Fields); i++ {
		fields[i] = constant.NewZeroInitializer(st.Fields[i])
	}
	return constant.NewStruct(st, fields...)
}

// methodOwners maps every MethodDesc reachable from decls to the
// ClassType whose own Methods list declares it, the information a
// vtable slot's MethodDesc pointer alone can't carry (spec.md §4.7):
// AssignSlots reuses an ancestor's *MethodDesc verbatim for an
// inherited, non-overridden slot, so identity is the only way back to
// the declaring class and its `Class.Method` symbol.
func methodOwners(decls []ast.TopLevel) map[*typesys.MethodDesc]*typesys.ClassType {
	out := map[*typesys.MethodDesc]*typesys.ClassType{}
	for _, d := range decls {
		td, ok := d.(*ast.TypeDeclTop)
		if !ok {
			continue
		}
		ct, ok := td.Type.(*typesys.ClassType)
		if !ok {
			continue
		}
		for _, m := range ct.Methods {
			out[m] = ct
		}
	}
	return out
}

// declareVTables builds one ir.Global per virtual-bearing class,
// caching it in c.vtables for initVTablePtr to consult. It must run
// after declareProtos, since every slot's function pointer resolves an
// already-declared *ir.Func (spec.md §4.7).
func (c *Context) declareVTables(decls []ast.TopLevel) {
	owners := methodOwners(decls)
	for _, d := range decls {
		td, ok := d.(*ast.TypeDeclTop)
		if !ok {
			continue
		}
		ct, ok := td.Type.(*typesys.ClassType)
		if !ok || ct.VTable == nil {
			continue
		}
		c.vtables[ct] = c.buildVTableGlobal(ct, owners)
	}
}

// buildVTableGlobal materializes ct's vtable as a struct constant, one
// function-pointer slot per virtual method. A slot inherited unchanged
// from an ancestor holds a function whose declared self type is that
// ancestor, not ct, so every slot value is bitcast to the vtable's own
// slot type before being placed in the initializer (spec.md §4.7).
func (c *Context) buildVTableGlobal(ct *typesys.ClassType, owners map[*typesys.MethodDesc]*typesys.ClassType) *ir.Global {
	st := ct.VTable.LLVMType().(*types.StructType)
	slots := make([]constant.Constant, len(ct.VTable.Slots))
	for i, m := range ct.VTable.Slots {
		owner := owners[m]
		e, ok := c.NS.Find(owner.Name + "." + m.Name)
		if !ok {
			panic("codegen: no definition for virtual method " + owner.Name + "." + m.Name)
		}
		fn := e.(names.FuncDef).Backend.(*ir.Func)
		slots[i] = constant.NewBitCast(fn, st.Fields[i])
	}
	return c.Module.NewGlobalDef(ct.Name+".vtable", constant.NewStruct(st, slots...))
}
