package typesys

import (
	"strings"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// MethodDesc describes one member function of a class: its mangled
// name is assigned later by codegen, but the layout-relevant facts —
// whether it is virtual/override/static, and (once computed) its
// vtable slot — live here so typesys and codegen agree on them.
type MethodDesc struct {
	Name       string
	IsVirtual  bool
	IsOverride bool
	IsStatic   bool
	Params     []Type
	Result     Type
	VTableSlot int // -1 if not virtual
}

// ClassType is a Record plus single inheritance, a method table, and
// (if the class or any ancestor declares a virtual/override method) a
// leading vtable-pointer field, per spec.md §3.2 and §4.7.
type ClassType struct {
	base
	Name    string
	Record  *RecordType
	Base    *ClassType // nil for a root class
	Methods []*MethodDesc
	VTable  *VTableType // nil unless this class or an ancestor has a virtual
}

func NewClass(name string, record *RecordType, baseClass *ClassType, methods []*MethodDesc) *ClassType {
	return &ClassType{Name: name, Record: record, Base: baseClass, Methods: methods}
}

// HasVirtuals reports whether this class or any ancestor declares a
// virtual or override method — the condition under which a leading
// vtable pointer is added (spec.md §3.2 invariant).
func (t *ClassType) HasVirtuals() bool {
	for c := t; c != nil; c = c.Base {
		for _, m := range c.Methods {
			if m.IsVirtual || m.IsOverride {
				return true
			}
		}
	}
	return false
}

func (t *ClassType) IsSubclassOf(ancestor *ClassType) bool {
	for c := t; c != nil; c = c.Base {
		if c == ancestor {
			return true
		}
	}
	return false
}

// FindMethod looks up name in this class then walks ancestors,
// returning the most-derived declaration found (used to resolve
// static/non-virtual calls and to check an override actually overrides
// something, per spec.md §4.7).
func (t *ClassType) FindMethod(name string) (*ClassType, *MethodDesc) {
	for c := t; c != nil; c = c.Base {
		for _, m := range c.Methods {
			if strings.EqualFold(m.Name, name) {
				return c, m
			}
		}
	}
	return nil, nil
}

func (t *ClassType) Kind() Kind { return KindClass }
func (t *ClassType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		var members []types.Type
		if t.HasVirtuals() {
			members = append(members, types.NewPointer(t.VTable.LLVMType()))
		}
		for _, f := range t.Record.instanceFields() {
			members = append(members, f.LLVMType())
		}
		if t.Record.Variant != nil {
			members = append(members, t.Record.Variant.LLVMType())
		}
		st := types.NewStruct(members...)
		st.TypeName = t.Name
		return st
	})
}
func (t *ClassType) Size() int64 {
	n := t.Record.Size()
	if t.HasVirtuals() {
		n += 8
	}
	return roundUp(n, t.Align())
}
func (t *ClassType) Align() int64 {
	a := t.Record.Align()
	if t.HasVirtuals() && a < 8 {
		a = 8
	}
	return a
}
func (t *ClassType) SameAs(o Type) bool { return o == Type(t) }
func (t *ClassType) IsIntegral() bool   { return false }
func (t *ClassType) IsCompound() bool   { return true }
func (t *ClassType) SubType() Type      { return nil }
func (t *ClassType) GetRange() (int64, int64, bool)        { return 0, 0, false }
func (t *ClassType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *ClassType) String() string                         { return t.Name }

// CompatibleWith implements: "one class type is an ancestor of the
// other."
func (t *ClassType) CompatibleWith(o Type) bool {
	c, ok := o.(*ClassType)
	if !ok {
		return false
	}
	return t.IsSubclassOf(c) || c.IsSubclassOf(t)
}

// AssignableFrom implements: L is a class and T is a subclass.
func (t *ClassType) AssignableFrom(o Type) bool {
	c, ok := o.(*ClassType)
	return ok && c.IsSubclassOf(t)
}

// FieldIndex returns the storage index of a named non-static field
// within the class's own struct layout, accounting for the leading
// vtable pointer slot if present.
func (t *ClassType) FieldIndex(name string) int {
	idx := t.Record.FieldIndex(name)
	if idx < 0 {
		return -1
	}
	if t.HasVirtuals() {
		idx++
	}
	return idx
}

// VTableType is the struct type holding one function-pointer slot per
// virtual method, in stable declaration order (spec.md §3.2, §4.7):
// virtuals first appear at increasing indices in declaration order;
// overrides reuse the ancestor's index.
type VTableType struct {
	base
	Owner *ClassType
	Slots []*MethodDesc // Slots[i].VTableSlot == i
}

func (t *VTableType) Kind() Kind { return KindVTable }
func (t *VTableType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		var members []types.Type
		for _, m := range t.Slots {
			// self is every method's implicit first parameter (spec.md
			// §4.7), so a slot's signature must include it to match
			// the actual function being called through it.
			params := []types.Type{types.NewPointer(t.Owner.LLVMType())}
			for _, p := range m.Params {
				params = append(params, p.LLVMType())
			}
			ret := types.Type(types.Void)
			if m.Result != nil {
				ret = m.Result.LLVMType()
			}
			members = append(members, types.NewPointer(types.NewFunc(ret, params...)))
		}
		st := types.NewStruct(members...)
		st.TypeName = t.Owner.Name + ".vtable"
		return st
	})
}
func (t *VTableType) Size() int64                      { return int64(len(t.Slots)) * 8 }
func (t *VTableType) Align() int64                      { return 8 }
func (t *VTableType) SameAs(o Type) bool                { return o == Type(t) }
func (t *VTableType) IsIntegral() bool                  { return false }
func (t *VTableType) IsCompound() bool                  { return true }
func (t *VTableType) SubType() Type                     { return nil }
func (t *VTableType) GetRange() (int64, int64, bool)         { return 0, 0, false }
func (t *VTableType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *VTableType) String() string                         { return t.Owner.Name + ".vtable" }
func (t *VTableType) CompatibleWith(o Type) bool              { return o == Type(t) }
func (t *VTableType) AssignableFrom(o Type) bool              { return o == Type(t) }
