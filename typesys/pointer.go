package typesys

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// PointerType may be incomplete: it carries either a resolved Target or
// a PendingName that names a type declared later in the same `type`
// block. Universe.ResolveForwardPointers backpatches Target after the
// block finishes parsing; every operation that needs layout or size
// panics via resolveOrPanic if asked to run before that happens.
type PointerType struct {
	base
	PendingName string
	Target      Type
}

func NewPointerTo(target Type) *PointerType     { return &PointerType{Target: target} }
func NewForwardPointer(name string) *PointerType { return &PointerType{PendingName: name} }

func (t *PointerType) Resolved() bool { return t.Target != nil }

func (t *PointerType) Kind() Kind { return KindPointer }
func (t *PointerType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		target := resolveOrPanic(t.PendingName, t.Target)
		return types.NewPointer(target.LLVMType())
	})
}
func (t *PointerType) Size() int64  { return 8 }
func (t *PointerType) Align() int64 { return 8 }
func (t *PointerType) SameAs(o Type) bool {
	p, ok := o.(*PointerType)
	if !ok {
		return false
	}
	if t.Target == nil || p.Target == nil {
		return t.PendingName == p.PendingName
	}
	return t.Target.SameAs(p.Target)
}
func (t *PointerType) IsIntegral() bool { return false }
func (t *PointerType) IsCompound() bool { return false }
func (t *PointerType) SubType() Type    { return t.Target }
func (t *PointerType) GetRange() (int64, int64, bool) { return 0, 0, false }
func (t *PointerType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *PointerType) String() string {
	if t.Target != nil {
		return "^" + t.Target.String()
	}
	return "^" + t.PendingName
}
func (t *PointerType) CompatibleWith(o Type) bool {
	p, ok := o.(*PointerType)
	return ok && (t.Target == nil || p.Target == nil || t.Target.SameAs(p.Target))
}
func (t *PointerType) AssignableFrom(o Type) bool {
	p, ok := o.(*PointerType)
	if !ok {
		return false
	}
	if t.Target == nil || p.Target == nil {
		return true // nil literal is assignable to any pointer type
	}
	if t.Target.SameAs(p.Target) {
		return true
	}
	// A pointer to a subclass is assignable to a pointer to an ancestor.
	if lc, ok := t.Target.(*ClassType); ok {
		if rc, ok2 := p.Target.(*ClassType); ok2 {
			return rc.IsSubclassOf(lc)
		}
	}
	return false
}

// resolvePending looks name up in the universe and backpatches Target.
func (t *PointerType) resolvePending(lookup func(name string) Type) error {
	if t.Target != nil {
		return nil
	}
	found := lookup(t.PendingName)
	if found == nil {
		return fmt.Errorf("undefined forward-referenced type %q", t.PendingName)
	}
	t.Target = found
	return nil
}
