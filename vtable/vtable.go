// Package vtable computes virtual-dispatch slot assignments for a
// class, consulted by both typesys (whether a class needs a leading
// vtable pointer at all) and codegen (which slot an override call
// indexes into). Slot order follows spec.md §3.2/§4.7 exactly: a
// virtual method not declared by any ancestor gets the next free
// index in declaration order; an override reuses the index of the
// method it overrides, wherever in the ancestor chain that is.
package vtable

import (
	"fmt"

	"github.com/gopascal/pgoc/typesys"
)

// AssignSlots walks class's own method list (its ancestors are assumed
// already resolved) and returns the fully populated VTableType, or an
// error if an `override` names a method no ancestor declares virtual.
// It mutates each MethodDesc.VTableSlot in place, matching the way
// typesys.ClassType expects to find slots already stamped once its
// VTable field is set.
func AssignSlots(class *typesys.ClassType) (*typesys.VTableType, error) {
	var slots []*typesys.MethodDesc

	if class.Base != nil && class.Base.VTable != nil {
		slots = append(slots, class.Base.VTable.Slots...)
	}

	for _, m := range class.Methods {
		switch {
		case m.IsOverride:
			_, ancestor := findVirtualAncestor(class.Base, m.Name)
			if ancestor == nil {
				return nil, fmt.Errorf("%s.%s: override of a method no ancestor declares virtual", class.Name, m.Name)
			}
			m.VTableSlot = ancestor.VTableSlot
			slots[m.VTableSlot] = m
		case m.IsVirtual:
			m.VTableSlot = len(slots)
			slots = append(slots, m)
		default:
			m.VTableSlot = -1
		}
	}

	if len(slots) == 0 {
		return nil, nil
	}
	return &typesys.VTableType{Owner: class, Slots: slots}, nil
}

func findVirtualAncestor(class *typesys.ClassType, name string) (*typesys.ClassType, *typesys.MethodDesc) {
	owner, m := class.FindMethod(name)
	if m == nil || (!m.IsVirtual && !m.IsOverride) {
		return nil, nil
	}
	return owner, m
}
