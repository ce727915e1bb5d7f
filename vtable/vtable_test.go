package vtable

import (
	"testing"

	"github.com/gopascal/pgoc/typesys"
)

func TestAssignSlotsFreshVirtualGetsNextIndex(t *testing.T) {
	speak := &typesys.MethodDesc{Name: "Speak", IsVirtual: true, VTableSlot: -1}
	walk := &typesys.MethodDesc{Name: "Walk", IsVirtual: true, VTableSlot: -1}
	base := typesys.NewClass("Animal", typesys.NewRecord("Animal", nil, nil, false), nil, []*typesys.MethodDesc{speak, walk})

	vt, err := AssignSlots(base)
	if err != nil {
		t.Fatalf("AssignSlots: %v", err)
	}
	if speak.VTableSlot != 0 || walk.VTableSlot != 1 {
		t.Fatalf("got slots %d, %d, want 0, 1", speak.VTableSlot, walk.VTableSlot)
	}
	if len(vt.Slots) != 2 || vt.Slots[0] != speak || vt.Slots[1] != walk {
		t.Fatalf("unexpected slot layout: %#v", vt.Slots)
	}
}

func TestAssignSlotsOverrideReusesAncestorIndex(t *testing.T) {
	speak := &typesys.MethodDesc{Name: "Speak", IsVirtual: true, VTableSlot: -1}
	base := typesys.NewClass("Animal", typesys.NewRecord("Animal", nil, nil, false), nil, []*typesys.MethodDesc{speak})
	base.VTable, _ = AssignSlots(base)

	override := &typesys.MethodDesc{Name: "Speak", IsOverride: true, VTableSlot: -1}
	derived := typesys.NewClass("Dog", typesys.NewRecord("Dog", nil, nil, false), base, []*typesys.MethodDesc{override})

	vt, err := AssignSlots(derived)
	if err != nil {
		t.Fatalf("AssignSlots: %v", err)
	}
	if override.VTableSlot != 0 {
		t.Fatalf("override should reuse slot 0, got %d", override.VTableSlot)
	}
	if len(vt.Slots) != 1 || vt.Slots[0] != override {
		t.Fatalf("derived vtable should hold the override, got %#v", vt.Slots)
	}
}

func TestAssignSlotsOverrideOfNonVirtualIsAnError(t *testing.T) {
	plain := &typesys.MethodDesc{Name: "Speak", VTableSlot: -1}
	base := typesys.NewClass("Animal", typesys.NewRecord("Animal", nil, nil, false), nil, []*typesys.MethodDesc{plain})

	override := &typesys.MethodDesc{Name: "Speak", IsOverride: true, VTableSlot: -1}
	derived := typesys.NewClass("Dog", typesys.NewRecord("Dog", nil, nil, false), base, []*typesys.MethodDesc{override})

	if _, err := AssignSlots(derived); err == nil {
		t.Fatal("expected an error overriding a method no ancestor declares virtual")
	}
}

func TestAssignSlotsNoVirtualsReturnsNilTable(t *testing.T) {
	plain := &typesys.MethodDesc{Name: "Speak", VTableSlot: -1}
	class := typesys.NewClass("Animal", typesys.NewRecord("Animal", nil, nil, false), nil, []*typesys.MethodDesc{plain})

	vt, err := AssignSlots(class)
	if err != nil {
		t.Fatalf("AssignSlots: %v", err)
	}
	if vt != nil {
		t.Fatalf("expected a nil vtable for a class with no virtuals, got %#v", vt)
	}
	if plain.VTableSlot != -1 {
		t.Fatalf("non-virtual method should keep VTableSlot -1, got %d", plain.VTableSlot)
	}
}

func TestAssignSlotsChildAddsNewSlotAfterInherited(t *testing.T) {
	speak := &typesys.MethodDesc{Name: "Speak", IsVirtual: true, VTableSlot: -1}
	base := typesys.NewClass("Animal", typesys.NewRecord("Animal", nil, nil, false), nil, []*typesys.MethodDesc{speak})
	base.VTable, _ = AssignSlots(base)

	fetch := &typesys.MethodDesc{Name: "Fetch", IsVirtual: true, VTableSlot: -1}
	derived := typesys.NewClass("Dog", typesys.NewRecord("Dog", nil, nil, false), base, []*typesys.MethodDesc{fetch})
	vt, err := AssignSlots(derived)
	if err != nil {
		t.Fatalf("AssignSlots: %v", err)
	}
	if fetch.VTableSlot != 1 {
		t.Fatalf("new virtual should land after inherited slots, got %d", fetch.VTableSlot)
	}
	if len(vt.Slots) != 2 || vt.Slots[0] != speak || vt.Slots[1] != fetch {
		t.Fatalf("unexpected slot layout: %#v", vt.Slots)
	}
}
