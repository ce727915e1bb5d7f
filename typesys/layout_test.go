package typesys

import "testing"

func TestArrayElementCountAndSizeAreRowMajor(t *testing.T) {
	// array[1..3, 1..4] of integer: 12 elements, row-major.
	rows := NewRange(Integer, 1, 3)
	cols := NewRange(Integer, 1, 4)
	arr := NewArray(Integer, []*RangeType{rows, cols}, false)

	if got := arr.ElementCount(); got != 12 {
		t.Fatalf("ElementCount() = %d, want 12", got)
	}
	if got := arr.Size(); got != 12*Integer.Size() {
		t.Fatalf("Size() = %d, want %d", got, 12*Integer.Size())
	}
	if got := arr.DimensionStride(0); got != 4 {
		t.Fatalf("DimensionStride(0) = %d, want 4 (one row's worth of columns)", got)
	}
	if got := arr.DimensionStride(1); got != 1 {
		t.Fatalf("DimensionStride(1) = %d, want 1", got)
	}
}

func TestSetWordCountRoundsUpToWholeWords(t *testing.T) {
	cases := []struct {
		lo, hi int64
		want   int64
	}{
		{0, 31, 1},  // exactly one word
		{0, 32, 2},  // one bit into a second word
		{0, 63, 2},  // exactly two words
		{5, 5, 1},   // a single element still needs a whole word
	}
	for _, c := range cases {
		st := NewSet(NewRange(Integer, c.lo, c.hi), Integer)
		if got := st.WordCount(); got != c.want {
			t.Errorf("WordCount(%d..%d) = %d, want %d", c.lo, c.hi, got, c.want)
		}
	}
}

func TestStringSizeIsCapacityPlusLengthByte(t *testing.T) {
	s, err := NewString(80)
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	if got := s.Size(); got != 81 {
		t.Fatalf("Size() = %d, want 81", got)
	}
}

func TestStringRejectsCapacityAboveMax(t *testing.T) {
	if _, err := NewString(MaxStringCapacity + 1); err == nil {
		t.Fatalf("expected an error for a capacity beyond %d", MaxStringCapacity)
	}
	if _, err := NewString(-1); err == nil {
		t.Fatal("expected an error for a negative capacity")
	}
}

func TestVariantRecordSizesToLargestAlternative(t *testing.T) {
	small := []*FieldType{NewField("b", Char, false)}
	big := []*FieldType{NewField("n", Integer, false), NewField("m", Integer, false)}
	v := NewVariant("tag", Integer, [][]*FieldType{small, big})

	if got := v.Size(); got != 8 {
		t.Fatalf("Size() = %d, want 8 (two 4-byte fields)", got)
	}
	if got := v.Align(); got != 4 {
		t.Fatalf("Align() = %d, want 4", got)
	}
	if v.widestAlt() != 1 {
		t.Fatalf("widestAlt() = %d, want 1 (the two-integer alternative)", v.widestAlt())
	}
	if v.AltIsAnonymous(1) {
		t.Fatal("the widest alternative should not require a second anonymous step")
	}
	if !v.AltIsAnonymous(0) {
		t.Fatal("a narrower alternative should require a second anonymous step")
	}
}

func TestRecordLayoutOrdersFieldsAndSkipsStatics(t *testing.T) {
	fields := []*FieldType{
		NewField("id", Integer, false),
		NewField("classCount", Integer, true), // static: not part of instance layout
		NewField("ch", Char, false),
	}
	rec := NewRecord("Widget", fields, nil, false)

	if idx := rec.FieldIndex("id"); idx != 0 {
		t.Fatalf("FieldIndex(id) = %d, want 0", idx)
	}
	if idx := rec.FieldIndex("ch"); idx != 1 {
		t.Fatalf("FieldIndex(ch) = %d, want 1 (statics excluded from instance layout)", idx)
	}
	if idx := rec.FieldIndex("classCount"); idx != -1 {
		t.Fatalf("FieldIndex(classCount) = %d, want -1 for a static field", idx)
	}
}

func TestPointerBackpatchResolvesForwardReference(t *testing.T) {
	u := NewUniverse()
	fwd := NewForwardPointer("Node")
	u.TrackForwardPointer(fwd)

	if fwd.Resolved() {
		t.Fatal("a freshly constructed forward pointer should not be resolved yet")
	}

	node := NewRecord("Node", []*FieldType{NewField("next", fwd, false)}, nil, false)
	u.Declare("Node", node)

	if errs := u.ResolveForwardPointers(); len(errs) != 0 {
		t.Fatalf("ResolveForwardPointers: %v", errs)
	}
	if !fwd.Resolved() || fwd.Target != Type(node) {
		t.Fatalf("forward pointer did not backpatch to Node, got %#v", fwd.Target)
	}
}

func TestPointerBackpatchReportsUnresolvedName(t *testing.T) {
	u := NewUniverse()
	fwd := NewForwardPointer("Ghost")
	u.TrackForwardPointer(fwd)

	errs := u.ResolveForwardPointers()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if fwd.Resolved() {
		t.Fatal("an unresolvable forward pointer should remain unresolved")
	}
}
