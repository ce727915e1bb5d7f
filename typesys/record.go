package typesys

import (
	"strings"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// FieldType names one member of a record: a name, its type, and
// whether it is a `static` class member (shared, not part of the
// per-instance layout). It satisfies Type by delegating layout and
// compatibility queries to Of, matching spec.md §3.2's inclusion of
// Field in the type-variant tag set.
type FieldType struct {
	base
	Name     string
	Of       Type
	IsStatic bool
}

func NewField(name string, of Type, static bool) *FieldType {
	return &FieldType{Name: name, Of: of, IsStatic: static}
}

func (t *FieldType) Kind() Kind             { return KindField }
func (t *FieldType) LLVMType() types.Type   { return t.Of.LLVMType() }
func (t *FieldType) Size() int64            { return t.Of.Size() }
func (t *FieldType) Align() int64           { return t.Of.Align() }
func (t *FieldType) SameAs(o Type) bool {
	f, ok := o.(*FieldType)
	return ok && f.Name == t.Name && f.Of.SameAs(t.Of)
}
func (t *FieldType) IsIntegral() bool                      { return t.Of.IsIntegral() }
func (t *FieldType) IsCompound() bool                      { return t.Of.IsCompound() }
func (t *FieldType) SubType() Type                         { return t.Of }
func (t *FieldType) GetRange() (int64, int64, bool)        { return t.Of.GetRange() }
func (t *FieldType) Initializer() (constant.Constant, bool) { return t.Of.Initializer() }
func (t *FieldType) String() string                        { return t.Name + ": " + t.Of.String() }
func (t *FieldType) CompatibleWith(o Type) bool             { return t.Of.CompatibleWith(o) }
func (t *FieldType) AssignableFrom(o Type) bool             { return t.Of.AssignableFrom(o) }

// RecordType is an ordered list of fields plus an optional trailing
// Variant. Layout is fields in declaration order, then (if present)
// the variant tail, sized/aligned to its largest alternative per
// spec.md §3.2.
type RecordType struct {
	base
	Name    string
	Fields  []*FieldType
	Variant *VariantType // nil if the record has no `case` tail
	Packed  bool
}

func NewRecord(name string, fields []*FieldType, variant *VariantType, packed bool) *RecordType {
	return &RecordType{Name: name, Fields: fields, Variant: variant, Packed: packed}
}

// FieldIndex returns the zero-based storage index of a named,
// non-static field (statics are not part of instance layout), or -1.
func (t *RecordType) FieldIndex(name string) int {
	idx := 0
	for _, f := range t.Fields {
		if f.IsStatic {
			continue
		}
		if strings.EqualFold(f.Name, name) {
			return idx
		}
		idx++
	}
	return -1
}

func (t *RecordType) instanceFields() []*FieldType {
	var out []*FieldType
	for _, f := range t.Fields {
		if !f.IsStatic {
			out = append(out, f)
		}
	}
	return out
}

func (t *RecordType) Kind() Kind { return KindRecord }
func (t *RecordType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		var members []types.Type
		for _, f := range t.instanceFields() {
			members = append(members, f.LLVMType())
		}
		if t.Variant != nil {
			members = append(members, t.Variant.LLVMType())
		}
		st := types.NewStruct(members...)
		if t.Name != "" {
			st.TypeName = t.Name
		}
		return st
	})
}
func (t *RecordType) Size() int64 {
	var n int64
	for _, f := range t.instanceFields() {
		n = roundUp(n, f.Align()) + f.Size()
	}
	if t.Variant != nil {
		n = roundUp(n, t.Variant.Align()) + t.Variant.Size()
	}
	return roundUp(n, t.Align())
}
func (t *RecordType) Align() int64 {
	a := int64(1)
	for _, f := range t.instanceFields() {
		if f.Align() > a {
			a = f.Align()
		}
	}
	if t.Variant != nil && t.Variant.Align() > a {
		a = t.Variant.Align()
	}
	return a
}
func (t *RecordType) SameAs(o Type) bool { return o == Type(t) }
func (t *RecordType) IsIntegral() bool   { return false }
func (t *RecordType) IsCompound() bool   { return true }
func (t *RecordType) SubType() Type      { return nil }
func (t *RecordType) GetRange() (int64, int64, bool)        { return 0, 0, false }
func (t *RecordType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *RecordType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return "record"
}
func (t *RecordType) CompatibleWith(o Type) bool { return t.SameAs(o) }
func (t *RecordType) AssignableFrom(o Type) bool { return t.SameAs(o) }

// VariantType is a record's `case tag of ...` tail: an ordered list of
// alternative field lists sharing one storage region, sized/aligned to
// the largest-aligned alternative; padding after it equals
// max_size - max_aligned_size bytes, per spec.md §3.2.
type VariantType struct {
	base
	TagField string
	TagType  Type
	Alts     [][]*FieldType // one field list per case label group
}

func NewVariant(tagField string, tagType Type, alts [][]*FieldType) *VariantType {
	return &VariantType{TagField: tagField, TagType: tagType, Alts: alts}
}

func (t *VariantType) altSize(alt []*FieldType) int64 {
	var n int64
	for _, f := range alt {
		n = roundUp(n, f.Align()) + f.Size()
	}
	return n
}

func (t *VariantType) altAlign(alt []*FieldType) int64 {
	a := int64(1)
	for _, f := range alt {
		if f.Align() > a {
			a = f.Align()
		}
	}
	return a
}

// widestAlt returns the index of the alternative with the largest
// alignment (ties broken by first occurrence), which determines the
// variant's own storage layout.
func (t *VariantType) widestAlt() int {
	best, bestAlign := 0, int64(0)
	for i, alt := range t.Alts {
		if a := t.altAlign(alt); a > bestAlign {
			best, bestAlign = i, a
		}
	}
	return best
}

func (t *VariantType) Kind() Kind { return KindVariant }
func (t *VariantType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		alt := t.Alts[t.widestAlt()]
		var members []types.Type
		for _, f := range alt {
			members = append(members, f.LLVMType())
		}
		padding := t.Size() - t.altSize(alt)
		if padding > 0 {
			members = append(members, types.NewArray(uint64(padding), types.I8))
		}
		return types.NewStruct(members...)
	})
}
func (t *VariantType) Size() int64 {
	var max int64
	for _, alt := range t.Alts {
		if s := t.altSize(alt); s > max {
			max = s
		}
	}
	return roundUp(max, t.Align())
}
func (t *VariantType) Align() int64 {
	var max int64 = 1
	for _, alt := range t.Alts {
		if a := t.altAlign(alt); a > max {
			max = a
		}
	}
	return max
}
func (t *VariantType) SameAs(o Type) bool                     { return o == Type(t) }
func (t *VariantType) IsIntegral() bool                       { return false }
func (t *VariantType) IsCompound() bool                       { return true }
func (t *VariantType) SubType() Type                          { return nil }
func (t *VariantType) GetRange() (int64, int64, bool)         { return 0, 0, false }
func (t *VariantType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *VariantType) String() string                         { return "case " + t.TagField + " of ..." }
func (t *VariantType) CompatibleWith(o Type) bool              { return t.SameAs(o) }
func (t *VariantType) AssignableFrom(o Type) bool              { return t.SameAs(o) }

// AltFieldIndex returns the field index of name within the variant's
// storage struct, given alt is the alternative it was declared in. If
// alt is not the widest alternative, callers must additionally step
// into an anonymous sub-record for that alternative (spec.md §4.6);
// AltIsAnonymous reports when that second step is required.
func (t *VariantType) AltFieldIndex(altIdx int, name string) int {
	for i, f := range t.Alts[altIdx] {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

func (t *VariantType) AltIsAnonymous(altIdx int) bool { return altIdx != t.widestAlt() }
