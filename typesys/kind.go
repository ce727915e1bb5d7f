package typesys

// Kind is the closed tag set over which every Type discriminates itself,
// per spec: "Type variants (tag set)". Kept as a plain int enum rather
// than reflection, matching the "tagged sums with a kind discriminant"
// guidance for reimplementing the source's classof-based tagging.
type Kind int

const (
	KindInteger Kind = iota
	KindInt64
	KindReal
	KindChar
	KindBoolean
	KindVoid
	KindEnum
	KindRange
	KindPointer
	KindArray
	KindRecord
	KindClass
	KindVariant
	KindField
	KindFile
	KindSet
	KindString
	KindFunction
	KindFuncPtr
	KindVTable
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindInt64:
		return "int64"
	case KindReal:
		return "real"
	case KindChar:
		return "char"
	case KindBoolean:
		return "boolean"
	case KindVoid:
		return "void"
	case KindEnum:
		return "enum"
	case KindRange:
		return "range"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	case KindClass:
		return "class"
	case KindVariant:
		return "variant"
	case KindField:
		return "field"
	case KindFile:
		return "file"
	case KindSet:
		return "set"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindFuncPtr:
		return "funcptr"
	case KindVTable:
		return "vtable"
	default:
		return "?"
	}
}
