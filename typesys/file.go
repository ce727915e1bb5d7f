package typesys

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// FileType is `file of T`, or the distinguished `Text` subkind, whose
// element type is always Char (its elements are lines of char).
// The runtime sees every file handle uniformly as
// `{ i32 handle, T* buffer, i32 recordSize, i1 isText }` (spec.md §6);
// isText is true exactly when Text is set.
type FileType struct {
	base
	Elem Type // Char for Text
	Text bool
}

func NewFile(elem Type) *FileType    { return &FileType{Elem: elem} }
func NewTextFile() *FileType         { return &FileType{Text: true, Elem: Char} }

// BufferFieldIndex is the fixed field index of the `Buffer` member inside
// the runtime file-handle struct, used by codegen when lowering `f^`
// (spec.md §4.6's "file buffer variable f^ is special").
const BufferFieldIndex = 1

func (t *FileType) Kind() Kind { return KindFile }
func (t *FileType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		return types.NewStruct(
			types.I32,
			types.NewPointer(t.Elem.LLVMType()),
			types.I32,
			types.I1,
		)
	})
}
func (t *FileType) Size() int64  { return 24 }
func (t *FileType) Align() int64 { return 8 }
func (t *FileType) SameAs(o Type) bool {
	f, ok := o.(*FileType)
	if !ok || f.Text != t.Text {
		return false
	}
	if t.Text {
		return true
	}
	return f.Elem.SameAs(t.Elem)
}
func (t *FileType) IsIntegral() bool { return false }
func (t *FileType) IsCompound() bool { return true }
func (t *FileType) SubType() Type    { return t.Elem }
func (t *FileType) GetRange() (int64, int64, bool)        { return 0, 0, false }
func (t *FileType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *FileType) String() string {
	if t.Text {
		return "text"
	}
	return "file of " + t.Elem.String()
}
func (t *FileType) CompatibleWith(o Type) bool { return t.SameAs(o) }
func (t *FileType) AssignableFrom(o Type) bool { return t.SameAs(o) }
