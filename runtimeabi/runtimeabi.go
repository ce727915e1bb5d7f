// Package runtimeabi is the fixed contract between generated code and
// the small C-callable runtime pgoc programs link against: symbol
// names, calling signatures, and the declaration builders codegen and
// builtins use to reference them. It plays the role tawago/builtins.go
// plays for tawago's runtime intrinsics (addBuiltins declaring a
// handful of libc-ish helpers on the module), generalized to the
// richer I/O, set, and memory operations a Pascal runtime needs
// (spec.md §6).
package runtimeabi

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Name is one runtime ABI symbol. Using a defined type instead of a
// bare string keeps Declare's call sites self-documenting and typo
// resistant.
type Name string

const (
	WriteInt    Name = "pascal_write_int"
	WriteInt64  Name = "pascal_write_int64"
	WriteReal   Name = "pascal_write_real"
	WriteBool   Name = "pascal_write_bool"
	WriteChar   Name = "pascal_write_char"
	WriteStr    Name = "pascal_write_str"
	WriteNewline Name = "pascal_write_newline"

	ReadInt   Name = "pascal_read_int"
	ReadInt64 Name = "pascal_read_int64"
	ReadReal  Name = "pascal_read_real"
	ReadChar  Name = "pascal_read_char"
	ReadStr   Name = "pascal_read_str"
	ReadLine  Name = "pascal_read_line"

	SetUnion     Name = "pascal_set_union"
	SetIntersect Name = "pascal_set_intersect"
	SetDifference Name = "pascal_set_difference"
	SetEqual     Name = "pascal_set_equal"
	SetSubset    Name = "pascal_set_subset"

	Malloc Name = "pascal_alloc"
	Free   Name = "pascal_free"

	FileAssign  Name = "pascal_file_assign"
	FileReset   Name = "pascal_file_reset"
	FileRewrite Name = "pascal_file_rewrite"
	FileClose   Name = "pascal_file_close"
	FileEof     Name = "pascal_file_eof"
	FileEoln    Name = "pascal_file_eoln"

	Sqrt Name = "llvm.sqrt.f64"
	Sin  Name = "llvm.sin.f64"
	Cos  Name = "llvm.cos.f64"

	Halt Name = "pascal_halt"
)

// sig is one runtime symbol's LLVM signature.
type sig struct {
	params []types.Type
	result types.Type
}

func sigs() map[Name]sig {
	i32, i64, i8, f64, i1 := types.I32, types.I64, types.I8, types.Double, types.I1
	str := types.NewPointer(i8)
	setWord := types.NewPointer(types.NewInt(32))
	return map[Name]sig{
		WriteInt:     {[]types.Type{i32, i32, i32}, types.Void},   // value, width, precision
		WriteInt64:   {[]types.Type{i64, i32, i32}, types.Void},
		WriteReal:    {[]types.Type{f64, i32, i32}, types.Void},
		WriteBool:    {[]types.Type{i1, i32, i32}, types.Void},
		WriteChar:    {[]types.Type{i8, i32, i32}, types.Void},
		WriteStr:     {[]types.Type{str, i32, i32, i32}, types.Void}, // data, length, width, precision
		WriteNewline: {nil, types.Void},

		ReadInt:   {nil, i32},
		ReadInt64: {nil, i64},
		ReadReal:  {nil, f64},
		ReadChar:  {nil, i8},
		ReadStr:   {[]types.Type{str, i32}, i32}, // buffer, capacity -> length written
		ReadLine:  {nil, types.Void},

		SetUnion:      {[]types.Type{setWord, setWord, setWord, i32}, types.Void},
		SetIntersect:  {[]types.Type{setWord, setWord, setWord, i32}, types.Void},
		SetDifference: {[]types.Type{setWord, setWord, setWord, i32}, types.Void},
		SetEqual:      {[]types.Type{setWord, setWord, i32}, i1},
		SetSubset:     {[]types.Type{setWord, setWord, i32}, i1},

		Malloc: {[]types.Type{i64}, types.NewPointer(i8)},
		Free:   {[]types.Type{types.NewPointer(i8)}, types.Void},

		FileAssign:  {[]types.Type{types.NewPointer(i8), str}, types.Void},
		FileReset:   {[]types.Type{types.NewPointer(i8)}, types.Void},
		FileRewrite: {[]types.Type{types.NewPointer(i8)}, types.Void},
		FileClose:   {[]types.Type{types.NewPointer(i8)}, types.Void},
		FileEof:     {[]types.Type{types.NewPointer(i8)}, i1},
		FileEoln:    {[]types.Type{types.NewPointer(i8)}, i1},

		Sqrt: {[]types.Type{f64}, f64},
		Sin:  {[]types.Type{f64}, f64},
		Cos:  {[]types.Type{f64}, f64},

		Halt: {[]types.Type{i32}, types.Void},
	}
}

// Registry declares every runtime symbol on m exactly once and hands
// back the resulting *ir.Func handles, mirroring tawago's addBuiltins
// shape (one pass over a fixed table of module-level declarations).
type Registry struct {
	fns map[Name]*ir.Func
}

func Declare(m *ir.Module) *Registry {
	r := &Registry{fns: map[Name]*ir.Func{}}
	for name, s := range sigs() {
		var params []*ir.Param
		for _, pt := range s.params {
			params = append(params, ir.NewParam("", pt))
		}
		r.fns[name] = m.NewFunc(string(name), s.result, params...)
	}
	return r
}

// Func returns the declared *ir.Func for name, panicking if Declare
// was never run — every codegen call site runs after Declare, so a
// panic here means an internal wiring bug, not a user-facing error.
func (r *Registry) Func(name Name) *ir.Func {
	fn, ok := r.fns[name]
	if !ok {
		panic("runtimeabi: " + string(name) + " was not declared")
	}
	return fn
}
