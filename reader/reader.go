// Package reader dlopens a compiled Pascal object and reads back its
// embedded type-info blob, the introspection half of what
// codegen.RegisterTypeInfo embeds (spec.md §6). Grounded on tawago's
// own reader.go, generalized to pgoc's symbol name.
package reader

import "github.com/coreos/pkg/dlopen"

import "C"

// TypeInfoSymbol is the fixed global name codegen.RegisterTypeInfo
// writes and ReadTypeInfo reads back.
const TypeInfoSymbol = "__pascal_typeinfo"

// ReadTypeInfo dlopens the shared object or executable at from and
// returns the raw JSON text of its embedded type-info blob.
func ReadTypeInfo(from string) (string, error) {
	handle, err := dlopen.GetHandle([]string{from})
	if err != nil {
		return "", err
	}
	defer handle.Close()

	sym, err := handle.GetSymbolPointer(TypeInfoSymbol)
	if err != nil {
		return "", err
	}

	return C.GoString((*C.char)(sym)), nil
}
