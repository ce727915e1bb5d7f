package typesys

import (
	"strings"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// ParamType describes one prototype parameter for compatibility
// checking purposes: its type and whether it is passed by reference.
type ParamType struct {
	Of          Type
	IsReference bool
}

// FunctionType is a prototype reference: the type of a named
// procedure/function, used when a function name appears as a value
// (e.g. assigned to a FuncPtr variable) rather than being called.
type FunctionType struct {
	base
	Params []ParamType
	Result Type // Void for a procedure
}

func NewFunction(params []ParamType, result Type) *FunctionType {
	return &FunctionType{Params: params, Result: result}
}

func (t *FunctionType) Kind() Kind { return KindFunction }
func (t *FunctionType) LLVMType() types.Type {
	return t.memo(func() types.Type {
		var params []types.Type
		for _, p := range t.Params {
			pt := p.Of.LLVMType()
			if p.IsReference {
				pt = types.NewPointer(pt)
			}
			params = append(params, pt)
		}
		return types.NewFunc(t.Result.LLVMType(), params...)
	})
}
func (t *FunctionType) Size() int64  { return 8 }
func (t *FunctionType) Align() int64 { return 8 }
func (t *FunctionType) SameAs(o Type) bool {
	f, ok := o.(*FunctionType)
	if !ok || len(f.Params) != len(t.Params) || !f.Result.SameAs(t.Result) {
		return false
	}
	for i := range t.Params {
		if !f.Params[i].Of.SameAs(t.Params[i].Of) || f.Params[i].IsReference != t.Params[i].IsReference {
			return false
		}
	}
	return true
}
func (t *FunctionType) IsIntegral() bool { return false }
func (t *FunctionType) IsCompound() bool { return false }
func (t *FunctionType) SubType() Type    { return t.Result }
func (t *FunctionType) GetRange() (int64, int64, bool)        { return 0, 0, false }
func (t *FunctionType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *FunctionType) String() string {
	var ps []string
	for _, p := range t.Params {
		ps = append(ps, p.Of.String())
	}
	return "function(" + strings.Join(ps, ", ") + "): " + t.Result.String()
}
func (t *FunctionType) CompatibleWith(o Type) bool { return t.SameAs(o) }
func (t *FunctionType) AssignableFrom(o Type) bool { return t.SameAs(o) }

// FuncPtrType is a variable-carriable pointer-to-function value,
// distinct from FunctionType (a static prototype reference) the way a
// Pascal `procedure of object`/procedural type variable is distinct
// from the procedure it was assigned from.
type FuncPtrType struct {
	base
	Proto *FunctionType
}

func NewFuncPtr(proto *FunctionType) *FuncPtrType { return &FuncPtrType{Proto: proto} }

func (t *FuncPtrType) Kind() Kind { return KindFuncPtr }
func (t *FuncPtrType) LLVMType() types.Type {
	return t.memo(func() types.Type { return types.NewPointer(t.Proto.LLVMType()) })
}
func (t *FuncPtrType) Size() int64  { return 8 }
func (t *FuncPtrType) Align() int64 { return 8 }
func (t *FuncPtrType) SameAs(o Type) bool {
	f, ok := o.(*FuncPtrType)
	return ok && f.Proto.SameAs(t.Proto)
}
func (t *FuncPtrType) IsIntegral() bool { return false }
func (t *FuncPtrType) IsCompound() bool { return false }
func (t *FuncPtrType) SubType() Type    { return t.Proto }
func (t *FuncPtrType) GetRange() (int64, int64, bool)        { return 0, 0, false }
func (t *FuncPtrType) Initializer() (constant.Constant, bool) { return nil, false }
func (t *FuncPtrType) String() string                         { return "^" + t.Proto.String() }
func (t *FuncPtrType) CompatibleWith(o Type) bool              { return t.SameAs(o) }
func (t *FuncPtrType) AssignableFrom(o Type) bool              { return t.SameAs(o) }
