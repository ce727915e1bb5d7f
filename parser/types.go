package parser

import (
	"strings"

	"github.com/gopascal/pgoc/constfold"
	"github.com/gopascal/pgoc/diag"
	"github.com/gopascal/pgoc/names"
	"github.com/gopascal/pgoc/token"
	"github.com/gopascal/pgoc/typesys"
	"github.com/gopascal/pgoc/vtable"
)

// registerBuiltinTypeNames seeds the outermost scope with the
// primitive type identifiers, so `parseTypeDenoter`'s named-type
// lookup handles them the same way it handles a user's `type` alias.
func (p *Parser) registerBuiltinTypeNames() {
	reg := func(name string, t typesys.Type) {
		p.NS.Add(name, names.TypeDef{Type: t})
		p.Uni.Declare(name, t)
	}
	reg("integer", typesys.Integer)
	reg("int64", typesys.Int64)
	reg("real", typesys.Real)
	reg("char", typesys.Char)
	reg("boolean", typesys.Boolean)
}

// parseTypeDenoter implements spec.md §4.3's type grammar: ordinal
// (enumerated/subrange/named), structured (array/record/object/
// class/file/set), pointer, string, and packed forms.
func (p *Parser) parseTypeDenoter() typesys.Type {
	switch {
	case p.peekIs(token.KwPacked):
		p.next()
		return p.parsePackedTypeDenoter()
	case p.peekIs(token.KwArray):
		return p.parseArrayType(false)
	case p.peekIs(token.KwRecord):
		return p.parseRecordType(false)
	case p.peekIs(token.KwObject, token.KwClass):
		return p.parseClassType()
	case p.peekIs(token.KwFile):
		return p.parseFileType()
	case p.peekIs(token.KwSet):
		return p.parseSetType()
	case p.peekIs(token.KwString):
		return p.parseStringType()
	case p.peekIs(token.Caret):
		return p.parsePointerType()
	case p.peekIs(token.LParen):
		return p.parseEnumType()
	case p.peekIs(token.Ident):
		if e, ok := p.NS.Find(p.peek().Ident); ok {
			if td, ok := e.(names.TypeDef); ok {
				p.next()
				return td.Type
			}
		}
		return p.parseOrdinalSubrange()
	default:
		return p.parseOrdinalSubrange()
	}
}

func (p *Parser) parsePackedTypeDenoter() typesys.Type {
	if p.peekIs(token.KwArray) {
		return p.parseArrayType(true)
	}
	return p.parseRecordType(true)
}

// parseArrayType parses `array[R1, R2, ...] of T`.
func (p *Parser) parseArrayType(packed bool) typesys.Type {
	p.expect(token.KwArray)
	p.expect(token.LBracket)
	var indices []*typesys.RangeType
	for {
		rt := p.parseIndexRange()
		indices = append(indices, rt)
		if _, ok := p.accept(token.Comma); ok {
			continue
		}
		break
	}
	p.expect(token.RBracket)
	p.expect(token.KwOf)
	elem := p.parseTypeDenoter()
	arr := typesys.NewArray(elem, indices, packed)
	p.Uni.Intern(arr)
	return arr
}

// parseIndexRange parses one array index range: a subrange or a named
// ordinal type used as a dimension.
func (p *Parser) parseIndexRange() *typesys.RangeType {
	var t typesys.Type
	if p.peekIs(token.Ident) {
		if e, ok := p.NS.Find(p.peek().Ident); ok {
			if td, ok := e.(names.TypeDef); ok {
				p.next()
				t = td.Type
			}
		}
	}
	if t == nil {
		t = p.parseOrdinalSubrange()
	}
	if rt, ok := t.(*typesys.RangeType); ok {
		return rt
	}
	if et, ok := t.(*typesys.EnumType); ok {
		lo, hi, _ := et.GetRange()
		return typesys.NewRange(et, lo, hi)
	}
	loc := p.peek().Loc
	p.fail(loc, "array index must be a subrange or enumerated type")
	return nil
}

// parseOrdinalSubrange handles `Lo..Hi`, folding constant expressions
// via constfold. A bare type name is handled by its callers
// (parseTypeDenoter, parseIndexRange) before they reach it.
func (p *Parser) parseOrdinalSubrange() typesys.Type {
	loc := p.peek().Loc
	lo := p.parseConstExprValue()
	if _, ok := p.accept(token.DotDot); !ok {
		p.fail(loc, "expected a subrange bound `..`")
	}
	hi := p.parseConstExprValue()

	var base typesys.Type
	switch lo.Kind {
	case constfold.KindChar:
		base = typesys.Char
	case constfold.KindEnum:
		base = lo.EnumType
	default:
		base = typesys.Integer
	}
	return typesys.NewRange(base, lo.Int, hi.Int)
}

// parseEnumType parses `(v1, v2, ..., vN)`.
func (p *Parser) parseEnumType() typesys.Type {
	p.expect(token.LParen)
	var values []string
	for {
		id := p.expect(token.Ident)
		values = append(values, id.Ident)
		if _, ok := p.accept(token.Comma); ok {
			continue
		}
		break
	}
	p.expect(token.RParen)
	et := typesys.NewEnum("", values)
	for i, v := range values {
		p.NS.Add(v, names.EnumDef{Ordinal: i, Type: et})
	}
	p.Uni.Intern(et)
	return et
}

func (p *Parser) parseFileType() typesys.Type {
	p.expect(token.KwFile)
	if _, ok := p.accept(token.KwOf); !ok {
		ft := typesys.NewTextFile()
		p.Uni.Intern(ft)
		return ft
	}
	elem := p.parseTypeDenoter()
	ft := typesys.NewFile(elem)
	p.Uni.Intern(ft)
	return ft
}

func (p *Parser) parseSetType() typesys.Type {
	p.expect(token.KwSet)
	p.expect(token.KwOf)
	elem := p.parseTypeDenoter()
	var rng *typesys.RangeType
	switch e := elem.(type) {
	case *typesys.RangeType:
		rng = e
	case *typesys.EnumType:
		lo, hi, _ := e.GetRange()
		rng = typesys.NewRange(e, lo, hi)
	default:
		lo, hi, ok := elem.GetRange()
		if !ok {
			p.fail(p.peek().Loc, "set element type must be ordinal")
		}
		rng = typesys.NewRange(elem, lo, hi)
	}
	if rng.Hi-rng.Lo+1 > typesys.MaxSetSize {
		p.fail(p.peek().Loc, "set domain exceeds the maximum representable size of %d elements", typesys.MaxSetSize)
	}
	st := typesys.NewSet(rng, elem)
	p.Uni.Intern(st)
	return st
}

func (p *Parser) parseStringType() typesys.Type {
	p.expect(token.KwString)
	cap := 255
	if _, ok := p.accept(token.LBracket); ok {
		v := p.parseConstExprValue()
		cap = int(v.Int)
		p.expect(token.RBracket)
	}
	loc := p.peek().Loc
	st, err := typesys.NewString(cap)
	if err != nil {
		p.Diags.Emit(diag.TypeError{Loc: loc, Msg: err.Error()})
		st, _ = typesys.NewString(typesys.MaxStringCapacity)
	}
	p.Uni.Intern(st)
	return st
}

// parsePointerType handles `^Name`. If Name has not yet been declared
// in this or an earlier type block, the pointer is left pending and
// tracked for the post-block backpatch pass (spec.md §4.3/§9).
func (p *Parser) parsePointerType() typesys.Type {
	p.expect(token.Caret)
	nameTok := p.expect(token.Ident)
	if t := p.Uni.Lookup(nameTok.Ident); t != nil {
		pt := typesys.NewPointerTo(t)
		p.Uni.Intern(pt)
		return pt
	}
	pt := typesys.NewForwardPointer(nameTok.Ident)
	p.Uni.TrackForwardPointer(pt)
	p.Uni.Intern(pt)
	return pt
}

// parseRecordType parses `record FieldList [case Tag: T of Alts] end`.
func (p *Parser) parseRecordType(packed bool) typesys.Type {
	p.expect(token.KwRecord)
	fields, variant := p.parseFieldListAndVariant()
	p.expect(token.KwEnd)
	rt := typesys.NewRecord("", fields, variant, packed)
	p.Uni.Intern(rt)
	return rt
}

func (p *Parser) parseFieldListAndVariant() ([]*typesys.FieldType, *typesys.VariantType) {
	var fields []*typesys.FieldType
	for !p.peekIs(token.KwEnd, token.KwCase) {
		var fieldNames []string
		for {
			id := p.expect(token.Ident)
			fieldNames = append(fieldNames, id.Ident)
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
		p.expect(token.Colon)
		ft := p.parseTypeDenoter()
		for _, n := range fieldNames {
			fields = append(fields, typesys.NewField(n, ft, false))
		}
		if !p.peekIs(token.KwEnd, token.KwCase) {
			p.expect(token.Semi)
		}
	}
	var variant *typesys.VariantType
	if p.peekIs(token.KwCase) {
		variant = p.parseVariantTail()
	}
	return fields, variant
}

func (p *Parser) parseVariantTail() *typesys.VariantType {
	p.expect(token.KwCase)
	tagTok := p.expect(token.Ident)
	tagField := tagTok.Ident
	var tagType typesys.Type
	if _, ok := p.accept(token.Colon); ok {
		tagType = p.parseTypeDenoter()
	} else {
		// bare `case TagType of` with no named discriminant field
		if e, ok := p.NS.Find(tagField); ok {
			if td, ok := e.(names.TypeDef); ok {
				tagType = td.Type
			}
		}
		if tagType == nil {
			tagType = typesys.Integer
		}
		tagField = ""
	}
	p.expect(token.KwOf)

	var alts [][]*typesys.FieldType
	for {
		for {
			p.parseConstExprValue()
			if _, ok := p.accept(token.Comma); ok {
				continue
			}
			break
		}
		p.expect(token.Colon)
		p.expect(token.LParen)
		alt, _ := p.parseFieldListAndVariant()
		p.expect(token.RParen)
		alts = append(alts, alt)
		if !p.peekIs(token.KwEnd) && !p.peekIs(token.RParen) {
			continue
		}
		break
	}
	return typesys.NewVariant(tagField, tagType, alts)
}

// parseClassType parses `object|class [(Ancestor)] FieldList
// MethodHeaders end`, per spec.md §3.2's single-inheritance class
// model.
func (p *Parser) parseClassType() typesys.Type {
	p.expectOneOf(token.KwObject, token.KwClass)
	var base *typesys.ClassType
	if _, ok := p.accept(token.LParen); ok {
		baseName := p.expect(token.Ident)
		if e, ok := p.NS.Find(baseName.Ident); ok {
			if td, ok := e.(names.TypeDef); ok {
				base, _ = td.Type.(*typesys.ClassType)
			}
		}
		if base == nil {
			p.fail(baseName.Loc, "%q does not name a class", baseName.Ident)
		}
		p.expect(token.RParen)
	}

	var fields []*typesys.FieldType
	var methods []*typesys.MethodDesc
	for !p.peekIs(token.KwEnd) {
		switch {
		case p.peekIs(token.KwProcedure, token.KwFunction):
			methods = append(methods, p.parseMethodHeader())
		default:
			var fieldNames []string
			isStatic := false
			if _, ok := p.accept(token.KwStatic); ok {
				isStatic = true
			}
			for {
				id := p.expect(token.Ident)
				fieldNames = append(fieldNames, id.Ident)
				if _, ok := p.accept(token.Comma); ok {
					continue
				}
				break
			}
			p.expect(token.Colon)
			ft := p.parseTypeDenoter()
			for _, n := range fieldNames {
				fields = append(fields, typesys.NewField(n, ft, isStatic))
			}
			p.expect(token.Semi)
		}
	}
	p.expect(token.KwEnd)

	rec := typesys.NewRecord("", fields, nil, false)
	class := typesys.NewClass("", rec, base, methods)
	vt, err := vtable.AssignSlots(class)
	if err != nil {
		p.fail(p.peek().Loc, "%s", err.Error())
	}
	class.VTable = vt
	p.Uni.Intern(class)
	return class
}

// parseMethodHeader parses one class-body method signature, e.g.
// `procedure Speak(n: integer); virtual;`. Names of parameters are
// not retained here (typesys.MethodDesc carries types only); the
// matching top-level `procedure Class.Method(...)` definition supplies
// the full ast.Prototype.
func (p *Parser) parseMethodHeader() *typesys.MethodDesc {
	isFunc := p.peekIs(token.KwFunction)
	p.expectOneOf(token.KwProcedure, token.KwFunction)
	nameTok := p.expect(token.Ident)

	var params []typesys.Type
	if _, ok := p.accept(token.LParen); ok {
		for !p.peekIs(token.RParen) {
			p.accept(token.KwVar)
			for {
				p.expect(token.Ident)
				if _, ok := p.accept(token.Comma); ok {
					continue
				}
				break
			}
			p.expect(token.Colon)
			pt := p.parseTypeDenoter()
			params = append(params, pt)
			if _, ok := p.accept(token.Semi); ok {
				continue
			}
			break
		}
		p.expect(token.RParen)
	}
	result := typesys.Type(typesys.Void)
	if isFunc {
		p.expect(token.Colon)
		result = p.parseTypeDenoter()
	}
	p.expect(token.Semi)

	m := &typesys.MethodDesc{Name: nameTok.Ident, Params: params, Result: result, VTableSlot: -1}
	for {
		switch {
		case p.peekIs(token.KwVirtual):
			p.next()
			m.IsVirtual = true
		case p.peekIs(token.KwOverride):
			p.next()
			m.IsOverride = true
		case p.peekIs(token.KwStatic):
			p.next()
			m.IsStatic = true
		default:
			return m
		}
		p.expect(token.Semi)
	}
}

// parseConstExprValue folds a constant expression (spec.md §4.4's
// small constant-expression grammar) using package constfold.
func (p *Parser) parseConstExprValue() constfold.Value {
	loc := p.peek().Loc
	v, err := p.parseConstSum()
	if err != nil {
		p.Diags.Emit(err)
		return constfold.Int(0)
	}
	_ = loc
	return v
}

func (p *Parser) parseConstSum() (constfold.Value, error) {
	v, err := p.parseConstTerm()
	if err != nil {
		return v, err
	}
	for p.peekIs(token.Plus, token.Minus) {
		opTok := p.next()
		rhs, err := p.parseConstTerm()
		if err != nil {
			return v, err
		}
		if opTok.Kind == token.Plus {
			v, err = constfold.Add(opTok.Loc, v, rhs)
		} else {
			v, err = constfold.Sub(opTok.Loc, v, rhs)
		}
		if err != nil {
			return v, err
		}
	}
	return v, nil
}

func (p *Parser) parseConstTerm() (constfold.Value, error) {
	v, err := p.parseConstUnary()
	if err != nil {
		return v, err
	}
	for p.peekIs(token.Star) {
		opTok := p.next()
		rhs, err := p.parseConstUnary()
		if err != nil {
			return v, err
		}
		v, err = constfold.Mul(opTok.Loc, v, rhs)
		if err != nil {
			return v, err
		}
	}
	return v, nil
}

func (p *Parser) parseConstUnary() (constfold.Value, error) {
	switch {
	case p.peekIs(token.Minus):
		t := p.next()
		v, err := p.parseConstUnary()
		if err != nil {
			return v, err
		}
		return constfold.Neg(t.Loc, v)
	case p.peekIs(token.Plus):
		t := p.next()
		v, err := p.parseConstUnary()
		if err != nil {
			return v, err
		}
		return constfold.Pos(t.Loc, v)
	case p.peekIs(token.KwNot):
		t := p.next()
		v, err := p.parseConstUnary()
		if err != nil {
			return v, err
		}
		return constfold.Not(t.Loc, v)
	default:
		return p.parseConstPrimary()
	}
}

func (p *Parser) parseConstPrimary() (constfold.Value, error) {
	t := p.next()
	switch t.Kind {
	case token.IntLit:
		return constfold.Int(t.IntVal), nil
	case token.RealLit:
		return constfold.Real(t.RealVal), nil
	case token.CharLit:
		return constfold.Char(t.CharVal), nil
	case token.StringLit:
		return constfold.Str(t.StrVal), nil
	case token.KwTrue:
		return constfold.Bool(true), nil
	case token.KwFalse:
		return constfold.Bool(false), nil
	case token.LParen:
		v, err := p.parseConstSum()
		if err != nil {
			return v, err
		}
		p.expect(token.RParen)
		return v, nil
	case token.Ident:
		return constfold.ResolveIdent(t.Loc, p.NS, t.Ident)
	default:
		return constfold.Value{}, diag.SyntaxError{Loc: t.Loc, Msg: "expected a constant expression, got " + strings.ToLower(t.Kind.String())}
	}
}
