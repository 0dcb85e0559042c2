package semantic

import (
	"fmt"

	"github.com/migbuild/migcompile/ast"
)

// ResolveTypeDecl resolves one type declaration against the table and
// appends the named result. Element and field types resolve recursively
// (recursion is bounded by AST depth, never by runtime data) and any
// annotation overrides are applied. The returned error wraps
// ErrUnresolvedType when a referenced name is not yet in the table.
func (t *Table) ResolveTypeDecl(decl *ast.TypeDecl) (TypeRef, error) {
	ref, err := t.resolveSpec(decl.Spec)
	if err != nil {
		return InvalidRef, fmt.Errorf("type %q: %w", decl.Name, err)
	}

	rt := t.arena[ref]
	rt.Name = decl.Name
	rt.CType = t.nativeNameFor(decl, ref)
	rt.CUserType = decl.Annotations.CUserType
	rt.CServerType = decl.Annotations.CServerType
	rt.InTran = decl.Annotations.InTran
	rt.OutTran = decl.Annotations.OutTran
	rt.Destructor = decl.Annotations.Destructor
	return t.add(rt), nil
}

// nativeNameFor picks the native type name for a declaration: the
// ctype annotation when present, the declared name for simple aliases
// and structs (a matching native typedef is assumed to exist), or the
// element's native name for array and string shapes.
func (t *Table) nativeNameFor(decl *ast.TypeDecl, ref TypeRef) string {
	if decl.Annotations.CType != "" {
		return decl.Annotations.CType
	}
	rt := t.Get(ref)
	if rt.IsArray || rt.Kind == KindString {
		return rt.CType
	}
	return decl.Name
}

// resolveSpec resolves a type specification, appending anonymous
// entries for inline array, pointer, struct and string shapes. Named
// references resolve through the index and return the existing ref.
func (t *Table) resolveSpec(spec ast.TypeSpec) (TypeRef, error) {
	switch spec := spec.(type) {
	case *ast.NamedType:
		ref, ok := t.Lookup(spec.Name)
		if !ok {
			return InvalidRef, fmt.Errorf("%w: %q", ErrUnresolvedType, spec.Name)
		}
		return ref, nil

	case *ast.ArrayType:
		return t.resolveArray(spec)

	case *ast.PointerType:
		pointee, err := t.resolveSpec(spec.Elem)
		if err != nil {
			return InvalidRef, err
		}
		// Pointers reference data in the sender's address space; with
		// no out-of-line transfer their payload has no inline bound.
		return t.add(ResolvedType{
			Kind:      t.Get(pointee).Kind,
			CType:     t.Get(pointee).NativeType(SideUser),
			Size:      Indefinite(),
			IsPointer: true,
			Pointee:   pointee,
		}), nil

	case *ast.StructType:
		return t.resolveStruct(spec)

	case *ast.StringType:
		size := Fixed(int(spec.Max))
		if spec.Varying {
			size = VariableMax(1, spec.Max)
		}
		return t.add(ResolvedType{
			Kind:  KindString,
			CType: "char",
			Size:  size,
		}), nil
	}
	return InvalidRef, fmt.Errorf("%w: unknown type specification", ErrUnresolvedType)
}

func (t *Table) resolveArray(spec *ast.ArrayType) (TypeRef, error) {
	elemRef, err := t.resolveSpec(spec.Elem)
	if err != nil {
		return InvalidRef, err
	}
	elem := t.Get(elemRef)

	var size Size
	switch spec.Size.Kind {
	case ast.FixedSize:
		if elem.Size.Kind == SizeFixed {
			size = Fixed(elem.Size.Bytes * int(spec.Size.N))
		} else {
			size = Indefinite()
		}
	case ast.BoundedSize:
		if elem.Size.Kind == SizeFixed {
			size = VariableMax(elem.Size.Bytes, spec.Size.N)
		} else {
			size = Indefinite()
		}
	default:
		size = Indefinite()
	}

	return t.add(ResolvedType{
		Kind:      elem.Kind,
		CType:     elem.NativeType(SideUser),
		Size:      size,
		IsArray:   true,
		Elem:      elemRef,
		ArraySize: spec.Size,
	}), nil
}

func (t *Table) resolveStruct(spec *ast.StructType) (TypeRef, error) {
	fields := make([]ResolvedField, 0, len(spec.Fields))
	offset := 0
	maxAlign := 1
	fixed := true
	for _, f := range spec.Fields {
		ref, err := t.resolveSpec(f.Type)
		if err != nil {
			return InvalidRef, fmt.Errorf("field %q: %w", f.Name, err)
		}
		fields = append(fields, ResolvedField{Name: f.Name, Type: ref})

		ft := t.Get(ref)
		if ft.Size.Kind != SizeFixed {
			fixed = false
			continue
		}
		a := scalarAlignment(ft.Size.Bytes)
		if ft.IsArray {
			a = scalarAlignment(t.Get(ft.Elem).Size.Bytes)
		}
		if a > maxAlign {
			maxAlign = a
		}
		offset = align(offset, a) + ft.Size.Bytes
	}

	size := Indefinite()
	if fixed {
		size = Fixed(align(offset, maxAlign))
	}
	// Structs travel as an opaque byte region; the descriptor carries
	// the byte count.
	return t.add(ResolvedType{
		Kind:      KindByte,
		Size:      size,
		IsStruct:  true,
		Fields:    fields,
		Alignment: maxAlign,
	}), nil
}
