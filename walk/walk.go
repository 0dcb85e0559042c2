// Package walk provides traversal helpers for the AST. The semantic
// package uses these to visit every type reference and routine without
// repeating statement-dispatch switches.
package walk

import (
	"github.com/migbuild/migcompile/ast"
)

// Statements invokes fn for every statement of the subsystem, in
// declaration order. Traversal stops at the first error.
func Statements(sub *ast.Subsystem, fn func(ast.Statement) error) error {
	for _, stmt := range sub.Statements {
		if err := fn(stmt); err != nil {
			return err
		}
	}
	return nil
}

// TypeDecls invokes fn for every type declaration of the subsystem, in
// declaration order.
func TypeDecls(sub *ast.Subsystem, fn func(*ast.TypeDecl) error) error {
	return Statements(sub, func(stmt ast.Statement) error {
		if decl, ok := stmt.(*ast.TypeDecl); ok {
			return fn(decl)
		}
		return nil
	})
}

// Routines invokes fn for every routine of the subsystem with its
// ordinal. Reserved markers consume an ordinal without a callback, so
// ordinals passed to fn may have gaps.
func Routines(sub *ast.Subsystem, fn func(ordinal uint32, r *ast.Routine) error) error {
	var ordinal uint32
	return Statements(sub, func(stmt ast.Statement) error {
		switch stmt := stmt.(type) {
		case *ast.Routine:
			err := fn(ordinal, stmt)
			ordinal++
			return err
		case *ast.Reserved:
			ordinal++
		}
		return nil
	})
}

// TypeSpecs invokes fn for spec and then, recursively, for every type
// specification nested within it: array elements, pointer targets, and
// struct fields. Recursion depth is bounded by the depth of the AST.
func TypeSpecs(spec ast.TypeSpec, fn func(ast.TypeSpec) error) error {
	if err := fn(spec); err != nil {
		return err
	}
	switch spec := spec.(type) {
	case *ast.ArrayType:
		return TypeSpecs(spec.Elem, fn)
	case *ast.PointerType:
		return TypeSpecs(spec.Elem, fn)
	case *ast.StructType:
		for _, f := range spec.Fields {
			if err := TypeSpecs(f.Type, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
