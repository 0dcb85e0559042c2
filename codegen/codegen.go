// Package codegen defines the interface every target backend
// implements, plus the helpers backends share: descriptor constants,
// native parameter rendering, and identifier shaping.
//
// Backends are pure functions from the analyzed subsystem to text. They
// read the shared semantic model, never mutate it, and never depend on
// one another's output; wire-layout agreement between them comes from
// all of them reading the same layouts.
package codegen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/semantic"
)

// Generator renders one target artifact for an analyzed subsystem.
// Implementations must be deterministic: identical subsystems yield
// byte-identical output.
type Generator interface {
	// Name identifies the artifact, used as its file-name stem.
	Name(sub *semantic.Subsystem) string
	// Generate renders the artifact. An error means the backend cannot
	// express something the model permits; no partial output is
	// returned.
	Generate(sub *semantic.Subsystem) ([]byte, error)
}

// Backend errors.
var (
	// ErrUnsupportedFeature is returned when the model asks a backend
	// for something it cannot yet express, such as out-of-line
	// transfer.
	ErrUnsupportedFeature = errors.New("unsupported feature")
	// ErrInvalidTemplate is returned when a backend's template fails to
	// execute.
	ErrInvalidTemplate = errors.New("invalid template")
)

// Descriptor is the constant content of one type descriptor as emitted
// into generated code. For variable-length data the element count is
// runtime state; Number then holds the count expression's placeholder
// value (the declared maximum) and Variable is set.
type Descriptor struct {
	// Tag is the wire-type tag constant name.
	Tag string
	// BitSize is the element size in bits.
	BitSize int
	// Number is the constant element count.
	Number int
	// Variable marks descriptors whose count is filled at runtime from
	// the argument's count field.
	Variable bool
}

// DescriptorFor computes the descriptor constants for a resolved data
// type.
func DescriptorFor(tbl *semantic.Table, ref semantic.TypeRef) Descriptor {
	rt := tbl.Get(ref)

	tag := rt.Kind.WireConstant()
	if rt.IsCapability() {
		tag = rt.Disposition.WireConstant()
	}
	if rt.IsArray {
		elem := tbl.Get(rt.Elem)
		if elem.IsCapability() {
			tag = elem.Disposition.WireConstant()
		} else {
			tag = elem.Kind.WireConstant()
		}
	}

	d := Descriptor{Tag: tag, BitSize: rt.Kind.BitSize(), Number: 1}
	switch {
	case rt.IsStruct:
		// Structs travel as an opaque byte region.
		d.BitSize = 8
		d.Number = rt.Size.Bytes
	case rt.IsArray:
		d.BitSize = tbl.Get(rt.Elem).Kind.BitSize()
		if rt.Size.Kind == semantic.SizeVariableMax {
			d.Number = int(rt.Size.MaxElems)
			d.Variable = true
		} else if rt.Size.Kind == semantic.SizeFixed {
			d.Number = int(rt.ArraySize.N)
		}
	case rt.Kind == semantic.KindString:
		d.BitSize = 8
		if rt.Size.Kind == semantic.SizeVariableMax {
			d.Number = int(rt.Size.MaxElems)
			d.Variable = true
		} else {
			d.Number = rt.Size.Bytes
		}
	}
	return d
}

// CParam renders a C parameter declaration for an argument: arrays
// decay to element pointers, reply-direction scalars become pointers,
// everything else is passed by value.
func CParam(tbl *semantic.Table, a *semantic.ArgInfo, side semantic.Side) string {
	rt := tbl.Get(a.Type)
	name := rt.NativeType(side)

	switch {
	case rt.IsArray, rt.Kind == semantic.KindString:
		return fmt.Sprintf("%s *%s", name, a.Name)
	case a.Direction == ast.Out, a.Direction == ast.InOut:
		return fmt.Sprintf("%s *%s", name, a.Name)
	}
	return fmt.Sprintf("%s %s", name, a.Name)
}

// CFieldDecl renders a message-struct member for a layout field.
// Variable-length data reserves its declared maximum inline.
func CFieldDecl(tbl *semantic.Table, f *semantic.Field) string {
	if f.IsTypeDescriptor || f.IsCountField {
		return fmt.Sprintf("%s %s;", f.CType, f.Name)
	}
	rt := tbl.Get(f.Type)
	switch {
	case rt.IsArray:
		elems := f.MaxElems
		if rt.Size.Kind == semantic.SizeFixed {
			elems = rt.ArraySize.N
		}
		return fmt.Sprintf("%s %s[%d];", tbl.Get(rt.Elem).NativeType(semantic.SideUser), f.Name, elems)
	case rt.Kind == semantic.KindString:
		n := rt.Size.Bytes
		if rt.Size.Kind == semantic.SizeVariableMax {
			n = int(rt.Size.MaxElems)
		}
		return fmt.Sprintf("char %s[%d];", f.Name, n)
	case rt.IsStruct:
		return fmt.Sprintf("char %s[%d];", f.Name, rt.Size.Bytes)
	}
	return fmt.Sprintf("%s %s;", rt.NativeType(semantic.SideUser), f.Name)
}

// ParamList renders the C parameter declarations for a routine's
// generated function: the declared arguments in order, each
// variable-length one followed by its count parameter. The count is a
// pointer when the count travels back to the caller (reply-direction
// data or an explicit countinout flag).
func ParamList(tbl *semantic.Table, r *semantic.RoutineInfo, side semantic.Side) []string {
	params := make([]string, 0, len(r.Args))
	for i := range r.Args {
		a := &r.Args[i]
		params = append(params, CParam(tbl, a, side))
		if tbl.Get(a.Type).Size.Kind != semantic.SizeVariableMax {
			continue
		}
		cnt := fmt.Sprintf("mach_msg_type_number_t %sCnt", a.Name)
		if a.Direction.InReply() || a.Flags.CountInOut {
			cnt = fmt.Sprintf("mach_msg_type_number_t *%sCnt", a.Name)
		}
		params = append(params, cnt)
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	return params
}

// GuardName shapes an include-guard macro from a subsystem name and an
// artifact role.
func GuardName(subsystem, role string) string {
	return "_" + strings.ToUpper(subsystem) + "_" + strings.ToUpper(role) + "_H_"
}

// CheckInline rejects layouts containing out-of-line candidates that
// exceed the message ceiling; backends call it before rendering so the
// model's known gap surfaces as ErrUnsupportedFeature rather than
// silently wrong output.
func CheckInline(r *semantic.RoutineInfo) error {
	layouts := []*semantic.Layout{r.Request, r.Reply}
	for _, l := range layouts {
		if l == nil {
			continue
		}
		if l.Size() > semantic.MaxMessageBytes {
			return fmt.Errorf("%w: routine %s needs out-of-line transfer (%d bytes inline)",
				ErrUnsupportedFeature, r.Name, l.Size())
		}
	}
	return nil
}
