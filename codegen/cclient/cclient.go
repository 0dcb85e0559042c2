// Package cclient generates the client-side (user) stubs: one function
// per routine that packs the request, invokes the transport primitive
// with the precomputed layout sizes, and copies reply fields back into
// the caller's output parameters.
package cclient

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/codegen"
	"github.com/migbuild/migcompile/semantic"
)

var (
	//go:embed stubs.tmpl
	stubsTmplText string

	stubsTmpl = template.Must(template.New("stubsTmpl").Parse(stubsTmplText))
)

// Generator renders the client stub file.
type Generator struct{}

// New returns the client-stub backend.
func New() Generator { return Generator{} }

func (Generator) Name(sub *semantic.Subsystem) string { return sub.Name + "User.c" }

func (Generator) Generate(sub *semantic.Subsystem) ([]byte, error) {
	input := fileTmplInput{
		Subsystem: sub.Name,
		Header:    sub.Name + ".h",
	}
	for _, imp := range sub.Imports {
		if imp.Kind == ast.ImportAll || imp.Kind == ast.ImportUser {
			input.Imports = append(input.Imports, imp.File)
		}
	}
	for _, r := range sub.Routines {
		stub, err := buildRoutine(sub.Table, r)
		if err != nil {
			return nil, err
		}
		input.Routines = append(input.Routines, stub)
	}

	var buf bytes.Buffer
	if err := stubsTmpl.Execute(&buf, input); err != nil {
		return nil, fmt.Errorf("%w: %v", codegen.ErrInvalidTemplate, err)
	}
	return buf.Bytes(), nil
}

var _ codegen.Generator = Generator{}
