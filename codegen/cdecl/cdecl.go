// Package cdecl generates the declarations header: include guards plus
// one client-callable prototype per routine.
package cdecl

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/migbuild/migcompile/codegen"
	"github.com/migbuild/migcompile/semantic"
)

var (
	//go:embed header.tmpl
	headerTmplText string

	headerTmpl = template.Must(template.New("headerTmpl").Parse(headerTmplText))
)

type headerTmplInput struct {
	Subsystem string
	Guard     string
	Routines  []routineDecl
}

type routineDecl struct {
	Name         string
	UserFunction string
	// Params is the comma-joined parameter declaration list.
	Params string
}

// Generator renders the declarations header.
type Generator struct{}

// New returns the declarations backend.
func New() Generator { return Generator{} }

func (Generator) Name(sub *semantic.Subsystem) string { return sub.Name + ".h" }

func (Generator) Generate(sub *semantic.Subsystem) ([]byte, error) {
	input := headerTmplInput{
		Subsystem: sub.Name,
		Guard:     codegen.GuardName(sub.Name, "user"),
	}
	for _, r := range sub.Routines {
		if err := codegen.CheckInline(r); err != nil {
			return nil, err
		}
		input.Routines = append(input.Routines, routineDecl{
			Name:         r.Name,
			UserFunction: r.UserFunction,
			Params:       strings.Join(codegen.ParamList(sub.Table, r, semantic.SideUser), ",\n\t"),
		})
	}

	var buf bytes.Buffer
	if err := headerTmpl.Execute(&buf, input); err != nil {
		return nil, fmt.Errorf("%w: %v", codegen.ErrInvalidTemplate, err)
	}
	return buf.Bytes(), nil
}

var _ codegen.Generator = Generator{}
