// Package rustbind generates Rust client bindings for a subsystem:
// wire-compatible #[repr(C)] message structs, async client functions
// built on AsyncPort, and a server trait with one method per routine.
package rustbind

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/migbuild/migcompile/codegen"
	"github.com/migbuild/migcompile/semantic"
)

//go:embed binding.tmpl
var bindingTmplSrc string

var bindingTmpl = template.Must(template.New("rustbind").Parse(bindingTmplSrc))

type Generator struct{}

var _ codegen.Generator = Generator{}

func New() Generator { return Generator{} }

func (Generator) Name(sub *semantic.Subsystem) string { return sub.Name + ".rs" }

func (Generator) Generate(sub *semantic.Subsystem) ([]byte, error) {
	input, err := buildFile(sub)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := bindingTmpl.Execute(&buf, input); err != nil {
		return nil, fmt.Errorf("%w: %v", codegen.ErrInvalidTemplate, err)
	}
	return buf.Bytes(), nil
}
