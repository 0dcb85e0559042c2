// Package cserver generates the C server-side skeleton for a subsystem:
// one dispatch stub per routine plus the table-driven demultiplexer that
// routes incoming messages by request id.
package cserver

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/migbuild/migcompile/codegen"
	"github.com/migbuild/migcompile/semantic"
)

//go:embed stubs.tmpl
var stubsTmplSrc string

var stubsTmpl = template.Must(template.New("cserver").Parse(stubsTmplSrc))

type Generator struct{}

var _ codegen.Generator = Generator{}

func New() Generator { return Generator{} }

func (Generator) Name(sub *semantic.Subsystem) string { return sub.Name + "Server.c" }

func (Generator) Generate(sub *semantic.Subsystem) ([]byte, error) {
	input, err := buildFile(sub)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := stubsTmpl.Execute(&buf, input); err != nil {
		return nil, fmt.Errorf("%w: %v", codegen.ErrInvalidTemplate, err)
	}
	return buf.Bytes(), nil
}
