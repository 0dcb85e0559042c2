package cclient_test

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/codegen/cclient"
	"github.com/migbuild/migcompile/semantic"
)

func analyze(t *testing.T, sub *ast.Subsystem) *semantic.Subsystem {
	t.Helper()
	s, err := semantic.Analyze(sub, nil)
	require.NoError(t, err)
	return s
}

func generate(t *testing.T, sub *semantic.Subsystem) string {
	t.Helper()
	out, err := cclient.New().Generate(sub)
	require.NoError(t, err)
	return string(out)
}

func requireSameText(t *testing.T, a, b string) {
	t.Helper()
	if a == b {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:       difflib.SplitLines(a),
		B:       difflib.SplitLines(b),
		Context: 3,
	})
	t.Fatalf("generated output differs:\n%s", diff)
}

func arithAST() *ast.Subsystem {
	return &ast.Subsystem{
		Name: "arith",
		Base: 1000,
		Statements: []ast.Statement{
			&ast.Routine{
				Name: "add",
				Args: []ast.Argument{
					{Name: "server", Direction: ast.RequestPort, Type: &ast.NamedType{Name: "mach_port_t"}},
					{Name: "a", Direction: ast.In, Type: &ast.NamedType{Name: "int32_t"}},
					{Name: "b", Direction: ast.In, Type: &ast.NamedType{Name: "int32_t"}},
					{Name: "result", Direction: ast.Out, Type: &ast.NamedType{Name: "int32_t"}},
				},
			},
		},
	}
}

func TestGenerateClientStub(t *testing.T) {
	t.Parallel()
	sub := analyze(t, arithAST())

	assert.Equal(t, "arithUser.c", cclient.New().Name(sub))
	text := generate(t, sub)

	assert.Contains(t, text, `#include "arith.h"`)
	assert.Contains(t, text, "kern_return_t add(")
	assert.Contains(t, text, "Mess.In.Head.msgh_id = 1000;")
	assert.Contains(t, text, "MACH_MSGH_BITS(MACH_MSG_TYPE_COPY_SEND, MACH_MSG_TYPE_MAKE_SEND_ONCE)")
	assert.Contains(t, text, "Mess.In.Head.msgh_size = 48;")
	assert.Contains(t, text, "Mess.In.aType.msgt_name = MACH_MSG_TYPE_INTEGER_32;")
	assert.Contains(t, text, "Mess.In.aType.msgt_size = 32;")
	assert.Contains(t, text, "Mess.In.a = a;")
	assert.Contains(t, text, "Mess.In.Head.msgh_remote_port = server;")
	assert.Contains(t, text, "*result = Mess.Out.result;")
	assert.Contains(t, text, "return Mess.Out.RetCode;")
}

func TestGenerateClientBoundedArray(t *testing.T) {
	t.Parallel()
	sub := analyze(t, &ast.Subsystem{
		Name: "bulk",
		Base: 500,
		Statements: []ast.Statement{
			&ast.Routine{
				Name: "sum",
				Args: []ast.Argument{
					{Name: "server", Direction: ast.RequestPort, Type: &ast.NamedType{Name: "mach_port_t"}},
					{Name: "data", Direction: ast.In, Type: &ast.ArrayType{
						Elem: &ast.NamedType{Name: "int32_t"},
						Size: ast.ArraySize{Kind: ast.BoundedSize, N: 1024},
					}},
					{Name: "total", Direction: ast.Out, Type: &ast.NamedType{Name: "int32_t"}},
				},
			},
		},
	})
	text := generate(t, sub)

	// worst-case inline reservation: 24 + 8 + 4 + 4096
	assert.Contains(t, text, "Mess.In.Head.msgh_size = 4132;")
	assert.Contains(t, text, "int32_t data[1024];")
	assert.Contains(t, text, "Mess.In.dataType.msgt_number = dataCnt;")
	assert.Contains(t, text, "Mess.In.dataCnt = dataCnt;")
	assert.Contains(t, text, "memcpy(Mess.In.data, data, dataCnt * 4);")
}

func TestGenerateClientOneWay(t *testing.T) {
	t.Parallel()
	sub := analyze(t, &ast.Subsystem{
		Name: "notify",
		Base: 300,
		Statements: []ast.Statement{
			&ast.Routine{
				Name: "ping",
				Kind: ast.OneWay,
				Args: []ast.Argument{
					{Name: "server", Direction: ast.RequestPort, Type: &ast.NamedType{Name: "mach_port_t"}},
					{Name: "seq", Direction: ast.In, Type: &ast.NamedType{Name: "int32_t"}},
				},
			},
		},
	})
	text := generate(t, sub)

	assert.Contains(t, text, "MACH_SEND_MSG,")
	assert.Contains(t, text, "return msg_result;")
	assert.NotContains(t, text, "Mess.Out")
	assert.NotContains(t, text, "MACH_RCV_MSG")
}

func TestGenerateClientDeterministic(t *testing.T) {
	t.Parallel()
	sub := analyze(t, arithAST())
	requireSameText(t, generate(t, sub), generate(t, sub))
}
