package cserver_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/codegen/cserver"
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
	out, err := cserver.New().Generate(sub)
	require.NoError(t, err)
	return string(out)
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
			&ast.Reserved{},
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
	}
}

func TestGenerateServerStubs(t *testing.T) {
	t.Parallel()
	sub := analyze(t, arithAST())

	assert.Equal(t, "arithServer.c", cserver.New().Name(sub))
	text := generate(t, sub)

	assert.Contains(t, text, "extern kern_return_t add_impl(")
	assert.Contains(t, text, "static kern_return_t _Xadd(mach_msg_header_t *InHeadP, mach_msg_header_t *OutHeadP)")
	assert.Contains(t, text, "if (In0P->Head.msgh_size != 48) {")
	assert.Contains(t, text, "if (In0P->aType.msgt_name != MACH_MSG_TYPE_INTEGER_32) {")
	assert.Contains(t, text, "OutP->RetCode = add_impl(In0P->Head.msgh_local_port, In0P->a, In0P->b, &result);")
	assert.Contains(t, text, "OutP->result = result;")
	assert.Contains(t, text, "OutP->Head.msgh_size = 48;")
}

func TestGenerateServerValidatesCountBeforeImpl(t *testing.T) {
	t.Parallel()
	text := generate(t, analyze(t, arithAST()))

	check := strings.Index(text, "if (In0P->dataCnt > 1024) {")
	call := strings.Index(text, "OutP->RetCode = sum_impl(")
	require.Greater(t, check, -1)
	require.Greater(t, call, -1)
	assert.Less(t, check, call, "count bound check must precede the implementation call")
	assert.Contains(t, text, "return MIG_BAD_ARGUMENTS;")
	assert.Contains(t, text, "if (In0P->dataType.msgt_number != In0P->dataCnt) {")
	assert.Contains(t, text, "if (!In0P->dataType.msgt_inline) {")
}

func TestGenerateServerDispatchTable(t *testing.T) {
	t.Parallel()
	text := generate(t, analyze(t, arithAST()))

	assert.Contains(t, text, "static kern_return_t (* const arith_routines[3])(mach_msg_header_t *, mach_msg_header_t *)")
	assert.Contains(t, text, "_Xadd,\t/* 0: add */")
	assert.Contains(t, text, "0,\t/* 1: reserved */")
	assert.Contains(t, text, "_Xsum,\t/* 2: sum */")
}

func TestGenerateServerDemux(t *testing.T) {
	t.Parallel()
	text := generate(t, analyze(t, arithAST()))

	assert.Contains(t, text, "boolean_t arith_server(mach_msg_header_t *InHeadP, mach_msg_header_t *OutHeadP)")
	assert.Contains(t, text, "OutHeadP->msgh_id = InHeadP->msgh_id + 100;")
	assert.Contains(t, text, "if (InHeadP->msgh_id >= 1000 && InHeadP->msgh_id < 1000 + 3) {")
	assert.Contains(t, text, "mig_set_retcode(OutP, MIG_BAD_ID);")
	assert.Contains(t, text, "if (check_result == MIG_NO_REPLY) {")
}

func TestGenerateServerOneWay(t *testing.T) {
	t.Parallel()
	sub := analyze(t, &ast.Subsystem{
		Name: "notify",
		Base: 300,
		Statements: []ast.Statement{
			&ast.Routine{
				Name: "ping",
				Kind: ast.OneWay,
				Args: []ast.Argument{
					{Name: "seq", Direction: ast.In, Type: &ast.NamedType{Name: "int32_t"}},
				},
			},
		},
	})
	text := generate(t, sub)

	assert.Contains(t, text, "(void) ping_impl(In0P->seq);")
	assert.Contains(t, text, "return MIG_NO_REPLY;")
	assert.NotContains(t, text, "OutP->RetCode = ping_impl")
}

func TestGenerateServerTranslationHooks(t *testing.T) {
	t.Parallel()
	sub := analyze(t, &ast.Subsystem{
		Name: "taskd",
		Base: 800,
		Statements: []ast.Statement{
			&ast.TypeDecl{
				Name: "task_t",
				Spec: &ast.NamedType{Name: "mach_port_t"},
				Annotations: ast.Annotations{
					InTran:     ast.Translation{Type: "task_t", Func: "convert_port_to_task"},
					Destructor: "task_deallocate",
				},
			},
			&ast.Routine{
				Name: "suspend",
				Args: []ast.Argument{
					{Name: "target", Direction: ast.In, Type: &ast.NamedType{Name: "task_t"}},
				},
			},
		},
	})
	text := generate(t, sub)

	assert.Contains(t, text, "task_t target_conv = convert_port_to_task(In0P->target);")
	assert.Contains(t, text, "suspend_impl(target_conv)")
	assert.Contains(t, text, "task_deallocate(target_conv);")
}

func TestGenerateServerInOutArrayDecays(t *testing.T) {
	t.Parallel()
	sub := analyze(t, &ast.Subsystem{
		Name: "scrubd",
		Base: 600,
		Statements: []ast.Statement{
			&ast.Routine{
				Name: "scrub",
				Args: []ast.Argument{
					{Name: "data", Direction: ast.InOut, Type: &ast.ArrayType{
						Elem: &ast.NamedType{Name: "int32_t"},
						Size: ast.ArraySize{Kind: ast.BoundedSize, N: 64},
					}},
				},
			},
		},
	})
	text := generate(t, sub)

	// the prototype takes an element pointer, so the in-place array is
	// passed bare and decays; only the count travels by address
	assert.Contains(t, text, "int32_t *data,")
	assert.Contains(t, text, "scrub_impl(In0P->data, &In0P->dataCnt);")
	assert.NotContains(t, text, "&In0P->data,")
}

func TestGenerateServerDeterministic(t *testing.T) {
	t.Parallel()
	sub := analyze(t, arithAST())
	assert.Equal(t, generate(t, sub), generate(t, sub))
}
