package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/codegen"
	"github.com/migbuild/migcompile/semantic"
)

func analyze(t *testing.T, sub *ast.Subsystem) *semantic.Subsystem {
	t.Helper()
	s, err := semantic.Analyze(sub, nil)
	require.NoError(t, err)
	return s
}

func TestDescriptorFor(t *testing.T) {
	t.Parallel()

	s := analyze(t, &ast.Subsystem{
		Name: "desc",
		Base: 100,
		Statements: []ast.Statement{
			&ast.TypeDecl{Name: "buf_t", Spec: &ast.ArrayType{
				Elem: &ast.NamedType{Name: "int32_t"},
				Size: ast.ArraySize{Kind: ast.BoundedSize, N: 1024},
			}},
			&ast.TypeDecl{Name: "pair_t", Spec: &ast.StructType{
				Fields: []ast.StructField{
					{Name: "lo", Type: &ast.NamedType{Name: "int32_t"}},
					{Name: "hi", Type: &ast.NamedType{Name: "int32_t"}},
				},
			}},
			&ast.TypeDecl{Name: "name_t", Spec: &ast.StringType{Max: 32}},
		},
	})
	tbl := s.Table

	lookup := func(name string) semantic.TypeRef {
		ref, ok := tbl.Lookup(name)
		require.True(t, ok)
		return ref
	}

	port := codegen.DescriptorFor(tbl, lookup("mach_port_t"))
	assert.Equal(t, "MACH_MSG_TYPE_COPY_SEND", port.Tag)
	assert.Equal(t, 32, port.BitSize)
	assert.Equal(t, 1, port.Number)
	assert.False(t, port.Variable)

	buf := codegen.DescriptorFor(tbl, lookup("buf_t"))
	assert.Equal(t, "MACH_MSG_TYPE_INTEGER_32", buf.Tag)
	assert.Equal(t, 32, buf.BitSize)
	assert.Equal(t, 1024, buf.Number)
	assert.True(t, buf.Variable)

	pair := codegen.DescriptorFor(tbl, lookup("pair_t"))
	assert.Equal(t, 8, pair.BitSize)
	assert.Equal(t, 8, pair.Number)
	assert.False(t, pair.Variable)

	name := codegen.DescriptorFor(tbl, lookup("name_t"))
	assert.Equal(t, "MACH_MSG_TYPE_STRING", name.Tag)
	assert.Equal(t, 8, name.BitSize)
	assert.Equal(t, 32, name.Number)
}

func TestParamList(t *testing.T) {
	t.Parallel()

	s := analyze(t, &ast.Subsystem{
		Name: "params",
		Base: 100,
		Statements: []ast.Statement{
			&ast.Routine{
				Name: "fetch",
				Args: []ast.Argument{
					{Name: "server", Direction: ast.RequestPort, Type: &ast.NamedType{Name: "mach_port_t"}},
					{Name: "key", Direction: ast.In, Type: &ast.NamedType{Name: "int32_t"}},
					{Name: "data", Direction: ast.Out, Type: &ast.ArrayType{
						Elem: &ast.NamedType{Name: "int32_t"},
						Size: ast.ArraySize{Kind: ast.BoundedSize, N: 64},
					}},
				},
			},
		},
	})

	params := codegen.ParamList(s.Table, s.Routines[0], semantic.SideUser)
	assert.Equal(t, []string{
		"mach_port_t server",
		"int32_t key",
		"int32_t *data",
		"mach_msg_type_number_t *dataCnt",
	}, params)
}

func TestParamListEmpty(t *testing.T) {
	t.Parallel()

	s := analyze(t, &ast.Subsystem{
		Name:       "empty",
		Base:       100,
		Statements: []ast.Statement{&ast.Routine{Name: "poke"}},
	})
	params := codegen.ParamList(s.Table, s.Routines[0], semantic.SideUser)
	assert.Equal(t, []string{"void"}, params)
}

func TestGuardName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "_ARITH_USER_H_", codegen.GuardName("arith", "user"))
}

func TestCheckInline(t *testing.T) {
	t.Parallel()

	ok := &semantic.RoutineInfo{
		Name:    "small",
		Request: &semantic.Layout{MinSize: 48, MaxSize: 48},
	}
	assert.NoError(t, codegen.CheckInline(ok))

	big := &semantic.RoutineInfo{
		Name:    "big",
		Request: &semantic.Layout{MinSize: 48, MaxSize: 48},
		Reply:   &semantic.Layout{MinSize: 9000, MaxSize: 9000},
	}
	err := codegen.CheckInline(big)
	require.Error(t, err)
	assert.ErrorIs(t, err, codegen.ErrUnsupportedFeature)
}
