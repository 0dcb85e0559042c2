package semantic

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migbuild/migcompile/ast"
)

func TestTableBuiltins(t *testing.T) {
	t.Parallel()
	tbl := NewTable()

	testCases := []struct {
		name  string
		kind  WireKind
		disp  Disposition
		bytes int
	}{
		{"char", KindChar, DispNone, 1},
		{"int32_t", KindInt32, DispNone, 4},
		{"int64_t", KindInt64, DispNone, 8},
		{"integer_8", KindInt8, DispNone, 1},
		{"integer_16", KindInt16, DispNone, 2},
		{"boolean_t", KindBool, DispNone, 4},
		{"kern_return_t", KindInt32, DispNone, 4},
		{"mach_msg_type_number_t", KindInt32, DispNone, 4},
		{"mach_port_t", KindPort, DispCopySend, 4},
		{"mach_port_name_t", KindPort, DispPortName, 4},
		{"mach_port_move_receive_t", KindPort, DispMoveReceive, 4},
		{"mach_port_make_send_once_t", KindPort, DispMakeSendOnce, 4},
		{"mach_port_poly_t", KindPort, DispPolymorphic, 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, ok := tbl.Lookup(tc.name)
			require.True(t, ok, "builtin %s missing", tc.name)
			rt := tbl.Get(ref)
			assert.Equal(t, tc.kind, rt.Kind)
			assert.Equal(t, tc.disp, rt.Disposition)
			assert.Equal(t, SizeFixed, rt.Size.Kind)
			assert.Equal(t, tc.bytes, rt.Size.Bytes)
		})
	}
}

func TestTableLookupUnknown(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	_, ok := tbl.Lookup("no_such_type_t")
	assert.False(t, ok)
}

func TestTableScanNamesSorted(t *testing.T) {
	t.Parallel()
	tbl := NewTable()

	var names []string
	tbl.ScanNames(func(name string, ref TypeRef) bool {
		names = append(names, name)
		return true
	})
	require.NotEmpty(t, names)
	assert.True(t, sort.StringsAreSorted(names), "scan order must be lexical")

	// a second scan yields the identical sequence
	var again []string
	tbl.ScanNames(func(name string, ref TypeRef) bool {
		again = append(again, name)
		return true
	})
	assert.Equal(t, names, again)
}

func TestTableRedeclarationShadows(t *testing.T) {
	t.Parallel()
	tbl := NewTable()

	before, ok := tbl.Lookup("int32_t")
	require.True(t, ok)

	ref, err := tbl.ResolveTypeDecl(&ast.TypeDecl{
		Name: "int32_t",
		Spec: &ast.NamedType{Name: "int64_t"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, before, ref)

	after, ok := tbl.Lookup("int32_t")
	require.True(t, ok)
	assert.Equal(t, ref, after)
	assert.Equal(t, KindInt64, tbl.Get(after).Kind)

	// earlier refs keep observing the original entry
	assert.Equal(t, KindInt32, tbl.Get(before).Kind)
}
