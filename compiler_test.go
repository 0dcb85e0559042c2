package migcompile_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/migbuild/migcompile"
	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/semantic"
)

func quietCompiler() *migcompile.Compiler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &migcompile.Compiler{Logger: log}
}

func arithAST(name string, base uint32) *ast.Subsystem {
	return &ast.Subsystem{
		Name: name,
		Base: base,
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

func TestCompileProducesAllArtifacts(t *testing.T) {
	t.Parallel()

	results, err := quietCompiler().Compile(context.Background(), arithAST("arith", 1000))
	require.NoError(t, err)
	require.Len(t, results, 1)

	var names []string
	for _, a := range results[0].Artifacts {
		names = append(names, a.Name)
		assert.NotEmpty(t, a.Content)
	}
	assert.Equal(t, []string{"arith.h", "arithUser.c", "arithServer.c", "arith.rs"}, names)
	assert.Equal(t, "arith", results[0].Subsystem.Name)
}

func TestCompileManySubsystems(t *testing.T) {
	t.Parallel()

	var subs []*ast.Subsystem
	for i := 0; i < 8; i++ {
		subs = append(subs, arithAST(fmt.Sprintf("svc%d", i), uint32(1000+100*i)))
	}
	c := quietCompiler()
	c.MaxParallelism = 4

	results, err := c.Compile(context.Background(), subs...)
	require.NoError(t, err)
	require.Len(t, results, 8)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("svc%d", i), r.Subsystem.Name, "results must keep input order")
	}
}

func TestCompileErrorAbortsEverything(t *testing.T) {
	t.Parallel()

	bad := &ast.Subsystem{
		Name: "broken",
		Base: 100,
		Statements: []ast.Statement{
			&ast.Routine{
				Name: "r",
				Args: []ast.Argument{
					{Name: "x", Direction: ast.In, Type: &ast.NamedType{Name: "missing_t"}},
				},
			},
		},
	}
	results, err := quietCompiler().Compile(context.Background(), arithAST("arith", 1000), bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, semantic.ErrUnresolvedType)
	assert.Nil(t, results)
}

func TestCompileNothing(t *testing.T) {
	t.Parallel()
	results, err := quietCompiler().Compile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestCompileCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := quietCompiler().Compile(ctx, arithAST("arith", 1000))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileDeterministic(t *testing.T) {
	t.Parallel()

	first, err := quietCompiler().Compile(context.Background(), arithAST("arith", 1000))
	require.NoError(t, err)
	second, err := quietCompiler().Compile(context.Background(), arithAST("arith", 1000))
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		for j := range first[i].Artifacts {
			a, b := first[i].Artifacts[j], second[i].Artifacts[j]
			if diff := cmp.Diff(string(a.Content), string(b.Content)); diff != "" {
				t.Errorf("artifact %s differs between runs (-first +second):\n%s", a.Name, diff)
			}
		}
	}
}

// The yaml cases describe subsystems plus snippets every artifact set
// must contain, so new backends and layout changes get cross-checked in
// one place.

type yamlSuite struct {
	Cases []yamlCase `yaml:"cases"`
}

type yamlCase struct {
	Name      string        `yaml:"name"`
	Subsystem yamlSubsystem `yaml:"subsystem"`
	Artifacts []string      `yaml:"artifacts"`
	Contains  []string      `yaml:"contains"`
}

type yamlSubsystem struct {
	Name     string        `yaml:"name"`
	Base     uint32        `yaml:"base"`
	Routines []yamlRoutine `yaml:"routines"`
}

type yamlRoutine struct {
	Name   string    `yaml:"name"`
	OneWay bool      `yaml:"oneway"`
	Args   []yamlArg `yaml:"args"`
}

type yamlArg struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
	Type string `yaml:"type"`
	Max  uint32 `yaml:"max"`
}

func (a yamlArg) direction(t *testing.T) ast.Direction {
	switch a.Dir {
	case "in":
		return ast.In
	case "out":
		return ast.Out
	case "inout":
		return ast.InOut
	case "requestport":
		return ast.RequestPort
	}
	t.Fatalf("unknown direction %q", a.Dir)
	return ast.In
}

func (a yamlArg) spec() ast.TypeSpec {
	if a.Max > 0 {
		return &ast.ArrayType{
			Elem: &ast.NamedType{Name: a.Type},
			Size: ast.ArraySize{Kind: ast.BoundedSize, N: a.Max},
		}
	}
	return &ast.NamedType{Name: a.Type}
}

func (s yamlSubsystem) build(t *testing.T) *ast.Subsystem {
	sub := &ast.Subsystem{Name: s.Name, Base: s.Base}
	for _, r := range s.Routines {
		routine := &ast.Routine{Name: r.Name}
		if r.OneWay {
			routine.Kind = ast.OneWay
		}
		for _, a := range r.Args {
			routine.Args = append(routine.Args, ast.Argument{
				Name:      a.Name,
				Direction: a.direction(t),
				Type:      a.spec(),
			})
		}
		sub.Statements = append(sub.Statements, routine)
	}
	return sub
}

func TestCompileYAMLCases(t *testing.T) {
	t.Parallel()

	raw, err := os.ReadFile("testdata/subsystems.yaml")
	require.NoError(t, err)

	var suite yamlSuite
	require.NoError(t, yaml.Unmarshal(raw, &suite))
	require.NotEmpty(t, suite.Cases)

	for _, tc := range suite.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			results, err := quietCompiler().Compile(context.Background(), tc.Subsystem.build(t))
			require.NoError(t, err)
			require.Len(t, results, 1)

			var names []string
			var all string
			for _, a := range results[0].Artifacts {
				names = append(names, a.Name)
				all += string(a.Content)
			}
			assert.Equal(t, tc.Artifacts, names)
			for _, snippet := range tc.Contains {
				assert.Contains(t, all, snippet)
			}
		})
	}
}
