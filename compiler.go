package migcompile

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/codegen"
	"github.com/migbuild/migcompile/codegen/cclient"
	"github.com/migbuild/migcompile/codegen/cdecl"
	"github.com/migbuild/migcompile/codegen/cserver"
	"github.com/migbuild/migcompile/codegen/rustbind"
	"github.com/migbuild/migcompile/reporter"
	"github.com/migbuild/migcompile/semantic"
)

// Artifact is one generated output file for a subsystem.
type Artifact struct {
	Name    string
	Content []byte
}

// Result holds the analyzed form of a subsystem along with every
// artifact produced for it. A subsystem either yields all of its
// artifacts or none.
type Result struct {
	Subsystem *semantic.Subsystem
	Artifacts []Artifact
}

// DefaultGenerators returns the full set of output backends: the C
// declarations header, the C client stubs, the C server skeleton, and
// the Rust bindings.
func DefaultGenerators() []codegen.Generator {
	return []codegen.Generator{
		cdecl.New(),
		cclient.New(),
		cserver.New(),
		rustbind.New(),
	}
}

// Compiler turns parsed subsystem definitions into generated source
// artifacts. The compilation of each subsystem involves three steps:
//  1. Resolving type declarations against the builtin type table.
//  2. Analyzing routines into validated message layouts.
//  3. Running each configured generator over the analyzed subsystem.
type Compiler struct {
	// The generators to run. If nil, DefaultGenerators() is used.
	Generators []codegen.Generator
	// The maximum parallelism to use when compiling. If unspecified or
	// set to a non-positive value, then min(runtime.NumCPU(),
	// runtime.GOMAXPROCS(-1)) will be used.
	MaxParallelism int
	// A custom error and warning reporter. If unspecified a default
	// reporter is used. A default reporter fails the compilation after
	// encountering any errors and ignores all warnings.
	Reporter reporter.Reporter
	// Destination for trace output. If nil, the logrus standard logger
	// is used.
	Logger *logrus.Logger
}

// Compile analyzes the given subsystems and runs the configured
// generators over each. Results are returned in input order. The first
// failure cancels the remaining work.
func (c *Compiler) Compile(ctx context.Context, subsystems ...*ast.Subsystem) ([]*Result, error) {
	if len(subsystems) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	par := c.MaxParallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(-1)
		cpus := runtime.NumCPU()
		if par > cpus {
			par = cpus
		}
	}

	gens := c.Generators
	if gens == nil {
		gens = DefaultGenerators()
	}
	log := c.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	e := executor{
		sem:    semaphore.NewWeighted(int64(par)),
		rep:    c.Reporter,
		gens:   gens,
		log:    log,
		cancel: cancel,
	}

	results := make([]*result, len(subsystems))
	for i, sub := range subsystems {
		results[i] = e.compile(ctx, sub)
	}

	out := make([]*Result, len(subsystems))
	for i, r := range results {
		select {
		case <-r.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if r.err != nil {
			return nil, r.err
		}
		out[i] = r.res
	}

	return out, nil
}

type result struct {
	ready chan struct{}
	res   *Result
	err   error
}

func (r *result) fail(err error) {
	r.err = err
	close(r.ready)
}

func (r *result) complete(res *Result) {
	r.res = res
	close(r.ready)
}

type executor struct {
	sem    *semaphore.Weighted
	rep    reporter.Reporter
	gens   []codegen.Generator
	log    *logrus.Logger
	cancel context.CancelFunc
}

func (e *executor) compile(ctx context.Context, sub *ast.Subsystem) *result {
	r := &result{ready: make(chan struct{})}
	go func() {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			r.fail(err)
			e.cancel()
			return
		}
		defer e.sem.Release(1)

		res, err := e.doCompile(ctx, sub)
		if err != nil {
			r.fail(err)
			e.cancel()
			return
		}
		r.complete(res)
	}()
	return r
}

func (e *executor) doCompile(ctx context.Context, sub *ast.Subsystem) (*Result, error) {
	h := reporter.NewHandler(e.rep)

	e.log.WithFields(logrus.Fields{
		"subsystem": sub.Name,
		"base":      sub.Base,
	}).Debug("analyzing subsystem")

	analyzed, err := semantic.Analyze(sub, h)
	if err != nil {
		return nil, err
	}

	res := &Result{Subsystem: analyzed}
	for _, g := range e.gens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := g.Name(analyzed)
		content, err := g.Generate(analyzed)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", sub.Name, name, err)
		}
		e.log.WithFields(logrus.Fields{
			"subsystem": sub.Name,
			"artifact":  name,
			"bytes":     len(content),
		}).Debug("generated artifact")
		res.Artifacts = append(res.Artifacts, Artifact{Name: name, Content: content})
	}
	return res, nil
}
