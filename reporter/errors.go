package reporter

import (
	"errors"
	"fmt"
)

// ErrInvalidSubsystem is a sentinel error returned when semantic
// analysis encountered errors but the configured ErrorReporter chose to
// swallow every one of them (returned nil so analysis could keep
// visiting routines).
var ErrInvalidSubsystem = errors.New("analysis failed: invalid subsystem")

// Context locates an error within a subsystem. Source line and column
// attribution belongs to the front end; by the time the AST reaches
// this module the only stable coordinates are the routine and argument
// names.
type Context struct {
	// Subsystem is the name of the subsystem being analyzed.
	Subsystem string
	// Routine is the offending routine, if the error is attributable to
	// one.
	Routine string
	// Argument is the offending argument, if any.
	Argument string
}

func (c Context) String() string {
	s := c.Subsystem
	if c.Routine != "" {
		s += ": routine " + c.Routine
	}
	if c.Argument != "" {
		s += ", argument " + c.Argument
	}
	return s
}

// ErrorWithContext is an error about an interface definition that
// includes the routine and argument it is attributable to.
//
// The value of Error() contains both the Context and the underlying
// error. The value of Unwrap() is only the underlying error.
type ErrorWithContext interface {
	error
	Context() Context
	Unwrap() error
}

// Error wraps err with ctx.
func Error(ctx Context, err error) ErrorWithContext {
	return errorWithContext{ctx: ctx, underlying: err}
}

// Errorf formats a new error carrying ctx.
func Errorf(ctx Context, format string, args ...any) ErrorWithContext {
	return errorWithContext{ctx: ctx, underlying: fmt.Errorf(format, args...)}
}

type errorWithContext struct {
	underlying error
	ctx        Context
}

func (e errorWithContext) Error() string {
	return fmt.Sprintf("%s: %v", e.ctx, e.underlying)
}

func (e errorWithContext) Context() Context {
	return e.ctx
}

func (e errorWithContext) Unwrap() error {
	return e.underlying
}

var _ ErrorWithContext = errorWithContext{}
