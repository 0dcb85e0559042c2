// Package reporter defines how semantic-analysis and code-generation
// errors are surfaced to callers. Errors carry routine and argument
// attribution; a caller-supplied Reporter decides whether an error is
// fatal to the subsystem or whether analysis should keep going to
// collect more diagnostics.
package reporter

import (
	"sync"
)

// ErrorReporter is responsible for reporting the given error. If the
// reporter returns a non-nil error, analysis of the subsystem aborts
// with that error. If it returns nil, analysis continues, allowing the
// analyzer to report as many semantic errors as it can find.
type ErrorReporter func(err ErrorWithContext) error

// WarningReporter is responsible for reporting the given warning:
// something that does not fail analysis but is considered bad practice.
// Though they are just warnings, the details are supplied via an error
// type.
type WarningReporter func(ErrorWithContext)

type Reporter interface {
	Error(ErrorWithContext) error
	Warning(ErrorWithContext)
}

func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(err ErrorWithContext) error {
	if r.errs == nil {
		return err
	}
	return r.errs(err)
}

func (r reporterFuncs) Warning(err ErrorWithContext) {
	if r.warnings != nil {
		r.warnings(err)
	}
}

// Handler wraps a Reporter, tracking whether any errors were reported
// and latching the first fatal one. A single Handler serves one
// subsystem's compilation; independent subsystems use independent
// Handlers.
type Handler struct {
	reporter Reporter

	mu           sync.Mutex
	errsReported bool
	err          error
}

// NewHandler creates a Handler for rep. A nil rep behaves as a default
// reporter that fails on the first error and ignores warnings.
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil, nil)
	}
	return &Handler{reporter: rep}
}

// HandleErrorf reports a formatted error attributed to ctx. It returns
// a non-nil error if the subsystem should abort.
func (h *Handler) HandleErrorf(ctx Context, format string, args ...any) error {
	return h.HandleError(Errorf(ctx, format, args...))
}

// HandleError reports err. If err is an ErrorWithContext it passes
// through the configured Reporter, which may swallow it; any other
// error is fatal as-is.
func (h *Handler) HandleError(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	if ewc, ok := err.(ErrorWithContext); ok {
		h.errsReported = true
		err = h.reporter.Error(ewc)
	}
	h.err = err
	return err
}

// HandleWarning reports a non-fatal diagnostic attributed to ctx.
func (h *Handler) HandleWarning(ctx Context, err error) {
	// no lock needed; warnings don't touch mutable fields
	h.reporter.Warning(Error(ctx, err))
}

// Error returns the error state of the handler: the latched fatal
// error, or ErrInvalidSubsystem if errors were reported but every one
// was swallowed by the reporter.
func (h *Handler) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errsReported && h.err == nil {
		return ErrInvalidSubsystem
	}
	return h.err
}
