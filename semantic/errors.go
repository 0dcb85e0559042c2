package semantic

import (
	"errors"
)

// Sentinel errors for every semantic failure class. Errors surfaced
// through the reporter wrap one of these, so callers can classify with
// errors.Is while still getting routine and argument attribution from
// the reporter.Context.
var (
	// ErrUnresolvedType is returned when a referenced type name is not
	// in the type table.
	ErrUnresolvedType = errors.New("unresolved type")
	// ErrDuplicateRoutineNumber is returned when two routines compute
	// the same request id.
	ErrDuplicateRoutineNumber = errors.New("duplicate routine number")
	// ErrArrayTooLarge is returned when a declared array bound cannot
	// be carried by the count field, or is zero.
	ErrArrayTooLarge = errors.New("array bound too large")
	// ErrMessageTooLarge is returned when a request or reply layout
	// exceeds the inline message ceiling, including the unbounded case
	// that would need out-of-line transfer.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrTypeMismatch is returned when an argument's resolved type is
	// incompatible with its declared role or flags.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrInvalidPortDisposition is returned when a capability argument
	// carries a disposition its role cannot use.
	ErrInvalidPortDisposition = errors.New("invalid port disposition")
)
