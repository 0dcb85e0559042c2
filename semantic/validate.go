package semantic

import (
	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/reporter"
)

// validate enforces the cross-cutting invariants over a fully analyzed
// subsystem. Errors are routed through the handler so a permissive
// reporter can collect several before analysis gives up; any error
// still aborts generation for the whole subsystem.
func validate(s *Subsystem, h *reporter.Handler) error {
	seen := make(map[uint32]string, len(s.Routines))
	for _, id := range s.ReservedIDs {
		seen[id] = ""
	}

	for _, r := range s.Routines {
		ctx := reporter.Context{Subsystem: s.Name, Routine: r.Name}

		if prev, ok := seen[r.RequestID]; ok {
			if prev == "" {
				prev = "reserved marker"
			}
			if err := h.HandleError(reporter.Errorf(ctx, "%w: id %d already taken by %s",
				ErrDuplicateRoutineNumber, r.RequestID, prev)); err != nil {
				return err
			}
		}
		seen[r.RequestID] = r.Name

		for i := range r.Args {
			if err := validateArg(s, r, &r.Args[i], h); err != nil {
				return err
			}
		}

		if r.OneWay {
			for i := range r.Args {
				if r.Args[i].Direction.InReply() {
					argCtx := ctx
					argCtx.Argument = r.Args[i].Name
					if err := h.HandleError(reporter.Errorf(argCtx, "%w: one-way routine cannot carry %s argument",
						ErrTypeMismatch, r.Args[i].Direction)); err != nil {
						return err
					}
				}
			}
		}

		if r.Request.Size() > MaxMessageBytes {
			if err := h.HandleError(reporter.Errorf(ctx, "%w: request is %d bytes, ceiling is %d",
				ErrMessageTooLarge, r.Request.Size(), MaxMessageBytes)); err != nil {
				return err
			}
		}
		if r.Reply != nil && r.Reply.Size() > MaxMessageBytes {
			if err := h.HandleError(reporter.Errorf(ctx, "%w: reply is %d bytes, ceiling is %d",
				ErrMessageTooLarge, r.Reply.Size(), MaxMessageBytes)); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateArg(s *Subsystem, r *RoutineInfo, a *ArgInfo, h *reporter.Handler) error {
	ctx := reporter.Context{Subsystem: s.Name, Routine: r.Name, Argument: a.Name}
	rt := s.Table.Get(a.Type)

	if a.Direction.IsPortRole() {
		if !rt.IsCapability() {
			return h.HandleError(reporter.Errorf(ctx, "%w: %s argument must be a capability reference, got %s",
				ErrTypeMismatch, a.Direction, typeName(rt)))
		}
		// The request port is sent to, so its capability must permit
		// sending; a bare name or a receive transfer cannot.
		if a.Direction == ast.RequestPort {
			switch rt.Disposition {
			case DispMoveReceive, DispPortName:
				return h.HandleError(reporter.Errorf(ctx, "%w: request port cannot use %s",
					ErrInvalidPortDisposition, rt.Disposition.WireConstant()))
			}
		}
		return nil
	}

	if a.Flags.CountInOut && rt.Size.Kind != SizeVariableMax {
		return h.HandleError(reporter.Errorf(ctx, "%w: countinout flag on fixed-size type %s",
			ErrTypeMismatch, typeName(rt)))
	}

	switch rt.Size.Kind {
	case SizeVariableMax:
		if rt.Size.MaxElems == 0 {
			return h.HandleError(reporter.Errorf(ctx, "%w: declared maximum of zero elements",
				ErrArrayTooLarge))
		}
	case SizeIndefinite:
		// Unbounded data would need out-of-line transfer; the current
		// wire policy has none, so no ceiling can admit it.
		return h.HandleError(reporter.Errorf(ctx, "%w: %s has no inline bound (out-of-line transfer is not supported)",
			ErrMessageTooLarge, typeName(rt)))
	}
	return nil
}

func typeName(rt *ResolvedType) string {
	if rt.Name != "" {
		return rt.Name
	}
	switch {
	case rt.IsArray:
		return "inline array type"
	case rt.IsStruct:
		return "inline struct type"
	case rt.IsPointer:
		return "inline pointer type"
	}
	return "anonymous type"
}
