package semantic

import (
	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/reporter"
)

// ArgInfo pairs a declared argument with its resolved type.
type ArgInfo struct {
	ast.Argument
	Type TypeRef
}

// RoutineInfo is one fully analyzed routine: identifiers, resolved
// arguments, and the computed request and reply layouts.
type RoutineInfo struct {
	Name string
	AST  *ast.Routine
	// Ordinal is the routine's position among routine and reserved
	// statements, in declaration order.
	Ordinal uint32
	// RequestID is Base + Ordinal. Ids are a pure function of those two
	// values; there is no mutable counter anywhere in analysis.
	RequestID uint32
	OneWay    bool
	Args      []ArgInfo
	Request   *Layout
	// Reply is nil for one-way routines; they produce no reply layout
	// at all.
	Reply *Layout

	// Generated function names.
	UserFunction   string
	ServerFunction string
	ImplFunction   string
}

// ReplyID returns the reply message id. The offset is a wire contract
// shared with transport peers. Only meaningful for two-way routines.
func (r *RoutineInfo) ReplyID() uint32 { return r.RequestID + ReplyIDOffset }

// slot is one message-body position before layout: a data argument, a
// synthesized count field, or the synthesized return code.
type slot struct {
	name   string
	ref    TypeRef
	arg    *ast.Argument
	isCount bool
	// parent names the data slot a count slot belongs to.
	parent string
}

// analyzeRoutine resolves a routine's argument types, synthesizes the
// implicit arguments (a count for every variable-length array, the
// reply's return code), and computes both layouts.
func analyzeRoutine(tbl *Table, sub string, r *ast.Routine, ordinal, base uint32, userPrefix, serverPrefix string, h *reporter.Handler) (*RoutineInfo, error) {
	info := &RoutineInfo{
		Name:           r.Name,
		AST:            r,
		Ordinal:        ordinal,
		RequestID:      base + ordinal,
		OneWay:         r.Kind == ast.OneWay,
		UserFunction:   userPrefix + r.Name,
		ServerFunction: serverPrefix + r.Name,
		ImplFunction:   r.Name + "_impl",
	}

	for i := range r.Args {
		arg := &r.Args[i]
		ref, err := tbl.resolveSpec(arg.Type)
		if err != nil {
			ctx := reporter.Context{Subsystem: sub, Routine: r.Name, Argument: arg.Name}
			if err := h.HandleError(reporter.Error(ctx, err)); err != nil {
				return nil, err
			}
			continue
		}
		info.Args = append(info.Args, ArgInfo{Argument: *arg, Type: ref})
	}
	if err := h.Error(); err != nil {
		return nil, err
	}

	info.Request = computeLayout(tbl, requestSlots(tbl, info.Args))
	if !info.OneWay {
		info.Reply = computeLayout(tbl, replySlots(tbl, info.Args))
	}
	return info, nil
}

// requestSlots selects the request-side arguments and inserts a count
// slot directly after each variable-length one. The count rides between
// the argument's type descriptor and its data region.
func requestSlots(tbl *Table, args []ArgInfo) []slot {
	var slots []slot
	for i := range args {
		a := &args[i]
		if !a.Direction.InRequest() {
			continue
		}
		slots = appendDataSlot(tbl, slots, a)
	}
	return slots
}

// replySlots builds the reply side: the synthesized return code first,
// then every reply-direction argument.
func replySlots(tbl *Table, args []ArgInfo) []slot {
	retRef, _ := tbl.Lookup("kern_return_t")
	slots := []slot{{name: "RetCode", ref: retRef}}
	for i := range args {
		a := &args[i]
		if !a.Direction.InReply() {
			continue
		}
		slots = appendDataSlot(tbl, slots, a)
	}
	return slots
}

func appendDataSlot(tbl *Table, slots []slot, a *ArgInfo) []slot {
	slots = append(slots, slot{name: a.Name, ref: a.Type, arg: &a.Argument})
	if tbl.Get(a.Type).Size.Kind == SizeVariableMax {
		countRef, _ := tbl.Lookup("mach_msg_type_number_t")
		slots = append(slots, slot{
			name:    a.Name + "Cnt",
			ref:     countRef,
			isCount: true,
			parent:  a.Name,
		})
	}
	return slots
}
