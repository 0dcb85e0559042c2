package semantic

import (
	"github.com/tidwall/btree"
)

// Wire geometry shared by every layout and every generated artifact.
// These are part of the external wire contract and must not drift
// between backends.
const (
	// HeaderBytes is the size of the fixed message header.
	HeaderBytes = 24
	// DescriptorBytes is the size of one inline type descriptor.
	DescriptorBytes = 8
	// CountFieldBytes is the size of a synthesized array count field
	// (one machine word on the wire ABI).
	CountFieldBytes = 4
	// MaxMessageBytes is the ceiling on total request or reply size for
	// inline transfer. Anything larger would need out-of-line transfer,
	// which the current wire policy rejects.
	MaxMessageBytes = 8192
	// ReplyIDOffset is added to a request id to form its reply id. This
	// numbering is relied on by transport peers and must never change.
	ReplyIDOffset = 100
)

// Table is the append-only type table for one subsystem: an arena of
// resolved types plus an ordered name index. A table is seeded with the
// built-in types and then grows as declarations resolve; entries are
// never removed or rewritten.
//
// Tables are not safe for concurrent mutation, but analysis of one
// subsystem is single-threaded and a finished table is read-only, so
// generators may share it freely.
type Table struct {
	arena  []ResolvedType
	byName btree.Map[string, TypeRef]
}

// NewTable returns a table seeded with the built-in primitive and
// capability-reference types.
func NewTable() *Table {
	t := &Table{}
	t.seedBuiltins()
	return t
}

// Lookup finds a type by name.
func (t *Table) Lookup(name string) (TypeRef, bool) {
	return t.byName.Get(name)
}

// Get returns the entry for ref. The pointer aliases the arena; callers
// must treat it as read-only.
func (t *Table) Get(ref TypeRef) *ResolvedType {
	return &t.arena[ref]
}

// Len returns the number of entries, built-ins included.
func (t *Table) Len() int {
	return len(t.arena)
}

// ScanNames visits every named entry in lexical name order. Iteration
// order is deterministic, which keeps generated output byte-identical
// across runs.
func (t *Table) ScanNames(fn func(name string, ref TypeRef) bool) {
	t.byName.Scan(fn)
}

// add appends an entry and indexes it if it has a name. A re-declared
// name points at the newest entry; earlier refs keep their meaning.
func (t *Table) add(rt ResolvedType) TypeRef {
	ref := TypeRef(len(t.arena))
	t.arena = append(t.arena, rt)
	if rt.Name != "" {
		t.byName.Set(rt.Name, ref)
	}
	return ref
}

func (t *Table) addPrimitive(name string, kind WireKind, ctype string, bytes int) {
	t.add(ResolvedType{
		Name:  name,
		Kind:  kind,
		CType: ctype,
		Size:  Fixed(bytes),
	})
}

func (t *Table) addPort(name string, disp Disposition, ctype string) {
	t.add(ResolvedType{
		Name:        name,
		Kind:        KindPort,
		Disposition: disp,
		CType:       ctype,
		// capability names are 32-bit on the wire
		Size:        Fixed(4),
		Polymorphic: disp == DispPolymorphic,
	})
}

// seedBuiltins installs the standard types every subsystem starts with.
// The set mirrors the standard interface prelude; user declarations may
// layer on top of these but the seed itself is identical for every
// subsystem.
func (t *Table) seedBuiltins() {
	t.addPrimitive("char", KindChar, "char", 1)
	t.addPrimitive("short", KindInt16, "short", 2)
	t.addPrimitive("int", KindInt32, "int", 4)
	t.addPrimitive("int32", KindInt32, "int32_t", 4)
	t.addPrimitive("int32_t", KindInt32, "int32_t", 4)
	t.addPrimitive("int64", KindInt64, "int64_t", 8)
	t.addPrimitive("int64_t", KindInt64, "int64_t", 8)
	t.addPrimitive("unsigned", KindInt32, "unsigned int", 4)
	t.addPrimitive("unsigned32", KindInt32, "uint32_t", 4)
	t.addPrimitive("unsigned64", KindInt64, "uint64_t", 8)

	t.addPrimitive("integer_8", KindInt8, "int8_t", 1)
	t.addPrimitive("integer_16", KindInt16, "int16_t", 2)
	t.addPrimitive("integer_32", KindInt32, "int32_t", 4)
	t.addPrimitive("integer_64", KindInt64, "int64_t", 8)

	t.addPrimitive("boolean_t", KindBool, "boolean_t", 4)

	t.addPrimitive("natural_t", KindInt32, "natural_t", 4)
	t.addPrimitive("integer_t", KindInt32, "integer_t", 4)

	// An unqualified generic capability defaults to copy-send.
	t.addPort("mach_port_t", DispCopySend, "mach_port_t")
	t.addPort("mach_port_name_t", DispPortName, "mach_port_t")
	t.addPort("mach_port_move_receive_t", DispMoveReceive, "mach_port_t")
	t.addPort("mach_port_copy_send_t", DispCopySend, "mach_port_t")
	t.addPort("mach_port_make_send_t", DispMakeSend, "mach_port_t")
	t.addPort("mach_port_move_send_t", DispMoveSend, "mach_port_t")
	t.addPort("mach_port_make_send_once_t", DispMakeSendOnce, "mach_port_t")
	t.addPort("mach_port_move_send_once_t", DispMoveSendOnce, "mach_port_t")
	t.addPort("mach_port_receive_t", DispMoveReceive, "mach_port_t")
	t.addPort("mach_port_send_t", DispMoveSend, "mach_port_t")
	t.addPort("mach_port_send_once_t", DispMoveSendOnce, "mach_port_t")
	t.addPort("mach_port_poly_t", DispPolymorphic, "mach_port_t")

	t.addPrimitive("kern_return_t", KindInt32, "kern_return_t", 4)
	t.addPrimitive("mach_msg_type_name_t", KindInt32, "mach_msg_type_name_t", 4)
	t.addPrimitive("mach_msg_type_number_t", KindInt32, "mach_msg_type_number_t", 4)
	t.addPrimitive("mach_msg_timeout_t", KindInt32, "mach_msg_timeout_t", 4)
	t.addPrimitive("mach_msg_option_t", KindInt32, "mach_msg_option_t", 4)
	t.addPrimitive("mach_port_seqno_t", KindInt32, "mach_port_seqno_t", 4)
}
