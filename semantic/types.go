package semantic

import (
	"github.com/migbuild/migcompile/ast"
)

// WireKind is the on-wire classification of a resolved type. It selects
// the type tag carried in the message's type descriptors.
type WireKind int

const (
	KindBool WireKind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindByte
	KindChar
	KindString
	// KindPort is a capability reference; its transfer semantics come
	// from the type's Disposition.
	KindPort
	// KindPolymorphic defers the type tag to runtime.
	KindPolymorphic
)

// WireConstant returns the descriptor tag constant emitted into
// generated code for this kind. Port kinds resolve through their
// disposition instead.
func (k WireKind) WireConstant() string {
	switch k {
	case KindBool:
		return "MACH_MSG_TYPE_BOOLEAN"
	case KindInt8:
		return "MACH_MSG_TYPE_INTEGER_8"
	case KindInt16:
		return "MACH_MSG_TYPE_INTEGER_16"
	case KindInt32:
		return "MACH_MSG_TYPE_INTEGER_32"
	case KindInt64:
		return "MACH_MSG_TYPE_INTEGER_64"
	case KindByte:
		return "MACH_MSG_TYPE_BYTE"
	case KindChar:
		return "MACH_MSG_TYPE_CHAR"
	case KindString:
		return "MACH_MSG_TYPE_STRING"
	case KindPolymorphic:
		return "MACH_MSG_TYPE_POLYMORPHIC"
	}
	return "MACH_MSG_TYPE_INTEGER_32"
}

// BitSize returns the descriptor element size in bits for this kind.
func (k WireKind) BitSize() int {
	switch k {
	case KindInt8, KindByte, KindChar, KindString:
		return 8
	case KindInt16:
		return 16
	case KindInt64:
		return 64
	}
	// bool, int32, port names and polymorphic slots are 32-bit words
	return 32
}

// Disposition is the transfer semantics of a capability reference. The
// enum is closed; every capability-typed argument resolves to exactly
// one of these (an unqualified generic capability defaults to
// DispCopySend).
type Disposition int

const (
	// DispNone marks a non-capability type.
	DispNone Disposition = iota
	// DispMoveReceive transfers the receive capability.
	DispMoveReceive
	// DispMoveSend transfers a send capability.
	DispMoveSend
	// DispMoveSendOnce transfers a send-once capability.
	DispMoveSendOnce
	// DispCopySend copies a send capability.
	DispCopySend
	// DispMakeSend mints a new send capability from a receive one.
	DispMakeSend
	// DispMakeSendOnce mints a new send-once capability.
	DispMakeSendOnce
	// DispPortName transfers the name only, no capability.
	DispPortName
	// DispPolymorphic resolves the disposition at runtime.
	DispPolymorphic
)

// WireConstant returns the descriptor tag constant for a capability
// with this disposition.
func (d Disposition) WireConstant() string {
	switch d {
	case DispMoveReceive:
		return "MACH_MSG_TYPE_MOVE_RECEIVE"
	case DispMoveSend:
		return "MACH_MSG_TYPE_MOVE_SEND"
	case DispMoveSendOnce:
		return "MACH_MSG_TYPE_MOVE_SEND_ONCE"
	case DispCopySend:
		return "MACH_MSG_TYPE_COPY_SEND"
	case DispMakeSend:
		return "MACH_MSG_TYPE_MAKE_SEND"
	case DispMakeSendOnce:
		return "MACH_MSG_TYPE_MAKE_SEND_ONCE"
	case DispPortName:
		return "MACH_MSG_TYPE_PORT_NAME"
	case DispPolymorphic:
		return "MACH_MSG_TYPE_POLYMORPHIC"
	}
	return "MACH_MSG_TYPE_PORT_NAME"
}

// SizeKind classifies how much wire space a type needs.
type SizeKind int

const (
	// SizeFixed types occupy a constant number of bytes.
	SizeFixed SizeKind = iota
	// SizeVariableMax types carry a runtime element count bounded by a
	// declared maximum; the maximum is reserved inline.
	SizeVariableMax
	// SizeIndefinite types have no inline bound. The current wire
	// policy has no out-of-line transfer, so these are rejected during
	// validation.
	SizeIndefinite
)

// Size is the wire-space classification of a resolved type.
type Size struct {
	Kind SizeKind
	// Bytes is the fixed size, or the reserved worst-case size for
	// SizeVariableMax. Zero for SizeIndefinite.
	Bytes int
	// MaxElems is the declared element bound for SizeVariableMax.
	MaxElems uint32
}

// Fixed constructs a fixed size of n bytes.
func Fixed(n int) Size { return Size{Kind: SizeFixed, Bytes: n} }

// VariableMax constructs a bounded variable size: up to maxElems
// elements of elemBytes each, reserved inline at worst case.
func VariableMax(elemBytes int, maxElems uint32) Size {
	return Size{Kind: SizeVariableMax, Bytes: elemBytes * int(maxElems), MaxElems: maxElems}
}

// Indefinite constructs the unbounded size.
func Indefinite() Size { return Size{Kind: SizeIndefinite} }

// TypeRef is an index into a Table's arena. Refs are only meaningful
// for the table that issued them.
type TypeRef int

// InvalidRef is the zero-value sentinel for "no type".
const InvalidRef TypeRef = -1

// ResolvedField is one field of a resolved struct type.
type ResolvedField struct {
	Name string
	Type TypeRef
}

// ResolvedType is one entry of the type table: a declared or built-in
// type with its wire representation fully determined. Entries are owned
// by the table and referenced by TypeRef everywhere else; they are
// never copied or mutated after insertion.
type ResolvedType struct {
	// Name as declared. Empty for anonymous types synthesized from
	// inline argument type specifications.
	Name string
	Kind WireKind
	// Disposition of a KindPort type; DispNone otherwise.
	Disposition Disposition
	Size        Size

	// CType is the native type name used in generated code. CUserType
	// and CServerType override it on one side when set.
	CType       string
	CUserType   string
	CServerType string

	// Marshaling hooks from type annotations. InTran converts received
	// values server-side; OutTran converts reply values client-side;
	// Destructor releases a translated value after the server
	// implementation returns.
	InTran     ast.Translation
	OutTran    ast.Translation
	Destructor string

	// Array shape. Elem is valid when IsArray is set.
	IsArray   bool
	Elem      TypeRef
	ArraySize ast.ArraySize

	// Struct shape. Alignment is the largest field alignment, used to
	// place the struct within a message body.
	IsStruct  bool
	Fields    []ResolvedField
	Alignment int

	// Pointer shape. Pointees are resolved lazily by index, which keeps
	// self-referential graphs representable.
	IsPointer bool
	Pointee   TypeRef

	Polymorphic bool
}

// Side selects the client (user) or server variant where a type
// annotation distinguishes them.
type Side int

const (
	SideUser Side = iota
	SideServer
)

// NativeType returns the native type name for the given side.
func (t *ResolvedType) NativeType(side Side) string {
	switch side {
	case SideUser:
		if t.CUserType != "" {
			return t.CUserType
		}
	case SideServer:
		if t.CServerType != "" {
			return t.CServerType
		}
	}
	if t.CType != "" {
		return t.CType
	}
	return t.Name
}

// IsCapability reports whether the type is a capability reference.
func (t *ResolvedType) IsCapability() bool { return t.Kind == KindPort }

// ElemBytes returns the wire size of one element: the element size for
// arrays and strings, or the type's own fixed size for scalars. Zero if
// the element is not fixed-size.
func (t *ResolvedType) ElemBytes(tbl *Table) int {
	if t.IsArray {
		elem := tbl.Get(t.Elem)
		if elem.Size.Kind == SizeFixed {
			return elem.Size.Bytes
		}
		return 0
	}
	if t.Kind == KindString {
		return 1
	}
	if t.Size.Kind == SizeFixed {
		return t.Size.Bytes
	}
	return 0
}
