package ast

// TypeSpec describes the shape of a declared or referenced type. The
// concrete types are *NamedType, *ArrayType, *PointerType, *StructType,
// and *StringType.
type TypeSpec interface {
	isTypeSpec()
}

// NamedType references another type by name. Resolution against the
// type table happens in the semantic package; an unknown name is a
// semantic error, not a parse error.
type NamedType struct {
	Name string
}

// ArrayType is an ordered sequence of one element type.
type ArrayType struct {
	Elem TypeSpec
	Size ArraySize
}

// ArraySizeKind classifies how an array's length is declared.
type ArraySizeKind int

const (
	// FixedSize arrays always carry exactly N elements.
	FixedSize ArraySizeKind = iota
	// BoundedSize arrays carry a runtime count of at most N elements.
	BoundedSize
	// UnboundedSize arrays have no declared maximum. They would require
	// out-of-line transfer, which the current wire policy rejects.
	UnboundedSize
)

// ArraySize is an array length declaration. N is meaningful for
// FixedSize and BoundedSize only.
type ArraySize struct {
	Kind ArraySizeKind
	N    uint32
}

// PointerType is an indirection through the receiver's address space.
type PointerType struct {
	Elem TypeSpec
}

// StructType is an inline aggregate with named fields.
type StructType struct {
	Fields []StructField
}

// StructField is one field of a StructType.
type StructField struct {
	Name string
	Type TypeSpec
}

// StringType is a bounded C string. Max of zero with Varying false is a
// semantic error; the wire policy requires a declared bound.
type StringType struct {
	Max     uint32
	Varying bool
}

func (*NamedType) isTypeSpec()   {}
func (*ArrayType) isTypeSpec()   {}
func (*PointerType) isTypeSpec() {}
func (*StructType) isTypeSpec()  {}
func (*StringType) isTypeSpec()  {}
