package ast

// Subsystem is the root node for one interface definition file.
type Subsystem struct {
	// Name of the subsystem, used to derive artifact and symbol names.
	Name string
	// Base message id. Request ids are assigned as Base plus the
	// routine's ordinal position among routine and reserved statements.
	Base uint32
	// Statements in declaration order. Order is significant: it fixes
	// routine ordinals and therefore message ids.
	Statements []Statement
}

// Statement is a top-level declaration inside a subsystem. The concrete
// types are *TypeDecl, *Routine, *Import, *Prefix, and *Reserved.
type Statement interface {
	isStatement()
}

// TypeDecl declares a named type: its specification plus optional
// annotations that override the native type name or attach marshaling
// hooks.
type TypeDecl struct {
	Name        string
	Spec        TypeSpec
	Annotations Annotations
}

// Annotations carries per-type overrides. All fields are optional; the
// zero value means "no annotation".
type Annotations struct {
	// CType overrides the native type name used in generated code.
	CType string
	// CUserType and CServerType override CType on one side only.
	CUserType   string
	CServerType string
	// InTran names a translation function applied by the server stub to
	// a received value before the implementation sees it. OutTran is the
	// inverse, applied by the client stub to reply values.
	InTran  Translation
	OutTran Translation
	// Destructor names a function the server stub calls on a translated
	// value after the implementation returns.
	Destructor string
}

// Translation pairs the translated type name with the function that
// performs the translation. The zero value means no translation.
type Translation struct {
	Type string
	Func string
}

// IsZero reports whether no translation was declared.
func (t Translation) IsZero() bool { return t.Type == "" && t.Func == "" }

// RoutineKind distinguishes two-way routines, which have a reply
// message, from one-way routines, which do not.
type RoutineKind int

const (
	// TwoWay routines send a request and wait for a reply.
	TwoWay RoutineKind = iota
	// OneWay routines send a request and never receive a reply.
	OneWay
)

// Routine declares a remote procedure with ordered arguments.
type Routine struct {
	Name string
	Kind RoutineKind
	Args []Argument
}

// Argument is one declared routine argument.
type Argument struct {
	Name      string
	Direction Direction
	Type      TypeSpec
	Flags     ArgFlags
}

// Direction classifies how an argument travels between client and
// server, or which special message role it plays.
type Direction int

const (
	// In arguments travel only in the request.
	In Direction = iota
	// Out arguments travel only in the reply.
	Out
	// InOut arguments travel in both messages.
	InOut
	// RequestPort names the capability the request is sent to.
	RequestPort
	// ReplyPort names the capability the reply is sent to.
	ReplyPort
	// ServerReplyPort and UserReplyPort are one-sided reply port roles.
	ServerReplyPort
	UserReplyPort
	// WaitTime, MsgOption and MsgSeqno are metadata roles consumed by
	// the transport primitives rather than carried as message fields.
	WaitTime
	MsgOption
	MsgSeqno
)

// InRequest reports whether an argument with this direction occupies a
// field in the request message body.
func (d Direction) InRequest() bool { return d == In || d == InOut }

// InReply reports whether an argument with this direction occupies a
// field in the reply message body.
func (d Direction) InReply() bool { return d == Out || d == InOut }

// IsPortRole reports whether the direction is a special port role
// rather than a data direction.
func (d Direction) IsPortRole() bool {
	switch d {
	case RequestPort, ReplyPort, ServerReplyPort, UserReplyPort:
		return true
	}
	return false
}

// IsMetadataRole reports whether the direction is a transport metadata
// role (never a message field).
func (d Direction) IsMetadataRole() bool {
	switch d {
	case WaitTime, MsgOption, MsgSeqno:
		return true
	}
	return false
}

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	case InOut:
		return "inout"
	case RequestPort:
		return "requestport"
	case ReplyPort:
		return "replyport"
	case ServerReplyPort:
		return "sreplyport"
	case UserReplyPort:
		return "ureplyport"
	case WaitTime:
		return "waittime"
	case MsgOption:
		return "msgoption"
	case MsgSeqno:
		return "msgseqno"
	}
	return "unknown"
}

// DeallocMode records an explicit dealloc or notdealloc flag. The zero
// value means the flag was not written.
type DeallocMode int

const (
	DeallocDefault DeallocMode = iota
	Dealloc
	NotDealloc
)

// ArgFlags are the per-argument transfer flags.
type ArgFlags struct {
	Dealloc    DeallocMode
	ServerCopy bool
	CountInOut bool
	// Const marks the argument as read-only on the receiving side.
	Const bool
}

// Import passes a textual import directive through to generated
// artifacts. Which artifacts receive it depends on Kind.
type Import struct {
	Kind ImportKind
	File string
}

// ImportKind selects the artifacts an import is emitted into.
type ImportKind int

const (
	// ImportAll emits into both client and server artifacts.
	ImportAll ImportKind = iota
	// ImportUser emits only into client-side artifacts.
	ImportUser
	// ImportServer emits only into server-side artifacts.
	ImportServer
)

// PrefixKind selects which generated symbol family a Prefix statement
// applies to.
type PrefixKind int

const (
	// UserPrefix prefixes client-stub function names.
	UserPrefix PrefixKind = iota
	// ServerPrefix prefixes server-stub function names.
	ServerPrefix
)

// Prefix overrides a generated-name prefix for the subsystem.
type Prefix struct {
	Kind PrefixKind
	Name string
}

// Reserved marks an explicit gap in message-id numbering. It consumes
// one ordinal; no routine may occupy the corresponding id and the
// generated demux rejects it with a bad-id status.
type Reserved struct{}

func (*TypeDecl) isStatement() {}
func (*Routine) isStatement()  {}
func (*Import) isStatement()   {}
func (*Prefix) isStatement()   {}
func (*Reserved) isStatement() {}
