package cserver

import (
	"fmt"
	"strings"

	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/codegen"
	"github.com/migbuild/migcompile/semantic"
)

type fileTmplInput struct {
	Subsystem string
	Header    string
	Imports   []string
	Routines  []routineStub

	Base       uint32
	TableSize  int
	TableLines []string
}

type routineStub struct {
	Name           string
	ServerFunction string
	ImplFunction   string
	ImplParams     string
	OneWay         bool

	RequestFields []string
	ReplyFields   []string

	RequestSize int
	ReplySize   int

	CheckLines []string
	DeclLines  []string
	ImplArgs   string
	AfterLines []string
	PackLines  []string
}

func buildFile(sub *semantic.Subsystem) (fileTmplInput, error) {
	input := fileTmplInput{
		Subsystem: sub.Name,
		Header:    sub.Name + ".h",
		Base:      sub.Base,
	}
	for _, imp := range sub.Imports {
		if imp.Kind == ast.ImportAll || imp.Kind == ast.ImportServer {
			input.Imports = append(input.Imports, imp.File)
		}
	}
	for _, r := range sub.Routines {
		stub, err := buildRoutine(sub.Table, r)
		if err != nil {
			return fileTmplInput{}, err
		}
		input.Routines = append(input.Routines, stub)
	}
	input.TableSize, input.TableLines = dispatchTable(sub)
	return input, nil
}

// dispatchTable renders the (request-id - base) -> stub table. Reserved
// ids and numbering gaps hold a null entry, which the demux rejects
// with a bad-id status.
func dispatchTable(sub *semantic.Subsystem) (int, []string) {
	size := 0
	byOrdinal := map[uint32]*semantic.RoutineInfo{}
	for _, r := range sub.Routines {
		byOrdinal[r.Ordinal] = r
		if int(r.Ordinal)+1 > size {
			size = int(r.Ordinal) + 1
		}
	}
	for _, id := range sub.ReservedIDs {
		if int(id-sub.Base)+1 > size {
			size = int(id-sub.Base) + 1
		}
	}

	lines := make([]string, 0, size)
	for i := 0; i < size; i++ {
		if r, ok := byOrdinal[uint32(i)]; ok {
			lines = append(lines, fmt.Sprintf("%s,\t/* %d: %s */", r.ServerFunction, i, r.Name))
		} else {
			lines = append(lines, fmt.Sprintf("0,\t/* %d: reserved */", i))
		}
	}
	return size, lines
}

func buildRoutine(tbl *semantic.Table, r *semantic.RoutineInfo) (routineStub, error) {
	if err := codegen.CheckInline(r); err != nil {
		return routineStub{}, err
	}

	stub := routineStub{
		Name:           r.Name,
		ServerFunction: r.ServerFunction,
		ImplFunction:   r.ImplFunction,
		ImplParams:     strings.Join(implParams(tbl, r), ",\n\t"),
		OneWay:         r.OneWay,
		RequestSize:    r.Request.Size(),
	}
	if r.Reply != nil {
		stub.ReplySize = r.Reply.Size()
	}

	for i := range r.Request.Fields {
		stub.RequestFields = append(stub.RequestFields, codegen.CFieldDecl(tbl, &r.Request.Fields[i]))
	}
	if r.Reply != nil {
		for i := range r.Reply.Fields {
			stub.ReplyFields = append(stub.ReplyFields, codegen.CFieldDecl(tbl, &r.Reply.Fields[i]))
		}
	}

	stub.CheckLines = checkLines(tbl, r)
	decls, args, after := implCall(tbl, r)
	stub.DeclLines = decls
	stub.ImplArgs = strings.Join(args, ", ")
	stub.AfterLines = after
	stub.PackLines = packLines(tbl, r)
	return stub, nil
}

// implParams renders the prototype parameters of the user-supplied
// implementation function: port roles, then data arguments with their
// counts. Transport metadata roles never reach the implementation.
func implParams(tbl *semantic.Table, r *semantic.RoutineInfo) []string {
	var params []string
	for i := range r.Args {
		a := &r.Args[i]
		if a.Direction.IsMetadataRole() {
			continue
		}
		if a.Direction.IsPortRole() {
			params = append(params, "mach_port_t "+a.Name)
			continue
		}
		rt := tbl.Get(a.Type)
		switch {
		case a.Direction == ast.In && !rt.InTran.IsZero():
			// the implementation sees the translated type
			params = append(params, rt.InTran.Type+" "+a.Name)
		case a.Direction == ast.Out && !rt.OutTran.IsZero() && !rt.IsArray:
			params = append(params, rt.OutTran.Type+" *"+a.Name)
		default:
			params = append(params, codegen.CParam(tbl, a, semantic.SideServer))
		}
		if rt.Size.Kind == semantic.SizeVariableMax {
			cnt := "mach_msg_type_number_t " + a.Name + "Cnt"
			if a.Direction.InReply() || a.Flags.CountInOut {
				cnt = "mach_msg_type_number_t *" + a.Name + "Cnt"
			}
			params = append(params, cnt)
		}
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	return params
}

// checkLines validates every received descriptor against its expected
// constants and every received count against its declared maximum. Any
// mismatch makes the stub return MIG_BAD_ARGUMENTS before the
// implementation function is reached.
func checkLines(tbl *semantic.Table, r *semantic.RoutineInfo) []string {
	var lines []string
	bad := func(cond string) {
		lines = append(lines,
			"if ("+cond+") {",
			"\treturn MIG_BAD_ARGUMENTS;",
			"}")
	}
	for i := range r.Args {
		a := &r.Args[i]
		if !a.Direction.InRequest() {
			continue
		}
		rt := tbl.Get(a.Type)
		d := codegen.DescriptorFor(tbl, a.Type)
		p := "In0P->" + a.Name + "Type"

		bad(p + ".msgt_name != " + d.Tag)
		bad(fmt.Sprintf("%s.msgt_size != %d", p, d.BitSize))
		if d.Variable {
			cnt := "In0P->" + a.Name + "Cnt"
			// the declared maximum is a hard bound on received counts
			bad(fmt.Sprintf("%s > %d", cnt, rt.Size.MaxElems))
			bad(p + ".msgt_number != " + cnt)
		} else {
			bad(fmt.Sprintf("%s.msgt_number != %d", p, d.Number))
		}
		bad("!" + p + ".msgt_inline")
	}
	return lines
}

// implCall prepares the locals, the argument expressions, and the
// cleanup lines around the implementation call.
func implCall(tbl *semantic.Table, r *semantic.RoutineInfo) (decls, args, after []string) {
	for i := range r.Args {
		a := &r.Args[i]
		if a.Direction.IsMetadataRole() {
			continue
		}
		if a.Direction.IsPortRole() {
			if a.Direction == ast.RequestPort {
				args = append(args, "In0P->Head.msgh_local_port")
			} else {
				args = append(args, "In0P->Head.msgh_remote_port")
			}
			continue
		}

		rt := tbl.Get(a.Type)
		variable := rt.Size.Kind == semantic.SizeVariableMax

		switch {
		case a.Direction == ast.In && !rt.InTran.IsZero():
			conv := a.Name + "_conv"
			decls = append(decls, fmt.Sprintf("%s %s = %s(In0P->%s);", rt.InTran.Type, conv, rt.InTran.Func, a.Name))
			args = append(args, conv)
			if rt.Destructor != "" {
				after = append(after, rt.Destructor+"("+conv+");")
			}
		case a.Direction == ast.In && rt.IsStruct:
			native := rt.NativeType(semantic.SideServer)
			decls = append(decls, fmt.Sprintf("%s %s;", native, a.Name))
			decls = append(decls, fmt.Sprintf("memcpy(&%s, In0P->%s, %d);", a.Name, a.Name, rt.Size.Bytes))
			args = append(args, a.Name)
		case a.Direction == ast.In:
			args = append(args, "In0P->"+a.Name)
		case a.Direction == ast.InOut && (rt.IsArray || rt.Kind == semantic.KindString):
			// arrays decay to the element pointer the prototype expects
			args = append(args, "In0P->"+a.Name)
		case a.Direction == ast.InOut:
			args = append(args, "&In0P->"+a.Name)
		case a.Direction == ast.Out && (rt.IsArray || rt.Kind == semantic.KindString):
			decls = append(decls, outBufferDecl(tbl, rt, a.Name))
			args = append(args, a.Name)
		case a.Direction == ast.Out && !rt.OutTran.IsZero():
			decls = append(decls, fmt.Sprintf("%s %s;", rt.OutTran.Type, a.Name))
			args = append(args, "&"+a.Name)
		case a.Direction == ast.Out:
			decls = append(decls, fmt.Sprintf("%s %s;", rt.NativeType(semantic.SideServer), a.Name))
			args = append(args, "&"+a.Name)
		}

		if variable {
			switch {
			case a.Direction == ast.In:
				args = append(args, "In0P->"+a.Name+"Cnt")
			case a.Direction == ast.InOut:
				args = append(args, "&In0P->"+a.Name+"Cnt")
			default:
				decls = append(decls, fmt.Sprintf("mach_msg_type_number_t %sCnt = %d;", a.Name, rt.Size.MaxElems))
				args = append(args, "&"+a.Name+"Cnt")
			}
		}
	}
	return decls, args, after
}

func outBufferDecl(tbl *semantic.Table, rt *semantic.ResolvedType, name string) string {
	if rt.Kind == semantic.KindString {
		n := rt.Size.Bytes
		if rt.Size.Kind == semantic.SizeVariableMax {
			n = int(rt.Size.MaxElems)
		}
		return fmt.Sprintf("char %s[%d];", name, n)
	}
	elems := rt.ArraySize.N
	if rt.Size.Kind == semantic.SizeVariableMax {
		elems = rt.Size.MaxElems
	}
	return fmt.Sprintf("%s %s[%d];", tbl.Get(rt.Elem).NativeType(semantic.SideServer), name, elems)
}

// packLines fills the reply on success: descriptor constants first,
// then data copied out of the implementation's results. One-way
// routines have no reply and therefore no pack lines at all.
func packLines(tbl *semantic.Table, r *semantic.RoutineInfo) []string {
	if r.OneWay || r.Reply == nil {
		return nil
	}
	var lines []string
	for i := range r.Args {
		a := &r.Args[i]
		if !a.Direction.InReply() {
			continue
		}
		rt := tbl.Get(a.Type)
		d := codegen.DescriptorFor(tbl, a.Type)

		number := fmt.Sprintf("%d", d.Number)
		if d.Variable {
			if a.Direction == ast.InOut {
				number = "In0P->" + a.Name + "Cnt"
			} else {
				number = a.Name + "Cnt"
			}
		}

		p := "OutP->" + a.Name + "Type"
		lines = append(lines,
			p+".msgt_name = "+d.Tag+";",
			fmt.Sprintf("%s.msgt_size = %d;", p, d.BitSize),
			p+".msgt_number = "+number+";",
			p+".msgt_inline = TRUE;",
			p+".msgt_longform = FALSE;",
			p+".msgt_deallocate = FALSE;",
			p+".msgt_unused = 0;",
		)
		if d.Variable {
			lines = append(lines, "OutP->"+a.Name+"Cnt = "+number+";")
		}

		dst := "OutP->" + a.Name
		switch {
		case rt.IsArray, rt.Kind == semantic.KindString:
			elemBytes := 1
			if rt.IsArray {
				elemBytes = tbl.Get(rt.Elem).Size.Bytes
			}
			src := a.Name
			if a.Direction == ast.InOut {
				src = "In0P->" + a.Name
			}
			lines = append(lines, fmt.Sprintf("memcpy(%s, %s, %s * %d);", dst, src, number, elemBytes))
		case rt.IsStruct:
			lines = append(lines, fmt.Sprintf("memcpy(%s, &%s, %d);", dst, a.Name, rt.Size.Bytes))
		case a.Direction == ast.InOut:
			lines = append(lines, dst+" = In0P->"+a.Name+";")
		case !rt.OutTran.IsZero():
			lines = append(lines, dst+" = "+rt.OutTran.Func+"("+a.Name+");")
		default:
			lines = append(lines, dst+" = "+a.Name+";")
		}
	}
	return lines
}
