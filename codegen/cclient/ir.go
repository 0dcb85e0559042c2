package cclient

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
}

type routineStub struct {
	Name         string
	UserFunction string
	Params       string
	OneWay       bool

	RequestFields []string
	ReplyFields   []string

	RequestID   uint32
	RequestSize int
	ReplySize   int

	ServerPort string
	Timeout    string
	Options    string

	PackLines   []string
	UnpackLines []string
}

// buildRoutine precomputes every per-routine fragment the template
// interpolates. All values derive from the shared layouts, so the
// emitted constants agree with the other backends by construction.
func buildRoutine(tbl *semantic.Table, r *semantic.RoutineInfo) (routineStub, error) {
	if err := codegen.CheckInline(r); err != nil {
		return routineStub{}, err
	}

	stub := routineStub{
		Name:         r.Name,
		UserFunction: r.UserFunction,
		Params:       strings.Join(codegen.ParamList(tbl, r, semantic.SideUser), ",\n\t"),
		OneWay:       r.OneWay,
		RequestID:    r.RequestID,
		RequestSize:  r.Request.Size(),
		ServerPort:   "MACH_PORT_NULL",
		Timeout:      "MACH_MSG_TIMEOUT_NONE",
		Options:      "MACH_SEND_MSG | MACH_RCV_MSG",
	}
	if r.OneWay {
		stub.Options = "MACH_SEND_MSG"
	}
	if r.Reply != nil {
		stub.ReplySize = r.Reply.Size()
	}

	for i := range r.Args {
		a := &r.Args[i]
		switch a.Direction {
		case ast.RequestPort:
			stub.ServerPort = a.Name
		case ast.WaitTime:
			stub.Timeout = a.Name
			stub.Options += " | MACH_SEND_TIMEOUT"
		case ast.MsgOption:
			stub.Options += " | " + a.Name
		}
	}
	if stub.ServerPort == "MACH_PORT_NULL" && len(r.Args) > 0 {
		// convention: the first argument names the destination
		stub.ServerPort = r.Args[0].Name
	}

	for i := range r.Request.Fields {
		stub.RequestFields = append(stub.RequestFields, codegen.CFieldDecl(tbl, &r.Request.Fields[i]))
	}
	if r.Reply != nil {
		for i := range r.Reply.Fields {
			stub.ReplyFields = append(stub.ReplyFields, codegen.CFieldDecl(tbl, &r.Reply.Fields[i]))
		}
	}

	stub.PackLines = packLines(tbl, r)
	stub.UnpackLines = unpackLines(tbl, r)
	return stub, nil
}

// packLines assigns the request's descriptor constants, count fields,
// and data regions from the caller's arguments.
func packLines(tbl *semantic.Table, r *semantic.RoutineInfo) []string {
	var lines []string
	for i := range r.Args {
		a := &r.Args[i]
		if !a.Direction.InRequest() {
			continue
		}
		rt := tbl.Get(a.Type)
		d := codegen.DescriptorFor(tbl, a.Type)

		number := fmt.Sprintf("%d", d.Number)
		if d.Variable {
			number = a.Name + "Cnt"
			if a.Direction.InReply() || a.Flags.CountInOut {
				number = "*" + a.Name + "Cnt"
			}
		}
		dealloc := "FALSE"
		if a.Flags.Dealloc == ast.Dealloc {
			dealloc = "TRUE"
		}

		p := "Mess.In." + a.Name + "Type"
		lines = append(lines,
			p+".msgt_name = "+d.Tag+";",
			fmt.Sprintf("%s.msgt_size = %d;", p, d.BitSize),
			p+".msgt_number = "+number+";",
			p+".msgt_inline = TRUE;",
			p+".msgt_longform = FALSE;",
			p+".msgt_deallocate = "+dealloc+";",
			p+".msgt_unused = 0;",
		)
		if d.Variable {
			lines = append(lines, "Mess.In."+a.Name+"Cnt = "+number+";")
		}
		lines = append(lines, packData(tbl, rt, a, number)...)
	}
	return lines
}

func packData(tbl *semantic.Table, rt *semantic.ResolvedType, a *semantic.ArgInfo, count string) []string {
	dst := "Mess.In." + a.Name
	switch {
	case rt.IsArray:
		elemBytes := tbl.Get(rt.Elem).Size.Bytes
		n := fmt.Sprintf("%d", rt.ArraySize.N)
		if rt.Size.Kind == semantic.SizeVariableMax {
			n = count
		}
		return []string{fmt.Sprintf("memcpy(%s, %s, %s * %d);", dst, a.Name, n, elemBytes)}
	case rt.Kind == semantic.KindString:
		n := fmt.Sprintf("%d", rt.Size.Bytes)
		if rt.Size.Kind == semantic.SizeVariableMax {
			n = count
		}
		return []string{fmt.Sprintf("memcpy(%s, %s, %s);", dst, a.Name, n)}
	case rt.IsStruct:
		return []string{fmt.Sprintf("memcpy(%s, &%s, %d);", dst, a.Name, rt.Size.Bytes)}
	}
	return []string{dst + " = " + a.Name + ";"}
}

// unpackLines copies reply fields back into the caller's output
// parameters, applying any out-translation hook on the way.
func unpackLines(tbl *semantic.Table, r *semantic.RoutineInfo) []string {
	if r.OneWay {
		return nil
	}
	var lines []string
	for i := range r.Args {
		a := &r.Args[i]
		if !a.Direction.InReply() {
			continue
		}
		rt := tbl.Get(a.Type)
		src := "Mess.Out." + a.Name

		switch {
		case rt.IsArray, rt.Kind == semantic.KindString:
			elemBytes := tbl.Get(rt.Elem).Size.Bytes
			if rt.Kind == semantic.KindString {
				elemBytes = 1
			}
			if rt.Size.Kind == semantic.SizeVariableMax {
				cnt := "Mess.Out." + a.Name + "Cnt"
				lines = append(lines,
					fmt.Sprintf("memcpy(%s, %s, %s * %d);", a.Name, src, cnt, elemBytes),
					"*"+a.Name+"Cnt = "+cnt+";")
			} else {
				lines = append(lines,
					fmt.Sprintf("memcpy(%s, %s, %d);", a.Name, src, rt.Size.Bytes))
			}
		case rt.IsStruct:
			lines = append(lines, fmt.Sprintf("memcpy(%s, &%s, %d);", a.Name, src, rt.Size.Bytes))
		case !rt.OutTran.IsZero():
			lines = append(lines, fmt.Sprintf("*%s = %s(%s);", a.Name, rt.OutTran.Func, src))
		default:
			lines = append(lines, "*"+a.Name+" = "+src+";")
		}
	}
	return lines
}
