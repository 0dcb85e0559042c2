package rustbind

import (
	"fmt"
	"strings"

	"github.com/migbuild/migcompile/codegen"
	"github.com/migbuild/migcompile/semantic"
)

type fileTmplInput struct {
	Subsystem string
	ModName   string
	TraitName string
	Base      uint32
	Routines  []routineBind
}

type routineBind struct {
	Name          string
	ConstName     string
	RequestStruct string
	ReplyStruct   string
	RequestID     uint32
	ReplyID       uint32
	OneWay        bool

	RequestFields []string
	ReplyFields   []string

	FnParams    string
	SyncParams  string
	TraitParams string
	RetType     string

	PrepLines   []string
	InitFields  []string
	UnpackLines []string
	RetExpr     string
}

func buildFile(sub *semantic.Subsystem) (fileTmplInput, error) {
	input := fileTmplInput{
		Subsystem: sub.Name,
		ModName:   sub.Name,
		TraitName: pascal(sub.Name) + "Server",
		Base:      sub.Base,
	}
	for _, r := range sub.Routines {
		bind, err := buildRoutine(sub.Table, r)
		if err != nil {
			return fileTmplInput{}, err
		}
		input.Routines = append(input.Routines, bind)
	}
	return input, nil
}

func buildRoutine(tbl *semantic.Table, r *semantic.RoutineInfo) (routineBind, error) {
	if err := codegen.CheckInline(r); err != nil {
		return routineBind{}, err
	}

	bind := routineBind{
		Name:          r.Name,
		ConstName:     strings.ToUpper(r.Name),
		RequestStruct: pascal(r.Name) + "Request",
		ReplyStruct:   pascal(r.Name) + "Reply",
		RequestID:     r.RequestID,
		ReplyID:       r.ReplyID(),
		OneWay:        r.OneWay,
	}

	bind.RequestFields = structFields(tbl, r.Request)
	if r.Reply != nil {
		bind.ReplyFields = structFields(tbl, r.Reply)
	}

	params := []string{"port: &mut AsyncPort"}
	syncParams := []string{"port: PortName"}
	if !r.OneWay {
		// The blocking call receives the reply directly, so the caller
		// names the port the reply arrives on.
		syncParams = append(syncParams, "reply_port: PortName")
	}
	traitParams := []string{"&mut self"}
	var rets []string
	var retExprs []string
	for i := range r.Args {
		a := &r.Args[i]
		if a.Direction.IsPortRole() || a.Direction.IsMetadataRole() {
			continue
		}
		rt := tbl.Get(a.Type)
		if a.Direction.InRequest() {
			p := a.Name + ": " + paramType(tbl, rt)
			params = append(params, p)
			syncParams = append(syncParams, p)
			traitParams = append(traitParams, p)
		}
		if a.Direction.InReply() {
			rets = append(rets, returnType(tbl, rt))
			retExprs = append(retExprs, returnExpr(rt, a.Name))
		}
	}
	bind.FnParams = strings.Join(params, ", ")
	bind.SyncParams = strings.Join(syncParams, ", ")
	bind.TraitParams = strings.Join(traitParams, ", ")
	bind.RetType = tupleType(rets)
	bind.RetExpr = tupleExpr(retExprs)

	bind.PrepLines = prepLines(tbl, r)
	bind.InitFields = initFields(tbl, r)
	bind.UnpackLines = unpackLines(r, bind.ReplyStruct, bind.ConstName)
	return bind, nil
}

// structFields renders the #[repr(C)] body matching the message layout
// field for field, so the generated structs share bytes with the C side.
func structFields(tbl *semantic.Table, l *semantic.Layout) []string {
	fields := []string{"pub Head: MachMsgHeader,"}
	for i := range l.Fields {
		f := &l.Fields[i]
		switch {
		case f.IsTypeDescriptor:
			fields = append(fields, "pub "+f.Name+": MachMsgType,")
		case f.IsCountField:
			fields = append(fields, "pub "+f.Name+": u32,")
		default:
			fields = append(fields, "pub "+f.Name+": "+fieldType(tbl, tbl.Get(f.Type))+",")
		}
	}
	return fields
}

func scalarType(rt *semantic.ResolvedType) string {
	switch rt.Kind {
	case semantic.KindBool:
		return "u32"
	case semantic.KindInt8:
		return "i8"
	case semantic.KindInt16:
		return "i16"
	case semantic.KindInt32:
		return "i32"
	case semantic.KindInt64:
		return "i64"
	case semantic.KindByte, semantic.KindChar:
		return "u8"
	case semantic.KindPort, semantic.KindPolymorphic:
		return "PortName"
	}
	return "u32"
}

// fieldType is the in-message representation: arrays and strings occupy
// their declared maximum, structs travel as raw bytes.
func fieldType(tbl *semantic.Table, rt *semantic.ResolvedType) string {
	switch {
	case rt.IsArray:
		return fmt.Sprintf("[%s; %d]", scalarType(tbl.Get(rt.Elem)), maxElems(rt))
	case rt.Kind == semantic.KindString:
		return fmt.Sprintf("[u8; %d]", maxElems(rt))
	case rt.IsStruct:
		return fmt.Sprintf("[u8; %d]", rt.Size.Bytes)
	}
	return scalarType(rt)
}

func paramType(tbl *semantic.Table, rt *semantic.ResolvedType) string {
	switch {
	case rt.IsArray:
		return "&[" + scalarType(tbl.Get(rt.Elem)) + "]"
	case rt.Kind == semantic.KindString, rt.IsStruct:
		return "&[u8]"
	}
	return scalarType(rt)
}

func returnType(tbl *semantic.Table, rt *semantic.ResolvedType) string {
	switch {
	case rt.IsArray:
		return "Vec<" + scalarType(tbl.Get(rt.Elem)) + ">"
	case rt.Kind == semantic.KindString, rt.IsStruct:
		return "Vec<u8>"
	}
	return scalarType(rt)
}

func returnExpr(rt *semantic.ResolvedType, name string) string {
	switch {
	case rt.IsArray, rt.Kind == semantic.KindString:
		if rt.Size.Kind == semantic.SizeVariableMax {
			return fmt.Sprintf("reply.%s[..reply.%sCnt as usize].to_vec()", name, name)
		}
		return "reply." + name + ".to_vec()"
	case rt.IsStruct:
		return "reply." + name + ".to_vec()"
	}
	return "reply." + name
}

func tupleType(parts []string) string {
	switch len(parts) {
	case 0:
		return "()"
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func tupleExpr(parts []string) string {
	switch len(parts) {
	case 0:
		return "()"
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func maxElems(rt *semantic.ResolvedType) uint32 {
	if rt.Size.Kind == semantic.SizeVariableMax {
		return rt.Size.MaxElems
	}
	if rt.IsArray {
		return rt.ArraySize.N
	}
	return uint32(rt.Size.Bytes)
}

// prepLines validates bounded lengths and stages slice arguments into
// fixed-size buffers before the request struct is built.
func prepLines(tbl *semantic.Table, r *semantic.RoutineInfo) []string {
	var lines []string
	for i := range r.Args {
		a := &r.Args[i]
		if !a.Direction.InRequest() || a.Direction.IsPortRole() || a.Direction.IsMetadataRole() {
			continue
		}
		rt := tbl.Get(a.Type)
		if !rt.IsArray && rt.Kind != semantic.KindString && !rt.IsStruct {
			continue
		}
		max := maxElems(rt)
		if rt.Size.Kind == semantic.SizeVariableMax {
			lines = append(lines,
				fmt.Sprintf("if %s.len() > %d {", a.Name, max),
				fmt.Sprintf("\treturn Err(IpcError::ArrayTooLarge { actual: %s.len(), max: %d });", a.Name, max),
				"}")
		} else {
			lines = append(lines,
				fmt.Sprintf("if %s.len() != %d {", a.Name, max),
				fmt.Sprintf("\treturn Err(IpcError::InvalidMessage(format!(\"%s: expected %d elements, got {}\", %s.len())));", a.Name, max, a.Name),
				"}")
		}
		zero := "0u8"
		if rt.IsArray {
			zero = "0" + scalarType(tbl.Get(rt.Elem))
		}
		lines = append(lines,
			fmt.Sprintf("let mut %s_buf = [%s; %d];", a.Name, zero, max),
			fmt.Sprintf("%s_buf[..%s.len()].copy_from_slice(%s);", a.Name, a.Name, a.Name))
	}
	return lines
}

// initFields renders the request struct literal, one line per layout
// field after the header.
func initFields(tbl *semantic.Table, r *semantic.RoutineInfo) []string {
	// Descriptor and count fields carry no type of their own; their
	// constants come from the data field they describe.
	dataTypes := make(map[string]semantic.TypeRef, len(r.Request.Fields))
	for i := range r.Request.Fields {
		f := &r.Request.Fields[i]
		if !f.IsTypeDescriptor && !f.IsCountField {
			dataTypes[f.Name] = f.Type
		}
	}

	var lines []string
	for i := range r.Request.Fields {
		f := &r.Request.Fields[i]
		switch {
		case f.IsTypeDescriptor:
			arg := strings.TrimSuffix(f.Name, "Type")
			d := codegen.DescriptorFor(tbl, dataTypes[arg])
			number := fmt.Sprintf("%d", d.Number)
			if d.Variable {
				number = arg + ".len() as u32"
			}
			lines = append(lines, fmt.Sprintf("%s: MachMsgType::new_inline(%s, %d, %s),", f.Name, d.Tag, d.BitSize, number))
		case f.IsCountField:
			arg := strings.TrimSuffix(f.Name, "Cnt")
			lines = append(lines, fmt.Sprintf("%s: %s.len() as u32,", f.Name, arg))
		default:
			rt := tbl.Get(f.Type)
			if rt.IsArray || rt.Kind == semantic.KindString || rt.IsStruct {
				lines = append(lines, fmt.Sprintf("%s: %s_buf,", f.Name, f.Name))
			} else {
				lines = append(lines, f.Name+",")
			}
		}
	}
	return lines
}

func unpackLines(r *semantic.RoutineInfo, replyStruct, constName string) []string {
	if r.OneWay {
		return nil
	}
	return []string{
		fmt.Sprintf("if bytes.len() < core::mem::size_of::<%s>() {", replyStruct),
		"\treturn Err(IpcError::InvalidMessage(format!(\"short reply: {} bytes\", bytes.len())));",
		"}",
		fmt.Sprintf("let reply: %s = unsafe { core::ptr::read(bytes.as_ptr() as *const %s) };", replyStruct, replyStruct),
		fmt.Sprintf("if reply.Head.msgh_id != %s_REPLY_ID {", constName),
		"\treturn Err(IpcError::InvalidMessage(format!(\"unexpected reply id {}\", reply.Head.msgh_id)));",
		"}",
		"KernReturn(reply.RetCode).to_result()?;",
	}
}

// pascal converts snake_case identifiers to PascalCase type names.
func pascal(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
