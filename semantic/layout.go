package semantic

// InlineThresholdBytes is the data size beyond which an array field is
// flagged as a candidate for out-of-line transfer. The flag is advisory
// only: no backend implements out-of-line transfer yet, and the
// validator rejects layouts that cannot fit inline.
const InlineThresholdBytes = 4096

// Field is one entry of a message layout: a type descriptor, a
// synthesized count field, or a data region. Fields occupy disjoint,
// monotonically increasing byte ranges.
type Field struct {
	// Name of the field in the generated message struct. Descriptors
	// are named <arg>Type and count fields <arg>Cnt.
	Name string
	// CType is the native type of the field in generated structs.
	CType string
	// Type is the resolved data type; InvalidRef for descriptors and
	// count fields.
	Type TypeRef
	// Offset from the start of the message, header included.
	Offset int
	// Bytes is the field's wire size. Variable-length data regions are
	// sized at their declared maximum (inline-only policy).
	Bytes int

	IsTypeDescriptor bool
	IsCountField     bool
	IsArray          bool
	// MaxElems is the declared element bound for variable-length data.
	MaxElems uint32
	// OutOfLineCandidate is set on data regions larger than
	// InlineThresholdBytes. Advisory only; see InlineThresholdBytes.
	OutOfLineCandidate bool
}

// Layout is the computed wire layout of one message side: ordered
// fields with offsets and the total size. Under the inline-only policy
// minimum and maximum size coincide, because variable-length data is
// reserved at its declared maximum rather than its observed length.
type Layout struct {
	Fields  []Field
	MinSize int
	MaxSize int
}

// Size returns the total message size. MinSize and MaxSize are equal
// under the current policy; Size is the one generators embed as the
// expected constant.
func (l *Layout) Size() int { return l.MaxSize }

// DataFields returns only the data regions, skipping descriptors and
// count fields.
func (l *Layout) DataFields() []Field {
	var out []Field
	for _, f := range l.Fields {
		if !f.IsTypeDescriptor && !f.IsCountField {
			out = append(out, f)
		}
	}
	return out
}

// align rounds off up to the next multiple of a.
func align(off, a int) int {
	if a <= 1 {
		return off
	}
	return (off + a - 1) / a * a
}

// scalarAlignment is the alignment of a scalar: its size, capped at 8.
func scalarAlignment(bytes int) int {
	switch {
	case bytes >= 8:
		return 8
	case bytes >= 4:
		return 4
	case bytes >= 2:
		return 2
	}
	return 1
}

// dataAlignment is the placement alignment of a data region: element
// alignment for arrays, byte alignment for strings, field-derived
// alignment for structs, scalar alignment otherwise.
func dataAlignment(tbl *Table, rt *ResolvedType) int {
	switch {
	case rt.IsArray:
		return scalarAlignment(tbl.Get(rt.Elem).Size.Bytes)
	case rt.IsStruct:
		if rt.Alignment > 0 {
			return rt.Alignment
		}
		return 1
	case rt.Kind == KindString:
		return 1
	}
	return scalarAlignment(rt.Size.Bytes)
}

// computeLayout turns one side's slot list into an ordered field list
// with byte offsets and a total size. Per slot it emits the 8-byte type
// descriptor, then the synthesized count field if the routine analyzer
// attached one, then the data region. Offsets satisfy
// offset(f[i]) = align(offset(f[i-1])+bytes(f[i-1]), alignment(f[i])).
func computeLayout(tbl *Table, slots []slot) *Layout {
	l := &Layout{}
	offset := HeaderBytes

	for i := 0; i < len(slots); i++ {
		s := slots[i]
		if s.isCount {
			// consumed together with its parent below
			continue
		}
		rt := tbl.Get(s.ref)

		// Descriptors are two 32-bit words.
		offset = align(offset, 4)
		l.Fields = append(l.Fields, Field{
			Name:             s.name + "Type",
			CType:            "mach_msg_type_t",
			Type:             InvalidRef,
			Offset:           offset,
			Bytes:            DescriptorBytes,
			IsTypeDescriptor: true,
		})
		offset += DescriptorBytes

		if i+1 < len(slots) && slots[i+1].isCount && slots[i+1].parent == s.name {
			i++
			offset = align(offset, 4)
			l.Fields = append(l.Fields, Field{
				Name:         s.name + "Cnt",
				CType:        "mach_msg_type_number_t",
				Type:         InvalidRef,
				Offset:       offset,
				Bytes:        CountFieldBytes,
				IsCountField: true,
				MaxElems:     rt.Size.MaxElems,
			})
			offset += CountFieldBytes
		}

		bytes := rt.Size.Bytes
		offset = align(offset, dataAlignment(tbl, rt))
		l.Fields = append(l.Fields, Field{
			Name:               s.name,
			CType:              rt.NativeType(SideUser),
			Type:               s.ref,
			Offset:             offset,
			Bytes:              bytes,
			IsArray:            rt.IsArray || rt.Kind == KindString,
			MaxElems:           rt.Size.MaxElems,
			OutOfLineCandidate: bytes > InlineThresholdBytes,
		})
		offset += bytes
	}

	total := align(offset, 4)
	l.MinSize = total
	l.MaxSize = total
	return l
}
