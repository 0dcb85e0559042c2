package semantic

import (
	"github.com/migbuild/migcompile/ast"
	"github.com/migbuild/migcompile/reporter"
	"github.com/migbuild/migcompile/walk"
)

// DefaultServerPrefix is prepended to server-stub function names when
// the subsystem declares no override.
const DefaultServerPrefix = "_X"

// Subsystem is the analyzed, immutable model of one subsystem. It is
// built once from the AST, read by every generator, and discarded after
// emission; nothing persists it.
type Subsystem struct {
	Name string
	Base uint32
	// Routines in declaration order. Reserved markers are not routines;
	// their consumed ids appear in ReservedIDs instead.
	Routines []*RoutineInfo
	// ReservedIDs are request ids explicitly removed from the numbering
	// by reserved-id markers. The generated demux rejects them.
	ReservedIDs []uint32
	// Imports are passed through to generated artifacts.
	Imports []ast.Import

	UserPrefix   string
	ServerPrefix string

	// Table is the subsystem's type table, seeded with built-ins and
	// frozen once analysis completes.
	Table *Table
}

// Analyze runs the full semantic pipeline on one subsystem: type
// resolution, routine analysis with implicit-argument synthesis and
// layout computation, then cross-cutting validation. Any failure means
// no model: callers never see a partially analyzed subsystem.
//
// The handler controls error aggregation; nil gets a default handler
// that fails on the first error.
func Analyze(sub *ast.Subsystem, h *reporter.Handler) (*Subsystem, error) {
	if h == nil {
		h = reporter.NewHandler(nil)
	}

	s := &Subsystem{
		Name:         sub.Name,
		Base:         sub.Base,
		ServerPrefix: DefaultServerPrefix,
		Table:        NewTable(),
	}
	ctx := reporter.Context{Subsystem: sub.Name}

	// Directives first: prefixes apply to every routine regardless of
	// where the statement appears.
	_ = walk.Statements(sub, func(stmt ast.Statement) error {
		switch stmt := stmt.(type) {
		case *ast.Prefix:
			if stmt.Kind == ast.UserPrefix {
				s.UserPrefix = stmt.Name
			} else {
				s.ServerPrefix = stmt.Name
			}
		case *ast.Import:
			s.Imports = append(s.Imports, *stmt)
		}
		return nil
	})

	// Resolve type declarations in order. Later declarations may
	// reference earlier ones; forward references are unresolved.
	err := walk.TypeDecls(sub, func(decl *ast.TypeDecl) error {
		if _, err := s.Table.ResolveTypeDecl(decl); err != nil {
			return h.HandleError(reporter.Error(ctx, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Analyze routines. Ordinals count reserved markers, so ids are a
	// pure function of (base, declaration position).
	err = walk.Routines(sub, func(ordinal uint32, r *ast.Routine) error {
		info, err := analyzeRoutine(s.Table, sub.Name, r, ordinal, sub.Base, s.UserPrefix, s.ServerPrefix, h)
		if err != nil {
			return err
		}
		s.Routines = append(s.Routines, info)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var ordinal uint32
	_ = walk.Statements(sub, func(stmt ast.Statement) error {
		switch stmt.(type) {
		case *ast.Routine:
			ordinal++
		case *ast.Reserved:
			s.ReservedIDs = append(s.ReservedIDs, sub.Base+ordinal)
			ordinal++
		}
		return nil
	})

	if err := validate(s, h); err != nil {
		return nil, err
	}
	if err := h.Error(); err != nil {
		return nil, err
	}
	return s, nil
}
