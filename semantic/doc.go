// Package semantic turns a validated AST into the shared model consumed
// by every code generator: resolved types, deterministic message ids,
// and exact byte layouts for request and reply messages.
//
// Analysis of one subsystem is synchronous and side-effect-free. The
// only state is the type table, which is appended to while type
// declarations are resolved and is immutable afterwards. All analysis
// for a subsystem goes through Analyze; the resulting *Subsystem is
// never mutated by generators.
//
// Types are stored as indexes into the table's append-only arena rather
// than as owned recursive values, so self-referential type graphs (a
// struct holding a pointer to an array of itself) stay representable
// with bounded size.
package semantic
