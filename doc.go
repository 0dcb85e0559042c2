// Package migcompile implements the semantic core of an interface
// compiler for capability-based message-passing RPC. It takes parsed
// subsystem definitions, resolves their types against a table of wire
// builtins, computes exact message layouts, validates routines, and
// drives pluggable generators that emit C client stubs, a C server
// skeleton with a table-driven demultiplexer, and Rust bindings.
//
// The entry point is the Compiler type in this package. The semantic
// package can also be used directly when only analysis is needed:
//
//	analyzed, err := semantic.Analyze(sub, nil)
//
// Subpackages:
//   - ast: the parsed form of subsystem definitions.
//   - walk: traversal helpers for the ast.
//   - reporter: error and warning collection during analysis.
//   - semantic: type resolution, layout computation, validation.
//   - codegen and its children: the output backends.
package migcompile
