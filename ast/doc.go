// Package ast defines the abstract syntax tree consumed by the semantic
// analyzer and the code generators.
//
// The tree is produced by an external front end (lexer, recursive-descent
// parser, conditional-compilation filter) and is assumed to be
// grammatically valid: every node is structurally complete, but names may
// still fail to resolve and declared bounds may still violate wire
// limits. Those checks belong to the semantic package.
//
// The root of the tree for one interface definition is a *Subsystem. A
// subsystem carries an ordered list of statements: type declarations,
// routine declarations (two-way or one-way), prefix directives, import
// directives passed through to generated text, and reserved-id markers
// that consume a message id without declaring a routine.
//
// Nodes are plain values. Once handed to the semantic analyzer they must
// not be mutated; nothing in this module ever writes to them.
package ast
