// Package queryast defines the closed abstract syntax tree that the
// synthesizer enumerates and the translator renders to SQL.
//
// SORTS:
//
// Every node belongs to exactly one of three syntactic sorts:
//
//	Query   a relation        TableRef, Select, OrderBy, Limit, Project,
//	                          Join, Union, With
//	Expr    a scalar/vector   ColumnRef, Constant, Distance, Cast, Aggregate
//	Filter  a boolean         Predicate, And, Or, Not, IsNull
//
// The grammar capabilities "orderable" and "limitable" are properties of
// the enumerator's production table, not Go types. Any Query may appear as
// the source of an OrderBy or a Limit once it has been built.
//
// SEALED INTERFACES:
//
// Query, Expr, and Filter are sealed with marker methods; only types in
// this package implement them. Consumers switch exhaustively:
//
//	switch q := query.(type) {
//	case *TableRef:
//	case *Select:
//	case *OrderBy:
//	...
//	}
//
// IMMUTABILITY:
//
// Nodes are built once and never mutated. Subtrees may be shared between
// many parent trees (the enumerator memoizes child lists and reuses them),
// so code holding a node MUST NOT write to its fields or slices.
//
// Trees are finite and acyclic. Every node is a pointer type so identity
// comparisons and sharing are cheap.
package queryast
