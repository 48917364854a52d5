// Package dag holds the dependency graph between processing steps. Nodes
// are step names carrying their declaration order; an edge from a to b
// means b reads a variable that a writes.
//
// The graph rejects self edges, reports cycles with the steps involved and
// produces a deterministic topological order in which ties are broken by
// declaration order.
package dag
