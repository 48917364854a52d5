// Package chain executes a compiled processing chain on events.
//
// A Plan is the immutable result of building a chain document: the
// variable table, the scheduled steps with their parameter bindings, the
// constants and the requested outputs. A Chain is one runnable instance of
// a plan with its own buffers; Clone gives every worker an independent
// instance over the same plan.
package chain
