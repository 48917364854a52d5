// Package table defines the per-event input record, the projected output
// row and the Source and Sink interfaces the batch runner reads from and
// writes to. In-memory implementations are provided for tests and for
// embedding the engine in other programs.
package table
