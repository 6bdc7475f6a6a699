// Package pricing implements the document pricing and batch-allocation engine:
// per-line amounts, GST aggregation by slab, round-off to whole currency units,
// document totals and expiry-ordered (FIFO) batch selection.
//
// Every function here is pure and synchronous. Nothing reads or writes storage and
// nothing mutates the batches it is given; callers own persistence and decide how to
// react to the typed errors returned.
package pricing
