// Package gmail implements the Gmail API transport used by the export
// pipeline.
//
// All calls pass through a client-side rate limiter tuned to the
// documented per-user quota, and every request carries the caller's
// context for cancellation.
package gmail
