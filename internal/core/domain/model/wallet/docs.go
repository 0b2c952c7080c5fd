// Package wallet holds the read-only view of the partner's wallet as served by the
// backend, and the calendar periods earnings are aggregated over.
package wallet
