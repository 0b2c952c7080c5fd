// Package delivery holds the history of settled deliveries. Records are written once,
// when the partner closes the payment summary, and are read back for trip counts and
// active hours.
package delivery
