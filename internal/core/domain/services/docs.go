// Package services provides domain services that compute over several aggregates
// without owning state of their own.
//
// The package includes:
//   - EarningsAggregator: period-scoped earnings from the wallet log, and trip
//     counts, active time and distance from the delivery history
package services
