// Package lifecycle models the single active delivery order as it moves from offer
// through settlement.
//
// Lifecycle is the aggregate; Stage is its state machine. Every method applies one
// legal transition or returns an error and leaves the aggregate unchanged. Timers,
// routing and gestures live outside this package and drive it by calling the
// transition methods in order.
//
// The order-id stage is the one blocking checkpoint: Dismiss returns
// ErrPanelIsBlocking there, and only ConfirmOrderID leaves it.
//
// Snapshot and Restore give the persisted form used to resume an order after a
// cold start.
package lifecycle
