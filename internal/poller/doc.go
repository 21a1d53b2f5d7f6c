// Package poller runs the poll-diff-notify loop for tracked stores.
//
// This package is internal to storewatch. Each cycle it reads every tracked
// store from the repository, fetches the store's current remote state,
// persists any difference and notifies when the availability status changed.
//
// The main components are:
//
//   - [Evaluate]: Pure diff of a persisted record against a fetched detail
//   - [Scheduler]: Sequential sweep of all stores, repeated on an interval
//   - [Result]: Outcome of processing one store in one cycle
//
// A failure while processing one store never aborts the cycle: the store
// gets a [Result] carrying the error and the sweep moves on.
package poller
