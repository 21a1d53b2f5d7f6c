// Package ubereats is a small client for the Uber Eats web API.
//
// This package is internal to storewatch. It issues the three requests the
// watcher needs (resolve the delivery address, search stores by name, fetch
// one store's detail) over a single long-lived session.
//
// The main components are:
//
//   - [Client]: The session: fixed headers, cookie jar, per-request timeouts
//   - [Address]: Result of resolving the configured delivery place
//   - [Candidate]: One store returned by a search
//   - [StoreDetail]: Title, hero image and availability state of a store
//
// Every response is an envelope {"status": ..., "data": ...}; the status
// field is the only success signal. Non-success is reported as
// [ErrAddressNotFound] or [ErrNotSuccess] so callers can branch with
// errors.Is.
package ubereats
