// Package store persists the last-known state of tracked stores.
//
// This package is internal to storewatch. It owns the single "store" table
// (id, title, image, status) and hides which database backs it.
//
// The main components are:
//
//   - [Repository]: Interface for inserting, listing, updating and deleting records
//   - [SQLStore]: database/sql implementation for SQLite and PostgreSQL
//   - [MemoryStore]: In-memory implementation for tests and dry runs
//   - [Record]: One tracked store as persisted
//
// Use [Open] to pick a backend from a connection string. Backends create
// their database and table on first use, so Open is safe to call on every
// process start.
package store
