// Package server provides the optional read-only HTTP view of a running
// watcher.
//
//   - GET /api/stores: tracked stores with their last persisted status
//   - GET /api/sse: poll results as Server-Sent Events
//   - GET /healthz: liveness probe
//
// Poll results reach SSE clients through a [Hub]. The server shuts down
// gracefully when its context is cancelled.
package server
