// Package shutdown provides graceful shutdown for MerkleKV.
//
// This package handles process termination:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Timeout-based forced shutdown
//   - Cleanup hook registration, run in reverse order of registration
//   - Programmatic triggering for tests and embedders
//
// The storage engine's Close is registered as a hook so the persistent
// backend always gets its disposal-time flush.
package shutdown
