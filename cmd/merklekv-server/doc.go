// Package main provides the entry point for merklekv-server.
//
// The server hosts a key-value store behind a line-based TCP text
// protocol, backed by one of three storage engines:
//
//   - memory: plain in-process map, single-connection use
//   - rwlock: mutex-guarded map for concurrent access
//   - sled: disk-persistent store with a bounded read cache
//
// Usage:
//
//	merklekv-server [flags]
//	merklekv-server --config /path/to/config.yaml
//
// The server loads configuration from file and environment, opens the
// configured engine, and serves until interrupted.
package main
