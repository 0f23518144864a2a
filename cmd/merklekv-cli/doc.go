// Package main provides the entry point for merklekv-cli.
//
// The CLI tool provides command-line access to a MerkleKV server:
//
//   - Key-value operations (get, set, del, keys, count)
//   - Numeric and string updates (incr, decr, append, prepend)
//   - Maintenance (truncate, sync, stats, ping)
//
// Usage:
//
//	merklekv-cli [command] [flags]
//	merklekv-cli --server 127.0.0.1:7379 set greeting hello
//	merklekv-cli repl
//
// The CLI supports both single-command mode and interactive REPL mode.
package main
