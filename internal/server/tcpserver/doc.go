// Package tcpserver provides the MerkleKV text protocol server.
//
// This package implements a line-based text protocol over TCP:
//
//   - server.go: listener, accept loop, per-connection goroutines
//   - command.go: command parsing and dispatch to the storage engine
//   - ratelimit.go: per-IP command rate limiting
//
// Commands are CRLF-terminated lines. Responses are VALUE, OK,
// NOT_FOUND, DELETED, KEYS, STATS, or ERROR lines.
package tcpserver
