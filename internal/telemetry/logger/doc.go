// Package logger provides structured logging for MerkleKV.
//
// It configures the standard library log/slog with JSON or text
// handlers, a dynamically adjustable level, and context helpers for
// per-connection logging:
//
//   - logger.go: handler construction and level control
//   - context.go: context-aware logging with connection IDs
package logger
