// Package repl provides the interactive REPL mode for merklekv-cli.
//
// The REPL reads one protocol command per line, sends it to the
// server, and prints the response. Command history persists under
// ~/.merklekv/history.
package repl
