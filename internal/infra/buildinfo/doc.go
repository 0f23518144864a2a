// Package buildinfo provides build-time version information for
// MerkleKV binaries.
package buildinfo
