// Package connection provides the client side of the MerkleKV text
// protocol for merklekv-cli.
package connection
