// Package storage provides the storage engines for MerkleKV.
//
// Three interchangeable backends implement the Engine contract:
//
//   - MemoryEngine: plain in-memory map, no internal locking
//   - RWLockEngine: in-memory map behind a single reader/writer lock
//   - BadgerEngine: persistent Badger database fronted by a bounded LRU cache
//
// Engines are constructed by the factory (New, NewFromName) from a resolved
// Config record and live for the process lifetime. The network layer, the
// replication layer, and the anti-entropy synchronizer depend only on the
// Engine interface, never on a concrete backend.
package storage
