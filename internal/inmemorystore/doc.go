// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// A Store is created fresh for every run and discarded afterwards. All state
// lives behind a single RWMutex.
package inmemorystore
