// Package nodestore defines the execution cache used during a single run.
//
// The cache tracks which nodes have finished and the outputs each one
// produced. It isolates the mutable per-run state from the immutable graph,
// so one graph can drive many runs, each with its own store.
//
// # Lifecycle
//
// A store is:
//  1. Created fresh at the start of every run.
//  2. Written once per node, right after its handler returns.
//  3. Read by the engine while collecting a node's inputs and when reading
//     the end node's result.
//  4. Discarded when the run ends.
//
// A node id is recorded at most once; a second write is an engine bug and is
// reported as a *DuplicateExecutionError.
package nodestore

import "github.com/specialistvlad/portflow/internal/graph"

// Store is the per-run execution cache.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// IsFinished reports whether outputs were recorded for the node.
	IsFinished(id string) bool

	// RecordOutputs marks the node finished and stores its outputs. A nil map
	// is stored as an empty one. Recording the same node twice fails with a
	// *DuplicateExecutionError and leaves the first outputs intact.
	RecordOutputs(id string, outputs graph.Ports) error

	// OutputOf returns one output value of a finished node. It fails with a
	// *MissingOutputError when the node has not finished or did not produce
	// the port.
	OutputOf(id, port string) (any, error)

	// OutputsOf returns a copy of all outputs of a finished node. It fails
	// with a *MissingOutputError (empty Port) when the node has not finished.
	OutputsOf(id string) (graph.Ports, error)

	// Finished returns the ids of finished nodes in completion order.
	Finished() []string
}
