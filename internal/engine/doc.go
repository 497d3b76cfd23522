// Package engine evaluates a graph.
//
// Evaluation is demand-driven and recursive. Executing a node first executes
// every predecessor that has not finished yet and gathers their outputs into
// the node's inputs, keyed by the input port each relation targets. The node's
// handler then runs exactly once, its outputs are cached, and evaluation
// pushes on to every successor. A run starts at the start node, which receives
// the caller's initial input, and its result is the output map of the end
// node.
//
// The first error from handler resolution, config parsing, or a handler
// aborts the run and is returned as a *NodeError. Nothing is retried.
//
// Each run owns a fresh execution cache, so a single Engine can evaluate any
// number of graphs, concurrently, as long as each Run call gets its own
// goroutine.
package engine
