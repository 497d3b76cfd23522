// Package graph provides the immutable model of a workflow: typed nodes wired
// together by relations between named ports.
//
// # Structure
//
// A Graph is built once from a Definition and is read-only afterwards:
//
//	┌──────────┐ out ─► in ┌──────────┐ out ─► in ┌──────────┐
//	│  start   │──────────►│  print   │──────────►│   end    │
//	└──────────┘           └──────────┘           └──────────┘
//
// Each Relation connects one node's output port to another node's input port.
// Build derives two indexes from the relation list, the incoming relations
// (predecessors) and the outgoing relations (successors) of every node, both
// kept in declaration order.
//
// # Validation
//
// Build rejects a definition with a *ValidationError when:
//   - a node id is empty or declared twice
//   - a relation references an unknown node or has an empty port name
//   - an input port is wired by more than one relation
//   - there is not exactly one `start` node and exactly one `end` node
//   - the start node has incoming relations or the end node has outgoing ones
//   - the relations form a cycle
//
// Every problem found is reported in a single error.
//
// # Thread-Safety
//
// A built Graph is never mutated, so it may be shared by any number of
// concurrent runs.
package graph
