package graph

import (
	"fmt"
	"log/slog"
)

// NodeType is the tag that selects the handler for a node. The engine treats
// it as opaque; only graph validation knows about TypeStart and TypeEnd.
type NodeType string

const (
	// TypeStart marks the single entry node of a graph.
	TypeStart NodeType = "start"
	// TypeEnd marks the single exit node of a graph.
	TypeEnd NodeType = "end"
)

// Node is a single vertex in the graph, representing one unit of work.
type Node struct {
	// ID is unique within a graph.
	ID string
	// Type selects the handler responsible for the node.
	Type NodeType
	// Config is the raw configuration blob, usually a serialized JSON object.
	// It may be empty.
	Config string
}

// Relation is a directed wire from one node's output port to another node's
// input port.
type Relation struct {
	From     string
	FromPort string
	To       string
	ToPort   string
}

// String renders the relation as `from.port -> to.port`.
func (r Relation) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", r.From, r.FromPort, r.To, r.ToPort)
}

// Definition is the unvalidated input to Build, as produced by a loader.
type Definition struct {
	Nodes     []Node
	Relations []Relation
}

// Merge appends the nodes and relations of other to d.
func (d *Definition) Merge(other Definition) {
	d.Nodes = append(d.Nodes, other.Nodes...)
	d.Relations = append(d.Relations, other.Relations...)
}

// Ports maps port names to the values flowing through them. It is used both
// for a node's inputs and for its outputs.
type Ports map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map.
func (p Ports) Clone() Ports {
	out := make(Ports, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Secret is a port value that must never be logged or recorded. It formats
// and logs as "***"; handlers call Reveal to use the value.
type Secret string

const secretMask = "***"

// Reveal returns the underlying value.
func (s Secret) Reveal() string {
	return string(s)
}

func (s Secret) String() string {
	return secretMask
}

// GoString keeps %#v from printing the value.
func (s Secret) GoString() string {
	return secretMask
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue(secretMask)
}

// StringOf returns v as a string when it is a string or a Secret.
func StringOf(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case Secret:
		return x.Reveal(), true
	default:
		return "", false
	}
}
