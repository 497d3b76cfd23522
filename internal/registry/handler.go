package registry

import (
	"context"
	"log/slog"

	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
)

// Ports maps port names to values.
type Ports = graph.Ports

// Secret is a port value masked in logs and recorded outputs.
type Secret = graph.Secret

// StringOf returns a string or Secret input as a plain string.
func StringOf(v any) (string, bool) {
	return graph.StringOf(v)
}

// Services is the narrow view of the running engine that a handler receives.
type Services interface {
	// RunID identifies the current run.
	RunID() string
	// Node is the node being executed.
	Node() graph.Node
	// Predecessors lists the relations feeding the node, in declaration order.
	Predecessors() []graph.Relation
	// Successors lists the relations leaving the node, in declaration order.
	Successors() []graph.Relation
	// Logger is scoped to the run and the node.
	Logger() *slog.Logger
}

// Handler executes one node. It receives the node's inputs keyed by input
// port name and returns its outputs keyed by output port name.
type Handler interface {
	Handle(ctx context.Context, svc Services, inputs Ports, cfg nodeconfig.Config) (Ports, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, svc Services, inputs Ports, cfg nodeconfig.Config) (Ports, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, svc Services, inputs Ports, cfg nodeconfig.Config) (Ports, error) {
	return f(ctx, svc, inputs, cfg)
}

// Module is the interface that all handler modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}
