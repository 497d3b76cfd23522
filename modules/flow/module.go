// Package flow provides the handlers for the reserved start and end node
// types. Both pass their inputs through unchanged: the start node hands the
// run's initial input to its successors and the end node's inputs become the
// run's result.
package flow

import (
	"context"

	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Passthrough returns a copy of its inputs.
func Passthrough(_ context.Context, svc registry.Services, inputs registry.Ports, _ nodeconfig.Config) (registry.Ports, error) {
	svc.Logger().Debug("Passing inputs through.", "ports", len(inputs))
	return inputs.Clone(), nil
}

// Register registers the start and end handlers.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunc(graph.TypeStart, Passthrough)
	r.RegisterFunc(graph.TypeEnd, Passthrough)
}
