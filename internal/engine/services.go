package engine

import (
	"log/slog"

	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/registry"
)

// services is the registry.Services view handed to a single handler call.
type services struct {
	runID  string
	node   graph.Node
	preds  []graph.Relation
	succs  []graph.Relation
	logger *slog.Logger
}

var _ registry.Services = (*services)(nil)

func (s *services) RunID() string                  { return s.runID }
func (s *services) Node() graph.Node               { return s.node }
func (s *services) Predecessors() []graph.Relation { return append([]graph.Relation(nil), s.preds...) }
func (s *services) Successors() []graph.Relation   { return append([]graph.Relation(nil), s.succs...) }
func (s *services) Logger() *slog.Logger           { return s.logger }
