package testutil

import (
	"testing"

	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/stretchr/testify/require"
)

// N declares a node with an empty config.
func N(id string, typ graph.NodeType) graph.Node {
	return graph.Node{ID: id, Type: typ}
}

// NC declares a node with a config blob.
func NC(id string, typ graph.NodeType, config string) graph.Node {
	return graph.Node{ID: id, Type: typ, Config: config}
}

// R declares a relation.
func R(from, fromPort, to, toPort string) graph.Relation {
	return graph.Relation{From: from, FromPort: fromPort, To: to, ToPort: toPort}
}

// MustBuild builds a graph and fails the test on any validation problem.
func MustBuild(t *testing.T, nodes []graph.Node, relations ...graph.Relation) *graph.Graph {
	t.Helper()
	g, err := graph.Build(graph.Definition{Nodes: nodes, Relations: relations})
	require.NoError(t, err)
	return g
}
