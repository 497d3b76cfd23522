package graph

// Graph is a validated, immutable workflow graph. Use Build to create one.
type Graph struct {
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]Node
	// order keeps node IDs in declaration order.
	order []string
	// relations holds every relation in declaration order.
	relations []Relation
	// preds holds the incoming relations of each node.
	preds map[string][]Relation
	// succs holds the outgoing relations of each node.
	succs map[string][]Relation

	start string
	end   string
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Relations returns all relations in declaration order.
func (g *Graph) Relations() []Relation {
	return append([]Relation(nil), g.relations...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// StartID returns the id of the single start node.
func (g *Graph) StartID() string {
	return g.start
}

// EndID returns the id of the single end node.
func (g *Graph) EndID() string {
	return g.end
}

// PredecessorsOf returns the relations ending at the given node, in
// declaration order. Unknown ids yield an empty slice.
func (g *Graph) PredecessorsOf(id string) []Relation {
	return append([]Relation(nil), g.preds[id]...)
}

// SuccessorsOf returns the relations starting at the given node, in
// declaration order. Unknown ids yield an empty slice.
func (g *Graph) SuccessorsOf(id string) []Relation {
	return append([]Relation(nil), g.succs[id]...)
}
