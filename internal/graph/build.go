package graph

import (
	"fmt"
	"strings"
)

// Build constructs a validated Graph from a definition. It returns a
// *ValidationError describing every problem found.
func Build(def Definition) (*Graph, error) {
	g := &Graph{
		nodes: make(map[string]Node, len(def.Nodes)),
		preds: make(map[string][]Relation),
		succs: make(map[string][]Relation),
	}

	var problems []string
	var starts, ends []string

	// First pass: register nodes and spot the distinguished roles.
	for i, n := range def.Nodes {
		if n.ID == "" {
			problems = append(problems, fmt.Sprintf("node #%d has an empty id", i))
			continue
		}
		if _, dup := g.nodes[n.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate node id %q", n.ID))
			continue
		}
		g.nodes[n.ID] = n
		g.order = append(g.order, n.ID)

		switch n.Type {
		case TypeStart:
			starts = append(starts, n.ID)
		case TypeEnd:
			ends = append(ends, n.ID)
		}
	}

	// Second pass: wire relations into the predecessor/successor indexes.
	wired := make(map[string]string)
	for _, r := range def.Relations {
		ok := true
		if _, exists := g.nodes[r.From]; !exists {
			problems = append(problems, fmt.Sprintf("relation %s references unknown source node %q", r, r.From))
			ok = false
		}
		if _, exists := g.nodes[r.To]; !exists {
			problems = append(problems, fmt.Sprintf("relation %s references unknown target node %q", r, r.To))
			ok = false
		}
		if r.FromPort == "" || r.ToPort == "" {
			problems = append(problems, fmt.Sprintf("relation %s has an empty port name", r))
			ok = false
		}
		if !ok {
			continue
		}

		input := r.To + "." + r.ToPort
		if prev, taken := wired[input]; taken {
			problems = append(problems, fmt.Sprintf("input port %s is wired by both %s and %s", input, prev, r))
			continue
		}
		wired[input] = r.String()

		g.relations = append(g.relations, r)
		g.succs[r.From] = append(g.succs[r.From], r)
		g.preds[r.To] = append(g.preds[r.To], r)
	}

	switch len(starts) {
	case 0:
		problems = append(problems, "graph has no start node")
	case 1:
		g.start = starts[0]
		if len(g.preds[g.start]) > 0 {
			problems = append(problems, fmt.Sprintf("start node %q must not have incoming relations", g.start))
		}
	default:
		problems = append(problems, fmt.Sprintf("graph has %d start nodes: %s", len(starts), strings.Join(starts, ", ")))
	}

	switch len(ends) {
	case 0:
		problems = append(problems, "graph has no end node")
	case 1:
		g.end = ends[0]
		if len(g.succs[g.end]) > 0 {
			problems = append(problems, fmt.Sprintf("end node %q must not have outgoing relations", g.end))
		}
	default:
		problems = append(problems, fmt.Sprintf("graph has %d end nodes: %s", len(ends), strings.Join(ends, ", ")))
	}

	if err := g.detectCycles(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return g, nil
}
