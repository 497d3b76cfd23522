package graph

import (
	"fmt"
	"strings"
)

// detectCycles checks the relations for any cycle. It returns a non-nil
// error naming the nodes on the first cycle found.
func (g *Graph) detectCycles() error {
	// Classic depth-first search with three sets of nodes:
	// permanent: nodes that have been fully visited and are not part of a cycle.
	// temporary: nodes currently in the recursion stack for the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[string]bool, len(g.order))
	temporary := make(map[string]bool)
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			// Cut the stack down to the part that loops back to id.
			start := 0
			for i, s := range stack {
				if s == id {
					start = i
					break
				}
			}
			path := append(append([]string(nil), stack[start:]...), id)
			return fmt.Errorf("cycle detected: %s", strings.Join(path, " -> "))
		}

		temporary[id] = true
		stack = append(stack, id)

		for _, r := range g.succs[id] {
			if err := visit(r.To); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
