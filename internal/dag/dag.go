package dag

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID and declaration order. If a
// node with the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string, order int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		order:      order,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the IDs the given node depends on, in declaration order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(sortedNodes(n.deps)), nil
}

// Dependents returns the IDs that depend on the given node, in declaration order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(sortedNodes(n.dependents)), nil
}

// Ancestors returns the given nodes together with everything they depend
// on transitively, in declaration order.
func (g *Graph) Ancestors(roots ...string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	seen := make(map[string]*node)
	stack := make([]*node, 0, len(roots))
	for _, id := range roots {
		n, ok := g.nodes[id]
		if !ok {
			return nil, fmt.Errorf("node not found: %s", id)
		}
		stack = append(stack, n)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[n.id]; ok {
			continue
		}
		seen[n.id] = n
		for _, dep := range n.deps {
			stack = append(stack, dep)
		}
	}
	return ids(sortedNodes(seen)), nil
}

// DetectCycles checks the graph for any cycles. It returns a *CycleError
// carrying the path of the first cycle found, walking nodes in declaration
// order.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three sets of nodes:
	// permanent: fully visited and not part of a cycle.
	// temporary: on the current recursion stack.
	// unvisited: all other nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return &CycleError{Path: cyclePath(stack, n.id)}
		}

		temporary[n.id] = true
		stack = append(stack, n.id)

		for _, dependent := range sortedNodes(n.dependents) {
			if err := visit(dependent); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, n.id)
		permanent[n.id] = true

		return nil
	}

	for _, n := range sortedNodes(g.nodes) {
		if !permanent[n.id] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}

	return nil
}

// cyclePath returns the suffix of stack starting at id, closed with id.
func cyclePath(stack []string, id string) []string {
	for i, s := range stack {
		if s == id {
			path := append([]string(nil), stack[i:]...)
			return append(path, id)
		}
	}
	return []string{id}
}

func sortedNodes(m map[string]*node) []*node {
	out := make([]*node, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].order != out[j].order {
			return out[i].order < out[j].order
		}
		return out[i].id < out[j].id
	})
	return out
}

func ids(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}
