package dag

import (
	"container/heap"
)

// TopologicalOrder returns every node ordered so that each comes after all
// of its dependencies. Among nodes that are ready at the same time the one
// declared first is emitted first, so the result is deterministic. A cycle
// yields a *CycleError.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()

	indegree := make(map[string]int, len(g.nodes))
	ready := &readyQueue{}
	for _, n := range g.nodes {
		indegree[n.id] = len(n.deps)
		if len(n.deps) == 0 {
			heap.Push(ready, n)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		order = append(order, n.id)
		for _, dependent := range n.dependents {
			indegree[dependent.id]--
			if indegree[dependent.id] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}
	return order, nil
}

// readyQueue is a min-heap of nodes keyed by declaration order.
type readyQueue []*node

func (q readyQueue) Len() int { return len(q) }
func (q readyQueue) Less(i, j int) bool {
	if q[i].order != q[j].order {
		return q[i].order < q[j].order
	}
	return q[i].id < q[j].id
}
func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(*node)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}
