package depgraph

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a node for the given package name. If the name is already
// present, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.addNodeLocked(id)
}

func (g *Graph) addNodeLocked(id string) *node {
	if n, ok := g.nodes[id]; ok {
		return n
	}

	n := &node{
		id:     id,
		depSet: make(map[string]struct{}),
	}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return n
}

// AddDependency records that `from` depends on `to`, creating either node
// if it does not exist yet. Adding the same edge twice has no effect.
// Self-dependencies are kept and reported as a cycle when ordering.
func (g *Graph) AddDependency(from, to string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode := g.addNodeLocked(from)
	toNode := g.addNodeLocked(to)

	if _, ok := fromNode.depSet[to]; ok {
		return
	}
	fromNode.depSet[to] = struct{}{}
	fromNode.deps = append(fromNode.deps, toNode)
	toNode.dependants = append(toNode.dependants, fromNode)
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return len(g.nodes)
}

// DependenciesOf returns every node transitively reachable from id, ordered
// so that each dependency precedes the nodes that depend on it. The node
// itself is not part of the result.
func (g *Graph) DependenciesOf(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "%q", id)
	}

	w := newWalker(len(g.nodes))
	if err := w.visit(n); err != nil {
		return nil, err
	}
	// Post-order always finishes with the start node.
	return w.result[:len(w.result)-1], nil
}

// DependantsOf returns every node that transitively depends on id, in
// overall order. The node itself is not part of the result.
func (g *Graph) DependantsOf(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "%q", id)
	}

	reached := make(map[string]struct{})
	queue := []*node{n}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dependant := range current.dependants {
			if _, seen := reached[dependant.id]; seen {
				continue
			}
			reached[dependant.id] = struct{}{}
			queue = append(queue, dependant)
		}
	}
	delete(reached, id)

	order, err := g.overallOrderLocked()
	if err != nil {
		return nil, err
	}

	dependants := make([]string, 0, len(reached))
	for _, name := range order {
		if _, ok := reached[name]; ok {
			dependants = append(dependants, name)
		}
	}
	return dependants, nil
}

// OverallOrder returns every node in the graph such that for each edge
// A -> B, B appears before A. Among nodes with no ordering constraint
// between them the first-inserted one comes first, so the same insertion
// sequence always yields the same order.
func (g *Graph) OverallOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return g.overallOrderLocked()
}

func (g *Graph) overallOrderLocked() ([]string, error) {
	w := newWalker(len(g.nodes))
	for _, id := range g.order {
		if err := w.visit(g.nodes[id]); err != nil {
			return nil, err
		}
	}
	return w.result, nil
}

// walker is a depth-first post-order traversal that keeps the current path
// on a stack so a back edge can be turned into a cycle path.
type walker struct {
	state  map[string]visitState
	stack  []string
	result []string
}

func newWalker(size int) *walker {
	return &walker{
		state:  make(map[string]visitState, size),
		result: make([]string, 0, size),
	}
}

func (w *walker) visit(n *node) error {
	switch w.state[n.id] {
	case visited:
		return nil
	case visiting:
		start := slices.Index(w.stack, n.id)
		path := append(slices.Clone(w.stack[start:]), n.id)
		return &CycleError{Path: path}
	}

	w.state[n.id] = visiting
	w.stack = append(w.stack, n.id)

	for _, dep := range n.deps {
		if err := w.visit(dep); err != nil {
			return err
		}
	}

	w.stack = w.stack[:len(w.stack)-1]
	w.state[n.id] = visited
	w.result = append(w.result, n.id)
	return nil
}
