package depgraph

import "sync"

// Graph is a collection of package nodes and their dependency edges.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects nodes and order during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by package name.
	nodes map[string]*node
	// order records node names in first-insertion order. It drives the
	// tie-break of every traversal.
	order []string
}

// node represents a single package in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using names),
// not by direct struct manipulation.
type node struct {
	id string
	// deps holds the nodes this node depends on, in edge insertion order.
	deps []*node
	// depSet makes edge insertion idempotent.
	depSet map[string]struct{}
	// dependants holds the nodes that depend on this node.
	dependants []*node
}

// visitState tracks a node during a depth-first walk.
type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)
