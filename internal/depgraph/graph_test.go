package depgraph

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGraph adds the given edges in order. Each pair is {from, to}.
func buildGraph(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		g.AddDependency(e[0], e[1])
	}
	return g
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Empty(t, g.nodes)
	assert.Zero(t, g.Len())
}

func TestAddNode_Idempotent(t *testing.T) {
	g := New()

	g.AddNode("a")
	g.AddNode("a")
	g.AddNode("b")

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"a", "b"}, g.order)
	assert.Contains(t, g.nodes, "a")
	assert.NotContains(t, g.nodes, "c")
}

func TestAddDependency(t *testing.T) {
	t.Run("creates missing nodes", func(t *testing.T) {
		g := New()
		g.AddDependency("a", "b")

		assert.Equal(t, []string{"a", "b"}, g.order)
		require.Len(t, g.nodes["a"].deps, 1)
		assert.Equal(t, "b", g.nodes["a"].deps[0].id)
	})

	t.Run("duplicate edges are ignored", func(t *testing.T) {
		g := New()
		g.AddDependency("a", "b")
		g.AddDependency("a", "b")

		nodeB := g.nodes["b"]
		assert.Len(t, g.nodes["a"].deps, 1)
		assert.Len(t, nodeB.dependants, 1)
	})

	t.Run("unknown node", func(t *testing.T) {
		g := New()
		_, err := g.DependenciesOf("dne")
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})
}

func TestDependenciesOf_Chain(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})

	deps, err := g.DependenciesOf("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, deps)

	order, err := g.OverallOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestDependenciesOf_NoDeps(t *testing.T) {
	g := buildGraph(t, []string{"a"}, nil)

	deps, err := g.DependenciesOf("a")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestDependenciesOf_DiamondVisitsEachOnce(t *testing.T) {
	g := buildGraph(t, nil, [][2]string{
		{"app", "left"},
		{"app", "right"},
		{"left", "base"},
		{"right", "base"},
		{"other", "app"},
	})

	deps, err := g.DependenciesOf("app")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"base", "left", "right"}, deps); diff != "" {
		t.Errorf("DependenciesOf(app) mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, deps, "app")
	assert.NotContains(t, deps, "other")
}

func TestDependenciesOf_UnknownNode(t *testing.T) {
	g := New()
	_, err := g.DependenciesOf("ghost")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestOverallOrder_DependencyBeforeDependant(t *testing.T) {
	// e is inserted before d but depends on it.
	g := buildGraph(t, []string{"e", "d"}, [][2]string{{"e", "d"}})

	order, err := g.OverallOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "e"}, order)
}

func TestOverallOrder_InsertionTieBreak(t *testing.T) {
	g := buildGraph(t, []string{"z", "y", "x"}, nil)

	order, err := g.OverallOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y", "x"}, order)
}

func TestOverallOrder_Deterministic(t *testing.T) {
	edges := [][2]string{{"a", "c"}, {"b", "c"}, {"d", "a"}, {"d", "b"}, {"e", "f"}}

	first, err := buildGraph(t, []string{"d", "e", "a", "b", "c", "f"}, edges).OverallOrder()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := buildGraph(t, []string{"d", "e", "a", "b", "c", "f"}, edges).OverallOrder()
		require.NoError(t, err)
		require.Equal(t, first, again, "run %d produced a different order", i)
	}
}

func TestOverallOrder_RandomAcyclicGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		size := 2 + rng.Intn(20)
		names := make([]string, size)
		for i := range names {
			names[i] = fmt.Sprintf("pkg-%02d", i)
		}
		// Edges only point from a higher index to a lower one, so the
		// graph is acyclic. Nodes are inserted in shuffled order.
		var edges [][2]string
		for i := 1; i < size; i++ {
			for j := 0; j < i; j++ {
				if rng.Intn(3) == 0 {
					edges = append(edges, [2]string{names[i], names[j]})
				}
			}
		}
		inserted := slices.Clone(names)
		rng.Shuffle(len(inserted), func(i, j int) { inserted[i], inserted[j] = inserted[j], inserted[i] })

		g := buildGraph(t, inserted, edges)
		order, err := g.OverallOrder()
		require.NoError(t, err)
		require.Len(t, order, size)

		position := make(map[string]int, size)
		for i, name := range order {
			position[name] = i
		}
		for _, e := range edges {
			assert.Less(t, position[e[1]], position[e[0]], "round %d: %s must precede %s", round, e[1], e[0])
		}
	}
}

func TestCycleDetection(t *testing.T) {
	newCycle := func(t *testing.T) *Graph {
		return buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	}

	testCases := []struct {
		name     string
		run      func(g *Graph) ([]string, error)
		wantPath []string
	}{
		{
			name:     "overall order",
			run:      func(g *Graph) ([]string, error) { return g.OverallOrder() },
			wantPath: []string{"a", "b", "c", "a"},
		},
		{
			name:     "dependencies of a",
			run:      func(g *Graph) ([]string, error) { return g.DependenciesOf("a") },
			wantPath: []string{"a", "b", "c", "a"},
		},
		{
			name:     "dependencies of b",
			run:      func(g *Graph) ([]string, error) { return g.DependenciesOf("b") },
			wantPath: []string{"b", "c", "a", "b"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			order, err := tc.run(newCycle(t))
			require.Error(t, err)
			assert.Nil(t, order, "no partial order may be returned")
			assert.ErrorIs(t, err, ErrCycleDetected)

			path, ok := AsCycle(err)
			require.True(t, ok)
			assert.Equal(t, tc.wantPath, path)
			assert.Contains(t, err.Error(), "a -> b")
		})
	}
}

func TestCycleDetection_SelfDependency(t *testing.T) {
	g := New()
	g.AddDependency("a", "a")

	_, err := g.OverallOrder()
	path, ok := AsCycle(err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "a"}, path)
}

func TestCycleDetection_OutsideSubgraph(t *testing.T) {
	g := buildGraph(t, nil, [][2]string{{"x", "y"}, {"y", "x"}, {"a", "b"}})

	deps, err := g.DependenciesOf("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, deps)

	_, err = g.OverallOrder()
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestDependantsOf(t *testing.T) {
	g := buildGraph(t, nil, [][2]string{{"app", "lib"}, {"lib", "core"}, {"tool", "core"}, {"misc", "other"}})

	dependants, err := g.DependantsOf("core")
	require.NoError(t, err)
	assert.Equal(t, []string{"lib", "app", "tool"}, dependants)

	dependants, err = g.DependantsOf("app")
	require.NoError(t, err)
	assert.Empty(t, dependants)
}

func TestGraph_ConcurrentAccess(t *testing.T) {
	g := New()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.AddDependency(fmt.Sprintf("n%d", i+1), fmt.Sprintf("n%d", i))
			_, _ = g.OverallOrder()
		}(i)
	}
	wg.Wait()

	order, err := g.OverallOrder()
	require.NoError(t, err)
	assert.Len(t, order, 21)
	assert.Equal(t, "n0", order[0])
}
