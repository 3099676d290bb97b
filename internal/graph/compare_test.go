package graph_test

import (
	"testing"

	"github.com/born-ml/gtn/internal/graph"
	"github.com/stretchr/testify/assert"
)

func triangle(order []int, w float64) *graph.Graph {
	// order[i] is the node index used for logical node i.
	g := graph.New(false)
	flags := [][2]bool{{true, false}, {false, false}, {false, true}}
	inv := make([]int, 3)
	for i, o := range order {
		inv[o] = i
	}
	for n := 0; n < 3; n++ {
		f := flags[inv[n]]
		g.AddNode(f[0], f[1])
	}
	g.MustAddArc(order[0], order[1], 0, graph.WithWeight(w))
	g.MustAddArc(order[1], order[2], 1, graph.WithWeight(2))
	g.MustAddArc(order[0], order[2], 2)
	g.MustAddArc(order[1], order[1], 3, graph.WithOutput(4))
	return g
}

func TestEqual(t *testing.T) {
	a := triangle([]int{0, 1, 2}, 1)
	b := triangle([]int{0, 1, 2}, 1+1e-7)
	c := triangle([]int{0, 1, 2}, 1.1)

	assert.True(t, graph.Equal(a, b))
	assert.False(t, graph.Equal(a, c))
	assert.False(t, graph.Equal(a, triangle([]int{2, 0, 1}, 1)))
}

func TestIsomorphic(t *testing.T) {
	a := triangle([]int{0, 1, 2}, 1)
	assert.True(t, graph.Isomorphic(a, triangle([]int{2, 0, 1}, 1)))
	assert.True(t, graph.Isomorphic(a, triangle([]int{1, 2, 0}, 1)))
	assert.False(t, graph.Isomorphic(a, triangle([]int{2, 0, 1}, 3)))
}

func TestIsomorphic_ParallelArcs(t *testing.T) {
	build := func(w1, w2 float64) *graph.Graph {
		g := graph.New(false)
		g.AddNode(true, false)
		g.AddNode(false, true)
		g.MustAddArc(0, 1, 0, graph.WithWeight(w1))
		g.MustAddArc(0, 1, 0, graph.WithWeight(w2))
		return g
	}
	assert.True(t, graph.Isomorphic(build(1, 2), build(2, 1)))
	assert.False(t, graph.Isomorphic(build(1, 2), build(1, 1)))
	assert.False(t, graph.Equal(build(1, 2), build(2, 1)))
}
