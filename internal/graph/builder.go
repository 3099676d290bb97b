package graph

// LinearGraph builds the emissions lattice used by sequence criteria: T+1
// nodes in a chain, node 0 start and node T accept, and V parallel arcs with
// labels 0..V-1 between consecutive nodes. The weight of label v in frame t
// has index t*V + v, so SetWeights accepts a row-major T×V score matrix.
func LinearGraph(frames, vocab int, calcGrad bool) *Graph {
	g := New(calcGrad)
	g.AddNode(true, frames == 0)
	for t := 1; t <= frames; t++ {
		g.AddNode(false, t == frames)
		for v := 0; v < vocab; v++ {
			g.MustAddArc(t-1, t, Label(v))
		}
	}
	return g
}

// Scalar builds a graph with two nodes and one arc of weight value. Scalar
// graphs are the results of scoring operators.
func Scalar(value float64, calcGrad bool) *Graph {
	g := New(calcGrad)
	g.AddNode(true, false)
	g.AddNode(false, true)
	g.MustAddArc(0, 1, 0, WithWeight(value))
	return g
}
