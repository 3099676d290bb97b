package ops

import "github.com/born-ml/gtn/internal/graph"

// copyInto appends the nodes and arcs of g to out and returns the node offset.
// Node flags are set by keep.
func copyInto(out, g *graph.Graph, keep func(n int) (start, accept bool)) int {
	offset := out.NumNodes()
	for n := 0; n < g.NumNodes(); n++ {
		out.AddNode(keep(n))
	}
	weights := g.Weights()
	for a := 0; a < g.NumArcs(); a++ {
		out.MustAddArc(g.Src(a)+offset, g.Dst(a)+offset, g.ILabel(a),
			graph.WithOutput(g.OLabel(a)), graph.WithWeight(weights[a]))
	}
	return offset
}

// Union returns the disjoint union of gs: any path of any input is a path of
// the result. Arcs keep the input order.
func Union(gs ...*graph.Graph) (*graph.Graph, error) {
	if len(gs) == 0 {
		return nil, graph.NewShapeError("union", "no operands")
	}
	for i, g := range gs {
		if g == nil {
			return nil, graph.NewShapeError("union", "operand %d is nil", i)
		}
	}
	out := graph.New(graph.AnyCalcGrad(gs...))
	for _, g := range gs {
		copyInto(out, g, func(n int) (bool, bool) { return g.IsStart(n), g.IsAccept(n) })
	}
	out.SetRecord(graph.OpUnion, nil, gs...)
	return out, nil
}

// Concat returns the concatenation of gs in order. The arcs of every input
// come first, followed by zero-weight epsilon arcs joining each accept node
// of one input to each start node of the next. With no inputs the result is
// a single start and accept node.
func Concat(gs ...*graph.Graph) (*graph.Graph, error) {
	for i, g := range gs {
		if g == nil {
			return nil, graph.NewShapeError("concat", "operand %d is nil", i)
		}
	}
	out := graph.New(graph.AnyCalcGrad(gs...))
	if len(gs) == 0 {
		out.AddNode(true, true)
		return out, nil
	}

	offsets := make([]int, len(gs))
	last := len(gs) - 1
	for i, g := range gs {
		offsets[i] = copyInto(out, g, func(n int) (bool, bool) {
			return i == 0 && g.IsStart(n), i == last && g.IsAccept(n)
		})
	}
	for i := 0; i < last; i++ {
		for _, f := range gs[i].Accept() {
			for _, s := range gs[i+1].Start() {
				out.MustAddArc(f+offsets[i], s+offsets[i+1], graph.Epsilon)
			}
		}
	}
	out.SetRecord(graph.OpConcat, nil, gs...)
	return out, nil
}

// Closure returns the Kleene closure of g: zero or more repetitions of its
// paths. Node 0 of the result is a new start and accept node; the nodes of g
// follow, shifted by one and without their flags.
func Closure(g *graph.Graph) (*graph.Graph, error) {
	if g == nil {
		return nil, graph.NewShapeError("closure", "nil graph")
	}
	out := graph.New(g.CalcGrad())
	out.AddNode(true, true)
	copyInto(out, g, func(int) (bool, bool) { return false, false })
	for _, s := range g.Start() {
		out.MustAddArc(0, s+1, graph.Epsilon)
	}
	for _, f := range g.Accept() {
		out.MustAddArc(f+1, 0, graph.Epsilon)
	}
	out.SetRecord(graph.OpClosure, nil, g)
	return out, nil
}

// prefixGrad hands each input the slice of grad covering its arcs, assuming
// the output lists the arcs of every input first, in input order.
func prefixGrad(_ *graph.Graph, rec *graph.Record, grad []float64, _ Config) ([][]float64, error) {
	res := make([][]float64, len(rec.Inputs))
	offset := 0
	for i, in := range rec.Inputs {
		n := in.NumArcs()
		if in.CalcGrad() {
			res[i] = append([]float64(nil), grad[offset:offset+n]...)
		}
		offset += n
	}
	return res, nil
}
