package ops

import "github.com/born-ml/gtn/internal/graph"

// relabel copies g with each arc's labels rewritten by f.
func relabel(g *graph.Graph, f func(a int) (in, out graph.Label)) *graph.Graph {
	out := graph.New(g.CalcGrad())
	for n := 0; n < g.NumNodes(); n++ {
		out.AddNode(g.IsStart(n), g.IsAccept(n))
	}
	weights := g.Weights()
	for a := 0; a < g.NumArcs(); a++ {
		il, ol := f(a)
		out.MustAddArc(g.Src(a), g.Dst(a), il, graph.WithOutput(ol), graph.WithWeight(weights[a]))
	}
	return out
}

// Clone returns a copy of g that passes gradients back to g.
func Clone(g *graph.Graph) (*graph.Graph, error) {
	if g == nil {
		return nil, graph.NewShapeError("clone", "nil graph")
	}
	out := relabel(g, func(a int) (graph.Label, graph.Label) { return g.ILabel(a), g.OLabel(a) })
	out.SetRecord(graph.OpClone, nil, g)
	return out, nil
}

// ProjectInput returns the acceptor of g's input labels.
func ProjectInput(g *graph.Graph) (*graph.Graph, error) {
	if g == nil {
		return nil, graph.NewShapeError("project_input", "nil graph")
	}
	out := relabel(g, func(a int) (graph.Label, graph.Label) { return g.ILabel(a), g.ILabel(a) })
	out.SetRecord(graph.OpProjectInput, nil, g)
	return out, nil
}

// ProjectOutput returns the acceptor of g's output labels.
func ProjectOutput(g *graph.Graph) (*graph.Graph, error) {
	if g == nil {
		return nil, graph.NewShapeError("project_output", "nil graph")
	}
	out := relabel(g, func(a int) (graph.Label, graph.Label) { return g.OLabel(a), g.OLabel(a) })
	out.SetRecord(graph.OpProjectOutput, nil, g)
	return out, nil
}

func scalarOperands(op string, gs ...*graph.Graph) error {
	for i, g := range gs {
		if g == nil {
			return graph.NewShapeError(op, "operand %d is nil", i)
		}
		if !g.IsScalar() {
			return graph.NewShapeError(op, "operand %d has %d arcs, want a scalar graph", i, g.NumArcs())
		}
	}
	return nil
}

// Negate returns the scalar graph -g.
func Negate(g *graph.Graph) (*graph.Graph, error) {
	if err := scalarOperands("negate", g); err != nil {
		return nil, err
	}
	out := graph.Scalar(-g.Item(), g.CalcGrad())
	out.SetRecord(graph.OpNegate, nil, g)
	return out, nil
}

// Add returns the scalar graph a + b.
func Add(a, b *graph.Graph) (*graph.Graph, error) {
	if err := scalarOperands("add", a, b); err != nil {
		return nil, err
	}
	out := graph.Scalar(a.Item()+b.Item(), graph.AnyCalcGrad(a, b))
	out.SetRecord(graph.OpAdd, nil, a, b)
	return out, nil
}

// Subtract returns the scalar graph a - b.
func Subtract(a, b *graph.Graph) (*graph.Graph, error) {
	if err := scalarOperands("subtract", a, b); err != nil {
		return nil, err
	}
	out := graph.Scalar(a.Item()-b.Item(), graph.AnyCalcGrad(a, b))
	out.SetRecord(graph.OpSubtract, nil, a, b)
	return out, nil
}

// scaledGrad returns one scaled copy of grad per input, nil where the input
// does not track gradients.
func scaledGrad(rec *graph.Record, grad []float64, scales ...float64) [][]float64 {
	res := make([][]float64, len(rec.Inputs))
	for i, in := range rec.Inputs {
		if !in.CalcGrad() {
			continue
		}
		res[i] = make([]float64, len(grad))
		for j, g := range grad {
			res[i][j] = scales[i] * g
		}
	}
	return res
}

func identityGrad(_ *graph.Graph, rec *graph.Record, grad []float64, _ Config) ([][]float64, error) {
	return scaledGrad(rec, grad, 1), nil
}

func negateGrad(_ *graph.Graph, rec *graph.Record, grad []float64, _ Config) ([][]float64, error) {
	return scaledGrad(rec, grad, -1), nil
}

func addGrad(_ *graph.Graph, rec *graph.Record, grad []float64, _ Config) ([][]float64, error) {
	return scaledGrad(rec, grad, 1, 1), nil
}

func subtractGrad(_ *graph.Graph, rec *graph.Record, grad []float64, _ Config) ([][]float64, error) {
	return scaledGrad(rec, grad, 1, -1), nil
}
