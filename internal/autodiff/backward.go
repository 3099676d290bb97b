package autodiff

import (
	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/graph"
)

// Backward computes the gradient of g's arc weights with respect to every
// graph that tracks gradients and contributed to g, and adds it to their
// gradient buffers. The pass is seeded with ones (1.0 for a scalar loss)
// unless WithGrad is given.
//
// Nothing is accumulated when an error is returned.
func Backward(g *graph.Graph, opts ...Option) error {
	o := options{cfg: ops.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if g == nil {
		return graph.NewShapeError("backward", "nil graph")
	}
	if !g.CalcGrad() {
		return graph.NewNoGradientError("backward", "graph does not track gradients")
	}

	seed := o.grad
	if seed == nil {
		seed = make([]float64, g.NumArcs())
		for i := range seed {
			seed[i] = 1
		}
	} else if len(seed) != g.NumArcs() {
		return graph.NewShapeError("backward", "got %d seed entries for %d arcs", len(seed), g.NumArcs())
	}

	tape := NewTape(g)
	if err := tape.Validate(); err != nil {
		return err
	}
	grads, err := tape.Backward(seed, o.cfg)
	if err != nil {
		return err
	}

	for _, n := range tape.order {
		if grad, ok := grads[n]; ok {
			if err := n.AddGrad(grad); err != nil {
				return err
			}
		}
	}
	if !o.retain {
		tape.Release()
	}
	return nil
}

// Backward walks the tape in reverse, starting from seed at the root, and
// returns the summed gradient of every graph that tracks gradients.
func (t *Tape) Backward(seed []float64, cfg ops.Config) (map[*graph.Graph][]float64, error) {
	grads := map[*graph.Graph][]float64{t.root: append([]float64(nil), seed...)}

	for i := len(t.order) - 1; i >= 0; i-- {
		g := t.order[i]
		rec := t.records[g]
		grad, ok := grads[g]
		if !ok || rec == nil {
			continue
		}
		inputGrads, err := ops.BackwardRecord(g, rec, grad, cfg)
		if err != nil {
			return nil, err
		}
		for j, in := range rec.Inputs {
			if j >= len(inputGrads) || inputGrads[j] == nil || !in.CalcGrad() {
				continue
			}
			accumulate(grads, in, inputGrads[j])
		}
	}
	return grads, nil
}

// accumulate sums grad into the entry for g. The same graph may feed several
// operators.
func accumulate(grads map[*graph.Graph][]float64, g *graph.Graph, grad []float64) {
	existing, ok := grads[g]
	if !ok {
		grads[g] = grad
		return
	}
	for i, v := range grad {
		existing[i] += v
	}
}
