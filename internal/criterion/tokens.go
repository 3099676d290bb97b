package criterion

import (
	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/graph"
)

// TokenGraph builds a transducer that reads label one or more times and
// writes it once.
func TokenGraph(label graph.Label, calcGrad bool) *graph.Graph {
	g := graph.New(calcGrad)
	g.AddNode(true, false)
	g.AddNode(false, true)
	g.MustAddArc(0, 1, label)
	g.MustAddArc(1, 1, label, graph.WithOutput(graph.Epsilon))
	return g
}

// BlankTokenGraph builds a transducer that reads blank one or more times and
// writes nothing.
func BlankTokenGraph(blank graph.Label, calcGrad bool) *graph.Graph {
	g := graph.New(calcGrad)
	g.AddNode(true, false)
	g.AddNode(false, true)
	g.MustAddArc(0, 1, blank, graph.WithOutput(graph.Epsilon))
	g.MustAddArc(1, 1, blank, graph.WithOutput(graph.Epsilon))
	return g
}

// TokenSet returns the closure of the union of the given token graphs, the
// lexicon transducer from frame-level labels to token sequences.
func TokenSet(tokens ...*graph.Graph) (*graph.Graph, error) {
	u, err := ops.Union(tokens...)
	if err != nil {
		return nil, err
	}
	return ops.Closure(u)
}

// Decompositions returns the acceptor of every frame-level label sequence the
// lexicon maps onto word: lexicon ∘ word without its ε arcs, projected onto
// the input labels.
func Decompositions(lexicon, word *graph.Graph) (*graph.Graph, error) {
	c, err := ops.Compose(lexicon, word)
	if err != nil {
		return nil, err
	}
	if c, err = ops.RemoveEpsilon(c); err != nil {
		return nil, err
	}
	return ops.ProjectInput(c)
}
