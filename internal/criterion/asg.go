package criterion

import (
	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/graph"
)

// ASGTransitions builds the bigram transition transducer over n labels. Node
// 0 is the start node and node i+1 remembers that label i was emitted last;
// every non-start node accepts. The first n arcs carry the start scores
// (0 -> i+1), followed by n*n arcs i+1 -> j+1 labeled j.
//
// The arc weights are the learned transition scores, so calcGrad is usually
// true.
func ASGTransitions(n int, calcGrad bool) *graph.Graph {
	g := graph.New(calcGrad)
	g.AddNode(true, false)
	for i := 0; i < n; i++ {
		g.AddNode(false, true)
	}
	for i := 0; i < n; i++ {
		g.MustAddArc(0, i+1, graph.Label(i))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g.MustAddArc(i+1, j+1, graph.Label(j))
		}
	}
	return g
}

// FALGraph builds the force-align acceptor for target: each label is entered
// once and may then repeat any number of times.
func FALGraph(target []graph.Label) (*graph.Graph, error) {
	if err := checkLabels("fal", target); err != nil {
		return nil, err
	}
	g := graph.New(false)
	g.AddNode(true, len(target) == 0)
	for i, l := range target {
		g.AddNode(false, i == len(target)-1)
		g.MustAddArc(i, i+1, l)
		g.MustAddArc(i+1, i+1, l)
	}
	return g, nil
}

// ASGLoss returns the auto segmentation criterion for target: the score of
// the fully connected graph (emissions composed with transitions) minus the
// score of the force-aligned graph.
func ASGLoss(emissions, transitions *graph.Graph, target []graph.Label) (*graph.Graph, error) {
	fal, err := FALGraph(target)
	if err != nil {
		return nil, err
	}
	aligned, err := ops.Compose(fal, transitions)
	if err != nil {
		return nil, err
	}
	if aligned, err = ops.Compose(emissions, aligned); err != nil {
		return nil, err
	}
	fcc, err := ops.Compose(emissions, transitions)
	if err != nil {
		return nil, err
	}

	fccScore, err := ops.ForwardScore(fcc)
	if err != nil {
		return nil, err
	}
	falScore, err := ops.ForwardScore(aligned)
	if err != nil {
		return nil, err
	}
	return ops.Subtract(fccScore, falScore)
}
