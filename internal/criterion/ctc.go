package criterion

import (
	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/graph"
)

// CTCTargetGraph builds the CTC alignment acceptor for target: 2L+1 nodes
// alternating blank and target labels, each with a self loop. A target label
// may skip the preceding blank unless it repeats the previous label. The last
// two nodes accept.
func CTCTargetGraph(target []graph.Label, blank graph.Label) (*graph.Graph, error) {
	if err := checkLabels("ctc_target", target); err != nil {
		return nil, err
	}
	if blank < 0 {
		return nil, graph.NewLabelError("ctc_target", "blank label %d is negative", int(blank))
	}

	size := 2*len(target) + 1
	g := graph.New(false)
	for pos := 0; pos < size; pos++ {
		g.AddNode(pos == 0, pos == size-1 || pos == size-2)
		label := blank
		if pos%2 == 1 {
			label = target[(pos-1)/2]
		}
		g.MustAddArc(pos, pos, label)
		if pos > 0 {
			g.MustAddArc(pos-1, pos, label)
		}
		if pos%2 == 1 && pos > 1 && label != target[(pos-1)/2-1] {
			g.MustAddArc(pos-2, pos, label)
		}
	}
	return g, nil
}

// CTCLoss returns the negative log-likelihood of target under the emissions
// lattice, -log Σ over CTC alignments.
func CTCLoss(emissions *graph.Graph, target []graph.Label, blank graph.Label) (*graph.Graph, error) {
	ctc, err := CTCTargetGraph(target, blank)
	if err != nil {
		return nil, err
	}
	alignments, err := ops.Compose(ctc, emissions)
	if err != nil {
		return nil, err
	}
	score, err := ops.ForwardScore(alignments)
	if err != nil {
		return nil, err
	}
	return ops.Negate(score)
}

// OptionalInsertionGraph builds a transducer that copies symbols and may
// insert one of inserts after each symbol listed in bases. Composed with a
// CTC target graph it lets alignments include optional marks, such as
// diacritics, that the reference transcript omits.
func OptionalInsertionGraph(symbols, bases, inserts []graph.Label) *graph.Graph {
	g := graph.New(false)
	free := g.AddNode(true, true)
	after := g.AddNode(false, false)

	isBase := make(map[graph.Label]bool, len(bases))
	for _, b := range bases {
		isBase[b] = true
	}
	for _, s := range symbols {
		if isBase[s] {
			g.MustAddArc(free, after, s)
		} else {
			g.MustAddArc(free, free, s)
		}
	}
	for _, d := range inserts {
		g.MustAddArc(after, free, graph.Epsilon, graph.WithOutput(d))
	}
	g.MustAddArc(after, free, graph.Epsilon)
	return g
}
