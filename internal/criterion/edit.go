package criterion

import (
	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/graph"
)

// EditsGraph builds the single-node Levenshtein transducer over numTokens
// labels. Matches are free; substitutions, deletions (i:ε) and insertions
// (ε:i) each score -1.
func EditsGraph(numTokens int) *graph.Graph {
	g := graph.New(false)
	g.AddNode(true, true)
	for i := 0; i < numTokens; i++ {
		for j := 0; j < numTokens; j++ {
			w := 0.0
			if i != j {
				w = -1
			}
			g.MustAddArc(0, 0, graph.Label(i), graph.WithOutput(graph.Label(j)), graph.WithWeight(w))
		}
	}
	for i := 0; i < numTokens; i++ {
		g.MustAddArc(0, 0, graph.Label(i), graph.WithOutput(graph.Epsilon), graph.WithWeight(-1))
		g.MustAddArc(0, 0, graph.Epsilon, graph.WithOutput(graph.Label(i)), graph.WithWeight(-1))
	}
	return g
}

// EditDistance returns the Levenshtein distance between x and y, computed as
// the negated best path through x ∘ edits ∘ y.
func EditDistance(x, y []graph.Label, numTokens int) (int, error) {
	for _, seq := range [][]graph.Label{x, y} {
		if err := checkLabels("edit_distance", seq); err != nil {
			return 0, err
		}
		for _, l := range seq {
			if int(l) >= numTokens {
				return 0, graph.NewLabelError("edit_distance", "label %d outside vocabulary of %d", int(l), numTokens)
			}
		}
	}

	right, err := ops.Compose(EditsGraph(numTokens), ChainGraph(y, false))
	if err != nil {
		return 0, err
	}
	alignments, err := ops.Compose(ChainGraph(x, false), right)
	if err != nil {
		return 0, err
	}
	best, err := ops.ViterbiScore(alignments)
	if err != nil {
		return 0, err
	}
	return int(-best.Item()), nil
}
