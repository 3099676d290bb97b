package criterion

import (
	"math"

	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/graph"
)

// NGramCounter builds a transducer that maps any sequence over numTokens
// labels to each of its length-n windows: free i:ε loops before and after an
// n-step linear acceptor.
func NGramCounter(n, numTokens int) *graph.Graph {
	g := graph.LinearGraph(n, numTokens, false)
	for i := 0; i < numTokens; i++ {
		g.MustAddArc(0, 0, graph.Label(i), graph.WithOutput(graph.Epsilon))
		g.MustAddArc(n, n, graph.Label(i), graph.WithOutput(graph.Epsilon))
	}
	return g
}

// CountNGram returns how many times ngram occurs in input as a contiguous
// window. Labels must lie in [0, numTokens).
func CountNGram(input, ngram []graph.Label, numTokens int) (int, error) {
	for _, seq := range [][]graph.Label{input, ngram} {
		if err := checkLabels("count_ngram", seq); err != nil {
			return 0, err
		}
		for _, l := range seq {
			if int(l) >= numTokens {
				return 0, graph.NewLabelError("count_ngram", "label %d outside vocabulary of %d", int(l), numTokens)
			}
		}
	}
	if len(ngram) == 0 {
		return 0, graph.NewShapeError("count_ngram", "empty n-gram")
	}

	right, err := ops.Compose(NGramCounter(len(ngram), numTokens), ChainGraph(ngram, false))
	if err != nil {
		return 0, err
	}
	matches, err := ops.Compose(ChainGraph(input, false), right)
	if err != nil {
		return 0, err
	}
	if matches.NumArcs() == 0 {
		return 0, nil
	}
	score, err := ops.ForwardScore(matches)
	if err != nil {
		return 0, err
	}
	return int(math.Round(math.Exp(score.Item()))), nil
}
