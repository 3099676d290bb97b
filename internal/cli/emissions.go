package cli

import (
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/born-ml/gtn/internal/graph"
	"github.com/born-ml/gtn/internal/tokenizer"
)

// randomEmissions builds a frames×vocab lattice whose rows are
// log-normalized Gaussian scores.
func randomEmissions(frames, vocab int, seed uint64, calcGrad bool) (*graph.Graph, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	w := make([]float64, frames*vocab)
	for f := 0; f < frames; f++ {
		row := w[f*vocab : (f+1)*vocab]
		for v := range row {
			row[v] = rng.NormFloat64()
		}
		logSoftmax(row)
	}
	g := graph.LinearGraph(frames, vocab, calcGrad)
	if err := g.SetWeights(w); err != nil {
		return nil, err
	}
	return g, nil
}

func logSoftmax(row []float64) {
	m := math.Inf(-1)
	for _, x := range row {
		m = max(m, x)
	}
	sum := 0.0
	for _, x := range row {
		sum += math.Exp(x - m)
	}
	z := m + math.Log(sum)
	for i := range row {
		row[i] -= z
	}
}

// pathLabels returns the input labels of a chain graph in order.
func pathLabels(g *graph.Graph) []graph.Label {
	out := make([]graph.Label, g.NumArcs())
	for a := range out {
		out[a] = g.ILabel(a)
	}
	return out
}

func formatLabels(ls []graph.Label) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = strconv.Itoa(int(l))
	}
	return strings.Join(parts, ",")
}

// collapseRepeats merges runs of equal labels.
func collapseRepeats(ls []graph.Label) []graph.Label {
	var out []graph.Label
	for i, l := range ls {
		if i == 0 || l != ls[i-1] {
			out = append(out, l)
		}
	}
	return out
}

// textTokenizer builds a symbol table over the characters of texts.
func textTokenizer(texts ...string) (*tokenizer.CharTokenizer, error) {
	seen := make(map[string]bool)
	var symbols []string
	for _, t := range texts {
		for _, r := range t {
			if s := string(r); !seen[s] {
				seen[s] = true
				symbols = append(symbols, s)
			}
		}
	}
	sort.Strings(symbols)
	return tokenizer.NewCharTokenizerFromSymbols(symbols)
}
