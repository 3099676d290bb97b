package ops_test

import (
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/born-ml/gtn/internal/graph"
	"github.com/stretchr/testify/require"
)

const eps = graph.Epsilon

type arcSpec struct {
	src, dst int
	in, out  graph.Label
	w        float64
}

// acc is an acceptor arc.
func acc(src, dst int, l graph.Label, w float64) arcSpec {
	return arcSpec{src, dst, l, l, w}
}

// build creates a graph with node flags given as "s", "a", "sa" or "".
func build(t *testing.T, calcGrad bool, nodes []string, arcs ...arcSpec) *graph.Graph {
	t.Helper()
	g := graph.New(calcGrad)
	for _, flags := range nodes {
		g.AddNode(strings.Contains(flags, "s"), strings.Contains(flags, "a"))
	}
	for _, a := range arcs {
		_, err := g.AddArc(a.src, a.dst, a.in, graph.WithOutput(a.out), graph.WithWeight(a.w))
		require.NoError(t, err)
	}
	return g
}

// pathScores enumerates every accepting path of an acyclic graph and returns
// the log-sum of path weights per (input, output) label string, epsilons
// dropped.
func pathScores(g *graph.Graph) map[string]float64 {
	scores := make(map[string]float64)
	var walk func(u int, in, out []graph.Label, w float64)
	walk = func(u int, in, out []graph.Label, w float64) {
		if g.IsAccept(u) {
			key := labelKey(in) + "|" + labelKey(out)
			if old, ok := scores[key]; ok {
				scores[key] = logAdd(old, w)
			} else {
				scores[key] = w
			}
		}
		for _, a := range g.Out(u) {
			nin, nout := in, out
			if l := g.ILabel(a); l != eps {
				nin = append(append([]graph.Label(nil), in...), l)
			}
			if l := g.OLabel(a); l != eps {
				nout = append(append([]graph.Label(nil), out...), l)
			}
			walk(g.Dst(a), nin, nout, w+g.Weight(a))
		}
	}
	for _, s := range g.Start() {
		walk(s, nil, nil, 0)
	}
	return scores
}

func labelKey(ls []graph.Label) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.String()
	}
	return strings.Join(parts, ",")
}

func logAdd(a, b float64) float64 {
	m := math.Max(a, b)
	return m + math.Log(math.Exp(a-m)+math.Exp(b-m))
}

// acceptedStrings returns the input strings of length at most maxLen
// accepted by g, ignoring weights. Cycles are allowed.
func acceptedStrings(g *graph.Graph, maxLen int) []string {
	type item struct {
		node int
		str  string
		n    int
	}
	seen := make(map[item]bool)
	found := make(map[string]bool)
	var queue []item
	for _, s := range g.Start() {
		queue = append(queue, item{node: s})
	}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if seen[it] {
			continue
		}
		seen[it] = true
		if g.IsAccept(it.node) {
			found[it.str] = true
		}
		for _, a := range g.Out(it.node) {
			next := item{node: g.Dst(a), str: it.str, n: it.n}
			if l := g.ILabel(a); l != eps {
				if it.n == maxLen {
					continue
				}
				next.str += l.String() + " "
				next.n++
			}
			queue = append(queue, next)
		}
	}
	out := make([]string, 0, len(found))
	for s := range found {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
