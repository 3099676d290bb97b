package ops

import (
	"math"

	"github.com/born-ml/gtn/internal/graph"
)

// orientation selects which end of the graph the distances are measured from.
type orientation bool

const (
	fromStart  orientation = false // α: paths from start nodes
	fromAccept orientation = true  // β: paths to accept nodes
)

func (o orientation) incoming(g *graph.Graph, n int) []int {
	if o == fromStart {
		return g.In(n)
	}
	return g.Out(n)
}

func (o orientation) origin(g *graph.Graph, a int) int {
	if o == fromStart {
		return g.Src(a)
	}
	return g.Dst(a)
}

func (o orientation) initial(g *graph.Graph, n int) bool {
	if o == fromStart {
		return g.IsStart(n)
	}
	return g.IsAccept(n)
}

// ordered returns the components in the order distances must be computed.
func (o orientation) ordered(comps []component) []component {
	if o == fromStart {
		return comps
	}
	rev := make([]component, len(comps))
	for i, c := range comps {
		rev[len(comps)-1-i] = c
	}
	return rev
}

// logDistances computes the log-semiring path sum from the start nodes (α)
// or to the accept nodes (β) for every node. Acyclic components are solved
// in one pass. Cyclic ones are solved exactly through the Kleene star of the
// component's arc matrix, or by Gauss-Seidel iteration when the component
// has more than cfg.ExactComponentSize nodes.
func logDistances(g *graph.Graph, o orientation, weights []float64, cfg Config) ([]float64, error) {
	cfg = cfg.withDefaults()
	dist := make([]float64, g.NumNodes())
	for i := range dist {
		dist[i] = negInf
	}

	incoming := func(u int) float64 {
		acc := negInf
		if o.initial(g, u) {
			acc = 0
		}
		for _, a := range o.incoming(g, u) {
			acc = logAdd(acc, dist[o.origin(g, a)]+weights[a])
		}
		return acc
	}

	for _, c := range o.ordered(components(g)) {
		if !c.cyclic {
			u := c.nodes[0]
			dist[u] = incoming(u)
			if !finite(dist[u]) {
				return nil, graph.NewDivergentScoreError("forward_score", "node %d has score %v", u, dist[u])
			}
			continue
		}
		var err error
		if len(c.nodes) <= cfg.ExactComponentSize {
			err = solveComponent(g, o, weights, c, dist)
		} else {
			err = iterateComponent(c, dist, incoming, cfg)
		}
		if err != nil {
			return nil, err
		}
	}
	return dist, nil
}

// solveComponent fills dist for the nodes of a cyclic component from the
// closure S = M* of its internal arc matrix, dist[v] = ⊕_u entry[u] ⊗ S[u][v]
// where entry holds the contributions from outside the component. The
// closure is built with the log-semiring Floyd-Warshall recurrence and the
// component diverges iff some pivot carries a cycle sum M[k][k] >= 0.
func solveComponent(g *graph.Graph, o orientation, weights []float64, c component, dist []float64) error {
	k := len(c.nodes)
	index := make(map[int]int, k)
	for i, u := range c.nodes {
		index[u] = i
	}

	m := make([][]float64, k)
	entry := make([]float64, k)
	reached := false
	for j, u := range c.nodes {
		m[j] = make([]float64, k)
		for i := range m[j] {
			m[j][i] = negInf
		}
		entry[j] = negInf
		if o.initial(g, u) {
			entry[j] = 0
		}
	}
	for j, u := range c.nodes {
		for _, a := range o.incoming(g, u) {
			x := o.origin(g, a)
			if i, ok := index[x]; ok {
				m[i][j] = logAdd(m[i][j], weights[a])
				continue
			}
			entry[j] = logAdd(entry[j], dist[x]+weights[a])
		}
		if !math.IsInf(entry[j], -1) {
			reached = true
		}
	}
	if !reached {
		return nil
	}

	row := make([]float64, k)
	col := make([]float64, k)
	for p := 0; p < k; p++ {
		s := m[p][p]
		if s >= 0 || math.IsNaN(s) {
			return graph.NewDivergentScoreError("forward_score",
				"cycle through node %d has total weight %v", c.nodes[p], s)
		}
		star := -math.Log1p(-math.Exp(s))
		copy(row, m[p])
		for i := 0; i < k; i++ {
			col[i] = m[i][p]
		}
		for i := 0; i < k; i++ {
			if math.IsInf(col[i], -1) {
				continue
			}
			via := col[i] + star
			for j := 0; j < k; j++ {
				m[i][j] = logAdd(m[i][j], via+row[j])
			}
		}
	}

	// m now holds M+, the closure without the empty path.
	for j, v := range c.nodes {
		acc := entry[j]
		for i := 0; i < k; i++ {
			acc = logAdd(acc, entry[i]+m[i][j])
		}
		if !finite(acc) {
			return graph.NewDivergentScoreError("forward_score", "node %d has score %v", v, acc)
		}
		dist[v] = acc
	}
	return nil
}

// iterateComponent runs Gauss-Seidel sweeps over a cyclic component until
// no node moves by more than cfg.Tolerance in log space.
func iterateComponent(c component, dist []float64, incoming func(int) float64, cfg Config) error {
	maxSweeps := cfg.MaxIterationsPerNode * len(c.nodes)
	for sweep := 0; sweep < maxSweeps; sweep++ {
		delta := 0.0
		for _, u := range c.nodes {
			v := incoming(u)
			if !finite(v) {
				return graph.NewDivergentScoreError("forward_score",
					"cycle through node %d has unbounded score", u)
			}
			delta = math.Max(delta, change(dist[u], v))
			dist[u] = v
		}
		if delta <= cfg.Tolerance {
			return nil
		}
	}
	return graph.NewDivergentScoreError("forward_score",
		"cycle through node %d did not converge in %d sweeps", c.nodes[0], maxSweeps)
}

func change(old, updated float64) float64 {
	if math.IsInf(old, -1) {
		if math.IsInf(updated, -1) {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(updated - old)
}

// maxDistances computes tropical (max-plus) distances from the start nodes
// and the arc that achieves each one (-1 for the empty prefix at a start
// node or for unreachable nodes). Only strict improvements replace a
// backpointer, so backpointers never form a loop unless a cycle has positive
// weight, which is reported as divergent.
func maxDistances(g *graph.Graph, weights []float64) ([]float64, []int, error) {
	n := g.NumNodes()
	dist := make([]float64, n)
	back := make([]int, n)
	compOf := make([]int, n)
	comps := components(g)
	for ci, c := range comps {
		for _, u := range c.nodes {
			compOf[u] = ci
		}
	}

	for ci, c := range comps {
		for _, u := range c.nodes {
			dist[u], back[u] = negInf, -1
			if g.IsStart(u) {
				dist[u] = 0
			}
			for _, a := range g.In(u) {
				s := g.Src(a)
				if compOf[s] == ci {
					continue
				}
				if cand := dist[s] + weights[a]; cand > dist[u] {
					dist[u], back[u] = cand, a
				}
			}
		}
		if !c.cyclic {
			continue
		}

		for sweep := 0; ; sweep++ {
			changed := false
			for _, u := range c.nodes {
				for _, a := range g.In(u) {
					s := g.Src(a)
					if compOf[s] != ci {
						continue
					}
					if cand := dist[s] + weights[a]; improves(cand, dist[u]) {
						dist[u], back[u] = cand, a
						changed = true
					}
				}
			}
			if !changed {
				break
			}
			if sweep >= len(c.nodes) {
				return nil, nil, graph.NewDivergentScoreError("viterbi",
					"cycle through node %d has positive weight", c.nodes[0])
			}
		}
	}
	for u, d := range dist {
		if !finite(d) {
			return nil, nil, graph.NewDivergentScoreError("viterbi", "node %d has score %v", u, d)
		}
	}
	return dist, back, nil
}

func improves(cand, cur float64) bool {
	if math.IsInf(cur, -1) {
		return cand > cur
	}
	return cand > cur+1e-12*math.Max(1, math.Abs(cur))
}

// bestPath returns the max-plus score over accepting paths and the arcs of
// the best one. The score is -Inf and the path nil when no accept node is
// reachable.
func bestPath(g *graph.Graph, weights []float64) (float64, []int, error) {
	dist, back, err := maxDistances(g, weights)
	if err != nil {
		return 0, nil, err
	}
	best, end := negInf, -1
	for _, f := range g.Accept() {
		if dist[f] > best {
			best, end = dist[f], f
		}
	}
	if end < 0 {
		return negInf, nil, nil
	}

	var path []int
	for u, steps := end, 0; back[u] >= 0; steps++ {
		if steps > g.NumNodes() {
			return 0, nil, graph.NewDivergentScoreError("viterbi", "backpointers loop at node %d", u)
		}
		a := back[u]
		path = append(path, a)
		u = g.Src(a)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return best, path, nil
}
