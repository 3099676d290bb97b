package graph

import (
	"math"
	"sort"
)

// Tolerance is the absolute weight difference Equal and Isomorphic accept.
const Tolerance = 1e-5

func weightsClose(a, b float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= Tolerance
}

// Equal reports whether a and b are identical: same node flags, and the
// same arcs in the same order with weights within Tolerance.
func Equal(a, b *Graph) bool {
	if a.NumNodes() != b.NumNodes() || a.NumArcs() != b.NumArcs() {
		return false
	}
	for i := range a.nodes {
		if a.nodes[i].start != b.nodes[i].start || a.nodes[i].accept != b.nodes[i].accept {
			return false
		}
	}
	for i := range a.arcs {
		if a.arcs[i] != b.arcs[i] || !weightsClose(a.weights[i], b.weights[i]) {
			return false
		}
	}
	return true
}

// Isomorphic reports whether a and b are equal up to a relabeling of nodes.
// Arcs are compared as multisets of (labels, weight) between matched nodes.
// The search backtracks over candidate node pairs with equal degree and
// flags; it is exponential in the worst case and meant for tests and small
// graphs.
func Isomorphic(a, b *Graph) bool {
	if a.NumNodes() != b.NumNodes() || a.NumArcs() != b.NumArcs() ||
		a.NumStart() != b.NumStart() || a.NumAccept() != b.NumAccept() {
		return false
	}
	m := &matcher{
		a:     a,
		b:     b,
		aToB:  make([]int, a.NumNodes()),
		bUsed: make([]bool, b.NumNodes()),
	}
	for i := range m.aToB {
		m.aToB[i] = -1
	}
	return m.match(0)
}

type matcher struct {
	a, b  *Graph
	aToB  []int
	bUsed []bool
}

type arcKey struct {
	out    bool
	other  int // Endpoint in b's numbering
	ilabel Label
	olabel Label
	weight float64
}

func (m *matcher) match(u int) bool {
	if u == m.a.NumNodes() {
		return true
	}
	for v := range m.b.nodes {
		if m.bUsed[v] || !m.compatible(u, v) {
			continue
		}
		m.aToB[u] = v
		m.bUsed[v] = true
		if m.consistent(u, v) && m.match(u+1) {
			return true
		}
		m.aToB[u] = -1
		m.bUsed[v] = false
	}
	return false
}

func (m *matcher) compatible(u, v int) bool {
	na, nb := m.a.nodes[u], m.b.nodes[v]
	return na.start == nb.start && na.accept == nb.accept &&
		len(na.in) == len(nb.in) && len(na.out) == len(nb.out)
}

// consistent compares the arcs between u and already matched nodes with the
// arcs between v and their images.
func (m *matcher) consistent(u, v int) bool {
	var ka []arcKey
	for _, e := range m.a.nodes[u].out {
		if d := m.aToB[m.a.arcs[e].dst]; d >= 0 {
			ka = append(ka, arcKey{true, d, m.a.arcs[e].ilabel, m.a.arcs[e].olabel, m.a.weights[e]})
		}
	}
	for _, e := range m.a.nodes[u].in {
		s := m.a.arcs[e].src
		if d := m.aToB[s]; d >= 0 && s != u {
			ka = append(ka, arcKey{false, d, m.a.arcs[e].ilabel, m.a.arcs[e].olabel, m.a.weights[e]})
		}
	}

	var kb []arcKey
	for _, e := range m.b.nodes[v].out {
		if d := m.b.arcs[e].dst; m.bUsed[d] {
			kb = append(kb, arcKey{true, d, m.b.arcs[e].ilabel, m.b.arcs[e].olabel, m.b.weights[e]})
		}
	}
	for _, e := range m.b.nodes[v].in {
		if s := m.b.arcs[e].src; m.bUsed[s] && s != v {
			kb = append(kb, arcKey{false, s, m.b.arcs[e].ilabel, m.b.arcs[e].olabel, m.b.weights[e]})
		}
	}

	if len(ka) != len(kb) {
		return false
	}
	sortKeys(ka)
	sortKeys(kb)
	for i := range ka {
		x, y := ka[i], kb[i]
		if x.out != y.out || x.other != y.other || x.ilabel != y.ilabel || x.olabel != y.olabel ||
			!weightsClose(x.weight, y.weight) {
			return false
		}
	}
	return true
}

func sortKeys(ks []arcKey) {
	sort.Slice(ks, func(i, j int) bool {
		x, y := ks[i], ks[j]
		if x.out != y.out {
			return x.out
		}
		if x.other != y.other {
			return x.other < y.other
		}
		if x.ilabel != y.ilabel {
			return x.ilabel < y.ilabel
		}
		if x.olabel != y.olabel {
			return x.olabel < y.olabel
		}
		return x.weight < y.weight
	})
}
