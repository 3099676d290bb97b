package ops

import (
	"github.com/born-ml/gtn/internal/graph"
	"github.com/born-ml/gtn/internal/parallel"
)

// arcPair links an arc of a product graph to the arcs of the two operands
// that produced it. A side that did not move is -1.
type arcPair struct {
	first  int
	second int
}

// Filter states of the product construction. Moves on epsilon in only one
// operand change the state so that each alignment of epsilon arcs is
// generated once.
const (
	filterFree  uint8 = iota // Any move allowed
	filterFirst              // Last move advanced only the first operand
	filterSecond             // Last move advanced only the second operand
)

type productState struct {
	a, b   int
	filter uint8
}

type productArc struct {
	src, dst       int
	ilabel, olabel graph.Label
	weight         float64
	pair           arcPair
}

// Compose returns the composition of two transducers. A path of the result
// maps x to z with weight wA+wB for every pair of paths, one mapping x to y
// in a and one mapping y to z in b. Epsilon outputs of a and epsilon inputs
// of b advance one operand at a time.
func Compose(a, b *graph.Graph) (*graph.Graph, error) {
	if a == nil || b == nil {
		return nil, graph.NewShapeError("compose", "nil operand")
	}
	out, pairs := product(a, b)
	out.SetRecord(graph.OpCompose, pairs, a, b)
	return out, nil
}

// Intersect returns the acceptor of label sequences accepted by both a and
// b, weighted by the sum of their path weights.
func Intersect(a, b *graph.Graph) (*graph.Graph, error) {
	if a == nil || b == nil {
		return nil, graph.NewShapeError("intersect", "nil operand")
	}
	if !a.IsAcceptor() || !b.IsAcceptor() {
		return nil, graph.NewLabelError("intersect", "both operands must be acceptors")
	}
	out, pairs := product(a, b)
	out.SetRecord(graph.OpIntersect, pairs, a, b)
	return out, nil
}

// product explores the reachable product states breadth first, then keeps
// the states from which an accepting state can be reached, numbered in
// discovery order.
func product(a, b *graph.Graph) (*graph.Graph, []arcPair) {
	ids := make(map[productState]int)
	var states []productState
	var arcs []productArc

	visit := func(s productState) int {
		if id, ok := ids[s]; ok {
			return id
		}
		id := len(states)
		ids[s] = id
		states = append(states, s)
		return id
	}
	for _, sa := range a.Start() {
		for _, sb := range b.Start() {
			visit(productState{a: sa, b: sb, filter: filterFree})
		}
	}
	numStart := len(states)

	wa, wb := a.Weights(), b.Weights()
	for head := 0; head < len(states); head++ {
		s := states[head]
		for _, ea := range a.Out(s.a) {
			la := a.OLabel(ea)
			for _, eb := range b.Out(s.b) {
				lb := b.ILabel(eb)
				if la != lb || (la == graph.Epsilon && s.filter != filterFree) {
					continue
				}
				dst := visit(productState{a: a.Dst(ea), b: b.Dst(eb), filter: filterFree})
				arcs = append(arcs, productArc{
					src: head, dst: dst,
					ilabel: a.ILabel(ea), olabel: b.OLabel(eb),
					weight: wa[ea] + wb[eb],
					pair:   arcPair{ea, eb},
				})
			}
		}
		if s.filter != filterSecond {
			for _, ea := range a.Out(s.a) {
				if a.OLabel(ea) != graph.Epsilon {
					continue
				}
				dst := visit(productState{a: a.Dst(ea), b: s.b, filter: filterFirst})
				arcs = append(arcs, productArc{
					src: head, dst: dst,
					ilabel: a.ILabel(ea), olabel: graph.Epsilon,
					weight: wa[ea],
					pair:   arcPair{ea, -1},
				})
			}
		}
		if s.filter != filterFirst {
			for _, eb := range b.Out(s.b) {
				if b.ILabel(eb) != graph.Epsilon {
					continue
				}
				dst := visit(productState{a: s.a, b: b.Dst(eb), filter: filterSecond})
				arcs = append(arcs, productArc{
					src: head, dst: dst,
					ilabel: graph.Epsilon, olabel: b.OLabel(eb),
					weight: wb[eb],
					pair:   arcPair{-1, eb},
				})
			}
		}
	}

	// Co-accessibility over the reversed product arcs.
	incoming := make([][]int, len(states))
	for i, e := range arcs {
		incoming[e.dst] = append(incoming[e.dst], i)
	}
	keep := make([]bool, len(states))
	var stack []int
	for id, s := range states {
		if a.IsAccept(s.a) && b.IsAccept(s.b) {
			keep[id] = true
			stack = append(stack, id)
		}
	}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, i := range incoming[u] {
			if src := arcs[i].src; !keep[src] {
				keep[src] = true
				stack = append(stack, src)
			}
		}
	}

	out := graph.New(a.CalcGrad() || b.CalcGrad())
	remap := make([]int, len(states))
	for id, s := range states {
		remap[id] = -1
		if keep[id] {
			remap[id] = out.AddNode(id < numStart, a.IsAccept(s.a) && b.IsAccept(s.b))
		}
	}
	pairs := make([]arcPair, 0, len(arcs))
	for _, e := range arcs {
		if !keep[e.src] || !keep[e.dst] {
			continue
		}
		out.MustAddArc(remap[e.src], remap[e.dst], e.ilabel,
			graph.WithOutput(e.olabel), graph.WithWeight(e.weight))
		pairs = append(pairs, e.pair)
	}
	return out, pairs
}

// productGrad routes each output arc's gradient to the operand arcs it was
// built from. Several output arcs may share an operand arc.
func productGrad(_ *graph.Graph, rec *graph.Record, grad []float64, cfg Config) ([][]float64, error) {
	pairs := rec.Payload.([]arcPair)
	a, b := rec.Inputs[0], rec.Inputs[1]
	res := make([][]float64, 2)
	if a.CalcGrad() {
		res[0] = parallel.ScatterAdd(len(pairs), a.NumArcs(), func(i int, dst []float64) {
			if p := pairs[i].first; p >= 0 {
				dst[p] += grad[i]
			}
		}, cfg.Parallel)
	}
	if b.CalcGrad() {
		res[1] = parallel.ScatterAdd(len(pairs), b.NumArcs(), func(i int, dst []float64) {
			if p := pairs[i].second; p >= 0 {
				dst[p] += grad[i]
			}
		}, cfg.Parallel)
	}
	return res, nil
}
