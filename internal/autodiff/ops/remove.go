package ops

import (
	"github.com/born-ml/gtn/internal/graph"
	"github.com/born-ml/gtn/internal/parallel"
)

// RemoveEpsilon removes every arc whose input and output labels are both
// epsilon. See Remove.
func RemoveEpsilon(g *graph.Graph) (*graph.Graph, error) {
	return Remove(g, graph.Epsilon)
}

// Remove deletes the arcs labelled label:label while keeping the scored set
// of label sequences. Each path u -> v over removed arcs with weight W turns
// every kept arc v -> x into an arc u -> x with weight W plus the arc weight.
// Parallel removed paths produce parallel arcs; they are not merged.
//
// A removed path u -> f ending at an accept node f is an accepting ending of
// u. When u is not accepting and has a single unweighted ending, u simply
// becomes accepting. Otherwise every arc x -> u is copied once per ending to
// x -> f, carrying the ending's weight; f is replaced by a fresh accepting
// sink when it has outgoing arcs. A start node has no arc to copy, so
// Remove returns a ShapeError when a start node needs a weighted or a second
// acceptance, and also when the removed arcs form a cycle.
func Remove(g *graph.Graph, label graph.Label) (*graph.Graph, error) {
	if g == nil {
		return nil, graph.NewShapeError("remove", "nil graph")
	}
	if !label.Valid() {
		return nil, graph.NewLabelError("remove", "label %d is neither epsilon nor non-negative", int(label))
	}
	removed := func(a int) bool { return g.ILabel(a) == label && g.OLabel(a) == label }
	if u, ok := findRemovedCycle(g, removed); ok {
		return nil, graph.NewShapeError("remove", "arcs labelled %s form a cycle through node %d", label, u)
	}

	type pending struct {
		src, dst int
		arc      int
		weight   float64
		path     []int
	}
	type ending struct {
		accept int
		weight float64
		path   []int
	}

	n := g.NumNodes()
	weights := g.Weights()
	var arcs []pending
	endings := make([][]ending, n)
	for u := 0; u < n; u++ {
		var walk func(v int, w float64, path []int)
		walk = func(v int, w float64, path []int) {
			if g.IsAccept(v) && len(path) > 0 {
				endings[u] = append(endings[u], ending{accept: v, weight: w, path: path})
			}
			for _, e := range g.Out(v) {
				if removed(e) {
					continue
				}
				p := make([]int, len(path), len(path)+1)
				copy(p, path)
				arcs = append(arcs, pending{src: u, dst: g.Dst(e), arc: e, weight: w + weights[e], path: append(p, e)})
			}
			for _, e := range g.Out(v) {
				if removed(e) {
					walk(g.Dst(e), w+weights[e], append(path[:len(path):len(path)], e))
				}
			}
		}
		walk(u, 0, nil)
	}

	accept := make([]bool, n)
	retarget := make([]bool, n)
	for u := range accept {
		accept[u] = g.IsAccept(u)
		ends := endings[u]
		switch {
		case len(ends) == 0:
		case !accept[u] && len(ends) == 1 && ends[0].weight == 0:
			accept[u] = true
		case g.IsStart(u):
			return nil, graph.NewShapeError("remove",
				"start node %d has %d accepting endings over removed arcs (first weighs %g); it can take only one unweighted acceptance",
				u, len(ends), ends[0].weight)
		default:
			retarget[u] = true
		}
	}

	out := graph.New(g.CalcGrad())
	for u := 0; u < n; u++ {
		out.AddNode(g.IsStart(u), accept[u])
	}
	sink := -1
	target := func(f int) int {
		if len(g.Out(f)) == 0 {
			return f
		}
		if sink < 0 {
			sink = out.AddNode(false, true)
		}
		return sink
	}

	kept := len(arcs)
	for i := 0; i < kept; i++ {
		p := arcs[i]
		if !retarget[p.dst] {
			continue
		}
		for _, end := range endings[p.dst] {
			path := make([]int, 0, len(p.path)+len(end.path))
			path = append(append(path, p.path...), end.path...)
			arcs = append(arcs, pending{src: p.src, dst: target(end.accept), arc: p.arc, weight: p.weight + end.weight, path: path})
		}
	}

	sources := make([][]int, 0, len(arcs))
	for _, e := range arcs {
		out.MustAddArc(e.src, e.dst, g.ILabel(e.arc), graph.WithOutput(g.OLabel(e.arc)), graph.WithWeight(e.weight))
		sources = append(sources, e.path)
	}
	out.SetRecord(graph.OpRemove, sources, g)
	return out, nil
}

// findRemovedCycle reports a node on a cycle made only of removed arcs.
func findRemovedCycle(g *graph.Graph, removed func(int) bool) (int, bool) {
	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, g.NumNodes())
	type frame struct {
		node int
		next int
	}
	for root := range color {
		if color[root] != white {
			continue
		}
		stack := []frame{{node: root}}
		color[root] = grey
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			out := g.Out(top.node)
			if top.next == len(out) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			e := out[top.next]
			top.next++
			if !removed(e) {
				continue
			}
			switch v := g.Dst(e); color[v] {
			case grey:
				return v, true
			case white:
				color[v] = grey
				stack = append(stack, frame{node: v})
			}
		}
	}
	return -1, false
}

func removeGrad(_ *graph.Graph, rec *graph.Record, grad []float64, cfg Config) ([][]float64, error) {
	in := rec.Inputs[0]
	if !in.CalcGrad() {
		return [][]float64{nil}, nil
	}
	sources := rec.Payload.([][]int)
	res := parallel.ScatterAdd(len(sources), in.NumArcs(), func(i int, dst []float64) {
		for _, a := range sources[i] {
			dst[a] += grad[i]
		}
	}, cfg.Parallel)
	return [][]float64{res}, nil
}
