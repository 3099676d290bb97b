// Package graph implements the weighted finite-state graph shared by every
// operator in gtn.
//
// A Graph is a directed multigraph. Each arc carries an input label, an
// output label and a float64 weight. Graphs whose input and output labels
// agree on every arc are acceptors; the others are transducers. Nodes may be
// start nodes, accept nodes, both or neither.
//
// Graphs built with calcGrad enabled own a gradient buffer with one slot per
// arc, allocated on the first accumulation. Graphs produced by operators keep
// a Record of their inputs so the autodiff engine can walk back through them.
package graph

import (
	"fmt"
	"strings"
	"sync"
)

// Label identifies an arc symbol. Valid labels are non-negative.
type Label int

// Epsilon is the empty-string label.
const Epsilon Label = -1

// Valid reports whether l may be placed on an arc.
func (l Label) Valid() bool {
	return l >= 0 || l == Epsilon
}

// String implements fmt.Stringer.
func (l Label) String() string {
	if l == Epsilon {
		return "ε"
	}
	return fmt.Sprintf("%d", int(l))
}

type node struct {
	start  bool
	accept bool
	in     []int
	out    []int
}

type arc struct {
	src    int
	dst    int
	ilabel Label
	olabel Label
}

// Graph is a weighted finite-state acceptor or transducer.
//
// Structure is not safe for concurrent mutation. Gradient accumulation is
// serialized, so several backward passes may share a leaf graph.
type Graph struct {
	nodes   []node
	arcs    []arc
	weights []float64
	starts  []int
	accepts []int

	calcGrad bool

	mu   sync.Mutex
	grad []float64

	// Guarded by mu. consumers counts the live records that list this graph
	// as an input.
	record    *Record
	consumers int
	released  bool
}

// New creates an empty graph. When calcGrad is true the graph accumulates
// gradients for its arc weights during backward passes.
func New(calcGrad bool) *Graph {
	return &Graph{calcGrad: calcGrad}
}

// ArcOption configures an arc added with AddArc.
type ArcOption func(*arcOptions)

type arcOptions struct {
	olabel    Label
	hasOutput bool
	weight    float64
}

// WithOutput sets the output label of the arc. Without it the output label
// equals the input label.
func WithOutput(l Label) ArcOption {
	return func(o *arcOptions) {
		o.olabel = l
		o.hasOutput = true
	}
}

// WithWeight sets the arc weight. The default weight is 0.
func WithWeight(w float64) ArcOption {
	return func(o *arcOptions) {
		o.weight = w
	}
}

// AddNode appends a node and returns its index.
func (g *Graph) AddNode(start, accept bool) int {
	id := len(g.nodes)
	g.nodes = append(g.nodes, node{start: start, accept: accept})
	if start {
		g.starts = append(g.starts, id)
	}
	if accept {
		g.accepts = append(g.accepts, id)
	}
	return id
}

// MakeAccept marks an existing node as accepting.
func (g *Graph) MakeAccept(n int) error {
	if n < 0 || n >= len(g.nodes) {
		return newShapeError("make_accept", "node %d out of range [0, %d)", n, len(g.nodes))
	}
	if !g.nodes[n].accept {
		g.nodes[n].accept = true
		g.accepts = append(g.accepts, n)
	}
	return nil
}

// AddArc appends an arc from src to dst and returns its index.
func (g *Graph) AddArc(src, dst int, label Label, opts ...ArcOption) (int, error) {
	o := arcOptions{olabel: label}
	for _, opt := range opts {
		opt(&o)
	}
	if src < 0 || src >= len(g.nodes) || dst < 0 || dst >= len(g.nodes) {
		return -1, newShapeError("add_arc", "arc %d->%d references a node outside [0, %d)", src, dst, len(g.nodes))
	}
	if !label.Valid() {
		return -1, newLabelError("add_arc", "input label %d is neither epsilon nor non-negative", int(label))
	}
	if !o.olabel.Valid() {
		return -1, newLabelError("add_arc", "output label %d is neither epsilon nor non-negative", int(o.olabel))
	}

	id := len(g.arcs)
	g.arcs = append(g.arcs, arc{src: src, dst: dst, ilabel: label, olabel: o.olabel})
	g.weights = append(g.weights, o.weight)
	g.nodes[src].out = append(g.nodes[src].out, id)
	g.nodes[dst].in = append(g.nodes[dst].in, id)
	return id, nil
}

// MustAddArc is like AddArc but panics on error. It is meant for builders
// whose node indices and labels are valid by construction.
func (g *Graph) MustAddArc(src, dst int, label Label, opts ...ArcOption) int {
	id, err := g.AddArc(src, dst, label, opts...)
	if err != nil {
		panic(err)
	}
	return id
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumArcs returns the number of arcs.
func (g *Graph) NumArcs() int { return len(g.arcs) }

// NumStart returns the number of start nodes.
func (g *Graph) NumStart() int { return len(g.starts) }

// NumAccept returns the number of accept nodes.
func (g *Graph) NumAccept() int { return len(g.accepts) }

// Start returns the start nodes in the order they were marked.
func (g *Graph) Start() []int { return append([]int(nil), g.starts...) }

// Accept returns the accept nodes in the order they were marked.
func (g *Graph) Accept() []int { return append([]int(nil), g.accepts...) }

// IsStart reports whether n is a start node.
func (g *Graph) IsStart(n int) bool { return g.nodes[n].start }

// IsAccept reports whether n is an accept node.
func (g *Graph) IsAccept(n int) bool { return g.nodes[n].accept }

// In returns the indices of the arcs entering n. The slice must not be modified.
func (g *Graph) In(n int) []int { return g.nodes[n].in }

// Out returns the indices of the arcs leaving n. The slice must not be modified.
func (g *Graph) Out(n int) []int { return g.nodes[n].out }

// Src returns the source node of arc a.
func (g *Graph) Src(a int) int { return g.arcs[a].src }

// Dst returns the destination node of arc a.
func (g *Graph) Dst(a int) int { return g.arcs[a].dst }

// ILabel returns the input label of arc a.
func (g *Graph) ILabel(a int) Label { return g.arcs[a].ilabel }

// OLabel returns the output label of arc a.
func (g *Graph) OLabel(a int) Label { return g.arcs[a].olabel }

// IsAcceptor reports whether every arc has equal input and output labels.
func (g *Graph) IsAcceptor() bool {
	for _, a := range g.arcs {
		if a.ilabel != a.olabel {
			return false
		}
	}
	return true
}

// Weight returns the weight of arc a.
func (g *Graph) Weight(a int) float64 { return g.weights[a] }

// SetWeight overwrites the weight of arc a.
func (g *Graph) SetWeight(a int, w float64) error {
	if a < 0 || a >= len(g.arcs) {
		return newShapeError("set_weight", "arc %d out of range [0, %d)", a, len(g.arcs))
	}
	g.weights[a] = w
	return nil
}

// Weights returns a copy of the arc weights in arc order.
func (g *Graph) Weights() []float64 {
	return append([]float64(nil), g.weights...)
}

// SetWeights overwrites every arc weight. The slice length must equal NumArcs.
func (g *Graph) SetWeights(w []float64) error {
	if len(w) != len(g.arcs) {
		return newShapeError("set_weights", "got %d weights for %d arcs", len(w), len(g.arcs))
	}
	copy(g.weights, w)
	return nil
}

// CalcGrad reports whether the graph tracks gradients.
func (g *Graph) CalcGrad() bool { return g.calcGrad }

// SetCalcGrad toggles gradient tracking. Disabling it drops any accumulated
// gradient and the autograd record.
func (g *Graph) SetCalcGrad(calcGrad bool) {
	g.calcGrad = calcGrad
	if !calcGrad {
		g.mu.Lock()
		g.grad = nil
		g.record = nil
		g.mu.Unlock()
	}
}

// Grad returns a copy of the accumulated gradient, one entry per arc.
func (g *Graph) Grad() ([]float64, error) {
	if !g.calcGrad {
		return nil, newNoGradientError("grad", "graph does not track gradients")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.grad == nil {
		return nil, newNoGradientError("grad", "no gradient has been accumulated")
	}
	return append([]float64(nil), g.grad...), nil
}

// ZeroGrad resets the accumulated gradient to zero.
func (g *Graph) ZeroGrad() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.grad {
		g.grad[i] = 0
	}
}

// AddGrad adds delta into the gradient buffer, allocating it on first use.
// It is a no-op for graphs that do not track gradients.
func (g *Graph) AddGrad(delta []float64) error {
	if !g.calcGrad {
		return nil
	}
	if len(delta) != len(g.arcs) {
		return newShapeError("add_grad", "got %d gradient entries for %d arcs", len(delta), len(g.arcs))
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.grad) != len(g.arcs) {
		grown := make([]float64, len(g.arcs))
		copy(grown, g.grad)
		g.grad = grown
	}
	for i, d := range delta {
		g.grad[i] += d
	}
	return nil
}

// Item returns the weight of a scalar graph. It panics if the graph does not
// have exactly one arc.
func (g *Graph) Item() float64 {
	if len(g.arcs) != 1 {
		panic(fmt.Sprintf("graph: Item() requires a scalar graph with one arc, got %d arcs", len(g.arcs)))
	}
	return g.weights[0]
}

// IsScalar reports whether g has exactly one arc.
func (g *Graph) IsScalar() bool { return len(g.arcs) == 1 }

// String renders the graph in a line-oriented text form:
// start and accept node lists followed by one line per arc.
func (g *Graph) String() string {
	var sb strings.Builder
	sb.WriteString("start:")
	for _, s := range g.starts {
		fmt.Fprintf(&sb, " %d", s)
	}
	sb.WriteString("\naccept:")
	for _, a := range g.accepts {
		fmt.Fprintf(&sb, " %d", a)
	}
	sb.WriteByte('\n')
	for i, a := range g.arcs {
		fmt.Fprintf(&sb, "%d %d %s:%s %g\n", a.src, a.dst, a.ilabel, a.olabel, g.weights[i])
	}
	return sb.String()
}
