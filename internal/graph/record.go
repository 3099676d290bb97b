package graph

// OpKind tags the operator that produced a graph.
type OpKind uint8

// Operator kinds.
const (
	OpClone OpKind = iota + 1
	OpProjectInput
	OpProjectOutput
	OpNegate
	OpAdd
	OpSubtract
	OpUnion
	OpConcat
	OpClosure
	OpCompose
	OpIntersect
	OpRemove
	OpForwardScore
	OpViterbiScore
	OpViterbiPath
)

var opNames = map[OpKind]string{
	OpClone:         "clone",
	OpProjectInput:  "project_input",
	OpProjectOutput: "project_output",
	OpNegate:        "negate",
	OpAdd:           "add",
	OpSubtract:      "subtract",
	OpUnion:         "union",
	OpConcat:        "concat",
	OpClosure:       "closure",
	OpCompose:       "compose",
	OpIntersect:     "intersect",
	OpRemove:        "remove",
	OpForwardScore:  "forward_score",
	OpViterbiScore:  "viterbi_score",
	OpViterbiPath:   "viterbi_path",
}

// String implements fmt.Stringer.
func (k OpKind) String() string {
	if s, ok := opNames[k]; ok {
		return s
	}
	return "unknown"
}

// Record links an operator's output graph to the graphs it was computed from.
type Record struct {
	Kind    OpKind
	Inputs  []*Graph
	Payload any // Operator-specific arc mapping or forward-pass cache

	inputArcs  []int
	outputArcs int
}

// Record returns the autograd record of g, or nil for leaves and released graphs.
func (g *Graph) Record() *Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record
}

// Released reports whether g lost its record to ReleaseRecord. A released
// graph can no longer pass gradients to its inputs.
func (g *Graph) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// SetRecord attaches an autograd record to g when g tracks gradients.
// The arc counts of g and its inputs are captured for validation at
// backward time, and every input gains g as a consumer.
func (g *Graph) SetRecord(kind OpKind, payload any, inputs ...*Graph) {
	if !g.calcGrad {
		return
	}
	counts := make([]int, len(inputs))
	for i, in := range inputs {
		counts[i] = in.NumArcs()
		in.mu.Lock()
		in.consumers++
		in.mu.Unlock()
	}
	rec := &Record{
		Kind:       kind,
		Inputs:     inputs,
		Payload:    payload,
		inputArcs:  counts,
		outputArcs: g.NumArcs(),
	}
	g.mu.Lock()
	g.record = rec
	g.released = false
	g.mu.Unlock()
}

// ReleaseRecord drops g's record unless another recorded graph still
// consumes g. Dropping a record releases each input whose last consumer it
// was, so an intermediate shared by two losses keeps its record until both
// have run backward.
func (g *Graph) ReleaseRecord() {
	stack := []*Graph{g}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n.mu.Lock()
		rec := n.record
		if rec == nil || n.consumers > 0 {
			n.mu.Unlock()
			continue
		}
		n.record = nil
		n.released = true
		n.mu.Unlock()

		for _, in := range rec.Inputs {
			in.mu.Lock()
			in.consumers--
			last := in.consumers == 0 && in.record != nil
			in.mu.Unlock()
			if last {
				stack = append(stack, in)
			}
		}
	}
}

// Validate checks that neither the output nor any input changed shape since
// the record was created.
func (r *Record) Validate(out *Graph) error {
	if out.NumArcs() != r.outputArcs {
		return newShapeError(r.Kind.String(), "output had %d arcs when recorded, now %d", r.outputArcs, out.NumArcs())
	}
	for i, in := range r.Inputs {
		if in.NumArcs() != r.inputArcs[i] {
			return newShapeError(r.Kind.String(), "input %d had %d arcs when recorded, now %d", i, r.inputArcs[i], in.NumArcs())
		}
	}
	return nil
}

// AnyCalcGrad reports whether any of gs tracks gradients.
func AnyCalcGrad(gs ...*Graph) bool {
	for _, g := range gs {
		if g.calcGrad {
			return true
		}
	}
	return false
}
