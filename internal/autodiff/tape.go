package autodiff

import "github.com/born-ml/gtn/internal/graph"

// Tape lists the recorded graphs reachable from a root in execution order:
// every graph appears after the inputs it was computed from. The records
// are read once, so a concurrent release elsewhere does not change the
// tape.
type Tape struct {
	root    *graph.Graph
	order   []*graph.Graph
	records map[*graph.Graph]*graph.Record
}

// NewTape collects the graphs reachable from root through autograd records
// and orders them by depth-first post-order.
func NewTape(root *graph.Graph) *Tape {
	t := &Tape{root: root, records: make(map[*graph.Graph]*graph.Record)}
	visited := make(map[*graph.Graph]bool)
	var visit func(g *graph.Graph)
	visit = func(g *graph.Graph) {
		if visited[g] {
			return
		}
		visited[g] = true
		if rec := g.Record(); rec != nil {
			t.records[g] = rec
			for _, in := range rec.Inputs {
				visit(in)
			}
		}
		t.order = append(t.order, g)
	}
	visit(root)
	return t
}

// Len returns the number of graphs on the tape.
func (t *Tape) Len() int { return len(t.order) }

// Graphs returns the graphs in execution order.
func (t *Tape) Graphs() []*graph.Graph { return append([]*graph.Graph(nil), t.order...) }

// Validate checks every record against the current shape of its graphs and
// rejects graphs whose record an earlier backward pass released.
func (t *Tape) Validate() error {
	for i, g := range t.order {
		rec, ok := t.records[g]
		if !ok {
			if g.Released() {
				return graph.NewNoGradientError("backward",
					"graph %d on the tape was released by an earlier backward pass; use RetainGraph to run backward twice", i)
			}
			continue
		}
		if err := rec.Validate(g); err != nil {
			return err
		}
	}
	return nil
}

// Release drops the root's record and, through it, the record of every
// graph on the tape that no other recorded graph still consumes.
func (t *Tape) Release() {
	t.root.ReleaseRecord()
}
