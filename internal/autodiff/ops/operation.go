// Package ops implements the differentiable graph operators.
//
// Every operator builds a new graph from its inputs without modifying them.
// When any input tracks gradients the output records the operator kind, the
// inputs and the data its gradient rule needs:
//   - Clone, ProjectInput, ProjectOutput: identity on arc weights
//   - Negate, Add, Subtract: scalar arithmetic
//   - Union, Concat, Closure: input arcs come first in the output, so the
//     gradient of each input is a slice of the output gradient
//   - Compose, Intersect: each output arc maps to one arc of each operand
//   - Remove: each output arc maps to the path of input arcs it replaces
//   - ForwardScore: arc posteriors from forward and backward log sums
//   - ViterbiScore, ViterbiPath: indicator of the best path's arcs
package ops

import "github.com/born-ml/gtn/internal/graph"

// GradFunc computes the gradient of each recorded input given the gradient
// of out. Entries for inputs that do not track gradients are nil.
type GradFunc func(out *graph.Graph, rec *graph.Record, grad []float64, cfg Config) ([][]float64, error)

var gradFuncs = map[graph.OpKind]GradFunc{
	graph.OpClone:         identityGrad,
	graph.OpProjectInput:  identityGrad,
	graph.OpProjectOutput: identityGrad,
	graph.OpNegate:        negateGrad,
	graph.OpAdd:           addGrad,
	graph.OpSubtract:      subtractGrad,
	graph.OpUnion:         prefixGrad,
	graph.OpConcat:        prefixGrad,
	graph.OpClosure:       prefixGrad,
	graph.OpCompose:       productGrad,
	graph.OpIntersect:     productGrad,
	graph.OpRemove:        removeGrad,
	graph.OpForwardScore:  forwardScoreGrad,
	graph.OpViterbiScore:  viterbiScoreGrad,
	graph.OpViterbiPath:   viterbiPathGrad,
}

// Backward runs the gradient rule of out's record. It returns nil for graphs
// without a record.
func Backward(out *graph.Graph, grad []float64, cfg Config) ([][]float64, error) {
	return BackwardRecord(out, out.Record(), grad, cfg)
}

// BackwardRecord is Backward against a record read earlier from out.
func BackwardRecord(out *graph.Graph, rec *graph.Record, grad []float64, cfg Config) ([][]float64, error) {
	if rec == nil {
		return nil, nil
	}
	if len(grad) != out.NumArcs() {
		return nil, graph.NewShapeError(rec.Kind.String(), "got %d gradient entries for %d arcs", len(grad), out.NumArcs())
	}
	fn, ok := gradFuncs[rec.Kind]
	if !ok {
		return nil, graph.NewShapeError(rec.Kind.String(), "no gradient rule for operator kind %d", rec.Kind)
	}
	return fn(out, rec, grad, cfg.withDefaults())
}
