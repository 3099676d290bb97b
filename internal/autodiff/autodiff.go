// Package autodiff computes gradients of arc weights through graphs built by
// the operators in package ops.
//
// Each operator output keeps a record of its inputs, so a scalar loss is the
// root of a directed acyclic graph of records. Backward orders that DAG
// topologically, walks it from the loss back to the leaves, runs each
// operator's gradient rule and sums the contributions every graph receives.
//
// Usage:
//
//	emissions := graph.LinearGraph(T, V, true)
//	target := criterion.CTCTargetGraph(labels, blank)
//	composed, _ := ops.Intersect(target, emissions)
//	loss, _ := ops.ForwardScore(composed)
//	neg, _ := ops.Negate(loss)
//	_ = autodiff.Backward(neg)
//	grad, _ := emissions.Grad()
package autodiff

import "github.com/born-ml/gtn/internal/autodiff/ops"

// Option configures a backward pass.
type Option func(*options)

type options struct {
	retain bool
	grad   []float64
	cfg    ops.Config
}

// RetainGraph keeps the autograd records after the pass so Backward can run
// again over the same graphs. By default records are released.
func RetainGraph() Option {
	return func(o *options) { o.retain = true }
}

// WithGrad seeds the pass with grad instead of ones. It must have one entry
// per arc of the root graph.
func WithGrad(grad []float64) Option {
	return func(o *options) { o.grad = grad }
}

// WithConfig sets the configuration used by gradient rules.
func WithConfig(cfg ops.Config) Option {
	return func(o *options) { o.cfg = cfg }
}
