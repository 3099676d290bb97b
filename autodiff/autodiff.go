// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode differentiation through graph
// operators.
//
// Operators in package ops record their inputs when gradients are tracked.
// Backward walks that record from a result back to the leaves and adds the
// gradient of the result's weights into every tracking input.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gtn/autodiff"
//	    "github.com/born-ml/gtn/graph"
//	    "github.com/born-ml/gtn/ops"
//	)
//
//	func main() {
//	    emissions := graph.LinearGraph(4, 3, true)
//	    score, _ := ops.ForwardScore(emissions)
//	    _ = autodiff.Backward(score)
//	    grad, _ := emissions.Grad()
//	}
package autodiff

import (
	"github.com/born-ml/gtn/internal/autodiff"
	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/graph"
)

// Option configures Backward.
type Option = autodiff.Option

// Tape is the reverse topological order of the graphs a result depends on.
type Tape = autodiff.Tape

// Backward accumulates the gradient of g's weights into every tracking graph
// g was computed from.
func Backward(g *graph.Graph, opts ...Option) error {
	return autodiff.Backward(g, opts...)
}

// NewTape collects the graphs root depends on.
func NewTape(root *graph.Graph) *Tape {
	return autodiff.NewTape(root)
}

// RetainGraph keeps the operator records after Backward so it can run again.
func RetainGraph() Option { return autodiff.RetainGraph() }

// WithGrad seeds Backward with grad instead of ones.
func WithGrad(grad []float64) Option { return autodiff.WithGrad(grad) }

// WithConfig sets the operator configuration used by gradient rules.
func WithConfig(cfg ops.Config) Option { return autodiff.WithConfig(cfg) }
