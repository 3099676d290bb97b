// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops provides the differentiable operators on graphs.
//
// Every operator returns a new graph. When any input tracks gradients, the
// result records how it was built so autodiff.Backward can route gradients
// back to the inputs.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gtn/graph"
//	    "github.com/born-ml/gtn/ops"
//	)
//
//	func main() {
//	    emissions := graph.LinearGraph(5, 28, true)
//	    alignments, _ := ops.Compose(target, emissions)
//	    score, _ := ops.ForwardScore(alignments)
//	    fmt.Println(score.Item())
//	}
package ops

import (
	"github.com/born-ml/gtn/internal/autodiff/ops"
	"github.com/born-ml/gtn/internal/graph"
)

// Config holds the tuning knobs of scoring and gradient computation.
type Config = ops.Config

// DefaultConfig returns the configuration used by the plain operators.
func DefaultConfig() Config {
	return ops.DefaultConfig()
}

// Clone returns a copy of g whose gradient flows back to g.
func Clone(g *graph.Graph) (*graph.Graph, error) { return ops.Clone(g) }

// ProjectInput copies g, replacing every output label by the input label.
func ProjectInput(g *graph.Graph) (*graph.Graph, error) { return ops.ProjectInput(g) }

// ProjectOutput copies g, replacing every input label by the output label.
func ProjectOutput(g *graph.Graph) (*graph.Graph, error) { return ops.ProjectOutput(g) }

// Negate negates a scalar graph.
func Negate(g *graph.Graph) (*graph.Graph, error) { return ops.Negate(g) }

// Add sums two scalar graphs.
func Add(a, b *graph.Graph) (*graph.Graph, error) { return ops.Add(a, b) }

// Subtract returns a - b for scalar graphs.
func Subtract(a, b *graph.Graph) (*graph.Graph, error) { return ops.Subtract(a, b) }

// Union returns a graph accepting the paths of any input.
func Union(gs ...*graph.Graph) (*graph.Graph, error) { return ops.Union(gs...) }

// Concat returns a graph accepting a path of each input in sequence.
func Concat(gs ...*graph.Graph) (*graph.Graph, error) { return ops.Concat(gs...) }

// Closure returns the Kleene closure of g.
func Closure(g *graph.Graph) (*graph.Graph, error) { return ops.Closure(g) }

// Compose returns the composition of transducers a and b.
func Compose(a, b *graph.Graph) (*graph.Graph, error) { return ops.Compose(a, b) }

// Intersect returns the intersection of acceptors a and b.
func Intersect(a, b *graph.Graph) (*graph.Graph, error) { return ops.Intersect(a, b) }

// Remove deletes label:label arcs while keeping the scored paths.
func Remove(g *graph.Graph, label graph.Label) (*graph.Graph, error) { return ops.Remove(g, label) }

// RemoveEpsilon deletes ε:ε arcs while keeping the scored paths.
func RemoveEpsilon(g *graph.Graph) (*graph.Graph, error) { return ops.RemoveEpsilon(g) }

// ForwardScore returns the log-semiring sum over accepting paths of g.
func ForwardScore(g *graph.Graph) (*graph.Graph, error) { return ops.ForwardScore(g) }

// ForwardScoreWith is ForwardScore with an explicit configuration.
func ForwardScoreWith(g *graph.Graph, cfg Config) (*graph.Graph, error) {
	return ops.ForwardScoreWith(g, cfg)
}

// ViterbiScore returns the weight of the best accepting path of g.
func ViterbiScore(g *graph.Graph) (*graph.Graph, error) { return ops.ViterbiScore(g) }

// ViterbiPath returns the best accepting path of g as a chain graph.
func ViterbiPath(g *graph.Graph) (*graph.Graph, error) { return ops.ViterbiPath(g) }
