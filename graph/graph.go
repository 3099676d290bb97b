// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides weighted finite-state acceptors and transducers.
//
// A Graph holds nodes flagged as start and/or accept and arcs carrying an
// input label, an output label and a real weight. Graphs whose input and
// output labels agree on every arc are acceptors. Epsilon (-1) marks a move
// that reads or writes nothing.
//
// Example:
//
//	import "github.com/born-ml/gtn/graph"
//
//	func main() {
//	    g := graph.New(true)
//	    g.AddNode(true, false)
//	    g.AddNode(false, true)
//	    g.MustAddArc(0, 1, 0, graph.WithWeight(1.5))
//	    g.MustAddArc(0, 1, 1, graph.WithOutput(graph.Epsilon))
//	    fmt.Print(g)
//	}
package graph

import (
	"github.com/born-ml/gtn/internal/graph"
)

// Graph is a weighted finite-state acceptor or transducer.
type Graph = graph.Graph

// Label is an arc label. Labels are non-negative or Epsilon.
type Label = graph.Label

// Epsilon is the empty label.
const Epsilon = graph.Epsilon

// ArcOption configures an arc added with AddArc.
type ArcOption = graph.ArcOption

// New creates an empty graph. Gradients are accumulated for its arc weights
// when calcGrad is true.
func New(calcGrad bool) *Graph {
	return graph.New(calcGrad)
}

// WithOutput sets the output label of an arc (default: the input label).
func WithOutput(l Label) ArcOption {
	return graph.WithOutput(l)
}

// WithWeight sets the weight of an arc (default: 0).
func WithWeight(w float64) ArcOption {
	return graph.WithWeight(w)
}

// LinearGraph builds a frames×vocab emissions lattice with zero weights.
func LinearGraph(frames, vocab int, calcGrad bool) *Graph {
	return graph.LinearGraph(frames, vocab, calcGrad)
}

// Scalar builds a single-arc graph of weight value.
func Scalar(value float64, calcGrad bool) *Graph {
	return graph.Scalar(value, calcGrad)
}

// Equal reports whether a and b have identical nodes and arcs in the same
// order, with weights equal within Tolerance.
func Equal(a, b *Graph) bool {
	return graph.Equal(a, b)
}

// Isomorphic reports whether a and b are equal up to a renumbering of nodes
// and arcs.
func Isomorphic(a, b *Graph) bool {
	return graph.Isomorphic(a, b)
}

// Tolerance is the absolute weight tolerance of Equal and Isomorphic.
const Tolerance = graph.Tolerance
