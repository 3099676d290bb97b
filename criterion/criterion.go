// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package criterion provides sequence losses built from graphs: CTC, ASG,
// edit distance and n-gram counting, plus the token graphs used to learn
// decompositions.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gtn/autodiff"
//	    "github.com/born-ml/gtn/criterion"
//	    "github.com/born-ml/gtn/graph"
//	)
//
//	func main() {
//	    emissions := graph.LinearGraph(5, 28, true)
//	    loss, _ := criterion.CTCLoss(emissions, []graph.Label{3, 1, 20}, 0)
//	    _ = autodiff.Backward(loss)
//	}
package criterion

import (
	"context"

	"github.com/born-ml/gtn/internal/criterion"
	"github.com/born-ml/gtn/internal/graph"
	"github.com/born-ml/gtn/internal/parallel"
)

// ParallelConfig controls how many examples run at once.
type ParallelConfig = parallel.Config

// DefaultParallelConfig uses one worker per CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// LossFunc builds the loss of the i-th example of a batch.
type LossFunc = criterion.LossFunc

// ChainGraph builds an acceptor for exactly one label sequence.
func ChainGraph(labels []graph.Label, calcGrad bool) *graph.Graph {
	return criterion.ChainGraph(labels, calcGrad)
}

// CTCTargetGraph builds the CTC alignment acceptor of target.
func CTCTargetGraph(target []graph.Label, blank graph.Label) (*graph.Graph, error) {
	return criterion.CTCTargetGraph(target, blank)
}

// CTCLoss returns the CTC negative log-likelihood of target.
func CTCLoss(emissions *graph.Graph, target []graph.Label, blank graph.Label) (*graph.Graph, error) {
	return criterion.CTCLoss(emissions, target, blank)
}

// OptionalInsertionGraph builds a transducer that may insert one of inserts
// after each base symbol.
func OptionalInsertionGraph(symbols, bases, inserts []graph.Label) *graph.Graph {
	return criterion.OptionalInsertionGraph(symbols, bases, inserts)
}

// ASGTransitions builds the n-label bigram transition graph.
func ASGTransitions(n int, calcGrad bool) *graph.Graph {
	return criterion.ASGTransitions(n, calcGrad)
}

// FALGraph builds the ASG force-align acceptor of target.
func FALGraph(target []graph.Label) (*graph.Graph, error) {
	return criterion.FALGraph(target)
}

// ASGLoss returns the auto segmentation criterion of target.
func ASGLoss(emissions, transitions *graph.Graph, target []graph.Label) (*graph.Graph, error) {
	return criterion.ASGLoss(emissions, transitions, target)
}

// EditsGraph builds the Levenshtein edit transducer.
func EditsGraph(numTokens int) *graph.Graph {
	return criterion.EditsGraph(numTokens)
}

// EditDistance returns the Levenshtein distance between x and y.
func EditDistance(x, y []graph.Label, numTokens int) (int, error) {
	return criterion.EditDistance(x, y, numTokens)
}

// NGramCounter builds the n-gram window transducer.
func NGramCounter(n, numTokens int) *graph.Graph {
	return criterion.NGramCounter(n, numTokens)
}

// CountNGram returns the number of occurrences of ngram in input.
func CountNGram(input, ngram []graph.Label, numTokens int) (int, error) {
	return criterion.CountNGram(input, ngram, numTokens)
}

// TokenGraph builds the transducer reading label one or more times.
func TokenGraph(label graph.Label, calcGrad bool) *graph.Graph {
	return criterion.TokenGraph(label, calcGrad)
}

// BlankTokenGraph builds the transducer reading blank one or more times and
// writing nothing.
func BlankTokenGraph(blank graph.Label, calcGrad bool) *graph.Graph {
	return criterion.BlankTokenGraph(blank, calcGrad)
}

// TokenSet returns the closure of the union of token graphs.
func TokenSet(tokens ...*graph.Graph) (*graph.Graph, error) {
	return criterion.TokenSet(tokens...)
}

// Decompositions returns the frame-level label sequences lexicon maps onto
// word.
func Decompositions(lexicon, word *graph.Graph) (*graph.Graph, error) {
	return criterion.Decompositions(lexicon, word)
}

// BatchLoss evaluates n losses concurrently.
func BatchLoss(ctx context.Context, n int, fn LossFunc, cfg ParallelConfig) ([]*graph.Graph, error) {
	return criterion.BatchLoss(ctx, n, fn, cfg)
}

// BatchBackward evaluates n losses concurrently and runs a backward pass on
// each.
func BatchBackward(ctx context.Context, n int, fn LossFunc, cfg ParallelConfig) ([]float64, error) {
	return criterion.BatchBackward(ctx, n, fn, cfg)
}
