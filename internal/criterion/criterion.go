// Package criterion builds the graphs behind common sequence criteria and
// evaluates them with the operators in package ops.
//
// Every loss is an ordinary scalar graph, so gradients reach the emissions
// (and any learned transitions) through autodiff.Backward.
package criterion

import (
	"context"

	"github.com/born-ml/gtn/internal/autodiff"
	"github.com/born-ml/gtn/internal/graph"
	"github.com/born-ml/gtn/internal/parallel"
)

// ChainGraph builds an acceptor for exactly one label sequence.
func ChainGraph(labels []graph.Label, calcGrad bool) *graph.Graph {
	g := graph.New(calcGrad)
	g.AddNode(true, len(labels) == 0)
	for i, l := range labels {
		g.AddNode(false, i == len(labels)-1)
		g.MustAddArc(i, i+1, l)
	}
	return g
}

func checkLabels(op string, labels []graph.Label) error {
	for i, l := range labels {
		if l < 0 {
			return graph.NewLabelError(op, "label %d at position %d is negative", int(l), i)
		}
	}
	return nil
}

// LossFunc builds the loss of the i-th example of a batch.
type LossFunc func(i int) (*graph.Graph, error)

// BatchLoss evaluates n losses concurrently.
func BatchLoss(ctx context.Context, n int, fn LossFunc, cfg parallel.Config) ([]*graph.Graph, error) {
	losses := make([]*graph.Graph, n)
	err := parallel.Map(ctx, n, func(_ context.Context, i int) error {
		loss, err := fn(i)
		if err != nil {
			return err
		}
		losses[i] = loss
		return nil
	}, cfg)
	if err != nil {
		return nil, err
	}
	return losses, nil
}

// BatchBackward evaluates n losses concurrently, runs a backward pass on each
// and returns their values. Leaves shared between examples accumulate the
// sum of the per-example gradients.
func BatchBackward(ctx context.Context, n int, fn LossFunc, cfg parallel.Config) ([]float64, error) {
	values := make([]float64, n)
	err := parallel.Map(ctx, n, func(_ context.Context, i int) error {
		loss, err := fn(i)
		if err != nil {
			return err
		}
		values[i] = loss.Item()
		if !loss.CalcGrad() {
			return nil
		}
		return autodiff.Backward(loss)
	}, cfg)
	if err != nil {
		return nil, err
	}
	return values, nil
}
