// Package optim implements gradient-based updates of graph arc weights.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Parameters are graphs with gradient tracking enabled, typically learned
// transition graphs or emission lattices. Their gradients are filled by
// autodiff.Backward.
//
// Example usage:
//
//	transitions := criterion.ASGTransitions(n, true)
//	optimizer := optim.NewSGD([]*graph.Graph{transitions}, optim.SGDConfig{LR: 0.1})
//
//	for epoch := range epochs {
//	    optimizer.ZeroGrad()
//	    loss, _ := criterion.ASGLoss(emissions, transitions, target)
//	    _ = autodiff.Backward(loss)
//	    _ = optimizer.Step()
//	}
package optim

import (
	"errors"
	"fmt"

	"github.com/born-ml/gtn/internal/graph"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies the accumulated gradients of every parameter to its
	// weights. Parameters without a gradient are skipped.
	Step() error

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// gradient returns the gradient of param, or nil if it has none yet.
func gradient(param *graph.Graph) ([]float64, error) {
	g, err := param.Grad()
	if errors.Is(err, graph.ErrNoGradient) {
		if !param.CalcGrad() {
			return nil, fmt.Errorf("optim: parameter does not track gradients: %w", err)
		}
		return nil, nil
	}
	return g, err
}

func zeroGrad(params []*graph.Graph) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// loadBuffers validates and installs per-parameter state buffers named
// prefix.{index}.
func loadBuffers(params []*graph.Graph, prefix string, state map[string][]float64) (map[*graph.Graph][]float64, error) {
	out := make(map[*graph.Graph][]float64)
	for i, p := range params {
		buf, ok := state[fmt.Sprintf("%s.%d", prefix, i)]
		if !ok {
			continue
		}
		if len(buf) != p.NumArcs() {
			return nil, graph.NewShapeError("optim", "%s buffer for parameter %d has %d entries, want %d",
				prefix, i, len(buf), p.NumArcs())
		}
		out[p] = append([]float64(nil), buf...)
	}
	return out, nil
}

func exportBuffers(params []*graph.Graph, prefix string, buffers map[*graph.Graph][]float64, state map[string][]float64) {
	for i, p := range params {
		if buf, ok := buffers[p]; ok {
			state[fmt.Sprintf("%s.%d", prefix, i)] = append([]float64(nil), buf...)
		}
	}
}
