// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers for learned graph weights.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// Parameters are graphs created with gradient tracking, such as an ASG
// transitions graph or an emissions lattice. Gradients come from
// autodiff.Backward and are read from each parameter by Step.
//
// # Training Loop Pattern
//
//	transitions := criterion.ASGTransitions(n, true)
//	optimizer := optim.NewAdam([]*graph.Graph{transitions}, optim.AdamConfig{LR: 0.01})
//
//	for epoch := range numEpochs {
//	    // 1. Zero gradients
//	    optimizer.ZeroGrad()
//
//	    // 2. Forward pass
//	    loss, err := criterion.ASGLoss(emissions, transitions, target)
//
//	    // 3. Backward pass
//	    err = autodiff.Backward(loss)
//
//	    // 4. Update weights
//	    err = optimizer.Step()
//	}
package optim
