// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/born-ml/gtn/internal/graph"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrShape          = graph.ErrShape
	ErrNoGradient     = graph.ErrNoGradient
	ErrDivergentScore = graph.ErrDivergentScore
	ErrLabel          = graph.ErrLabel
)

// ShapeError reports inconsistent graph structure or buffer sizes.
type ShapeError = graph.ShapeError

// NoGradientError reports a gradient request on a graph without one.
type NoGradientError = graph.NoGradientError

// DivergentScoreError reports a score that is infinite or does not converge.
type DivergentScoreError = graph.DivergentScoreError

// LabelError reports an invalid or mismatched label.
type LabelError = graph.LabelError
