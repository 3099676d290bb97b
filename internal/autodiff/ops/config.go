package ops

import "github.com/born-ml/gtn/internal/parallel"

// Config tunes scoring and gradient computation.
type Config struct {
	Parallel parallel.Config

	// ExactComponentSize is the largest cyclic strongly connected component
	// scored in closed form. Larger components fall back to fixed-point
	// sweeps.
	ExactComponentSize int

	// MaxIterationsPerNode bounds fixed-point sweeps over a large cyclic
	// component to MaxIterationsPerNode × component size.
	MaxIterationsPerNode int

	// Tolerance is the largest absolute change of a log-space score at which
	// fixed-point sweeps stop.
	Tolerance float64
}

// DefaultConfig returns the configuration used by the package-level operators.
func DefaultConfig() Config {
	return Config{
		Parallel:             parallel.DefaultConfig(),
		ExactComponentSize:   256,
		MaxIterationsPerNode: 1000,
		Tolerance:            1e-12,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ExactComponentSize <= 0 {
		c.ExactComponentSize = d.ExactComponentSize
	}
	if c.MaxIterationsPerNode <= 0 {
		c.MaxIterationsPerNode = d.MaxIterationsPerNode
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.Parallel.NumWorkers <= 0 {
		c.Parallel.NumWorkers = 1
	}
	return c
}
