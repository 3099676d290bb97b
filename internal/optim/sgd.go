package optim

import (
	"github.com/born-ml/gtn/internal/graph"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	weight = weight - lr * velocity
type SGD struct {
	params     []*graph.Graph
	lr         float64
	momentum   float64
	velocities map[*graph.Graph][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer over the arc weights of params.
func NewSGD(params []*graph.Graph, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*graph.Graph][]float64),
	}
}

// Step performs a single optimization step.
func (s *SGD) Step() error {
	for _, p := range s.params {
		grad, err := gradient(p)
		if err != nil {
			return err
		}
		if grad == nil {
			continue
		}

		step := grad
		if s.momentum != 0 {
			v, ok := s.velocities[p]
			if !ok {
				v = make([]float64, len(grad))
				s.velocities[p] = v
			}
			for i, g := range grad {
				v[i] = s.momentum*v[i] + g
			}
			step = v
		}

		w := p.Weights()
		for i := range w {
			w[i] -= s.lr * step[i]
		}
		if err := p.SetWeights(w); err != nil {
			return err
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() { zeroGrad(s.params) }

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 { return s.lr }

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) { s.lr = lr }

// StateDict returns the velocity buffers keyed "velocity.{param_index}".
func (s *SGD) StateDict() map[string][]float64 {
	state := make(map[string][]float64)
	exportBuffers(s.params, "velocity", s.velocities, state)
	return state
}

// LoadStateDict restores velocity buffers saved by StateDict.
func (s *SGD) LoadStateDict(state map[string][]float64) error {
	v, err := loadBuffers(s.params, "velocity", state)
	if err != nil {
		return err
	}
	s.velocities = v
	return nil
}
