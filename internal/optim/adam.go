package optim

import (
	"math"

	"github.com/born-ml/gtn/internal/graph"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	weight = weight - lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	params []*graph.Graph
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int // Timestep for bias correction
	m      map[*graph.Graph][]float64
	v      map[*graph.Graph][]float64
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer over the arc weights of params.
func NewAdam(params []*graph.Graph, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*graph.Graph][]float64),
		v:      make(map[*graph.Graph][]float64),
	}
}

// Step performs a single optimization step using Adam algorithm.
func (a *Adam) Step() error {
	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, p := range a.params {
		grad, err := gradient(p)
		if err != nil {
			return err
		}
		if grad == nil {
			continue
		}

		m, ok := a.m[p]
		if !ok {
			m = make([]float64, len(grad))
			a.m[p] = m
		}
		v, ok := a.v[p]
		if !ok {
			v = make([]float64, len(grad))
			a.v[p] = v
		}

		w := p.Weights()
		for i, g := range grad {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g
			v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
			w[i] -= a.lr * (m[i] / bc1) / (math.Sqrt(v[i]/bc2) + a.eps)
		}
		if err := p.SetWeights(w); err != nil {
			return err
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() { zeroGrad(a.params) }

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 { return a.lr }

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) { a.lr = lr }

// StateDict returns the moment buffers ("m.{i}", "v.{i}") and the step count
// under "t".
func (a *Adam) StateDict() map[string][]float64 {
	state := map[string][]float64{"t": {float64(a.t)}}
	exportBuffers(a.params, "m", a.m, state)
	exportBuffers(a.params, "v", a.v, state)
	return state
}

// LoadStateDict restores state saved by StateDict.
func (a *Adam) LoadStateDict(state map[string][]float64) error {
	m, err := loadBuffers(a.params, "m", state)
	if err != nil {
		return err
	}
	v, err := loadBuffers(a.params, "v", state)
	if err != nil {
		return err
	}
	a.m, a.v = m, v
	if t, ok := state["t"]; ok && len(t) == 1 {
		a.t = int(t[0])
	}
	return nil
}
