package optim_test

import (
	"errors"
	"math"
	"testing"

	"github.com/born-ml/gtn/internal/autodiff"
	"github.com/born-ml/gtn/internal/criterion"
	"github.com/born-ml/gtn/internal/graph"
	"github.com/born-ml/gtn/internal/optim"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// param builds a one-arc graph holding weight w with gradient g.
func param(t *testing.T, w, g float64) *graph.Graph {
	t.Helper()
	p := graph.Scalar(w, true)
	if err := p.AddGrad([]float64{g}); err != nil {
		t.Fatal(err)
	}
	return p
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	p := param(t, 2.0, 1.0)
	optimizer := optim.NewSGD([]*graph.Graph{p}, optim.SGDConfig{LR: 0.1})

	if err := optimizer.Step(); err != nil {
		t.Fatal(err)
	}

	// Expected: w_new = w_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	if got := p.Item(); !floatEqual(got, 1.9, 1e-12) {
		t.Errorf("SGD update: got %f, want %f", got, 1.9)
	}
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	p := param(t, 1.0, 1.0)
	optimizer := optim.NewSGD([]*graph.Graph{p}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// Step 1: v = 1, w = 1 - 0.1 = 0.9
	// Step 2: v = 0.9 + 1 = 1.9, w = 0.9 - 0.19 = 0.71
	for _, want := range []float64{0.9, 0.71} {
		if err := optimizer.Step(); err != nil {
			t.Fatal(err)
		}
		if got := p.Item(); !floatEqual(got, want, 1e-12) {
			t.Errorf("SGD momentum: got %f, want %f", got, want)
		}
	}

	state := optimizer.StateDict()
	if v := state["velocity.0"]; len(v) != 1 || !floatEqual(v[0], 1.9, 1e-12) {
		t.Errorf("velocity state: got %v, want [1.9]", v)
	}
}

// TestSGD_ZeroGrad tests that ZeroGrad clears gradients.
func TestSGD_ZeroGrad(t *testing.T) {
	p := param(t, 1.0, 5.0)
	optimizer := optim.NewSGD([]*graph.Graph{p}, optim.SGDConfig{LR: 0.1})
	optimizer.ZeroGrad()

	grad, err := p.Grad()
	if err != nil {
		t.Fatal(err)
	}
	if grad[0] != 0 {
		t.Errorf("ZeroGrad: got %f, want 0", grad[0])
	}
	if err := optimizer.Step(); err != nil {
		t.Fatal(err)
	}
	if p.Item() != 1.0 {
		t.Errorf("step with zero gradient changed weight to %f", p.Item())
	}
}

// TestSGD_GetSetLR tests learning rate defaults and updates.
func TestSGD_GetSetLR(t *testing.T) {
	optimizer := optim.NewSGD(nil, optim.SGDConfig{})
	if optimizer.GetLR() != 0.01 {
		t.Errorf("default LR: got %f, want 0.01", optimizer.GetLR())
	}
	optimizer.SetLR(0.5)
	if optimizer.GetLR() != 0.5 {
		t.Errorf("SetLR: got %f, want 0.5", optimizer.GetLR())
	}
}

// TestSGD_SkipsMissingGradient tests that parameters without gradients are
// left untouched and constants are rejected.
func TestSGD_SkipsMissingGradient(t *testing.T) {
	p := graph.Scalar(3.0, true)
	optimizer := optim.NewSGD([]*graph.Graph{p}, optim.SGDConfig{LR: 0.1})
	if err := optimizer.Step(); err != nil {
		t.Fatal(err)
	}
	if p.Item() != 3.0 {
		t.Errorf("weight changed without gradient: %f", p.Item())
	}

	constant := graph.Scalar(1.0, false)
	err := optim.NewSGD([]*graph.Graph{constant}, optim.SGDConfig{}).Step()
	if !errors.Is(err, graph.ErrNoGradient) {
		t.Errorf("expected ErrNoGradient, got %v", err)
	}
}

// TestSGD_LoadStateDict tests restoring velocities.
func TestSGD_LoadStateDict(t *testing.T) {
	p := param(t, 1.0, 1.0)
	optimizer := optim.NewSGD([]*graph.Graph{p}, optim.SGDConfig{LR: 0.1, Momentum: 0.5})
	if err := optimizer.LoadStateDict(map[string][]float64{"velocity.0": {2.0}}); err != nil {
		t.Fatal(err)
	}
	if err := optimizer.Step(); err != nil {
		t.Fatal(err)
	}
	// v = 0.5*2 + 1 = 2, w = 1 - 0.2
	if got := p.Item(); !floatEqual(got, 0.8, 1e-12) {
		t.Errorf("restored momentum: got %f, want 0.8", got)
	}

	err := optimizer.LoadStateDict(map[string][]float64{"velocity.0": {1, 2}})
	if !errors.Is(err, graph.ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

// TestAdam_SimpleUpdate tests that the first Adam step moves by about lr.
func TestAdam_SimpleUpdate(t *testing.T) {
	p := param(t, 1.0, 0.5)
	optimizer := optim.NewAdam([]*graph.Graph{p}, optim.AdamConfig{LR: 0.1})

	if err := optimizer.Step(); err != nil {
		t.Fatal(err)
	}
	// m_hat = g, v_hat = g², so the step is lr * g/|g|.
	if got := p.Item(); !floatEqual(got, 0.9, 1e-6) {
		t.Errorf("Adam update: got %f, want 0.9", got)
	}
}

// TestAdam_BiasCorrection tests the second step with a changing gradient.
func TestAdam_BiasCorrection(t *testing.T) {
	p := param(t, 0.0, 1.0)
	optimizer := optim.NewAdam([]*graph.Graph{p}, optim.AdamConfig{LR: 0.01})
	if err := optimizer.Step(); err != nil {
		t.Fatal(err)
	}
	optimizer.ZeroGrad()
	if err := p.AddGrad([]float64{-1.0}); err != nil {
		t.Fatal(err)
	}
	if err := optimizer.Step(); err != nil {
		t.Fatal(err)
	}

	m := 0.9*0.1 + 0.1*-1.0
	v := 0.999*0.001 + 0.001*1.0
	mHat := m / (1 - 0.81)
	vHat := v / (1 - 0.999*0.999)
	want := -0.01 - 0.01*mHat/(math.Sqrt(vHat)+1e-8)
	if got := p.Item(); !floatEqual(got, want, 1e-9) {
		t.Errorf("Adam bias correction: got %g, want %g", got, want)
	}

	state := optimizer.StateDict()
	if state["t"][0] != 2 {
		t.Errorf("step count: got %v, want 2", state["t"])
	}
}

// TestAdam_ZeroGrad tests that ZeroGrad clears gradients.
func TestAdam_ZeroGrad(t *testing.T) {
	p := param(t, 1.0, 3.0)
	optimizer := optim.NewAdam([]*graph.Graph{p}, optim.AdamConfig{})
	optimizer.ZeroGrad()
	grad, err := p.Grad()
	if err != nil {
		t.Fatal(err)
	}
	if grad[0] != 0 {
		t.Errorf("ZeroGrad: got %f, want 0", grad[0])
	}
	if optimizer.GetLR() != 0.001 {
		t.Errorf("default LR: got %f, want 0.001", optimizer.GetLR())
	}
}

// TestConvergence_CTC trains emission scores on a single CTC target and
// checks that the loss goes down.
func TestConvergence_CTC(t *testing.T) {
	for name, newOpt := range map[string]func([]*graph.Graph) optim.Optimizer{
		"sgd":  func(p []*graph.Graph) optim.Optimizer { return optim.NewSGD(p, optim.SGDConfig{LR: 0.5}) },
		"adam": func(p []*graph.Graph) optim.Optimizer { return optim.NewAdam(p, optim.AdamConfig{LR: 0.1}) },
	} {
		t.Run(name, func(t *testing.T) {
			emissions := graph.LinearGraph(4, 3, true)
			optimizer := newOpt([]*graph.Graph{emissions})
			target := []graph.Label{1, 2}

			var first, last float64
			for step := 0; step < 50; step++ {
				optimizer.ZeroGrad()
				loss, err := criterion.CTCLoss(emissions, target, 0)
				if err != nil {
					t.Fatal(err)
				}
				if step == 0 {
					first = loss.Item()
				}
				last = loss.Item()
				if err := autodiff.Backward(loss); err != nil {
					t.Fatal(err)
				}
				if err := optimizer.Step(); err != nil {
					t.Fatal(err)
				}
			}
			if last >= first-1.0 {
				t.Errorf("loss did not decrease enough: first %f, last %f", first, last)
			}
		})
	}
}

// TestMultipleParameters tests updating emissions and transitions together.
func TestMultipleParameters(t *testing.T) {
	emissions := graph.LinearGraph(3, 2, true)
	transitions := criterion.ASGTransitions(2, true)
	optimizer := optim.NewSGD([]*graph.Graph{emissions, transitions}, optim.SGDConfig{LR: 0.1})

	loss, err := criterion.ASGLoss(emissions, transitions, []graph.Label{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	before := loss.Item()
	if err := autodiff.Backward(loss); err != nil {
		t.Fatal(err)
	}
	if err := optimizer.Step(); err != nil {
		t.Fatal(err)
	}

	after, err := criterion.ASGLoss(emissions, transitions, []graph.Label{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if after.Item() >= before {
		t.Errorf("ASG loss did not decrease: before %f, after %f", before, after.Item())
	}
}
