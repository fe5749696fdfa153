package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/ecosim/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, c float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// decay is dx/dc = -rate*x with exact solution exp(-rate*c).
type decay struct {
	rate float64
}

func (d *decay) StateDim() int { return 1 }

func (d *decay) Derive(x dynamo.State, c float64) dynamo.State {
	return dynamo.State{-d.rate * x[0]}
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	h := 0.01

	for i := 0; i < 1000; i++ {
		x = integrator.Step(dyn, x, float64(i)*h, h)
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	h := 0.01

	for i := 0; i < 10000; i++ {
		x = integrator.Step(dyn, x, float64(i)*h, h)
	}

	drift := math.Abs(dyn.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, hNext, ratio := integrator.StepAdaptive(dyn, x0, 0, 0.1, 1e-8)

	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if hNext <= 0 {
		t.Errorf("StepAdaptive returned invalid step: %f", hNext)
	}
	if ratio < 0 || math.IsNaN(ratio) {
		t.Errorf("StepAdaptive returned invalid error ratio: %f", ratio)
	}
}

func TestRK45_RejectsLargeStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &decay{rate: 50.0}

	_, hNext, ratio := integrator.StepAdaptive(dyn, dynamo.State{1.0}, 0, 0.5, 1e-8)
	if ratio <= 1 {
		t.Fatalf("expected a stiff step to be rejected, got ratio %f", ratio)
	}
	if hNext >= 0.5 {
		t.Errorf("expected a smaller proposed step, got %f", hNext)
	}
}

func TestRK45_ZeroDerivativeKeepsState(t *testing.T) {
	integrator := NewRK45()
	dyn := &decay{rate: 0}

	x, hNext, ratio := integrator.StepAdaptive(dyn, dynamo.State{0.7}, 0, 0.01, 1e-6)
	if x[0] != 0.7 {
		t.Errorf("expected state unchanged, got %f", x[0])
	}
	if ratio != 0 {
		t.Errorf("expected zero error ratio, got %f", ratio)
	}
	if hNext != 0.1 {
		t.Errorf("expected step to grow by the max scale, got %f", hNext)
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	dyn := &decay{rate: 1.0}

	x4 := dynamo.State{1.0}
	x45 := dynamo.State{1.0}
	h := 0.1

	for i := 0; i < 10; i++ {
		x4 = rk4.Step(dyn, x4, float64(i)*h, h)
		x45 = rk45.Step(dyn, x45, float64(i)*h, h)
	}

	exact := math.Exp(-1.0)
	t.Logf("RK4 final: %.10f, RK45 final: %.10f, exact: %.10f", x4[0], x45[0], exact)

	if math.Abs(x45[0]-exact) > 1e-6 {
		t.Errorf("RK45 error too large: %e", math.Abs(x45[0]-exact))
	}
	if math.Abs(x4[0]-exact) > 1e-5 {
		t.Errorf("RK4 error too large: %e", math.Abs(x4[0]-exact))
	}
}
