package integrators

import (
	"math"
	"testing"

	"github.com/calder-labs/motorcore/internal/sim"
)

// decay is dx/dt = -x, solved exactly by x0 * exp(-t).
type decay struct{}

func (decay) StateDim() int   { return 1 }
func (decay) ControlDim() int { return 0 }
func (decay) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{-x[0]}
}

func integrate(integ sim.Integrator, dt float64, seconds float64) float64 {
	x := sim.State{1}
	for t := 0.0; t < seconds; t += dt {
		x = integ.Step(decay{}, x, nil, t, dt)
	}
	return x[0]
}

func TestEulerConverges(t *testing.T) {
	got := integrate(NewEuler(), 0.001, 1)
	want := math.Exp(-1)
	if math.Abs(got-want) > 1e-3 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestRK4Accuracy(t *testing.T) {
	got := integrate(NewRK4(), 0.01, 1)
	want := math.Exp(-1)
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestRK4BeatsEulerAtSameStep(t *testing.T) {
	want := math.Exp(-1)
	eulerErr := math.Abs(integrate(NewEuler(), 0.05, 1) - want)
	rk4Err := math.Abs(integrate(NewRK4(), 0.05, 1) - want)
	if rk4Err >= eulerErr {
		t.Errorf("rk4 error %g not below euler error %g", rk4Err, eulerErr)
	}
}

func TestRK4ScratchReuseAcrossDims(t *testing.T) {
	r := NewRK4()
	integ := func() float64 {
		x := sim.State{1}
		for t := 0.0; t < 1; t += 0.01 {
			x = r.Step(decay{}, x, nil, t, 0.01)
		}
		return x[0]
	}
	first := integ()
	second := integ()
	if first != second {
		t.Errorf("reused integrator diverged: %f vs %f", first, second)
	}
}
