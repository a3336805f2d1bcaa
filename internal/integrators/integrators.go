// Package integrators holds the fixed-step solvers the simulated rig advances
// motor state with. Each Step allocates only the returned state; RK4 keeps its
// stage buffers across calls so long bench runs do not churn the allocator.
package integrators

import "github.com/calder-labs/motorcore/internal/sim"

// Euler is the first-order explicit stepper. Fine for smoke runs; prefer RK4
// when the thermal trace matters.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t, dt float64) sim.State {
	dx := dyn.Derivative(x, u, t)
	next := make(sim.State, len(x))
	for i, xi := range x {
		next[i] = xi + dt*dx[i]
	}
	return next
}

// RK4 is the classical fourth-order stepper. The stage buffers are sized on
// first use, so one RK4 value must not be shared by rigs stepping states of
// different widths.
type RK4 struct {
	stages [4]sim.State
	eval   sim.State
}

// rkOffsets places each stage evaluation within the step.
var rkOffsets = [4]float64{0, 0.5, 0.5, 1}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) resize(n int) {
	if len(r.eval) == n {
		return
	}
	for i := range r.stages {
		r.stages[i] = make(sim.State, n)
	}
	r.eval = make(sim.State, n)
}

func (r *RK4) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t, dt float64) sim.State {
	n := len(x)
	r.resize(n)

	for s := range r.stages {
		at := x
		if s > 0 {
			prev := r.stages[s-1]
			for i := 0; i < n; i++ {
				r.eval[i] = x[i] + dt*rkOffsets[s]*prev[i]
			}
			at = r.eval
		}
		copy(r.stages[s], dyn.Derivative(at, u, t+dt*rkOffsets[s]))
	}

	next := make(sim.State, n)
	for i := 0; i < n; i++ {
		next[i] = x[i] + dt/6*(r.stages[0][i]+2*r.stages[1][i]+2*r.stages[2][i]+r.stages[3][i])
	}
	return next
}
