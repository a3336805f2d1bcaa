package sim

// State is a dense dynamics state vector.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Control is the input vector applied over one integration step.
type Control []float64

// Dynamics is a continuous-time model dx/dt = f(x, u, t).
type Dynamics interface {
	Derivative(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Integrator advances a dynamics model by one fixed step.
type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t float64, dt float64) State
}
