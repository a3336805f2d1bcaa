package sim_test

import (
	"testing"

	"github.com/calder-labs/motorcore/internal/integrators"
	"github.com/calder-labs/motorcore/internal/motor"
	"github.com/calder-labs/motorcore/internal/sim"
)

func settle(m *sim.DCMotor, u sim.Control, seconds float64) sim.State {
	integ := integrators.NewRK4()
	x := m.InitialState()
	dt := 0.001
	for t := 0.0; t < seconds; t += dt {
		x = integ.Step(m, x, u, t, dt)
	}
	return x
}

func TestDCMotorFreeSpeedMatchesGearset(t *testing.T) {
	m := sim.NewDCMotor(motor.GearsetBlue)
	x := settle(m, sim.Control{12, 0}, 2)

	rpm := x[sim.StateOmega] * 60 / (2 * 3.14159265358979)
	// Friction drags the loaded free speed a little under the rated 600.
	if rpm < 540 || rpm > 605 {
		t.Errorf("full-voltage speed %f RPM, expected near 600", rpm)
	}
}

func TestDCMotorScalesWithGearset(t *testing.T) {
	blue := sim.NewDCMotor(motor.GearsetBlue)
	red := sim.NewDCMotor(motor.GearsetRed)
	if red.KeVsPerRad <= blue.KeVsPerRad {
		t.Error("slower gearset should have the larger back-EMF constant")
	}
}

func TestDCMotorBrakeDecaysFasterThanCoast(t *testing.T) {
	m := sim.NewDCMotor(motor.GearsetBlue)
	integ := integrators.NewRK4()
	spun := settle(m, sim.Control{12, 0}, 2)

	coast := spun.Clone()
	braked := spun.Clone()
	dt := 0.001
	for t := 0.0; t < 0.2; t += dt {
		coast = integ.Step(m, coast, sim.Control{0, 0}, t, dt)
		braked = integ.Step(m, braked, sim.Control{0, 1}, t, dt)
	}

	if braked[sim.StateOmega] >= coast[sim.StateOmega] {
		t.Errorf("shorted windings should brake harder: coast %f, brake %f",
			coast[sim.StateOmega], braked[sim.StateOmega])
	}
}

func TestDCMotorWindingHeating(t *testing.T) {
	m := sim.NewDCMotor(motor.GearsetBlue)
	x := settle(m, sim.Control{12, 0}, 5)
	if x[sim.StateTemp] <= m.AmbientC {
		t.Errorf("driven winding should heat above ambient, got %f", x[sim.StateTemp])
	}
}

func TestDCMotorOpenCircuitCarriesNoCurrent(t *testing.T) {
	m := sim.NewDCMotor(motor.GearsetBlue)
	x := sim.State{50, 0, 25} // spinning, unpowered
	if i := m.Current(x, sim.Control{0, 0}); i != 0 {
		t.Errorf("open circuit should carry no current, got %f", i)
	}
	if i := m.Current(x, sim.Control{0, 1}); i >= 0 {
		t.Errorf("shorted spinning motor should regenerate, got %f", i)
	}
}
