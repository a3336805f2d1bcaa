package sim_test

import (
	"errors"
	"math"
	"testing"

	"github.com/calder-labs/motorcore/internal/integrators"
	"github.com/calder-labs/motorcore/internal/motor"
	"github.com/calder-labs/motorcore/internal/sim"
)

func TestRigDriverRoundTrip(t *testing.T) {
	r := sim.NewRig(integrators.NewRK4())
	r.AddMotor(1, sim.NewDCMotor(motor.GearsetBlue))

	if err := r.Actuate(1, 6000, motor.BrakeCoast); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 200; i++ {
		r.Advance(0.01)
	}

	tel, err := r.ReadTelemetry(1)
	if err != nil {
		t.Fatal(err)
	}
	if tel.RPM <= 0 {
		t.Errorf("expected forward spin at half voltage, got %f RPM", tel.RPM)
	}
	if tel.VoltageMv != 6000 {
		t.Errorf("expected applied voltage 6000 mV, got %f", tel.VoltageMv)
	}
	if tel.PositionCounts <= 0 {
		t.Errorf("expected accumulated position, got %f", tel.PositionCounts)
	}
	if tel.TemperatureC < 25 {
		t.Errorf("expected at least ambient temperature, got %f", tel.TemperatureC)
	}
	if math.Abs(r.Time()-2) > 1e-9 {
		t.Errorf("expected 2 s of simulated time, got %f", r.Time())
	}
}

func TestRigUnknownPort(t *testing.T) {
	r := sim.NewRig(integrators.NewEuler())
	if _, err := r.ReadTelemetry(7); err == nil {
		t.Error("expected read error for empty port")
	}
	if err := r.Actuate(7, 1000, motor.BrakeCoast); err == nil {
		t.Error("expected actuate error for empty port")
	}
}

func TestRigClosedLoopTracksTarget(t *testing.T) {
	r := sim.NewRig(integrators.NewRK4())
	r.AddMotor(1, sim.NewDCMotor(motor.GearsetBlue))

	m := motor.NewManual(r, 1, motor.GearsetBlue)
	defer m.Close()
	if err := m.SetTargetRPM(300); err != nil {
		t.Fatal(err)
	}

	dt := 0.01
	for i := 0; i < 600; i++ {
		m.Tick()
		r.Advance(dt)
	}

	if off := math.Abs(m.RPM() - 300); off > 20 {
		t.Errorf("loop settled %f RPM away from target", off)
	}
}

func TestRigReadErrorMarksStale(t *testing.T) {
	r := sim.NewRig(integrators.NewEuler())
	r.AddMotor(1, sim.NewDCMotor(motor.GearsetBlue))

	m := motor.NewManual(r, 1, motor.GearsetBlue)
	defer m.Close()

	r.SetReadError(1, errors.New("bus fault"))
	m.Tick()
	if !m.Stale() {
		t.Error("injected read fault should mark the handle stale")
	}

	r.SetReadError(1, nil)
	m.Tick()
	if m.Stale() {
		t.Error("handle should recover after the fault clears")
	}
}

func TestRigNoiseIsDeterministicPerSeed(t *testing.T) {
	read := func(seed int64) float64 {
		r := sim.NewRig(integrators.NewEuler())
		r.AddMotor(1, sim.NewDCMotor(motor.GearsetBlue))
		r.SetNoise(5, seed)
		tel, err := r.ReadTelemetry(1)
		if err != nil {
			t.Fatal(err)
		}
		return tel.RPM
	}

	if read(42) != read(42) {
		t.Error("same seed should reproduce the same noise")
	}
	if read(1) == read(2) {
		t.Error("different seeds should differ")
	}
}
