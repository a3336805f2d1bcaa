package metrics

import (
	"math"
	"testing"
)

func TestSettlingTime(t *testing.T) {
	m := NewSettlingTime(10)

	// Target steps at t=0; speed enters the band at t=0.3 and stays.
	trace := []Sample{
		{T: 0.0, TargetRPM: 300, RPM: 0},
		{T: 0.1, TargetRPM: 300, RPM: 150},
		{T: 0.2, TargetRPM: 300, RPM: 280},
		{T: 0.3, TargetRPM: 300, RPM: 295},
		{T: 0.4, TargetRPM: 300, RPM: 299},
		{T: 0.5, TargetRPM: 300, RPM: 300},
	}
	ObserveAll([]Metric{m}, trace)

	if math.Abs(m.Value()-0.2) > 1e-9 {
		t.Errorf("expected settling at 0.2 s, got %f", m.Value())
	}
}

func TestSettlingTimeRestartsOnRetarget(t *testing.T) {
	m := NewSettlingTime(10)
	trace := []Sample{
		{T: 0.0, TargetRPM: 100, RPM: 100},
		{T: 1.0, TargetRPM: 400, RPM: 100}, // new target, out of band
		{T: 1.5, TargetRPM: 400, RPM: 395},
	}
	ObserveAll([]Metric{m}, trace)

	// The clock restarted at the retarget, and the last out-of-band sample was
	// the retarget itself.
	if got := m.Value(); got != 0 {
		t.Errorf("expected settling measured from the retarget, got %f", got)
	}
}

func TestSettlingTimeNeverSettled(t *testing.T) {
	m := NewSettlingTime(10)
	trace := []Sample{
		{T: 0, TargetRPM: 300, RPM: 0},
		{T: 1, TargetRPM: 300, RPM: 50},
		{T: 2, TargetRPM: 300, RPM: 80},
	}
	ObserveAll([]Metric{m}, trace)
	if m.Value() != 2 {
		t.Errorf("unsettled trace should score its duration, got %f", m.Value())
	}
}

func TestOvershoot(t *testing.T) {
	m := NewOvershoot()
	trace := []Sample{
		{TargetRPM: 200, RPM: 0},
		{TargetRPM: 200, RPM: 250}, // 25% past
		{TargetRPM: 200, RPM: 210},
		{TargetRPM: 200, RPM: 200},
	}
	ObserveAll([]Metric{m}, trace)
	if math.Abs(m.Value()-25) > 1e-9 {
		t.Errorf("expected 25%% overshoot, got %f", m.Value())
	}
}

func TestOvershootNegativeTarget(t *testing.T) {
	m := NewOvershoot()
	m.Observe(Sample{TargetRPM: -200, RPM: -240})
	if math.Abs(m.Value()-20) > 1e-9 {
		t.Errorf("expected 20%% overshoot on reverse target, got %f", m.Value())
	}
}

func TestOvershootIgnoresWrongDirection(t *testing.T) {
	m := NewOvershoot()
	// A reading past the magnitude but in the wrong direction is not overshoot.
	m.Observe(Sample{TargetRPM: 200, RPM: -250})
	if m.Value() != 0 {
		t.Errorf("wrong-direction excursion scored %f", m.Value())
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	trace := []Sample{
		{CommandMv: 6000},
		{CommandMv: -2000},
		{CommandMv: 1000},
	}
	ObserveAll([]Metric{m}, trace)
	if m.Value() != 3000 {
		t.Errorf("expected mean 3000 mV, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("reset should zero the metric")
	}
}

func TestSpeedRMSE(t *testing.T) {
	m := NewSpeedRMSE()
	trace := []Sample{
		{TargetRPM: 100, RPM: 100},
		{TargetRPM: 100, RPM: 110},
		{TargetRPM: 100, RPM: 90},
	}
	ObserveAll([]Metric{m}, trace)
	want := math.Sqrt(200.0 / 3)
	if math.Abs(m.Value()-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, m.Value())
	}
}
