package motor

import (
	"math"
	"testing"
)

func TestSelectRegime(t *testing.T) {
	cfg := defaultConfig(GearsetBlue) // max 600, default switch at 300

	tests := []struct {
		target float64
		want   Regime
	}{
		{0, RegimeLow},
		{150, RegimeLow},
		{300, RegimeLow},
		{301, RegimeHigh},
		{-450, RegimeHigh},
		{-120, RegimeLow},
	}

	for _, tt := range tests {
		if got := selectRegime(&cfg, tt.target); got != tt.want {
			t.Errorf("target %f: expected %s regime, got %s", tt.target, tt.want, got)
		}
	}
}

func TestSelectRegimeCustomThreshold(t *testing.T) {
	cfg := defaultConfig(GearsetBlue)
	cfg.SwitchThresholdRPM = 500

	if selectRegime(&cfg, 450) != RegimeLow {
		t.Error("450 should stay low with threshold 500")
	}
	if selectRegime(&cfg, 550) != RegimeHigh {
		t.Error("550 should go high with threshold 500")
	}
}

func TestSpeedControlFirstTick(t *testing.T) {
	cfg := defaultConfig(GearsetBlue)
	cfg.Low = PIDGains{KV: 0.05, KP: 0.1}
	cfg.High = cfg.Low
	cs := controlState{}

	out := speedControl(&cfg, &cs, 600, 0, DefaultVoltageCeilingMv)

	want := 0.05*600 + 0.1*600
	if math.Abs(out-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, out)
	}
	if cs.integral != 600 {
		t.Errorf("expected integral 600, got %f", cs.integral)
	}
}

func TestSpeedControlAntiWindup(t *testing.T) {
	cfg := defaultConfig(GearsetBlue)
	cfg.Low = PIDGains{KV: 0, KP: 0, KI: 100, KD: 0}
	cfg.High = cfg.Low
	cs := controlState{}

	// Output saturates immediately; the accumulator must stop growing.
	var prev float64
	for i := 0; i < 50; i++ {
		speedControl(&cfg, &cs, 200, 0, DefaultVoltageCeilingMv)
		if i > 0 && cs.integral > prev {
			t.Fatalf("integral grew while saturated: %f -> %f at tick %d", prev, cs.integral, i)
		}
		prev = cs.integral
	}
}

func TestSpeedControlRegimeSwitchResetsPrevError(t *testing.T) {
	cfg := defaultConfig(GearsetBlue)
	cfg.Low = PIDGains{KD: 10}
	cfg.High = PIDGains{KD: 10}
	cs := controlState{regime: RegimeLow, prevError: 500}

	// Switching to the high regime must zero the derivative contribution.
	out := speedControl(&cfg, &cs, 500, 0, DefaultVoltageCeilingMv)
	if out != 0 {
		t.Errorf("derivative kicked across regime switch: %f", out)
	}
	if cs.regime != RegimeHigh {
		t.Errorf("expected high regime, got %s", cs.regime)
	}
}

func TestSpeedControlIntegralCarriedAcrossSwitch(t *testing.T) {
	cfg := defaultConfig(GearsetBlue)
	cfg.Low = PIDGains{KI: 0.001}
	cfg.High = PIDGains{KI: 0.001}
	cs := controlState{}

	speedControl(&cfg, &cs, 100, 0, DefaultVoltageCeilingMv)
	lowIntegral := cs.integral

	speedControl(&cfg, &cs, 500, 0, DefaultVoltageCeilingMv)
	if cs.integral <= lowIntegral {
		t.Errorf("integral should carry and keep accumulating: %f -> %f", lowIntegral, cs.integral)
	}
}

func TestSpeedControlUsesRegimeConstants(t *testing.T) {
	cfg := defaultConfig(GearsetBlue)
	cfg.Low = PIDGains{KV: 1}
	cfg.High = PIDGains{KV: 2}

	cs := controlState{}
	low := speedControl(&cfg, &cs, 100, 100, DefaultVoltageCeilingMv)
	if low != 100 {
		t.Errorf("low regime feedforward: expected 100, got %f", low)
	}

	cs = controlState{}
	high := speedControl(&cfg, &cs, 400, 400, DefaultVoltageCeilingMv)
	if high != 800 {
		t.Errorf("high regime feedforward: expected 800, got %f", high)
	}
}

func TestFeedforwardOnly(t *testing.T) {
	cfg := defaultConfig(GearsetBlue)
	cs := controlState{}

	out := feedforwardOnly(&cfg, &cs, 300, DefaultVoltageCeilingMv)
	if math.Abs(out-6000) > 1e-9 {
		t.Errorf("expected 6000 mV for half speed, got %f", out)
	}
	if cs.regime != RegimeLow {
		t.Errorf("expected low regime, got %s", cs.regime)
	}
}
