package motor

import "math"

// selectRegime picks the constant set by target magnitude.
func selectRegime(cfg *Config, targetRPM float64) Regime {
	if math.Abs(targetRPM) > cfg.switchThreshold() {
		return RegimeHigh
	}
	return RegimeLow
}

// speedControl computes the raw voltage-equivalent command in mV from the
// dual-regime feedforward PID. It mutates cs: integral accumulation uses
// conditional integration (the error is folded in only when the resulting
// output would stay inside the ceiling), and a regime switch resets the
// previous error to the current one so the derivative term does not kick.
// The integral accumulator is carried across switches unscaled.
func speedControl(cfg *Config, cs *controlState, targetRPM, measuredRPM, ceilingMv float64) float64 {
	regime := selectRegime(cfg, targetRPM)
	g := cfg.Low
	if regime == RegimeHigh {
		g = cfg.High
	}

	e := targetRPM - measuredRPM
	if regime != cs.regime {
		cs.prevError = e
		cs.regime = regime
	}

	d := e - cs.prevError
	cs.prevError = e

	trial := cs.integral + e
	out := g.KV*targetRPM + g.KP*e + g.KI*trial + g.KD*d
	if math.Abs(out) <= ceilingMv {
		cs.integral = trial
		return out
	}

	// Saturated: freeze the accumulator, recompute with the old value.
	return g.KV*targetRPM + g.KP*e + g.KI*cs.integral + g.KD*d
}

// feedforwardOnly is the PID-disabled path: the raw voltage equivalent of the
// target passes through to the later stages unmodified.
func feedforwardOnly(cfg *Config, cs *controlState, targetRPM, ceilingMv float64) float64 {
	cs.regime = selectRegime(cfg, targetRPM)
	return targetRPM / cfg.Gearset.MaxRPM() * ceilingMv
}
