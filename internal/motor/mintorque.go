package motor

import "math"

// minTorqueFloor raises a nonzero command magnitude to the regime floor,
// preserving sign. An exact zero always means "no actuation" and is passed
// through regardless of settings.
func minTorqueFloor(cfg *Config, regime Regime, cmd float64) float64 {
	if !cfg.MinTorqueEnabled || cmd == 0 {
		return cmd
	}
	floor := cfg.MinVoltageLowMv
	if regime == RegimeHigh {
		floor = cfg.MinVoltageHighMv
	}
	if math.Abs(cmd) >= floor {
		return cmd
	}
	if cmd < 0 {
		return -floor
	}
	return floor
}
