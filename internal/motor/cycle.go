package motor

// computeCommand runs the per-tick pipeline for one actuator:
// speed controller, slew limiter, load compensator, min-torque floor, ceiling
// clamp. Inputs are already in the device frame (sign-adjusted for reversed
// actuators). The slew-limited value, not the boosted one, becomes the stored
// previous command: the corrective layers sit outside the commanded
// trajectory.
func computeCommand(cfg *Config, cs *controlState, tgt target, tel Telemetry, ceilingMv float64) float64 {
	targetRPM := tgt.rpmEquivalent(cfg.Gearset)

	var raw float64
	if cfg.PIDEnabled {
		raw = speedControl(cfg, cs, targetRPM, tel.RPM, ceilingMv)
	} else {
		raw = feedforwardOnly(cfg, cs, targetRPM, ceilingMv)
	}

	limited := slewLimit(cfg, cs.prevCommand, raw)
	cs.prevCommand = limited

	cmd := loadCompensate(cfg, tel.CurrentMa, limited)
	cmd = minTorqueFloor(cfg, cs.regime, cmd)
	return clamp(cmd, -ceilingMv, ceilingMv)
}
