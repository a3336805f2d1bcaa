package motor

// loadCompensate adds a boost proportional to excess current when the
// actuator appears loaded. It runs after slew limiting: the boost is a
// corrective layer on top of the commanded trajectory, never slewed itself.
// A zero command is never boosted.
func loadCompensate(cfg *Config, currentMa, cmd float64) float64 {
	if !cfg.LoadCompEnabled || cmd == 0 || currentMa <= cfg.CurrentThresholdMa {
		return cmd
	}
	boost := cfg.KBoost * (currentMa - cfg.CurrentThresholdMa)
	if cmd < 0 {
		return cmd - boost
	}
	return cmd + boost
}
