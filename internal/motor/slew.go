package motor

// slewLimit bounds the per-tick change of the commanded signal. It runs after
// the PID stage so it limits the actuation trajectory, not the setpoint.
func slewLimit(cfg *Config, prevCommand, raw float64) float64 {
	if !cfg.SlewEnabled || cfg.SlewRate <= 0 {
		return raw
	}
	delta := clamp(raw-prevCommand, -cfg.SlewRate, cfg.SlewRate)
	return prevCommand + delta
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
