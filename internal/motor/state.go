package motor

import "time"

// Documented defaults for the correction stages.
const (
	DefaultKBoost             = 4.5
	DefaultCurrentThresholdMa = 15.0
	DefaultMinVoltageHighMv   = 1200.0
	DefaultMinVoltageLowMv    = 600.0
	DefaultTickPeriod         = 10 * time.Millisecond

	// DefaultSlewRateMv is seeded when the slew stage is enabled before any
	// rate was configured. 250 mV per tick walks the full ceiling in about
	// half a second at the default tick period.
	DefaultSlewRateMv = 250.0

	// Consecutive failed driver calls before the loop forces stop semantics.
	staleTickLimit = 10

	// IsSpinning considers the measured speed on-target within this band.
	spinToleranceRPM = 10.0
	// IsSpinningRaw ignores measured speed below this noise floor.
	spinNoiseFloorRPM = 5.0
)

// PIDGains is one regime's constant set. KV is the feedforward gain in
// millivolts per RPM of target; KP/KI/KD act on the RPM error.
type PIDGains struct {
	KV, KP, KI, KD float64
}

// Gains builds a feedforward+proportional set with no integral or derivative
// action, mirroring the short constant form of the command surface.
func Gains(kv, kp float64) PIDGains {
	return PIDGains{KV: kv, KP: kp}
}

// DefaultGains returns a conservative constant set scaled to the gearset: the
// feedforward alone reaches the ceiling at max RPM, feedback trims the rest.
func DefaultGains(g Gearset) PIDGains {
	return PIDGains{
		KV: DefaultVoltageCeilingMv / g.MaxRPM(),
		KP: 2.0,
		KI: 0.05,
		KD: 1.0,
	}
}

// DefaultVoltageCeilingMv is the absolute command ceiling reported by the
// bundled simulated driver. Real drivers report their own.
const DefaultVoltageCeilingMv = 12000.0

// Config holds the caller-staged configuration for one actuator. The tick loop
// snapshots the whole struct under the handle's lock, so a multi-field update
// is never observed torn.
type Config struct {
	Gearset   Gearset
	Reversed  bool
	BrakeMode BrakeMode

	PIDEnabled         bool
	Low, High          PIDGains
	StartIntegral      float64
	SwitchThresholdRPM float64 // 0 means half the gearset max

	SlewEnabled bool
	SlewRate    float64 // max command change per tick, mV

	LoadCompEnabled    bool
	KBoost             float64
	CurrentThresholdMa float64

	MinTorqueEnabled bool
	MinVoltageHighMv float64
	MinVoltageLowMv  float64
}

func defaultConfig(g Gearset) Config {
	return Config{
		Gearset:            g,
		BrakeMode:          BrakeCoast,
		PIDEnabled:         true,
		Low:                DefaultGains(g),
		High:               DefaultGains(g),
		KBoost:             DefaultKBoost,
		CurrentThresholdMa: DefaultCurrentThresholdMa,
		MinVoltageHighMv:   DefaultMinVoltageHighMv,
		MinVoltageLowMv:    DefaultMinVoltageLowMv,
	}
}

// switchThreshold resolves the regime switch point in RPM.
func (c *Config) switchThreshold() float64 {
	if c.SwitchThresholdRPM > 0 {
		return c.SwitchThresholdRPM
	}
	return c.Gearset.MaxRPM() / 2
}

// target is the staged setpoint in the caller's (user-frame) sign convention.
type target struct {
	mode  TargetMode
	value float64
}

// rpmEquivalent maps the setpoint to a signed RPM target.
func (t target) rpmEquivalent(g Gearset) float64 {
	if t.mode == ModePercent {
		return t.value / 100 * g.MaxRPM()
	}
	return t.value
}

// controlState is owned exclusively by the tick loop.
type controlState struct {
	integral    float64
	prevError   float64
	prevCommand float64 // slew-limited commanded trajectory, mV
	regime      Regime
}

func (cs *controlState) reset() {
	cs.integral = 0
	cs.prevError = 0
	cs.prevCommand = 0
}

// Telemetry is the per-tick measurement record mirrored for callers.
type Telemetry struct {
	RPM            float64
	PositionCounts float64
	VoltageMv      float64
	CurrentMa      float64
	TemperatureC   float64
}
