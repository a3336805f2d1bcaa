package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/calder-labs/motorcore/internal/motor"
)

const (
	DefaultDuration = 10.0
	DefaultDt       = 0.01
)

// Config is a rig profile: the bench of motors plus the run parameters.
type Config struct {
	Integrator string        `yaml:"integrator"` // euler or rk4
	Dt         float64       `yaml:"dt"`
	Duration   float64       `yaml:"duration"`
	NoiseRPM   float64       `yaml:"noise_rpm"`
	Seed       int64         `yaml:"seed"`
	Motors     []MotorConfig `yaml:"motors"`
}

type MotorConfig struct {
	Port      int     `yaml:"port"`
	Gearset   string  `yaml:"gearset"`
	Reversed  bool    `yaml:"reversed"`
	Brake     string  `yaml:"brake"`
	TargetRPM float64 `yaml:"target_rpm"`

	PID       PIDConfig       `yaml:"pid"`
	Slew      SlewConfig      `yaml:"slew"`
	LoadComp  LoadCompConfig  `yaml:"load_comp"`
	MinTorque MinTorqueConfig `yaml:"min_torque"`
}

// PIDConfig holds the regime constant sets. Disabled inverts the default so a
// bare profile runs closed-loop. A zero-valued gains block keeps the gearset
// defaults.
type PIDConfig struct {
	Disabled           bool        `yaml:"disabled"`
	Low                GainsConfig `yaml:"low"`
	High               GainsConfig `yaml:"high"`
	StartIntegral      float64     `yaml:"start_integral"`
	SwitchThresholdRPM float64     `yaml:"switch_threshold_rpm"`
}

type GainsConfig struct {
	KV float64 `yaml:"kv"`
	KP float64 `yaml:"kp"`
	KI float64 `yaml:"ki"`
	KD float64 `yaml:"kd"`
}

func (g GainsConfig) zero() bool {
	return g == GainsConfig{}
}

func (g GainsConfig) gains() motor.PIDGains {
	return motor.PIDGains{KV: g.KV, KP: g.KP, KI: g.KI, KD: g.KD}
}

type SlewConfig struct {
	Enabled bool    `yaml:"enabled"`
	RateMv  float64 `yaml:"rate_mv"`
}

type LoadCompConfig struct {
	Enabled     bool    `yaml:"enabled"`
	KBoost      float64 `yaml:"k_boost"`
	ThresholdMa float64 `yaml:"threshold_ma"`
}

type MinTorqueConfig struct {
	Enabled bool    `yaml:"enabled"`
	HighMv  float64 `yaml:"high_mv"`
	LowMv   float64 `yaml:"low_mv"`
}

// DefaultConfig is a single blue motor on port 1 under default closed-loop
// control.
func DefaultConfig() *Config {
	return &Config{
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Motors: []MotorConfig{
			{Port: 1, Gearset: "blue", TargetRPM: 300},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %f", c.Duration)
	}
	if c.Integrator != "euler" && c.Integrator != "rk4" {
		return fmt.Errorf("config: unknown integrator %q", c.Integrator)
	}
	if len(c.Motors) == 0 {
		return fmt.Errorf("config: profile has no motors")
	}
	seen := map[int]bool{}
	for _, mc := range c.Motors {
		if seen[mc.Port] {
			return fmt.Errorf("config: duplicate port %d", mc.Port)
		}
		seen[mc.Port] = true
		if _, err := motor.ParseGearset(mc.Gearset); err != nil {
			return err
		}
		if _, err := motor.ParseBrakeMode(mc.Brake); err != nil {
			return err
		}
	}
	return nil
}

// Apply pushes one motor block onto a live handle through its command surface.
func (mc MotorConfig) Apply(m *motor.Motor) error {
	m.SetReversed(mc.Reversed)

	brake, err := motor.ParseBrakeMode(mc.Brake)
	if err != nil {
		return err
	}
	m.SetBrakeMode(brake)

	m.SetPIDEnabled(!mc.PID.Disabled)
	g, err := motor.ParseGearset(mc.Gearset)
	if err != nil {
		return err
	}
	low, high := motor.DefaultGains(g), motor.DefaultGains(g)
	if !mc.PID.Low.zero() {
		low = mc.PID.Low.gains()
	}
	if !mc.PID.High.zero() {
		high = mc.PID.High.gains()
	}
	if err := m.SetDualConstants(low, high); err != nil {
		return err
	}
	if mc.PID.StartIntegral != 0 {
		if err := m.SetStartIntegral(mc.PID.StartIntegral); err != nil {
			return err
		}
	}
	if mc.PID.SwitchThresholdRPM != 0 {
		if err := m.SetSwitchThresholdRPM(mc.PID.SwitchThresholdRPM); err != nil {
			return err
		}
	}

	if mc.Slew.RateMv != 0 {
		if err := m.SetSlewRate(mc.Slew.RateMv); err != nil {
			return err
		}
	}
	// Enable after the rate so an enabled-with-no-rate profile falls back to
	// the handle's default rate.
	m.SetSlewLimitEnabled(mc.Slew.Enabled)

	m.SetLoadCompensation(mc.LoadComp.Enabled)
	if mc.LoadComp.KBoost != 0 || mc.LoadComp.ThresholdMa != 0 {
		kb, th := mc.LoadComp.KBoost, mc.LoadComp.ThresholdMa
		if kb == 0 {
			kb = motor.DefaultKBoost
		}
		if th == 0 {
			th = motor.DefaultCurrentThresholdMa
		}
		if err := m.SetLoadCompensationParams(kb, th); err != nil {
			return err
		}
	}

	m.SetMinTorque(mc.MinTorque.Enabled)
	if mc.MinTorque.HighMv != 0 || mc.MinTorque.LowMv != 0 {
		hi, lo := mc.MinTorque.HighMv, mc.MinTorque.LowMv
		if hi == 0 {
			hi = motor.DefaultMinVoltageHighMv
		}
		if lo == 0 {
			lo = motor.DefaultMinVoltageLowMv
		}
		if err := m.SetMinTorqueVoltages(hi, lo); err != nil {
			return err
		}
	}
	return nil
}
