package config

import "github.com/calder-labs/motorcore/internal/motor"

// Preset is a named gain recipe for one gearset.
type Preset struct {
	Low, High     motor.PIDGains
	StartIntegral float64
	Description   string
}

var Presets = map[string]map[string]Preset{
	"red": {
		"gentle": {
			Low:         motor.PIDGains{KV: 120, KP: 1, KI: 0.02, KD: 0.5},
			High:        motor.PIDGains{KV: 120, KP: 1.5, KI: 0.02, KD: 0.5},
			Description: "slow ramp for heavy mechanisms",
		},
		"holding": {
			Low:           motor.PIDGains{KV: 120, KP: 4, KI: 0.2, KD: 2},
			High:          motor.PIDGains{KV: 120, KP: 4, KI: 0.2, KD: 2},
			StartIntegral: 300,
			Description:   "stiff response against static load",
		},
	},
	"green": {
		"gentle": {
			Low:         motor.PIDGains{KV: 60, KP: 1.5, KI: 0.03, KD: 0.8},
			High:        motor.PIDGains{KV: 60, KP: 2, KI: 0.03, KD: 0.8},
			Description: "smooth drivetrain default",
		},
		"crisp": {
			Low:           motor.PIDGains{KV: 60, KP: 3, KI: 0.1, KD: 1.5},
			High:          motor.PIDGains{KV: 60, KP: 2.5, KI: 0.08, KD: 1.2},
			StartIntegral: 150,
			Description:   "fast settle, some overshoot",
		},
	},
	"blue": {
		"gentle": {
			Low:         motor.PIDGains{KV: 20, KP: 1, KI: 0.02, KD: 0.5},
			High:        motor.PIDGains{KV: 20, KP: 1.5, KI: 0.02, KD: 0.8},
			Description: "flywheel-friendly spin-up",
		},
		"crisp": {
			Low:           motor.PIDGains{KV: 20, KP: 3, KI: 0.1, KD: 1.5},
			High:          motor.PIDGains{KV: 20, KP: 2, KI: 0.08, KD: 1},
			StartIntegral: 200,
			Description:   "fast settle for light loads",
		},
		"aggressive": {
			Low:           motor.PIDGains{KV: 20, KP: 5, KI: 0.2, KD: 2},
			High:          motor.PIDGains{KV: 20, KP: 4, KI: 0.15, KD: 2},
			StartIntegral: 400,
			Description:   "maximum responsiveness, expect overshoot",
		},
	},
}

func GetPreset(gearset, name string) *Preset {
	gearsetPresets, ok := Presets[gearset]
	if !ok {
		return nil
	}
	p, ok := gearsetPresets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets(gearset string) []string {
	gearsetPresets, ok := Presets[gearset]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(gearsetPresets))
	for name := range gearsetPresets {
		names = append(names, name)
	}
	return names
}
