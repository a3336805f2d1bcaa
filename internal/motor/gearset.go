package motor

import "fmt"

// Gearset is the discrete max-speed class of an actuator cartridge.
type Gearset int

const (
	GearsetRed   Gearset = iota // 100 RPM
	GearsetGreen                // 200 RPM
	GearsetBlue                 // 600 RPM
)

func (g Gearset) MaxRPM() float64 {
	switch g {
	case GearsetRed:
		return 100
	case GearsetGreen:
		return 200
	default:
		return 600
	}
}

func (g Gearset) String() string {
	switch g {
	case GearsetRed:
		return "red"
	case GearsetGreen:
		return "green"
	case GearsetBlue:
		return "blue"
	default:
		return "unknown"
	}
}

func ParseGearset(s string) (Gearset, error) {
	switch s {
	case "red":
		return GearsetRed, nil
	case "green":
		return GearsetGreen, nil
	case "blue", "":
		return GearsetBlue, nil
	default:
		return GearsetBlue, fmt.Errorf("motor: unknown gearset %q", s)
	}
}

// BrakeMode selects what the driver does at zero command.
type BrakeMode int

const (
	BrakeCoast BrakeMode = iota
	BrakeBrake
	BrakeHold
)

func (b BrakeMode) String() string {
	switch b {
	case BrakeCoast:
		return "coast"
	case BrakeBrake:
		return "brake"
	case BrakeHold:
		return "hold"
	default:
		return "unknown"
	}
}

func ParseBrakeMode(s string) (BrakeMode, error) {
	switch s {
	case "coast", "":
		return BrakeCoast, nil
	case "brake":
		return BrakeBrake, nil
	case "hold":
		return BrakeHold, nil
	default:
		return BrakeCoast, fmt.Errorf("motor: unknown brake mode %q", s)
	}
}

// TargetMode distinguishes RPM setpoints from open-throttle percent setpoints.
type TargetMode int

const (
	ModeRPM TargetMode = iota
	ModePercent
)

// Regime names the active PID parameter set.
type Regime int

const (
	RegimeLow Regime = iota
	RegimeHigh
)

func (r Regime) String() string {
	if r == RegimeHigh {
		return "high"
	}
	return "low"
}
