package motor

import "errors"

// Group fans commands out to several motors and aggregates their telemetry.
// It adds no locking of its own: every member call goes through that member's
// already thread-safe command surface, so cross-member readings may be skewed
// by up to one tick.
type Group struct {
	motors []*Motor
}

func NewGroup(motors ...*Motor) *Group {
	return &Group{motors: motors}
}

func (g *Group) Motors() []*Motor { return g.motors }

func (g *Group) Size() int { return len(g.motors) }

func (g *Group) SetTargetRPM(v float64) error {
	var errs []error
	for _, m := range g.motors {
		errs = append(errs, m.SetTargetRPM(v))
	}
	return errors.Join(errs...)
}

func (g *Group) SetTargetPercent(v float64) error {
	var errs []error
	for _, m := range g.motors {
		errs = append(errs, m.SetTargetPercent(v))
	}
	return errors.Join(errs...)
}

func (g *Group) Stop() {
	for _, m := range g.motors {
		m.Stop()
	}
}

func (g *Group) SetPIDEnabled(enabled bool) {
	for _, m := range g.motors {
		m.SetPIDEnabled(enabled)
	}
}

func (g *Group) SetDualConstants(low, high PIDGains) error {
	var errs []error
	for _, m := range g.motors {
		errs = append(errs, m.SetDualConstants(low, high))
	}
	return errors.Join(errs...)
}

func (g *Group) SetSlewLimitEnabled(enabled bool) {
	for _, m := range g.motors {
		m.SetSlewLimitEnabled(enabled)
	}
}

func (g *Group) SetSlewRate(mvPerTick float64) error {
	var errs []error
	for _, m := range g.motors {
		errs = append(errs, m.SetSlewRate(mvPerTick))
	}
	return errors.Join(errs...)
}

func (g *Group) SetBrakeMode(b BrakeMode) {
	for _, m := range g.motors {
		m.SetBrakeMode(b)
	}
}

func (g *Group) ResetPosition() {
	for _, m := range g.motors {
		m.ResetPosition()
	}
}

// RPM reports the mean of the members' latest speed snapshots.
func (g *Group) RPM() float64 {
	if len(g.motors) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range g.motors {
		sum += m.RPM()
	}
	return sum / float64(len(g.motors))
}

// Temperature reports the hottest member.
func (g *Group) Temperature() float64 {
	max := 0.0
	for _, m := range g.motors {
		if t := m.Temperature(); t > max {
			max = t
		}
	}
	return max
}

// Current reports the total drawn across members.
func (g *Group) Current() float64 {
	sum := 0.0
	for _, m := range g.motors {
		sum += m.Current()
	}
	return sum
}

func (g *Group) IsSpinning() bool {
	for _, m := range g.motors {
		if m.IsSpinning() {
			return true
		}
	}
	return false
}

func (g *Group) Close() error {
	var errs []error
	for _, m := range g.motors {
		errs = append(errs, m.Close())
	}
	return errors.Join(errs...)
}
