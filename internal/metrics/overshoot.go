package metrics

import "math"

// Overshoot reports the worst excursion past the target as a percentage of
// the target magnitude.
type Overshoot struct {
	name string
	max  float64
}

func NewOvershoot() *Overshoot {
	return &Overshoot{name: "overshoot_pct"}
}

func (m *Overshoot) Name() string { return m.name }

func (m *Overshoot) Observe(s Sample) {
	if s.TargetRPM == 0 {
		return
	}
	past := (math.Abs(s.RPM) - math.Abs(s.TargetRPM)) / math.Abs(s.TargetRPM) * 100
	if past > m.max && math.Signbit(s.RPM) == math.Signbit(s.TargetRPM) {
		m.max = past
	}
}

func (m *Overshoot) Value() float64 { return m.max }

func (m *Overshoot) Reset() { m.max = 0 }
