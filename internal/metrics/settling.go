package metrics

import "math"

// SettlingTime reports how long after the most recent target change the speed
// last sat outside the tolerance band. A trace that never enters the band
// scores its full duration.
type SettlingTime struct {
	name    string
	bandRPM float64

	prevTarget float64
	changeT    float64
	lastOutT   float64
	started    bool
}

func NewSettlingTime(bandRPM float64) *SettlingTime {
	return &SettlingTime{name: "settling_time", bandRPM: bandRPM}
}

func (m *SettlingTime) Name() string { return m.name }

func (m *SettlingTime) Observe(s Sample) {
	if !m.started || s.TargetRPM != m.prevTarget {
		m.prevTarget = s.TargetRPM
		m.changeT = s.T
		m.lastOutT = s.T
		m.started = true
	}
	if math.Abs(s.RPM-s.TargetRPM) > m.bandRPM {
		m.lastOutT = s.T
	}
}

func (m *SettlingTime) Value() float64 {
	if !m.started {
		return 0
	}
	return m.lastOutT - m.changeT
}

func (m *SettlingTime) Reset() {
	m.prevTarget = 0
	m.changeT = 0
	m.lastOutT = 0
	m.started = false
}
