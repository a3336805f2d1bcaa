package metrics

import "math"

// SpeedRMSE reports the root-mean-square tracking error in RPM.
type SpeedRMSE struct {
	name    string
	sumSq   float64
	samples int
}

func NewSpeedRMSE() *SpeedRMSE {
	return &SpeedRMSE{name: "speed_rmse"}
}

func (m *SpeedRMSE) Name() string { return m.name }

func (m *SpeedRMSE) Observe(s Sample) {
	e := s.RPM - s.TargetRPM
	m.sumSq += e * e
	m.samples++
}

func (m *SpeedRMSE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *SpeedRMSE) Reset() {
	m.sumSq = 0
	m.samples = 0
}
