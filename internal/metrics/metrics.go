package metrics

// Sample is one control tick's worth of trace data.
type Sample struct {
	T            float64 `json:"t"` // seconds since trace start
	TargetRPM    float64 `json:"target_rpm"`
	RPM          float64 `json:"rpm"`
	CommandMv    float64 `json:"command_mv"`
	CurrentMa    float64 `json:"current_ma"`
	TemperatureC float64 `json:"temperature_c"`
}

// Metric folds a trace into a single score.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// ObserveAll feeds a full trace to every metric.
func ObserveAll(ms []Metric, trace []Sample) {
	for _, m := range ms {
		m.Reset()
	}
	for _, s := range trace {
		for _, m := range ms {
			m.Observe(s)
		}
	}
}
