package tune

import (
	"github.com/calder-labs/motorcore/internal/integrators"
	"github.com/calder-labs/motorcore/internal/metrics"
	"github.com/calder-labs/motorcore/internal/motor"
	"github.com/calder-labs/motorcore/internal/sim"
)

// Score weights. Settling dominates; overshoot and effort break ties so the
// search does not reward gains that slam the ceiling.
const (
	overshootWeight = 0.02
	rmseWeight      = 0.01
	effortWeight    = 0.0001
)

// Result is one candidate's scored trial.
type Result struct {
	Gains        motor.PIDGains
	Score        float64
	SettlingS    float64
	OvershootPct float64
	RMSE         float64
	EffortMv     float64
}

// runTrial closes the loop against a fresh simulated motor and scores the
// step response toward the target.
func runTrial(opts Options, gains motor.PIDGains) (Result, error) {
	rig := sim.NewRig(integrators.NewRK4())
	rig.AddMotor(1, sim.NewDCMotor(opts.Gearset))

	m := motor.NewManual(rig, 1, opts.Gearset)
	defer m.Close()
	if err := m.SetDualConstants(gains, gains); err != nil {
		return Result{}, err
	}
	if err := m.SetTargetRPM(opts.TargetRPM); err != nil {
		return Result{}, err
	}

	steps := int(opts.Duration / opts.Dt)
	trace := make([]metrics.Sample, 0, steps)
	for i := 0; i < steps; i++ {
		m.Tick()
		rig.Advance(opts.Dt)
		trace = append(trace, metrics.Sample{
			T:            rig.Time(),
			TargetRPM:    opts.TargetRPM,
			RPM:          m.RPM(),
			CommandMv:    m.LastCommandMv(),
			CurrentMa:    m.Current(),
			TemperatureC: m.Temperature(),
		})
	}

	settling := metrics.NewSettlingTime(opts.BandRPM)
	overshoot := metrics.NewOvershoot()
	rmse := metrics.NewSpeedRMSE()
	effort := metrics.NewControlEffort()
	metrics.ObserveAll([]metrics.Metric{settling, overshoot, rmse, effort}, trace)

	r := Result{
		Gains:        gains,
		SettlingS:    settling.Value(),
		OvershootPct: overshoot.Value(),
		RMSE:         rmse.Value(),
		EffortMv:     effort.Value(),
	}
	r.Score = r.SettlingS +
		overshootWeight*r.OvershootPct +
		rmseWeight*r.RMSE +
		effortWeight*r.EffortMv
	return r, nil
}
