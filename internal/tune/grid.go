package tune

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/calder-labs/motorcore/internal/motor"
)

// Options bounds one grid search. KV is held at the gearset feedforward
// default; the grid walks the feedback terms.
type Options struct {
	Gearset   motor.Gearset
	TargetRPM float64
	Duration  float64
	Dt        float64
	BandRPM   float64

	KPs []float64
	KIs []float64
	KDs []float64
}

// DefaultOptions is a coarse grid around the stock gains, scoring a step to
// half the gearset max.
func DefaultOptions(g motor.Gearset) Options {
	return Options{
		Gearset:   g,
		TargetRPM: g.MaxRPM() / 2,
		Duration:  4,
		Dt:        0.01,
		BandRPM:   g.MaxRPM() * 0.02,
		KPs:       []float64{0.5, 1, 2, 4, 8},
		KIs:       []float64{0, 0.02, 0.05, 0.1, 0.2},
		KDs:       []float64{0, 0.5, 1, 2},
	}
}

func (o Options) validate() error {
	if o.TargetRPM == 0 {
		return fmt.Errorf("tune: target must be nonzero")
	}
	if o.Duration <= 0 || o.Dt <= 0 {
		return fmt.Errorf("tune: duration and dt must be positive")
	}
	if len(o.KPs) == 0 || len(o.KIs) == 0 || len(o.KDs) == 0 {
		return fmt.Errorf("tune: empty grid axis")
	}
	return nil
}

// Search scores every grid point in parallel and returns the results sorted
// best first.
func Search(ctx context.Context, opts Options) ([]Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	kv := motor.DefaultGains(opts.Gearset).KV
	var candidates []motor.PIDGains
	for _, kp := range opts.KPs {
		for _, ki := range opts.KIs {
			for _, kd := range opts.KDs {
				candidates = append(candidates, motor.PIDGains{KV: kv, KP: kp, KI: ki, KD: kd})
			}
		}
	}

	results := make([]Result, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i, g := range candidates {
		wg.Add(1)
		go func(idx int, gains motor.PIDGains) {
			defer wg.Done()
			if ctx.Err() != nil {
				errs[idx] = ctx.Err()
				return
			}
			results[idx], errs[idx] = runTrial(opts, gains)
		}(i, g)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(results, func(a, b int) bool {
		return results[a].Score < results[b].Score
	})
	return results, nil
}
